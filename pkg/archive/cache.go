// Package archive implements the tweet archival cache: a file-backed object
// cache keyed by tweet ID and an archive manager that produces idempotent,
// self-contained on-disk bundles (raw document, formatted projection, media
// files and a metadata marker).
package archive

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/skillforge/skillet/pkg/twitter"
)

// ObjectCache stores raw tweet documents under <root>/objects/<id>.json.
// There is no locking: concurrent writes for the same ID are last-writer-wins,
// which is acceptable for one CLI invocation per tweet at a time.
type ObjectCache struct {
	root string
}

// NewObjectCache creates an object cache rooted at the given directory
func NewObjectCache(root string) *ObjectCache {
	return &ObjectCache{root: root}
}

func (c *ObjectCache) objectPath(id string) string {
	return filepath.Join(c.root, "objects", id+".json")
}

// Get returns the cached document for id. A missing, unreadable or corrupt
// file is reported as a plain miss; this layer never surfaces read errors.
func (c *ObjectCache) Get(id string) (*twitter.Document, bool) {
	data, err := os.ReadFile(c.objectPath(id))
	if err != nil {
		return nil, false
	}

	doc, err := twitter.ParseDocument(data)
	if err != nil {
		return nil, false
	}
	return doc, true
}

// Put writes the document's raw payload to the slot for id, creating the
// directory structure as needed and overwriting any prior value
func (c *ObjectCache) Put(id string, doc *twitter.Document) error {
	path := c.objectPath(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating objects directory")
	}

	if err := os.WriteFile(path, doc.Raw, 0o644); err != nil {
		return errors.Wrapf(err, "writing cached tweet %s", id)
	}
	return nil
}

// Evict removes the slot for id; evicting an absent ID is a no-op
func (c *ObjectCache) Evict(id string) error {
	err := os.Remove(c.objectPath(id))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "evicting cached tweet %s", id)
	}
	return nil
}
