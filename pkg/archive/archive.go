package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/skillforge/skillet/pkg/logger"
	"github.com/skillforge/skillet/pkg/twitter"
)

const (
	metadataFileName  = "metadata.json"
	objectFileName    = "object.json"
	formattedFileName = "object_formatted.json"
)

// Fetcher is the remote side of archival: tweet lookup plus media download.
// *twitter.Client satisfies it; tests inject fakes.
type Fetcher interface {
	Lookup(ctx context.Context, id string) (*twitter.Document, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// Metadata is the archive record. Its presence on disk is the sole
// idempotence signal: no metadata file means "not archived", regardless of
// what else the directory contains.
type Metadata struct {
	TweetID     string    `json:"tweet_id"`
	URL         string    `json:"url"`
	ArchivedAt  time.Time `json:"archived_at"`
	Dir         string    `json:"dir"`
	MediaFiles  []string  `json:"media_files"`
	TextExcerpt string    `json:"text_excerpt"`
}

// Options control a single Archive call
type Options struct {
	// Force refetches the tweet and redownloads all media even when an
	// archive already exists
	Force bool
	// Dest overrides the default <root>/archives/<id> output directory
	Dest string
}

// Archiver produces complete, idempotent on-disk bundles for tweet IDs
type Archiver struct {
	root    string
	cache   *ObjectCache
	fetcher Fetcher
}

// NewArchiver creates an archiver rooted at the given cache directory
func NewArchiver(root string, fetcher Fetcher) *Archiver {
	return &Archiver{
		root:    root,
		cache:   NewObjectCache(root),
		fetcher: fetcher,
	}
}

// Cache exposes the underlying object cache
func (a *Archiver) Cache() *ObjectCache {
	return a.cache
}

func (a *Archiver) archiveDir(id string) string {
	return filepath.Join(a.root, "archives", id)
}

// IsArchived reports whether the metadata marker exists for id
func (a *Archiver) IsArchived(id string) bool {
	_, err := os.Stat(filepath.Join(a.archiveDir(id), metadataFileName))
	return err == nil
}

// ReadMetadata loads the archive record for id from the default location
func (a *Archiver) ReadMetadata(id string) (*Metadata, error) {
	return readMetadataFile(filepath.Join(a.archiveDir(id), metadataFileName))
}

func readMetadataFile(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading archive metadata")
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrap(err, "decoding archive metadata")
	}
	return &meta, nil
}

// Archive produces the bundle for id. Without Force, an existing metadata
// marker short-circuits the call and no network access happens. Any fetch or
// download failure aborts before the marker is written, so a partial bundle
// is retried in full on the next call.
func (a *Archiver) Archive(ctx context.Context, id string, opts Options) (*Metadata, error) {
	dir := opts.Dest
	if dir == "" {
		dir = a.archiveDir(id)
	}
	metaPath := filepath.Join(dir, metadataFileName)

	if !opts.Force {
		if meta, err := readMetadataFile(metaPath); err == nil {
			logger.G(ctx).WithField("tweet_id", id).Debug("Tweet already archived")
			return meta, nil
		}
	}

	doc, err := a.lookup(ctx, id, opts.Force)
	if err != nil {
		return nil, err
	}

	formatted := Format(doc.Tweet)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating archive directory")
	}

	mediaFiles, err := a.downloadMedia(ctx, dir, formatted.Media)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(filepath.Join(dir, objectFileName), doc.Raw, 0o644); err != nil {
		return nil, errors.Wrap(err, "writing raw tweet document")
	}

	formattedData, err := json.MarshalIndent(formatted, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshaling formatted tweet")
	}
	if err := os.WriteFile(filepath.Join(dir, formattedFileName), formattedData, 0o644); err != nil {
		return nil, errors.Wrap(err, "writing formatted tweet")
	}

	meta := &Metadata{
		TweetID:     id,
		URL:         fmt.Sprintf("https://x.com/%s/status/%s", doc.Tweet.User.ScreenName, id),
		ArchivedAt:  time.Now().UTC(),
		Dir:         dir,
		MediaFiles:  mediaFiles,
		TextExcerpt: excerpt(doc.Tweet.Text),
	}

	// The metadata write is the last step and flips IsArchived to true.
	// Temp-then-rename keeps a reader from seeing a half-written marker.
	if err := writeMetadataFile(metaPath, meta); err != nil {
		return nil, err
	}

	logger.G(ctx).WithField("tweet_id", id).WithField("media_files", len(mediaFiles)).Info("Tweet archived")
	return meta, nil
}

func (a *Archiver) lookup(ctx context.Context, id string, force bool) (*twitter.Document, error) {
	if !force {
		if doc, ok := a.cache.Get(id); ok {
			logger.G(ctx).WithField("tweet_id", id).Debug("Tweet served from object cache")
			return doc, nil
		}
	}

	doc, err := a.fetcher.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := a.cache.Put(id, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// downloadMedia fetches every media item sequentially in document order.
// Indices come from the formatted media list, so naming is stable across
// repeated runs for identical input.
func (a *Archiver) downloadMedia(ctx context.Context, dir string, media []FormattedMedia) ([]string, error) {
	mediaFiles := []string{}

	for _, m := range media {
		if m.ThumbnailURL != "" {
			name := fmt.Sprintf("media_%d_thumb.%s", m.Index, extFromURL(m.ThumbnailURL))
			if err := a.downloadTo(ctx, m.ThumbnailURL, filepath.Join(dir, name)); err != nil {
				return nil, errors.Wrapf(err, "downloading thumbnail for media %d", m.Index)
			}
			mediaFiles = append(mediaFiles, name)
		}

		if m.URL == "" {
			continue
		}

		var name string
		if m.Kind == twitter.MediaTypePhoto {
			name = fmt.Sprintf("media_%d.%s", m.Index, extFromURL(m.URL))
		} else {
			name = fmt.Sprintf("media_%d.mp4", m.Index)
		}

		if err := a.downloadTo(ctx, m.URL, filepath.Join(dir, name)); err != nil {
			return nil, errors.Wrapf(err, "downloading media %d", m.Index)
		}
		mediaFiles = append(mediaFiles, name)
	}

	return mediaFiles, nil
}

func (a *Archiver) downloadTo(ctx context.Context, url, dest string) error {
	data, err := a.fetcher.Download(ctx, url)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}

func writeMetadataFile(path string, meta *Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling archive metadata")
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return errors.Wrap(err, "writing temporary metadata file")
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.Wrap(err, "renaming metadata file")
	}
	return nil
}
