package skills

import (
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Validate checks every skill directory under the configured dirs and
// aggregates the problems, so a single broken SKILL.md doesn't mask the rest.
// A nil return means every present skill loads cleanly.
func (d *Discovery) Validate() error {
	var result *multierror.Error

	for _, dir := range d.skillDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}

			entryPath := filepath.Join(dir, entry.Name())
			skillPath := filepath.Join(entryPath, skillFileName)

			if _, err := os.Stat(skillPath); os.IsNotExist(err) {
				result = multierror.Append(result, errors.Errorf("%s: no %s", entryPath, skillFileName))
				continue
			}

			if _, err := loadSkill(skillPath); err != nil {
				result = multierror.Append(result, errors.Wrap(err, entryPath))
			}
		}
	}

	return result.ErrorOrNil()
}
