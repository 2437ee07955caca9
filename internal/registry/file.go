package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/roomstack/sheetsync/internal"
	"github.com/roomstack/sheetsync/internal/util"
	"github.com/shopmonkeyus/go-common/logger"
)

const mappingFileName = "table_schema.json"

// FileRegistry resolves versioned schema mapping documents from a directory
// layout with one subdirectory per version, each holding a
// table_schema.json document.
type FileRegistry struct {
	logger logger.Logger
	dir    string
}

// NewFileRegistry returns a MappingRegistry over the given root directory.
func NewFileRegistry(log logger.Logger, dir string) *FileRegistry {
	return &FileRegistry{logger: log.WithPrefix("[registry]"), dir: dir}
}

var _ internal.MappingRegistry = (*FileRegistry)(nil)

// Versions returns every version that carries a mapping document, in
// ascending order. Version names are timestamps so lexical order is
// chronological.
func (r *FileRegistry) Versions() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if util.Exists(filepath.Join(r.dir, entry.Name(), mappingFileName)) {
			versions = append(versions, entry.Name())
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// Latest returns the most recent version.
func (r *FileRegistry) Latest() (string, error) {
	versions, err := r.Versions()
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", errors.New("no schema versions found")
	}
	return versions[len(versions)-1], nil
}

// Load returns the mapping document for the version, defaulting to the
// latest version when empty.
func (r *FileRegistry) Load(version string) (*internal.Mapping, error) {
	if version == "" {
		latest, err := r.Latest()
		if err != nil {
			return nil, err
		}
		version = latest
	}
	fn := filepath.Join(r.dir, version, mappingFileName)
	buf, err := os.ReadFile(fn)
	if err != nil {
		return nil, errors.Wrapf(err, "no schema mapping for version %s", version)
	}
	var mapping internal.Mapping
	if err := json.Unmarshal(buf, &mapping); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", fn)
	}
	mapping.Version = version
	r.logger.Debug("loaded version %s: %d tables, %d relationships", version, len(mapping.Nodes), len(mapping.Relationships))
	return &mapping, nil
}
