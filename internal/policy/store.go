package policy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/bioquery/internal/schemas"
	"github.com/jonathan/bioquery/internal/types"
)

// ErrStale is returned by Load when the stored snapshot is older than the
// requested maximum age.
var ErrStale = errors.New("policy cache is stale")

// Snapshot is a complete set of policy code entries and the time it was fetched.
type Snapshot struct {
	Entries   map[string]types.PolicyCodeEntry
	FetchedAt time.Time
}

// cacheFile is the on-disk layout: {"codes": {CODE: entry}, "timestamp": epoch seconds}.
type cacheFile struct {
	Codes     map[string]types.PolicyCodeEntry `json:"codes"`
	Timestamp float64                          `json:"timestamp"`
}

// FileStore persists snapshots as a single JSON file.
type FileStore struct {
	path string
	now  func() time.Time
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Path returns the cache file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the snapshot. It fails when the file is missing (os.ErrNotExist),
// does not match the cache schema, or is older than maxAge (ErrStale).
// A maxAge of zero disables the age check.
func (s *FileStore) Load(maxAge time.Duration) (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read policy cache %s: %w", s.path, err)
	}

	if err := schemas.ValidateDocument(schemas.PolicyCache, data); err != nil {
		return Snapshot{}, fmt.Errorf("policy cache %s is corrupt: %w", s.path, err)
	}

	var f cacheFile
	if err := json.Unmarshal(data, &f); err != nil {
		return Snapshot{}, fmt.Errorf("policy cache %s is corrupt: %w", s.path, err)
	}

	fetchedAt := time.Unix(0, int64(f.Timestamp*float64(time.Second)))
	if maxAge > 0 && s.now().Sub(fetchedAt) >= maxAge {
		return Snapshot{}, fmt.Errorf("%w: fetched %s", ErrStale, fetchedAt.Format(time.RFC3339))
	}

	entries := make(map[string]types.PolicyCodeEntry, len(f.Codes))
	for code, entry := range f.Codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if entry.Code == "" {
			entry.Code = code
		}
		entries[code] = entry
	}
	return Snapshot{Entries: entries, FetchedAt: fetchedAt}, nil
}

// Save writes snap to a temporary file and renames it over the cache file.
func (s *FileStore) Save(snap Snapshot) error {
	f := cacheFile{
		Codes:     snap.Entries,
		Timestamp: float64(snap.FetchedAt.UnixNano()) / float64(time.Second),
	}
	if f.Codes == nil {
		f.Codes = map[string]types.PolicyCodeEntry{}
	}

	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode policy cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write policy cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write policy cache: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace policy cache %s: %w", s.path, err)
	}
	return nil
}

// Remove deletes the cache file. A missing file is not an error.
func (s *FileStore) Remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove policy cache %s: %w", s.path, err)
	}
	return nil
}
