package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/repoqa/internal/vectorstore"
)

// ErrRecordNotFound is returned when no metadata record exists for a repo.
var ErrRecordNotFound = errors.New("repository record not found")

// MetaStore persists repository metadata records as JSON files, one per
// indexed repository, alongside the vector index.
//
// Records are keyed by the sanitized repository name. The record's
// Collection field holds the live collection, which may carry a staging
// suffix after a re-index, so the key and the collection name are not
// always the same string.
type MetaStore struct {
	dir string
}

// NewMetaStore creates a metadata store rooted at dir.
func NewMetaStore(dir string) (*MetaStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("meta directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating meta directory: %w", err)
	}
	return &MetaStore{dir: dir}, nil
}

// RecordKey returns the metadata key for a repository name.
func RecordKey(repoName string) string {
	return vectorstore.SanitizeCollectionName(repoName)
}

func (m *MetaStore) path(key string) string {
	return filepath.Join(m.dir, key+".json")
}

// Save writes a record, replacing any existing one for the repository.
func (m *MetaStore) Save(record *Record) error {
	if record.RepoName == "" {
		return fmt.Errorf("record has no repository name")
	}
	if record.Collection == "" {
		return fmt.Errorf("record has no collection name")
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	if err := os.WriteFile(m.path(RecordKey(record.RepoName)), data, 0o644); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}

// Load reads the record stored under the given key.
func (m *MetaStore) Load(key string) (*Record, error) {
	data, err := os.ReadFile(m.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, key)
		}
		return nil, fmt.Errorf("reading record: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshaling record %s: %w", key, err)
	}
	return &record, nil
}

// List returns all records sorted by repository name.
func (m *MetaStore) List() ([]*Record, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("reading meta directory: %w", err)
	}

	var records []*Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		record, err := m.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].RepoName < records[j].RepoName })

	return records, nil
}

// Delete removes the record stored under the given key.
func (m *MetaStore) Delete(key string) error {
	if err := os.Remove(m.path(key)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrRecordNotFound, key)
		}
		return fmt.Errorf("deleting record: %w", err)
	}
	return nil
}
