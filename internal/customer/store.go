package customer

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Store owns the customers.json reference list and the in-memory index built
// from it. Adding a customer is transactional: the new record is staged,
// persisted to disk, and only then merged into the index, so a failed write
// never leaves the index ahead of the backing list.
type Store struct {
	mu    sync.Mutex
	path  string
	list  []string
	index *Index
}

// Load reads the reference list and builds the index. A missing or malformed
// file is an error; an empty list is not (the index just resolves nothing).
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read customers file: %w", err)
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse customers file %s: %w", path, err)
	}

	return &Store{
		path:  path,
		list:  list,
		index: Build(list),
	}, nil
}

// Index returns the live index backed by this store.
func (s *Store) Index() *Index {
	return s.index
}

// Add appends a new customer record: duplicate check, persist the staged
// list, then commit the index mutation. On any persistence failure nothing
// is mutated.
func (s *Store) Add(record string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index.Contains(record) {
		return ErrDuplicate
	}

	staged := make([]string, len(s.list), len(s.list)+1)
	copy(staged, s.list)
	staged = append(staged, record)

	if err := writeJSON(s.path, staged); err != nil {
		return fmt.Errorf("persist customers file: %w", err)
	}

	s.list = staged
	return s.index.Add(record)
}

// writeJSON writes atomically via a temp file and rename, so a crash mid-write
// cannot corrupt the reference list.
func writeJSON(path string, list []string) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
