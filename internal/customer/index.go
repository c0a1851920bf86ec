package customer

import (
	"errors"
	"regexp"
	"strings"
	"sync"
)

// ErrDuplicate is returned when a record already exists verbatim in the list.
var ErrDuplicate = errors.New("customer already exists")

// codePattern matches records of the form "(code) display name".
var codePattern = regexp.MustCompile(`^\((.*?)\)\s*(.*)$`)

// DeriveKey extracts the lookup key from a customer record. For records
// shaped "(code) name" the key is the display name; otherwise the key is the
// whole trimmed record. Returns "" for records that yield no usable key.
func DeriveKey(record string) string {
	record = strings.TrimSpace(record)
	if m := codePattern.FindStringSubmatch(record); m != nil {
		return strings.TrimSpace(m[2])
	}
	return record
}

type entry struct {
	key    string // display name, original casing
	record string // full canonical record
}

// Index maps derived customer keys to canonical records. Keys preserve
// insertion order so that fuzzy matching downstream is deterministic.
type Index struct {
	mu        sync.RWMutex
	entries   []entry
	byKey     map[string]string // original-case key -> record
	byFold    map[string]string // folded key -> record
	records   []string
	recordSet map[string]struct{}
}

// Build constructs an index from a reference list. Empty and whitespace-only
// records are skipped. When two records derive the same folded key the
// later one wins; callers must not rely on which record a colliding key
// resolves to.
func Build(records []string) *Index {
	idx := &Index{
		byKey:     make(map[string]string),
		byFold:    make(map[string]string),
		recordSet: make(map[string]struct{}),
	}
	for _, r := range records {
		idx.insert(r)
	}
	return idx
}

func (idx *Index) insert(record string) {
	record = strings.TrimSpace(record)
	if record == "" {
		return
	}
	key := DeriveKey(record)
	if key == "" {
		return
	}
	if _, seen := idx.recordSet[record]; !seen {
		idx.records = append(idx.records, record)
		idx.recordSet[record] = struct{}{}
	}
	if _, seen := idx.byKey[key]; !seen {
		idx.entries = append(idx.entries, entry{key: key, record: record})
	}
	idx.byKey[key] = record
	idx.byFold[Fold(key)] = record
}

// Add merges a single new record into the index. It fails with ErrDuplicate
// when the record is already present verbatim; the index is left unchanged.
func (idx *Index) Add(record string) error {
	record = strings.TrimSpace(record)
	if record == "" || DeriveKey(record) == "" {
		return errors.New("empty customer record")
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.recordSet[record]; ok {
		return ErrDuplicate
	}
	idx.insert(record)
	return nil
}

// LookupExact returns the record for a case-sensitive key match, or passes an
// already-canonical record string through unchanged.
func (idx *Index) LookupExact(key string) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if record, ok := idx.byKey[key]; ok {
		return record, true
	}
	if _, ok := idx.recordSet[key]; ok {
		return key, true
	}
	return "", false
}

// LookupFold returns the record for a case-insensitive key match.
func (idx *Index) LookupFold(key string) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	record, ok := idx.byFold[Fold(key)]
	return record, ok
}

// Contains reports whether the exact record string is in the list.
func (idx *Index) Contains(record string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.recordSet[strings.TrimSpace(record)]
	return ok
}

// Keys returns the derived keys in insertion order.
func (idx *Index) Keys() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	keys := make([]string, len(idx.entries))
	for i, e := range idx.entries {
		keys[i] = e.key
	}
	return keys
}

// Records returns the canonical records in insertion order.
func (idx *Index) Records() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]string, len(idx.records))
	copy(out, idx.records)
	return out
}

// Record returns the canonical record a key maps to, preferring original-case
// then folded lookup.
func (idx *Index) Record(key string) (string, bool) {
	if record, ok := idx.LookupExact(key); ok {
		return record, true
	}
	return idx.LookupFold(key)
}

// Len returns the number of records.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.records)
}

// Empty reports whether no resolution is possible because the reference list
// holds no usable records. This is an observable condition, not an error.
func (idx *Index) Empty() bool {
	return idx.Len() == 0
}
