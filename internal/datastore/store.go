package datastore

import (
	"sync"

	"github.com/nemanja-m/divvy/pkg/kinds"
)

// Store hands out the slice of a dataset a dividend covers. ok is false
// when the store has nothing for the dataset or the dividend is invalid.
type Store interface {
	GetSlice(ds kinds.Dataset, d kinds.Dividend) (ids, smiles []string, ok bool)
}

// MemoryStore keeps whole corpora in memory. It is not safe for concurrent
// use; wrap it in Locked when shared between workers.
type MemoryStore struct {
	docs map[kinds.Dataset]*Doc
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[kinds.Dataset]*Doc)}
}

func (s *MemoryStore) Put(ds kinds.Dataset, doc *Doc) {
	s.docs[ds] = doc
}

func (s *MemoryStore) Doc(ds kinds.Dataset) (*Doc, bool) {
	doc, ok := s.docs[ds]
	return doc, ok
}

func (s *MemoryStore) GetSlice(ds kinds.Dataset, d kinds.Dividend) ([]string, []string, bool) {
	doc, ok := s.docs[ds]
	if !ok || !d.Valid() {
		return nil, nil, false
	}
	start, end := d.Bounds(doc.Len())
	ids, smiles := doc.Slice(start, end)
	return ids, smiles, true
}

func (s *MemoryStore) Info() string {
	counts := make(map[string]int, len(s.docs))
	for ds, doc := range s.docs {
		counts[ds.String()] = doc.Len()
	}
	return Summary(counts)
}

// Locked serializes access to a Store. Every GetSlice call holds the lock
// for its whole duration.
type Locked struct {
	mu    sync.Mutex
	store Store
}

func NewLocked(store Store) *Locked {
	return &Locked{store: store}
}

func (l *Locked) GetSlice(ds kinds.Dataset, d kinds.Dividend) ([]string, []string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.GetSlice(ds, d)
}
