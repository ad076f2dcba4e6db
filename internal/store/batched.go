package store

import "sync"

// BatchedStore buffers the extraction output of one file in memory using
// fake (negative) IDs, so that parsing can run in parallel and the result
// can be committed in a single transaction with ReplaceFile.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
type BatchedStore struct {
	mu sync.Mutex

	Entities   []Entity
	References []Reference

	nextFakeID int64 // starts at -1, decrements
}

var _ DataStore = (*BatchedStore)(nil)

func NewBatchedStore() *BatchedStore {
	return &BatchedStore{nextFakeID: -1}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) InsertEntity(e *Entity) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e.ID = b.allocFakeID()
	b.Entities = append(b.Entities, *e)
	return e.ID, nil
}

func (b *BatchedStore) InsertReference(r *Reference) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r.ID = b.allocFakeID()
	b.References = append(b.References, *r)
	return r.ID, nil
}

// EntitiesByFile returns the buffered entities. A BatchedStore only ever
// holds one file, so fileID is ignored.
func (b *BatchedStore) EntitiesByFile(int64) ([]*Entity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Entity, len(b.Entities))
	for i := range b.Entities {
		out[i] = &b.Entities[i]
	}
	return out, nil
}
