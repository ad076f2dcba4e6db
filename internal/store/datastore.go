package store

// DataStore is the write surface extractors use. Both Store (direct SQLite)
// and BatchedStore (in-memory buffering for parallel extraction) implement
// it.
type DataStore interface {
	InsertEntity(e *Entity) (int64, error)
	InsertReference(r *Reference) (int64, error)

	EntitiesByFile(fileID int64) ([]*Entity, error)
}

var _ DataStore = (*Store)(nil)
