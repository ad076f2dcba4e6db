package store

import (
	"database/sql"
	"fmt"
)

// ReplaceFile swaps the stored extraction output of f.Path for the contents
// of batch within a single transaction. Any previous record of the file is
// deleted first. Returns the new file ID.
func (s *Store) ReplaceFile(f *File, batch *BatchedStore) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("replace file: begin: %w", err)
	}
	defer tx.Rollback()

	if err := deleteFileTx(tx, f.Path); err != nil {
		return 0, fmt.Errorf("replace file: %w", err)
	}

	res, err := tx.Exec(
		"INSERT INTO files (path, language, hash, last_indexed) VALUES (?, ?, ?, ?)",
		f.Path, f.Language, f.Hash, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("replace file: insert %s: %w", f.Path, err)
	}
	fileID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("replace file: last insert id: %w", err)
	}

	batch.mu.Lock()
	defer batch.mu.Unlock()

	for _, e := range batch.Entities {
		e.FileID = fileID
		if _, err := insertEntityTx(tx, &e); err != nil {
			return 0, fmt.Errorf("replace file: entity %q: %w", e.Name, err)
		}
	}
	for _, r := range batch.References {
		r.FileID = fileID
		if _, err := insertReferenceTx(tx, &r); err != nil {
			return 0, fmt.Errorf("replace file: reference %q: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("replace file: commit: %w", err)
	}
	f.ID = fileID
	return fileID, nil
}

func insertEntityTx(tx *sql.Tx, e *Entity) (int64, error) {
	res, err := tx.Exec(
		"INSERT INTO entities (file_id, kind, name, signature, line) VALUES (?, ?, ?, ?, ?)",
		e.FileID, e.Kind, e.Name, e.Signature, e.Line,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertReferenceTx(tx *sql.Tx, r *Reference) (int64, error) {
	res, err := tx.Exec(
		"INSERT INTO refs (file_id, from_signature, from_name, name, kind, line) VALUES (?, ?, ?, ?, ?, ?)",
		r.FileID, nullable(r.FromSignature), nullable(r.FromName), r.Name, string(r.Kind), r.Line,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
