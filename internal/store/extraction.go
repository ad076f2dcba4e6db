package store

import (
	"database/sql"
	"fmt"
)

// --- File operations ---

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, language, hash, last_indexed) VALUES (?, ?, ?, ?)",
		f.Path, f.Language, f.Hash, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

// FileByPath returns the file record for path, or nil if it was never
// indexed.
func (s *Store) FileByPath(path string) (*File, error) {
	f := &File{}
	err := s.db.QueryRow(
		"SELECT id, path, language, hash, last_indexed FROM files WHERE path = ?", path,
	).Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LastIndexed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

// FileHash returns the content hash recorded for path.
func (s *Store) FileHash(path string) (string, bool, error) {
	var hash string
	err := s.db.QueryRow("SELECT hash FROM files WHERE path = ?", path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("file hash: %w", err)
	}
	return hash, true, nil
}

// Files returns every indexed file ordered by path.
func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query("SELECT id, path, language, hash, last_indexed FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LastIndexed); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// --- Entity operations ---

func (s *Store) InsertEntity(e *Entity) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO entities (file_id, kind, name, signature, line) VALUES (?, ?, ?, ?, ?)",
		e.FileID, e.Kind, e.Name, e.Signature, e.Line,
	)
	if err != nil {
		return 0, fmt.Errorf("insert entity: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	e.ID = id
	return id, nil
}

const entityCols = `id, file_id, kind, name, signature, line`

func (s *Store) queryEntities(query string, args ...any) ([]*Entity, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Entity
	for rows.Next() {
		e := &Entity{}
		if err := rows.Scan(&e.ID, &e.FileID, &e.Kind, &e.Name, &e.Signature, &e.Line); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EntitiesByFile returns the entities of a file in line order.
func (s *Store) EntitiesByFile(fileID int64) ([]*Entity, error) {
	out, err := s.queryEntities("SELECT "+entityCols+" FROM entities WHERE file_id = ? ORDER BY line, id", fileID)
	if err != nil {
		return nil, fmt.Errorf("entities by file: %w", err)
	}
	return out, nil
}

// EntitiesByName returns every entity called name.
func (s *Store) EntitiesByName(name string) ([]*Entity, error) {
	out, err := s.queryEntities("SELECT "+entityCols+" FROM entities WHERE name = ? ORDER BY id", name)
	if err != nil {
		return nil, fmt.Errorf("entities by name: %w", err)
	}
	return out, nil
}

// --- Reference operations ---

func (s *Store) InsertReference(r *Reference) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO refs (file_id, from_signature, from_name, name, kind, line) VALUES (?, ?, ?, ?, ?, ?)",
		r.FileID, nullable(r.FromSignature), nullable(r.FromName), r.Name, string(r.Kind), r.Line,
	)
	if err != nil {
		return 0, fmt.Errorf("insert reference: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	r.ID = id
	return id, nil
}

// ReferencesByFile returns the unresolved references recorded for a file.
func (s *Store) ReferencesByFile(fileID int64) ([]*Reference, error) {
	rows, err := s.db.Query(
		`SELECT id, file_id, COALESCE(from_signature, ''), COALESCE(from_name, ''), name, kind, COALESCE(line, 0)
		 FROM refs WHERE file_id = ? ORDER BY id`, fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("references by file: %w", err)
	}
	defer rows.Close()
	var out []*Reference
	for rows.Next() {
		r := &Reference{}
		var kind string
		if err := rows.Scan(&r.ID, &r.FileID, &r.FromSignature, &r.FromName, &r.Name, &kind, &r.Line); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		r.Kind = RefKind(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Counts is the row count of each table.
type Counts struct {
	Files         int
	Entities      int
	References    int
	Relationships int
}

// Counts returns the number of rows per table.
func (s *Store) Counts() (Counts, error) {
	var c Counts
	for _, q := range []struct {
		table string
		dst   *int
	}{
		{"files", &c.Files},
		{"entities", &c.Entities},
		{"refs", &c.References},
		{"relationships", &c.Relationships},
	} {
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + q.table).Scan(q.dst); err != nil {
			return Counts{}, fmt.Errorf("count %s: %w", q.table, err)
		}
	}
	return c, nil
}
