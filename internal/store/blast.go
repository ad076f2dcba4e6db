package store

import (
	"fmt"
	"sort"
)

// AffectedFiles returns the paths of files, other than exceptPath, whose
// references mention any of names. When a file's entities are added or
// removed these are the files whose relationships may change on the next
// Resolve.
func (s *Store) AffectedFiles(names []string, exceptPath string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	query := `SELECT DISTINCT f.path
		FROM refs r JOIN files f ON f.id = r.file_id
		WHERE r.name IN (` + placeholderList(len(names)) + `) AND f.path <> ?`
	args := append(stringsToArgs(names), exceptPath)
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("affected files: %w", err)
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// ChangedNames compares two extractions of one file and returns, sorted, the
// names whose number of declarations differs.
func ChangedNames(before, after []*Entity) []string {
	count := map[string]int{}
	for _, e := range before {
		count[e.Name]--
	}
	for _, e := range after {
		count[e.Name]++
	}
	var out []string
	for name, c := range count {
		if c != 0 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
