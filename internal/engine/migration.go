package engine

import "fmt"

// Migrate copies every case from a source backend into a destination store.
// This covers both seeding a fresh deployment from a hand-written JSON file
// and moving an existing desk between backends (file -> bolt -> database).
// Cases already present in the destination are replaced by username, so
// running a migration twice is harmless.
func Migrate(src Backend, dst *CaseStore) (int, error) {
	cases, err := src.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("reading migration source: %w", err)
	}

	for i, c := range cases {
		if err := dst.Upsert(c); err != nil {
			return i, fmt.Errorf("migrating case for %q: %w", c.Username, err)
		}
	}
	return len(cases), nil
}
