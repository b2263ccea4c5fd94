// Package engine implements the durable fraud-case store and its
// pluggable persistence backends.
package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/securetrust-dev/fraudguard/pkg/schema"
)

var (
	// ErrCaseNotFound is returned when no fraud case exists for a customer name.
	ErrCaseNotFound = errors.New("fraud case not found")
	// ErrBackendUnavailable is returned when the persistence backend cannot be
	// read or written at all. An absent-but-creatable resource is not this
	// error; that case initializes to an empty collection.
	ErrBackendUnavailable = errors.New("case backend unavailable")
)

// Backend is the read-all/write-all persistence contract the store runs on.
// Implementations hold one flat collection of fraud cases and support only
// whole-collection reads and overwrites.
type Backend interface {
	// ReadAll returns every stored case. Malformed entries are skipped with a
	// warning; they never abort the load. If the backing resource does not
	// exist yet it is created empty and an empty slice is returned.
	ReadAll() ([]schema.FraudCase, error)
	// WriteAll replaces the entire stored collection.
	WriteAll(cases []schema.FraudCase) error
}

// CaseStore is the durable collection of fraud cases. Every Upsert is a
// whole-collection read-modify-write, so a single mutex serializes mutations;
// without it two sessions resolving different cases could clobber each
// other's writes.
type CaseStore struct {
	mu      sync.Mutex
	backend Backend
}

// NewCaseStore wraps a persistence backend in the store contract.
func NewCaseStore(b Backend) *CaseStore {
	return &CaseStore{backend: b}
}

// LoadAll returns every case currently persisted.
func (s *CaseStore) LoadAll() ([]schema.FraudCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.ReadAll()
}

// FindByUsername returns the first case whose username matches the given
// name under trimmed, case-insensitive comparison. Returns ErrCaseNotFound
// when no case matches.
func (s *CaseStore) FindByUsername(name string) (schema.FraudCase, error) {
	cases, err := s.LoadAll()
	if err != nil {
		return schema.FraudCase{}, err
	}
	for _, c := range cases {
		if c.MatchesName(name) {
			return c, nil
		}
	}
	return schema.FraudCase{}, fmt.Errorf("%w: %q", ErrCaseNotFound, name)
}

// Upsert replaces the stored case with the same normalized username in place,
// or appends when none matches, then rewrites the whole collection. The
// case must be complete; this is not a field-level patch.
func (s *CaseStore) Upsert(updated schema.FraudCase) error {
	if err := updated.Validate(); err != nil {
		return fmt.Errorf("incomplete fraud case for %q: %w", updated.Username, err)
	}
	updated.ApplyDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()

	cases, err := s.backend.ReadAll()
	if err != nil {
		return err
	}

	replaced := false
	for i, c := range cases {
		if c.MatchesName(updated.Username) {
			cases[i] = updated
			replaced = true
			break
		}
	}
	if !replaced {
		cases = append(cases, updated)
	}

	return s.backend.WriteAll(cases)
}

// decodeCase validates a freshly parsed entry and applies defaults. Backends
// call this per entry so one malformed record never poisons the rest.
func decodeCase(c schema.FraudCase, origin string) (schema.FraudCase, bool) {
	if err := c.Validate(); err != nil {
		log.Printf("Warning: skipping malformed fraud case from %s: %v", origin, err)
		return schema.FraudCase{}, false
	}
	c.ApplyDefaults()
	return c, true
}
