package engine

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/securetrust-dev/fraudguard/pkg/schema"
)

// FilePersistence stores the whole case collection as one JSON array file.
// This is the default backend and matches the hand-editable on-disk format
// the fraud desk seeds cases with.
type FilePersistence struct {
	path string
}

// NewFilePersistence prepares a file backend at the given path, creating the
// parent directory if needed. The file itself is created lazily on first read.
func NewFilePersistence(path string) (*FilePersistence, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return &FilePersistence{path: path}, nil
}

// Path returns the location of the backing file.
func (p *FilePersistence) Path() string {
	return p.path
}

// ReadAll loads every case from the backing file. A missing file is
// initialized to an empty collection. Each entry is decoded independently:
// an entry that fails to parse or is missing a required field is skipped
// with a warning. A file that is present but not valid JSON is fatal.
func (p *FilePersistence) ReadAll() ([]schema.FraudCase, error) {
	content, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		log.Printf("Warning: fraud case file not found at %s, creating empty file.", p.path)
		if werr := os.WriteFile(p.path, []byte("[]"), 0644); werr != nil {
			return nil, fmt.Errorf("%w: initializing %s: %v", ErrBackendUnavailable, p.path, werr)
		}
		return []schema.FraudCase{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrBackendUnavailable, p.path, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s is not a valid case collection: %v", ErrBackendUnavailable, p.path, err)
	}

	cases := []schema.FraudCase{}
	for _, entry := range raw {
		var c schema.FraudCase
		if err := json.Unmarshal(entry, &c); err != nil {
			log.Printf("Warning: skipping unparsable fraud case in %s: %v", p.path, err)
			continue
		}
		if valid, ok := decodeCase(c, p.path); ok {
			cases = append(cases, valid)
		}
	}
	return cases, nil
}

// WriteAll rewrites the backing file with the entire collection, going
// through a temporary file and an atomic rename so a crash mid-write leaves
// either the old file or the new one, never a torn one.
func (p *FilePersistence) WriteAll(cases []schema.FraudCase) error {
	bytes, err := json.MarshalIndent(cases, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding cases: %v", ErrBackendUnavailable, err)
	}

	tempPath := p.path + ".tmp"
	if err := os.WriteFile(tempPath, bytes, 0644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrBackendUnavailable, tempPath, err)
	}
	if err := os.Rename(tempPath, p.path); err != nil {
		return fmt.Errorf("%w: replacing %s: %v", ErrBackendUnavailable, p.path, err)
	}
	return nil
}
