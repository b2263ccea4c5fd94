package engine

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/securetrust-dev/fraudguard/pkg/schema"
)

const caseBucket = "cases"

// BoltBackend keeps the case collection in a single-file embedded BoltDB
// database, one entry per normalized username. No external database process
// is required, which suits single-host fraud-desk deployments.
type BoltBackend struct {
	db *bolt.DB
}

// NewBoltBackend opens (or creates) the database file and ensures the case
// bucket exists.
func NewBoltBackend(path string) (*BoltBackend, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrBackendUnavailable, path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(caseBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating bucket: %v", ErrBackendUnavailable, err)
	}

	return &BoltBackend{db: db}, nil
}

// Close releases the database file lock.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}

// ReadAll returns every stored case. Entries that fail to decode or are
// missing required fields are skipped with a warning.
func (b *BoltBackend) ReadAll() ([]schema.FraudCase, error) {
	cases := []schema.FraudCase{}

	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(caseBucket)).ForEach(func(k, v []byte) error {
			var c schema.FraudCase
			if err := json.Unmarshal(v, &c); err != nil {
				log.Printf("Warning: skipping unparsable fraud case %q in bolt store: %v", k, err)
				return nil
			}
			if valid, ok := decodeCase(c, "bolt:"+string(k)); ok {
				cases = append(cases, valid)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: reading bolt store: %v", ErrBackendUnavailable, err)
	}
	return cases, nil
}

// WriteAll replaces the whole bucket with the given collection in one
// transaction, so readers never observe a half-written state.
func (b *BoltBackend) WriteAll(cases []schema.FraudCase) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(caseBucket)); err != nil {
			return err
		}
		bucket, err := tx.CreateBucket([]byte(caseBucket))
		if err != nil {
			return err
		}
		for _, c := range cases {
			data, err := json.Marshal(c)
			if err != nil {
				return err
			}
			if err := bucket.Put([]byte(schema.NormalizeName(c.Username)), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: writing bolt store: %v", ErrBackendUnavailable, err)
	}
	return nil
}
