package engine

import (
	"fmt"
	"log"

	"github.com/securetrust-dev/fraudguard/internal/vault"
	"github.com/securetrust-dev/fraudguard/pkg/schema"
)

// EncryptedBackend decorates another backend so security answers are
// AES-GCM encrypted at rest. Everything above the backend keeps working on
// plaintext answers; only the persisted form changes.
type EncryptedBackend struct {
	inner Backend
	key   []byte
}

// NewEncryptedBackend wraps a backend with answer-at-rest encryption under a
// 32-byte key.
func NewEncryptedBackend(inner Backend, key []byte) *EncryptedBackend {
	return &EncryptedBackend{inner: inner, key: key}
}

// ReadAll decrypts each stored security answer. An answer that fails to
// decrypt (wrong key, tampering, or a plaintext entry seeded by hand) skips
// the whole case: better to drop it than to verify callers against garbage.
func (e *EncryptedBackend) ReadAll() ([]schema.FraudCase, error) {
	cases, err := e.inner.ReadAll()
	if err != nil {
		return nil, err
	}

	out := []schema.FraudCase{}
	for _, c := range cases {
		plain, err := vault.Decrypt(c.SecurityAnswer, e.key)
		if err != nil {
			log.Printf("Warning: skipping fraud case for %q: cannot decrypt security answer: %v", c.Username, err)
			continue
		}
		c.SecurityAnswer = plain
		out = append(out, c)
	}
	return out, nil
}

// WriteAll encrypts each security answer before handing the collection to
// the inner backend.
func (e *EncryptedBackend) WriteAll(cases []schema.FraudCase) error {
	sealed := make([]schema.FraudCase, len(cases))
	for i, c := range cases {
		enc, err := vault.Encrypt(c.SecurityAnswer, e.key)
		if err != nil {
			return fmt.Errorf("%w: encrypting answer for %q: %v", ErrBackendUnavailable, c.Username, err)
		}
		c.SecurityAnswer = enc
		sealed[i] = c
	}
	return e.inner.WriteAll(sealed)
}
