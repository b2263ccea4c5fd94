package vault

import (
	"encoding/hex"
	"testing"
)

func TestEncryptDecrypt(t *testing.T) {
	key := []byte("thisis32byteslongsecretkey123456") // 32 bytes for AES-256
	plaintext := "rex"

	ciphertext, err := Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("Encryption failed: %v", err)
	}

	if ciphertext == plaintext {
		t.Fatal("Ciphertext should not be equal to plaintext")
	}

	decrypted, err := Decrypt(ciphertext, key)
	if err != nil {
		t.Fatalf("Decryption failed: %v", err)
	}

	if decrypted != plaintext {
		t.Errorf("Expected %s, got %s", plaintext, decrypted)
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	key1 := []byte("thisis32byteslongsecretkey123456")
	key2 := []byte("another32byteslongsecretkey65432")

	ciphertext, err := Encrypt("secret answer", key1)
	if err != nil {
		t.Fatalf("Encryption failed: %v", err)
	}

	if _, err := Decrypt(ciphertext, key2); err == nil {
		t.Fatal("Decryption should have failed with wrong key")
	}
}

func TestInvalidKeySize(t *testing.T) {
	if _, err := Encrypt("test", []byte("shortkey")); err == nil {
		t.Fatal("Encryption should have failed with a short key")
	}
}

func TestParseKey(t *testing.T) {
	key := []byte("thisis32byteslongsecretkey123456")
	parsed, err := ParseKey(hex.EncodeToString(key))
	if err != nil {
		t.Fatalf("ParseKey failed: %v", err)
	}
	if string(parsed) != string(key) {
		t.Error("Parsed key mismatch")
	}

	if _, err := ParseKey("zznothex"); err == nil {
		t.Error("Expected error for non-hex key")
	}
	if _, err := ParseKey("abcd"); err == nil {
		t.Error("Expected error for short key")
	}
}

func TestGenerateSelfSignedCert(t *testing.T) {
	cert, err := GenerateSelfSignedCert()
	if err != nil {
		t.Fatalf("GenerateSelfSignedCert failed: %v", err)
	}
	if len(cert.Certificate) == 0 {
		t.Error("Expected certificate bytes")
	}
	if cert.PrivateKey == nil {
		t.Error("Expected a private key")
	}
}
