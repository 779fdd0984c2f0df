package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCredentialEncryption(t *testing.T) {
	tempDir := t.TempDir()

	encryptor := NewCredentialEncryptor(tempDir)

	testSecret := "b1946ac92492d2347c6235b4d2611184b1946ac92492d2347c6235b4d2611184"

	encrypted, err := encryptor.Encrypt(testSecret)
	if err != nil {
		t.Fatalf("Failed to encrypt credential: %v", err)
	}

	if encrypted == "" {
		t.Fatal("Encrypted credential is empty")
	}

	if encrypted == testSecret {
		t.Fatal("Encrypted credential is same as plaintext")
	}

	if !strings.HasPrefix(encrypted, EncryptedPrefix) {
		t.Fatalf("Encrypted credential missing %q prefix: %s", EncryptedPrefix, encrypted)
	}

	decrypted, err := encryptor.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Failed to decrypt credential: %v", err)
	}

	if decrypted != testSecret {
		t.Fatalf("Decrypted credential doesn't match original. Got: %s, Want: %s", decrypted, testSecret)
	}
}

func TestDecryptWithoutPrefix(t *testing.T) {
	tempDir := t.TempDir()
	encryptor := NewCredentialEncryptor(tempDir)

	encrypted, err := encryptor.Encrypt("secret-value")
	if err != nil {
		t.Fatalf("Failed to encrypt credential: %v", err)
	}

	// The prefix is a storage convention, not part of the ciphertext
	bare := strings.TrimPrefix(encrypted, EncryptedPrefix)

	decrypted, err := encryptor.Decrypt(bare)
	if err != nil {
		t.Fatalf("Failed to decrypt bare credential: %v", err)
	}

	if decrypted != "secret-value" {
		t.Fatalf("Decrypted credential doesn't match. Got: %s, Want: secret-value", decrypted)
	}
}

func TestIsEncrypted(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"encrypted value", "enc:YWJjZGVm", true},
		{"plaintext value", "my-client-secret", false},
		{"empty value", "", false},
		{"prefix only", "enc:", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEncrypted(tt.value); got != tt.want {
				t.Errorf("IsEncrypted(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestEncryptEmptyCredential(t *testing.T) {
	tempDir := t.TempDir()
	encryptor := NewCredentialEncryptor(tempDir)

	_, err := encryptor.Encrypt("")
	if err == nil {
		t.Fatal("Expected error for empty credential, got nil")
	}
}

func TestDecryptEmptyCredential(t *testing.T) {
	tempDir := t.TempDir()
	encryptor := NewCredentialEncryptor(tempDir)

	_, err := encryptor.Decrypt("")
	if err == nil {
		t.Fatal("Expected error for empty encrypted credential, got nil")
	}
}

func TestDecryptInvalidData(t *testing.T) {
	tempDir := t.TempDir()
	encryptor := NewCredentialEncryptor(tempDir)

	// First encrypt a credential to create the key
	_, err := encryptor.Encrypt("test")
	if err != nil {
		t.Fatalf("Failed to encrypt credential: %v", err)
	}

	_, err = encryptor.Decrypt("enc:invalid-base64-data!!!")
	if err == nil {
		t.Fatal("Expected error for invalid encrypted credential, got nil")
	}
}

func TestDecryptTruncatedCiphertext(t *testing.T) {
	tempDir := t.TempDir()
	encryptor := NewCredentialEncryptor(tempDir)

	if _, err := encryptor.Encrypt("test"); err != nil {
		t.Fatalf("Failed to encrypt credential: %v", err)
	}

	// Valid base64 but shorter than a GCM nonce
	_, err := encryptor.Decrypt("enc:YWJj")
	if err == nil {
		t.Fatal("Expected error for truncated ciphertext, got nil")
	}
}

func TestKeyPersistence(t *testing.T) {
	tempDir := t.TempDir()

	encryptor1 := NewCredentialEncryptor(tempDir)
	testSecret := "client-secret-123"

	encrypted, err := encryptor1.Encrypt(testSecret)
	if err != nil {
		t.Fatalf("Failed to encrypt credential: %v", err)
	}

	// A new encryptor over the same data dir must reuse the persisted key
	encryptor2 := NewCredentialEncryptor(tempDir)

	decrypted, err := encryptor2.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Failed to decrypt credential with second encryptor: %v", err)
	}

	if decrypted != testSecret {
		t.Fatalf("Decrypted credential doesn't match. Got: %s, Want: %s", decrypted, testSecret)
	}
}

func TestDeleteKey(t *testing.T) {
	tempDir := t.TempDir()
	encryptor := NewCredentialEncryptor(tempDir)

	if _, err := encryptor.Encrypt("test"); err != nil {
		t.Fatalf("Failed to encrypt credential: %v", err)
	}

	keyPath := filepath.Join(tempDir, ".key")
	if _, err := os.Stat(keyPath); os.IsNotExist(err) {
		t.Fatal("Key file was not created")
	}

	if err := encryptor.DeleteKey(); err != nil {
		t.Fatalf("Failed to delete key: %v", err)
	}

	if _, err := os.Stat(keyPath); !os.IsNotExist(err) {
		t.Fatal("Key file still exists after deletion")
	}

	// Deleting an already-deleted key is not an error
	if err := encryptor.DeleteKey(); err != nil {
		t.Fatalf("Second DeleteKey failed: %v", err)
	}
}

func TestMultipleEncryptions(t *testing.T) {
	tempDir := t.TempDir()
	encryptor := NewCredentialEncryptor(tempDir)

	testSecret := "client-secret-456"

	encrypted1, err := encryptor.Encrypt(testSecret)
	if err != nil {
		t.Fatalf("Failed first encryption: %v", err)
	}

	encrypted2, err := encryptor.Encrypt(testSecret)
	if err != nil {
		t.Fatalf("Failed second encryption: %v", err)
	}

	// Encrypted values should be different (due to random nonce)
	if encrypted1 == encrypted2 {
		t.Fatal("Multiple encryptions of same credential produced identical ciphertext")
	}

	decrypted1, err := encryptor.Decrypt(encrypted1)
	if err != nil {
		t.Fatalf("Failed to decrypt first ciphertext: %v", err)
	}

	decrypted2, err := encryptor.Decrypt(encrypted2)
	if err != nil {
		t.Fatalf("Failed to decrypt second ciphertext: %v", err)
	}

	if decrypted1 != testSecret || decrypted2 != testSecret {
		t.Fatal("Decrypted credentials don't match original")
	}
}
