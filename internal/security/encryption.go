package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Encryption parameters
	keySize    = 32 // AES-256
	saltSize   = 32
	pbkdf2Iter = 100000

	// EncryptedPrefix marks config values stored in encrypted form.
	EncryptedPrefix = "enc:"
)

// CredentialEncryptor encrypts catalog credentials (client secret, auth
// token) at rest in the data directory. The key is derived from a
// per-install random salt plus machine identity, so an encrypted value
// copied to another machine will not decrypt.
type CredentialEncryptor struct {
	keyPath string
}

// NewCredentialEncryptor creates a new credential encryptor
func NewCredentialEncryptor(dataDir string) *CredentialEncryptor {
	return &CredentialEncryptor{
		keyPath: filepath.Join(dataDir, ".key"),
	}
}

// IsEncrypted reports whether value carries the encrypted prefix.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, EncryptedPrefix)
}

// Encrypt encrypts a credential and returns it in the "enc:" form used in
// the config file.
func (ce *CredentialEncryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("credential cannot be empty")
	}

	key, err := ce.getOrCreateKey()
	if err != nil {
		return "", fmt.Errorf("failed to get encryption key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)

	return EncryptedPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts a credential previously produced by Encrypt. The
// "enc:" prefix is optional.
func (ce *CredentialEncryptor) Decrypt(value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("encrypted credential cannot be empty")
	}

	value = strings.TrimPrefix(value, EncryptedPrefix)

	key, err := ce.loadKey()
	if err != nil {
		return "", fmt.Errorf("failed to load encryption key: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", fmt.Errorf("failed to decode credential: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt credential: %w", err)
	}

	return string(plaintext), nil
}

// getOrCreateKey gets or creates the encryption key
func (ce *CredentialEncryptor) getOrCreateKey() ([]byte, error) {
	key, err := ce.loadKey()
	if err == nil {
		return key, nil
	}

	return ce.generateAndSaveKey()
}

// loadKey loads the encryption key from the salt file
func (ce *CredentialEncryptor) loadKey() ([]byte, error) {
	data, err := os.ReadFile(ce.keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	keyData, err := base64.StdEncoding.DecodeString(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode key: %w", err)
	}

	if len(keyData) < saltSize {
		return nil, fmt.Errorf("invalid key file format")
	}

	salt := keyData[:saltSize]
	password := ce.machineID()

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iter, keySize, sha256.New)

	return key, nil
}

// generateAndSaveKey generates a fresh salt, persists it, and derives the key
func (ce *CredentialEncryptor) generateAndSaveKey() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	password := ce.machineID()
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iter, keySize, sha256.New)

	encoded := base64.StdEncoding.EncodeToString(salt)

	if err := os.MkdirAll(filepath.Dir(ce.keyPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}

	if err := os.WriteFile(ce.keyPath, []byte(encoded), 0600); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}

	return key, nil
}

// machineID returns a machine-specific identifier used as the PBKDF2
// password component.
func (ce *CredentialEncryptor) machineID() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "default-machine"
	}

	username := os.Getenv("USER")
	if username == "" {
		username = os.Getenv("USERNAME")
	}
	if username == "" {
		username = "default-user"
	}

	return hostname + ":" + username
}

// DeleteKey removes the encryption key file
func (ce *CredentialEncryptor) DeleteKey() error {
	if err := os.Remove(ce.keyPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete key file: %w", err)
	}
	return nil
}
