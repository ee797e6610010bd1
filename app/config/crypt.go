package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/crypto/argon2"
)

// EncryptPrefix is added to encrypted values to identify them
const EncryptPrefix = "ENC:"

// names of sensitive settings fields
const (
	FieldAkismetAPIKey    = "akismet.api_key"
	FieldServerAuthPasswd = "server.auth_passwd"
)

// MinKeyLength defines the minimum acceptable length for an encryption key
const MinKeyLength = 20

// Crypter encrypts sensitive settings stored in the database
type Crypter struct {
	key []byte
}

// argon2 parameters for key derivation
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // KiB
	argon2Threads = 4
	argon2KeyLen  = 32 // AES-256
)

// NewCrypter makes Crypter with the key derived from masterKey. The salt depends on instanceID,
// so different instances get different keys even with the same master key.
func NewCrypter(masterKey, instanceID string) (*Crypter, error) {
	if masterKey == "" {
		return nil, errors.New("empty master key")
	}
	if len(masterKey) < MinKeyLength {
		return nil, fmt.Errorf("encryption key too short, minimum length is %d characters", MinKeyLength)
	}
	if instanceID == "" {
		return nil, errors.New("empty instance ID")
	}

	salt := []byte("akismet-config-encryption-salt-" + instanceID)
	key := argon2.IDKey([]byte(masterKey), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	return &Crypter{key: key}, nil
}

// Encrypt encrypts a string value with AES-GCM, the nonce is prepended to the ciphertext
func (c *Crypter) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return EncryptPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts a value made by Encrypt. Values without EncryptPrefix are returned as is.
func (c *Crypter) Decrypt(ciphertext string) (string, error) {
	if !IsEncrypted(ciphertext) {
		return ciphertext, nil
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ciphertext, EncryptPrefix))
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 data: %w", err)
	}
	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}
	if len(data) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, body := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt data: %w", err)
	}
	return string(plaintext), nil
}

// IsEncrypted checks if a value is encrypted
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, EncryptPrefix)
}

// EncryptSensitiveFields encrypts the api key and the auth password in place
func (c *Crypter) EncryptSensitiveFields(settings *Settings) error {
	if settings == nil {
		return nil
	}
	for name, field := range sensitiveFields(settings) {
		if *field == "" || IsEncrypted(*field) {
			continue
		}
		encrypted, err := c.Encrypt(*field)
		if err != nil {
			return fmt.Errorf("failed to encrypt %s: %w", name, err)
		}
		*field = encrypted
	}
	return nil
}

// DecryptSensitiveFields decrypts the api key and the auth password in place.
// Fields failed to decrypt are left as is, all failures are returned together.
func (c *Crypter) DecryptSensitiveFields(settings *Settings) error {
	if settings == nil {
		return nil
	}
	var errs *multierror.Error
	for name, field := range sensitiveFields(settings) {
		if !IsEncrypted(*field) {
			continue
		}
		decrypted, err := c.Decrypt(*field)
		if err != nil {
			log.Printf("[WARN] failed to decrypt %s: %v", name, err)
			errs = multierror.Append(errs, fmt.Errorf("failed to decrypt %s: %w", name, err))
			continue
		}
		*field = decrypted
	}
	return errs.ErrorOrNil()
}

func (c *Crypter) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

func sensitiveFields(s *Settings) map[string]*string {
	return map[string]*string{
		FieldAkismetAPIKey:    &s.Akismet.APIKey,
		FieldServerAuthPasswd: &s.Server.AuthPasswd,
	}
}
