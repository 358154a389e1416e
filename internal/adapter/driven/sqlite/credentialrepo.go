package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/ericfisherdev/qabox/internal/domain/port/driven"
)

// AdminTokenSlot is the persisted slot holding the console credential.
const AdminTokenSlot = "admin_token"

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port.
// When a key is configured, values are encrypted with AES-256-GCM before write
// and decrypted after read; without a key they are stored as-is.
type CredentialRepo struct {
	db   *DB
	slot string
	key  []byte // 32-byte AES-256 key; nil stores plaintext.
}

// NewCredentialRepo creates a CredentialRepo bound to the admin token slot.
// key must be 32 bytes for AES-256-GCM, or nil to store plaintext.
func NewCredentialRepo(db *DB, key []byte) *CredentialRepo {
	return &CredentialRepo{db: db, slot: AdminTokenSlot, key: key}
}

// Read returns the stored credential, or ("", nil) when the slot is empty.
func (r *CredentialRepo) Read(ctx context.Context) (string, error) {
	const query = `SELECT value, encrypted FROM credentials WHERE slot = ?`

	var (
		value     string
		encrypted bool
	)
	err := r.db.Reader.QueryRowContext(ctx, query, r.slot).Scan(&value, &encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read credential %q: %w", r.slot, err)
	}

	if !encrypted {
		return value, nil
	}
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	plaintext, err := r.decrypt(value)
	if err != nil {
		return "", fmt.Errorf("decrypt credential %q: %w", r.slot, err)
	}
	return plaintext, nil
}

// Write stores token in the slot, replacing any previous credential.
func (r *CredentialRepo) Write(ctx context.Context, token string) error {
	value := token
	encrypted := r.key != nil
	if encrypted {
		var err error
		value, err = r.encrypt(token)
		if err != nil {
			return err
		}
	}

	const query = `INSERT OR REPLACE INTO credentials (slot, value, encrypted, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`
	if _, err := r.db.Writer.ExecContext(ctx, query, r.slot, value, encrypted); err != nil {
		return fmt.Errorf("write credential %q: %w", r.slot, err)
	}
	return nil
}

// Clear removes the credential. Clearing an empty slot is a no-op.
func (r *CredentialRepo) Clear(ctx context.Context) error {
	const query = `DELETE FROM credentials WHERE slot = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, r.slot); err != nil {
		return fmt.Errorf("clear credential %q: %w", r.slot, err)
	}
	return nil
}

// encrypt returns base64(nonce || ciphertext || tag).
func (r *CredentialRepo) encrypt(plaintext string) (string, error) {
	gcm, err := r.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (r *CredentialRepo) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	gcm, err := r.aead()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}
	return string(plaintext), nil
}

func (r *CredentialRepo) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(r.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
