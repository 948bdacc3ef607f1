package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/automat/pkg/domain"
	"github.com/aretw0/automat/pkg/ports"
)

// EnvelopeKey is the only state key of an encrypted snapshot.
const EnvelopeKey = "__encrypted__"

// ErrInvalidKey is returned for keys that are not 32 bytes long.
var ErrInvalidKey = errors.New("encryption key must be 32 bytes (AES-256)")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey encrypts new snapshots. Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key cannot decrypt,
	// so keys can be rotated without downtime.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.SnapshotStore
	config EncryptionConfig
}

// NewEncryptionMiddleware stores the state of every snapshot as an AES-GCM
// envelope. ID, machine and timestamp stay readable for listing and
// monitoring.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, ErrInvalidKey
	}
	for _, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, ErrInvalidKey
		}
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, id string, snap *domain.Snapshot) error {
	plainText, err := json.Marshal(snap.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt state: %w", err)
	}

	envelope := snap.Clone()
	envelope.State = map[string]string{
		EnvelopeKey: base64.StdEncoding.EncodeToString(ciphertext),
	}
	return m.next.Save(ctx, id, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	envelope, err := m.next.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	encoded, ok := envelope.State[EnvelopeKey]
	if !ok {
		// Fail secure: a plain snapshot in an encrypted store is not trusted.
		return nil, errors.New("snapshot is missing encrypted data envelope")
	}
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt state: %w", err)
	}

	var state map[string]string
	if err := json.Unmarshal(plainText, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted state: %w", err)
	}
	envelope.State = state
	return envelope, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	for _, key := range append([][]byte{activeKey}, fallbackKeys...) {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
