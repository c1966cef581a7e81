// Package storage persists the client's session between runs: credentials
// sealed at rest in BadgerDB, plus the restore token. Nothing else the
// client holds survives a restart; timelines and directories are rebuilt
// from the backend on every login.
package storage

import (
	"crypto/rand"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"

	"chat-client/domain"
	"chat-client/errors"

	"github.com/dgraph-io/badger/v4"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Argon2id parameters per OWASP recommendations.
const (
	memory      = 64 * 1024
	iterations  = 3
	parallelism = 2
	saltLength  = 16
	keyLength   = chacha20poly1305.KeySize
)

const (
	keySecret      = "session:secret"
	keySalt        = "session:salt"
	keyCredentials = "session:credentials"
	keyToken       = "session:token"
)

type CredentialStore struct {
	db  *badger.DB
	log *slog.Logger
}

// Open opens (or creates) the store's Badger database at path.
func Open(path string) (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions(path).WithLogger(nil))
}

// OpenShared opens the store while another process may hold the lock.
// Used by read-mostly tooling next to a running client.
func OpenShared(path string) (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions(path).
		WithBypassLockGuard(true).
		WithLogger(nil))
}

func NewCredentialStore(db *badger.DB, log *slog.Logger) *CredentialStore {
	return &CredentialStore{db: db, log: log}
}

type sessionRecord struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
	Password    string `json:"password"`
}

// SaveSession seals the identity and writes it in one transaction.
func (s *CredentialStore) SaveSession(identity domain.Identity) error {
	record := sessionRecord{
		UserID:      string(identity.UserID),
		DisplayName: identity.DisplayName,
		Username:    identity.Credentials.Username,
		Password:    identity.Credentials.Password,
	}
	plaintext, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	sealKey, err := s.SealKey()
	if err != nil {
		return err
	}
	aead, err := chacha20poly1305.NewX(sealKey)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err = rand.Read(nonce); err != nil {
		return err
	}
	sealed := aead.Seal(nonce, nonce, plaintext, nil)

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyCredentials), sealed)
	})
}

// LoadSession unseals and returns the stored identity. A missing or
// unreadable record surfaces as ErrSessionNotFound so callers prompt for a
// fresh login.
func (s *CredentialStore) LoadSession() (domain.Identity, error) {
	sealed, err := s.get(keyCredentials)
	if err != nil {
		return domain.Identity{}, err
	}

	sealKey, err := s.SealKey()
	if err != nil {
		return domain.Identity{}, err
	}
	aead, err := chacha20poly1305.NewX(sealKey)
	if err != nil {
		return domain.Identity{}, err
	}
	if len(sealed) < aead.NonceSize() {
		return domain.Identity{}, errors.ErrSessionNotFound
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return domain.Identity{}, errors.ErrSessionNotFound
	}

	var record sessionRecord
	if err = json.Unmarshal(plaintext, &record); err != nil {
		return domain.Identity{}, errors.ErrSessionNotFound
	}
	return domain.Identity{
		UserID:      domain.UserID(record.UserID),
		DisplayName: record.DisplayName,
		Credentials: domain.Credentials{
			Username: record.Username,
			Password: record.Password,
		},
	}, nil
}

func (s *CredentialStore) SaveToken(token string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyToken), []byte(token))
	})
}

func (s *CredentialStore) LoadToken() (string, error) {
	raw, err := s.get(keyToken)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ClearSession drops the stored identity and token on logout. The
// installation secret stays so a later login reuses the same seal.
func (s *CredentialStore) ClearSession() error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(keyCredentials)); err != nil {
			return err
		}
		return txn.Delete([]byte(keyToken))
	})
}

// SealKey stretches the per-installation secret into the 32-byte key used
// both to seal credentials and to sign restore tokens. Secret and salt are
// created on first use and never leave the database.
func (s *CredentialStore) SealKey() ([]byte, error) {
	secret, err := s.getOrCreate(keySecret, keyLength)
	if err != nil {
		return nil, err
	}
	salt, err := s.getOrCreate(keySalt, saltLength)
	if err != nil {
		return nil, err
	}
	return argon2.IDKey(secret, salt, iterations, memory, parallelism, keyLength), nil
}

func (s *CredentialStore) get(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *CredentialStore) getOrCreate(key string, length int) ([]byte, error) {
	value, err := s.get(key)
	if err == nil {
		return value, nil
	}
	if !stderrors.Is(err, errors.ErrSessionNotFound) {
		return nil, err
	}

	value = make([]byte, length)
	if _, err = rand.Read(value); err != nil {
		return nil, err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}
