package credstore

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"github.com/vidvault/client/internal/logging"
)

const (
	credentialFileName = "credential.enc"
	saltSize           = 16

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// FileStore keeps the credential encrypted at rest in a single file under an
// app-private directory. The encryption key is derived from the configured
// keyphrase with scrypt; the salt and nonce are stored with the ciphertext.
type FileStore struct {
	mu        sync.Mutex
	path      string
	keyphrase string
}

// NewFileStore prepares the backing directory and returns a store rooted
// there. The keyphrase must not be empty: refusing to fall back to plaintext
// is what makes the store safe to point at a shared filesystem.
func NewFileStore(dir, keyphrase string) (*FileStore, error) {
	if keyphrase == "" {
		return nil, errors.New("credstore: keyphrase must be provided")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileStore{
		path:      filepath.Join(dir, credentialFileName),
		keyphrase: keyphrase,
	}, nil
}

// Load reads and decrypts the stored credential. Any failure, including a
// missing file, an undecryptable blob, or a partial record, reads as absent.
func (s *FileStore) Load(ctx context.Context) (Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.FromContext(ctx).Warn("credential file unreadable, treating as absent", "error", err)
		}
		return Credential{}, false
	}

	plain, err := s.decrypt(blob)
	if err != nil {
		logging.FromContext(ctx).Warn("credential file undecryptable, treating as absent", "error", err)
		return Credential{}, false
	}

	var cred Credential
	if err := json.Unmarshal(plain, &cred); err != nil || !cred.Complete() {
		logging.FromContext(ctx).Warn("credential file malformed, treating as absent")
		return Credential{}, false
	}

	return cred, true
}

// Save encrypts and atomically replaces the stored credential. Partial
// credentials are rejected before anything touches the filesystem.
func (s *FileStore) Save(ctx context.Context, cred Credential) error {
	if !cred.Complete() {
		return ErrIncompleteCredential
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	plain, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	blob, err := s.encrypt(plain)
	if err != nil {
		return fmt.Errorf("encrypt credential: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), credentialFileName+".*")
	if err != nil {
		return fmt.Errorf("create temp credential file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write credential: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("restrict credential file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close credential file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace credential file: %w", err)
	}

	logging.FromContext(ctx).Debug("credential saved", "user_id", cred.User.ID)
	return nil
}

// Clear removes the stored credential. A store that is already empty clears
// successfully.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credential file: %w", err)
	}

	logging.FromContext(ctx).Debug("credential cleared")
	return nil
}

// encrypt seals plain under a key freshly derived from the keyphrase.
// Layout: salt || nonce || ciphertext.
func (s *FileStore) encrypt(plain []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}

	aead, err := s.aead(salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	blob := make([]byte, 0, len(salt)+len(nonce)+len(plain)+aead.Overhead())
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	return aead.Seal(blob, nonce, plain, nil), nil
}

func (s *FileStore) decrypt(blob []byte) ([]byte, error) {
	if len(blob) < saltSize {
		return nil, errors.New("credential blob too short")
	}
	salt := blob[:saltSize]

	aead, err := s.aead(salt)
	if err != nil {
		return nil, err
	}

	rest := blob[saltSize:]
	if len(rest) < aead.NonceSize() {
		return nil, errors.New("credential blob too short")
	}

	nonce := rest[:aead.NonceSize()]
	return aead.Open(nil, nonce, rest[aead.NonceSize():], nil)
}

func (s *FileStore) aead(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(s.keyphrase), salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return chacha20poly1305.NewX(key)
}
