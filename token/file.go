package token

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	saltLength = 16
	keyLength  = 32
)

// FileStorage persists tokens as a JSON object in a single file. With a
// passphrase the object is sealed with NaCl secretbox under a scrypt key.
type FileStorage struct {
	mu         sync.Mutex
	path       string
	passphrase []byte

	salt []byte
	key  *[keyLength]byte
}

var _ Storage = (*FileStorage)(nil)

type FileOption func(*FileStorage)

// WithPassphrase encrypts the token file at rest.
func WithPassphrase(passphrase string) FileOption {
	return func(f *FileStorage) {
		if passphrase != "" {
			f.passphrase = []byte(passphrase)
		}
	}
}

func NewFileStorage(path string, opts ...FileOption) *FileStorage {
	f := &FileStorage{path: path}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// sealedFile is the on-disk layout of an encrypted token file
type sealedFile struct {
	Salt  []byte `json:"salt"`
	Nonce []byte `json:"nonce"`
	Data  []byte `json:"data"`
}

func (f *FileStorage) Path() string {
	return f.path
}

func (f *FileStorage) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *FileStorage) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	values[key] = value
	return f.save(values)
}

func (f *FileStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.save(values)
}

func (f *FileStorage) load() (map[string]string, error) {
	values := make(map[string]string)
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return values, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "FileStorage.load ReadFile")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return values, nil
	}
	if f.passphrase != nil {
		if raw, err = f.open(raw); err != nil {
			return nil, err
		}
	}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, errors.Wrap(err, "FileStorage.load Unmarshal")
	}
	return values, nil
}

func (f *FileStorage) save(values map[string]string) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return errors.Wrap(err, "FileStorage.save Marshal")
	}
	if f.passphrase != nil {
		if raw, err = f.seal(raw); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return errors.Wrap(err, "FileStorage.save MkdirAll")
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".tokens-*")
	if err != nil {
		return errors.Wrap(err, "FileStorage.save CreateTemp")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "FileStorage.save Write")
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "FileStorage.save Chmod")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "FileStorage.save Close")
	}
	return errors.Wrap(os.Rename(tmp.Name(), f.path), "FileStorage.save Rename")
}

func (f *FileStorage) seal(plain []byte) ([]byte, error) {
	if f.salt == nil {
		f.salt = make([]byte, saltLength)
		if _, err := rand.Read(f.salt); err != nil {
			return nil, errors.Wrap(err, "FileStorage.seal salt")
		}
		f.key = nil
	}
	key, err := f.deriveKey(f.salt)
	if err != nil {
		return nil, err
	}

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, errors.Wrap(err, "FileStorage.seal nonce")
	}
	return json.Marshal(sealedFile{
		Salt:  f.salt,
		Nonce: nonce[:],
		Data:  secretbox.Seal(nil, plain, &nonce, key),
	})
}

func (f *FileStorage) open(raw []byte) ([]byte, error) {
	var sealed sealedFile
	if err := json.Unmarshal(raw, &sealed); err != nil || len(sealed.Salt) == 0 || len(sealed.Nonce) != 24 {
		return nil, ErrNotEncrypted
	}
	key, err := f.deriveKey(sealed.Salt)
	if err != nil {
		return nil, err
	}

	var nonce [24]byte
	copy(nonce[:], sealed.Nonce)
	plain, ok := secretbox.Open(nil, sealed.Data, &nonce, key)
	if !ok {
		return nil, ErrDecrypt
	}
	f.salt = sealed.Salt
	return plain, nil
}

// deriveKey caches the scrypt output for the current salt
func (f *FileStorage) deriveKey(salt []byte) (*[keyLength]byte, error) {
	if f.key != nil && bytes.Equal(salt, f.salt) {
		return f.key, nil
	}
	derived, err := scrypt.Key(f.passphrase, salt, 1<<15, 8, 1, keyLength)
	if err != nil {
		return nil, errors.Wrap(err, "FileStorage.deriveKey")
	}
	var key [keyLength]byte
	copy(key[:], derived)
	f.salt = salt
	f.key = &key
	return f.key, nil
}
