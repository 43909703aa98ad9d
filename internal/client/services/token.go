package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/storefront/internal/filex"
)

var ErrNotLoggedIn = errors.New("not logged in; run login first")

// StoredSession is what the CLI keeps between invocations.
type StoredSession struct {
	Username    string `json:"username"`
	AccessToken string `json:"access_token"`
}

// TokenStore persists the current session token.
type TokenStore interface {
	Save(s StoredSession) error
	Load() (StoredSession, error)
	Clear() error
}

// FileTokenStore keeps the session as a 0600 JSON file.
type FileTokenStore struct {
	path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (f *FileTokenStore) Save(s StoredSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return filex.WriteFileAtomic(f.path, data, 0o600)
}

// Load returns ErrNotLoggedIn when no session was saved.
func (f *FileTokenStore) Load() (StoredSession, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return StoredSession{}, ErrNotLoggedIn
		}
		return StoredSession{}, err
	}

	var s StoredSession
	if err := json.Unmarshal(data, &s); err != nil {
		return StoredSession{}, fmt.Errorf("corrupt token file %s: %w", f.path, err)
	}
	if s.AccessToken == "" {
		return StoredSession{}, ErrNotLoggedIn
	}
	return s, nil
}

func (f *FileTokenStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
