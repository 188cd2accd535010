package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// stored is the on-disk session: the OAuth token plus the identity it
// was issued for.
type stored struct {
	oauth2.Token
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
}

type tokenFile struct {
	path string
}

// load reads the stored session. A missing file yields ErrNoSession.
func (f *tokenFile) load() (stored, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return stored{}, ErrNoSession
	}
	if err != nil {
		return stored{}, fmt.Errorf("failed to read %s: %w", filepath.Base(f.path), err)
	}

	var s stored
	if err := json.Unmarshal(data, &s); err != nil {
		return stored{}, fmt.Errorf("invalid %s: %w", filepath.Base(f.path), err)
	}
	if s.AccessToken == "" {
		return stored{}, ErrNoSession
	}
	return s, nil
}

// save writes the session with mode 0600, creating the directory with 0700.
func (f *tokenFile) save(s stored) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0600)
}

// remove deletes the file. A missing file is not an error.
func (f *tokenFile) remove() (existed bool, err error) {
	err = os.Remove(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}
