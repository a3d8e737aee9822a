package client

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// TokenStore supplies the bearer token for authenticated calls. An empty
// token means the caller is not logged in.
type TokenStore interface {
	Token() (string, error)
}

type StaticToken string

func (s StaticToken) Token() (string, error) {
	return string(s), nil
}

// FileTokenStore keeps the token in a single file, by default under the
// user's config directory.
type FileTokenStore struct {
	Path string
}

func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locate config dir")
	}
	return filepath.Join(dir, "eventhub", "token"), nil
}

func (s FileTokenStore) Token() (string, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "read token")
	}
	return strings.TrimSpace(string(b)), nil
}

func (s FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return errors.Wrap(err, "create token dir")
	}
	return errors.Wrap(os.WriteFile(s.Path, []byte(token), 0o600), "write token")
}

func (s FileTokenStore) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return errors.Wrap(err, "remove token")
}
