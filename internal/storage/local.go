package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes files below a directory served at baseURL
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates the root directory if needed
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the directory files are written to
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) Save(ctx context.Context, reportID uint, name string, r io.Reader) (string, int64, error) {
	key := ObjectKey(reportID, name)
	dst := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", 0, err
	}
	out, err := os.Create(dst)
	if err != nil {
		return "", 0, err
	}
	defer out.Close()

	n, err := io.Copy(out, r)
	if err != nil {
		os.Remove(dst)
		return "", 0, err
	}
	return key, n, nil
}

func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.root, filepath.FromSlash(cleaned)))
}

func (s *LocalStore) Remove(ctx context.Context, key string) error {
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.root, filepath.FromSlash(cleaned)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *LocalStore) URL(key string) string {
	return s.baseURL + "/" + key
}
