package artifacts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FSStore writes artifacts below a root directory. Keys map to relative
// paths; existing objects are replaced.
type FSStore struct {
	root string
}

// NewFSStore returns a filesystem store rooted at root, creating it if needed.
func NewFSStore(root string) (*FSStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("artifacts: filesystem root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("artifacts: create root: %w", err)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) Driver() Driver { return DriverFilesystem }

// Root returns the directory the store writes into.
func (s *FSStore) Root() string { return s.root }

func (s *FSStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	clean, err := sanitizeKey(key)
	if err != nil {
		return Object{}, err
	}
	target := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Object{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".put-*")
	if err != nil {
		return Object{}, err
	}
	size, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return Object{}, err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return Object{}, err
	}
	return Object{Key: clean, Size: size, ContentType: contentType, Location: target}, nil
}

// sanitizeKey keeps keys relative and inside the root.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("artifacts: empty key")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("artifacts: invalid absolute key %q", key)
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("artifacts: invalid key %q contains '..'", key)
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}
