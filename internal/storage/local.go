package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultPublicPrefix is the URL prefix under which local uploads are served.
const DefaultPublicPrefix = "/uploads"

// LocalStore writes blobs to a directory served statically by the HTTP router.
type LocalStore struct {
	dir    string
	prefix string
}

// NewLocalStore creates the upload directory when missing.
func NewLocalStore(dir, publicPrefix string) (*LocalStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("storage: upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create upload dir: %w", err)
	}

	publicPrefix = "/" + strings.Trim(strings.TrimSpace(publicPrefix), "/")
	if publicPrefix == "/" {
		publicPrefix = DefaultPublicPrefix
	}

	return &LocalStore{dir: dir, prefix: publicPrefix}, nil
}

func (s *LocalStore) Driver() string { return "local" }

// Dir returns the directory blobs are written to.
func (s *LocalStore) Dir() string { return s.dir }

// PublicPrefix returns the URL prefix blobs are served under.
func (s *LocalStore) PublicPrefix() string { return s.prefix }

func (s *LocalStore) Put(ctx context.Context, obj Object) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.NewString() + normaliseExt(obj.Ext)
	target := filepath.Join(s.dir, name)
	if err := os.WriteFile(target, obj.Data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write %s: %w", name, err)
	}
	return path.Join(s.prefix, name), nil
}

func (s *LocalStore) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name, ok := strings.CutPrefix(strings.TrimSpace(url), s.prefix+"/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return ErrForeignURL
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: remove %s: %w", name, err)
	}
	return nil
}

func normaliseExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ".bin"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
