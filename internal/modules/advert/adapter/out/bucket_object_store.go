package out

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	advertout "siteaudit/internal/modules/advert/port/out"
	apperrors "siteaudit/internal/platform/errors"
)

// BucketObjectStore keeps objects as files below a bucket directory.
type BucketObjectStore struct {
	root string
}

func NewBucketObjectStore(root string) advertout.ObjectStore {
	return &BucketObjectStore{root: root}
}

func (b *BucketObjectStore) Put(_ context.Context, key string, data []byte) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create bucket dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish object: %w", err)
	}
	return nil
}

func (b *BucketObjectStore) Delete(_ context.Context, key string) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (b *BucketObjectStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("%w: object key %q", apperrors.ErrInvalidInput, key)
	}
	return filepath.Join(b.root, clean), nil
}
