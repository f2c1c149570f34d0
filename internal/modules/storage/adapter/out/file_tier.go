package out

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"siteaudit/internal/modules/storage/domain"
	storageout "siteaudit/internal/modules/storage/port/out"
	apperrors "siteaudit/internal/platform/errors"
)

// FileTier is the simple tier: a YAML map of string values. Binary values
// are kept as base64 text and count against the quota in encoded form.
type FileTier struct {
	mu    sync.Mutex
	path  string
	quota int64
}

func NewFileTier(path string, quotaBytes int64) storageout.Tier {
	return &FileTier{path: path, quota: quotaBytes}
}

func (s *FileTier) Name() domain.TierName {
	return domain.TierSimple
}

func (s *FileTier) Put(_ context.Context, key domain.Key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[string(key)] = base64.StdEncoding.EncodeToString(value)
	if s.quota > 0 {
		if size := usage(values); size > s.quota {
			return fmt.Errorf("put %s (%d of %d bytes): %w", key, size, s.quota, domain.ErrQuotaExceeded)
		}
	}
	return s.save(values)
}

func (s *FileTier) Get(_ context.Context, key domain.Key) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return nil, err
	}
	encoded, ok := values[string(key)]
	if !ok {
		return nil, apperrors.ErrAbsent
	}
	value, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return value, nil
}

func (s *FileTier) Delete(_ context.Context, key domain.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[string(key)]; !ok {
		return nil
	}
	delete(values, string(key))
	return s.save(values)
}

func (s *FileTier) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear simple store: %w", err)
	}
	return nil
}

func (s *FileTier) Close() error {
	return nil
}

func (s *FileTier) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read simple store: %w", err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode simple store: %w", err)
	}
	return values, nil
}

func (s *FileTier) save(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create simple store dir: %w", err)
	}
	raw, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode simple store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write simple store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace simple store: %w", err)
	}
	return nil
}

func usage(values map[string]string) int64 {
	var n int64
	for k, v := range values {
		n += int64(len(k) + len(v))
	}
	return n
}
