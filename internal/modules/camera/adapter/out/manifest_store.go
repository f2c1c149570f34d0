package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"siteaudit/internal/modules/camera/domain"
	cameraout "siteaudit/internal/modules/camera/port/out"
)

type FileManifestStore struct {
	path string
}

func NewFileManifestStore(path string) cameraout.DriverManifestStore {
	return &FileManifestStore{path: path}
}

func (s *FileManifestStore) Load(_ context.Context) ([]domain.DriverManifest, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.DriverManifest{}, nil
		}
		return nil, fmt.Errorf("read camera driver manifests: %w", err)
	}
	var manifests []domain.DriverManifest
	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&manifests); err != nil {
		return nil, fmt.Errorf("decode camera driver manifests: %w", err)
	}
	base := filepath.Dir(s.path)
	for i := range manifests {
		if err := manifests[i].Validate(); err != nil {
			return nil, err
		}
		if !filepath.IsAbs(manifests[i].Binary) {
			manifests[i].Binary = filepath.Clean(filepath.Join(base, manifests[i].Binary))
		}
	}
	return manifests, nil
}

// FindManifest returns the manifest called name.
func FindManifest(manifests []domain.DriverManifest, name string) (domain.DriverManifest, error) {
	for _, manifest := range manifests {
		if manifest.Name == name {
			return manifest, nil
		}
	}
	return domain.DriverManifest{}, fmt.Errorf("camera driver %q is not registered", name)
}
