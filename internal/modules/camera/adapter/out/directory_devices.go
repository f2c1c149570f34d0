package out

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"siteaudit/internal/modules/camera/domain"
	cameraout "siteaudit/internal/modules/camera/port/out"
	"siteaudit/internal/platform/logging"
)

const (
	descriptorName = "device.yaml"
	lockName       = ".lock"
)

// DirectoryDevices treats every subdirectory of root as a camera whose
// frames are image files dropped into it by an external capture process.
type DirectoryDevices struct {
	root   string
	logger *zap.Logger
}

type descriptor struct {
	Label  string `yaml:"label"`
	Facing string `yaml:"facing"`
}

func NewDirectoryDevices(root string, logger *zap.Logger) cameraout.MediaDevices {
	return &DirectoryDevices{root: root, logger: logging.OrNop(logger)}
}

func (d *DirectoryDevices) Enumerate(_ context.Context) ([]domain.Device, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Device{}, nil
		}
		if os.IsPermission(err) {
			return nil, domain.NewDeviceError(domain.KindPermissionDenied, "read camera root: %v", err)
		}
		return nil, fmt.Errorf("read camera root: %w", err)
	}
	devices := make([]domain.Device, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		device := domain.Device{ID: entry.Name()}
		desc, err := readDescriptor(filepath.Join(d.root, entry.Name(), descriptorName))
		if err != nil {
			d.logger.Warn("ignore camera descriptor", zap.String("device", entry.Name()), zap.Error(err))
		} else {
			device.Label = desc.Label
			if facing, err := domain.ParseFacing(desc.Facing); err == nil {
				device.Facing = facing
			}
		}
		devices = append(devices, device)
	}
	return devices, nil
}

func (d *DirectoryDevices) Open(ctx context.Context, constraints domain.Constraints) (cameraout.Stream, error) {
	devices, err := d.Enumerate(ctx)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, domain.NewDeviceError(domain.KindNoDevice, "no camera under %s", d.root)
	}
	device, ok := pick(devices, constraints)
	if !ok {
		return nil, domain.NewDeviceError(domain.KindConstraintsUnsatisfiable, "no camera matches device=%q facing=%q", constraints.DeviceID, constraints.Facing)
	}

	dir := filepath.Join(d.root, device.ID)
	lockPath := filepath.Join(dir, lockName)
	if err := d.acquireLock(device.ID, lockPath); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		_ = os.Remove(lockPath)
		return nil, fmt.Errorf("watch camera %s: %w", device.ID, err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		_ = os.Remove(lockPath)
		return nil, fmt.Errorf("watch camera %s: %w", device.ID, err)
	}

	stream := &dirStream{
		id:      device.ID,
		dir:     dir,
		lock:    lockPath,
		watcher: watcher,
		logger:  d.logger,
		done:    make(chan struct{}),
	}
	go stream.watch()
	return stream, nil
}

func pick(devices []domain.Device, c domain.Constraints) (domain.Device, bool) {
	for _, device := range devices {
		if c.DeviceID != "" && device.ID != c.DeviceID {
			continue
		}
		if c.Facing != domain.FacingAny && device.Facing != c.Facing {
			continue
		}
		return device, true
	}
	return domain.Device{}, false
}

func readDescriptor(path string) (descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return descriptor{}, nil
		}
		return descriptor{}, err
	}
	desc := descriptor{}
	if err := yaml.Unmarshal(raw, &desc); err != nil {
		return descriptor{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return desc, nil
}

type dirStream struct {
	mu       sync.Mutex
	id       string
	dir      string
	lock     string
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	latest   string
	ended    bool
	stopped  bool
	done     chan struct{}
	stopOnce sync.Once
}

func (s *dirStream) DeviceID() string {
	return s.id
}

func (s *dirStream) watch() {
	defer close(s.done)
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handle(event)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("camera watcher", zap.String("device", s.id), zap.Error(err))
		}
	}
}

func (s *dirStream) handle(event fsnotify.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if filepath.Clean(event.Name) == filepath.Clean(s.dir) && event.Has(fsnotify.Remove|fsnotify.Rename) {
		s.ended = true
		return
	}
	if !isFrameFile(event.Name) {
		return
	}
	switch {
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		s.latest = event.Name
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		if event.Name == s.latest {
			s.latest = ""
		}
	}
}

func (s *dirStream) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return true
	}
	if _, err := os.Stat(s.dir); err != nil {
		s.ended = true
	}
	return s.ended
}

func (s *dirStream) Frame(_ context.Context) (image.Image, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, domain.ErrNotOpen
	}
	if s.ended {
		s.mu.Unlock()
		return nil, &domain.DeviceError{Kind: domain.KindTrackEnded, Err: domain.ErrTrackEnded}
	}
	path := s.latest
	s.mu.Unlock()

	if path == "" {
		newest, err := newestFrame(s.dir)
		if err != nil {
			return nil, err
		}
		path = newest
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

func (s *dirStream) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		err = s.watcher.Close()
		<-s.done
		if rmErr := os.Remove(s.lock); rmErr != nil && !os.IsNotExist(rmErr) {
			err = errors.Join(err, fmt.Errorf("release camera %s: %w", s.id, rmErr))
		}
	})
	return err
}

func newestFrame(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &domain.DeviceError{Kind: domain.KindTrackEnded, Err: domain.ErrTrackEnded}
		}
		return "", fmt.Errorf("list frames: %w", err)
	}
	type candidate struct {
		path string
		mod  time.Time
	}
	var frames []candidate
	for _, entry := range entries {
		if entry.IsDir() || !isFrameFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		frames = append(frames, candidate{path: filepath.Join(dir, entry.Name()), mod: info.ModTime()})
	}
	if len(frames) == 0 {
		return "", domain.ErrNoFrame
	}
	sort.Slice(frames, func(i, j int) bool {
		if frames[i].mod.Equal(frames[j].mod) {
			return frames[i].path > frames[j].path
		}
		return frames[i].mod.After(frames[j].mod)
	})
	return frames[0].path, nil
}

func isFrameFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}
