package out

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"siteaudit/internal/modules/camera/domain"
)

// A lock file that never got its pid is only trusted for this long.
const unwrittenLockGrace = 10 * time.Second

// acquireLock claims a device by creating its lock file with our pid. A lock
// left by a process that no longer runs is taken over once.
func (d *DirectoryDevices) acquireLock(deviceID, path string) error {
	for attempt := 0; ; attempt++ {
		lock, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, werr := fmt.Fprintf(lock, "%d\n", os.Getpid())
			cerr := lock.Close()
			if err := errors.Join(werr, cerr); err != nil {
				_ = os.Remove(path)
				return fmt.Errorf("lock camera %s: %w", deviceID, err)
			}
			return nil
		}
		switch {
		case os.IsPermission(err):
			return domain.NewDeviceError(domain.KindPermissionDenied, "camera %s: %v", deviceID, err)
		case !os.IsExist(err):
			return fmt.Errorf("lock camera %s: %w", deviceID, err)
		}

		holder, stale := staleLock(path)
		if !stale || attempt > 0 {
			return domain.NewDeviceError(domain.KindDeviceBusy, "camera %s is in use", deviceID)
		}
		d.logger.Warn("take over stale camera lock", zap.String("device", deviceID), zap.Int("pid", holder))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("clear stale lock for camera %s: %w", deviceID, err)
		}
	}
}

// staleLock reports whether the lock at path belongs to a process that is
// gone. It also returns the recorded pid, or 0 when none could be read.
func staleLock(path string) (int, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, os.IsNotExist(err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid <= 0 {
		info, statErr := os.Stat(path)
		return 0, statErr == nil && time.Since(info.ModTime()) > unwrittenLockGrace
	}
	if pid == os.Getpid() {
		return pid, false
	}
	return pid, !processAlive(pid)
}
