package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"siteaudit/internal/modules/camera/domain"
	cameraout "siteaudit/internal/modules/camera/port/out"
	"siteaudit/internal/platform/logging"
)

const (
	DefaultRestartDelay = 300 * time.Millisecond
	restartOpenTimeout  = 10 * time.Second
)

// Manager owns at most one live feed. All state transitions happen under mu;
// the visibility restart timer re-enters through mu as well.
type Manager struct {
	mu           sync.Mutex
	devices      cameraout.MediaDevices
	state        domain.State
	stream       cameraout.Stream
	last         *domain.Constraints
	lastErr      error
	hidden       bool
	resume       bool
	restart      *time.Timer
	generation   uint64
	restartDelay time.Duration
	logger       *zap.Logger
}

func NewManager(devices cameraout.MediaDevices, restartDelay time.Duration, logger *zap.Logger) *Manager {
	if restartDelay <= 0 {
		restartDelay = DefaultRestartDelay
	}
	return &Manager{devices: devices, restartDelay: restartDelay, logger: logging.OrNop(logger)}
}

// Start opens a feed, replacing any feed already open. An empty deviceID
// prefers the environment-facing camera.
func (m *Manager) Start(ctx context.Context, deviceID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelRestartLocked()
	m.resume = false
	m.stopStreamLocked()
	if err := m.openLocked(ctx, domain.Preferred(deviceID)); err != nil {
		return "", err
	}
	return m.stream.DeviceID(), nil
}

// Stop releases the feed. Safe to call when nothing is open.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelRestartLocked()
	m.resume = false
	m.stopStreamLocked()
}

// Close tears the manager down: the feed is released and the backend, when
// it holds resources of its own, is closed.
func (m *Manager) Close() error {
	m.Stop()
	if closer, ok := m.devices.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (m *Manager) State() domain.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) DeviceID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream == nil {
		return ""
	}
	return m.stream.DeviceID()
}

func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) Hidden() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hidden
}

func (m *Manager) Devices(ctx context.Context) ([]domain.Device, error) {
	devices, err := m.devices.Enumerate(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate cameras: %w", err)
	}
	out := make([]domain.Device, 0, len(devices))
	for i, d := range devices {
		d.Label = d.DisplayLabel(i + 1)
		out = append(out, d)
	}
	return out, nil
}

func (m *Manager) Frame(ctx context.Context) (image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != domain.StateOpen || m.stream == nil {
		return nil, domain.ErrNotOpen
	}
	if m.stream.Ended() {
		m.lastErr = &domain.DeviceError{Kind: domain.KindTrackEnded, Err: domain.ErrTrackEnded}
		m.stopStreamLocked()
		return nil, m.lastErr
	}
	return m.stream.Frame(ctx)
}

// SetVisible reports page visibility. Becoming visible after being hidden
// while a feed was open schedules a re-open with the last constraints.
func (m *Manager) SetVisible(visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !visible {
		if m.hidden {
			return
		}
		m.hidden = true
		m.resume = m.state == domain.StateOpen
		m.cancelRestartLocked()
		return
	}
	if !m.hidden {
		return
	}
	m.hidden = false
	if !m.resume || m.last == nil {
		return
	}
	m.resume = false
	m.generation++
	gen := m.generation
	m.restart = time.AfterFunc(m.restartDelay, func() { m.restartFromVisibility(gen) })
}

func (m *Manager) restartFromVisibility(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation || m.hidden || m.last == nil {
		return
	}
	m.restart = nil
	constraints := *m.last
	m.logger.Info("restarting camera after visibility change", zap.String("device", constraints.DeviceID))
	m.stopStreamLocked()
	ctx, cancel := context.WithTimeout(context.Background(), restartOpenTimeout)
	defer cancel()
	if err := m.openLocked(ctx, constraints); err != nil {
		m.logger.Warn("camera restart failed", zap.Error(err))
	}
}

func (m *Manager) openLocked(ctx context.Context, constraints domain.Constraints) error {
	m.state = domain.StateRequesting
	stream, err := m.devices.Open(ctx, constraints)
	if err != nil && domain.Retryable(err) && !constraints.Minimal() {
		m.logger.Warn("camera constraints rejected, retrying with any camera",
			zap.String("kind", string(domain.KindOf(err))),
			zap.Error(err),
		)
		constraints = domain.Constraints{}
		stream, err = m.devices.Open(ctx, constraints)
	}
	if err != nil {
		m.state = domain.StateClosed
		var de *domain.DeviceError
		if !errors.As(err, &de) {
			err = &domain.DeviceError{Kind: domain.KindUnknown, Err: err}
		}
		m.lastErr = err
		return err
	}
	m.stream = stream
	m.state = domain.StateOpen
	m.last = &constraints
	m.lastErr = nil
	return nil
}

func (m *Manager) stopStreamLocked() {
	if m.stream != nil {
		if err := m.stream.Stop(); err != nil {
			m.logger.Warn("stop camera stream", zap.Error(err))
		}
		m.stream = nil
	}
	m.state = domain.StateClosed
}

func (m *Manager) cancelRestartLocked() {
	m.generation++
	if m.restart != nil {
		m.restart.Stop()
		m.restart = nil
	}
}
