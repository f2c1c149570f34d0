package out

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os/exec"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"go.uber.org/zap"

	camerarpc "siteaudit/internal/modules/camera/adapter/out/rpc"
	"siteaudit/internal/modules/camera/domain"
	cameraout "siteaudit/internal/modules/camera/port/out"
	"siteaudit/internal/platform/logging"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

// DriverDevices exposes an out-of-process camera driver as MediaDevices.
// The driver process is started on first use and lives until Close.
type DriverDevices struct {
	mu       sync.Mutex
	manifest domain.DriverManifest
	client   *plugin.Client
	rpc      camerarpc.CameraDriverClient
	logger   *zap.Logger
}

func NewDriverDevices(manifest domain.DriverManifest, logger *zap.Logger) (*DriverDevices, error) {
	if err := manifest.Validate(); err != nil {
		return nil, fmt.Errorf("camera driver manifest: %w", err)
	}
	return &DriverDevices{manifest: manifest, logger: logging.OrNop(logger)}, nil
}

func (h *DriverDevices) Enumerate(ctx context.Context) ([]domain.Device, error) {
	client, err := h.connect()
	if err != nil {
		return nil, err
	}
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	response, err := client.ListDevices(callCtx)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	out := make([]domain.Device, 0, len(response.Devices))
	for _, device := range response.Devices {
		facing, err := domain.ParseFacing(device.Facing)
		if err != nil {
			h.logger.Warn("driver reported unknown facing", zap.String("device", device.ID), zap.String("facing", device.Facing))
		}
		out = append(out, domain.Device{ID: device.ID, Label: device.Label, Facing: facing})
	}
	return out, nil
}

func (h *DriverDevices) Open(ctx context.Context, constraints domain.Constraints) (cameraout.Stream, error) {
	client, err := h.connect()
	if err != nil {
		return nil, err
	}
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	response, err := client.Open(callCtx, &camerarpc.OpenRequest{
		DeviceID: constraints.DeviceID,
		Facing:   string(constraints.Facing),
		Width:    int32(constraints.Width),
		Height:   int32(constraints.Height),
	})
	if err != nil {
		return nil, fmt.Errorf("open camera: %w", err)
	}
	if response.ErrorKind != "" {
		return nil, &domain.DeviceError{Kind: domain.ErrorKind(response.ErrorKind), Err: fmt.Errorf("%s", response.Message)}
	}
	return &driverStream{client: client, streamID: response.StreamID, deviceID: response.DeviceID}, nil
}

// Close kills the driver process. Safe to call more than once.
func (h *DriverDevices) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client != nil {
		h.client.Kill()
		h.client = nil
		h.rpc = nil
	}
	return nil
}

func (h *DriverDevices) connect() (camerarpc.CameraDriverClient, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client != nil && !h.client.Exited() {
		return h.rpc, nil
	}

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  camerarpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          camerarpc.PluginMap(nil),
		Cmd:              exec.Command(h.manifest.Binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           hclog.New(&hclog.LoggerOptions{Output: io.Discard, Level: hclog.NoLevel}),
	})
	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("start camera driver %s: %w", h.manifest.Name, err)
	}
	raw, err := rpcClient.Dispense(camerarpc.PluginMapKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense camera driver: %w", err)
	}
	typed, ok := raw.(camerarpc.CameraDriverClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("camera driver rpc client type mismatch")
	}
	h.client = client
	h.rpc = typed
	h.logger.Debug("camera driver started", zap.String("driver", h.manifest.Name))
	return typed, nil
}

type driverStream struct {
	mu       sync.Mutex
	client   camerarpc.CameraDriverClient
	streamID string
	deviceID string
	ended    bool
	stopped  bool
}

func (s *driverStream) DeviceID() string {
	return s.deviceID
}

func (s *driverStream) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

func (s *driverStream) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, domain.ErrNotOpen
	}
	s.mu.Unlock()

	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	response, err := s.client.ReadFrame(callCtx, &camerarpc.FrameRequest{StreamID: s.streamID})
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	if response.Ended {
		s.mu.Lock()
		s.ended = true
		s.mu.Unlock()
		return nil, &domain.DeviceError{Kind: domain.KindTrackEnded, Err: domain.ErrTrackEnded}
	}
	if response.ErrorKind != "" {
		return nil, &domain.DeviceError{Kind: domain.ErrorKind(response.ErrorKind), Err: fmt.Errorf("%s", response.Message)}
	}
	if len(response.PNG) == 0 {
		return nil, domain.ErrNoFrame
	}
	img, err := png.Decode(bytes.NewReader(response.PNG))
	if err != nil {
		return nil, fmt.Errorf("decode driver frame: %w", err)
	}
	return img, nil
}

func (s *driverStream) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultCallTimeout)
	defer cancel()
	if err := s.client.Close(ctx, &camerarpc.CloseRequest{StreamID: s.streamID}); err != nil {
		return fmt.Errorf("close camera stream: %w", err)
	}
	return nil
}

func callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
