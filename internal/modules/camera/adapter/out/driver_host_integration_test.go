package out_test

import (
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	cameraadapter "siteaudit/internal/modules/camera/adapter/out"
	"siteaudit/internal/modules/camera/domain"
	"siteaudit/internal/modules/camera/service"
)

func TestDriverDevicesIntegrationTestPattern(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the test pattern driver")
	}
	binPath := buildTestPatternDriver(t)
	devices, err := cameraadapter.NewDriverDevices(domain.DriverManifest{Name: "testpattern", Binary: binPath}, nil)
	if err != nil {
		t.Fatalf("new driver devices: %v", err)
	}
	manager := service.NewManager(devices, 10*time.Millisecond, nil)
	defer manager.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	before, err := manager.Devices(ctx)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	if len(before) != 2 || before[0].Label != "Unknown camera 1" {
		t.Fatalf("expected unlabeled devices before permission, got %+v", before)
	}

	id, err := manager.Start(ctx, "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if id != "rear" {
		t.Fatalf("expected rear camera, got %s", id)
	}
	frame, err := manager.Frame(ctx)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if frame.Bounds().Dx() != 640 || frame.Bounds().Dy() != 480 {
		t.Fatalf("unexpected frame size %v", frame.Bounds())
	}

	after, err := manager.Devices(ctx)
	if err != nil {
		t.Fatalf("enumerate after open: %v", err)
	}
	if after[0].Label != "Test pattern (rear)" {
		t.Fatalf("expected labels after permission, got %+v", after)
	}

	if _, err := manager.Start(ctx, "side"); err != nil {
		t.Fatalf("expected fallback to any camera, got %v", err)
	}
	manager.Stop()
	manager.Stop()
}

func buildTestPatternDriver(t *testing.T) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "testpattern")
	cmd := exec.Command("go", "build", "-o", binPath, "./plugins/testpattern")
	cmd.Dir = repositoryRoot(t)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build test pattern driver: %v\n%s", err, string(out))
	}
	return binPath
}

func repositoryRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller failed")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "../../../../../"))
}
