package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"siteaudit/internal/bootstrap"
	auditdto "siteaudit/internal/modules/audit/dto"
	"siteaudit/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataPath string

	root := &cobra.Command{
		Use:           "siteaudit",
		Short:         "Site audit capture and PDF reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataPath, "data", ".", "data directory")

	root.AddCommand(newTUICmd(&dataPath))
	root.AddCommand(newReportCmd(&dataPath))
	root.AddCommand(newCameraCmd(&dataPath))
	root.AddCommand(newStoreCmd(&dataPath))
	root.AddCommand(newServeCmd(&dataPath))
	root.AddCommand(newAdvertCmd(&dataPath))
	return root
}

func loadApp(dataPath string) (*bootstrap.App, error) {
	cfg, err := config.New(dataPath)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg)
}

// withApp runs fn against a freshly wired app and closes it afterwards.
func withApp(dataPath string, fn func(ctx context.Context, app *bootstrap.App) error) (err error) {
	app, err := loadApp(dataPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); err == nil && closeErr != nil {
			err = closeErr
		}
	}()
	return fn(context.Background(), app)
}

// withReport is withApp with the persisted report loaded first.
func withReport(dataPath string, fn func(ctx context.Context, app *bootstrap.App) error) error {
	return withApp(dataPath, func(ctx context.Context, app *bootstrap.App) error {
		if _, err := app.AuditCLI.Load(ctx); err != nil {
			return err
		}
		return fn(ctx, app)
	})
}

func newTUICmd(dataPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the capture terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withApp(*dataPath, func(_ context.Context, app *bootstrap.App) error {
				return bootstrap.RunTUI(app)
			})
		},
	}
}

func newCameraCmd(dataPath *string) *cobra.Command {
	camera := &cobra.Command{Use: "camera", Short: "Camera devices"}

	camera.AddCommand(&cobra.Command{
		Use:   "devices",
		Short: "List video input devices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataPath, func(ctx context.Context, app *bootstrap.App) error {
				devices, err := app.CameraCLI.Devices(ctx)
				if err != nil {
					return err
				}
				if len(devices) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no devices")
					return nil
				}
				for _, d := range devices {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", d.ID, d.Facing, d.Label)
				}
				return nil
			})
		},
	})

	var device string
	probe := &cobra.Command{
		Use:   "probe",
		Short: "Open a camera, read one frame and close it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataPath, func(ctx context.Context, app *bootstrap.App) error {
				status, err := app.CameraCLI.Start(ctx, device)
				if err != nil {
					return err
				}
				defer func() { _, _ = app.CameraCLI.Stop(ctx) }()
				frame, err := app.CameraCLI.Frame(ctx)
				if err != nil {
					return err
				}
				size := frame.Image.Bounds().Size()
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "device=%s state=%s frame=%dx%d\n", status.DeviceID, status.State, size.X, size.Y)
				return nil
			})
		},
	}
	probe.Flags().StringVar(&device, "device", "", "device id (default: rear-facing)")
	camera.AddCommand(probe)
	return camera
}

func newStoreCmd(dataPath *string) *cobra.Command {
	store := &cobra.Command{Use: "store", Short: "Inspect the local store"}

	store.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show where each key lives",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataPath, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.StorageCLI.Status(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "transactional=%t\n", out.TransactionalAvailable)
				for _, k := range out.Keys {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\tpresent=%t\ttier=%s\n", k.Key, k.Present, k.Tier)
				}
				if out.LastWarning != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", out.LastWarning)
				}
				return nil
			})
		},
	})

	store.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Write a stored value to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*dataPath, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.StorageCLI.Get(ctx, args[0])
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out.Value)
				return err
			})
		},
	})
	return store
}

func newServeCmd(dataPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve advert purchase, webhook and moderation routes",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.New(*dataPath)
			if err != nil {
				return err
			}
			app, err := bootstrap.New(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return bootstrap.Serve(ctx, cfg.HTTPAddr, app)
		},
	}
}

// parseStrokes reads strokes written as "x,y:x,y:..." in pixel units.
func parseStrokes(raw []string) ([][]auditdto.PointInput, error) {
	strokes := make([][]auditdto.PointInput, 0, len(raw))
	for i, s := range raw {
		var stroke []auditdto.PointInput
		for _, pair := range strings.Split(s, ":") {
			xs, ys, ok := strings.Cut(strings.TrimSpace(pair), ",")
			if !ok {
				return nil, fmt.Errorf("stroke %d: point %q is not x,y", i+1, pair)
			}
			x, err := strconv.ParseFloat(xs, 64)
			if err != nil {
				return nil, fmt.Errorf("stroke %d: %w", i+1, err)
			}
			y, err := strconv.ParseFloat(ys, 64)
			if err != nil {
				return nil, fmt.Errorf("stroke %d: %w", i+1, err)
			}
			stroke = append(stroke, auditdto.PointInput{X: x, Y: y})
		}
		strokes = append(strokes, stroke)
	}
	return strokes, nil
}

func positionArg(arg string) (int, error) {
	pos, err := strconv.Atoi(arg)
	if err != nil || pos < 1 {
		return 0, fmt.Errorf("position must be a number from 1, got %q", arg)
	}
	return pos, nil
}
