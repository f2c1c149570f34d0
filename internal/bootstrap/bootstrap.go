package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	advertinadapter "siteaudit/internal/modules/advert/adapter/in"
	advertoutadapter "siteaudit/internal/modules/advert/adapter/out"
	advertservice "siteaudit/internal/modules/advert/service"
	advertusecase "siteaudit/internal/modules/advert/usecase"
	auditinadapter "siteaudit/internal/modules/audit/adapter/in"
	auditoutadapter "siteaudit/internal/modules/audit/adapter/out"
	auditservice "siteaudit/internal/modules/audit/service"
	auditusecase "siteaudit/internal/modules/audit/usecase"
	camerainadapter "siteaudit/internal/modules/camera/adapter/in"
	cameraoutadapter "siteaudit/internal/modules/camera/adapter/out"
	cameraout "siteaudit/internal/modules/camera/port/out"
	cameraservice "siteaudit/internal/modules/camera/service"
	camerausecase "siteaudit/internal/modules/camera/usecase"
	storageinadapter "siteaudit/internal/modules/storage/adapter/in"
	storageoutadapter "siteaudit/internal/modules/storage/adapter/out"
	storageout "siteaudit/internal/modules/storage/port/out"
	storageservice "siteaudit/internal/modules/storage/service"
	storageusecase "siteaudit/internal/modules/storage/usecase"
	"siteaudit/internal/platform/clock"
	"siteaudit/internal/platform/config"
	"siteaudit/internal/platform/id"
	"siteaudit/internal/platform/logging"
	uiapp "siteaudit/internal/ui/app"
)

type App struct {
	AuditCLI   auditinadapter.CLIHandler
	AuditTUI   auditinadapter.TUIHandler
	CameraCLI  camerainadapter.CLIHandler
	StorageCLI storageinadapter.CLIHandler
	AdvertCLI  advertinadapter.CLIHandler
	AdvertHTTP advertinadapter.HTTPHandler
	AdvertErr  error
	Logger     *zap.Logger

	closers []func() error
}

func New(cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return nil, err
	}
	clk := clock.SystemClock{}
	ids := id.UUIDv7{}
	app := &App{Logger: logger}

	// The transactional tier is optional: when it cannot open, every key
	// lives in the simple store.
	var primary storageout.Tier
	if tier, err := storageoutadapter.NewSQLiteTier(cfg.DBPath, cfg.StoreQuotaBytes); err != nil {
		logger.Warn("transactional store unavailable", zap.Error(err))
	} else {
		primary = tier
	}
	store := storageservice.NewTieredStore(primary,
		storageoutadapter.NewFileTier(cfg.SimpleStorePath, cfg.SimpleStoreQuotaBytes), logger)
	app.closers = append(app.closers, store.Close)
	storageUC := storageusecase.NewInteractor(store)

	devices, err := newMediaDevices(cfg, logger)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	cameraUC := camerausecase.NewInteractor(cameraservice.NewManager(devices, 0, logger))
	app.closers = append(app.closers, cameraUC.Close)

	reportSvc := auditservice.NewReportService(auditservice.Dependencies{
		Store:     auditoutadapter.NewStorageSessionStore(storageUC),
		Frames:    auditoutadapter.NewCameraFrameSource(cameraUC),
		Renderer:  auditoutadapter.NewPDFRenderer(logger),
		Archive:   auditoutadapter.NewVaultReportArchive(cfg.ReportNotesDir),
		Inspector: auditoutadapter.NewPDFInspector(),
		Clock:     clk,
		IDs:       ids,
		Logger:    logger,
	}, auditservice.Options{
		SquareCrop: cfg.SquareCrop,
		AutoTitle:  cfg.AutoTitle,
		Quality:    cfg.JPEGQuality,
		MaxSide:    cfg.MaxImageSide,
		ExportDir:  cfg.ExportDir,
	})
	auditUC := auditusecase.NewInteractor(reportSvc)

	app.AuditCLI = auditinadapter.NewCLIHandler(auditUC)
	app.AuditTUI = auditinadapter.NewTUIHandler(auditUC)
	app.CameraCLI = camerainadapter.NewCLIHandler(cameraUC)
	app.StorageCLI = storageinadapter.NewCLIHandler(storageUC)

	// Capture keeps working when the advert database cannot open; only the
	// advert commands report the failure.
	if err := app.wireAdverts(cfg, clk, ids); err != nil {
		logger.Warn("advert module unavailable", zap.Error(err))
		app.AdvertErr = err
	}
	return app, nil
}

func (a *App) wireAdverts(cfg config.Config, clk clock.Clock, ids id.Generator) error {
	repo, err := advertoutadapter.NewSQLiteRepository(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("new advert repository: %w", err)
	}
	a.closers = append(a.closers, repo.Close)
	advertUC := advertusecase.NewInteractor(advertservice.NewAdvertService(advertservice.Dependencies{
		Repository: repo,
		Objects:    advertoutadapter.NewBucketObjectStore(cfg.AdvertBucket),
		Checkout:   advertoutadapter.NewHTTPCheckout(cfg.CheckoutURL, cfg.CheckoutKey, cfg.CheckoutReturnURL),
		Clock:      clk,
		IDs:        ids,
		Logger:     a.Logger,
	}, advertservice.Options{
		PriceCents:    cfg.AdPriceCents,
		WebhookSecret: cfg.WebhookSecret,
	}))
	a.AdvertCLI = advertinadapter.NewCLIHandler(advertUC)
	a.AdvertHTTP = advertinadapter.NewHTTPHandler(advertUC, advertinadapter.AdminCredentials{
		User:         cfg.AdminUser,
		PasswordHash: cfg.AdminPasswordHash,
	}, a.Logger)
	return nil
}

// newMediaDevices picks the registered driver named by the config, or the
// directory camera when none is set.
func newMediaDevices(cfg config.Config, logger *zap.Logger) (cameraout.MediaDevices, error) {
	if cfg.CameraDriver == "" {
		return cameraoutadapter.NewDirectoryDevices(cfg.CameraDir, logger), nil
	}
	manifests, err := cameraoutadapter.NewFileManifestStore(cfg.DriverManifest).Load(context.Background())
	if err != nil {
		return nil, err
	}
	manifest, err := cameraoutadapter.FindManifest(manifests, cfg.CameraDriver)
	if err != nil {
		return nil, err
	}
	driver, err := cameraoutadapter.NewDriverDevices(manifest, logger)
	if err != nil {
		return nil, err
	}
	return driver, nil
}

// Close releases the camera and the stores, then flushes the logger.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.AuditTUI, app.CameraCLI)
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)
	_, err := program.Run()
	return err
}

// Serve runs the advert HTTP surface until ctx is done.
func Serve(ctx context.Context, addr string, app *App) error {
	if app.AdvertErr != nil {
		return app.AdvertErr
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           app.AdvertHTTP.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		app.Logger.Info("http listening", zap.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
