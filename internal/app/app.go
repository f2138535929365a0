package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"seafoodpulse/internal/config"
	"seafoodpulse/internal/dataprocessing"
	"seafoodpulse/internal/exporter"
	"seafoodpulse/internal/fishing"
	"seafoodpulse/internal/infrastructure"
	"seafoodpulse/internal/operations"
	"seafoodpulse/internal/scraper"
	"seafoodpulse/internal/services"
	"seafoodpulse/internal/store"
	ws "seafoodpulse/internal/websocket"
	"seafoodpulse/pkg/contracts"
	"seafoodpulse/pkg/contracts/domain"
)

// Application holds every long-lived component
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	Store         *store.Store
	WebSocketHub  *ws.Hub
	Manager       *operations.Manager
	Metrics       *infrastructure.BusinessMetrics
	OTelProviders *infrastructure.OTelProviders

	OperationService *services.OperationService
	DataService      *services.DataService
	HealthService    *services.HealthService

	Router *chi.Mux
	Server *http.Server

	closers []func(context.Context) error
}

// New builds the application from cfg. It opens the store and starts the
// hub but does not listen; call Run or Execute.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *Application, err error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	a := &Application{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	logger.InfoContext(ctx, "application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version))

	if a.Paths, err = cfg.ResolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err = a.Paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	a.Paths.LogPathResolution(logger)

	if err = a.initTelemetry(ctx); err != nil {
		return nil, err
	}
	if err = a.initStore(ctx); err != nil {
		return nil, err
	}

	a.WebSocketHub = ws.NewHub(logger)
	a.WebSocketHub.Start()
	a.closers = append(a.closers, func(context.Context) error {
		a.WebSocketHub.Stop()
		return nil
	})

	registry, err := a.buildPipeline(ctx)
	if err != nil {
		return nil, err
	}
	a.Manager = operations.NewManager(a.WebSocketHub, registry, operations.FromPipelineConfig(cfg.Pipeline), logger, a.Metrics)

	summarizer := dataprocessing.NewSummarizer(logger, dataprocessing.DefaultSummarizerConfig())
	a.DataService = services.NewDataService(a.Store, summarizer, a.Paths, logger)
	a.OperationService = services.NewOperationService(a.Manager, a.WebSocketHub, logger)
	a.HealthService = services.NewHealthService(a.Store, a.WebSocketHub, a.Paths.DataDir, logger)

	a.setupRouter()
	return a, nil
}

func (a *Application) initTelemetry(ctx context.Context) error {
	providers, err := infrastructure.InitializeOTel(ctx, infrastructure.NewOTelConfig(a.Config.Telemetry), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	a.OTelProviders = providers
	a.closers = append(a.closers, providers.Shutdown)

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.Metrics = metrics
	return nil
}

func (a *Application) initStore(ctx context.Context) error {
	st, err := store.Open(a.Config.Store.Driver, a.Config.StoreDSN(a.Paths))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	a.Store = st
	a.closers = append(a.closers, func(context.Context) error { return st.Close() })

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate store: %w", err)
	}
	a.Logger.InfoContext(ctx, "store ready", slog.String("driver", st.Driver()))
	return nil
}

// buildPipeline registers scraping, processing, analysis and fishing
func (a *Application) buildPipeline(ctx context.Context) (*operations.Registry, error) {
	cfg, paths, logger := a.Config, a.Paths, a.Logger

	client := scraper.NewClient(cfg.Scraper, logger)
	discoverer := scraper.New(cfg.Scraper, client, logger)
	downloader := scraper.NewDownloader(client, paths.DownloadsDir, cfg.Scraper.Concurrency, logger, a.Metrics)

	var publisher operations.TablePublisher
	if cfg.Sheets.Enabled {
		sp, err := exporter.NewSheetsPublisher(ctx, cfg.Sheets, paths.CredentialsFile, logger)
		if err != nil {
			// Local outputs do not depend on the mirror
			logger.WarnContext(ctx, "sheets publishing disabled", slog.String("error", err.Error()))
		} else {
			publisher = sp
		}
	}
	sheetName := cfg.Sheets.SheetName
	if sheetName == "" {
		sheetName = config.DefaultSheetName
	}

	processor := dataprocessing.NewProcessor(dataprocessing.NewExcelReader(cfg.Pipeline.Sheet), logger, a.Metrics)
	summarizer := dataprocessing.NewSummarizer(logger, dataprocessing.DefaultSummarizerConfig())

	registry := operations.NewRegistry()
	steps := []operations.Step{
		operations.NewScrapingStep(discoverer, downloader, paths, logger),
		operations.NewProcessingStep(processor, a.Store, publisher, sheetName, paths, logger).WithFetcher(client),
		operations.NewAnalysisStep(summarizer, paths, logger),
		operations.NewFishingStep(fishing.NewProcessor(paths, a.Store, logger), paths, logger),
	}
	for _, s := range steps {
		if err := registry.Register(s); err != nil {
			return nil, fmt.Errorf("register step %s: %w", s.ID(), err)
		}
	}
	logger.InfoContext(ctx, "pipeline ready", slog.Any("steps", registry.IDs()))
	return registry, nil
}

// Execute runs an operation in the foreground, as the CLI does
func (a *Application) Execute(ctx context.Context, req operations.OperationRequest) (domain.OperationSnapshot, error) {
	return a.Manager.Execute(ctx, req)
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(a.Logger.Handler(), slog.LevelWarn),
	}
}

// Start begins listening. Serve errors are reported on the returned channel.
func (a *Application) Start(ctx context.Context) (<-chan error, error) {
	if a.Server == nil {
		a.createServer()
	}
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	a.Logger.InfoContext(ctx, "HTTP server listening",
		slog.String("addr", ln.Addr().String()),
		slog.Bool("rate_limit", a.Config.Security.RateLimit.Enabled))
	return errCh, nil
}

// Stop shuts the server down, cancels running operations and releases
// every resource
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}
	a.cancelOperations(shutdownCtx)

	if err := a.Close(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	a.Logger.InfoContext(ctx, "application shutdown complete")
	return errors.Join(errs...)
}

func (a *Application) cancelOperations(ctx context.Context) {
	if a.Manager == nil {
		return
	}
	for _, op := range a.Manager.List() {
		if op.Status.IsTerminal() {
			continue
		}
		if err := a.Manager.Cancel(op.ID); err == nil {
			a.Logger.InfoContext(ctx, "operation cancelled on shutdown", slog.String("operation_id", op.ID))
		}
		waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, _ = a.Manager.Wait(waitCtx, op.ID)
		cancel()
	}
}

// Close releases the store, the hub and the telemetry providers in reverse
// order of creation. It is safe to call more than once.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Run serves HTTP until ctx is done or an interrupt arrives
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh, err := a.Start(ctx)
	if err != nil {
		_ = a.Close(ctx)
		return err
	}

	select {
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "shutdown signal received")
	case err := <-errCh:
		if err != nil {
			a.Logger.ErrorContext(ctx, "server failed", slog.String("error", err.Error()))
			return errors.Join(err, a.Stop(ctx))
		}
	}
	return a.Stop(ctx)
}
