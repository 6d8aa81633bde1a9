package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"sketchwall-server-go/internal/domain/classifier"
	openairecognizer "sketchwall-server-go/internal/domain/classifier/openai"
	"sketchwall-server-go/internal/domain/delegate"
	"sketchwall-server-go/internal/domain/drawing"
	"sketchwall-server-go/internal/domain/events"
	"sketchwall-server-go/internal/domain/moderation"
	"sketchwall-server-go/internal/hub"
	platformconfig "sketchwall-server-go/internal/platform/config"
	platformerrors "sketchwall-server-go/internal/platform/errors"
	platformlogging "sketchwall-server-go/internal/platform/logging"
	platformobservability "sketchwall-server-go/internal/platform/observability"
	platformstorage "sketchwall-server-go/internal/platform/storage"
	"sketchwall-server-go/internal/transport/ws"
	"sketchwall-server-go/internal/web"

	evbus "github.com/asaskevich/EventBus"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	config                *platformconfig.Config
	configPath            string
	logger                *platformlogging.Logger
	observabilityShutdown platformobservability.ShutdownFunc
	audit                 *platformstorage.AuditStore

	bus         evbus.Bus
	registry    *drawing.Registry
	classifier  *classifier.Classifier
	coordinator *delegate.Coordinator
	pipeline    *moderation.Pipeline
	hub         *hub.Hub
}

// Run starts the whole service lifecycle: configuration, dependency
// initialisation, server startup and graceful shutdown.
func Run(ctx context.Context) error {
	state := &appState{}

	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		return err
	}

	config := state.config
	logger := state.logger
	if config == nil || logger == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"config/logger not initialised",
		)
	}
	if state.hub == nil || state.pipeline == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"moderation graph not initialised",
		)
	}

	logBootstrapGraph(steps, logger)

	if shutdown := state.observabilityShutdown; shutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.WarnTag("Bootstrap", "observability shutdown failed: %v", err)
			}
		}()
	}

	defer func() {
		state.registry.Shutdown()
		if state.audit != nil {
			if err := state.audit.Close(); err != nil {
				logger.WarnTag("Audit", "audit store close failed: %v", err)
			}
		}
		logger.Close()
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if err := startServices(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	logger.InfoTag("Bootstrap", "sketchwall-server is up (config: %s)", describeConfigSource(state.configPath))

	return waitForShutdown(signalCtx, cancel, logger, group)
}

func describeConfigSource(path string) string {
	if path == "" {
		return "defaults"
	}
	return path
}

func logBootstrapGraph(steps []initStep, logger *platformlogging.Logger) {
	if logger == nil {
		return
	}
	logger.InfoTag("Bootstrap", "initialisation order")
	for _, step := range steps {
		logger.InfoTag("Bootstrap", "  %s", step.Title)
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init",
			Title:     "Initialise logging",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "observability:setup-hooks",
			Title:     "Setup observability hooks",
			DependsOn: []string{"logging:init"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   setupObservabilityStep,
		},
		{
			ID:        "storage:open-audit",
			Title:     "Open moderation audit store",
			DependsOn: []string{"logging:init"},
			Kind:      platformerrors.KindStorage,
			Execute:   openAuditStep,
		},
		{
			ID:        "moderation:init-graph",
			Title:     "Initialise moderation graph",
			DependsOn: []string{"logging:init", "storage:open-audit"},
			Kind:      platformerrors.KindModeration,
			Execute:   initModerationStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	result, err := platformconfig.NewLoader().WithDotEnv(true).Load()
	if err != nil {
		return err
	}
	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init", "failed to initialise logging", err)
	}
	state.logger = logger
	return nil
}

func setupObservabilityStep(ctx context.Context, state *appState) error {
	shutdown, err := platformobservability.Setup(ctx, platformobservability.Config{Enabled: true}, state.logger.Slog())
	if err != nil {
		return err
	}
	state.observabilityShutdown = shutdown
	return nil
}

func openAuditStep(_ context.Context, state *appState) error {
	if !state.config.Audit.Enabled {
		state.logger.InfoTag("Audit", "audit trail disabled")
		return nil
	}
	store, err := platformstorage.OpenAudit(state.config.Audit.DBPath)
	if err != nil {
		return err
	}
	state.audit = store
	state.logger.InfoTag("Audit", "audit trail at %s", state.config.Audit.DBPath)
	return nil
}

func initModerationStep(ctx context.Context, state *appState) error {
	cfg := state.config
	logger := state.logger

	state.bus = events.New()
	state.registry = drawing.NewRegistry()

	recognizer, err := buildRecognizer(cfg, logger)
	if err != nil {
		return err
	}
	state.classifier = classifier.New(recognizer, cfg.Classifier.BlockedWords, logger)

	state.coordinator = delegate.NewCoordinator(
		time.Duration(cfg.Moderation.DelegateTimeoutMs)*time.Millisecond,
		state.bus,
		logger,
	)

	state.pipeline = moderation.NewPipeline(
		ctx,
		moderation.Config{
			AutoRemoveDelay: time.Duration(cfg.Moderation.AutoRemoveDelayMs) * time.Millisecond,
			ThumbnailMaxDim: cfg.Moderation.ThumbnailMaxDim,
		},
		state.registry,
		state.classifier,
		state.coordinator,
		state.bus,
		logger,
	)

	state.hub = hub.New(state.pipeline, state.coordinator, state.registry, logger)
	if err := state.hub.BindBus(state.bus); err != nil {
		return platformerrors.Wrap(platformerrors.KindModeration, "moderation:init-graph", "hub bus subscription failed", err)
	}

	if state.audit != nil {
		recorder := moderation.NewRecorder(state.audit, logger)
		if err := recorder.Bind(state.bus); err != nil {
			return platformerrors.Wrap(platformerrors.KindModeration, "moderation:init-graph", "audit bus subscription failed", err)
		}
	}
	return nil
}

func buildRecognizer(cfg *platformconfig.Config, logger *platformlogging.Logger) (classifier.Recognizer, error) {
	switch cfg.Classifier.Recognizer {
	case "", "none":
		return nil, nil
	case "openai":
		rec, err := openairecognizer.NewRecognizer(cfg.Classifier.OpenAI, logger)
		if err != nil {
			return nil, err
		}
		return rec, nil
	default:
		return nil, platformerrors.New(
			platformerrors.KindConfig,
			"moderation:init-graph",
			fmt.Sprintf("unknown recognizer %q", cfg.Classifier.Recognizer),
		)
	}
}

func startServices(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	if err := startWSServer(state, g, groupCtx); err != nil {
		return fmt.Errorf("starting websocket service: %w", err)
	}
	if err := startWebServer(state, g, groupCtx); err != nil {
		return fmt.Errorf("starting web service: %w", err)
	}
	return nil
}

func startWSServer(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	cfg := state.config
	logger := state.logger

	sessionHub := ws.NewSessionHub(logger)
	router := ws.NewRouter(sessionHub, logger, ws.RouterOptions{})
	server := ws.NewServer(ws.ServerConfig{
		Addr: fmt.Sprintf("%s:%d", cfg.Transport.WebSocket.IP, cfg.Transport.WebSocket.Port),
		Path: cfg.Transport.WebSocket.Path,
	}, router, sessionHub, logger)

	h := state.hub
	server.SetHandlerBuilder(func(conn *ws.Connection, _ *http.Request) (ws.SessionHandler, error) {
		return hub.NewClient(conn, h, state.pipeline, state.coordinator, logger), nil
	})

	g.Go(func() error {
		return server.Start(groupCtx)
	})
	return nil
}

func startWebServer(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	if !state.config.Web.Enabled {
		state.logger.InfoTag("Web", "operator API disabled")
		return nil
	}

	server := web.NewServer(state.config.Web, state.hub, state.coordinator, state.audit, state.logger)
	g.Go(func() error {
		return server.Start(groupCtx)
	})
	return nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("Bootstrap", "shutdown signal received (%v), cleaning up", context.Cause(ctx))

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.ErrorTag("Bootstrap", "error during shutdown: %v", err)
			return err
		}
		logger.InfoTag("Bootstrap", "all services stopped")
	case <-time.After(15 * time.Second):
		logger.ErrorTag("Bootstrap", "shutdown timed out, forcing exit")
		return errors.New("service shutdown timed out")
	}
	return nil
}
