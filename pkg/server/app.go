package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "ChainPulse/internal/domain/repository"
	internalrepo "ChainPulse/internal/repository"
	"ChainPulse/internal/usecase"
	"ChainPulse/pkg/config"
	xhttp "ChainPulse/pkg/http"
	applogger "ChainPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle: the supervised
// ingestion, trading and heartbeat loops plus the operational HTTP server.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	sup        *usecase.Supervisor
	ingestor   *usecase.SignalIngestor
	engine     *usecase.TradingEngine
	monitor    *usecase.PositionMonitor
	heartbeat  *usecase.Heartbeat
	httpServer *xhttp.Server
	notifier   domrepo.Notifier
	journal    domrepo.Journal
	stores     *internalrepo.StoreSet
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	sup *usecase.Supervisor,
	ingestor *usecase.SignalIngestor,
	engine *usecase.TradingEngine,
	monitor *usecase.PositionMonitor,
	heartbeat *usecase.Heartbeat,
	httpServer *xhttp.Server,
	notifier domrepo.Notifier,
	journal domrepo.Journal,
	stores *internalrepo.StoreSet,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		sup:        sup,
		ingestor:   ingestor,
		engine:     engine,
		monitor:    monitor,
		heartbeat:  heartbeat,
		httpServer: httpServer,
		notifier:   notifier,
		journal:    journal,
		stores:     stores,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.notifier.BotEvent(ctx, "bot_started"); err != nil {
		a.log.Warn("bot_started event failed", applogger.Error(err))
	}
	a.log.Info("bot starting",
		applogger.String("env", a.cfg.Environment),
		applogger.Bool("auto_trading", a.cfg.Trading.AutoTrading),
		applogger.Strings("blockchains", a.cfg.Trading.ActiveBlockchains),
		applogger.Strings("venues", a.cfg.Trading.ActiveExchanges),
	)

	a.sup.Go(ctx, "trending", a.cfg.Feed.TrendingInterval, a.ingestor.IngestTrending)
	a.sup.Go(ctx, "new_pairs", a.cfg.Feed.NewPairsInterval, a.ingestor.IngestNewPairs)
	a.sup.Go(ctx, "trading", a.cfg.Trading.EngineInterval, a.tradingPass)
	a.sup.Go(ctx, "heartbeat", a.cfg.Trading.HeartbeatInterval, a.heartbeat.Publish)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// tradingPass runs one execution pass over pending signals followed by
// one monitoring pass over open trades.
func (a *App) tradingPass(ctx context.Context) error {
	if err := a.engine.ProcessSignals(ctx); err != nil {
		return err
	}
	return a.monitor.MonitorTrades(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.sup.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if err := a.notifier.BotEvent(shutdownCtx, "bot_stopped"); err != nil {
		a.log.Warn("bot_stopped event failed", applogger.Error(err))
	}

	if err := a.notifier.Close(); err != nil {
		a.log.Warn("notifier close error", applogger.Error(err))
	}
	if err := a.journal.Close(); err != nil {
		a.log.Warn("journal close error", applogger.Error(err))
	}
	if err := a.stores.Close(); err != nil {
		a.log.Warn("store close error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
