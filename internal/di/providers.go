package di

import (
	"context"
	"fmt"
	"time"

	"ChainPulse/internal/domain/repository"
	"ChainPulse/internal/handler/api"
	internalrepo "ChainPulse/internal/repository"
	"ChainPulse/internal/service/dexscreener"
	"ChainPulse/internal/usecase"
	"ChainPulse/internal/venue"
	pkgch "ChainPulse/pkg/clickhouse"
	"ChainPulse/pkg/config"
	xhttp "ChainPulse/pkg/http"
	pkgkafka "ChainPulse/pkg/kafka"
	"ChainPulse/pkg/logger"
	"ChainPulse/pkg/metrics"
	pkgredis "ChainPulse/pkg/redis"
	"ChainPulse/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideStoreSet selects the persistence backend from config.
func ProvideStoreSet(cfg *config.Config, log *logger.Logger) (*internalrepo.StoreSet, error) {
	if cfg.Store.Backend == "memory" {
		log.Warn("using in-memory store, state is lost on restart")
		return internalrepo.NewStoreSet(
			internalrepo.NewMemorySignalStore(),
			internalrepo.NewMemoryTradeStore(),
			nil,
		), nil
	}

	client, err := pkgredis.NewClient(
		pkgredis.WithAddr(cfg.Store.Redis.Host, cfg.Store.Redis.Port),
		pkgredis.WithPassword(cfg.Store.Redis.Password),
		pkgredis.WithDB(cfg.Store.Redis.DB),
		pkgredis.WithPool(cfg.Store.Redis.PoolSize, cfg.Store.Redis.MinIdleConns, cfg.Store.Redis.PoolTimeout),
		pkgredis.WithPrefix(cfg.Store.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis client: %w", err)
	}
	return internalrepo.NewStoreSet(
		internalrepo.NewRedisSignalStore(client),
		internalrepo.NewRedisTradeStore(client),
		client.Close,
	), nil
}

// ProvideSignalStore extracts the signal store from the bundle.
func ProvideSignalStore(set *internalrepo.StoreSet) repository.SignalStore {
	return set.Signals
}

// ProvideTradeStore extracts the trade store from the bundle.
func ProvideTradeStore(set *internalrepo.StoreSet) repository.TradeStore {
	return set.Trades
}

// ProvideMarketFeed creates the DexScreener market feed client.
func ProvideMarketFeed(cfg *config.Config, log *logger.Logger) repository.MarketFeed {
	return dexscreener.New(cfg.Feed.Timeout,
		dexscreener.WithBaseURL(cfg.Feed.BaseURL),
		dexscreener.WithLogger(log),
	)
}

// ProvideVenueRegistry builds gateways for every venue with credentials.
func ProvideVenueRegistry(cfg *config.Config, log *logger.Logger) *venue.Registry {
	var gateways []venue.Gateway
	if c := cfg.Venues.Bybit; c.Configured() {
		gateways = append(gateways, venue.NewBybit(c.APIKey, c.APISecret, venue.WithLogger(log)))
	}
	if c := cfg.Venues.Gate; c.Configured() {
		gateways = append(gateways, venue.NewGate(c.APIKey, c.APISecret, venue.WithLogger(log)))
	}
	if c := cfg.Venues.OKX; c.Configured() {
		gateways = append(gateways, venue.NewOKX(c.APIKey, c.APISecret, c.Passphrase, venue.WithLogger(log)))
	}
	if c := cfg.Venues.BingX; c.Configured() {
		gateways = append(gateways, venue.NewBingX(c.APIKey, c.APISecret, venue.WithLogger(log)))
	}
	if c := cfg.Venues.XT; c.Configured() {
		gateways = append(gateways, venue.NewXT(c.APIKey, c.APISecret, venue.WithLogger(log)))
	}
	return venue.NewRegistry(log, gateways...)
}

// ProvideNotifier creates the Kafka notification sink, or a no-op one
// when notifications are disabled.
func ProvideNotifier(cfg *config.Config) (repository.Notifier, error) {
	if !cfg.Notifier.Enabled {
		return internalrepo.NopNotifier{}, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Notifier.Brokers),
		pkgkafka.WithCompression(cfg.Notifier.Compression),
		pkgkafka.WithRequiredAcks(cfg.Notifier.Acks),
		pkgkafka.WithMaxAttempts(cfg.Notifier.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return internalrepo.NewKafkaNotifier(producer, internalrepo.NotifierTopics{
		Signals: cfg.Notifier.SignalTopic,
		Trades:  cfg.Notifier.TradeTopic,
		Status:  cfg.Notifier.StatusTopic,
	}), nil
}

// ProvideJournal creates the ClickHouse history journal, or a no-op one
// when journaling is disabled.
func ProvideJournal(cfg *config.Config) (repository.Journal, error) {
	if !cfg.Journal.Enabled {
		return internalrepo.NopJournal{}, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.Journal.Host),
		pkgch.WithPort(cfg.Journal.Port),
		pkgch.WithDatabase(cfg.Journal.Database),
		pkgch.WithCredentials(cfg.Journal.User, cfg.Journal.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.Journal.Timeout, cfg.Journal.Timeout, cfg.Journal.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.JournalSchema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return internalrepo.NewClickHouseJournal(client.DB()), nil
}

// ProvideSignalIngestor creates the market event ingestion use case.
func ProvideSignalIngestor(
	feed repository.MarketFeed,
	signals repository.SignalStore,
	notifier repository.Notifier,
	journal repository.Journal,
	m repository.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.SignalIngestor {
	return usecase.NewSignalIngestor(feed, signals, notifier, journal, m, log, usecase.IngestorConfig{
		Networks:          cfg.Trading.ActiveBlockchains,
		InterNetworkDelay: cfg.Feed.InterNetworkDelay,
		MaxPairAge:        cfg.Feed.MaxPairAge,
	})
}

// ProvideTradingEngine creates the signal execution use case.
func ProvideTradingEngine(
	signals repository.SignalStore,
	trades repository.TradeStore,
	registry *venue.Registry,
	notifier repository.Notifier,
	journal repository.Journal,
	m repository.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.TradingEngine {
	return usecase.NewTradingEngine(signals, trades, registry, notifier, journal, m, log, usecase.EngineConfig{
		MinSpread:    cfg.Trading.MinSpread,
		MaxSpread:    cfg.Trading.MaxSpread,
		MinLiquidity: cfg.Trading.MinLiquidity,
		MinVolume24h: cfg.Trading.MinVolume24h,
		TradeAmount:  cfg.Trading.TradeAmount,
		AutoTrading:  cfg.Trading.AutoTrading,
		Symbol:       cfg.Trading.DefaultSymbol,
		MaxAttempts:  cfg.Trading.MaxAttempts,
		ActiveVenues: cfg.Trading.ActiveExchanges,
	})
}

// ProvidePositionMonitor creates the open position monitoring use case.
// Positions exit once unrealized profit reaches the configured minimum
// spread.
func ProvidePositionMonitor(
	trades repository.TradeStore,
	registry *venue.Registry,
	notifier repository.Notifier,
	journal repository.Journal,
	m repository.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.PositionMonitor {
	return usecase.NewPositionMonitor(trades, registry, notifier, journal, m, log, usecase.MonitorConfig{
		ExitTargetPct:    cfg.Trading.MinSpread,
		MaxCloseAttempts: cfg.Trading.MaxAttempts,
	})
}

// ProvideHeartbeat creates the status heartbeat use case.
func ProvideHeartbeat(
	signals repository.SignalStore,
	trades repository.TradeStore,
	notifier repository.Notifier,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.Heartbeat {
	return usecase.NewHeartbeat(signals, trades, notifier, m, log)
}

// ProvideSupervisor creates the loop supervisor with the default backoff.
func ProvideSupervisor(log *logger.Logger, m repository.Metrics) *usecase.Supervisor {
	return usecase.NewSupervisor(log, m, 0)
}

// ProvideOpsHandler creates the operational HTTP handler.
func ProvideOpsHandler(
	log *logger.Logger,
	heartbeat *usecase.Heartbeat,
	signals repository.SignalStore,
	trades repository.TradeStore,
	registry *venue.Registry,
	cfg *config.Config,
) xhttp.Handler {
	return api.NewOpsEchoHandler(log, heartbeat, signals, trades, registry, cfg)
}

// ProvideHTTPServer creates the Echo server with the ops routes mounted.
func ProvideHTTPServer(cfg *config.Config, handler xhttp.Handler) *xhttp.Server {
	return xhttp.NewServer(handler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	sup *usecase.Supervisor,
	ingestor *usecase.SignalIngestor,
	engine *usecase.TradingEngine,
	monitor *usecase.PositionMonitor,
	heartbeat *usecase.Heartbeat,
	httpServer *xhttp.Server,
	notifier repository.Notifier,
	journal repository.Journal,
	stores *internalrepo.StoreSet,
) *server.App {
	return server.New(cfg, log, sup, ingestor, engine, monitor, heartbeat, httpServer, notifier, journal, stores)
}
