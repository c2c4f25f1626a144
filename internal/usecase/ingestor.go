package usecase

import (
	"context"
	"fmt"
	"time"

	"ChainPulse/internal/domain/models"
	drepo "ChainPulse/internal/domain/repository"
	"ChainPulse/pkg/logger"
)

// Ingestion floors. Pairs below either are never turned into signals,
// independently of the trading thresholds evaluated later.
const (
	ingestFloorLiquidity = 5000
	ingestFloorVolume    = 10000
)

// IngestorConfig holds the feed polling parameters.
type IngestorConfig struct {
	Networks          []string
	InterNetworkDelay time.Duration
	MaxPairAge        time.Duration
}

// SignalIngestor polls the market feed, filters and deduplicates pair
// records and persists the survivors as pending signals.
type SignalIngestor struct {
	feed     drepo.MarketFeed
	signals  drepo.SignalStore
	notifier drepo.Notifier
	journal  drepo.Journal
	metrics  drepo.Metrics
	log      *logger.Logger
	cfg      IngestorConfig
}

// NewSignalIngestor creates a signal ingestor.
func NewSignalIngestor(
	feed drepo.MarketFeed,
	signals drepo.SignalStore,
	notifier drepo.Notifier,
	journal drepo.Journal,
	metrics drepo.Metrics,
	log *logger.Logger,
	cfg IngestorConfig,
) *SignalIngestor {
	return &SignalIngestor{
		feed:     feed,
		signals:  signals,
		notifier: notifier,
		journal:  journal,
		metrics:  metrics,
		log:      log,
		cfg:      cfg,
	}
}

// IngestTrending polls trending pairs for every configured network, with a
// short pause between networks to stay under the feed's rate limits.
func (i *SignalIngestor) IngestTrending(ctx context.Context) error {
	for idx, network := range i.cfg.Networks {
		if idx > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(i.cfg.InterNetworkDelay):
			}
		}

		pairs, err := i.feed.TrendingPairs(ctx, network)
		if err != nil {
			i.metrics.RecordError("feed_trending")
			i.log.Warn("trending poll failed", logger.String("network", network), logger.Error(err))
			continue
		}
		for _, pair := range pairs {
			if _, err := i.Ingest(ctx, pair); err != nil {
				return err
			}
		}
	}
	return nil
}

// IngestNewPairs polls recently created pairs and ingests those younger
// than the configured age cutoff.
func (i *SignalIngestor) IngestNewPairs(ctx context.Context) error {
	now := time.Now().UTC()
	for idx, network := range i.cfg.Networks {
		if idx > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(i.cfg.InterNetworkDelay):
			}
		}

		pairs, err := i.feed.NewPairs(ctx, network)
		if err != nil {
			i.metrics.RecordError("feed_new_pairs")
			i.log.Warn("new pairs poll failed", logger.String("network", network), logger.Error(err))
			continue
		}
		for _, pair := range pairs {
			age := pair.Age(now)
			if age < 0 || age >= i.cfg.MaxPairAge {
				continue
			}
			if _, err := i.Ingest(ctx, pair); err != nil {
				return err
			}
		}
	}
	return nil
}

// Ingest turns one pair record into a pending signal, or into nothing when
// the record fails the floors or duplicates an existing signal.
func (i *SignalIngestor) Ingest(ctx context.Context, pair *models.PairRecord) (*models.Signal, error) {
	if pair.LiquidityUSD < ingestFloorLiquidity || pair.Volume24hUSD < ingestFloorVolume {
		return nil, nil
	}

	now := time.Now().UTC()
	sig := &models.Signal{
		ID:           models.NewSignalID(now),
		Blockchain:   pair.ChainID,
		TokenAddress: pair.TokenAddress,
		TokenSymbol:  pair.TokenSymbol,
		EventKind:    classifyEvent(pair),
		Price:        pair.PriceUSD,
		Liquidity:    pair.LiquidityUSD,
		Volume24h:    pair.Volume24hUSD,
		Spread:       estimateSpread(pair),
		Status:       models.SignalPending,
		CreatedAt:    now,
	}

	ok, err := i.signals.Reserve(ctx, sig.DedupKey(), sig.ID)
	if err != nil {
		return nil, fmt.Errorf("reserve %s: %w", sig.DedupKey(), err)
	}
	if !ok {
		i.metrics.RecordSignal("duplicate")
		return nil, nil
	}

	if err := i.signals.Create(ctx, sig); err != nil {
		return nil, fmt.Errorf("create signal %s: %w", sig.ID, err)
	}
	i.metrics.RecordSignal("created")
	i.log.Info("signal created",
		logger.String("id", sig.ID),
		logger.String("blockchain", sig.Blockchain),
		logger.String("token", sig.TokenSymbol),
		logger.Float64("liquidity", sig.Liquidity),
		logger.Float64("spread", sig.Spread))

	if err := i.notifier.SignalCreated(ctx, sig); err != nil {
		i.metrics.RecordError("notify")
		i.log.Warn("signal notification failed", logger.String("id", sig.ID), logger.Error(err))
	}
	if err := i.journal.RecordSignal(ctx, sig); err != nil {
		i.metrics.RecordError("journal")
		i.log.Warn("signal journal write failed", logger.String("id", sig.ID), logger.Error(err))
	}

	return sig, nil
}

// classifyEvent maps a pair record onto an event kind: records reporting a
// creation time are pool creations, the rest are trending hits.
func classifyEvent(pair *models.PairRecord) models.EventKind {
	if !pair.PairCreatedAt.IsZero() {
		return models.EventPoolCreation
	}
	return models.EventTrending
}

// estimateSpread derives a liquidity-depth spread proxy from the pair's
// volume-to-liquidity ratio, capped at 5 percent.
func estimateSpread(pair *models.PairRecord) float64 {
	if pair.LiquidityUSD <= 0 {
		return 0
	}
	est := pair.Volume24hUSD / pair.LiquidityUSD * 0.1
	if est > 5.0 {
		return 5.0
	}
	return est
}
