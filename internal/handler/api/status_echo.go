package api

import (
	"net/http"
	"time"

	domrepo "ChainPulse/internal/domain/repository"
	"ChainPulse/internal/usecase"
	"ChainPulse/internal/venue"
	"ChainPulse/pkg/config"
	xlogger "ChainPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// OpsEchoHandler exposes the operational HTTP surface of the bot:
// liveness, store health and a status snapshot.
type OpsEchoHandler struct {
	logger    *xlogger.Logger
	heartbeat *usecase.Heartbeat
	signals   domrepo.SignalStore
	trades    domrepo.TradeStore
	registry  *venue.Registry
	cfg       *config.Config
	startedAt time.Time
}

func NewOpsEchoHandler(
	logger *xlogger.Logger,
	heartbeat *usecase.Heartbeat,
	signals domrepo.SignalStore,
	trades domrepo.TradeStore,
	registry *venue.Registry,
	cfg *config.Config,
) *OpsEchoHandler {
	return &OpsEchoHandler{
		logger:    logger,
		heartbeat: heartbeat,
		signals:   signals,
		trades:    trades,
		registry:  registry,
		cfg:       cfg,
		startedAt: time.Now().UTC(),
	}
}

func (h *OpsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/status", h.Status)
}

// Health reports liveness of the process and its stores.
func (h *OpsEchoHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()

	checks := map[string]string{
		"signal_store": "ok",
		"trade_store":  "ok",
	}
	healthy := true
	if err := h.signals.Health(ctx); err != nil {
		checks["signal_store"] = err.Error()
		healthy = false
	}
	if err := h.trades.Health(ctx); err != nil {
		checks["trade_store"] = err.Error()
		healthy = false
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]interface{}{
		"status": statusLabel(healthy),
		"checks": checks,
	})
}

// Status returns the bot status snapshot along with venue and config summary.
func (h *OpsEchoHandler) Status(c echo.Context) error {
	ctx := c.Request().Context()

	snap, err := h.heartbeat.Snapshot(ctx)
	if err != nil {
		h.logger.Error("status snapshot failed", xlogger.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "snapshot unavailable",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"environment":     h.cfg.Environment,
		"uptime":          time.Since(h.startedAt).Round(time.Second).String(),
		"auto_trading":    h.cfg.Trading.AutoTrading,
		"blockchains":     h.cfg.Trading.ActiveBlockchains,
		"venues":          h.registry.Names(),
		"disabled_venues": h.registry.DisabledNames(),
		"signals":         snap,
	})
}

func statusLabel(healthy bool) string {
	if healthy {
		return "ok"
	}
	return "degraded"
}
