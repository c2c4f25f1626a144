package repository

import (
	"context"
	"time"

	"ChainPulse/internal/domain/models"
	"ChainPulse/internal/domain/repository"
	pkgkafka "ChainPulse/pkg/kafka"
)

// NotifierTopics routes event families to Kafka topics.
type NotifierTopics struct {
	Signals string
	Trades  string
	Status  string
}

// KafkaNotifier implements Notifier by publishing JSON envelopes to Kafka.
// Signal events are keyed by dedup identity, trade events by trade id, so
// per-record ordering survives partitioning.
type KafkaNotifier struct {
	producer *pkgkafka.Producer
	topics   NotifierTopics
}

// NewKafkaNotifier creates a Kafka-backed notifier.
func NewKafkaNotifier(producer *pkgkafka.Producer, topics NotifierTopics) repository.Notifier {
	return &KafkaNotifier{producer: producer, topics: topics}
}

type envelope struct {
	Event   string      `json:"event"`
	At      time.Time   `json:"at"`
	Payload interface{} `json:"payload"`
}

func (n *KafkaNotifier) publish(ctx context.Context, topic, event string, key []byte, payload interface{}) error {
	return n.producer.Publish(ctx, topic, key, envelope{
		Event:   event,
		At:      time.Now().UTC(),
		Payload: payload,
	})
}

func (n *KafkaNotifier) SignalCreated(ctx context.Context, sig *models.Signal) error {
	return n.publish(ctx, n.topics.Signals, "signal_created", []byte(sig.DedupKey()), sig)
}

func (n *KafkaNotifier) SignalFailed(ctx context.Context, sig *models.Signal) error {
	return n.publish(ctx, n.topics.Signals, "signal_failed", []byte(sig.DedupKey()), sig)
}

func (n *KafkaNotifier) TradeOpened(ctx context.Context, t *models.Trade) error {
	return n.publish(ctx, n.topics.Trades, "trade_opened", []byte(t.ID), t)
}

func (n *KafkaNotifier) TradeClosed(ctx context.Context, t *models.Trade) error {
	return n.publish(ctx, n.topics.Trades, "trade_closed", []byte(t.ID), t)
}

func (n *KafkaNotifier) TradeFailed(ctx context.Context, t *models.Trade) error {
	return n.publish(ctx, n.topics.Trades, "trade_failed", []byte(t.ID), t)
}

func (n *KafkaNotifier) StatusSnapshot(ctx context.Context, s *models.StatusSnapshot) error {
	return n.publish(ctx, n.topics.Status, "status_snapshot", nil, s)
}

func (n *KafkaNotifier) BotEvent(ctx context.Context, event string) error {
	return n.publish(ctx, n.topics.Status, event, nil, nil)
}

func (n *KafkaNotifier) Close() error {
	if n.producer != nil {
		return n.producer.Close()
	}
	return nil
}

// NopNotifier discards every event. Used when no notification sink is
// configured.
type NopNotifier struct{}

func (NopNotifier) SignalCreated(context.Context, *models.Signal) error { return nil }
func (NopNotifier) SignalFailed(context.Context, *models.Signal) error  { return nil }
func (NopNotifier) TradeOpened(context.Context, *models.Trade) error    { return nil }
func (NopNotifier) TradeClosed(context.Context, *models.Trade) error    { return nil }
func (NopNotifier) TradeFailed(context.Context, *models.Trade) error    { return nil }
func (NopNotifier) StatusSnapshot(context.Context, *models.StatusSnapshot) error {
	return nil
}
func (NopNotifier) BotEvent(context.Context, string) error { return nil }
func (NopNotifier) Close() error                           { return nil }
