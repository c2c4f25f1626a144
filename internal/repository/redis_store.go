package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"ChainPulse/internal/domain/models"
	"ChainPulse/internal/domain/repository"
	pkgredis "ChainPulse/pkg/redis"
	"ChainPulse/pkg/util"
)

// transitionScript performs a conditional status move: the hash must still
// hold the expected status, then the record hops between status index sets.
// KEYS[1] record hash, KEYS[2] from-index zset, KEYS[3] to-index zset.
// ARGV[1] expected status, ARGV[2] new status, ARGV[3] record id.
var transitionScript = goredis.NewScript(`
local st = redis.call('HGET', KEYS[1], 'status')
if st ~= ARGV[1] then
  return 0
end
redis.call('HSET', KEYS[1], 'status', ARGV[2])
redis.call('ZREM', KEYS[2], ARGV[3])
local score = redis.call('HGET', KEYS[1], 'created_ts')
redis.call('ZADD', KEYS[3], score, ARGV[3])
return 1
`)

// incrFieldScript bumps a counter field only while the record still holds
// the guarding status. Returns -1 when the guard fails.
// KEYS[1] record hash. ARGV[1] guarding status, ARGV[2] counter field.
var incrFieldScript = goredis.NewScript(`
local st = redis.call('HGET', KEYS[1], 'status')
if st ~= ARGV[1] then
  return -1
end
return redis.call('HINCRBY', KEYS[1], ARGV[2], 1)
`)

// closeTradeScript transitions open -> closed and writes the exit fields in
// the same atomic step.
// KEYS[1] trade hash, KEYS[2] open zset, KEYS[3] closed zset.
// ARGV[1] trade id, ARGV[2] exit price, ARGV[3] profit, ARGV[4] closed at.
var closeTradeScript = goredis.NewScript(`
local st = redis.call('HGET', KEYS[1], 'status')
if st ~= 'open' then
  return 0
end
redis.call('HSET', KEYS[1],
  'status', 'closed',
  'exit_price', ARGV[2],
  'profit', ARGV[3],
  'closed_at', ARGV[4])
redis.call('ZREM', KEYS[2], ARGV[1])
local score = redis.call('HGET', KEYS[1], 'created_ts')
redis.call('ZADD', KEYS[3], score, ARGV[1])
return 1
`)

// RedisSignalStore implements SignalStore on Redis. Each signal is a hash,
// indexed per status by a sorted set scored with the creation timestamp so
// pending reads come back in ascending creation order.
type RedisSignalStore struct {
	client *pkgredis.Client
}

// NewRedisSignalStore creates a Redis-backed signal store.
func NewRedisSignalStore(client *pkgredis.Client) repository.SignalStore {
	return &RedisSignalStore{client: client}
}

func (s *RedisSignalStore) key(id string) string {
	return s.client.Key("signal", id)
}

func (s *RedisSignalStore) statusKey(st models.SignalStatus) string {
	return s.client.Key("signals", "status", string(st))
}

func (s *RedisSignalStore) Reserve(ctx context.Context, dedupKey, signalID string) (bool, error) {
	ok, err := s.client.Redis().SetNX(ctx, s.client.Key("signal", "dedup", dedupKey), signalID, 0).Result()
	if err != nil {
		return false, fmt.Errorf("reserve signal: %w", err)
	}
	return ok, nil
}

func (s *RedisSignalStore) Create(ctx context.Context, sig *models.Signal) error {
	pipe := s.client.Redis().TxPipeline()
	pipe.HSet(ctx, s.key(sig.ID), signalToMap(sig))
	pipe.ZAdd(ctx, s.statusKey(sig.Status), goredis.Z{
		Score:  float64(sig.CreatedAt.UnixNano()),
		Member: sig.ID,
	})
	pipe.Incr(ctx, s.client.Key("signals", "count"))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create signal: %w", err)
	}
	return nil
}

func (s *RedisSignalStore) Pending(ctx context.Context, limit int) ([]*models.Signal, error) {
	ids, err := s.client.Redis().ZRange(ctx, s.statusKey(models.SignalPending), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("pending signals: %w", err)
	}

	signals := make([]*models.Signal, 0, len(ids))
	for _, id := range ids {
		fields, err := s.client.Redis().HGetAll(ctx, s.key(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("load signal %s: %w", id, err)
		}
		if len(fields) == 0 {
			continue
		}
		signals = append(signals, signalFromMap(fields))
	}
	return signals, nil
}

func (s *RedisSignalStore) Transition(ctx context.Context, id string, from, to models.SignalStatus) (bool, error) {
	res, err := transitionScript.Run(ctx, s.client.Redis(),
		[]string{s.key(id), s.statusKey(from), s.statusKey(to)},
		string(from), string(to), id).Int()
	if err != nil {
		return false, fmt.Errorf("transition signal %s: %w", id, err)
	}
	return res == 1, nil
}

func (s *RedisSignalStore) IncrementAttempts(ctx context.Context, id string) (int, error) {
	res, err := incrFieldScript.Run(ctx, s.client.Redis(),
		[]string{s.key(id)},
		string(models.SignalPending), "attempts").Int()
	if err != nil {
		return 0, fmt.Errorf("increment attempts %s: %w", id, err)
	}
	if res < 0 {
		return 0, repository.ErrNotFound
	}
	return res, nil
}

func (s *RedisSignalStore) Count(ctx context.Context) (int64, error) {
	n, err := s.client.Redis().Get(ctx, s.client.Key("signals", "count")).Int64()
	if err == goredis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count signals: %w", err)
	}
	return n, nil
}

func (s *RedisSignalStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *RedisSignalStore) Close() error {
	return nil // connection owned by pkg/redis client
}

// RedisTradeStore implements TradeStore on Redis with the same hash plus
// status-index layout as the signal store.
type RedisTradeStore struct {
	client *pkgredis.Client
}

// NewRedisTradeStore creates a Redis-backed trade store.
func NewRedisTradeStore(client *pkgredis.Client) repository.TradeStore {
	return &RedisTradeStore{client: client}
}

func (s *RedisTradeStore) key(id string) string {
	return s.client.Key("trade", id)
}

func (s *RedisTradeStore) statusKey(st models.TradeStatus) string {
	return s.client.Key("trades", "status", string(st))
}

func (s *RedisTradeStore) Create(ctx context.Context, t *models.Trade) error {
	pipe := s.client.Redis().TxPipeline()
	pipe.HSet(ctx, s.key(t.ID), tradeToMap(t))
	pipe.ZAdd(ctx, s.statusKey(t.Status), goredis.Z{
		Score:  float64(t.CreatedAt.UnixNano()),
		Member: t.ID,
	})
	pipe.Incr(ctx, s.client.Key("trades", "count"))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create trade: %w", err)
	}
	return nil
}

func (s *RedisTradeStore) Open(ctx context.Context, limit int) ([]*models.Trade, error) {
	ids, err := s.client.Redis().ZRange(ctx, s.statusKey(models.TradeOpen), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("open trades: %w", err)
	}

	trades := make([]*models.Trade, 0, len(ids))
	for _, id := range ids {
		fields, err := s.client.Redis().HGetAll(ctx, s.key(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("load trade %s: %w", id, err)
		}
		if len(fields) == 0 {
			continue
		}
		trades = append(trades, tradeFromMap(fields))
	}
	return trades, nil
}

func (s *RedisTradeStore) CloseTrade(ctx context.Context, id string, exitPrice, profit float64) (bool, error) {
	res, err := closeTradeScript.Run(ctx, s.client.Redis(),
		[]string{s.key(id), s.statusKey(models.TradeOpen), s.statusKey(models.TradeClosed)},
		id,
		strconv.FormatFloat(exitPrice, 'f', -1, 64),
		strconv.FormatFloat(profit, 'f', -1, 64),
		time.Now().UTC().Format(time.RFC3339Nano)).Int()
	if err != nil {
		return false, fmt.Errorf("close trade %s: %w", id, err)
	}
	return res == 1, nil
}

func (s *RedisTradeStore) Transition(ctx context.Context, id string, from, to models.TradeStatus) (bool, error) {
	res, err := transitionScript.Run(ctx, s.client.Redis(),
		[]string{s.key(id), s.statusKey(from), s.statusKey(to)},
		string(from), string(to), id).Int()
	if err != nil {
		return false, fmt.Errorf("transition trade %s: %w", id, err)
	}
	return res == 1, nil
}

func (s *RedisTradeStore) IncrementCloseAttempts(ctx context.Context, id string) (int, error) {
	res, err := incrFieldScript.Run(ctx, s.client.Redis(),
		[]string{s.key(id)},
		string(models.TradeOpen), "close_attempts").Int()
	if err != nil {
		return 0, fmt.Errorf("increment close attempts %s: %w", id, err)
	}
	if res < 0 {
		return 0, repository.ErrNotFound
	}
	return res, nil
}

func (s *RedisTradeStore) Count(ctx context.Context) (int64, error) {
	n, err := s.client.Redis().Get(ctx, s.client.Key("trades", "count")).Int64()
	if err == goredis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count trades: %w", err)
	}
	return n, nil
}

func (s *RedisTradeStore) CountOpen(ctx context.Context) (int64, error) {
	n, err := s.client.Redis().ZCard(ctx, s.statusKey(models.TradeOpen)).Result()
	if err != nil {
		return 0, fmt.Errorf("count open trades: %w", err)
	}
	return n, nil
}

func (s *RedisTradeStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *RedisTradeStore) Close() error {
	return nil // connection owned by pkg/redis client
}

func signalToMap(sig *models.Signal) map[string]interface{} {
	return map[string]interface{}{
		"id":            sig.ID,
		"blockchain":    sig.Blockchain,
		"token_address": sig.TokenAddress,
		"token_symbol":  sig.TokenSymbol,
		"event_kind":    string(sig.EventKind),
		"price":         strconv.FormatFloat(sig.Price, 'f', -1, 64),
		"liquidity":     strconv.FormatFloat(sig.Liquidity, 'f', -1, 64),
		"volume_24h":    strconv.FormatFloat(sig.Volume24h, 'f', -1, 64),
		"spread":        strconv.FormatFloat(sig.Spread, 'f', -1, 64),
		"attempts":      strconv.Itoa(sig.Attempts),
		"status":        string(sig.Status),
		"created_at":    sig.CreatedAt.UTC().Format(time.RFC3339Nano),
		"created_ts":    strconv.FormatInt(sig.CreatedAt.UnixNano(), 10),
	}
}

func signalFromMap(fields map[string]string) *models.Signal {
	createdAt, _ := time.Parse(time.RFC3339Nano, fields["created_at"])
	return &models.Signal{
		ID:           fields["id"],
		Blockchain:   fields["blockchain"],
		TokenAddress: fields["token_address"],
		TokenSymbol:  fields["token_symbol"],
		EventKind:    models.EventKind(fields["event_kind"]),
		Price:        util.ParseFloatDefault(fields["price"], 0),
		Liquidity:    util.ParseFloatDefault(fields["liquidity"], 0),
		Volume24h:    util.ParseFloatDefault(fields["volume_24h"], 0),
		Spread:       util.ParseFloatDefault(fields["spread"], 0),
		Attempts:     util.ParseIntDefault(fields["attempts"], 0),
		Status:       models.SignalStatus(fields["status"]),
		CreatedAt:    createdAt,
	}
}

func tradeToMap(t *models.Trade) map[string]interface{} {
	m := map[string]interface{}{
		"id":             t.ID,
		"signal_id":      t.SignalID,
		"venue":          t.Venue,
		"symbol":         t.Symbol,
		"side":           t.Side,
		"entry_price":    strconv.FormatFloat(t.EntryPrice, 'f', -1, 64),
		"amount":         strconv.FormatFloat(t.Amount, 'f', -1, 64),
		"spread":         strconv.FormatFloat(t.Spread, 'f', -1, 64),
		"close_attempts": strconv.Itoa(t.CloseAttempts),
		"status":         string(t.Status),
		"created_at":     t.CreatedAt.UTC().Format(time.RFC3339Nano),
		"created_ts":     strconv.FormatInt(t.CreatedAt.UnixNano(), 10),
	}
	if !t.ClosedAt.IsZero() {
		m["exit_price"] = strconv.FormatFloat(t.ExitPrice, 'f', -1, 64)
		m["profit"] = strconv.FormatFloat(t.Profit, 'f', -1, 64)
		m["closed_at"] = t.ClosedAt.UTC().Format(time.RFC3339Nano)
	}
	return m
}

func tradeFromMap(fields map[string]string) *models.Trade {
	createdAt, _ := time.Parse(time.RFC3339Nano, fields["created_at"])
	t := &models.Trade{
		ID:            fields["id"],
		SignalID:      fields["signal_id"],
		Venue:         fields["venue"],
		Symbol:        fields["symbol"],
		Side:          fields["side"],
		EntryPrice:    util.ParseFloatDefault(fields["entry_price"], 0),
		ExitPrice:     util.ParseFloatDefault(fields["exit_price"], 0),
		Amount:        util.ParseFloatDefault(fields["amount"], 0),
		Spread:        util.ParseFloatDefault(fields["spread"], 0),
		Profit:        util.ParseFloatDefault(fields["profit"], 0),
		CloseAttempts: util.ParseIntDefault(fields["close_attempts"], 0),
		Status:        models.TradeStatus(fields["status"]),
		CreatedAt:     createdAt,
	}
	if v, ok := fields["closed_at"]; ok {
		t.ClosedAt, _ = time.Parse(time.RFC3339Nano, v)
	}
	return t
}
