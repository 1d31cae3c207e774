// Package redis provides Redis-backed adapters: a shared location transport
// and a distributed locker.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/arbor/pkg/codec"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "arbor:location:"

// Transport implements ports.LocationTransport on Redis.
// The serialized location lives under a single key so several processes can
// share it. Changes are published on a channel; Listen relays changes made by
// other instances to local observers.
type Transport struct {
	client     *backend.Client
	prefix     string
	ttl        time.Duration
	maxHistory int64
	instanceID string
	logger     *slog.Logger

	mu        sync.Mutex
	observers map[int]ports.LocationObserver
	nextID    int
}

var _ ports.LocationTransport = (*Transport)(nil)

// Option configures a Transport.
type Option func(*Transport)

// WithTTL sets the expiration of the stored location.
func WithTTL(ttl time.Duration) Option {
	return func(t *Transport) {
		t.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(t *Transport) {
		t.prefix = prefix
	}
}

// WithMaxHistory bounds the history list (default 50).
func WithMaxHistory(n int64) Option {
	return func(t *Transport) {
		t.maxHistory = n
	}
}

// WithLogger sets the logger used by Listen (default: slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// New creates a Redis transport with its own client.
func New(address, password string, db int, opts ...Option) *Transport {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis transport from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Transport {
	t := &Transport{
		client:     client,
		prefix:     defaultPrefix,
		maxHistory: 50,
		instanceID: uuid.NewString(),
		logger:     slog.Default(),
		observers:  make(map[int]ports.LocationObserver),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transport) key() string        { return t.prefix + "current" }
func (t *Transport) historyKey() string { return t.prefix + "history" }
func (t *Transport) channel() string    { return t.prefix + "events" }

type message struct {
	Origin   string `json:"origin"`
	Location string `json:"location"`
}

// Location reads the current location. A missing key reads as "/".
func (t *Transport) Location(ctx context.Context) (domain.Location, error) {
	serialized, err := t.current(ctx)
	if err != nil {
		return domain.Location{}, err
	}
	return codec.Deserialize(serialized), nil
}

func (t *Transport) current(ctx context.Context) (string, error) {
	val, err := t.client.Get(ctx, t.key()).Result()
	if err != nil {
		if err == backend.Nil {
			return "/", nil
		}
		return "", fmt.Errorf("failed to get location from redis: %w", err)
	}
	return val, nil
}

// SetState serializes loc against the stored location, saves it, records it
// in history and publishes it.
func (t *Transport) SetState(ctx context.Context, loc domain.Location) error {
	serialized, err := t.current(ctx)
	if err != nil {
		return err
	}
	prev := codec.Deserialize(serialized)
	next := codec.Serialize(loc, &prev)

	payload, err := json.Marshal(message{Origin: t.instanceID, Location: next})
	if err != nil {
		return fmt.Errorf("failed to marshal location event: %w", err)
	}

	pipe := t.client.Pipeline()
	pipe.Set(ctx, t.key(), next, t.ttl)
	if loc.Options.ReplaceLocation {
		// LSET fails on an empty list, so replace by popping then pushing.
		pipe.RPop(ctx, t.historyKey())
	}
	pipe.RPush(ctx, t.historyKey(), next)
	if t.maxHistory > 0 {
		pipe.LTrim(ctx, t.historyKey(), -t.maxHistory, -1)
	}
	pipe.Publish(ctx, t.channel(), payload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save location to redis: %w", err)
	}

	t.notify(next)
	return nil
}

// History returns the recorded locations, oldest first.
func (t *Transport) History(ctx context.Context) ([]string, error) {
	entries, err := t.client.LRange(ctx, t.historyKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read location history: %w", err)
	}
	return entries, nil
}

// Subscribe registers a local observer.
func (t *Transport) Subscribe(fn ports.LocationObserver) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	t.observers[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.observers, id)
	}
}

// Listen relays locations published by other instances to local observers
// until ctx is done. The ready channel, if not nil, is closed once the
// subscription is active.
func (t *Transport) Listen(ctx context.Context, ready chan<- struct{}) error {
	sub := t.client.Subscribe(ctx, t.channel())
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", t.channel(), err)
	}
	if ready != nil {
		close(ready)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var m message
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				t.logger.Warn("Ignoring malformed location event", "channel", msg.Channel, "err", err)
				continue
			}
			if m.Origin == t.instanceID {
				continue
			}
			t.notify(m.Location)
		}
	}
}

func (t *Transport) notify(serialized string) {
	t.mu.Lock()
	observers := make([]ports.LocationObserver, 0, len(t.observers))
	for i := 0; i < t.nextID; i++ {
		if fn, ok := t.observers[i]; ok {
			observers = append(observers, fn)
		}
	}
	t.mu.Unlock()

	for _, fn := range observers {
		fn(codec.Deserialize(serialized))
	}
}

// Close closes the redis client.
func (t *Transport) Close() error {
	return t.client.Close()
}
