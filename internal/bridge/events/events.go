// Package events publishes catalog-change notifications to Redis pub/sub
// (spec.md §9 supplemented feature: multiple am3 bridge nodes, or an
// external fleet controller, can subscribe instead of polling list()).
// Client construction follows redis/client.go's options (dial/read/write
// timeouts, pool sizing) adapted from a keyspace client to a pub/sub one.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channel is the single Redis pub/sub channel am3 publishes catalog change
// notifications to.
const Channel = "am3:events"

// Kind names the catalog change that occurred.
type Kind string

const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
	KindStarted Kind = "started"
	KindStopped Kind = "stopped"
)

// Event is published verbatim as JSON.
type Event struct {
	Kind Kind  `json:"kind"`
	ID   int64 `json:"id"`
}

// Bus wraps a Redis client scoped to catalog-change pub/sub.
type Bus struct {
	client *redis.Client
	log    *zap.Logger
}

// New connects to addr/db, mirroring redis/client.go's Options (dial/read
// /write timeouts, modest pool) and pings once at startup.
func New(log *zap.Logger, addr string, db int) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("bridge_events")

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis connection failed at startup", zap.Error(err), zap.String("addr", addr))
	} else {
		log.Info("redis connection established", zap.String("addr", addr))
	}

	return &Bus{client: client, log: log}
}

// Publish sends ev on Channel. Failures are logged, not returned: a
// notification bus is best-effort by nature — every subscriber can still
// fall back to polling list().
func (b *Bus) Publish(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		b.log.Warn("encode event failed", zap.Error(err))
		return
	}
	if err := b.client.Publish(ctx, Channel, data).Err(); err != nil {
		b.log.Warn("publish event failed", zap.Error(err), zap.String("kind", string(ev.Kind)))
	}
}

// Subscribe returns a channel of decoded Events; it closes when ctx is
// canceled.
func (b *Bus) Subscribe(ctx context.Context) <-chan Event {
	sub := b.client.Subscribe(ctx, Channel)
	out := make(chan Event)

	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.log.Warn("decode event failed", zap.Error(err))
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// Close releases the underlying Redis client.
func (b *Bus) Close() error {
	return b.client.Close()
}
