// Package redisdriver implements persistence.Driver on top of Redis
// Streams, adapted from the teacher's infra/redis single-node/sentinel
// client construction.
package redisdriver

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/phuhao00/actorcore/config"
	"github.com/phuhao00/actorcore/persistence"
)

// Driver journals events as Redis stream entries, one stream per actor.
type Driver struct {
	client *redis.Client
	prefix string
}

// New connects to Redis the same way infra/redis does: Sentinel if
// MasterName and SentinelAddrs are set, otherwise a single-node client.
func New(cfg config.RedisConfig) (*Driver, error) {
	var client *redis.Client
	switch {
	case cfg.MasterName != "" && len(cfg.SentinelAddrs) > 0:
		client = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    cfg.MasterName,
			SentinelAddrs: cfg.SentinelAddrs,
			Password:      cfg.Password,
			DB:            cfg.DB,
		})
	case cfg.Addr != "":
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	default:
		return nil, fmt.Errorf("redisdriver: neither sentinel nor single-node addr configured")
	}
	prefix := cfg.Stream
	if prefix == "" {
		prefix = "actorcore:events"
	}
	return &Driver{client: client, prefix: prefix}, nil
}

func (d *Driver) streamKey(actorID persistence.ActorID) string {
	return d.prefix + ":" + actorID.String()
}

func (d *Driver) Persist(ctx context.Context, actorID persistence.ActorID, event proto.Message) (persistence.Ack, error) {
	wrapped, err := anypb.New(event)
	if err != nil {
		return persistence.Ack{}, fmt.Errorf("redisdriver: wrapping event: %w", err)
	}
	payload, err := proto.Marshal(wrapped)
	if err != nil {
		return persistence.Ack{}, fmt.Errorf("redisdriver: marshaling event: %w", err)
	}
	id, err := d.client.XAdd(ctx, &redis.XAddArgs{
		Stream: d.streamKey(actorID),
		Values: map[string]interface{}{"payload": payload},
	}).Result()
	if err != nil {
		return persistence.Ack{}, fmt.Errorf("redisdriver: XADD: %w", err)
	}
	return persistence.Ack{Sequence: parseStreamSequence(id), StoredAt: time.Now()}, nil
}

func (d *Driver) Recover(ctx context.Context, actorID persistence.ActorID) (persistence.EventStream, error) {
	entries, err := d.client.XRange(ctx, d.streamKey(actorID), "-", "+").Result()
	if err != nil {
		return nil, fmt.Errorf("redisdriver: XRANGE: %w", err)
	}
	out := make(chan persistence.Event, len(entries))
	go func() {
		defer close(out)
		for i, entry := range entries {
			raw, ok := entry.Values["payload"].(string)
			if !ok {
				continue
			}
			var wrapped anypb.Any
			if err := proto.Unmarshal([]byte(raw), &wrapped); err != nil {
				continue
			}
			out <- persistence.Event{
				ActorID:  actorID,
				Sequence: int64(i + 1),
				Payload:  &wrapped,
				StoredAt: time.Now(),
			}
		}
	}()
	return persistence.EventStream(out), nil
}

func (d *Driver) Close() error {
	return d.client.Close()
}

// parseStreamSequence extracts the millisecond counter out of a Redis
// stream ID ("<ms>-<seq>"), falling back to 0 if it doesn't parse.
func parseStreamSequence(id string) int64 {
	for i := 0; i < len(id); i++ {
		if id[i] == '-' {
			n, _ := strconv.ParseInt(id[:i], 10, 64)
			return n
		}
	}
	n, _ := strconv.ParseInt(id, 10, 64)
	return n
}
