package redisstore

import (
	"context"
	"encoding/json"

	"routeopt/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const (
	eventDeadLetterKey      = "dlq:events"
	eventDeadLetterCapacity = 10_000
)

// EventDeadLetters keeps the newest exhausted lifecycle events in a capped list.
type EventDeadLetters struct {
	rdb redis.UniversalClient
}

func NewEventDeadLetters(rdb redis.UniversalClient) *EventDeadLetters {
	return &EventDeadLetters{rdb: rdb}
}

func (d *EventDeadLetters) Add(ctx context.Context, entry ports.DeadLetterEvent) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	_, err = d.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, eventDeadLetterKey, raw)
		pipe.LTrim(ctx, eventDeadLetterKey, 0, eventDeadLetterCapacity-1)
		return nil
	})
	return err
}

// List returns up to limit entries, newest first. Entries that no longer
// decode are skipped.
func (d *EventDeadLetters) List(ctx context.Context, limit int64) ([]ports.DeadLetterEvent, error) {
	entries := make([]ports.DeadLetterEvent, 0)
	if limit <= 0 {
		return entries, nil
	}

	raws, err := d.rdb.LRange(ctx, eventDeadLetterKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	for _, raw := range raws {
		var entry ports.DeadLetterEvent
		if json.Unmarshal([]byte(raw), &entry) != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
