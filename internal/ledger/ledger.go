// Package ledger remembers which source items have already been published so
// repeated cycles never publish the same item twice.
package ledger

import (
	"context"
	"errors"
	"time"
)

// TableName is the SQL table and the Redis key suffix every backend uses.
const TableName = "processed_source_items"

var ErrEmptyKey = errors.New("ledger key is empty")

// Record is one processed source item. Never updated; removed only by pruning.
type Record struct {
	Key        string
	Title      string
	RecordedAt time.Time
}

// Ledger is the dedup store. Record is insert-if-absent: recording an existing
// key is a no-op that returns nil.
type Ledger interface {
	IsRecorded(ctx context.Context, key string) (bool, error)
	Record(ctx context.Context, key, title string) error
	// PruneOlderThan removes records with recorded_at < now-age and returns how many went.
	PruneOlderThan(ctx context.Context, age time.Duration) (int64, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}

type Clock func() time.Time

type options struct {
	now Clock
}

type Option func(*options)

// WithClock overrides time.Now for recorded_at and prune cutoffs.
func WithClock(now Clock) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// FilterUnrecorded drops items whose key is already recorded, preserving order.
// The first ledger error aborts the filter.
func FilterUnrecorded[T any](ctx context.Context, l Ledger, items []T, key func(T) string) ([]T, error) {
	fresh := make([]T, 0, len(items))
	for _, item := range items {
		recorded, err := l.IsRecorded(ctx, key(item))
		if err != nil {
			return nil, err
		}
		if !recorded {
			fresh = append(fresh, item)
		}
	}
	return fresh, nil
}
