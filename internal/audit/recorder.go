package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Store persists audit records. Implementations are transaction-scoped so
// a failed append aborts the enclosing ledger mutation.
type Store interface {
	LastChainHash(ctx context.Context, table string, recordID uuid.UUID) ([]byte, error)
	Append(ctx context.Context, record Record) error
}

const (
	recordAttempts = 3
	retryDelay     = 25 * time.Millisecond
)

// Recorder writes chain-hashed records through a Store, retrying transient
// storage failures a bounded number of times. It never updates or deletes.
type Recorder struct {
	store Store
	now   func() time.Time
	sleep func(time.Duration)
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now, sleep: time.Sleep}
}

// WithClock overrides time and backoff sources, for tests.
func (r *Recorder) WithClock(now func() time.Time, sleep func(time.Duration)) {
	if now != nil {
		r.now = now
	}
	if sleep != nil {
		r.sleep = sleep
	}
}

// Record fills identity, timestamp and chain hash, then appends. The
// returned error, if any, must abort the caller's transaction; a silent
// gap in the trail is worse than a rolled-back mutation.
func (r *Recorder) Record(ctx context.Context, record Record) error {
	if record.TableName == "" || record.Action == "" {
		return errors.New("audit: record requires table and action")
	}
	record.ID = uuid.New()
	record.OccurredAt = r.now().UTC()

	var lastErr error
	for attempt := 0; attempt < recordAttempts; attempt++ {
		if attempt > 0 {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.sleep(retryDelay << attempt)
		}
		prev, err := r.store.LastChainHash(ctx, record.TableName, record.RecordID)
		if err != nil {
			lastErr = err
			continue
		}
		record.ChainHash = ChainHash(prev, record)
		if err := r.store.Append(ctx, record); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
