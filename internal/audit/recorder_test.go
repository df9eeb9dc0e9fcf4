package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type flakyStore struct {
	records      []Record
	failAppends  int
	failLastHash int
	appendCalls  int
}

func (s *flakyStore) LastChainHash(ctx context.Context, table string, recordID uuid.UUID) ([]byte, error) {
	if s.failLastHash > 0 {
		s.failLastHash--
		return nil, errors.New("store: transient read failure")
	}
	var last []byte
	for _, r := range s.records {
		if r.TableName == table && r.RecordID == recordID {
			last = r.ChainHash
		}
	}
	return last, nil
}

func (s *flakyStore) Append(ctx context.Context, r Record) error {
	s.appendCalls++
	if s.failAppends > 0 {
		s.failAppends--
		return errors.New("store: transient write failure")
	}
	s.records = append(s.records, r)
	return nil
}

func newTestRecorder(store Store) *Recorder {
	r := NewRecorder(store)
	clock := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	r.WithClock(func() time.Time { return clock }, func(time.Duration) {})
	return r
}

func TestRecorderLinksSuccessiveRecords(t *testing.T) {
	store := &flakyStore{}
	rec := newTestRecorder(store)
	recordID := uuid.New()

	for _, action := range []string{ActionCreate, ActionSubmit, ActionPost} {
		err := rec.Record(context.Background(), Record{
			TableName: "journal_entries",
			RecordID:  recordID,
			Action:    action,
			ActorID:   uuid.New(),
		})
		require.NoError(t, err)
	}

	require.Len(t, store.records, 3)
	require.NoError(t, VerifyChain(store.records))
}

func TestRecorderRetriesTransientFailures(t *testing.T) {
	store := &flakyStore{failAppends: 2}
	rec := newTestRecorder(store)

	err := rec.Record(context.Background(), Record{
		TableName: "journal_entries",
		RecordID:  uuid.New(),
		Action:    ActionCreate,
		ActorID:   uuid.New(),
	})
	require.NoError(t, err)
	require.Equal(t, 3, store.appendCalls)
	require.Len(t, store.records, 1)
}

func TestRecorderGivesUpAfterBoundedAttempts(t *testing.T) {
	store := &flakyStore{failAppends: 10}
	rec := newTestRecorder(store)

	err := rec.Record(context.Background(), Record{
		TableName: "journal_entries",
		RecordID:  uuid.New(),
		Action:    ActionCreate,
		ActorID:   uuid.New(),
	})
	require.Error(t, err)
	require.Equal(t, 3, store.appendCalls)
	require.Empty(t, store.records)
}

func TestRecorderRetriesReadFailures(t *testing.T) {
	store := &flakyStore{failLastHash: 1}
	rec := newTestRecorder(store)

	err := rec.Record(context.Background(), Record{
		TableName: "journal_entries",
		RecordID:  uuid.New(),
		Action:    ActionCreate,
		ActorID:   uuid.New(),
	})
	require.NoError(t, err)
	require.Len(t, store.records, 1)
}

func TestRecorderRejectsIncompleteRecords(t *testing.T) {
	rec := newTestRecorder(&flakyStore{})
	err := rec.Record(context.Background(), Record{RecordID: uuid.New()})
	require.Error(t, err)
}

func TestRecorderHonorsCancelledContext(t *testing.T) {
	store := &flakyStore{failAppends: 1}
	rec := newTestRecorder(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := rec.Record(ctx, Record{
		TableName: "journal_entries",
		RecordID:  uuid.New(),
		Action:    ActionCreate,
		ActorID:   uuid.New(),
	})
	require.ErrorIs(t, err, context.Canceled)
}
