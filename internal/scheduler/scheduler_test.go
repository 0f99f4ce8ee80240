package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/model"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seed(t *testing.T, store *repository.Memory, id string, status model.EventStatus, date time.Time) {
	t.Helper()
	err := store.WithTx(context.Background(), func(tx repository.Tx) error {
		return tx.InsertEvent(context.Background(), &model.Event{
			ID: id, Slug: id, Status: status, EventDate: date,
			TotalSeats: 10, AvailableSeats: 10,
		})
	})
	require.NoError(t, err)
}

func TestSweepCompletesPastApprovedEvents(t *testing.T) {
	store := repository.NewMemory()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seed(t, store, "past-approved", model.EventApproved, now.Add(-24*time.Hour))
	seed(t, store, "past-pending", model.EventPending, now.Add(-24*time.Hour))
	seed(t, store, "future-approved", model.EventApproved, now.Add(24*time.Hour))
	require.NoError(t, store.WithTx(context.Background(), func(tx repository.Tx) error {
		return tx.InsertEvent(context.Background(), &model.Event{
			ID: "tonight", Slug: "tonight", Status: model.EventApproved,
			EventDate: now.Truncate(24 * time.Hour), EventTime: "20:00",
			TotalSeats: 10, AvailableSeats: 10,
		})
	}))

	s := NewSweeper(store, discard())
	s.now = func() time.Time { return now }
	require.NoError(t, s.Sweep(context.Background()))

	ctx := context.Background()
	for id, want := range map[string]model.EventStatus{
		"past-approved":   model.EventCompleted,
		"past-pending":    model.EventPending,
		"future-approved": model.EventApproved,
		"tonight":         model.EventApproved,
	} {
		e, err := store.GetEvent(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, e.Status, id)
	}
}

type failingStore struct{ calls atomic.Int32 }

func (f *failingStore) CompletePastEvents(context.Context, time.Time) (int64, int64, error) {
	f.calls.Add(1)
	return 0, 0, errors.New("database unavailable")
}

func TestSweepWrapsStoreError(t *testing.T) {
	s := NewSweeper(&failingStore{}, discard())
	err := s.Sweep(context.Background())
	assert.ErrorContains(t, err, "database unavailable")
}

func TestStartRunsImmediately(t *testing.T) {
	store := &failingStore{}
	sched, err := NewSweeper(store, discard()).Start(time.Hour)
	require.NoError(t, err)
	defer func() { _ = sched.Shutdown() }()

	assert.Eventually(t, func() bool { return store.calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
}
