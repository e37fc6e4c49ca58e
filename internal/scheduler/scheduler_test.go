package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/IVsB88/read-later-bot/internal/domain"
)

type fakeStore struct {
	due       []domain.DueReminder
	dueErr    error
	stale     []int64
	sent      []int64
	sentErr   map[int64]error
	missed    []int64
	missedErr map[int64]error
}

func (f *fakeStore) DueReminders(_ context.Context, _ time.Time) ([]domain.DueReminder, error) {
	return f.due, f.dueErr
}

func (f *fakeStore) MarkSent(_ context.Context, id int64, _ time.Time) error {
	if err := f.sentErr[id]; err != nil {
		return err
	}
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeStore) StaleReminders(_ context.Context, _ time.Time) ([]int64, error) {
	return f.stale, nil
}

func (f *fakeStore) MarkMissed(_ context.Context, id int64) error {
	if err := f.missedErr[id]; err != nil {
		return err
	}
	f.missed = append(f.missed, id)
	return nil
}

type fakeSender struct {
	failFor map[int64]error // reminderID -> error
	sent    []int64
}

func (f *fakeSender) SendReminder(_ context.Context, _ int64, reminderID int64, _ string) error {
	if err := f.failFor[reminderID]; err != nil {
		return err
	}
	f.sent = append(f.sent, reminderID)
	return nil
}

func newTestScheduler(store *fakeStore, sender *fakeSender) *Scheduler {
	return New(store, sender, zap.NewNop(), Config{
		DueEvery:    5 * time.Minute,
		MissedAfter: 24 * time.Hour,
		SendTimeout: time.Second,
	})
}

func TestDueSweep_DeliversAndMarksSent(t *testing.T) {
	store := &fakeStore{
		due: []domain.DueReminder{
			{ReminderID: 1, ChatID: 10, URL: "https://example.com/a"},
			{ReminderID: 2, ChatID: 20, URL: "https://example.com/b"},
		},
	}
	sender := &fakeSender{}
	s := newTestScheduler(store, sender)

	s.DueSweep(context.Background())

	if len(sender.sent) != 2 {
		t.Fatalf("want 2 deliveries, got %d", len(sender.sent))
	}
	if len(store.sent) != 2 {
		t.Fatalf("want 2 mark-sent calls, got %d", len(store.sent))
	}
}

func TestDueSweep_FailureDoesNotBlockBatch(t *testing.T) {
	store := &fakeStore{
		due: []domain.DueReminder{
			{ReminderID: 1, ChatID: 10, URL: "https://example.com/a"},
			{ReminderID: 2, ChatID: 20, URL: "https://example.com/b"},
			{ReminderID: 3, ChatID: 30, URL: "https://example.com/c"},
		},
	}
	sender := &fakeSender{failFor: map[int64]error{2: errors.New("network down")}}
	s := newTestScheduler(store, sender)

	s.DueSweep(context.Background())

	// 1 and 3 delivered and committed; 2 stays pending for the next sweep.
	if len(store.sent) != 2 || store.sent[0] != 1 || store.sent[1] != 3 {
		t.Fatalf("want mark-sent for [1 3], got %v", store.sent)
	}
	for _, id := range store.sent {
		if id == 2 {
			t.Fatal("failed delivery was marked sent")
		}
	}
}

func TestDueSweep_MarkSentFailureIsolated(t *testing.T) {
	store := &fakeStore{
		due: []domain.DueReminder{
			{ReminderID: 1, ChatID: 10, URL: "https://example.com/a"},
			{ReminderID: 2, ChatID: 20, URL: "https://example.com/b"},
		},
		sentErr: map[int64]error{1: errors.New("db locked")},
	}
	sender := &fakeSender{}
	s := newTestScheduler(store, sender)

	s.DueSweep(context.Background())

	if len(store.sent) != 1 || store.sent[0] != 2 {
		t.Fatalf("want mark-sent for [2], got %v", store.sent)
	}
}

func TestMissedSweep_PerItemIsolation(t *testing.T) {
	store := &fakeStore{
		stale:     []int64{1, 2, 3},
		missedErr: map[int64]error{2: errors.New("db locked")},
	}
	s := newTestScheduler(store, &fakeSender{})

	s.MissedSweep(context.Background())

	if len(store.missed) != 2 || store.missed[0] != 1 || store.missed[1] != 3 {
		t.Fatalf("want mark-missed for [1 3], got %v", store.missed)
	}
}

func TestDueSweep_QueryErrorAbortsQuietly(t *testing.T) {
	store := &fakeStore{dueErr: errors.New("db gone")}
	sender := &fakeSender{}
	s := newTestScheduler(store, sender)

	s.DueSweep(context.Background())

	if len(sender.sent) != 0 {
		t.Fatalf("deliveries attempted after query failure: %v", sender.sent)
	}
}
