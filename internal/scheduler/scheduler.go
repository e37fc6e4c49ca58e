package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/IVsB88/read-later-bot/internal/domain"
)

// Store is the slice of the reminder store the sweeps need.
type Store interface {
	DueReminders(ctx context.Context, now time.Time) ([]domain.DueReminder, error)
	MarkSent(ctx context.Context, reminderID int64, at time.Time) error
	StaleReminders(ctx context.Context, cutoff time.Time) ([]int64, error)
	MarkMissed(ctx context.Context, reminderID int64) error
}

// Sender delivers one reminder notification with its snooze affordance.
// The telegram router implements this.
type Sender interface {
	SendReminder(ctx context.Context, chatID, reminderID int64, url string) error
}

// Config holds sweep cadence and delivery budget.
type Config struct {
	DueEvery    time.Duration // due-reminder sweep interval
	MissedAfter time.Duration // staleness threshold for the missed sweep
	SendTimeout time.Duration // per-item delivery budget
	Housekeep   func()        // optional periodic housekeeping (rate limiter GC)
}

// Scheduler drives the two periodic sweeps: the due-reminder sweep on a
// fixed interval and the missed-reminder sweep once a day. Both are
// idempotent; each item is processed in isolation so one failure never
// aborts a batch.
type Scheduler struct {
	store  Store
	sender Sender
	log    *zap.Logger
	cfg    Config
	cron   *cron.Cron
	now    func() time.Time
}

// New creates a Scheduler. Zero config fields get conservative defaults.
func New(store Store, sender Sender, log *zap.Logger, cfg Config) *Scheduler {
	if cfg.DueEvery <= 0 {
		cfg.DueEvery = 5 * time.Minute
	}
	if cfg.MissedAfter <= 0 {
		cfg.MissedAfter = 24 * time.Hour
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	return &Scheduler{
		store:  store,
		sender: sender,
		log:    log,
		cfg:    cfg,
		cron:   cron.New(cron.WithLocation(time.UTC)),
		now:    time.Now,
	}
}

// Start registers the sweeps and blocks until ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) error {
	dueSpec := fmt.Sprintf("@every %s", s.cfg.DueEvery)
	if _, err := s.cron.AddFunc(dueSpec, func() { s.DueSweep(ctx) }); err != nil {
		return fmt.Errorf("add due sweep: %w", err)
	}
	// Missed check once a day, midnight UTC.
	if _, err := s.cron.AddFunc("0 0 * * *", func() { s.MissedSweep(ctx) }); err != nil {
		return fmt.Errorf("add missed sweep: %w", err)
	}
	if s.cfg.Housekeep != nil {
		if _, err := s.cron.AddFunc("@every 10m", s.cfg.Housekeep); err != nil {
			return fmt.Errorf("add housekeeping: %w", err)
		}
	}

	s.cron.Start()
	s.log.Info("scheduler started",
		zap.Duration("due_every", s.cfg.DueEvery),
		zap.Duration("missed_after", s.cfg.MissedAfter),
	)

	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.log.Info("scheduler stopped")
	return nil
}

// DueSweep finds pending reminders whose time has passed and delivers them.
// Deliver-then-commit: MarkSent runs only after a successful send, so a
// failed delivery stays pending and the next sweep is the retry.
func (s *Scheduler) DueSweep(ctx context.Context) {
	now := s.now().UTC()

	due, err := s.store.DueReminders(ctx, now)
	if err != nil {
		s.log.Error("due reminders query failed", zap.Error(err))
		return
	}
	if len(due) == 0 {
		return
	}
	s.log.Info("due sweep", zap.Int("count", len(due)))

	for _, d := range due {
		if err := s.deliver(ctx, d, now); err != nil {
			// Logged and skipped; the rest of the batch still runs.
			s.log.Error("reminder delivery failed",
				zap.Error(err),
				zap.Int64("reminder", d.ReminderID),
				zap.Int64("chat", d.ChatID),
			)
		}
	}
}

func (s *Scheduler) deliver(ctx context.Context, d domain.DueReminder, now time.Time) error {
	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
	defer cancel()

	if err := s.sender.SendReminder(sendCtx, d.ChatID, d.ReminderID, d.URL); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	if err := s.store.MarkSent(ctx, d.ReminderID, now); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

// MissedSweep marks stale, un-snoozed, already-delivered reminders as
// missed. Snoozed reminders are excluded by the store query and again by
// MarkMissed itself.
func (s *Scheduler) MissedSweep(ctx context.Context) {
	cutoff := s.now().UTC().Add(-s.cfg.MissedAfter)

	ids, err := s.store.StaleReminders(ctx, cutoff)
	if err != nil {
		s.log.Error("stale reminders query failed", zap.Error(err))
		return
	}
	if len(ids) == 0 {
		return
	}
	s.log.Info("missed sweep", zap.Int("count", len(ids)))

	for _, id := range ids {
		if err := s.store.MarkMissed(ctx, id); err != nil {
			s.log.Error("mark missed failed", zap.Error(err), zap.Int64("reminder", id))
		}
	}
}
