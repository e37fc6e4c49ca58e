package store

import (
	"context"
	"time"

	"github.com/IVsB88/read-later-bot/internal/domain"
)

// Repo defines storage operations for users, links, reminders and analytics.
// Every mutating operation runs inside a single transaction: a link is never
// observable without its default reminder, and analytics increments commit
// together with the state change they describe.
type Repo interface {
	EnsureUser(ctx context.Context, telegramID int64, username, firstName string) (*domain.User, error)
	GetUser(ctx context.Context, telegramID int64) (*domain.User, error)
	SetTimezone(ctx context.Context, telegramID int64, offset string) error

	CreateLinkWithReminder(ctx context.Context, telegramID int64, url string, now time.Time) (linkID, reminderID int64, err error)
	ListLinks(ctx context.Context, telegramID int64) ([]domain.Link, error)

	GetReminder(ctx context.Context, reminderID int64) (*domain.Reminder, error)
	RescheduleReminder(ctx context.Context, reminderID int64, at time.Time, isDefault bool) error
	RecordSkip(ctx context.Context, reminderID int64, now time.Time) (time.Time, error)
	RecordManualChoice(ctx context.Context, reminderID int64, days int, now time.Time) (time.Time, error)
	MarkSent(ctx context.Context, reminderID int64, at time.Time) error
	Snooze(ctx context.Context, reminderID int64, now time.Time) (time.Time, error)
	MarkMissed(ctx context.Context, reminderID int64) error

	DueReminders(ctx context.Context, now time.Time) ([]domain.DueReminder, error)
	StaleReminders(ctx context.Context, cutoff time.Time) ([]int64, error)

	DeleteAllUserData(ctx context.Context, telegramID int64) error
	Analytics(ctx context.Context, telegramID int64) (*domain.UserAnalytics, error)
	RecordAction(ctx context.Context, userID int64, action domain.Action) error

	Close() error
}
