package domain

import "time"

// User is the identity anchor for a Telegram account. The row is created on
// first interaction and never hard-deleted; data erasure removes owned links
// and resets the timezone fields only.
type User struct {
	ID             int64
	TelegramID     int64
	Username       string
	FirstName      string
	TZOffset       string // signed fractional hours from UTC, e.g. "5.5"; "" = unset
	HasSetTimezone bool
	CreatedAt      time.Time // UTC
}

// Link is a saved URL owned by a user. Deleting a link cascades its reminders.
type Link struct {
	ID        int64
	UserID    int64
	URL       string
	IsRead    bool
	CreatedAt time.Time // UTC
}

// ReminderStatus is the lifecycle state of a reminder.
type ReminderStatus string

const (
	StatusPending ReminderStatus = "pending"
	StatusSent    ReminderStatus = "sent"
	StatusMissed  ReminderStatus = "missed"
)

// Reminder is a scheduled notification tied to exactly one link.
//
// Transitions are monotonic forward except snoozing, which returns sent to
// pending with the target time pushed to the next day. Missed is terminal.
type Reminder struct {
	ID             int64
	LinkID         int64
	RemindAt       time.Time // UTC
	IsDefaultTime  bool
	IsSnoozed      bool
	SnoozeCount    int
	Status         ReminderStatus
	LastRemindedAt *time.Time // UTC, nullable
	CreatedAt      time.Time  // UTC
}

// DueReminder is a pending reminder joined with what delivery needs.
type DueReminder struct {
	ReminderID int64
	ChatID     int64
	UserID     int64
	URL        string
	TZOffset   string
}

// UserAnalytics is a write-mostly counter row, one per user, created lazily.
type UserAnalytics struct {
	UserID               int64
	TotalLinksSaved      int
	ManualReminderCount  int
	DefaultPassiveCount  int
	ActiveSkipCount      int
	DefaultReminderCount int
	TotalSnoozes         int
	CompletedReminders   int
	MissedReminders      int
	CompletionRate       float64
}

// Action is a tracked user behavior mapped to one analytics counter.
type Action string

const (
	ActionLinkSaved              Action = "link_saved"
	ActionManualReminder         Action = "manual_reminder"
	ActionDefaultPassive         Action = "default_passive"
	ActionActiveSkip             Action = "active_skip"
	ActionDefaultReminder        Action = "default_reminder"
	ActionDefaultReminderRemoved Action = "default_reminder_removed"
	ActionSnooze                 Action = "snooze"
	ActionReminderCompleted      Action = "reminder_completed"
	ActionReminderMissed         Action = "reminder_missed"
)
