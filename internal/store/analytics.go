package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/IVsB88/read-later-bot/internal/domain"
)

// Counter columns per action. default_reminder_removed is the compensating
// decrement for a manual choice on a default-scheduled reminder; it is
// floored at zero so counters stay non-negative.
var actionColumns = map[domain.Action]string{
	domain.ActionLinkSaved:         "total_links_saved",
	domain.ActionManualReminder:    "manual_reminder_count",
	domain.ActionDefaultPassive:    "default_passive_count",
	domain.ActionActiveSkip:        "active_skip_count",
	domain.ActionDefaultReminder:   "default_reminder_count",
	domain.ActionSnooze:            "total_snoozes",
	domain.ActionReminderCompleted: "completed_reminders",
	domain.ActionReminderMissed:    "missed_reminders",
}

// applyAction increments one analytics counter for the user inside the
// caller's transaction, lazily creating the row on first use. Actions on the
// completion/missed counters also refresh the derived completion rate.
func applyAction(ctx context.Context, tx *sql.Tx, userID int64, action domain.Action) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_analytics (user_id) VALUES (?)
		ON CONFLICT(user_id) DO NOTHING`,
		userID,
	); err != nil {
		return fmt.Errorf("ensure analytics row: %w", err)
	}

	if action == domain.ActionDefaultReminderRemoved {
		_, err := tx.ExecContext(ctx, `
			UPDATE user_analytics
			SET default_reminder_count = MAX(default_reminder_count - 1, 0)
			WHERE user_id = ?`,
			userID,
		)
		return err
	}

	column, ok := actionColumns[action]
	if !ok {
		return fmt.Errorf("unknown analytics action %q", action)
	}

	// Column names come from the fixed map above, never from input.
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE user_analytics SET %s = %s + 1 WHERE user_id = ?`, column, column),
		userID,
	); err != nil {
		return err
	}

	if action == domain.ActionReminderCompleted || action == domain.ActionReminderMissed {
		_, err := tx.ExecContext(ctx, `
			UPDATE user_analytics
			SET reminder_completion_rate = CAST(completed_reminders AS REAL) /
			    (completed_reminders + missed_reminders)
			WHERE user_id = ? AND completed_reminders + missed_reminders > 0`,
			userID,
		)
		return err
	}
	return nil
}

// RecordAction applies a single analytics increment in its own transaction.
// Store operations that mutate reminder state use applyAction within their
// transaction instead.
func (r *SQLiteRepo) RecordAction(ctx context.Context, userID int64, action domain.Action) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return applyAction(ctx, tx, userID, action)
	})
}

// Analytics returns the user's counters. A missing row is not an error;
// zero counters are returned.
func (r *SQLiteRepo) Analytics(ctx context.Context, telegramID int64) (*domain.UserAnalytics, error) {
	u, err := r.GetUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	a := domain.UserAnalytics{UserID: u.ID}
	err = r.db.QueryRowContext(ctx, `
		SELECT total_links_saved, manual_reminder_count, default_passive_count,
		       active_skip_count, default_reminder_count, total_snoozes,
		       completed_reminders, missed_reminders, reminder_completion_rate
		FROM user_analytics
		WHERE user_id = ?`,
		u.ID,
	).Scan(
		&a.TotalLinksSaved, &a.ManualReminderCount, &a.DefaultPassiveCount,
		&a.ActiveSkipCount, &a.DefaultReminderCount, &a.TotalSnoozes,
		&a.CompletedReminders, &a.MissedReminders, &a.CompletionRate,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return &a, nil
}
