package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/IVsB88/read-later-bot/internal/domain"
)

// SQLiteRepo implements Repo on an embedded SQLite database.
type SQLiteRepo struct {
	db          *sql.DB
	defaultHour int // local wall-clock hour for default reminders
}

// OpenSQLite opens (or creates) the database at the given path, applies
// recommended PRAGMAs, runs migrations, and returns a repository.
// defaultHour is the "9 AM local" hour used for default reminder times.
func OpenSQLite(ctx context.Context, path string, defaultHour int) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite is a single-writer engine; one connection avoids SQLITE_BUSY
	// between the sweeps and the foreground handlers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db, defaultHour: defaultHour}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// withTx runs fn inside a transaction. Any error rolls back every change
// made within the operation; callers observe full success or full failure.
func (r *SQLiteRepo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// --- Users ---

// EnsureUser returns the user for telegramID, creating the row on first
// interaction. Username and first name are refreshed on every call.
func (r *SQLiteRepo) EnsureUser(ctx context.Context, telegramID int64, username, firstName string) (*domain.User, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (telegram_id, username, first_name, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(telegram_id) DO UPDATE SET
				username   = excluded.username,
				first_name = excluded.first_name`,
			telegramID, username, firstName, time.Now().UTC().Unix(),
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.GetUser(ctx, telegramID)
}

// GetUser returns a user by telegram id or domain.ErrNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, telegramID int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, telegram_id, username, first_name,
		       COALESCE(tz_offset, ''), has_set_timezone, created_at
		FROM users
		WHERE telegram_id = ?`,
		telegramID,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u         domain.User
		hasTZ     int
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.TZOffset, &hasTZ, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u.HasSetTimezone = hasTZ != 0
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

// SetTimezone stores a validated fixed offset for the user.
func (r *SQLiteRepo) SetTimezone(ctx context.Context, telegramID int64, offset string) error {
	canonical, err := domain.ValidateOffset(offset)
	if err != nil {
		return err
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE users SET tz_offset = ?, has_set_timezone = 1
			WHERE telegram_id = ?`,
			canonical, telegramID,
		)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// --- Links ---

// CreateLinkWithReminder persists a link together with its default reminder
// ("tomorrow at 9 AM local") and the accompanying analytics increments, all
// in one transaction.
func (r *SQLiteRepo) CreateLinkWithReminder(ctx context.Context, telegramID int64, url string, now time.Time) (int64, int64, error) {
	if err := domain.ValidateURL(url); err != nil {
		return 0, 0, err
	}

	var linkID, reminderID int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var userID int64
		var tzOffset string
		err := tx.QueryRowContext(ctx,
			`SELECT id, COALESCE(tz_offset, '') FROM users WHERE telegram_id = ?`,
			telegramID,
		).Scan(&userID, &tzOffset)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO links (user_id, url, created_at) VALUES (?, ?, ?)`,
			userID, url, now.UTC().Unix(),
		)
		if err != nil {
			return fmt.Errorf("insert link: %w", err)
		}
		linkID, err = res.LastInsertId()
		if err != nil {
			return err
		}

		remindAt := domain.NextDefaultRemindAt(now.UTC(), tzOffset, r.defaultHour)
		res, err = tx.ExecContext(ctx, `
			INSERT INTO reminders (link_id, remind_at, is_default_time, status, created_at)
			VALUES (?, ?, 1, ?, ?)`,
			linkID, remindAt.Unix(), domain.StatusPending, now.UTC().Unix(),
		)
		if err != nil {
			return fmt.Errorf("insert reminder: %w", err)
		}
		reminderID, err = res.LastInsertId()
		if err != nil {
			return err
		}

		if err := applyAction(ctx, tx, userID, domain.ActionLinkSaved); err != nil {
			return err
		}
		return applyAction(ctx, tx, userID, domain.ActionDefaultPassive)
	})
	if err != nil {
		return 0, 0, err
	}
	return linkID, reminderID, nil
}

// ListLinks returns the user's saved links, newest first.
func (r *SQLiteRepo) ListLinks(ctx context.Context, telegramID int64) ([]domain.Link, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT l.id, l.user_id, l.url, l.is_read, l.created_at
		FROM links l
		JOIN users u ON u.id = l.user_id
		WHERE u.telegram_id = ?
		ORDER BY l.created_at DESC`,
		telegramID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Link
	for rows.Next() {
		var (
			l         domain.Link
			isRead    int
			createdAt int64
		)
		if err := rows.Scan(&l.ID, &l.UserID, &l.URL, &isRead, &createdAt); err != nil {
			return nil, err
		}
		l.IsRead = isRead != 0
		l.CreatedAt = time.Unix(createdAt, 0).UTC()
		res = append(res, l)
	}
	return res, rows.Err()
}

// --- Reminders ---

// reminderOwner resolves the reminder's current default flag plus the owning
// user's id and timezone offset, inside the caller's transaction.
func reminderOwner(ctx context.Context, tx *sql.Tx, reminderID int64) (userID int64, tzOffset string, isDefault bool, err error) {
	var defaultInt int
	err = tx.QueryRowContext(ctx, `
		SELECT u.id, COALESCE(u.tz_offset, ''), r.is_default_time
		FROM reminders r
		JOIN links l ON l.id = r.link_id
		JOIN users u ON u.id = l.user_id
		WHERE r.id = ?`,
		reminderID,
	).Scan(&userID, &tzOffset, &defaultInt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", false, domain.ErrNotFound
	}
	if err != nil {
		return 0, "", false, err
	}
	return userID, tzOffset, defaultInt != 0, nil
}

// GetReminder returns a reminder by id or domain.ErrNotFound.
func (r *SQLiteRepo) GetReminder(ctx context.Context, reminderID int64) (*domain.Reminder, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, link_id, remind_at, is_default_time, is_snoozed,
		       snooze_count, status, last_reminded_at, created_at
		FROM reminders
		WHERE id = ?`,
		reminderID,
	)

	var (
		rem        domain.Reminder
		remindAt   int64
		defaultInt int
		snoozedInt int
		lastNS     sql.NullInt64
		createdAt  int64
	)
	if err := row.Scan(
		&rem.ID, &rem.LinkID, &remindAt, &defaultInt, &snoozedInt,
		&rem.SnoozeCount, &rem.Status, &lastNS, &createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	rem.RemindAt = time.Unix(remindAt, 0).UTC()
	rem.IsDefaultTime = defaultInt != 0
	rem.IsSnoozed = snoozedInt != 0
	rem.LastRemindedAt = fromNullInt64(lastNS)
	rem.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &rem, nil
}

// RescheduleReminder sets the target time and the default flag without
// touching lifecycle status.
func (r *SQLiteRepo) RescheduleReminder(ctx context.Context, reminderID int64, at time.Time, isDefault bool) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE reminders SET remind_at = ?, is_default_time = ? WHERE id = ?`,
			at.UTC().Unix(), boolToInt(isDefault), reminderID,
		)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
}

// RecordSkip puts the reminder back on the default "tomorrow 9 AM local"
// schedule after the user dismissed the time-choice prompt.
func (r *SQLiteRepo) RecordSkip(ctx context.Context, reminderID int64, now time.Time) (time.Time, error) {
	var newAt time.Time
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		userID, tzOffset, _, err := reminderOwner(ctx, tx, reminderID)
		if err != nil {
			return err
		}
		newAt = domain.NextDefaultRemindAt(now.UTC(), tzOffset, r.defaultHour)
		if _, err := tx.ExecContext(ctx,
			`UPDATE reminders SET remind_at = ?, is_default_time = 1 WHERE id = ?`,
			newAt.Unix(), reminderID,
		); err != nil {
			return err
		}
		if err := applyAction(ctx, tx, userID, domain.ActionActiveSkip); err != nil {
			return err
		}
		return applyAction(ctx, tx, userID, domain.ActionDefaultReminder)
	})
	return newAt, err
}

// RecordManualChoice sets a user-chosen fire time N days ahead at 9 AM
// local. The compensating default_reminder_count decrement is issued only
// when the reminder was actually in default state, so the counter keeps
// reflecting reminders currently on the default schedule.
func (r *SQLiteRepo) RecordManualChoice(ctx context.Context, reminderID int64, days int, now time.Time) (time.Time, error) {
	if days < 1 || days > 3 {
		return time.Time{}, domain.NewValidationError("reminder offset must be 1, 2 or 3 days")
	}

	var newAt time.Time
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		userID, tzOffset, wasDefault, err := reminderOwner(ctx, tx, reminderID)
		if err != nil {
			return err
		}
		newAt = domain.RemindAtAfterDays(now.UTC(), tzOffset, r.defaultHour, days)
		if _, err := tx.ExecContext(ctx,
			`UPDATE reminders SET remind_at = ?, is_default_time = 0 WHERE id = ?`,
			newAt.Unix(), reminderID,
		); err != nil {
			return err
		}
		if err := applyAction(ctx, tx, userID, domain.ActionManualReminder); err != nil {
			return err
		}
		if wasDefault {
			return applyAction(ctx, tx, userID, domain.ActionDefaultReminderRemoved)
		}
		return nil
	})
	return newAt, err
}

// MarkSent transitions pending -> sent and stamps last_reminded_at.
// Calling it on an already sent reminder is a no-op.
func (r *SQLiteRepo) MarkSent(ctx context.Context, reminderID int64, at time.Time) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE reminders SET status = ?, last_reminded_at = ?
			WHERE id = ? AND status = ?`,
			domain.StatusSent, at.UTC().Unix(), reminderID, domain.StatusPending,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			// Idempotent when already sent (or missed); missing id is an error.
			var one int
			err := tx.QueryRowContext(ctx, `SELECT 1 FROM reminders WHERE id = ?`, reminderID).Scan(&one)
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}

		userID, _, _, err := reminderOwner(ctx, tx, reminderID)
		if err != nil {
			return err
		}
		return applyAction(ctx, tx, userID, domain.ActionReminderCompleted)
	})
}

// Snooze re-arms an already delivered reminder for tomorrow 9 AM local.
// Only valid from sent; anything else reports domain.ErrNotFound so the
// caller can show a neutral retry message instead of corrupting state.
func (r *SQLiteRepo) Snooze(ctx context.Context, reminderID int64, now time.Time) (time.Time, error) {
	var newAt time.Time
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		userID, tzOffset, _, err := reminderOwner(ctx, tx, reminderID)
		if err != nil {
			return err
		}
		newAt = domain.NextDefaultRemindAt(now.UTC(), tzOffset, r.defaultHour)
		res, err := tx.ExecContext(ctx, `
			UPDATE reminders
			SET status = ?, remind_at = ?, is_snoozed = 1, snooze_count = snooze_count + 1
			WHERE id = ? AND status = ?`,
			domain.StatusPending, newAt.Unix(), reminderID, domain.StatusSent,
		)
		if err != nil {
			return err
		}
		if err := requireAffected(res); err != nil {
			return err
		}
		return applyAction(ctx, tx, userID, domain.ActionSnooze)
	})
	return newAt, err
}

// MarkMissed transitions sent -> missed, but never touches a reminder the
// user has snoozed. A reminder already outside the sent state is left alone.
func (r *SQLiteRepo) MarkMissed(ctx context.Context, reminderID int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE reminders SET status = ?
			WHERE id = ? AND status = ? AND is_snoozed = 0`,
			domain.StatusMissed, reminderID, domain.StatusSent,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}

		userID, _, _, err := reminderOwner(ctx, tx, reminderID)
		if err != nil {
			return err
		}
		return applyAction(ctx, tx, userID, domain.ActionReminderMissed)
	})
}

// --- Sweep queries ---

// DueReminders returns pending reminders whose target time has passed,
// joined with delivery coordinates, oldest first.
func (r *SQLiteRepo) DueReminders(ctx context.Context, now time.Time) ([]domain.DueReminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, u.telegram_id, u.id, l.url, COALESCE(u.tz_offset, '')
		FROM reminders r
		JOIN links l ON l.id = r.link_id
		JOIN users u ON u.id = l.user_id
		WHERE r.status = ? AND r.remind_at <= ?
		ORDER BY r.remind_at ASC`,
		domain.StatusPending, now.UTC().Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.DueReminder
	for rows.Next() {
		var d domain.DueReminder
		if err := rows.Scan(&d.ReminderID, &d.ChatID, &d.UserID, &d.URL, &d.TZOffset); err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

// StaleReminders returns ids of sent, un-snoozed reminders last delivered
// at or before cutoff, the candidates for the missed sweep.
func (r *SQLiteRepo) StaleReminders(ctx context.Context, cutoff time.Time) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM reminders
		WHERE status = ? AND is_snoozed = 0
		  AND last_reminded_at IS NOT NULL AND last_reminded_at <= ?`,
		domain.StatusSent, cutoff.UTC().Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- Data erasure ---

// DeleteAllUserData removes every link the user owns (reminders cascade via
// foreign keys) and resets the timezone fields. The user row and the
// analytics row survive. Not reversible.
func (r *SQLiteRepo) DeleteAllUserData(ctx context.Context, telegramID int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var userID int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM users WHERE telegram_id = ?`, telegramID,
		).Scan(&userID)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM links WHERE user_id = ?`, userID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET tz_offset = NULL, has_set_timezone = 0 WHERE id = ?`, userID,
		)
		return err
	})
}
