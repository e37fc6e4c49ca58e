package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/IVsB88/read-later-bot/internal/domain"
)

func newTestRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	ctx := context.Background()
	repo, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "test.db"), 9)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func mustUser(t *testing.T, repo *SQLiteRepo, telegramID int64, offset string) *domain.User {
	t.Helper()
	ctx := context.Background()
	u, err := repo.EnsureUser(ctx, telegramID, "tester", "Test")
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if offset != "" {
		if err := repo.SetTimezone(ctx, telegramID, offset); err != nil {
			t.Fatalf("set timezone: %v", err)
		}
	}
	return u
}

func mustLink(t *testing.T, repo *SQLiteRepo, telegramID int64, now time.Time) (linkID, reminderID int64) {
	t.Helper()
	linkID, reminderID, err := repo.CreateLinkWithReminder(context.Background(), telegramID, "https://example.com/article", now)
	if err != nil {
		t.Fatalf("create link: %v", err)
	}
	return linkID, reminderID
}

func TestCreateLinkWithReminder_DefaultReminder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustUser(t, repo, 100, "3")

	now := time.Date(2025, time.March, 10, 20, 0, 0, 0, time.UTC)
	linkID, reminderID := mustLink(t, repo, 100, now)

	var count int
	if err := repo.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reminders WHERE link_id = ?`, linkID,
	).Scan(&count); err != nil {
		t.Fatalf("count reminders: %v", err)
	}
	if count != 1 {
		t.Fatalf("want exactly 1 reminder for the link, got %d", count)
	}

	rem, err := repo.GetReminder(ctx, reminderID)
	if err != nil {
		t.Fatalf("get reminder: %v", err)
	}
	if rem.Status != domain.StatusPending {
		t.Fatalf("want status pending, got %s", rem.Status)
	}
	if !rem.IsDefaultTime {
		t.Fatal("default reminder not flagged is_default_time")
	}
	// 20:00 UTC is 23:00 local for UTC+3; tomorrow 09:00 local = 06:00 UTC.
	want := time.Date(2025, time.March, 11, 6, 0, 0, 0, time.UTC)
	if !rem.RemindAt.Equal(want) {
		t.Fatalf("want remind_at %v, got %v", want, rem.RemindAt)
	}

	a, err := repo.Analytics(ctx, 100)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if a.TotalLinksSaved != 1 || a.DefaultPassiveCount != 1 {
		t.Fatalf("want links=1 passive=1, got links=%d passive=%d", a.TotalLinksSaved, a.DefaultPassiveCount)
	}
}

func TestCreateLinkWithReminder_Errors(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustUser(t, repo, 100, "")

	now := time.Now().UTC()
	if _, _, err := repo.CreateLinkWithReminder(ctx, 999, "https://example.com", now); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown user: want ErrNotFound, got %v", err)
	}
	if _, _, err := repo.CreateLinkWithReminder(ctx, 100, "ftp://example.com", now); !domain.IsValidation(err) {
		t.Fatalf("bad url: want ValidationError, got %v", err)
	}
	// A rejected URL must not leave a partial write behind.
	links, err := repo.ListLinks(ctx, 100)
	if err != nil {
		t.Fatalf("list links: %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("partial write observable: %d links", len(links))
	}
}

func TestSnooze_StateMachine(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustUser(t, repo, 100, "0")

	now := time.Now().UTC()
	_, reminderID := mustLink(t, repo, 100, now)

	// Snoozing a pending reminder is an error, not silent corruption.
	if _, err := repo.Snooze(ctx, reminderID, now); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("snooze from pending: want ErrNotFound, got %v", err)
	}
	rem, _ := repo.GetReminder(ctx, reminderID)
	if rem.SnoozeCount != 0 || rem.IsSnoozed {
		t.Fatalf("failed snooze mutated reminder: %+v", rem)
	}

	if err := repo.MarkSent(ctx, reminderID, now); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	if _, err := repo.Snooze(ctx, reminderID, now); err != nil {
		t.Fatalf("snooze from sent: %v", err)
	}

	rem, err := repo.GetReminder(ctx, reminderID)
	if err != nil {
		t.Fatalf("get reminder: %v", err)
	}
	if rem.Status != domain.StatusPending {
		t.Fatalf("want pending after snooze, got %s", rem.Status)
	}
	if !rem.IsSnoozed || rem.SnoozeCount != 1 {
		t.Fatalf("want is_snoozed=true count=1, got snoozed=%v count=%d", rem.IsSnoozed, rem.SnoozeCount)
	}

	a, _ := repo.Analytics(ctx, 100)
	if a.TotalSnoozes != 1 {
		t.Fatalf("want total_snoozes=1, got %d", a.TotalSnoozes)
	}
}

func TestMarkSent_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustUser(t, repo, 100, "")

	now := time.Now().UTC()
	_, reminderID := mustLink(t, repo, 100, now)

	if err := repo.MarkSent(ctx, reminderID, now); err != nil {
		t.Fatalf("first mark sent: %v", err)
	}
	if err := repo.MarkSent(ctx, reminderID, now.Add(time.Minute)); err != nil {
		t.Fatalf("second mark sent: %v", err)
	}

	a, _ := repo.Analytics(ctx, 100)
	if a.CompletedReminders != 1 {
		t.Fatalf("completed counted twice: %d", a.CompletedReminders)
	}
	if err := repo.MarkSent(ctx, 9999, now); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing reminder: want ErrNotFound, got %v", err)
	}
}

func TestMarkMissed_SkipsSnoozed(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustUser(t, repo, 100, "")

	now := time.Now().UTC()
	_, plain := mustLink(t, repo, 100, now)
	_, snoozed := mustLink(t, repo, 100, now)

	for _, id := range []int64{plain, snoozed} {
		if err := repo.MarkSent(ctx, id, now); err != nil {
			t.Fatalf("mark sent %d: %v", id, err)
		}
	}
	if _, err := repo.Snooze(ctx, snoozed, now); err != nil {
		t.Fatalf("snooze: %v", err)
	}
	// Put the snoozed one back to sent so only the flag protects it.
	if err := repo.MarkSent(ctx, snoozed, now); err != nil {
		t.Fatalf("re-send snoozed: %v", err)
	}

	if err := repo.MarkMissed(ctx, plain); err != nil {
		t.Fatalf("mark missed: %v", err)
	}
	if err := repo.MarkMissed(ctx, snoozed); err != nil {
		t.Fatalf("mark missed snoozed: %v", err)
	}

	rem, _ := repo.GetReminder(ctx, plain)
	if rem.Status != domain.StatusMissed {
		t.Fatalf("want missed, got %s", rem.Status)
	}
	rem, _ = repo.GetReminder(ctx, snoozed)
	if rem.Status != domain.StatusSent {
		t.Fatalf("snoozed reminder transitioned: %s", rem.Status)
	}

	a, _ := repo.Analytics(ctx, 100)
	if a.MissedReminders != 1 {
		t.Fatalf("want missed=1, got %d", a.MissedReminders)
	}
	if a.CompletionRate <= 0.5 || a.CompletionRate >= 1 {
		t.Fatalf("completion rate not recomputed: %v", a.CompletionRate)
	}
}

func TestDueReminders_FiltersByTime(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustUser(t, repo, 100, "")

	now := time.Now().UTC()
	_, past1 := mustLink(t, repo, 100, now)
	_, future := mustLink(t, repo, 100, now)
	_, past2 := mustLink(t, repo, 100, now)

	reschedule := map[int64]time.Time{
		past1:  now.Add(-time.Hour),
		future: now.Add(time.Hour),
		past2:  now.Add(-5 * time.Minute),
	}
	for id, at := range reschedule {
		if err := repo.RescheduleReminder(ctx, id, at, false); err != nil {
			t.Fatalf("reschedule %d: %v", id, err)
		}
	}

	due, err := repo.DueReminders(ctx, now)
	if err != nil {
		t.Fatalf("due reminders: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("want 2 due, got %d", len(due))
	}
	// Oldest first.
	if due[0].ReminderID != past1 || due[1].ReminderID != past2 {
		t.Fatalf("wrong order: %+v", due)
	}

	rem, _ := repo.GetReminder(ctx, future)
	if rem.Status != domain.StatusPending {
		t.Fatalf("future reminder touched: %s", rem.Status)
	}
}

func TestStaleReminders(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustUser(t, repo, 100, "")

	now := time.Now().UTC()
	_, stale := mustLink(t, repo, 100, now)
	_, fresh := mustLink(t, repo, 100, now)
	_, snoozed := mustLink(t, repo, 100, now)

	if err := repo.MarkSent(ctx, stale, now.Add(-25*time.Hour)); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	if err := repo.MarkSent(ctx, fresh, now.Add(-time.Hour)); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	if err := repo.MarkSent(ctx, snoozed, now.Add(-25*time.Hour)); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	if _, err := repo.Snooze(ctx, snoozed, now); err != nil {
		t.Fatalf("snooze: %v", err)
	}

	ids, err := repo.StaleReminders(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("stale reminders: %v", err)
	}
	if len(ids) != 1 || ids[0] != stale {
		t.Fatalf("want [%d], got %v", stale, ids)
	}
}

func TestRecordSkipAndManualChoice_Bookkeeping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustUser(t, repo, 100, "-5")

	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	_, reminderID := mustLink(t, repo, 100, now)

	if _, err := repo.RecordSkip(ctx, reminderID, now); err != nil {
		t.Fatalf("record skip: %v", err)
	}
	a, _ := repo.Analytics(ctx, 100)
	if a.ActiveSkipCount != 1 || a.DefaultReminderCount != 1 {
		t.Fatalf("after skip: skip=%d default=%d", a.ActiveSkipCount, a.DefaultReminderCount)
	}

	at, err := repo.RecordManualChoice(ctx, reminderID, 2, now)
	if err != nil {
		t.Fatalf("manual choice: %v", err)
	}
	// 08:00 UTC is 03:00 local for UTC-5; 2 days ahead 09:00 local = 14:00 UTC.
	want := time.Date(2025, time.March, 12, 14, 0, 0, 0, time.UTC)
	if !at.Equal(want) {
		t.Fatalf("want remind_at %v, got %v", want, at)
	}

	a, _ = repo.Analytics(ctx, 100)
	if a.ManualReminderCount != 1 {
		t.Fatalf("want manual=1, got %d", a.ManualReminderCount)
	}
	// The compensating decrement restores the counter to zero, never below.
	if a.DefaultReminderCount != 0 {
		t.Fatalf("want default=0 after manual choice, got %d", a.DefaultReminderCount)
	}

	// A second manual choice on an already manual reminder must not
	// decrement again.
	if _, err := repo.RecordManualChoice(ctx, reminderID, 1, now); err != nil {
		t.Fatalf("second manual choice: %v", err)
	}
	a, _ = repo.Analytics(ctx, 100)
	if a.DefaultReminderCount != 0 {
		t.Fatalf("counter went negative or drifted: %d", a.DefaultReminderCount)
	}

	if _, err := repo.RecordManualChoice(ctx, reminderID, 5, now); !domain.IsValidation(err) {
		t.Fatalf("days=5: want ValidationError, got %v", err)
	}
}

func TestDeleteAllUserData(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustUser(t, repo, 100, "5.5")
	mustUser(t, repo, 200, "1")

	now := time.Now().UTC()
	_, reminderID := mustLink(t, repo, 100, now)
	mustLink(t, repo, 100, now)
	_, otherRem := mustLink(t, repo, 200, now)

	if err := repo.DeleteAllUserData(ctx, 100); err != nil {
		t.Fatalf("delete user data: %v", err)
	}

	links, _ := repo.ListLinks(ctx, 100)
	if len(links) != 0 {
		t.Fatalf("links survive deletion: %d", len(links))
	}
	if _, err := repo.GetReminder(ctx, reminderID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("reminder not cascaded: %v", err)
	}

	u, err := repo.GetUser(ctx, 100)
	if err != nil {
		t.Fatalf("user row must survive: %v", err)
	}
	if u.TZOffset != "" || u.HasSetTimezone {
		t.Fatalf("timezone not reset: %+v", u)
	}
	if _, err := repo.Analytics(ctx, 100); err != nil {
		t.Fatalf("analytics row must stay queryable: %v", err)
	}

	// Other users untouched.
	if _, err := repo.GetReminder(ctx, otherRem); err != nil {
		t.Fatalf("other user's reminder lost: %v", err)
	}
}
