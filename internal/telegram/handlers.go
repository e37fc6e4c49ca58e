package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/IVsB88/read-later-bot/internal/domain"
	"github.com/IVsB88/read-later-bot/internal/ratelimit"
)

// --- Commands ---

func (r *Router) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	u, err := r.repo.EnsureUser(ctx, msg.From.ID, msg.From.UserName, msg.From.FirstName)
	if err != nil {
		r.log.Error("ensure user failed", zap.Error(err))
		r.sendText(msg.Chat.ID, r.errorText(err))
		return
	}
	if u.HasSetTimezone {
		r.sendText(msg.Chat.ID, startTextReady)
	} else {
		r.sendText(msg.Chat.ID, startTextNoTZ)
	}
}

func (r *Router) handleSetTimezone(ctx context.Context, msg *tgbotapi.Message) {
	if _, err := r.repo.EnsureUser(ctx, msg.From.ID, msg.From.UserName, msg.From.FirstName); err != nil {
		r.log.Error("ensure user failed", zap.Error(err))
		r.sendText(msg.Chat.ID, r.errorText(err))
		return
	}
	r.sendWithKeyboard(msg.Chat.ID, "Please select your region:", regionKeyboard())
}

func (r *Router) handleList(ctx context.Context, msg *tgbotapi.Message) {
	links, err := r.repo.ListLinks(ctx, msg.From.ID)
	if err != nil {
		r.log.Error("list links failed", zap.Error(err))
		r.sendText(msg.Chat.ID, r.errorText(err))
		return
	}
	if len(links) == 0 {
		r.sendText(msg.Chat.ID, noLinksText)
		return
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📚 Your saved links (%d):\n\n", len(links)))
	for i, l := range links {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, l.URL))
	}
	r.sendText(msg.Chat.ID, b.String())
}

func (r *Router) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	a, err := r.repo.Analytics(ctx, msg.From.ID)
	if err != nil {
		r.log.Error("analytics failed", zap.Error(err))
		r.sendText(msg.Chat.ID, r.errorText(err))
		return
	}
	r.sendText(msg.Chat.ID, fmt.Sprintf(
		"📊 Your stats:\n"+
			"• Links saved: %d\n"+
			"• Reminders completed: %d\n"+
			"• Reminders missed: %d\n"+
			"• Snoozes: %d\n"+
			"• Completion rate: %.0f%%",
		a.TotalLinksSaved, a.CompletedReminders, a.MissedReminders,
		a.TotalSnoozes, a.CompletionRate*100,
	))
}

func (r *Router) handleDeleteRequest(ctx context.Context, msg *tgbotapi.Message) {
	if _, err := r.repo.GetUser(ctx, msg.From.ID); err != nil {
		r.sendText(msg.Chat.ID, r.errorText(err))
		return
	}
	r.sendWithKeyboard(msg.Chat.ID, deleteConfirmText, deleteConfirmKeyboard())
}

// handleMessage is the link-ingestion path: rate limit, extract, save each
// URL in isolation so one bad link never discards the rest of the batch.
func (r *Router) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if ok, reason := r.limiter.Allow(msg.From.ID, ratelimit.CategoryMessages); !ok {
		r.sendText(chatID, reason)
		return
	}

	valid, reasons := domain.ExtractURLs(msg.Text)
	if len(valid) == 0 && len(reasons) == 0 {
		r.sendText(chatID, notALinkText)
		return
	}

	if len(valid) > 0 {
		if ok, reason := r.limiter.Allow(msg.From.ID, ratelimit.CategoryLinks); !ok {
			r.sendText(chatID, reason)
			return
		}
		if _, err := r.repo.EnsureUser(ctx, msg.From.ID, msg.From.UserName, msg.From.FirstName); err != nil {
			r.log.Error("ensure user failed", zap.Error(err))
			r.sendText(chatID, r.errorText(err))
			return
		}
	}

	now := time.Now().UTC()
	for _, url := range valid {
		_, reminderID, err := r.repo.CreateLinkWithReminder(ctx, msg.From.ID, url, now)
		if err != nil {
			r.log.Error("save link failed", zap.Error(err), zap.String("url", url))
			r.sendText(chatID, "Failed to save link: "+url)
			continue
		}
		r.sendWithKeyboard(chatID, "Link saved: "+url, reminderChoiceKeyboard(reminderID))
	}

	if len(reasons) > 0 {
		var b strings.Builder
		if len(valid) > 0 {
			b.WriteString("Some URLs couldn't be saved:\n")
		} else {
			b.WriteString("Unable to save URLs:\n")
		}
		for _, reason := range reasons {
			b.WriteString("❌ " + reason + "\n")
		}
		r.sendText(chatID, b.String())
	}
}

// --- Callbacks ---

func (r *Router) handlePickDays(ctx context.Context, cb *tgbotapi.CallbackQuery, decoded Callback) {
	at, err := r.repo.RecordManualChoice(ctx, decoded.ReminderID, decoded.Days, time.Now().UTC())
	if err != nil {
		r.log.Warn("manual choice failed", zap.Error(err), zap.Int64("reminder", decoded.ReminderID))
		r.editText(cb, r.errorText(err))
		return
	}

	u, err := r.repo.GetUser(ctx, cb.From.ID)
	offset := ""
	if err == nil {
		offset = u.TZOffset
	}
	r.editText(cb, "✅ Reminder set for "+domain.FormatLocal(at, offset))
}

func (r *Router) handleSkip(ctx context.Context, cb *tgbotapi.CallbackQuery, decoded Callback) {
	if _, err := r.repo.RecordSkip(ctx, decoded.ReminderID, time.Now().UTC()); err != nil {
		r.log.Warn("skip failed", zap.Error(err), zap.Int64("reminder", decoded.ReminderID))
		r.editText(cb, r.errorText(err))
		return
	}
	// Keep the confirmation text, just drop the keyboard.
	edit := tgbotapi.NewEditMessageReplyMarkup(cb.Message.Chat.ID, cb.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	if _, err := r.send(edit); err != nil {
		r.log.Error("edit failed", zap.Error(err))
	}
}

func (r *Router) handleSnooze(ctx context.Context, cb *tgbotapi.CallbackQuery, decoded Callback) {
	at, err := r.repo.Snooze(ctx, decoded.ReminderID, time.Now().UTC())
	if err != nil {
		r.log.Warn("snooze failed", zap.Error(err), zap.Int64("reminder", decoded.ReminderID))
		r.editText(cb, r.errorText(err))
		return
	}

	u, err := r.repo.GetUser(ctx, cb.From.ID)
	offset := ""
	if err == nil {
		offset = u.TZOffset
	}
	r.editText(cb, "Reminder snoozed until "+domain.FormatLocal(at, offset))
}

func (r *Router) handleRegion(cb *tgbotapi.CallbackQuery, decoded Callback) {
	kb, ok := zoneKeyboard(decoded.Region)
	if !ok {
		r.editText(cb, "Invalid region selected. Please try again using /set_timezone")
		return
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(cb.Message.Chat.ID, cb.Message.MessageID,
		"Selected region: "+decoded.Region+"\nPlease choose your timezone:", kb)
	if _, err := r.send(edit); err != nil {
		r.log.Error("edit failed", zap.Error(err))
	}
}

func (r *Router) handleZone(ctx context.Context, cb *tgbotapi.CallbackQuery, decoded Callback) {
	if err := r.repo.SetTimezone(ctx, cb.From.ID, decoded.Offset); err != nil {
		r.log.Warn("set timezone failed", zap.Error(err), zap.String("offset", decoded.Offset))
		r.editText(cb, "⚠️ Error setting timezone. Please try again using /set_timezone")
		return
	}

	sign := "+"
	if strings.HasPrefix(decoded.Offset, "-") {
		sign = ""
	}
	r.editText(cb, fmt.Sprintf(
		"✅ Your timezone has been set to UTC%s%s.\n\nYou can now send me links to save them!",
		sign, decoded.Offset,
	))
}

func (r *Router) handleDeleteConfirm(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if err := r.repo.DeleteAllUserData(ctx, cb.From.ID); err != nil {
		r.log.Error("delete user data failed", zap.Error(err))
		r.editText(cb, r.errorText(err))
		return
	}
	r.editText(cb, deleteDoneText)
}
