package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/IVsB88/read-later-bot/internal/domain"
	"github.com/IVsB88/read-later-bot/internal/ratelimit"
	"github.com/IVsB88/read-later-bot/internal/store"
)

// Router wires Telegram updates to the typed handlers. It is also the
// scheduler's delivery collaborator (SendReminder).
type Router struct {
	bot     *tgbotapi.BotAPI
	log     *zap.Logger
	repo    store.Repo
	limiter *ratelimit.Limiter
	debug   bool // surface raw error text to the user

	send func(tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NewRouter creates a Router.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, repo store.Repo, limiter *ratelimit.Limiter, debug bool) *Router {
	return &Router{
		bot:     bot,
		log:     log,
		repo:    repo,
		limiter: limiter,
		debug:   debug,
		send:    bot.Send,
	}
}

// HandleUpdate routes a single update to the appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		msg := upd.Message
		chatID := msg.Chat.ID
		text := strings.TrimSpace(msg.Text)

		switch {
		case strings.HasPrefix(text, "/start"):
			r.handleStart(ctx, msg)
		case strings.HasPrefix(text, "/help"):
			r.sendText(chatID, helpText)
		case strings.HasPrefix(text, "/set_timezone"):
			r.handleSetTimezone(ctx, msg)
		case strings.HasPrefix(text, "/list"):
			r.handleList(ctx, msg)
		case strings.HasPrefix(text, "/stats"):
			r.handleStats(ctx, msg)
		case strings.HasPrefix(text, "/delete_my_data"):
			r.handleDeleteRequest(ctx, msg)
		default:
			r.handleMessage(ctx, msg)
		}
		return
	}

	if upd.CallbackQuery != nil {
		r.handleCallback(ctx, upd.CallbackQuery)
	}
}

// handleCallback decodes button data once and dispatches on the tagged kind.
func (r *Router) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	_, _ = r.bot.Request(tgbotapi.NewCallback(cb.ID, ""))
	if cb.Message == nil {
		return
	}

	decoded, err := ParseCallback(cb.Data)
	if err != nil {
		r.log.Warn("malformed callback data", zap.String("data", cb.Data))
		return
	}

	switch decoded.Kind {
	case CallbackPickDays:
		r.handlePickDays(ctx, cb, decoded)
	case CallbackSkip:
		r.handleSkip(ctx, cb, decoded)
	case CallbackSnooze:
		r.handleSnooze(ctx, cb, decoded)
	case CallbackRegion:
		r.handleRegion(cb, decoded)
	case CallbackZone:
		r.handleZone(ctx, cb, decoded)
	case CallbackDeleteConfirm:
		r.handleDeleteConfirm(ctx, cb)
	case CallbackDeleteCancel:
		r.editText(cb, deleteCancelText)
	}
}

// SendReminder delivers one reminder with the snooze button, satisfying
// scheduler.Sender. The send runs under the caller's per-item budget: when
// the context expires first, the delivery is reported failed and the sweep
// moves on. The bot's HTTP client timeout reaps the stray request.
func (r *Router) SendReminder(ctx context.Context, chatID, reminderID int64, url string) error {
	msg := tgbotapi.NewMessage(chatID, "🔔 Time to read: "+url)
	msg.ReplyMarkup = snoozeKeyboard(reminderID)

	done := make(chan error, 1)
	go func() {
		_, err := r.send(msg)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// --- Small helpers ---

func (r *Router) sendText(chatID int64, text string) {
	if _, err := r.send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Error("send failed", zap.Error(err), zap.Int64("chat", chatID))
	}
}

func (r *Router) sendWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := r.send(msg); err != nil {
		r.log.Error("send failed", zap.Error(err), zap.Int64("chat", chatID))
	}
}

// editText replaces a prompt in place, dropping its keyboard.
func (r *Router) editText(cb *tgbotapi.CallbackQuery, text string) {
	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, text)
	if _, err := r.send(edit); err != nil {
		r.log.Error("edit failed", zap.Error(err), zap.Int64("chat", cb.Message.Chat.ID))
	}
}

// errorText maps an operation error to what the user should see.
func (r *Router) errorText(err error) string {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Reason
	case errors.Is(err, domain.ErrNotFound):
		return notFoundText
	case r.debug:
		return "Debug error info:\n" + err.Error()
	default:
		return genericErrorText
	}
}
