package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// UI texts
const (
	startTextNoTZ = "Hi! 👋\n" +
		"I can help you save links and send reminders.\n\n" +
		"To ensure reminders are sent at the correct time, please set your time zone using /set_timezone."
	startTextReady = "Hi! 👋\n" +
		"You're all set! Send me a link to save it for later."
	helpText = "Here's what I can do:\n" +
		"• Send me any link to save it\n" +
		"• /list - see your saved links\n" +
		"• /stats - your reading stats\n" +
		"• /set_timezone - set your time zone\n" +
		"• /delete_my_data - erase your saved links\n" +
		"• /help - this message"
	noLinksText = "No saved links yet. Send me a URL to get started! 🔍"
	notALinkText = "Please send me a link to save it for later! 🔍\n" +
		"The link should start with http:// or https://"
	genericErrorText  = "Sorry, an unexpected error occurred. Please try again later."
	notFoundText      = "Hmm, I can't find that anymore. Please retry the command."
	deleteConfirmText = "⚠️ This will permanently delete all your saved links and reminders. Continue?"
	deleteDoneText    = "All your saved links have been deleted and your timezone reset. Your stats are kept."
	deleteCancelText  = "Deletion cancelled. Your links are safe."
)

// reminderChoiceKeyboard is attached to every saved-link confirmation:
// pick an explicit day or skip to keep the default time.
func reminderChoiceKeyboard(reminderID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Tomorrow", pickDaysData(1, reminderID)),
			tgbotapi.NewInlineKeyboardButtonData("In 2 Days", pickDaysData(2, reminderID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("In 3 Days", pickDaysData(3, reminderID)),
			tgbotapi.NewInlineKeyboardButtonData("Skip", skipData(reminderID)),
		),
	)
}

// snoozeKeyboard is the single affordance on a delivered reminder.
func snoozeKeyboard(reminderID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Remind me tomorrow", snoozeData(reminderID)),
		),
	)
}

func regionKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(regionOrder))
	for _, region := range regionOrder {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(region, cbRegion+":"+region),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func zoneKeyboard(region string) (tgbotapi.InlineKeyboardMarkup, bool) {
	presets, ok := regionTimezones[region]
	if !ok {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(presets))
	for _, p := range presets {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(p.Label, cbZone+":"+p.Offset),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func deleteConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Yes, delete everything", cbDelete+":confirm"),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", cbDelete+":cancel"),
		),
	)
}
