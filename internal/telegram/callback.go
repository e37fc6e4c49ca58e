package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Inline-button payloads are decoded exactly once, here at the boundary,
// into a tagged Callback value. Handlers never parse strings themselves.

type CallbackKind int

const (
	CallbackUnknown CallbackKind = iota
	CallbackPickDays
	CallbackSkip
	CallbackSnooze
	CallbackRegion
	CallbackZone
	CallbackDeleteConfirm
	CallbackDeleteCancel
)

// Callback is the decoded form of inline-button data.
type Callback struct {
	Kind       CallbackKind
	Days       int    // CallbackPickDays
	ReminderID int64  // CallbackPickDays, CallbackSkip, CallbackSnooze
	Region     string // CallbackRegion
	Offset     string // CallbackZone
}

var errBadCallback = errors.New("malformed callback data")

// Wire encodings, kept stable because they live inside already-sent messages.
const (
	cbPickDays = "remind" // remind:<days>:<reminderID>
	cbSkip     = "skip"   // skip:<reminderID>
	cbSnooze   = "snooze" // snooze:<reminderID>
	cbRegion   = "region" // region:<name>
	cbZone     = "zone"   // zone:<offset>
	cbDelete   = "delete" // delete:confirm | delete:cancel
)

func pickDaysData(days int, reminderID int64) string {
	return fmt.Sprintf("%s:%d:%d", cbPickDays, days, reminderID)
}

func skipData(reminderID int64) string {
	return fmt.Sprintf("%s:%d", cbSkip, reminderID)
}

func snoozeData(reminderID int64) string {
	return fmt.Sprintf("%s:%d", cbSnooze, reminderID)
}

// ParseCallback decodes button data into a typed Callback.
func ParseCallback(data string) (Callback, error) {
	parts := strings.Split(data, ":")
	switch parts[0] {
	case cbPickDays:
		if len(parts) != 3 {
			return Callback{}, errBadCallback
		}
		days, err := strconv.Atoi(parts[1])
		if err != nil {
			return Callback{}, errBadCallback
		}
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return Callback{}, errBadCallback
		}
		return Callback{Kind: CallbackPickDays, Days: days, ReminderID: id}, nil

	case cbSkip, cbSnooze:
		if len(parts) != 2 {
			return Callback{}, errBadCallback
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return Callback{}, errBadCallback
		}
		kind := CallbackSkip
		if parts[0] == cbSnooze {
			kind = CallbackSnooze
		}
		return Callback{Kind: kind, ReminderID: id}, nil

	case cbRegion:
		if len(parts) != 2 || parts[1] == "" {
			return Callback{}, errBadCallback
		}
		return Callback{Kind: CallbackRegion, Region: parts[1]}, nil

	case cbZone:
		if len(parts) != 2 || parts[1] == "" {
			return Callback{}, errBadCallback
		}
		return Callback{Kind: CallbackZone, Offset: parts[1]}, nil

	case cbDelete:
		if len(parts) != 2 {
			return Callback{}, errBadCallback
		}
		switch parts[1] {
		case "confirm":
			return Callback{Kind: CallbackDeleteConfirm}, nil
		case "cancel":
			return Callback{Kind: CallbackDeleteCancel}, nil
		}
		return Callback{}, errBadCallback
	}
	return Callback{}, errBadCallback
}
