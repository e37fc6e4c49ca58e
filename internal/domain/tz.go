package domain

import (
	"math"
	"strconv"
	"time"
)

// Timezone handling is deliberately simple: a user's timezone is a fixed
// signed hour offset from UTC ("5.5", "-8"), no DST or IANA semantics.
// Conversions are fail-soft: a missing or malformed offset means UTC.

const (
	// MinOffset and MaxOffset bound real-world UTC offsets.
	MinOffset = -12.0
	MaxOffset = 14.0
)

// parseOffset returns the numeric offset and whether it is usable.
func parseOffset(offset string) (float64, bool) {
	if offset == "" {
		return 0, false
	}
	h, err := strconv.ParseFloat(offset, 64)
	if err != nil || math.IsNaN(h) || math.IsInf(h, 0) {
		return 0, false
	}
	return h, true
}

// ValidateOffset checks a user-supplied offset before it is persisted.
// Returns the canonical string form.
func ValidateOffset(offset string) (string, error) {
	h, ok := parseOffset(offset)
	if !ok {
		return "", NewValidationError("timezone offset must be a number, e.g. 5.5 or -8")
	}
	if h < MinOffset || h > MaxOffset {
		return "", NewValidationError("timezone offset must be between -12 and +14")
	}
	return strconv.FormatFloat(h, 'f', -1, 64), nil
}

// ToLocal shifts a UTC instant to the user's wall clock.
// A malformed or unset offset yields the input unchanged.
func ToLocal(utc time.Time, offset string) time.Time {
	h, ok := parseOffset(offset)
	if !ok {
		return utc
	}
	return utc.Add(time.Duration(h * float64(time.Hour)))
}

// ToUTC shifts a user wall-clock instant back to UTC, with the same
// fail-soft fallback as ToLocal.
func ToUTC(local time.Time, offset string) time.Time {
	h, ok := parseOffset(offset)
	if !ok {
		return local
	}
	return local.Add(-time.Duration(h * float64(time.Hour)))
}

// RemindAtAfterDays computes "days ahead at hour:00 in the user's local time",
// returned in UTC. With no offset configured the wall clock is UTC itself.
func RemindAtAfterDays(nowUTC time.Time, offset string, hour, days int) time.Time {
	local := ToLocal(nowUTC, offset)
	target := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, local.Location()).
		AddDate(0, 0, days)
	return ToUTC(target, offset)
}

// NextDefaultRemindAt is the system-assigned default: tomorrow at hour:00
// local, in UTC.
func NextDefaultRemindAt(nowUTC time.Time, offset string, hour int) time.Time {
	return RemindAtAfterDays(nowUTC, offset, hour, 1)
}

// FormatLocal renders a UTC instant in the user's wall clock for
// confirmation texts, e.g. "January 02 at 9:00 AM".
func FormatLocal(utc time.Time, offset string) string {
	return ToLocal(utc, offset).Format("January 02 at 3:04 PM")
}
