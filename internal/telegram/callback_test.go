package telegram

import "testing"

func TestParseCallback(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    Callback
		wantErr bool
	}{
		{"pick days", "remind:2:42", Callback{Kind: CallbackPickDays, Days: 2, ReminderID: 42}, false},
		{"skip", "skip:7", Callback{Kind: CallbackSkip, ReminderID: 7}, false},
		{"snooze", "snooze:13", Callback{Kind: CallbackSnooze, ReminderID: 13}, false},
		{"region", "region:Asia", Callback{Kind: CallbackRegion, Region: "Asia"}, false},
		{"zone", "zone:5.5", Callback{Kind: CallbackZone, Offset: "5.5"}, false},
		{"delete confirm", "delete:confirm", Callback{Kind: CallbackDeleteConfirm}, false},
		{"delete cancel", "delete:cancel", Callback{Kind: CallbackDeleteCancel}, false},
		{"garbage", "whatever", Callback{}, true},
		{"snooze non-numeric", "snooze:abc", Callback{}, true},
		{"pick days missing id", "remind:2", Callback{}, true},
		{"empty region", "region:", Callback{}, true},
		{"delete garbage", "delete:yes", Callback{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCallback(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCallback(%q) error = %v, wantErr %v", tt.data, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ParseCallback(%q) = %+v, want %+v", tt.data, got, tt.want)
			}
		})
	}
}

func TestCallbackRoundTrip(t *testing.T) {
	got, err := ParseCallback(pickDaysData(3, 99))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Days != 3 || got.ReminderID != 99 {
		t.Fatalf("round trip lost fields: %+v", got)
	}

	if got, _ = ParseCallback(skipData(5)); got.ReminderID != 5 {
		t.Fatalf("skip round trip: %+v", got)
	}
	if got, _ = ParseCallback(snoozeData(6)); got.ReminderID != 6 {
		t.Fatalf("snooze round trip: %+v", got)
	}
}
