package telegram

// Fixed-offset timezone presets shown by /set_timezone. Offsets are the
// canonical strings persisted on the user row; no IANA zones, no DST.

type tzPreset struct {
	Label  string
	Offset string
}

var regionOrder = []string{
	"North America",
	"South America",
	"Europe",
	"Africa",
	"Asia",
	"Oceania",
	"Middle East",
}

var regionTimezones = map[string][]tzPreset{
	"North America": {
		{"UTC-8 (Los Angeles, Vancouver)", "-8"},
		{"UTC-7 (Denver, Phoenix)", "-7"},
		{"UTC-6 (Chicago, Mexico City)", "-6"},
		{"UTC-5 (New York, Toronto)", "-5"},
		{"UTC-4 (Halifax, Santiago)", "-4"},
	},
	"South America": {
		{"UTC-5 (Lima, Bogota)", "-5"},
		{"UTC-4 (Santiago, Caracas)", "-4"},
		{"UTC-3 (São Paulo, Buenos Aires)", "-3"},
	},
	"Europe": {
		{"UTC+0 (London, Dublin)", "0"},
		{"UTC+1 (Paris, Berlin)", "1"},
		{"UTC+2 (Helsinki, Athens)", "2"},
		{"UTC+3 (Moscow, Istanbul)", "3"},
	},
	"Africa": {
		{"UTC+0 (Accra, Dakar)", "0"},
		{"UTC+1 (Lagos, Algiers)", "1"},
		{"UTC+2 (Cairo, Johannesburg)", "2"},
		{"UTC+3 (Nairobi, Addis Ababa)", "3"},
	},
	"Asia": {
		{"UTC+4 (Dubai, Baku)", "4"},
		{"UTC+5 (Karachi, Tashkent)", "5"},
		{"UTC+5:30 (Mumbai, New Delhi)", "5.5"},
		{"UTC+6 (Dhaka, Almaty)", "6"},
		{"UTC+7 (Bangkok, Jakarta)", "7"},
		{"UTC+8 (Beijing, Singapore)", "8"},
		{"UTC+9 (Tokyo, Seoul)", "9"},
	},
	"Oceania": {
		{"UTC+8 (Perth)", "8"},
		{"UTC+9:30 (Darwin)", "9.5"},
		{"UTC+10 (Sydney, Melbourne)", "10"},
		{"UTC+12 (Auckland, Suva)", "12"},
	},
	"Middle East": {
		{"UTC+2 (Jerusalem, Amman)", "2"},
		{"UTC+3:30 (Tehran)", "3.5"},
		{"UTC+4 (Dubai, Muscat)", "4"},
	},
}
