package fingerprint

// LocaleTimezone pairs a BCP 47 locale with an IANA timezone a real user of
// that locale would plausibly report. Keeping the two tied together avoids
// incoherent combinations like a de-DE locale in Asia/Tokyo.
type LocaleTimezone struct {
	Locale   string `json:"locale"`
	Timezone string `json:"timezone"`
}

var localeTimezones = []LocaleTimezone{
	{"en-US", "America/New_York"},
	{"en-US", "America/Los_Angeles"},
	{"en-US", "America/Chicago"},
	{"en-US", "America/Denver"},
	{"en-GB", "Europe/London"},
	{"de-DE", "Europe/Berlin"},
	{"fr-FR", "Europe/Paris"},
	{"es-ES", "Europe/Madrid"},
	{"it-IT", "Europe/Rome"},
	{"ja-JP", "Asia/Tokyo"},
	{"zh-CN", "Asia/Shanghai"},
	{"ko-KR", "Asia/Seoul"},
	{"pt-BR", "America/Sao_Paulo"},
	{"ru-RU", "Europe/Moscow"},
	{"ar-SA", "Asia/Riyadh"},
	{"hi-IN", "Asia/Kolkata"},
	{"th-TH", "Asia/Bangkok"},
	{"vi-VN", "Asia/Ho_Chi_Minh"},
	{"tr-TR", "Europe/Istanbul"},
	{"pl-PL", "Europe/Warsaw"},
	{"nl-NL", "Europe/Amsterdam"},
	{"sv-SE", "Europe/Stockholm"},
	{"da-DK", "Europe/Copenhagen"},
	{"no-NO", "Europe/Oslo"},
	{"fi-FI", "Europe/Helsinki"},
	{"cs-CZ", "Europe/Prague"},
	{"hu-HU", "Europe/Budapest"},
	{"el-GR", "Europe/Athens"},
	{"he-IL", "Asia/Jerusalem"},
	{"id-ID", "Asia/Jakarta"},
	{"ms-MY", "Asia/Kuala_Lumpur"},
	{"en-AU", "Australia/Sydney"},
	{"en-CA", "America/Toronto"},
	{"es-MX", "America/Mexico_City"},
	{"en-ZA", "Africa/Johannesburg"},
}

// Pairs returns a copy of the built-in locale and timezone table.
func Pairs() []LocaleTimezone {
	return append([]LocaleTimezone(nil), localeTimezones...)
}
