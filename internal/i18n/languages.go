package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Fallback is used when no supported language matches.
const Fallback = "en"

// StorageKey is the settings key holding the chosen language.
const StorageKey = "garage-door-web::language"

// Language is one selectable UI language.
type Language struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// languages is ordered as shown in the language picker.
var languages = []Language{
	{Code: "en", Label: "English"},
	{Code: "de", Label: "Deutsch"},
	{Code: "hu", Label: "Magyar"},
	{Code: "ro", Label: "Română"},
	{Code: "pl", Label: "Polski"},
	{Code: "ru", Label: "Русский"},
	{Code: "uk", Label: "Українська"},
	{Code: "cs", Label: "Čeština"},
	{Code: "sk", Label: "Slovenčina"},
}

// Languages returns a copy of the supported language table.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// IsSupported reports whether code is exactly one of the supported codes.
func IsSupported(code string) bool {
	for _, l := range languages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// Normalise maps a preferred locale onto a supported language code.
//
// preferred may be a single tag ("de-AT") or an Accept-Language header
// ("pl-PL,pl;q=0.9,en;q=0.8"). Tags are tried in quality order and matched
// on their base language. Anything unparseable or unmatched yields Fallback.
func Normalise(preferred string) string {
	preferred = strings.TrimSpace(preferred)
	if preferred == "" {
		return Fallback
	}

	tags, _, err := language.ParseAcceptLanguage(preferred)
	if err != nil {
		return Fallback
	}
	for _, tag := range tags {
		base, confidence := tag.Base()
		if confidence == language.No {
			continue
		}
		if code := base.String(); IsSupported(code) {
			return code
		}
	}
	return Fallback
}
