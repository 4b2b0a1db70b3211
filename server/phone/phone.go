// Package phone canonicalizes free-form phone numbers into a single
// dialable, '+'-prefixed representation. Normalization happens once at
// the API boundary; everything downstream trusts the normalized value.
package phone

import "strings"

// Normalize strips spacing characters and prefixes the default country
// code when the number looks local:
//   - already '+'-prefixed     -> returned as-is
//   - national trunk prefix 0  -> 0 replaced by '+<countryCode>'
//   - bare local number        -> '+<countryCode>' prepended
//
// Digit counts are not validated; garbage in stays garbage out.
func Normalize(raw, countryCode string) string {
	number := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(raw))

	switch {
	case number == "":
		return ""
	case strings.HasPrefix(number, "+"):
		return number
	case strings.HasPrefix(number, "0"):
		return "+" + countryCode + number[1:]
	default:
		return "+" + countryCode + number
	}
}
