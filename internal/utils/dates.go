package utils

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DateLayout is the wire format for reminder dates (DD/MM/YYYY).
const DateLayout = "02/01/2006"

var (
	normalizer  = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	datePattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	inDaysEs    = regexp.MustCompile(`^en (\d+) dias?$`)
	inDaysEn    = regexp.MustCompile(`^in (\d+) days?$`)
	timePattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)
)

// NormalizeText strips diacritics, lowercases and trims the input so that
// "Mañana", "manana" and " MAÑANA " all compare equal.
func NormalizeText(text string) string {
	stripped, _, err := transform.String(normalizer, text)
	if err != nil {
		stripped = text
	}
	return strings.TrimSpace(strings.ToLower(stripped))
}

// ParseDate turns a normalized date expression into a DD/MM/YYYY string.
// Accepted forms, in order: "hoy"/"today", "manana"/"tomorrow",
// "pasado manana"/"day after tomorrow", "en N dias"/"in N days", and a
// literal DD/MM/YYYY that denotes a real calendar date.
// The input is normalized first, so "Mañana" and "manana" are equivalent.
// Returns false when the input matches none of them.
func ParseDate(text string) (string, bool) {
	input := NormalizeText(text)
	today := time.Now()

	switch input {
	case "hoy", "today":
		return FormatDate(today), true
	case "manana", "tomorrow":
		return FormatDate(today.AddDate(0, 0, 1)), true
	case "pasado manana", "day after tomorrow":
		return FormatDate(today.AddDate(0, 0, 2)), true
	}

	for _, re := range []*regexp.Regexp{inDaysEs, inDaysEn} {
		if m := re.FindStringSubmatch(input); m != nil {
			days, err := strconv.Atoi(m[1])
			if err != nil {
				return "", false
			}
			return FormatDate(today.AddDate(0, 0, days)), true
		}
	}

	if datePattern.MatchString(input) {
		// time.Parse normalizes overflow (31/02 -> 02/03), so require the
		// parsed date to render back to the exact same string.
		parsed, err := time.Parse(DateLayout, input)
		if err == nil && parsed.Format(DateLayout) == input {
			return input, true
		}
	}

	return "", false
}

// ValidateTime reports whether the input is a valid HH:MM between
// 0:00 and 23:59. Minutes must always be two digits.
func ValidateTime(input string) bool {
	return timePattern.MatchString(strings.TrimSpace(input))
}

// FormatDate renders a time as a zero-padded DD/MM/YYYY string.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
