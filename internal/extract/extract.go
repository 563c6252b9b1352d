package extract

import (
	"regexp"
	"strings"
)

// Sentinel values returned when a note's caption cannot be parsed.
const (
	UnknownTemperature = "Inconnu"
	UnknownWeather     = "Inconnu"
	SummaryUnavailable = "Information non disponible"
)

var (
	imageEmbedPattern = regexp.MustCompile(`!\[.*?\]\(.*?\)`)
	captionPattern    = regexp.MustCompile(`###\s+(.+)`)
)

// captionLine returns the first "###" heading text after the first image
// embed. The caption carries "<date>, <temperature>, <weather>, <location>".
func captionLine(doc []byte) (string, bool) {
	loc := imageEmbedPattern.FindIndex(doc)
	if loc == nil {
		return "", false
	}
	m := captionPattern.FindSubmatch(doc[loc[1]:])
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(string(m[1])), true
}

// Weather extracts the temperature and weather strings from a note document.
// Both fall back to the unknown sentinel when the caption is missing or has
// fewer than three comma-separated parts; ok reports whether real values
// were found.
func Weather(doc []byte) (temperature, weather string, ok bool) {
	caption, found := captionLine(doc)
	if !found {
		return UnknownTemperature, UnknownWeather, false
	}
	parts := strings.Split(caption, ",")
	if len(parts) < 3 {
		return UnknownTemperature, UnknownWeather, false
	}
	return strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]), true
}

// Summary extracts the note's caption line, truncated to maxLen runes.
func Summary(doc []byte, maxLen int) (string, bool) {
	caption, found := captionLine(doc)
	if !found {
		return SummaryUnavailable, false
	}
	return Truncate(caption, maxLen), true
}

// Truncate shortens s to at most maxLen runes, replacing the tail with "...".
func Truncate(s string, maxLen int) string {
	if maxLen < 3 {
		maxLen = 3
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	head := strings.TrimSpace(string(runes[:maxLen-3]))
	return head + "..."
}
