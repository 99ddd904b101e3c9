package notify

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/5TUM8L3/quakealert/internal/quake"
)

// TimeLayout renders occurrence times in alerts.
const TimeLayout = "2006-01-02 15:04 UTC"

// markdownMeta lists the characters legacy Markdown treats as entity
// delimiters. They can only be escaped outside an entity.
const markdownMeta = "_*`["

// italic wraps s in an italic entity. Each metacharacter closes the current
// run, is emitted backslash-escaped between entities, and a new run opens
// after it, so "a_b" becomes "_a_\__b_".
func italic(s string) string {
	var b strings.Builder
	open := false
	for _, r := range s {
		if strings.ContainsRune(markdownMeta, r) {
			if open {
				b.WriteByte('_')
				open = false
			}
			b.WriteByte('\\')
			b.WriteRune(r)
			continue
		}
		if !open {
			b.WriteByte('_')
			open = true
		}
		b.WriteRune(r)
	}
	if open {
		b.WriteByte('_')
	}
	return b.String()
}

// cleanText composes to NFC and drops control characters so feed text cannot
// break the message layout.
func cleanText(s string) string {
	t := transform.Chain(norm.NFC, runes.Remove(runes.In(unicode.Cc)))
	res, _, err := transform.String(t, s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(res)
}

// formatMagnitude keeps the feed's precision but always shows one decimal.
func formatMagnitude(m float64) string {
	s := strconv.FormatFloat(m, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Format renders ev as a Telegram Markdown message. It reports false when the
// magnitude, place or time is missing; such events must not be sent.
func Format(ev quake.Event) (string, bool) {
	if !ev.Complete() {
		return "", false
	}
	place := cleanText(*ev.Place)
	if place == "" {
		return "", false
	}
	var b strings.Builder
	b.WriteString("*🌎 M")
	b.WriteString(formatMagnitude(*ev.Magnitude))
	b.WriteString(" earthquake*\n")
	b.WriteString(italic(place))
	b.WriteString("\n🕒 `")
	b.WriteString(ev.Time().Format(TimeLayout))
	b.WriteString("`")
	if u := strings.TrimSpace(ev.URL); u != "" {
		b.WriteString("\n[USGS report](")
		b.WriteString(strings.ReplaceAll(u, ")", "%29"))
		b.WriteString(")")
	}
	return b.String(), true
}
