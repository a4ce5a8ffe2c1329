// Package whatsapp builds wa.me links and renders message templates for
// Indonesian phone numbers and Rupiah amounts.
package whatsapp

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/sobri3195/WarungWA/internal/platform/textutil"
)

const linkBase = "https://wa.me/"

var rupiahPrinter = message.NewPrinter(language.Indonesian)

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatRupiah renders an integer Rupiah amount with Indonesian grouping, e.g. "Rp 35.000".
func FormatRupiah(amount int64) string {
	return rupiahPrinter.Sprintf("Rp %v", number.Decimal(amount))
}

// FormatDate renders a date the way Indonesian customers expect, e.g. "17 Agustus 2026".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), indonesianMonths[t.Month()-1], t.Year())
}

// NormalizePhone strips non-digits and rewrites local prefixes to the
// international form WhatsApp links require: 0812... becomes 62812...
func NormalizePhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	cleaned := digits.String()
	switch {
	case cleaned == "":
		return ""
	case strings.HasPrefix(cleaned, "0"):
		return "62" + cleaned[1:]
	case strings.HasPrefix(cleaned, "62"):
		return cleaned
	default:
		return "62" + cleaned
	}
}

// Link builds a wa.me deep link carrying the pre-filled message.
func Link(phone, body string) string {
	normalized := NormalizePhone(phone)
	if body == "" {
		return linkBase + normalized
	}
	return linkBase + normalized + "?text=" + url.QueryEscape(body)
}

// Render substitutes {key} placeholders in the template body. Unknown
// placeholders are left in place so typos stay visible to the shop owner.
func Render(body string, vars map[string]string) string {
	vars = textutil.NormalizeStringMap(vars)
	if len(vars) == 0 {
		return body
	}
	replacements := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		replacements = append(replacements, "{"+key+"}", value)
	}
	return strings.NewReplacer(replacements...).Replace(body)
}

// WithinOperatingHours reports whether the clock falls inside the open window.
// Both bounds are "HH:MM"; a window that ends before it starts spans midnight.
func WithinOperatingHours(open, close string, now time.Time) bool {
	openMin, okOpen := parseClock(open)
	closeMin, okClose := parseClock(close)
	if !okOpen || !okClose {
		return true
	}
	current := now.Hour()*60 + now.Minute()
	if openMin <= closeMin {
		return current >= openMin && current < closeMin
	}
	return current >= openMin || current < closeMin
}

// ValidClock reports whether value parses as an "HH:MM" wall clock.
func ValidClock(value string) bool {
	_, ok := parseClock(value)
	return ok
}

func parseClock(value string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	var hour, minute int
	if _, err := fmt.Sscanf(parts[0], "%d", &hour); err != nil {
		return 0, false
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &minute); err != nil {
		return 0, false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}
