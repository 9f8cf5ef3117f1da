package shared

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatDuration renders seconds as m:ss, or h:mm:ss past an hour.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatAlbumDuration renders a total length in milliseconds as "1 h 5 min" or "42 min".
func FormatAlbumDuration(totalMS int64) string {
	minutes := totalMS / 60000
	hours := minutes / 60
	if hours > 0 {
		return fmt.Sprintf("%d h %d min", hours, minutes%60)
	}
	return fmt.Sprintf("%d min", minutes)
}

// FormatNumber inserts thousands separators: 1234567 -> "1,234,567".
func FormatNumber(n int) string {
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	digits := strconv.Itoa(n)
	if len(digits) <= 3 {
		return sign + digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}

// VisibilityString maps a playlist's public flag to a label.
func VisibilityString(public bool) string {
	if public {
		return "Public"
	}
	return "Private"
}

// Truncate shortens s to at most n runes, ending with an ellipsis when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

// NormalizeTrackKey builds a case- and whitespace-insensitive title|artist key.
func NormalizeTrackKey(title, artist string) string {
	norm := func(s string) string { return strings.Join(strings.Fields(strings.ToLower(s)), " ") }
	return norm(title) + "|" + norm(artist)
}
