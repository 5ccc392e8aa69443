package cell

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// FlagMarker is the cell content that marks a fixed or rigid activity.
	FlagMarker = "x"
	// InvalidNumber is rendered in place of a non-finite number.
	InvalidNumber = "NaN"

	// MinutesPerDay is the length of the clock used by plan rows.
	MinutesPerDay = 24 * 60
)

// ParseTimeToMinute converts an "HH:MM" cell into a minute of the day.
// Hours wrap at 24 and minutes at 60; unparsable halves count as 0. Fields
// after the minutes, such as seconds, are ignored.
func ParseTimeToMinute(s string) int {
	parts := strings.Split(s, ":")
	h := atoiOrZero(parts[0]) % 24
	m := 0
	if len(parts) > 1 {
		m = atoiOrZero(parts[1]) % 60
	}
	return h*60 + m
}

// FormatMinuteToTime renders a minute offset as a zero-padded "HH:MM" clock
// time. Offsets past midnight (or before it) wrap around the day.
func FormatMinuteToTime(m int) string {
	m %= MinutesPerDay
	if m < 0 {
		m += MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseFlag reports whether the cell holds the flag marker.
func ParseFlag(s string) bool { return s == FlagMarker }

// FormatFlag renders b as the flag marker or an empty cell.
func FormatFlag(b bool) string {
	if b {
		return FlagMarker
	}
	return ""
}

// FormatNumber renders f as a decimal string. NaN and infinities become
// InvalidNumber so the cell stays printable.
func FormatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return InvalidNumber
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseLength parses a length cell in minutes. A decimal part is truncated
// and anything that is not a number yields 0.
func ParseLength(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
