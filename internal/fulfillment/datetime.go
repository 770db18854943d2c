package fulfillment

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseDate accepts YYYY-MM-DD or a {year, month, day} object and returns YYYY-MM-DD.
func ParseDate(value any) (string, error) {
	switch v := value.(type) {
	case string:
		s := strings.TrimSpace(v)
		if len(s) > 10 {
			// Dialog managers sometimes send a full timestamp.
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				return t.Format(time.DateOnly), nil
			}
		}
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return "", fmt.Errorf("date %q is not in YYYY-MM-DD format", s)
		}
		return t.Format(time.DateOnly), nil
	case map[string]any:
		year, okY := wholeNumber(v["year"])
		month, okM := wholeNumber(v["month"])
		day, okD := wholeNumber(v["day"])
		if !okY || !okM || !okD {
			return "", fmt.Errorf("date object needs year, month and day")
		}
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if t.Year() != year || int(t.Month()) != month || t.Day() != day {
			return "", fmt.Errorf("date %04d-%02d-%02d does not exist", year, month, day)
		}
		return t.Format(time.DateOnly), nil
	default:
		return "", fmt.Errorf("unsupported date value %v", value)
	}
}

// ParseTime accepts HH:MM (optionally with seconds) or a {hours, minutes} object and returns HH:MM.
func ParseTime(value any) (string, error) {
	switch v := value.(type) {
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range []string{"15:04", "15:04:05", "3:04pm", "3:04 pm", "3pm", "3 pm"} {
			if t, err := time.Parse(layout, strings.ToLower(s)); err == nil {
				return t.Format("15:04"), nil
			}
		}
		return "", fmt.Errorf("time %q is not in HH:MM format", s)
	case map[string]any:
		hours, okH := wholeNumber(v["hours"])
		if !okH {
			return "", fmt.Errorf("time object needs hours")
		}
		minutes, okM := wholeNumber(v["minutes"])
		if !okM {
			minutes = 0
		}
		if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
			return "", fmt.Errorf("time %02d:%02d is out of range", hours, minutes)
		}
		return fmt.Sprintf("%02d:%02d", hours, minutes), nil
	default:
		return "", fmt.Errorf("unsupported time value %v", value)
	}
}

func wholeNumber(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	default:
		return 0, false
	}
}
