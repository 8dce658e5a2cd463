package taskcard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatDate turns "2024-01-22" into "January 22nd, 2024".
func FormatDate(value string) (string, error) {
	parts := strings.Split(strings.TrimSpace(value), "-")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid date %q", value)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", fmt.Errorf("invalid year in %q", value)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return "", fmt.Errorf("invalid month in %q", value)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 {
		return "", fmt.Errorf("invalid day in %q", value)
	}
	if t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC); t.Day() != day {
		return "", fmt.Errorf("invalid day in %q", value)
	}

	return fmt.Sprintf("%s %s, %d", time.Month(month), humanize.Ordinal(day), year), nil
}

func displayDate(value string) string {
	formatted, err := FormatDate(value)
	if err != nil {
		return value
	}
	return formatted
}
