package measurement

import (
	"fmt"
	"strings"
)

// NormalizeDate rewrites a US slash-formatted date (MM/DD/YYYY, optionally
// followed by a time of day) into the canonical YYYY-MM-DD HH:MM:SS form,
// defaulting the time of day to midnight. Values without a slash are assumed
// to already be canonical and pass through unchanged, which makes the
// function idempotent.
func NormalizeDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if !strings.Contains(value, "/") {
		return value, nil
	}

	datePart, timePart, _ := strings.Cut(value, " ")
	parts := strings.Split(datePart, "/")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid date %q: expected MM/DD/YYYY", value)
	}

	month, day, year := pad2(parts[0]), pad2(parts[1]), parts[2]
	if len(year) != 4 {
		return "", fmt.Errorf("invalid date %q: expected a four digit year", value)
	}
	if timePart == "" {
		timePart = "00:00:00"
	}

	return fmt.Sprintf("%s-%s-%s %s", year, month, day, timePart), nil
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
