// Package cron parses and validates the seconds-granular cron patterns used
// by tracker schedules and the engine's recurring jobs.
package cron

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// parser runs in "seconds required, day-of-month AND day-of-week" mode.
var parser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// aliases expand to fixed seven-field forms (seconds first, trailing year)
// before parsing. Lookup is case-insensitive.
var aliases = map[string]string{
	"@hourly":   "0 0 * * * * *",
	"@daily":    "0 0 0 * * * *",
	"@weekly":   "0 0 0 * * 0 *",
	"@monthly":  "0 0 0 1 * * *",
	"@yearly":   "0 0 0 1 1 * *",
	"@annually": "0 0 0 1 1 * *",
}

// Normalize expands @-aliases and trims the optional trailing year field,
// returning the six-field pattern understood by the parser.
func Normalize(pattern string) (string, error) {
	trimmed := strings.TrimSpace(pattern)
	if expanded, ok := aliases[strings.ToLower(trimmed)]; ok {
		trimmed = expanded
	}

	fields := strings.Fields(trimmed)
	switch len(fields) {
	case 6:
		return strings.Join(fields, " "), nil
	case 7:
		// The year field is accepted for compatibility but not constrained;
		// anything other than a wildcard would silently be ignored.
		if fields[6] != "*" {
			return "", fmt.Errorf("cron year field must be %q, got %q", "*", fields[6])
		}
		return strings.Join(fields[:6], " "), nil
	default:
		return "", fmt.Errorf("cron pattern must have 6 or 7 fields, got %d", len(fields))
	}
}

// Parse validates a pattern and returns its schedule.
func Parse(pattern string) (cron.Schedule, error) {
	normalized, err := Normalize(pattern)
	if err != nil {
		return nil, err
	}

	schedule, err := parser.Parse(normalized)
	if err != nil {
		return nil, fmt.Errorf("parse cron pattern %q: %w", pattern, err)
	}
	return schedule, nil
}

// NextAfter returns the first occurrence strictly after the given instant.
func NextAfter(pattern string, after time.Time) (time.Time, error) {
	schedule, err := Parse(pattern)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Next(after), nil
}

// minIntervalOccurrences is how many upcoming occurrences MinInterval samples.
const minIntervalOccurrences = 100

// MinInterval returns the smallest gap between the next occurrences of the
// pattern, starting from the given instant. Patterns that stop producing
// occurrences are treated as infinitely sparse.
func MinInterval(pattern string, from time.Time) (time.Duration, error) {
	schedule, err := Parse(pattern)
	if err != nil {
		return 0, err
	}

	minGap := time.Duration(0)
	prev := schedule.Next(from)
	for i := 1; i < minIntervalOccurrences; i++ {
		next := schedule.Next(prev)
		if next.IsZero() {
			break
		}
		gap := next.Sub(prev)
		if minGap == 0 || gap < minGap {
			minGap = gap
		}
		prev = next
	}

	return minGap, nil
}
