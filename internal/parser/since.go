// Package parser turns human time expressions into time windows for the
// analytics views.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

// Window is a half-open time range [From, To). A zero bound is open.
type Window struct {
	From time.Time
	To   time.Time
}

// SinceError is returned for an expression that could not be parsed.
type SinceError struct {
	Input string
	Cause error
}

func (e *SinceError) Error() string {
	return fmt.Sprintf("invalid time '%s'", e.Input)
}

func (e *SinceError) Unwrap() error {
	return e.Cause
}

// SinceExamples lists accepted forms for help text.
var SinceExamples = []string{
	"7d",
	"24h",
	"2w",
	"this week",
	"last month",
	"2024-01-01",
	"3 days ago",
	"yesterday",
}

// periodRegex matches period expressions like "this week", "last month".
var periodRegex = regexp.MustCompile(`(?i)^(this|current|last|previous)\s+(hour|day|week|month|quarter|year)$`)

// spanRegex matches compact spans like "7d", "2w", "36h".
var spanRegex = regexp.MustCompile(`(?i)^(\d+)\s*(m|h|d|w)$`)

// ParseSince turns an expression into a window relative to now.
// "last week" is a closed window covering the previous week; every other
// form is open-ended up to now.
func ParseSince(input string, now time.Time) (Window, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Window{}, nil
	}

	if match := spanRegex.FindStringSubmatch(input); match != nil {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			return Window{}, &SinceError{Input: input, Cause: err}
		}
		return Window{From: now.Add(-time.Duration(n) * spanUnit(match[2]))}, nil
	}

	if match := periodRegex.FindStringSubmatch(input); match != nil {
		return periodWindow(match[1], match[2], now), nil
	}

	if t, err := time.ParseInLocation("2006-01-02", input, now.Location()); err == nil {
		return Window{From: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return Window{From: t}, nil
	}

	cfg := &dateparser.Configuration{
		CurrentTime: now,
	}
	result, err := dateparser.Parse(cfg, input)
	if err != nil {
		return Window{}, &SinceError{Input: input, Cause: err}
	}
	if result.Time.After(now) {
		return Window{}, &SinceError{Input: input, Cause: fmt.Errorf("time is in the future")}
	}
	return Window{From: result.Time}, nil
}

func spanUnit(unit string) time.Duration {
	switch strings.ToLower(unit) {
	case "m":
		return time.Minute
	case "h":
		return time.Hour
	case "w":
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// periodWindow handles "this week", "last month" and friends.
func periodWindow(modifier, period string, now time.Time) Window {
	last := strings.EqualFold(modifier, "last") || strings.EqualFold(modifier, "previous")

	var start, next time.Time
	switch strings.ToLower(period) {
	case "hour":
		start = time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
		next = start.Add(time.Hour)
		if last {
			start, next = start.Add(-time.Hour), start
		}
	case "day":
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		next = start.AddDate(0, 0, 1)
		if last {
			start, next = start.AddDate(0, 0, -1), start
		}
	case "week":
		// Weeks start on Monday.
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start = time.Date(now.Year(), now.Month(), now.Day()-weekday+1, 0, 0, 0, 0, now.Location())
		next = start.AddDate(0, 0, 7)
		if last {
			start, next = start.AddDate(0, 0, -7), start
		}
	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		next = start.AddDate(0, 1, 0)
		if last {
			start, next = start.AddDate(0, -1, 0), start
		}
	case "quarter":
		quarter := (int(now.Month()) - 1) / 3
		start = time.Date(now.Year(), time.Month(quarter*3+1), 1, 0, 0, 0, 0, now.Location())
		next = start.AddDate(0, 3, 0)
		if last {
			start, next = start.AddDate(0, -3, 0), start
		}
	default: // year
		start = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		next = start.AddDate(1, 0, 0)
		if last {
			start, next = start.AddDate(-1, 0, 0), start
		}
	}

	if last {
		return Window{From: start, To: next}
	}
	return Window{From: start}
}
