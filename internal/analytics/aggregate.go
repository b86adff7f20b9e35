// Package analytics turns a project's scan log into the daily series and
// history views. Everything here is pure: no I/O, no shared state.
package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/qrdeck/qrdeck/internal/model"
)

// DayLayout is the label format of a daily bucket.
const DayLayout = "2006-01-02"

// Series is the daily scan count derived from an event log.
// Labels are strictly ascending and Counts[i] belongs to Labels[i].
type Series struct {
	Counts []int    `json:"counts"`
	Labels []string `json:"labels"`
	// Skipped counts events whose timestamp could not be placed on a day.
	// Total() + Skipped always equals the number of input events.
	Skipped int `json:"skipped"`
}

// Total returns the number of bucketed events.
func (s Series) Total() int {
	total := 0
	for _, c := range s.Counts {
		total += c
	}
	return total
}

// Day returns the UTC calendar day of an event timestamp. Timestamps that
// are not RFC 3339 fall back to their first ten characters when those form
// a date.
func Day(timestamp string) (string, bool) {
	if t, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
		return t.UTC().Format(DayLayout), true
	}
	if len(timestamp) >= len(DayLayout) {
		prefix := timestamp[:len(DayLayout)]
		if _, err := time.Parse(DayLayout, prefix); err == nil {
			return prefix, true
		}
	}
	return "", false
}

// Aggregate buckets events by UTC day.
func Aggregate(events []model.ScanEvent) Series {
	buckets := make(map[string]int)
	skipped := 0
	for _, e := range events {
		day, ok := Day(strings.TrimSpace(e.Timestamp))
		if !ok {
			skipped++
			continue
		}
		buckets[day]++
	}

	labels := make([]string, 0, len(buckets))
	for day := range buckets {
		labels = append(labels, day)
	}
	// YYYY-MM-DD sorts lexically in date order.
	sort.Strings(labels)

	counts := make([]int, len(labels))
	for i, day := range labels {
		counts[i] = buckets[day]
	}

	return Series{Counts: counts, Labels: labels, Skipped: skipped}
}

// History returns the events most recent first. Events with equal
// timestamps keep reversed input order, so the latest-appended comes first.
// Events without a usable timestamp go last, also in reversed input order.
func History(events []model.ScanEvent) []model.ScanEvent {
	out := make([]model.ScanEvent, len(events))
	for i, e := range events {
		out[len(events)-1-i] = e
	}

	sort.SliceStable(out, func(i, j int) bool {
		ti, okI := eventTime(out[i])
		tj, okJ := eventTime(out[j])
		if !okI || !okJ {
			return okI && !okJ
		}
		return ti.After(tj)
	})
	return out
}

// Between returns the events whose timestamp falls in [from, to). A zero
// bound is open. Events with unparseable timestamps are dropped.
func Between(events []model.ScanEvent, from, to time.Time) []model.ScanEvent {
	out := make([]model.ScanEvent, 0, len(events))
	for _, e := range events {
		t, ok := eventTime(e)
		if !ok {
			continue
		}
		if !from.IsZero() && t.Before(from) {
			continue
		}
		if !to.IsZero() && !t.Before(to) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func eventTime(e model.ScanEvent) (time.Time, bool) {
	t, err := e.Time()
	if err == nil {
		return t, true
	}
	day, ok := Day(e.Timestamp)
	if !ok {
		return time.Time{}, false
	}
	t, err = time.Parse(DayLayout, day)
	return t, err == nil
}
