package schedule

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// ClockTime is a time of day in HH:MM format
type ClockTime struct {
	Hour   int
	Minute int
}

// clockRegex matches HH:MM format
var clockRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ParseClockTime parses a time of day in HH:MM format
func ParseClockTime(s string) (ClockTime, error) {
	matches := clockRegex.FindStringSubmatch(s)
	if matches == nil {
		return ClockTime{}, fmt.Errorf("invalid time of day %q: expected HH:MM", s)
	}

	hour, _ := strconv.Atoi(matches[1])
	minute, _ := strconv.Atoi(matches[2])

	if hour > 23 {
		return ClockTime{}, fmt.Errorf("invalid time of day %q: hours must be 0-23", s)
	}
	if minute > 59 {
		return ClockTime{}, fmt.Errorf("invalid time of day %q: minutes must be 0-59", s)
	}

	return ClockTime{Hour: hour, Minute: minute}, nil
}

// ParseClockTimes parses a list of HH:MM strings, sorted and without duplicates
func ParseClockTimes(values []string) ([]ClockTime, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("at least one time of day is required")
	}

	seen := make(map[ClockTime]bool)
	var times []ClockTime
	for _, v := range values {
		ct, err := ParseClockTime(v)
		if err != nil {
			return nil, err
		}
		if seen[ct] {
			continue
		}
		seen[ct] = true
		times = append(times, ct)
	}

	sort.Slice(times, func(i, j int) bool {
		return times[i].Before(times[j])
	})
	return times, nil
}

// String returns the time in HH:MM format
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Before returns true if c is earlier in the day than other
func (c ClockTime) Before(other ClockTime) bool {
	if c.Hour != other.Hour {
		return c.Hour < other.Hour
	}
	return c.Minute < other.Minute
}

// On returns the instant of c on the calendar day of t, in t's location
func (c ClockTime) On(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.Hour, c.Minute, 0, 0, t.Location())
}

// Next returns the first trigger strictly after now. Triggers that already
// passed today roll over to tomorrow, so missed runs are never caught up.
func Next(now time.Time, times []ClockTime) time.Time {
	var next time.Time
	for _, ct := range times {
		candidate := ct.On(now)
		if !candidate.After(now) {
			candidate = ct.On(now.AddDate(0, 0, 1))
		}
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}
	return next
}
