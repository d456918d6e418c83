package model

import (
	"fmt"
	"strings"
	"time"
)

// ClockLayout is the HH:MM form used for timeslot boundaries everywhere
// outside the database.
const ClockLayout = "15:04"

// Timeslot is a fixed (start, end) range bookable once per table per day.
// StartTime and EndTime hold HH:MM strings so they sort lexically in the
// same order as chronologically.
type Timeslot struct {
	ID        uint64 `json:"id"`         // timeslots.id
	StartTime string `json:"start_time"` // timeslots.start_time
	EndTime   string `json:"end_time"`   // timeslots.end_time
}

// Label renders the slot as "10:00-11:00".
func (t Timeslot) Label() string { return t.StartTime + "-" + t.EndTime }

// NormalizeClock accepts "15:04" or the "15:04:05" form returned for MySQL
// TIME columns and returns "15:04".
func NormalizeClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{ClockLayout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(ClockLayout), nil
		}
	}
	return "", fmt.Errorf("invalid clock time %q", s)
}

// ValidateSpan checks that start precedes end once both are normalised.
func ValidateSpan(start, end string) (string, string, error) {
	s, err := NormalizeClock(start)
	if err != nil {
		return "", "", err
	}
	e, err := NormalizeClock(end)
	if err != nil {
		return "", "", err
	}
	if e <= s {
		return "", "", fmt.Errorf("end time %s must be after start time %s", e, s)
	}
	return s, e, nil
}
