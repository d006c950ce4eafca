package types

import (
	"fmt"
	"time"
)

const (
	StatusActive    = "Active"
	StatusCancelled = "Cancelled"
)

const (
	// MinDuration and MaxDuration bound a single class slot in minutes.
	MinDuration = 1
	MaxDuration = 480

	DefaultDuration = 60
)

// ScheduleRow is one class slot of the weekly timetable.
type ScheduleRow struct {
	Day           string `json:"day"`
	Time          string `json:"time"`
	Subject       string `json:"subject"`
	Duration      int    `json:"duration"`
	Status        string `json:"status"`
	ActualStudy   int    `json:"actual_study"`
	CustomSubject string `json:"custom_subject"`
}

// ScheduleTable is the ordered set of slots for one day's working copy.
// Row order is display order. Date is the calendar day the table was
// derived for; zero for the master and default schedules.
type ScheduleTable struct {
	Rows []ScheduleRow `json:"rows"`
	Date time.Time     `json:"date,omitempty"`
}

func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusCancelled
}

// ResetForDay returns a copy of the table with every transient field
// forced back to its start-of-day value and the given date stamped on.
func (t *ScheduleTable) ResetForDay(day time.Time) *ScheduleTable {
	out := &ScheduleTable{Rows: make([]ScheduleRow, len(t.Rows)), Date: day}
	for i, r := range t.Rows {
		r.Status = StatusActive
		r.ActualStudy = 0
		r.CustomSubject = ""
		out.Rows[i] = r
	}
	return out
}

// Clone returns a deep copy so callers can hand tables across the API
// boundary without sharing the session's backing slice.
func (t *ScheduleTable) Clone() *ScheduleTable {
	out := &ScheduleTable{Rows: make([]ScheduleRow, len(t.Rows)), Date: t.Date}
	copy(out.Rows, t.Rows)
	return out
}

// Cancelled returns the rows currently marked cancelled, in table order.
func (t *ScheduleTable) Cancelled() []ScheduleRow {
	var out []ScheduleRow
	for _, r := range t.Rows {
		if r.Status == StatusCancelled {
			out = append(out, r)
		}
	}
	return out
}

// TimeSaved is the total minutes freed by cancellations.
func (t *ScheduleTable) TimeSaved() int {
	total := 0
	for _, r := range t.Rows {
		if r.Status == StatusCancelled {
			total += r.Duration
		}
	}
	return total
}

func (r *ScheduleRow) Validate() error {
	if r.Day == "" || r.Time == "" || r.Subject == "" {
		return fmt.Errorf("row needs day, time and subject")
	}
	if r.Duration < MinDuration || r.Duration > MaxDuration {
		return fmt.Errorf("duration %d out of range [%d, %d]", r.Duration, MinDuration, MaxDuration)
	}
	if r.Status != "" && !ValidStatus(r.Status) {
		return fmt.Errorf("unknown status %q", r.Status)
	}
	if r.ActualStudy < 0 || r.ActualStudy > MaxDuration {
		return fmt.Errorf("actual study %d out of range [0, %d]", r.ActualStudy, MaxDuration)
	}
	return nil
}
