package types

import "time"

// HistoryEntry is one day's productivity summary. Entries are unique on
// Date; a later save for the same day replaces the earlier metrics.
type HistoryEntry struct {
	Date             time.Time `json:"date"`
	TimeSaved        int       `json:"time_saved"`
	TimeUsed         int       `json:"time_used"`
	Efficiency       int       `json:"efficiency"`
	ClassesCancelled int       `json:"classes_cancelled"`
}

// SameDay reports whether the entry belongs to the given calendar date.
func (e *HistoryEntry) SameDay(day time.Time) bool {
	y1, m1, d1 := e.Date.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
