package store

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/neuralplan/neuralplan-backend/internal/types"
)

// ParseScheduleUpload reads a user-provided timetable CSV. Day, Time and
// Subject are required; a missing Duration column is healed to the
// 60-minute default and reported through durationDefaulted so the caller
// can warn instead of reject. Status, Actual_Study and Custom_Subject
// are ignored here: an uploaded master starts clean.
func ParseScheduleUpload(r io.Reader) (rows []types.ScheduleRow, durationDefaulted bool, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, false, fmt.Errorf("parse upload: %w", err)
	}
	if len(records) == 0 {
		return nil, false, fmt.Errorf("upload is empty, missing header row")
	}

	cols := indexColumns(records[0])
	for _, required := range []string{"day", "time", "subject"} {
		if _, ok := cols[required]; !ok {
			return nil, false, fmt.Errorf("upload missing required column %q", required)
		}
	}
	_, hasDuration := cols["duration"]

	rows = make([]types.ScheduleRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		row := types.ScheduleRow{
			Day:     field(rec, cols, "day"),
			Time:    field(rec, cols, "time"),
			Subject: field(rec, cols, "subject"),
			Status:  types.StatusActive,
		}
		if row.Day == "" || row.Time == "" || row.Subject == "" {
			return nil, false, fmt.Errorf("upload row %d is missing day, time or subject", i+1)
		}
		row.Duration = intField(rec, cols, "duration", types.DefaultDuration)
		if row.Duration < types.MinDuration {
			row.Duration = types.DefaultDuration
		}
		if row.Duration > types.MaxDuration {
			row.Duration = types.MaxDuration
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, false, fmt.Errorf("upload has a header but no rows")
	}
	return rows, !hasDuration, nil
}
