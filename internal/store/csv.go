package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/neuralplan/neuralplan-backend/internal/logger"
	"github.com/neuralplan/neuralplan-backend/internal/types"
)

// Table names handled by the store. Each maps to <name>.csv in the data
// directory.
const (
	TableDefaultSchedule = "default_schedule"
	TableUserSchedule    = "user_schedule"
	TableDailyState      = "daily_state"
	TableHistory         = "history"
)

const dateLayout = "2006-01-02"

var ErrNotFound = errors.New("table not found")

// CSVStore reads and writes the app's tables as header-rowed CSV files.
// Loading never touches the file; saves are whole-file rewrites staged
// through a temp file so a reader never observes a partial table.
type CSVStore struct {
	dir string
	log *logger.Logger
}

func NewCSVStore(dir string, baseLog *logger.Logger) (*CSVStore, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &CSVStore{dir: dir, log: baseLog.With("service", "CSVStore")}, nil
}

func (s *CSVStore) path(name string) string {
	return filepath.Join(s.dir, name+".csv")
}

func (s *CSVStore) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

// Delete removes the named table. Deleting a missing table is a no-op.
func (s *CSVStore) Delete(name string) error {
	err := os.Remove(s.path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// LoadSchedule reads a schedule-shaped table and normalizes it so every
// consumer sees a fully populated row shape: absent Status, Actual_Study
// and Custom_Subject columns are synthesized with their defaults, and
// unparseable durations fall back to the 60-minute default. Day, Time
// and Subject must be present.
func (s *CSVStore) LoadSchedule(name string) (*types.ScheduleTable, error) {
	records, err := s.read(name)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty file, missing header row", name)
	}

	cols := indexColumns(records[0])
	for _, required := range []string{"day", "time", "subject"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%s: missing required column %q", name, required)
		}
	}

	table := &types.ScheduleTable{Rows: make([]types.ScheduleRow, 0, len(records)-1)}
	for _, rec := range records[1:] {
		row := types.ScheduleRow{
			Day:      field(rec, cols, "day"),
			Time:     field(rec, cols, "time"),
			Subject:  field(rec, cols, "subject"),
			Duration: intField(rec, cols, "duration", types.DefaultDuration),
			Status:   field(rec, cols, "status"),
		}
		if row.Status == "" {
			row.Status = types.StatusActive
		}
		row.ActualStudy = intField(rec, cols, "actual_study", 0)
		row.CustomSubject = field(rec, cols, "custom_subject")
		table.Rows = append(table.Rows, row)

		if table.Date.IsZero() {
			if raw := field(rec, cols, "date"); raw != "" {
				if d, perr := time.Parse(dateLayout, raw); perr == nil {
					table.Date = d
				}
			}
		}
	}
	return table, nil
}

// SaveSchedule overwrites the named table. A stamped table carries the
// tracking columns and writes its Date into every row; unstamped tables
// (master and default) keep the four seed columns only.
func (s *CSVStore) SaveSchedule(name string, table *types.ScheduleTable) error {
	stamped := !table.Date.IsZero()
	header := []string{"Day", "Time", "Subject", "Duration"}
	if stamped {
		header = append(header, "Status", "Actual_Study", "Custom_Subject", "Date")
	}

	records := make([][]string, 0, len(table.Rows)+1)
	records = append(records, header)
	for _, r := range table.Rows {
		rec := []string{
			r.Day,
			r.Time,
			r.Subject,
			strconv.Itoa(r.Duration),
		}
		if stamped {
			rec = append(rec,
				r.Status,
				strconv.Itoa(r.ActualStudy),
				r.CustomSubject,
				table.Date.Format(dateLayout),
			)
		}
		records = append(records, rec)
	}
	return s.write(name, records)
}

// LoadHistory reads the daily summary table. A missing file is
// ErrNotFound; rows with unparseable dates are dropped.
func (s *CSVStore) LoadHistory() ([]types.HistoryEntry, error) {
	records, err := s.read(TableHistory)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []types.HistoryEntry{}, nil
	}

	cols := indexColumns(records[0])
	entries := make([]types.HistoryEntry, 0, len(records)-1)
	for _, rec := range records[1:] {
		raw := field(rec, cols, "date")
		date, perr := time.Parse(dateLayout, raw)
		if perr != nil {
			s.log.Warn("Skipping history row with bad date", "value", raw, "error", perr)
			continue
		}
		entries = append(entries, types.HistoryEntry{
			Date:             date,
			TimeSaved:        intField(rec, cols, "time_saved", 0),
			TimeUsed:         intField(rec, cols, "time_used", 0),
			Efficiency:       intField(rec, cols, "efficiency", 0),
			ClassesCancelled: intField(rec, cols, "classes_cancelled", 0),
		})
	}
	return entries, nil
}

func (s *CSVStore) SaveHistory(entries []types.HistoryEntry) error {
	records := make([][]string, 0, len(entries)+1)
	records = append(records, []string{"Date", "Time_Saved", "Time_Used", "Efficiency", "Classes_Cancelled"})
	for _, e := range entries {
		records = append(records, []string{
			e.Date.Format(dateLayout),
			strconv.Itoa(e.TimeSaved),
			strconv.Itoa(e.TimeUsed),
			strconv.Itoa(e.Efficiency),
			strconv.Itoa(e.ClassesCancelled),
		})
	}
	return s.write(TableHistory, records)
}

func (s *CSVStore) read(name string) ([][]string, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return records, nil
}

func (s *CSVStore) write(name string, records [][]string) error {
	tmp, err := os.CreateTemp(s.dir, name+"-*.csv")
	if err != nil {
		return fmt.Errorf("stage %s: %w", name, err)
	}
	tmpPath := tmp.Name()

	writer := csv.NewWriter(tmp)
	if err := writer.WriteAll(records); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("flush %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, s.path(name)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// indexColumns maps normalized header names to their positions so files
// survive casing and whitespace drift across editors.
func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, seen := cols[key]; !seen {
			cols[key] = i
		}
	}
	return cols
}

func field(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func intField(rec []string, cols map[string]int, name string, def int) int {
	raw := field(rec, cols, name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		// Editors sometimes hand back floats ("60.0").
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return def
		}
		return int(f)
	}
	return v
}
