package services

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/neuralplan/neuralplan-backend/internal/apierr"
	"github.com/neuralplan/neuralplan-backend/internal/logger"
	"github.com/neuralplan/neuralplan-backend/internal/repos"
	"github.com/neuralplan/neuralplan-backend/internal/store"
	"github.com/neuralplan/neuralplan-backend/internal/types"
)

type SaveResult struct {
	CancelledCount int `json:"cancelled_count"`
}

type UploadResult struct {
	Rows              int  `json:"rows"`
	DurationDefaulted bool `json:"duration_defaulted"`
}

type ScheduleMetrics struct {
	TotalClasses     int `json:"total_classes"`
	ActiveClasses    int `json:"active_classes"`
	CancelledClasses int `json:"cancelled_classes"`
	FreeMinutes      int `json:"free_minutes"`
}

// RowUpdate carries the fields a single edit wants to change; nil means
// leave the field alone.
type RowUpdate struct {
	Status        *string `json:"status"`
	ActualStudy   *int    `json:"actual_study"`
	CustomSubject *string `json:"custom_subject"`
}

// ScheduleService is the mutation surface over today's table: row edits,
// the daily save (which feeds the history upsert), and master-schedule
// replacement.
type ScheduleService interface {
	Table() (*types.ScheduleTable, error)
	Metrics() (ScheduleMetrics, error)
	UpdateRow(rowID int, upd RowUpdate) error
	SaveDaily() (SaveResult, error)
	UploadMasterCSV(r io.Reader) (UploadResult, error)
	UploadMasterRows(rows []types.ScheduleRow) (UploadResult, error)
	RestoreSample() error
}

type scheduleService struct {
	log          *logger.Logger
	session      SessionService
	scheduleRepo repos.ScheduleRepo
	historyRepo  repos.HistoryRepo
	now          func() time.Time
}

func NewScheduleService(
	baseLog *logger.Logger,
	session SessionService,
	scheduleRepo repos.ScheduleRepo,
	historyRepo repos.HistoryRepo,
) ScheduleService {
	return &scheduleService{
		log:          baseLog.With("service", "ScheduleService"),
		session:      session,
		scheduleRepo: scheduleRepo,
		historyRepo:  historyRepo,
		now:          time.Now,
	}
}

func (s *scheduleService) Table() (*types.ScheduleTable, error) {
	return s.session.Current()
}

func (s *scheduleService) Metrics() (ScheduleMetrics, error) {
	table, err := s.session.Current()
	if err != nil {
		return ScheduleMetrics{}, err
	}
	m := ScheduleMetrics{TotalClasses: len(table.Rows)}
	for _, r := range table.Rows {
		if r.Status == types.StatusCancelled {
			m.CancelledClasses++
			m.FreeMinutes += r.Duration
		} else {
			m.ActiveClasses++
		}
	}
	return m, nil
}

// UpdateRow applies one edit as a unit: every field is validated before
// anything is written, so a rejected request leaves the table untouched.
func (s *scheduleService) UpdateRow(rowID int, upd RowUpdate) error {
	if upd.Status == nil && upd.ActualStudy == nil && upd.CustomSubject == nil {
		return apierr.Newf(http.StatusBadRequest, "empty_update", "update names no fields")
	}
	if upd.Status != nil && !types.ValidStatus(*upd.Status) {
		return apierr.Newf(http.StatusBadRequest, "invalid_status", "status must be %q or %q", types.StatusActive, types.StatusCancelled)
	}
	if upd.ActualStudy != nil && (*upd.ActualStudy < 0 || *upd.ActualStudy > types.MaxDuration) {
		return apierr.Newf(http.StatusBadRequest, "invalid_actual_study", "actual study minutes must be between 0 and %d", types.MaxDuration)
	}
	return s.session.Update(func(t *types.ScheduleTable) error {
		if rowID < 0 || rowID >= len(t.Rows) {
			return apierr.Newf(http.StatusNotFound, "row_not_found", "no schedule row %d", rowID)
		}
		row := &t.Rows[rowID]
		if upd.Status != nil {
			row.Status = *upd.Status
		}
		if upd.ActualStudy != nil {
			row.ActualStudy = *upd.ActualStudy
		}
		if upd.CustomSubject != nil {
			row.CustomSubject = *upd.CustomSubject
		}
		return nil
	})
}

// SaveDaily persists today's table and folds its cancelled subset into
// the history table. Saving twice on the same day replaces that day's
// history row rather than accumulating.
func (s *scheduleService) SaveDaily() (SaveResult, error) {
	var result SaveResult
	err := s.session.Update(func(t *types.ScheduleTable) error {
		if err := s.scheduleRepo.SaveDaily(t); err != nil {
			return fmt.Errorf("save daily state: %w", err)
		}
		cancelled := t.Cancelled()
		if err := s.upsertToday(t.Date, cancelled); err != nil {
			return err
		}
		result.CancelledCount = len(cancelled)
		return nil
	})
	if err != nil {
		return SaveResult{}, err
	}
	s.log.Info("Daily status saved", "cancelled", result.CancelledCount)
	return result, nil
}

func (s *scheduleService) upsertToday(day time.Time, cancelled []types.ScheduleRow) error {
	timeSaved := 0
	timeUsed := 0
	for _, r := range cancelled {
		timeSaved += r.Duration
		timeUsed += r.ActualStudy
	}
	efficiency := 0
	if timeSaved > 0 {
		efficiency = int(math.Round(float64(timeUsed) / float64(timeSaved) * 100))
	}
	entry := types.HistoryEntry{
		Date:             day,
		TimeSaved:        timeSaved,
		TimeUsed:         timeUsed,
		Efficiency:       efficiency,
		ClassesCancelled: len(cancelled),
	}

	entries, err := s.historyRepo.All()
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	replaced := false
	for i := range entries {
		if entries[i].SameDay(day) {
			entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}
	if err := s.historyRepo.Replace(entries); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

func (s *scheduleService) UploadMasterCSV(r io.Reader) (UploadResult, error) {
	rows, durationDefaulted, err := store.ParseScheduleUpload(r)
	if err != nil {
		return UploadResult{}, apierr.New(http.StatusBadRequest, "invalid_upload", err)
	}
	result, err := s.replaceMaster(rows)
	if err != nil {
		return UploadResult{}, err
	}
	result.DurationDefaulted = durationDefaulted
	return result, nil
}

// UploadMasterRows installs rows that already passed schema validation,
// e.g. a vision extraction result.
func (s *scheduleService) UploadMasterRows(rows []types.ScheduleRow) (UploadResult, error) {
	if len(rows) == 0 {
		return UploadResult{}, apierr.Newf(http.StatusBadRequest, "invalid_upload", "timetable has no rows")
	}
	cleaned := make([]types.ScheduleRow, len(rows))
	for i, r := range rows {
		if r.Duration < types.MinDuration {
			r.Duration = types.DefaultDuration
		}
		if r.Duration > types.MaxDuration {
			r.Duration = types.MaxDuration
		}
		if !types.ValidStatus(r.Status) {
			r.Status = types.StatusActive
		}
		r.ActualStudy = 0
		r.CustomSubject = ""
		if err := r.Validate(); err != nil {
			return UploadResult{}, apierr.Newf(http.StatusBadRequest, "invalid_upload", "row %d: %v", i, err)
		}
		cleaned[i] = r
	}
	return s.replaceMaster(cleaned)
}

// replaceMaster swaps the master schedule wholesale, rebuilds today's
// state from it and clears history, since trend data from the old
// timetable no longer means anything.
func (s *scheduleService) replaceMaster(rows []types.ScheduleRow) (UploadResult, error) {
	master := &types.ScheduleTable{Rows: rows}
	if err := s.scheduleRepo.SaveMaster(master); err != nil {
		return UploadResult{}, fmt.Errorf("save master schedule: %w", err)
	}
	if err := s.scheduleRepo.DeleteDaily(); err != nil {
		return UploadResult{}, fmt.Errorf("reset daily state: %w", err)
	}
	if err := s.historyRepo.Clear(); err != nil {
		return UploadResult{}, fmt.Errorf("clear history: %w", err)
	}
	s.session.Invalidate()
	s.log.Info("Master schedule replaced", "rows", len(rows))
	return UploadResult{Rows: len(rows)}, nil
}

// RestoreSample puts the app back into its demo shape: no master
// schedule, a seeded week of history, and a sample daily state with one
// cancelled class already logged.
func (s *scheduleService) RestoreSample() error {
	if err := s.scheduleRepo.DeleteMaster(); err != nil {
		return fmt.Errorf("remove master schedule: %w", err)
	}

	today := dateOnly(s.now())
	seed := []struct {
		daysAgo          int
		saved, used, eff int
		cancelled        int
	}{
		{1, 60, 60, 100, 1},
		{2, 120, 90, 75, 2},
		{3, 60, 20, 33, 1},
		{4, 90, 90, 100, 1},
		{5, 180, 150, 83, 3},
	}
	entries := make([]types.HistoryEntry, 0, len(seed))
	for _, e := range seed {
		entries = append(entries, types.HistoryEntry{
			Date:             today.AddDate(0, 0, -e.daysAgo),
			TimeSaved:        e.saved,
			TimeUsed:         e.used,
			Efficiency:       e.eff,
			ClassesCancelled: e.cancelled,
		})
	}
	if err := s.historyRepo.Replace(entries); err != nil {
		return fmt.Errorf("seed history: %w", err)
	}

	def, err := s.scheduleRepo.LoadDefault()
	if err != nil {
		return fmt.Errorf("load default schedule: %w", err)
	}
	sample := def.ResetForDay(today)
	if len(sample.Rows) > 0 {
		sample.Rows[0].Status = types.StatusCancelled
		sample.Rows[0].ActualStudy = 45
		sample.Rows[0].CustomSubject = "AI Research"
	}
	if err := s.scheduleRepo.SaveDaily(sample); err != nil {
		return fmt.Errorf("seed daily state: %w", err)
	}

	s.session.Invalidate()
	s.log.Info("Sample data restored", "history_rows", len(entries), "schedule_rows", len(sample.Rows))
	return nil
}
