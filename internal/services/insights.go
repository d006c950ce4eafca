package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/neuralplan/neuralplan-backend/internal/logger"
	"github.com/neuralplan/neuralplan-backend/internal/repos"
	"github.com/neuralplan/neuralplan-backend/internal/types"
	"github.com/neuralplan/neuralplan-backend/internal/utils"
)

type HistorySummary struct {
	DaysTracked    int    `json:"days_tracked"`
	TotalTimeSaved int    `json:"total_time_saved"`
	TotalTimeUsed  int    `json:"total_time_used"`
	TimeSavedText  string `json:"time_saved_text"`
	TimeUsedText   string `json:"time_used_text"`
	AvgEfficiency  int    `json:"avg_efficiency"`
	Verdict        string `json:"verdict"`
}

// InsightsService is the read side of the history table: listings,
// trends and lifetime summaries for the dashboards.
type InsightsService interface {
	History() ([]types.HistoryEntry, error)
	// Trend returns the entries of the trailing N days, oldest first.
	Trend(days int) ([]types.HistoryEntry, error)
	Summary() (HistorySummary, error)
	ExportCSV() ([]byte, error)
}

type insightsService struct {
	log         *logger.Logger
	historyRepo repos.HistoryRepo
	now         func() time.Time
}

func NewInsightsService(baseLog *logger.Logger, historyRepo repos.HistoryRepo) InsightsService {
	return &insightsService{
		log:         baseLog.With("service", "InsightsService"),
		historyRepo: historyRepo,
		now:         time.Now,
	}
}

func (is *insightsService) History() ([]types.HistoryEntry, error) {
	entries, err := is.historyRepo.All()
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })
	return entries, nil
}

func (is *insightsService) Trend(days int) ([]types.HistoryEntry, error) {
	if days <= 0 {
		days = 7
	}
	entries, err := is.History()
	if err != nil {
		return nil, err
	}
	// Today counts as the first of the N days.
	cutoff := dateOnly(is.now()).AddDate(0, 0, -(days - 1))
	out := make([]types.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if !e.Date.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (is *insightsService) Summary() (HistorySummary, error) {
	entries, err := is.historyRepo.All()
	if err != nil {
		return HistorySummary{}, err
	}
	summary := HistorySummary{DaysTracked: len(entries)}
	effTotal := 0
	for _, e := range entries {
		summary.TotalTimeSaved += e.TimeSaved
		summary.TotalTimeUsed += e.TimeUsed
		effTotal += e.Efficiency
	}
	if len(entries) > 0 {
		summary.AvgEfficiency = effTotal / len(entries)
	}
	summary.TimeSavedText = utils.MinutesToHours(summary.TotalTimeSaved)
	summary.TimeUsedText = utils.MinutesToHours(summary.TotalTimeUsed)
	summary.Verdict = EfficiencyVerdict(summary.AvgEfficiency)
	return summary, nil
}

func (is *insightsService) ExportCSV() ([]byte, error) {
	entries, err := is.History()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	records := [][]string{{"Date", "Time_Saved", "Time_Used", "Efficiency", "Classes_Cancelled"}}
	for _, e := range entries {
		records = append(records, []string{
			e.Date.Format("2006-01-02"),
			strconv.Itoa(e.TimeSaved),
			strconv.Itoa(e.TimeUsed),
			strconv.Itoa(e.Efficiency),
			strconv.Itoa(e.ClassesCancelled),
		})
	}
	if err := writer.WriteAll(records); err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}
	return buf.Bytes(), nil
}

// EfficiencyVerdict buckets an efficiency percentage into the message
// band shown on the accountability dashboard.
func EfficiencyVerdict(efficiency int) string {
	switch {
	case efficiency <= 0:
		return "Zero effort detected. You wasted all your free time!"
	case efficiency < 25:
		return "Critical failure! Less than 25% efficiency. Stop procrastinating!"
	case efficiency < 50:
		return fmt.Sprintf("You're slacking! Only %d%% efficiency. Lock in.", efficiency)
	case efficiency < 75:
		return fmt.Sprintf("Decent effort at %d%%, but there's room to improve.", efficiency)
	case efficiency < 100:
		return fmt.Sprintf("Strong performance! %d%% efficiency. Almost perfect!", efficiency)
	case efficiency == 100:
		return "PERFECT! 100% efficiency. You hit every target!"
	default:
		return fmt.Sprintf("OVERACHIEVER! %d%% efficiency. You exceeded your goals!", efficiency)
	}
}
