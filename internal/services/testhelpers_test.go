package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/neuralplan/neuralplan-backend/internal/logger"
	"github.com/neuralplan/neuralplan-backend/internal/repos"
	"github.com/neuralplan/neuralplan-backend/internal/types"
)

func ptr[T any](v T) *T { return &v }

func newTestLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// fakeScheduleRepo keeps the three tables in memory and hands out clones
// the way the CSV-backed repo does.
type fakeScheduleRepo struct {
	def    *types.ScheduleTable
	master *types.ScheduleTable
	daily  *types.ScheduleTable
}

func (f *fakeScheduleRepo) LoadDefault() (*types.ScheduleTable, error) {
	if f.def == nil {
		return nil, repos.ErrNotFound
	}
	return f.def.Clone(), nil
}

func (f *fakeScheduleRepo) LoadMaster() (*types.ScheduleTable, error) {
	if f.master == nil {
		return nil, repos.ErrNotFound
	}
	return f.master.Clone(), nil
}

func (f *fakeScheduleRepo) SaveMaster(table *types.ScheduleTable) error {
	f.master = table.Clone()
	return nil
}

func (f *fakeScheduleRepo) DeleteMaster() error {
	f.master = nil
	return nil
}

func (f *fakeScheduleRepo) LoadDaily() (*types.ScheduleTable, error) {
	if f.daily == nil {
		return nil, repos.ErrNotFound
	}
	return f.daily.Clone(), nil
}

func (f *fakeScheduleRepo) SaveDaily(table *types.ScheduleTable) error {
	f.daily = table.Clone()
	return nil
}

func (f *fakeScheduleRepo) DeleteDaily() error {
	f.daily = nil
	return nil
}

func (f *fakeScheduleRepo) HasDaily() bool { return f.daily != nil }

type fakeHistoryRepo struct {
	entries []types.HistoryEntry
}

func (f *fakeHistoryRepo) All() ([]types.HistoryEntry, error) {
	out := make([]types.HistoryEntry, len(f.entries))
	copy(out, f.entries)
	return out, nil
}

func (f *fakeHistoryRepo) Replace(entries []types.HistoryEntry) error {
	f.entries = make([]types.HistoryEntry, len(entries))
	copy(f.entries, entries)
	return nil
}

func (f *fakeHistoryRepo) Clear() error {
	f.entries = nil
	return nil
}

type fakeGeminiClient struct {
	text       string
	err        error
	lastPrompt string
}

func (f *fakeGeminiClient) GenerateText(_ context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.text, f.err
}

func (f *fakeGeminiClient) GenerateVision(_ context.Context, prompt string, _ []byte, _ string) (string, error) {
	f.lastPrompt = prompt
	return f.text, f.err
}

func defaultTable() *types.ScheduleTable {
	return &types.ScheduleTable{Rows: []types.ScheduleRow{
		{Day: "Monday", Time: "10:00 AM", Subject: "Math", Duration: 60, Status: types.StatusActive},
		{Day: "Monday", Time: "2:00 PM", Subject: "Python", Duration: 90, Status: types.StatusActive},
		{Day: "Tuesday", Time: "9:00 AM", Subject: "Physics", Duration: 60, Status: types.StatusActive},
	}}
}
