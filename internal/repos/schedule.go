package repos

import (
	"errors"

	"github.com/neuralplan/neuralplan-backend/internal/logger"
	"github.com/neuralplan/neuralplan-backend/internal/store"
	"github.com/neuralplan/neuralplan-backend/internal/types"
)

// ErrNotFound mirrors the store's sentinel so callers above the repo
// layer don't import the store directly.
var ErrNotFound = store.ErrNotFound

type ScheduleRepo interface {
	LoadDefault() (*types.ScheduleTable, error)
	LoadMaster() (*types.ScheduleTable, error)
	SaveMaster(table *types.ScheduleTable) error
	DeleteMaster() error
	LoadDaily() (*types.ScheduleTable, error)
	SaveDaily(table *types.ScheduleTable) error
	DeleteDaily() error
	HasDaily() bool
}

type scheduleRepo struct {
	store *store.CSVStore
	log   *logger.Logger
}

func NewScheduleRepo(csvStore *store.CSVStore, baseLog *logger.Logger) ScheduleRepo {
	return &scheduleRepo{store: csvStore, log: baseLog.With("repo", "ScheduleRepo")}
}

func (sr *scheduleRepo) LoadDefault() (*types.ScheduleTable, error) {
	return sr.store.LoadSchedule(store.TableDefaultSchedule)
}

func (sr *scheduleRepo) LoadMaster() (*types.ScheduleTable, error) {
	return sr.store.LoadSchedule(store.TableUserSchedule)
}

func (sr *scheduleRepo) SaveMaster(table *types.ScheduleTable) error {
	return sr.store.SaveSchedule(store.TableUserSchedule, table)
}

func (sr *scheduleRepo) DeleteMaster() error {
	return sr.store.Delete(store.TableUserSchedule)
}

func (sr *scheduleRepo) LoadDaily() (*types.ScheduleTable, error) {
	return sr.store.LoadSchedule(store.TableDailyState)
}

func (sr *scheduleRepo) SaveDaily(table *types.ScheduleTable) error {
	return sr.store.SaveSchedule(store.TableDailyState, table)
}

func (sr *scheduleRepo) DeleteDaily() error {
	return sr.store.Delete(store.TableDailyState)
}

func (sr *scheduleRepo) HasDaily() bool {
	return sr.store.Exists(store.TableDailyState)
}

// IsNotFound reports whether err is the missing-table sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
