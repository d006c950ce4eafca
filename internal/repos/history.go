package repos

import (
	"github.com/neuralplan/neuralplan-backend/internal/logger"
	"github.com/neuralplan/neuralplan-backend/internal/store"
	"github.com/neuralplan/neuralplan-backend/internal/types"
)

type HistoryRepo interface {
	// All returns every entry; a missing file is an empty history, not
	// an error.
	All() ([]types.HistoryEntry, error)
	Replace(entries []types.HistoryEntry) error
	Clear() error
}

type historyRepo struct {
	store *store.CSVStore
	log   *logger.Logger
}

func NewHistoryRepo(csvStore *store.CSVStore, baseLog *logger.Logger) HistoryRepo {
	return &historyRepo{store: csvStore, log: baseLog.With("repo", "HistoryRepo")}
}

func (hr *historyRepo) All() ([]types.HistoryEntry, error) {
	entries, err := hr.store.LoadHistory()
	if err != nil {
		if IsNotFound(err) {
			return []types.HistoryEntry{}, nil
		}
		return nil, err
	}
	return entries, nil
}

func (hr *historyRepo) Replace(entries []types.HistoryEntry) error {
	return hr.store.SaveHistory(entries)
}

func (hr *historyRepo) Clear() error {
	return hr.store.Delete(store.TableHistory)
}
