package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/neuralplan/neuralplan-backend/internal/logger"
	"github.com/neuralplan/neuralplan-backend/internal/repos"
	"github.com/neuralplan/neuralplan-backend/internal/types"
)

// SessionService owns today's in-memory schedule table and the daily
// lifecycle around it. Every access runs the date check first, so a
// request after midnight always sees a fresh table. The persisted daily
// file's Date stamp is the only authority on freshness; an unstamped or
// stale file is discarded, never served.
type SessionService interface {
	// Current returns a copy of today's table, deriving it first if
	// needed.
	Current() (*types.ScheduleTable, error)
	// Update applies fn to the live table under the session lock. The
	// table passed to fn is today's working copy; mutations stick.
	Update(fn func(*types.ScheduleTable) error) error
	// Invalidate drops the in-memory table so the next access re-derives
	// it from storage.
	Invalidate()
}

type sessionService struct {
	mu            sync.Mutex
	log           *logger.Logger
	scheduleRepo  repos.ScheduleRepo
	table         *types.ScheduleTable
	lastResetDate time.Time
	now           func() time.Time
}

func NewSessionService(baseLog *logger.Logger, scheduleRepo repos.ScheduleRepo) SessionService {
	return &sessionService{
		log:          baseLog.With("service", "SessionService"),
		scheduleRepo: scheduleRepo,
		now:          time.Now,
	}
}

func (ss *sessionService) Current() (*types.ScheduleTable, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if err := ss.ensureToday(); err != nil {
		return nil, err
	}
	return ss.table.Clone(), nil
}

func (ss *sessionService) Update(fn func(*types.ScheduleTable) error) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if err := ss.ensureToday(); err != nil {
		return err
	}
	return fn(ss.table)
}

func (ss *sessionService) Invalidate() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.table = nil
}

// ensureToday is the idempotent daily check: a no-op while the loaded
// table still belongs to today, otherwise it clears yesterday's state
// and derives a fresh table. Callers must hold the lock.
func (ss *sessionService) ensureToday() error {
	today := dateOnly(ss.now())

	if ss.table != nil && ss.lastResetDate.Equal(today) {
		return nil
	}

	if ss.table != nil {
		ss.log.Info("Date changed, resetting daily state", "last_reset", ss.lastResetDate.Format("2006-01-02"), "today", today.Format("2006-01-02"))
		if err := ss.scheduleRepo.DeleteDaily(); err != nil {
			return fmt.Errorf("clear stale daily state: %w", err)
		}
		ss.table = nil
	}

	table, err := ss.derive(today)
	if err != nil {
		return err
	}
	ss.table = table
	ss.lastResetDate = today
	return nil
}

func (ss *sessionService) derive(today time.Time) (*types.ScheduleTable, error) {
	if ss.scheduleRepo.HasDaily() {
		daily, err := ss.scheduleRepo.LoadDaily()
		switch {
		case err != nil:
			ss.log.Warn("Daily state unreadable, discarding", "error", err)
			if derr := ss.scheduleRepo.DeleteDaily(); derr != nil {
				return nil, fmt.Errorf("discard unreadable daily state: %w", derr)
			}
		case !daily.Date.IsZero() && dateOnly(daily.Date).Equal(today):
			ss.log.Debug("Loaded today's daily state", "rows", len(daily.Rows))
			daily.Date = today
			return daily, nil
		default:
			ss.log.Info("Discarding daily state with old or missing date stamp", "stamp", daily.Date.Format("2006-01-02"))
			if derr := ss.scheduleRepo.DeleteDaily(); derr != nil {
				return nil, fmt.Errorf("discard stale daily state: %w", derr)
			}
		}
	}

	master, err := ss.scheduleRepo.LoadMaster()
	if err == nil {
		ss.log.Debug("Deriving daily state from master schedule", "rows", len(master.Rows))
		return master.ResetForDay(today), nil
	}
	if !repos.IsNotFound(err) {
		return nil, fmt.Errorf("load master schedule: %w", err)
	}

	def, err := ss.scheduleRepo.LoadDefault()
	if err != nil {
		// The bundled default is the required seed; without it there is
		// no schedule to show at all.
		return nil, fmt.Errorf("load default schedule: %w", err)
	}
	ss.log.Debug("Deriving daily state from default schedule", "rows", len(def.Rows))
	return def.ResetForDay(today), nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
