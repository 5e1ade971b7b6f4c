// Package ledger holds the active month's shifts and configuration and
// notifies observers whenever they change.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/driverledger/internal/domain/models"
	repo "github.com/mamadbah2/driverledger/internal/repository/mongodb"
	"github.com/mamadbah2/driverledger/internal/service/planner"
)

// ErrNotLoaded is returned by operations that need an active month.
var ErrNotLoaded = errors.New("no month loaded")

// Snapshot is an immutable view of the store.
type Snapshot struct {
	Month  models.YearMonth     `json:"-"`
	Shifts []models.ShiftRecord `json:"shifts"`
	Config models.MonthlyConfig `json:"config"`
	Plan   models.PlanResult    `json:"plan"`
}

// Listener receives a snapshot after every change.
type Listener func(Snapshot)

// Store is the application state container. Only Load changes the active
// month; View reads any month without touching it.
type Store struct {
	repo   repo.Repository
	logger *zap.Logger

	mu     sync.RWMutex
	state  Snapshot
	loaded bool

	// switched carries a signal whenever the active month changes.
	switched chan struct{}

	subsMu    sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// NewStore wires a store on top of the persistence layer.
func NewStore(repository repo.Repository, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		repo:      repository,
		logger:    logger,
		switched:  make(chan struct{}, 1),
		listeners: make(map[int]Listener),
	}
}

// Load makes month the active month and publishes its data.
func (s *Store) Load(ctx context.Context, month models.YearMonth) (Snapshot, error) {
	shifts, cfg, err := s.fetch(ctx, month)
	if err != nil {
		return Snapshot{}, err
	}

	snap, _ := s.swap(month, true, func(Snapshot) Snapshot {
		return newSnapshot(month, shifts, cfg)
	})
	s.logger.Debug("month loaded",
		zap.String("month", month.String()),
		zap.Int("shifts", len(snap.Shifts)))
	return snap, nil
}

// View returns the data of month without changing the active month or
// notifying listeners. The active month is served from memory.
func (s *Store) View(ctx context.Context, month models.YearMonth) (Snapshot, error) {
	s.mu.RLock()
	if s.loaded && s.state.Month == month {
		snap := s.state.clone()
		s.mu.RUnlock()
		return snap, nil
	}
	s.mu.RUnlock()

	shifts, cfg, err := s.fetch(ctx, month)
	if err != nil {
		return Snapshot{}, err
	}
	return newSnapshot(month, shifts, cfg), nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Loaded reports whether a month has been loaded.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.listeners, id)
	}
}

// AddShift persists a shift and reloads the active month.
func (s *Store) AddShift(ctx context.Context, record models.ShiftRecord) (string, error) {
	id, err := s.repo.InsertShift(ctx, record)
	if err != nil {
		return "", err
	}
	if err := s.Reload(ctx); err != nil && !errors.Is(err, ErrNotLoaded) {
		return id, err
	}
	return id, nil
}

// DeleteShift removes a shift and reloads the active month.
func (s *Store) DeleteShift(ctx context.Context, id string) error {
	if err := s.repo.DeleteShift(ctx, id); err != nil {
		return err
	}
	if err := s.Reload(ctx); err != nil && !errors.Is(err, ErrNotLoaded) {
		return err
	}
	return nil
}

// SaveConfig stores the month's configuration. The active month is reloaded
// when it is the one being changed.
func (s *Store) SaveConfig(ctx context.Context, month models.YearMonth, cfg models.MonthlyConfig) error {
	if err := s.repo.UpsertConfig(ctx, month, cfg); err != nil {
		return err
	}

	if active, ok := s.activeMonth(); !ok || active != month {
		return nil
	}
	return s.refresh(ctx, month)
}

// Reload refreshes the active month.
func (s *Store) Reload(ctx context.Context) error {
	month, ok := s.activeMonth()
	if !ok {
		return ErrNotLoaded
	}
	return s.refresh(ctx, month)
}

// Watch follows the repository change stream of the active month until ctx
// ends or the stream closes. When Load activates another month the stream
// is replaced by that month's.
func (s *Store) Watch(ctx context.Context) error {
	for {
		month, ok := s.activeMonth()
		if !ok {
			return ErrNotLoaded
		}

		switched, err := s.watchMonth(ctx, month)
		if err != nil || !switched {
			return err
		}
		s.logger.Info("active month changed, resubscribing", zap.String("previous", month.String()))
	}
}

// watchMonth reports true when month stopped being the active month.
func (s *Store) watchMonth(ctx context.Context, month models.YearMonth) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	from, to := month.DateRange()
	updates, err := s.repo.SubscribeShifts(ctx, from, to)
	if err != nil {
		return false, fmt.Errorf("subscribe to shifts for %s: %w", month, err)
	}
	s.logger.Debug("watching shifts", zap.String("month", month.String()))

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-s.switched:
			if active, _ := s.activeMonth(); active != month {
				return true, nil
			}
		case shifts, ok := <-updates:
			if !ok {
				return false, nil
			}
			_, applied := s.swap(month, false, func(current Snapshot) Snapshot {
				return newSnapshot(month, shifts, current.Config)
			})
			if !applied {
				s.logger.Debug("dropping update for inactive month", zap.String("month", month.String()))
			}
		}
	}
}

func (s *Store) fetch(ctx context.Context, month models.YearMonth) ([]models.ShiftRecord, models.MonthlyConfig, error) {
	from, to := month.DateRange()

	shifts, err := s.repo.ListShifts(ctx, from, to)
	if err != nil {
		return nil, models.MonthlyConfig{}, fmt.Errorf("load shifts for %s: %w", month, err)
	}

	cfg, err := s.repo.GetConfig(ctx, month)
	if err != nil {
		return nil, models.MonthlyConfig{}, fmt.Errorf("load config for %s: %w", month, err)
	}
	return shifts, cfg, nil
}

// refresh re-reads month and installs it only if it is still active, so a
// slow reload cannot undo a concurrent Load of another month.
func (s *Store) refresh(ctx context.Context, month models.YearMonth) error {
	shifts, cfg, err := s.fetch(ctx, month)
	if err != nil {
		return err
	}
	s.swap(month, false, func(Snapshot) Snapshot {
		return newSnapshot(month, shifts, cfg)
	})
	return nil
}

func (s *Store) activeMonth() (models.YearMonth, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Month, s.loaded
}

// swap installs build's result and publishes it. Without activate nothing
// happens unless month is the active month.
func (s *Store) swap(month models.YearMonth, activate bool, build func(current Snapshot) Snapshot) (Snapshot, bool) {
	s.mu.Lock()
	active := s.loaded && s.state.Month == month
	if !activate && !active {
		s.mu.Unlock()
		return Snapshot{}, false
	}
	next := build(s.state)
	s.state = next
	s.loaded = true
	s.mu.Unlock()

	if !active {
		select {
		case s.switched <- struct{}{}:
		default:
		}
	}

	s.publish(next)
	return next.clone(), true
}

func newSnapshot(month models.YearMonth, shifts []models.ShiftRecord, cfg models.MonthlyConfig) Snapshot {
	return Snapshot{
		Month:  month,
		Shifts: shifts,
		Config: cfg,
		Plan:   planner.ComputePlan(shifts, cfg, month),
	}.clone()
}

func (s *Store) publish(snap Snapshot) {
	s.subsMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range listeners {
		fn(snap.clone())
	}
}

func (snap Snapshot) clone() Snapshot {
	out := snap
	out.Shifts = append([]models.ShiftRecord{}, snap.Shifts...)
	out.Config.OffDays = append([]int{}, snap.Config.OffDays...)
	out.Config.HighDemandDays = append([]int{}, snap.Config.HighDemandDays...)
	return out
}
