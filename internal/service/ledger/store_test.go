package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/driverledger/internal/domain/models"
)

type memoryRepo struct {
	mu      sync.Mutex
	shifts  map[string]models.ShiftRecord
	configs map[string]models.MonthlyConfig
	seq     int
	listErr error

	// streams holds one change stream per month, keyed by its first day.
	streams       map[string]chan []models.ShiftRecord
	subscriptions []string
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		shifts:  make(map[string]models.ShiftRecord),
		configs: make(map[string]models.MonthlyConfig),
		streams: make(map[string]chan []models.ShiftRecord),
	}
}

func (m *memoryRepo) stream(month models.YearMonth) chan []models.ShiftRecord {
	from, _ := month.DateRange()

	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.streams[from]
	if !ok {
		ch = make(chan []models.ShiftRecord, 4)
		m.streams[from] = ch
	}
	return ch
}

func (m *memoryRepo) subscribed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.subscriptions...)
}

func (m *memoryRepo) InsertShift(_ context.Context, rec models.ShiftRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	rec.ID = fmt.Sprintf("shift-%d", m.seq)
	m.shifts[rec.ID] = rec
	return rec.ID, nil
}

func (m *memoryRepo) DeleteShift(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shifts[id]; !ok {
		return errors.New("shift not found")
	}
	delete(m.shifts, id)
	return nil
}

func (m *memoryRepo) ListShifts(_ context.Context, from, to string) ([]models.ShiftRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []models.ShiftRecord{}
	for _, rec := range m.shifts {
		if rec.Date >= from && rec.Date <= to {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (m *memoryRepo) SubscribeShifts(_ context.Context, from, _ string) (<-chan []models.ShiftRecord, error) {
	month, err := models.ParseYearMonth(from[:7])
	if err != nil {
		return nil, err
	}
	ch := m.stream(month)

	m.mu.Lock()
	m.subscriptions = append(m.subscriptions, from)
	m.mu.Unlock()
	return ch, nil
}

func (m *memoryRepo) GetConfig(_ context.Context, month models.YearMonth) (models.MonthlyConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cfg, ok := m.configs[month.ConfigKey()]; ok {
		return cfg, nil
	}
	return models.DefaultMonthlyConfig(), nil
}

func (m *memoryRepo) UpsertConfig(_ context.Context, month models.YearMonth, cfg models.MonthlyConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[month.ConfigKey()] = cfg
	return nil
}

var (
	november = models.YearMonth{Year: 2025, Month: time.November}
	december = models.YearMonth{Year: 2025, Month: time.December}
	january  = models.YearMonth{Year: 2026, Month: time.January}
)

func TestStoreLoadComputesPlan(t *testing.T) {
	repo := newMemoryRepo()
	repo.configs[december.ConfigKey()] = models.MonthlyConfig{Budget: 1000000, OffDays: []int{0}, HighDemandDays: []int{5, 6}}
	_, _ = repo.InsertShift(context.Background(), models.ShiftRecord{Date: "2025-12-15", Platform: "Uber", Earnings: 100000, Hours: 5})
	_, _ = repo.InsertShift(context.Background(), models.ShiftRecord{Date: "2025-11-30", Platform: "Uber", Earnings: 50000})

	store := NewStore(repo, nil)
	snap, err := store.Load(context.Background(), december)
	require.NoError(t, err)

	require.Len(t, snap.Shifts, 1)
	assert.Equal(t, 100000.0, snap.Plan.TotalEarnings)
	assert.InDelta(t, 10.0, snap.Plan.CurrentProgress, 1e-9)
	assert.Equal(t, 20000.0, snap.Plan.HourlyRate)
	assert.Equal(t, 27, snap.Plan.Plan.WorkDays)
	assert.True(t, store.Loaded())
}

func TestStoreNotifiesSubscribers(t *testing.T) {
	repo := newMemoryRepo()
	store := NewStore(repo, nil)

	var got []Snapshot
	unsubscribe := store.Subscribe(func(s Snapshot) { got = append(got, s) })

	_, err := store.Load(context.Background(), december)
	require.NoError(t, err)

	id, err := store.AddShift(context.Background(), models.ShiftRecord{Date: "2025-12-02", Platform: "Didi", Earnings: 30000})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Len(t, got[1].Shifts, 1)

	require.NoError(t, store.DeleteShift(context.Background(), id))
	require.Len(t, got, 3)
	assert.Empty(t, got[2].Shifts)

	unsubscribe()
	require.NoError(t, store.Reload(context.Background()))
	assert.Len(t, got, 3)
}

func TestStoreSaveConfigReloadsActiveMonthOnly(t *testing.T) {
	repo := newMemoryRepo()
	store := NewStore(repo, nil)
	_, err := store.Load(context.Background(), december)
	require.NoError(t, err)

	notified := 0
	store.Subscribe(func(Snapshot) { notified++ })

	require.NoError(t, store.SaveConfig(context.Background(), november, models.MonthlyConfig{Budget: 10}))
	assert.Zero(t, notified)

	require.NoError(t, store.SaveConfig(context.Background(), december, models.MonthlyConfig{Budget: 500000}))
	assert.Equal(t, 1, notified)
	assert.Equal(t, 500000.0, store.Snapshot().Config.Budget)
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	repo := newMemoryRepo()
	repo.configs[december.ConfigKey()] = models.MonthlyConfig{OffDays: []int{0}}
	_, _ = repo.InsertShift(context.Background(), models.ShiftRecord{Date: "2025-12-01", Platform: "Uber", Earnings: 1})

	store := NewStore(repo, nil)
	_, err := store.Load(context.Background(), december)
	require.NoError(t, err)

	snap := store.Snapshot()
	snap.Shifts[0].Earnings = 999
	snap.Config.OffDays[0] = 6

	fresh := store.Snapshot()
	assert.Equal(t, 1.0, fresh.Shifts[0].Earnings)
	assert.Equal(t, []int{0}, fresh.Config.OffDays)
}

func TestStoreWithoutMonth(t *testing.T) {
	store := NewStore(newMemoryRepo(), nil)

	assert.ErrorIs(t, store.Reload(context.Background()), ErrNotLoaded)
	assert.ErrorIs(t, store.Watch(context.Background()), ErrNotLoaded)

	_, err := store.AddShift(context.Background(), models.ShiftRecord{Date: "2025-12-01", Platform: "Uber", Earnings: 1})
	assert.NoError(t, err)
}

func TestStoreLoadError(t *testing.T) {
	repo := newMemoryRepo()
	repo.listErr = errors.New("connection refused")

	_, err := NewStore(repo, nil).Load(context.Background(), december)
	assert.ErrorContains(t, err, "connection refused")
}

func TestStoreWatchRepublishes(t *testing.T) {
	repo := newMemoryRepo()

	store := NewStore(repo, nil)
	_, err := store.Load(context.Background(), december)
	require.NoError(t, err)

	received := make(chan Snapshot, 2)
	store.Subscribe(func(s Snapshot) { received <- s })

	updates := repo.stream(december)
	updates <- []models.ShiftRecord{{Date: "2025-12-03", Platform: "Cabify", Earnings: 42000}}
	close(updates)

	require.NoError(t, store.Watch(context.Background()))

	select {
	case snap := <-received:
		require.Len(t, snap.Shifts, 1)
		assert.Equal(t, 42000.0, snap.Plan.TotalEarnings)
	default:
		t.Fatal("expected a snapshot from the change stream")
	}
}

func TestStoreViewKeepsActiveMonth(t *testing.T) {
	repo := newMemoryRepo()
	_, _ = repo.InsertShift(context.Background(), models.ShiftRecord{Date: "2025-11-20", Platform: "Didi", Earnings: 30000})
	_, _ = repo.InsertShift(context.Background(), models.ShiftRecord{Date: "2025-12-02", Platform: "Uber", Earnings: 10000})

	store := NewStore(repo, nil)
	_, err := store.Load(context.Background(), december)
	require.NoError(t, err)

	notified := 0
	store.Subscribe(func(Snapshot) { notified++ })

	past, err := store.View(context.Background(), november)
	require.NoError(t, err)
	assert.Equal(t, november, past.Month)
	assert.Equal(t, 30000.0, past.Plan.TotalEarnings)

	assert.Equal(t, december, store.Snapshot().Month)
	assert.Zero(t, notified)

	// Later reloads still refresh December.
	_, _ = repo.InsertShift(context.Background(), models.ShiftRecord{Date: "2025-12-03", Platform: "Uber", Earnings: 5000})
	require.NoError(t, store.Reload(context.Background()))
	assert.Equal(t, december, store.Snapshot().Month)
	assert.Equal(t, 15000.0, store.Snapshot().Plan.TotalEarnings)

	current, err := store.View(context.Background(), december)
	require.NoError(t, err)
	assert.Equal(t, 15000.0, current.Plan.TotalEarnings)
}

func TestStoreViewWithoutMonthDoesNotActivate(t *testing.T) {
	store := NewStore(newMemoryRepo(), nil)

	_, err := store.View(context.Background(), december)
	require.NoError(t, err)
	assert.False(t, store.Loaded())
	assert.ErrorIs(t, store.Reload(context.Background()), ErrNotLoaded)
}

func TestStoreWatchFollowsMonthRollover(t *testing.T) {
	repo := newMemoryRepo()
	store := NewStore(repo, nil)
	_, err := store.Load(context.Background(), december)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx) }()

	require.Eventually(t, func() bool {
		return len(repo.subscribed()) == 1
	}, time.Second, 5*time.Millisecond)

	_, err = store.View(context.Background(), november)
	require.NoError(t, err)

	repo.stream(december) <- []models.ShiftRecord{{Date: "2025-12-03", Platform: "Cabify", Earnings: 42000}}
	require.Eventually(t, func() bool {
		return store.Snapshot().Plan.TotalEarnings == 42000
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"2025-12-01"}, repo.subscribed())

	_, err = store.Load(context.Background(), january)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		subs := repo.subscribed()
		return len(subs) == 2 && subs[1] == "2026-01-01"
	}, time.Second, 5*time.Millisecond)

	repo.stream(january) <- []models.ShiftRecord{{Date: "2026-01-05", Platform: "Uber", Earnings: 15000}}
	require.Eventually(t, func() bool {
		snap := store.Snapshot()
		return snap.Month == january && snap.Plan.TotalEarnings == 15000
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestStoreRefreshIgnoresInactiveMonth(t *testing.T) {
	repo := newMemoryRepo()
	store := NewStore(repo, nil)
	_, err := store.Load(context.Background(), january)
	require.NoError(t, err)

	require.NoError(t, store.refresh(context.Background(), december))
	assert.Equal(t, january, store.Snapshot().Month)
}
