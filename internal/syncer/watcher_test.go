package syncer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
)

type record struct {
	change   Change
	snapshot []*domain.Shift
}

func newTestWatcher(quiet time.Duration) (*Watcher[*domain.Shift], *[]record) {
	records := &[]record{}
	watcher := NewWatcher(
		func(s *domain.Shift) int64 { return s.ID },
		quiet,
		func(change Change, snapshot []*domain.Shift) {
			*records = append(*records, record{change: change, snapshot: snapshot})
		},
	)
	return watcher, records
}

func shiftWithTitle(id int64, title string) *domain.Shift {
	return &domain.Shift{ID: id, Title: title, AssignedUsers: []domain.Assignment{}}
}

func TestWatcherFirstSnapshotIsBaseline(t *testing.T) {
	watcher, records := newTestWatcher(0)

	watcher.Observe([]*domain.Shift{shiftWithTitle(1, "前台值班"), shiftWithTitle(2, "机房巡检")})
	require.Empty(t, *records)
}

func TestWatcherIdenticalSnapshotsSuppressed(t *testing.T) {
	watcher, records := newTestWatcher(0)

	snapshot := []*domain.Shift{shiftWithTitle(1, "前台值班")}
	watcher.Observe(snapshot)

	// 相同内容重复投递一百次也不应该产生任何通知
	for i := 0; i < 100; i++ {
		watcher.Observe([]*domain.Shift{shiftWithTitle(1, "前台值班")})
	}
	require.Empty(t, *records)
}

func TestWatcherDetectsAdded(t *testing.T) {
	watcher, records := newTestWatcher(0)

	watcher.Observe([]*domain.Shift{shiftWithTitle(1, "前台值班")})
	watcher.Observe([]*domain.Shift{shiftWithTitle(1, "前台值班"), shiftWithTitle(2, "机房巡检")})

	require.Len(t, *records, 1)
	change := (*records)[0].change
	require.Equal(t, []int64{2}, change.Added)
	require.Empty(t, change.Removed)
	require.Empty(t, change.Updated)
}

func TestWatcherDetectsRemovedAndUpdated(t *testing.T) {
	watcher, records := newTestWatcher(0)

	watcher.Observe([]*domain.Shift{shiftWithTitle(1, "前台值班"), shiftWithTitle(2, "机房巡检")})
	watcher.Observe([]*domain.Shift{shiftWithTitle(1, "晚间值班")})

	require.Len(t, *records, 1)
	change := (*records)[0].change
	require.Empty(t, change.Added)
	require.Equal(t, []int64{2}, change.Removed)
	require.Equal(t, []int64{1}, change.Updated)
}

func TestWatcherQuietPeriodSwallowsButAdvancesBaseline(t *testing.T) {
	watcher, records := newTestWatcher(5 * time.Second)

	current := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	watcher.now = func() time.Time { return current }

	watcher.Observe([]*domain.Shift{shiftWithTitle(1, "前台值班")})

	// 第一次变更正常通知
	watcher.Observe([]*domain.Shift{shiftWithTitle(1, "前台值班"), shiftWithTitle(2, "机房巡检")})
	require.Len(t, *records, 1)

	// 静默期内的变更被吞掉
	current = current.Add(2 * time.Second)
	watcher.Observe([]*domain.Shift{shiftWithTitle(1, "前台值班"), shiftWithTitle(2, "机房巡检"), shiftWithTitle(3, "晚间值班")})
	require.Len(t, *records, 1)

	// 静默期过后再次投递同样的内容：基线已经推进，所以没有可报告的差异
	current = current.Add(10 * time.Second)
	watcher.Observe([]*domain.Shift{shiftWithTitle(1, "前台值班"), shiftWithTitle(2, "机房巡检"), shiftWithTitle(3, "晚间值班")})
	require.Len(t, *records, 1)

	// 新的变更正常通知，且只包含相对最新基线的差异
	watcher.Observe([]*domain.Shift{shiftWithTitle(1, "前台值班"), shiftWithTitle(2, "机房巡检"), shiftWithTitle(3, "晚间值班"), shiftWithTitle(4, "设备维护")})
	require.Len(t, *records, 2)
	require.Equal(t, []int64{4}, (*records)[1].change.Added)
}

// fakeSource 手动驱动快照流的 Source 实现
type fakeSource struct {
	shiftCallbacks   []func(snapshot []*domain.Shift)
	absenceCallbacks []func(snapshot []*domain.Absence)
	cancelled        int
}

func (s *fakeSource) SubscribeShifts(callback func(snapshot []*domain.Shift)) (func(), error) {
	s.shiftCallbacks = append(s.shiftCallbacks, callback)
	return func() { s.cancelled++ }, nil
}

func (s *fakeSource) SubscribeSwapRequests(userID int64, callback func(snapshot []*domain.SwapRequest)) (func(), error) {
	return func() { s.cancelled++ }, nil
}

func (s *fakeSource) SubscribeApprovedAbsences(callback func(snapshot []*domain.Absence)) (func(), error) {
	s.absenceCallbacks = append(s.absenceCallbacks, callback)
	return func() { s.cancelled++ }, nil
}

func TestManagerRoutesSnapshots(t *testing.T) {
	source := &fakeSource{}
	manager := NewManager(source, 0)

	var shiftChanges []Change
	var latestAbsences []*domain.Absence

	err := manager.Start(Handlers{
		OnShiftsChanged: func(change Change, snapshot []*domain.Shift) {
			shiftChanges = append(shiftChanges, change)
		},
		OnAbsencesChanged: func(change Change, snapshot []*domain.Absence) {
			latestAbsences = snapshot
		},
	})
	require.NoError(t, err)
	require.Len(t, source.shiftCallbacks, 1)
	require.Len(t, source.absenceCallbacks, 1)

	// 基线
	source.shiftCallbacks[0]([]*domain.Shift{shiftWithTitle(1, "前台值班")})
	source.absenceCallbacks[0]([]*domain.Absence{})
	require.Empty(t, shiftChanges)

	// 变更
	source.shiftCallbacks[0]([]*domain.Shift{shiftWithTitle(1, "前台值班"), shiftWithTitle(2, "机房巡检")})
	require.Len(t, shiftChanges, 1)
	require.Equal(t, []int64{2}, shiftChanges[0].Added)

	source.absenceCallbacks[0]([]*domain.Absence{{ID: 7, UserID: 1, Status: domain.AbsenceStatusApproved}})
	require.Len(t, latestAbsences, 1)
	require.Equal(t, int64(7), latestAbsences[0].ID)
}

func TestManagerCloseIsIdempotent(t *testing.T) {
	source := &fakeSource{}
	manager := NewManager(source, 0)

	require.NoError(t, manager.Start(Handlers{
		OnShiftsChanged:   func(change Change, snapshot []*domain.Shift) {},
		OnAbsencesChanged: func(change Change, snapshot []*domain.Absence) {},
	}))

	manager.Close()
	manager.Close()
	require.Equal(t, 2, source.cancelled)
}
