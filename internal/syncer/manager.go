package syncer

import (
	"sync"
	"time"

	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
)

// Source 是同步层对订阅机制的全部要求，由持久化层实现
// 每个订阅返回一个幂等的取消函数
type Source interface {
	SubscribeShifts(callback func(snapshot []*domain.Shift)) (func(), error)
	SubscribeSwapRequests(userID int64, callback func(snapshot []*domain.SwapRequest)) (func(), error)
	SubscribeApprovedAbsences(callback func(snapshot []*domain.Absence)) (func(), error)
}

// Handlers 各集合的变更回调，为 nil 的集合不会被订阅
// 不同集合的快照流之间没有任何顺序保证，回调之间不得互相假设因果顺序
type Handlers struct {
	OnShiftsChanged       func(change Change, snapshot []*domain.Shift)
	OnSwapRequestsChanged func(change Change, snapshot []*domain.SwapRequest)
	OnAbsencesChanged     func(change Change, snapshot []*domain.Absence)
}

// Manager 把持久化层的全量快照订阅接到各自的 Watcher 上
type Manager struct {
	source Source
	quiet  time.Duration

	mu      sync.Mutex
	cancels []func()
	closed  bool
}

func NewManager(source Source, quiet time.Duration) *Manager {
	return &Manager{
		source: source,
		quiet:  quiet,
	}
}

// Start 建立订阅，任何一个订阅失败都会回滚已建立的订阅
func (m *Manager) Start(handlers Handlers) error {
	if handlers.OnShiftsChanged != nil {
		watcher := NewWatcher(func(s *domain.Shift) int64 { return s.ID }, m.quiet, handlers.OnShiftsChanged)
		cancel, err := m.source.SubscribeShifts(watcher.Observe)
		if err != nil {
			m.Close()
			return err
		}
		m.addCancel(cancel)
	}

	if handlers.OnSwapRequestsChanged != nil {
		watcher := NewWatcher(func(r *domain.SwapRequest) int64 { return r.ID }, m.quiet, handlers.OnSwapRequestsChanged)
		cancel, err := m.source.SubscribeSwapRequests(0, watcher.Observe)
		if err != nil {
			m.Close()
			return err
		}
		m.addCancel(cancel)
	}

	if handlers.OnAbsencesChanged != nil {
		watcher := NewWatcher(func(a *domain.Absence) int64 { return a.ID }, m.quiet, handlers.OnAbsencesChanged)
		cancel, err := m.source.SubscribeApprovedAbsences(watcher.Observe)
		if err != nil {
			m.Close()
			return err
		}
		m.addCancel(cancel)
	}

	return nil
}

func (m *Manager) addCancel(cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancels = append(m.cancels, cancel)
}

// Close 取消所有订阅，重复调用是空操作
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for _, cancel := range m.cancels {
		cancel()
	}
	m.cancels = nil
}
