package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
)

// fakeStore 全内存的 Store 实现，写入直接生效
type fakeStore struct {
	shifts    map[int64]*domain.Shift
	requests  map[int64]*domain.SwapRequest
	users     map[int64]*domain.User
	absences  []*domain.Absence
	nextReqID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		shifts:    map[int64]*domain.Shift{},
		requests:  map[int64]*domain.SwapRequest{},
		users:     map[int64]*domain.User{},
		nextReqID: 1,
	}
}

func (s *fakeStore) GetShiftByID(id int64) (*domain.Shift, error) {
	shift, ok := s.shifts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return shift.Clone(), nil
}

func (s *fakeStore) UpdateShiftAssignments(shift *domain.Shift) error {
	if _, ok := s.shifts[shift.ID]; !ok {
		return domain.ErrNotFound
	}
	s.shifts[shift.ID] = shift.Clone()
	return nil
}

func (s *fakeStore) DeleteShift(id int64) error {
	if _, ok := s.shifts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.shifts, id)
	return nil
}

func (s *fakeStore) GetSwapRequestByID(id int64) (*domain.SwapRequest, error) {
	req, ok := s.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *fakeStore) CreateSwapRequest(req *domain.SwapRequest) error {
	req.ID = s.nextReqID
	s.nextReqID++
	req.CreatedAt = time.Now()
	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

func (s *fakeStore) ResolveSwapRequest(req *domain.SwapRequest) error {
	stored, ok := s.requests[req.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Resolved() {
		return domain.ErrAlreadyResolved
	}
	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

func (s *fakeStore) ResolveSwapWithShift(req *domain.SwapRequest, mutate func(shift *domain.Shift) (*domain.Shift, error)) (*domain.Shift, error) {
	shift, ok := s.shifts[req.ShiftID]
	if !ok {
		return nil, domain.ErrNotFound
	}

	next, err := mutate(shift.Clone())
	if err != nil {
		return nil, err
	}

	if err := s.ResolveSwapRequest(req); err != nil {
		return nil, err
	}
	s.shifts[next.ID] = next.Clone()
	return next, nil
}

func (s *fakeStore) ListApprovedAbsences(asOf time.Time) ([]*domain.Absence, error) {
	return s.absences, nil
}

func (s *fakeStore) GetUserByID(id int64) (*domain.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

// fakeSink 收集引擎发布的事件
type fakeSink struct {
	events []domain.Event
}

func (s *fakeSink) Publish(event domain.Event) error {
	s.events = append(s.events, event)
	return nil
}

func (s *fakeSink) byType(t domain.EventType) []domain.Event {
	matched := []domain.Event{}
	for _, ev := range s.events {
		if ev.Type == t {
			matched = append(matched, ev)
		}
	}
	return matched
}

func newTestEngine() (*Engine, *fakeStore, *fakeSink) {
	store := newFakeStore()
	sink := &fakeSink{}

	store.users[1] = &domain.User{ID: 1, FullName: "张伟", Role: domain.RoleEmployee, IsActive: true}
	store.users[2] = &domain.User{ID: 2, FullName: "李芳", Role: domain.RoleEmployee, IsActive: true}
	store.users[3] = &domain.User{ID: 3, FullName: "王敏", Role: domain.RoleEmployee, IsActive: true}

	shift := newShift("2024-06-10", "09:00", "17:00")
	shift.ID = 10
	shift.AssignedUsers = []domain.Assignment{
		{UserID: 1, UserName: "张伟", Status: domain.AssignmentStatusAccepted},
		{UserID: 2, UserName: "李芳", Status: domain.AssignmentStatusAssigned},
	}
	store.shifts[10] = shift

	return NewEngine(store, sink), store, sink
}

func TestCreateSwapRequest(t *testing.T) {
	engine, store, sink := newTestEngine()

	req, err := engine.CreateSwapRequest(10, 1, 3, "家里有事")
	require.NoError(t, err)
	require.Equal(t, domain.SwapStatusPending, req.Status)
	require.Equal(t, "张伟", req.RequesterName)
	require.Equal(t, "王敏", req.RecipientName)
	require.Len(t, store.requests, 1)
	require.Len(t, sink.byType(domain.EventTypeSwapRequestCreated), 1)
}

func TestCreateSwapRequestSelfSwap(t *testing.T) {
	engine, store, _ := newTestEngine()

	_, err := engine.CreateSwapRequest(10, 1, 1, "")
	require.ErrorIs(t, err, domain.ErrSelfSwap)
	require.Empty(t, store.requests)
}

func TestCreateSwapRequestRequesterNotAssigned(t *testing.T) {
	engine, store, _ := newTestEngine()

	// 校验失败时不能留下任何申请记录
	_, err := engine.CreateSwapRequest(10, 3, 1, "")
	require.ErrorIs(t, err, domain.ErrNotAssigned)
	require.Empty(t, store.requests)
}

func TestRespondToSwapRequestReject(t *testing.T) {
	engine, store, _ := newTestEngine()

	req, err := engine.CreateSwapRequest(10, 1, 3, "")
	require.NoError(t, err)

	resolved, err := engine.RespondToSwapRequest(req.ID, false, "那天我也有安排", 3)
	require.NoError(t, err)
	require.Equal(t, domain.SwapStatusRejected, resolved.Status)
	require.NotNil(t, resolved.RespondedAt)

	// 拒绝不改变班次上的指派
	shift := store.shifts[10]
	require.Len(t, shift.AssignedUsers, 2)
	require.NotNil(t, shift.FindAssignment(1))
}

func TestRespondToSwapRequestTransfer(t *testing.T) {
	engine, store, sink := newTestEngine()

	// 接收方 3 不在班次上，批准后发生转让
	req, err := engine.CreateSwapRequest(10, 1, 3, "")
	require.NoError(t, err)

	resolved, err := engine.RespondToSwapRequest(req.ID, true, "", 3)
	require.NoError(t, err)
	require.Equal(t, domain.SwapStatusApproved, resolved.Status)

	shift := store.shifts[10]
	require.Len(t, shift.AssignedUsers, 2)
	require.Nil(t, shift.FindAssignment(1))

	recipient := shift.FindAssignment(3)
	require.NotNil(t, recipient)
	require.Equal(t, domain.AssignmentStatusAccepted, recipient.Status)
	require.Equal(t, "由 张伟 转让", recipient.Notes)

	// 一条处理结果事件和两条指派变更事件
	require.Len(t, sink.byType(domain.EventTypeSwapRequestResolved), 1)
	require.Len(t, sink.byType(domain.EventTypeAssignmentChanged), 2)
}

func TestRespondToSwapRequestExchange(t *testing.T) {
	engine, store, _ := newTestEngine()

	// 接收方 2 已在班次上，批准后双方互换位置
	req, err := engine.CreateSwapRequest(10, 1, 2, "")
	require.NoError(t, err)

	_, err = engine.RespondToSwapRequest(req.ID, true, "", 2)
	require.NoError(t, err)

	shift := store.shifts[10]
	require.Len(t, shift.AssignedUsers, 2)

	// 双方都还在班次上，且均为 accepted
	first := shift.FindAssignment(1)
	second := shift.FindAssignment(2)
	require.NotNil(t, first)
	require.NotNil(t, second)
	require.Equal(t, domain.AssignmentStatusAccepted, first.Status)
	require.Equal(t, domain.AssignmentStatusAccepted, second.Status)

	// 位置互换：原来 1 在第 0 位，现在第 0 位是 2
	require.Equal(t, int64(2), shift.AssignedUsers[0].UserID)
	require.Equal(t, "李芳", shift.AssignedUsers[0].UserName)
	require.Equal(t, int64(1), shift.AssignedUsers[1].UserID)
}

func TestRespondToSwapRequestAlreadyResolved(t *testing.T) {
	engine, _, _ := newTestEngine()

	req, err := engine.CreateSwapRequest(10, 1, 3, "")
	require.NoError(t, err)

	_, err = engine.RespondToSwapRequest(req.ID, false, "", 3)
	require.NoError(t, err)

	_, err = engine.RespondToSwapRequest(req.ID, true, "", 3)
	require.ErrorIs(t, err, domain.ErrAlreadyResolved)
}

func TestRespondToSwapRequestOrphanedShift(t *testing.T) {
	engine, store, _ := newTestEngine()

	req, err := engine.CreateSwapRequest(10, 1, 3, "")
	require.NoError(t, err)

	// 申请创建后班次被删除，批准在班次侧得到 ErrNotFound，申请保持 pending
	require.NoError(t, engine.DeleteShift(10))

	_, err = engine.RespondToSwapRequest(req.ID, true, "", 3)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Equal(t, domain.SwapStatusPending, store.requests[req.ID].Status)
}

func TestRespondToSwapRequestRequesterRemoved(t *testing.T) {
	engine, store, _ := newTestEngine()

	req, err := engine.CreateSwapRequest(10, 1, 3, "")
	require.NoError(t, err)

	// 申请创建后申请方被移出班次，批准应失败
	_, err = engine.UnassignUser(10, 1)
	require.NoError(t, err)

	_, err = engine.RespondToSwapRequest(req.ID, true, "", 3)
	require.ErrorIs(t, err, domain.ErrNotAssigned)
	require.Equal(t, domain.SwapStatusPending, store.requests[req.ID].Status)
}

func TestDeleteShiftBroadcastsAffectedUsers(t *testing.T) {
	engine, _, sink := newTestEngine()

	require.NoError(t, engine.DeleteShift(10))

	deleted := sink.byType(domain.EventTypeShiftDeleted)
	require.Len(t, deleted, 1)

	data := deleted[0].Data.(domain.ShiftDeletedData)
	require.ElementsMatch(t, []int64{1, 2}, data.AffectedUserIDs)
}

func TestEngineAssignAndRespond(t *testing.T) {
	engine, store, sink := newTestEngine()

	next, err := engine.AssignUser(10, 3)
	require.NoError(t, err)
	require.Equal(t, domain.AssignmentStatusAssigned, next.FindAssignment(3).Status)
	require.Len(t, store.shifts[10].AssignedUsers, 3)

	_, err = engine.RespondToAssignment(10, 3, DecisionAccept)
	require.NoError(t, err)
	require.Equal(t, domain.AssignmentStatusAccepted, store.shifts[10].FindAssignment(3).Status)

	require.Len(t, sink.byType(domain.EventTypeAssignmentChanged), 2)
}

func TestEngineReconciledShift(t *testing.T) {
	engine, store, _ := newTestEngine()

	absence := newAbsence(1, "2024-06-09", "2024-06-11", domain.AbsenceStatusApproved)
	store.absences = []*domain.Absence{absence}

	view, err := engine.ReconciledShift(10)
	require.NoError(t, err)
	require.Equal(t, domain.AssignmentStatusDeclined, view.FindAssignment(1).Status)

	// 存储中的状态保持不变
	require.Equal(t, domain.AssignmentStatusAccepted, store.shifts[10].FindAssignment(1).Status)
}
