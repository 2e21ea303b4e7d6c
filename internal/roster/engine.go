package roster

import (
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
)

// Store 是引擎对持久化层的全部要求
// 所有写入都是乐观的读取-校验-写回：底层实现必须在版本不匹配时
// 返回 ErrConcurrentModification，而不是静默覆盖并发写入
type Store interface {
	GetShiftByID(id int64) (*domain.Shift, error)
	UpdateShiftAssignments(shift *domain.Shift) error
	DeleteShift(id int64) error
	GetSwapRequestByID(id int64) (*domain.SwapRequest, error)
	CreateSwapRequest(req *domain.SwapRequest) error
	ResolveSwapRequest(req *domain.SwapRequest) error
	// ResolveSwapWithShift 在单个事务中更新换班申请并改写对应班次的指派列表
	// mutate 返回的班次会被写回，mutate 返回错误时整个事务回滚
	ResolveSwapWithShift(req *domain.SwapRequest, mutate func(shift *domain.Shift) (*domain.Shift, error)) (*domain.Shift, error)
	ListApprovedAbsences(asOf time.Time) ([]*domain.Absence, error)
	GetUserByID(id int64) (*domain.User, error)
}

// EventSink 接收引擎产生的领域事件，通知的投递由外部协作方负责
type EventSink interface {
	Publish(event domain.Event) error
}

// Engine 班次指派与换班的编排引擎
// 引擎自身不持有任何长期状态，每次操作都从 Store 重新读取
type Engine struct {
	store Store
	sink  EventSink
}

func NewEngine(store Store, sink EventSink) *Engine {
	return &Engine{
		store: store,
		sink:  sink,
	}
}

// publish 事件投递是 at-least-once 的尽力而为，失败只记录日志，不影响已完成的写入
func (e *Engine) publish(event domain.Event) {
	if err := e.sink.Publish(event); err != nil {
		slog.Error("无法投递领域事件", "type", event.Type, "error", err)
	}
}

// AssignUser 把用户指派到班次上，初始状态为 assigned
func (e *Engine) AssignUser(shiftID int64, userID int64) (*domain.Shift, error) {
	user, err := e.store.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	shift, err := e.store.GetShiftByID(shiftID)
	if err != nil {
		return nil, err
	}

	next, event, err := Assign(shift, userID, user.FullName)
	if err != nil {
		return nil, err
	}

	if err := e.store.UpdateShiftAssignments(next); err != nil {
		return nil, err
	}

	e.publish(domain.Event{Type: domain.EventTypeAssignmentChanged, Data: event})
	return next, nil
}

// UnassignUser 把用户从班次上移除
func (e *Engine) UnassignUser(shiftID int64, userID int64) (*domain.Shift, error) {
	shift, err := e.store.GetShiftByID(shiftID)
	if err != nil {
		return nil, err
	}

	next, event, err := Unassign(shift, userID)
	if err != nil {
		return nil, err
	}

	if err := e.store.UpdateShiftAssignments(next); err != nil {
		return nil, err
	}

	e.publish(domain.Event{Type: domain.EventTypeAssignmentChanged, Data: event})
	return next, nil
}

// RespondToAssignment 员工接受或拒绝自己的指派
func (e *Engine) RespondToAssignment(shiftID int64, userID int64, decision Decision) (*domain.Shift, error) {
	shift, err := e.store.GetShiftByID(shiftID)
	if err != nil {
		return nil, err
	}

	next, event, err := Respond(shift, userID, decision)
	if err != nil {
		return nil, err
	}

	if err := e.store.UpdateShiftAssignments(next); err != nil {
		return nil, err
	}

	e.publish(domain.Event{Type: domain.EventTypeAssignmentChanged, Data: event})
	return next, nil
}

// ReconciledShift 返回某个班次与已批准缺勤对账后的派生视图
func (e *Engine) ReconciledShift(shiftID int64) (*domain.Shift, error) {
	shift, err := e.store.GetShiftByID(shiftID)
	if err != nil {
		return nil, err
	}

	absences, err := e.store.ListApprovedAbsences(shift.Date)
	if err != nil {
		return nil, err
	}

	return ReconcileAssignments(shift, absences), nil
}

// DeleteShift 删除班次并广播受影响的用户
// 引用该班次的换班申请不会被级联清理，后续操作会在班次侧得到 ErrNotFound
func (e *Engine) DeleteShift(shiftID int64) error {
	shift, err := e.store.GetShiftByID(shiftID)
	if err != nil {
		return err
	}

	if err := e.store.DeleteShift(shiftID); err != nil {
		return err
	}

	affected := make([]int64, 0, len(shift.AssignedUsers))
	for _, assignment := range shift.AssignedUsers {
		affected = append(affected, assignment.UserID)
	}

	e.publish(domain.Event{Type: domain.EventTypeShiftDeleted, Data: domain.ShiftDeletedData{
		ShiftID:         shift.ID,
		ShiftTitle:      shift.Title,
		AffectedUserIDs: affected,
	}})
	return nil
}

// CreateSwapRequest 创建换班申请
// 申请方必须在班次上持有指派，校验失败时不会留下任何记录
func (e *Engine) CreateSwapRequest(shiftID int64, requesterID int64, recipientID int64, notes string) (*domain.SwapRequest, error) {
	if requesterID == recipientID {
		return nil, domain.ErrSelfSwap
	}

	shift, err := e.store.GetShiftByID(shiftID)
	if err != nil {
		return nil, err
	}

	requester := shift.FindAssignment(requesterID)
	if requester == nil {
		return nil, domain.ErrNotAssigned
	}

	recipient, err := e.store.GetUserByID(recipientID)
	if err != nil {
		return nil, err
	}

	req := &domain.SwapRequest{
		ShiftID:       shiftID,
		RequesterID:   requesterID,
		RequesterName: requester.UserName,
		RecipientID:   recipientID,
		RecipientName: recipient.FullName,
		Status:        domain.SwapStatusPending,
		RequestNotes:  notes,
	}

	if err := e.store.CreateSwapRequest(req); err != nil {
		return nil, err
	}

	e.publish(domain.Event{Type: domain.EventTypeSwapRequestCreated, Data: domain.SwapRequestCreatedData{
		RequestID:   req.ID,
		ShiftID:     req.ShiftID,
		RequesterID: req.RequesterID,
		RecipientID: req.RecipientID,
	}})
	return req, nil
}

// RespondToSwapRequest 处理换班申请
// 拒绝只更新申请记录；批准会在同一个事务里完成指派的交换或转让
func (e *Engine) RespondToSwapRequest(requestID int64, approve bool, responseNotes string, respondedBy int64) (*domain.SwapRequest, error) {
	req, err := e.store.GetSwapRequestByID(requestID)
	if err != nil {
		return nil, err
	}
	if req.Resolved() {
		return nil, domain.ErrAlreadyResolved
	}

	now := time.Now()
	req.ResponseNotes = responseNotes
	req.RespondedBy = &respondedBy
	req.RespondedAt = &now

	if !approve {
		req.Status = domain.SwapStatusRejected
		if err := e.store.ResolveSwapRequest(req); err != nil {
			return nil, err
		}

		e.publish(domain.Event{Type: domain.EventTypeSwapRequestResolved, Data: domain.SwapRequestResolvedData{
			RequestID:   req.ID,
			RequesterID: req.RequesterID,
			Outcome:     req.Status,
			ShiftID:     req.ShiftID,
		}})
		return req, nil
	}

	req.Status = domain.SwapStatusApproved
	var events []domain.AssignmentChangedData
	if _, err := e.store.ResolveSwapWithShift(req, func(shift *domain.Shift) (*domain.Shift, error) {
		next, changed, err := applySwap(shift, req.RequesterID, req.RecipientID, req.RecipientName)
		if err != nil {
			return nil, err
		}
		events = changed
		return next, nil
	}); err != nil {
		return nil, err
	}

	e.publish(domain.Event{Type: domain.EventTypeSwapRequestResolved, Data: domain.SwapRequestResolvedData{
		RequestID:   req.ID,
		RequesterID: req.RequesterID,
		Outcome:     req.Status,
		ShiftID:     req.ShiftID,
	}})
	for _, event := range events {
		e.publish(domain.Event{Type: domain.EventTypeAssignmentChanged, Data: event})
	}
	return req, nil
}
