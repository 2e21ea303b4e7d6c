package roster

import (
	"slices"

	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
)

type Decision string

const (
	DecisionAccept  Decision = "accept"
	DecisionDecline Decision = "decline"
)

// assignmentChanged 构造一条指派变更事件数据
func assignmentChanged(shift *domain.Shift, userID int64, userName string, oldStatus, newStatus domain.AssignmentStatus) domain.AssignmentChangedData {
	return domain.AssignmentChangedData{
		ShiftID:    shift.ID,
		UserID:     userID,
		UserName:   userName,
		OldStatus:  oldStatus,
		NewStatus:  newStatus,
		ShiftTitle: shift.Title,
		ShiftDate:  shift.Date,
		StartTime:  shift.StartTime,
		EndTime:    shift.EndTime,
	}
}

// Assign 在班次上新增一条 assigned 状态的指派
// 用户已被指派时返回 ErrDuplicateAssignment
func Assign(shift *domain.Shift, userID int64, userName string) (*domain.Shift, domain.AssignmentChangedData, error) {
	if shift.FindAssignment(userID) != nil {
		return nil, domain.AssignmentChangedData{}, domain.ErrDuplicateAssignment
	}

	next := shift.Clone()
	next.AssignedUsers = append(next.AssignedUsers, domain.Assignment{
		UserID:   userID,
		UserName: userName,
		Status:   domain.AssignmentStatusAssigned,
	})

	return next, assignmentChanged(next, userID, userName, "", domain.AssignmentStatusAssigned), nil
}

// Unassign 移除用户在班次上的指派
// 移除是管理者动作，不受指派当前状态的限制
func Unassign(shift *domain.Shift, userID int64) (*domain.Shift, domain.AssignmentChangedData, error) {
	assignment := shift.FindAssignment(userID)
	if assignment == nil {
		return nil, domain.AssignmentChangedData{}, domain.ErrNotAssigned
	}

	oldStatus := assignment.Status
	userName := assignment.UserName

	next := shift.Clone()
	next.AssignedUsers = slices.DeleteFunc(next.AssignedUsers, func(a domain.Assignment) bool {
		return a.UserID == userID
	})

	return next, assignmentChanged(next, userID, userName, oldStatus, ""), nil
}

// Respond 员工对自己的指派做出响应
// 只有 assigned 和 pending 状态可以响应，accepted 和 declined 是终态，
// 想从终态重新开始必须由管理者先移除再重新指派
func Respond(shift *domain.Shift, userID int64, decision Decision) (*domain.Shift, domain.AssignmentChangedData, error) {
	assignment := shift.FindAssignment(userID)
	if assignment == nil {
		return nil, domain.AssignmentChangedData{}, domain.ErrNotAssigned
	}
	if !assignment.Status.AwaitingResponse() {
		return nil, domain.AssignmentChangedData{}, domain.ErrInvalidTransition
	}

	var newStatus domain.AssignmentStatus
	switch decision {
	case DecisionAccept:
		newStatus = domain.AssignmentStatusAccepted
	case DecisionDecline:
		newStatus = domain.AssignmentStatusDeclined
	default:
		return nil, domain.AssignmentChangedData{}, domain.ErrInvalidTransition
	}

	next := shift.Clone()
	target := next.FindAssignment(userID)
	oldStatus := target.Status
	target.Status = newStatus

	return next, assignmentChanged(next, userID, target.UserName, oldStatus, newStatus), nil
}
