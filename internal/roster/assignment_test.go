package roster

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
)

func TestAssign(t *testing.T) {
	shift := newShift("2024-06-10", "09:00", "17:00")

	next, event, err := Assign(shift, 1, "张伟")
	require.NoError(t, err)
	require.Len(t, next.AssignedUsers, 1)
	require.Equal(t, domain.AssignmentStatusAssigned, next.AssignedUsers[0].Status)
	require.Equal(t, int64(1), event.UserID)
	require.Equal(t, domain.AssignmentStatus(""), event.OldStatus)
	require.Equal(t, domain.AssignmentStatusAssigned, event.NewStatus)

	// 原班次不受影响
	require.Empty(t, shift.AssignedUsers)

	// 重复指派被拒绝
	_, _, err = Assign(next, 1, "张伟")
	require.ErrorIs(t, err, domain.ErrDuplicateAssignment)
}

func TestUnassign(t *testing.T) {
	shift := newShift("2024-06-10", "09:00", "17:00")
	shift.AssignedUsers = []domain.Assignment{
		{UserID: 1, UserName: "张伟", Status: domain.AssignmentStatusAccepted},
		{UserID: 2, UserName: "李芳", Status: domain.AssignmentStatusAssigned},
	}

	// 移除不受状态限制，accepted 的指派也可以被管理者移除
	next, event, err := Unassign(shift, 1)
	require.NoError(t, err)
	require.Len(t, next.AssignedUsers, 1)
	require.Nil(t, next.FindAssignment(1))
	require.Equal(t, domain.AssignmentStatusAccepted, event.OldStatus)
	require.Equal(t, domain.AssignmentStatus(""), event.NewStatus)

	_, _, err = Unassign(shift, 99)
	require.ErrorIs(t, err, domain.ErrNotAssigned)
}

func TestRespond(t *testing.T) {
	shift := newShift("2024-06-10", "09:00", "17:00")
	shift.AssignedUsers = []domain.Assignment{
		{UserID: 1, UserName: "张伟", Status: domain.AssignmentStatusAssigned},
		{UserID: 2, UserName: "李芳", Status: domain.AssignmentStatusPending},
	}

	accepted, event, err := Respond(shift, 1, DecisionAccept)
	require.NoError(t, err)
	require.Equal(t, domain.AssignmentStatusAccepted, accepted.FindAssignment(1).Status)
	require.Equal(t, domain.AssignmentStatusAssigned, event.OldStatus)
	require.Equal(t, domain.AssignmentStatusAccepted, event.NewStatus)

	// pending 状态同样可以响应
	declined, _, err := Respond(shift, 2, DecisionDecline)
	require.NoError(t, err)
	require.Equal(t, domain.AssignmentStatusDeclined, declined.FindAssignment(2).Status)

	// 终态不允许再次响应
	_, _, err = Respond(accepted, 1, DecisionDecline)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, _, err = Respond(declined, 2, DecisionAccept)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	// 未被指派的用户无法响应
	_, _, err = Respond(shift, 99, DecisionAccept)
	require.ErrorIs(t, err, domain.ErrNotAssigned)

	// 非法的决定
	_, _, err = Respond(shift, 1, Decision("maybe"))
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}
