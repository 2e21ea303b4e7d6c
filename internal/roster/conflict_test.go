package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
)

func newAbsence(userID int64, startDate string, endDate string, status domain.AbsenceStatus) *domain.Absence {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		panic(err)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		panic(err)
	}
	return &domain.Absence{
		UserID:    userID,
		StartDate: start,
		EndDate:   end,
		Type:      domain.AbsenceTypeVacation,
		Status:    status,
	}
}

func TestIsAvailable(t *testing.T) {
	absences := []*domain.Absence{
		newAbsence(1, "2024-06-10", "2024-06-12", domain.AbsenceStatusApproved),
		newAbsence(2, "2024-06-10", "2024-06-12", domain.AbsenceStatusPending),
	}

	day := func(value string) time.Time {
		d, _ := time.Parse("2006-01-02", value)
		return d
	}

	require.False(t, IsAvailable(1, day("2024-06-11"), absences))
	// 区间两端都是闭区间
	require.False(t, IsAvailable(1, day("2024-06-10"), absences))
	require.False(t, IsAvailable(1, day("2024-06-12"), absences))
	require.True(t, IsAvailable(1, day("2024-06-13"), absences))

	// 未批准的缺勤不影响可用性
	require.True(t, IsAvailable(2, day("2024-06-11"), absences))
	require.True(t, IsAvailable(3, day("2024-06-11"), absences))
}

func TestReconcileAssignments(t *testing.T) {
	shift := newShift("2024-06-11", "09:00", "17:00")
	shift.AssignedUsers = []domain.Assignment{
		{UserID: 1, UserName: "张伟", Status: domain.AssignmentStatusAccepted},
		{UserID: 2, UserName: "李芳", Status: domain.AssignmentStatusAssigned},
	}

	absences := []*domain.Absence{
		newAbsence(1, "2024-06-10", "2024-06-12", domain.AbsenceStatusApproved),
	}

	view := ReconcileAssignments(shift, absences)

	require.Equal(t, domain.AssignmentStatusDeclined, view.AssignedUsers[0].Status)
	require.Equal(t, domain.AssignmentStatusAssigned, view.AssignedUsers[1].Status)

	// 对账只影响派生视图，原始班次保持不变
	require.Equal(t, domain.AssignmentStatusAccepted, shift.AssignedUsers[0].Status)
}

func TestReconcileAssignmentsCrossingMidnight(t *testing.T) {
	// 班次 6-10 晚开始、6-11 早结束，缺勤只覆盖 6-11，延续日也要参与判断
	shift := newShift("2024-06-10", "22:00", "06:00")
	shift.AssignedUsers = []domain.Assignment{
		{UserID: 1, UserName: "张伟", Status: domain.AssignmentStatusAccepted},
	}

	absences := []*domain.Absence{
		newAbsence(1, "2024-06-11", "2024-06-11", domain.AbsenceStatusApproved),
	}

	view := ReconcileAssignments(shift, absences)
	require.Equal(t, domain.AssignmentStatusDeclined, view.AssignedUsers[0].Status)
}
