package roster

import (
	"time"

	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
)

// IsAvailable 判断用户在指定日期是否可用
// 只有 approved 状态的缺勤记录才会使用户不可用
// 空闲时间（Availability）只用于筛选候选人，这里不参与判断
func IsAvailable(userID int64, date time.Time, absences []*domain.Absence) bool {
	for _, absence := range absences {
		if absence.Status != domain.AbsenceStatusApproved {
			continue
		}
		if absence.UserID != userID {
			continue
		}
		if absence.Covers(date) {
			return false
		}
	}
	return true
}

// ReconcileAssignments 返回一份派生视图：凡是处于已批准缺勤期内的用户，
// 其指派状态一律显示为 declined
// 这是展示层面的视图，底层存储的状态不会被修改，
// 只有显式的状态机操作才能改变存储中的状态
func ReconcileAssignments(shift *domain.Shift, absences []*domain.Absence) *domain.Shift {
	view := shift.Clone()
	days := OccupiedDays(view)
	for i := range view.AssignedUsers {
		for _, day := range days {
			if !IsAvailable(view.AssignedUsers[i].UserID, day, absences) {
				view.AssignedUsers[i].Status = domain.AssignmentStatusDeclined
				break
			}
		}
	}
	return view
}
