package domain

import "time"

type AbsenceType string

const (
	AbsenceTypeVacation  AbsenceType = "vacation"
	AbsenceTypeSickLeave AbsenceType = "sick_leave"
	AbsenceTypeDayOff    AbsenceType = "day_off"
)

type AbsenceStatus string

const (
	AbsenceStatusPending  AbsenceStatus = "pending"
	AbsenceStatusApproved AbsenceStatus = "approved"
	AbsenceStatusRejected AbsenceStatus = "rejected"
)

// Absence 缺勤记录，只有 approved 状态的记录才会影响可用性判断
type Absence struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"userID"`
	StartDate time.Time     `json:"startDate"`
	EndDate   time.Time     `json:"endDate"`
	Type      AbsenceType   `json:"type"`
	Status    AbsenceStatus `json:"status"`
	Notes     string        `json:"notes,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	Version   int32         `json:"-"`
}

// Covers 判断指定日期是否落在缺勤区间内（两端均为闭区间，按日比较）
func (a *Absence) Covers(date time.Time) bool {
	day := date.Truncate(24 * time.Hour)
	start := a.StartDate.Truncate(24 * time.Hour)
	end := a.EndDate.Truncate(24 * time.Hour)
	return !day.Before(start) && !day.After(end)
}
