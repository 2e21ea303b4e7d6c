package domain

import (
	"strings"
	"time"
)

type AssignmentStatus string

const (
	AssignmentStatusAssigned AssignmentStatus = "assigned" // 管理者指派，等待员工响应
	AssignmentStatusPending  AssignmentStatus = "pending"  // 系统建议，等待员工响应
	AssignmentStatusAccepted AssignmentStatus = "accepted"
	AssignmentStatusDeclined AssignmentStatus = "declined"
)

// AwaitingResponse 判断该状态是否仍在等待员工响应
func (s AssignmentStatus) AwaitingResponse() bool {
	return s == AssignmentStatusAssigned || s == AssignmentStatusPending
}

type Assignment struct {
	UserID   int64            `json:"userID"`
	UserName string           `json:"userName"`
	Status   AssignmentStatus `json:"status"`
	Notes    string           `json:"notes,omitempty"`
}

type Shift struct {
	ID               int64        `json:"id"`
	Title            string       `json:"title"`
	Date             time.Time    `json:"date"`
	StartTime        string       `json:"startTime"` // HH:MM
	EndTime          string       `json:"endTime"`   // HH:MM
	AssignedUsers    []Assignment `json:"assignedUsers"`
	ApprovalDeadline *time.Time   `json:"approvalDeadline,omitempty"`
	Notes            string       `json:"notes,omitempty"`
	CreatedBy        int64        `json:"createdBy"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
	Version          int32        `json:"-"`
}

// FindAssignment 返回指定用户在该班次上的指派，不存在时返回 nil
func (s *Shift) FindAssignment(userID int64) *Assignment {
	for i := range s.AssignedUsers {
		if s.AssignedUsers[i].UserID == userID {
			return &s.AssignedUsers[i]
		}
	}
	return nil
}

// Clone 返回班次的深拷贝，状态机的所有操作都在拷贝上进行
func (s *Shift) Clone() *Shift {
	cp := *s
	cp.AssignedUsers = make([]Assignment, len(s.AssignedUsers))
	copy(cp.AssignedUsers, s.AssignedUsers)
	if s.ApprovalDeadline != nil {
		deadline := *s.ApprovalDeadline
		cp.ApprovalDeadline = &deadline
	}
	return &cp
}

type ShiftCategory string

const (
	ShiftCategoryEarly   ShiftCategory = "early"
	ShiftCategoryLate    ShiftCategory = "late"
	ShiftCategoryNight   ShiftCategory = "night"
	ShiftCategoryGeneral ShiftCategory = "general"
)

// Category 根据标题中的关键字对班次归类，仅用于前端展示图标和颜色
func (s *Shift) Category() ShiftCategory {
	title := strings.ToLower(s.Title)
	switch {
	case strings.Contains(title, "early") || strings.Contains(title, "早"):
		return ShiftCategoryEarly
	case strings.Contains(title, "night") || strings.Contains(title, "夜"):
		return ShiftCategoryNight
	case strings.Contains(title, "late") || strings.Contains(title, "晚"):
		return ShiftCategoryLate
	default:
		return ShiftCategoryGeneral
	}
}

// ShiftRef 标识一个班次：要么指向已持久化的班次，要么指向尚未保存的草稿
// 两者的区分只能通过显式的变体表达，禁止通过 ID 前缀等字符串约定来区分
type ShiftRef struct {
	id    int64
	draft string
}

func PersistedShiftRef(id int64) ShiftRef {
	return ShiftRef{id: id}
}

func DraftShiftRef(tempID string) ShiftRef {
	return ShiftRef{draft: tempID}
}

// Persisted 返回已持久化班次的 ID
func (r ShiftRef) Persisted() (int64, bool) {
	return r.id, r.id != 0
}

// Draft 返回草稿班次的临时 ID
func (r ShiftRef) Draft() (string, bool) {
	return r.draft, r.id == 0
}
