package domain

import "time"

type EventType string

const (
	EventTypeAssignmentChanged   EventType = "assignment_changed"
	EventTypeSwapRequestCreated  EventType = "swap_request_created"
	EventTypeSwapRequestResolved EventType = "swap_request_resolved"
	EventTypeShiftDeleted        EventType = "shift_deleted"
)

// Event 发往通知队列的消息信封，Data 的具体类型由 Type 决定
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

type AssignmentChangedData struct {
	ShiftID    int64            `json:"shiftID"`
	UserID     int64            `json:"userID"`
	UserName   string           `json:"userName"`
	OldStatus  AssignmentStatus `json:"oldStatus"` // 新增指派时为空
	NewStatus  AssignmentStatus `json:"newStatus"` // 移除指派时为空
	ShiftTitle string           `json:"shiftTitle"`
	ShiftDate  time.Time        `json:"shiftDate"`
	StartTime  string           `json:"startTime"`
	EndTime    string           `json:"endTime"`
}

type SwapRequestCreatedData struct {
	RequestID   int64 `json:"requestID"`
	ShiftID     int64 `json:"shiftID"`
	RequesterID int64 `json:"requesterID"`
	RecipientID int64 `json:"recipientID"`
}

type SwapRequestResolvedData struct {
	RequestID   int64      `json:"requestID"`
	RequesterID int64      `json:"requesterID"`
	Outcome     SwapStatus `json:"outcome"`
	ShiftID     int64      `json:"shiftID"`
}

type ShiftDeletedData struct {
	ShiftID         int64   `json:"shiftID"`
	ShiftTitle      string  `json:"shiftTitle"`
	AffectedUserIDs []int64 `json:"affectedUserIDs"`
}
