package domain

import "time"

type SwapStatus string

const (
	SwapStatusPending  SwapStatus = "pending"
	SwapStatusApproved SwapStatus = "approved"
	SwapStatusRejected SwapStatus = "rejected"
)

// SwapRequest 换班申请
// 申请一旦不再处于 pending 状态就不可再变更
type SwapRequest struct {
	ID            int64      `json:"id"`
	ShiftID       int64      `json:"shiftID"`
	RequesterID   int64      `json:"requesterID"`
	RequesterName string     `json:"requesterName"`
	RecipientID   int64      `json:"recipientID"`
	RecipientName string     `json:"recipientName"`
	Status        SwapStatus `json:"status"`
	RequestNotes  string     `json:"requestNotes,omitempty"`
	ResponseNotes string     `json:"responseNotes,omitempty"`
	RespondedBy   *int64     `json:"respondedBy,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	RespondedAt   *time.Time `json:"respondedAt,omitempty"`
	Version       int32      `json:"-"`
}

// Resolved 判断申请是否已被处理
func (r *SwapRequest) Resolved() bool {
	return r.Status != SwapStatusPending
}
