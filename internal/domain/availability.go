package domain

import "time"

// Availability 员工自行维护的每周空闲时间窗口
// 空闲时间只用于筛选候选指派人，不会反过来使已有的指派失效
type Availability struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userID"`
	WeekDay   int32     `json:"weekDay"` // 0~6，0 表示周日
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Recurring bool      `json:"recurring"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}
