package roster

import (
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
)

const clockLayout = "15:04"

// parseClockMinutes 把 HH:MM 解析为从零点起的分钟数
func parseClockMinutes(value string) (int, error) {
	t, err := time.Parse(clockLayout, value)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ValidateShiftTimes 检查班次的时间字段
// 开始时间和结束时间相等时无法区分零时长和 24 小时，直接拒绝
func ValidateShiftTimes(startTime string, endTime string) error {
	if _, err := parseClockMinutes(startTime); err != nil {
		return fmt.Errorf("%w: 开始时间格式错误", domain.ErrInvalidShift)
	}
	if _, err := parseClockMinutes(endTime); err != nil {
		return fmt.Errorf("%w: 结束时间格式错误", domain.ErrInvalidShift)
	}
	if startTime == endTime {
		return fmt.Errorf("%w: 开始时间和结束时间不能相等", domain.ErrInvalidShift)
	}
	return nil
}

// ValidateShift 检查整个班次是否合法，应在班次进入引擎管理之前调用
func ValidateShift(shift *domain.Shift) error {
	if err := ValidateShiftTimes(shift.StartTime, shift.EndTime); err != nil {
		return err
	}
	if shift.Date.IsZero() {
		return fmt.Errorf("%w: 缺少班次日期", domain.ErrInvalidShift)
	}
	return nil
}

// SpansMidnight 判断班次是否跨午夜
// 结束时间早于开始时间，或结束时间恰好为 00:00 时均视为跨午夜
func SpansMidnight(startTime string, endTime string) bool {
	start, _ := parseClockMinutes(startTime)
	end, _ := parseClockMinutes(endTime)
	return end < start || end == 0
}

// OccupiedDays 返回班次占用的日历日，跨午夜时为开始日和次日
func OccupiedDays(shift *domain.Shift) []time.Time {
	day := shift.Date.Truncate(24 * time.Hour)
	if SpansMidnight(shift.StartTime, shift.EndTime) {
		return []time.Time{day, day.AddDate(0, 0, 1)}
	}
	return []time.Time{day}
}

// DurationMinutes 返回班次的时长（分钟），对 24 小时取模
func DurationMinutes(shift *domain.Shift) int {
	start, _ := parseClockMinutes(shift.StartTime)
	end, _ := parseClockMinutes(shift.EndTime)
	minutes := end - start
	if minutes <= 0 {
		minutes += 24 * 60
	}
	return minutes
}

// Interval 返回班次占用的绝对时间区间 [start, end)
func Interval(shift *domain.Shift) (time.Time, time.Time) {
	startMinutes, _ := parseClockMinutes(shift.StartTime)
	start := shift.Date.Truncate(24 * time.Hour).Add(time.Duration(startMinutes) * time.Minute)
	end := start.Add(time.Duration(DurationMinutes(shift)) * time.Minute)
	return start, end
}

// OverlapsRange 判断班次是否与 [rangeStart, rangeEnd) 相交，跨午夜的延续日也计入
func OverlapsRange(shift *domain.Shift, rangeStart time.Time, rangeEnd time.Time) bool {
	start, end := Interval(shift)
	return start.Before(rangeEnd) && rangeStart.Before(end)
}
