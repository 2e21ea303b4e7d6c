package roster

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
)

func newShift(date string, startTime string, endTime string) *domain.Shift {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return &domain.Shift{
		ID:            1,
		Title:         "前台值班",
		Date:          day,
		StartTime:     startTime,
		EndTime:       endTime,
		AssignedUsers: []domain.Assignment{},
	}
}

func TestValidateShiftTimes(t *testing.T) {
	require.NoError(t, ValidateShiftTimes("09:00", "17:00"))
	require.NoError(t, ValidateShiftTimes("22:00", "06:00"))
	require.NoError(t, ValidateShiftTimes("16:00", "00:00"))

	err := ValidateShiftTimes("09:00", "09:00")
	require.ErrorIs(t, err, domain.ErrInvalidShift)

	require.ErrorIs(t, ValidateShiftTimes("9点", "17:00"), domain.ErrInvalidShift)
	require.ErrorIs(t, ValidateShiftTimes("09:00", "25:00"), domain.ErrInvalidShift)
}

func TestValidateShift(t *testing.T) {
	require.NoError(t, ValidateShift(newShift("2024-06-10", "09:00", "17:00")))

	noDate := &domain.Shift{StartTime: "09:00", EndTime: "17:00"}
	require.ErrorIs(t, ValidateShift(noDate), domain.ErrInvalidShift)
}

func TestSpansMidnight(t *testing.T) {
	require.False(t, SpansMidnight("09:00", "17:00"))
	require.True(t, SpansMidnight("22:00", "06:00"))
	// 00:00 结束视为次日零点
	require.True(t, SpansMidnight("16:00", "00:00"))
	require.False(t, SpansMidnight("00:00", "08:00"))
}

func TestDurationMinutes(t *testing.T) {
	require.Equal(t, 480, DurationMinutes(newShift("2024-06-10", "09:00", "17:00")))
	// 跨午夜班次 22:00-06:00 时长为 8 小时而不是负数
	require.Equal(t, 480, DurationMinutes(newShift("2024-06-10", "22:00", "06:00")))
	require.Equal(t, 480, DurationMinutes(newShift("2024-06-10", "16:00", "00:00")))
}

func TestOccupiedDays(t *testing.T) {
	same := OccupiedDays(newShift("2024-06-10", "09:00", "17:00"))
	require.Len(t, same, 1)
	require.Equal(t, "2024-06-10", same[0].Format("2006-01-02"))

	crossing := OccupiedDays(newShift("2024-06-10", "22:00", "06:00"))
	require.Len(t, crossing, 2)
	require.Equal(t, "2024-06-10", crossing[0].Format("2006-01-02"))
	require.Equal(t, "2024-06-11", crossing[1].Format("2006-01-02"))
}

func TestInterval(t *testing.T) {
	start, end := Interval(newShift("2024-06-10", "22:00", "06:00"))
	require.Equal(t, "2024-06-10 22:00", start.Format("2006-01-02 15:04"))
	require.Equal(t, "2024-06-11 06:00", end.Format("2006-01-02 15:04"))
}

func TestOverlapsRange(t *testing.T) {
	crossing := newShift("2024-06-10", "22:00", "06:00")

	from, _ := time.Parse("2006-01-02", "2024-06-11")
	to, _ := time.Parse("2006-01-02", "2024-06-12")
	// 班次开始于 6-10，但延续到 6-11 早上，查询 6-11 当天应该能查到
	require.True(t, OverlapsRange(crossing, from, to))

	later, _ := time.Parse("2006-01-02", "2024-06-12")
	evenLater, _ := time.Parse("2006-01-02", "2024-06-13")
	require.False(t, OverlapsRange(crossing, later, evenLater))

	dayShift := newShift("2024-06-10", "09:00", "17:00")
	require.False(t, OverlapsRange(dayShift, from, to))
}

func TestInvalidTimesWrapped(t *testing.T) {
	err := ValidateShiftTimes("bad", "worse")
	require.True(t, errors.Is(err, domain.ErrInvalidShift))
}
