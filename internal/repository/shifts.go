package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
)

// scanShiftRow 既能扫描 *sql.Row 也能扫描 *sql.Rows 的行
func scanShiftRow(scan func(dst ...any) error, shift *domain.Shift) error {
	var assigned []byte
	dst := []any{
		&shift.ID,
		&shift.Title,
		&shift.Date,
		&shift.StartTime,
		&shift.EndTime,
		&assigned,
		&shift.ApprovalDeadline,
		&shift.Notes,
		&shift.CreatedBy,
		&shift.CreatedAt,
		&shift.UpdatedAt,
		&shift.Version,
	}
	if err := scan(dst...); err != nil {
		return err
	}

	shift.AssignedUsers = []domain.Assignment{}
	if len(assigned) > 0 {
		if err := json.Unmarshal(assigned, &shift.AssignedUsers); err != nil {
			return err
		}
	}
	return nil
}

const shiftColumns = `
	id, title, date, start_time, end_time, assigned_users,
	approval_deadline, notes, created_by, created_at, updated_at, version
`

func (r *Repository) GetShiftByID(id int64) (*domain.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	shift := &domain.Shift{}
	if err := scanShiftRow(r.dbpool.QueryRowContext(ctx, query, id).Scan, shift); err != nil {
		return nil, wrapNotFound(err)
	}

	return shift, nil
}

func (r *Repository) GetAllShifts() ([]*domain.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts ORDER BY date, start_time, id`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := []*domain.Shift{}
	for rows.Next() {
		shift := &domain.Shift{}
		if err := scanShiftRow(rows.Scan, shift); err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}

// GetShiftsBetween 返回锚定日期落在窗口附近的班次
// 往前多取一天是为了把跨午夜延续到窗口内的班次也包含进来，
// 精确的区间判断由调用方用 roster.OverlapsRange 完成
func (r *Repository) GetShiftsBetween(rangeStart time.Time, rangeEnd time.Time) ([]*domain.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE date >= $1 AND date < $2 ORDER BY date, start_time, id`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, rangeStart.AddDate(0, 0, -1), rangeEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := []*domain.Shift{}
	for rows.Next() {
		shift := &domain.Shift{}
		if err := scanShiftRow(rows.Scan, shift); err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}

func (r *Repository) CreateShift(shift *domain.Shift) error {
	assigned, err := json.Marshal(shift.AssignedUsers)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO shifts (title, date, start_time, end_time, assigned_users, approval_deadline, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{
		shift.Title,
		shift.Date,
		shift.StartTime,
		shift.EndTime,
		assigned,
		shift.ApprovalDeadline,
		shift.Notes,
		shift.CreatedBy,
	}
	dst := []any{&shift.ID, &shift.CreatedAt, &shift.UpdatedAt, &shift.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(dst...); err != nil {
		return err
	}

	r.publishShiftsSnapshot()
	return nil
}

func (r *Repository) UpdateShift(shift *domain.Shift) error {
	assigned, err := json.Marshal(shift.AssignedUsers)
	if err != nil {
		return err
	}

	query := `
		UPDATE shifts
		SET
			title = $1,
			date = $2,
			start_time = $3,
			end_time = $4,
			assigned_users = $5,
			approval_deadline = $6,
			notes = $7,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $8 AND version = $9
		RETURNING updated_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{
		shift.Title,
		shift.Date,
		shift.StartTime,
		shift.EndTime,
		assigned,
		shift.ApprovalDeadline,
		shift.Notes,
		shift.ID,
		shift.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&shift.UpdatedAt, &shift.Version); err != nil {
		return r.classifyShiftWriteError(shift.ID, err)
	}

	r.publishShiftsSnapshot()
	return nil
}

// UpdateShiftAssignments 只写回指派列表，其余字段不动
func (r *Repository) UpdateShiftAssignments(shift *domain.Shift) error {
	assigned, err := json.Marshal(shift.AssignedUsers)
	if err != nil {
		return err
	}

	query := `
		UPDATE shifts
		SET assigned_users = $1, updated_at = NOW(), version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING updated_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, assigned, shift.ID, shift.Version).Scan(&shift.UpdatedAt, &shift.Version); err != nil {
		return r.classifyShiftWriteError(shift.ID, err)
	}

	r.publishShiftsSnapshot()
	return nil
}

// classifyShiftWriteError 区分乐观写入失败的原因：行不存在还是版本冲突
func (r *Repository) classifyShiftWriteError(id int64, err error) error {
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	exists := false
	query := `SELECT EXISTS (SELECT 1 FROM shifts WHERE id = $1)`
	if checkErr := r.dbpool.QueryRowContext(ctx, query, id).Scan(&exists); checkErr != nil {
		return checkErr
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConcurrentModification
}

// SaveShift 保存班次：草稿引用在这里才被解析为持久化 ID
func (r *Repository) SaveShift(ref domain.ShiftRef, shift *domain.Shift) (int64, error) {
	if id, ok := ref.Persisted(); ok {
		shift.ID = id
		if err := r.UpdateShift(shift); err != nil {
			return 0, err
		}
		return id, nil
	}

	if err := r.CreateShift(shift); err != nil {
		return 0, err
	}
	return shift.ID, nil
}

func (r *Repository) DeleteShift(id int64) error {
	query := `DELETE FROM shifts WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	r.publishShiftsSnapshot()
	return nil
}
