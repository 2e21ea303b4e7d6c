package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
)

const swapRequestColumns = `
	id, shift_id, requester_id, requester_name, recipient_id, recipient_name,
	status, request_notes, response_notes, responded_by, created_at, responded_at, version
`

func scanSwapRequestRow(scan func(dst ...any) error, req *domain.SwapRequest) error {
	dst := []any{
		&req.ID,
		&req.ShiftID,
		&req.RequesterID,
		&req.RequesterName,
		&req.RecipientID,
		&req.RecipientName,
		&req.Status,
		&req.RequestNotes,
		&req.ResponseNotes,
		&req.RespondedBy,
		&req.CreatedAt,
		&req.RespondedAt,
		&req.Version,
	}
	return scan(dst...)
}

func (r *Repository) GetSwapRequestByID(id int64) (*domain.SwapRequest, error) {
	query := `SELECT ` + swapRequestColumns + ` FROM swap_requests WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	req := &domain.SwapRequest{}
	if err := scanSwapRequestRow(r.dbpool.QueryRowContext(ctx, query, id).Scan, req); err != nil {
		return nil, wrapNotFound(err)
	}

	return req, nil
}

// ListSwapRequestsForUser 返回用户作为申请方或接收方的换班申请
// userID 为 0 时返回全部
func (r *Repository) ListSwapRequestsForUser(userID int64) ([]*domain.SwapRequest, error) {
	query := `
		SELECT ` + swapRequestColumns + ` FROM swap_requests
		WHERE $1 = 0 OR requester_id = $1 OR recipient_id = $1
		ORDER BY created_at DESC, id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []*domain.SwapRequest{}
	for rows.Next() {
		req := &domain.SwapRequest{}
		if err := scanSwapRequestRow(rows.Scan, req); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *Repository) CreateSwapRequest(req *domain.SwapRequest) error {
	query := `
		INSERT INTO swap_requests (shift_id, requester_id, requester_name, recipient_id, recipient_name, status, request_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{
		req.ShiftID,
		req.RequesterID,
		req.RequesterName,
		req.RecipientID,
		req.RecipientName,
		req.Status,
		req.RequestNotes,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&req.ID, &req.CreatedAt, &req.Version); err != nil {
		return err
	}

	r.publishSwapRequestsSnapshot()
	return nil
}

const resolveSwapRequestQuery = `
	UPDATE swap_requests
	SET
		status = $1,
		response_notes = $2,
		responded_by = $3,
		responded_at = $4,
		version = version + 1
	WHERE id = $5 AND version = $6 AND status = 'pending'
	RETURNING version
`

// ResolveSwapRequest 只更新申请记录本身，用于拒绝申请
func (r *Repository) ResolveSwapRequest(req *domain.SwapRequest) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{req.Status, req.ResponseNotes, req.RespondedBy, req.RespondedAt, req.ID, req.Version}
	if err := r.dbpool.QueryRowContext(ctx, resolveSwapRequestQuery, params...).Scan(&req.Version); err != nil {
		return r.classifySwapWriteError(req.ID, err)
	}

	r.publishSwapRequestsSnapshot()
	return nil
}

// ResolveSwapWithShift 在单个事务中更新换班申请并改写对应班次的指派列表
// 班次行先用 FOR UPDATE 锁住，保证换班对所有读者原子可见
func (r *Repository) ResolveSwapWithShift(req *domain.SwapRequest, mutate func(shift *domain.Shift) (*domain.Shift, error)) (*domain.Shift, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// 班次已被删除的孤儿申请在这里得到 ErrNotFound，申请保持 pending
	shiftQuery := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = $1 FOR UPDATE`
	shift := &domain.Shift{}
	if err := scanShiftRow(tx.QueryRowContext(ctx, shiftQuery, req.ShiftID).Scan, shift); err != nil {
		return nil, wrapNotFound(err)
	}

	next, err := mutate(shift)
	if err != nil {
		return nil, err
	}

	assigned, err := json.Marshal(next.AssignedUsers)
	if err != nil {
		return nil, err
	}

	shiftUpdate := `
		UPDATE shifts
		SET assigned_users = $1, updated_at = NOW(), version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING updated_at, version
	`
	if err := tx.QueryRowContext(ctx, shiftUpdate, assigned, next.ID, next.Version).Scan(&next.UpdatedAt, &next.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConcurrentModification
		}
		return nil, err
	}

	params := []any{req.Status, req.ResponseNotes, req.RespondedBy, req.RespondedAt, req.ID, req.Version}
	if err := tx.QueryRowContext(ctx, resolveSwapRequestQuery, params...).Scan(&req.Version); err != nil {
		return nil, r.classifySwapWriteError(req.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	r.publishShiftsSnapshot()
	r.publishSwapRequestsSnapshot()
	return next, nil
}

// classifySwapWriteError 区分乐观写入失败的原因：
// 申请不存在、已被并发处理、或版本冲突
func (r *Repository) classifySwapWriteError(id int64, err error) error {
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	current, readErr := r.GetSwapRequestByID(id)
	if readErr != nil {
		return readErr
	}
	if current.Resolved() {
		return domain.ErrAlreadyResolved
	}
	return domain.ErrConcurrentModification
}
