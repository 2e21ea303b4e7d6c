package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
)

const absenceColumns = `
	id, user_id, start_date, end_date, type, status, notes, created_at, version
`

func scanAbsenceRow(scan func(dst ...any) error, absence *domain.Absence) error {
	dst := []any{
		&absence.ID,
		&absence.UserID,
		&absence.StartDate,
		&absence.EndDate,
		&absence.Type,
		&absence.Status,
		&absence.Notes,
		&absence.CreatedAt,
		&absence.Version,
	}
	return scan(dst...)
}

func (r *Repository) GetAbsenceByID(id int64) (*domain.Absence, error) {
	query := `SELECT ` + absenceColumns + ` FROM absences WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	absence := &domain.Absence{}
	if err := scanAbsenceRow(r.dbpool.QueryRowContext(ctx, query, id).Scan, absence); err != nil {
		return nil, wrapNotFound(err)
	}

	return absence, nil
}

// ListAbsencesForUser 返回用户的全部缺勤记录，userID 为 0 时返回所有人的
func (r *Repository) ListAbsencesForUser(userID int64) ([]*domain.Absence, error) {
	query := `
		SELECT ` + absenceColumns + ` FROM absences
		WHERE $1 = 0 OR user_id = $1
		ORDER BY start_date DESC, id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	absences := []*domain.Absence{}
	for rows.Next() {
		absence := &domain.Absence{}
		if err := scanAbsenceRow(rows.Scan, absence); err != nil {
			return nil, err
		}
		absences = append(absences, absence)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return absences, nil
}

// ListApprovedAbsences 返回截止日期不早于 asOf 的已批准缺勤
func (r *Repository) ListApprovedAbsences(asOf time.Time) ([]*domain.Absence, error) {
	query := `
		SELECT ` + absenceColumns + ` FROM absences
		WHERE status = 'approved' AND end_date >= $1
		ORDER BY start_date, id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, asOf.Truncate(24*time.Hour))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	absences := []*domain.Absence{}
	for rows.Next() {
		absence := &domain.Absence{}
		if err := scanAbsenceRow(rows.Scan, absence); err != nil {
			return nil, err
		}
		absences = append(absences, absence)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return absences, nil
}

func (r *Repository) CreateAbsence(absence *domain.Absence) error {
	query := `
		INSERT INTO absences (user_id, start_date, end_date, type, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{absence.UserID, absence.StartDate, absence.EndDate, absence.Type, absence.Status, absence.Notes}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&absence.ID, &absence.CreatedAt, &absence.Version); err != nil {
		return err
	}

	r.publishAbsencesSnapshot()
	return nil
}

// ReviewAbsence 管理者批准或驳回缺勤申请
func (r *Repository) ReviewAbsence(absence *domain.Absence) error {
	query := `
		UPDATE absences
		SET status = $1, version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, absence.Status, absence.ID, absence.Version).Scan(&absence.Version); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if _, readErr := r.GetAbsenceByID(absence.ID); readErr != nil {
			return readErr
		}
		return domain.ErrConcurrentModification
	}

	r.publishAbsencesSnapshot()
	return nil
}
