package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
)

const availabilityColumns = `
	id, user_id, week_day, start_time, end_time, recurring, notes, created_at, version
`

func scanAvailabilityRow(scan func(dst ...any) error, availability *domain.Availability) error {
	dst := []any{
		&availability.ID,
		&availability.UserID,
		&availability.WeekDay,
		&availability.StartTime,
		&availability.EndTime,
		&availability.Recurring,
		&availability.Notes,
		&availability.CreatedAt,
		&availability.Version,
	}
	return scan(dst...)
}

func (r *Repository) GetAvailabilityByID(id int64) (*domain.Availability, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availabilities WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	availability := &domain.Availability{}
	if err := scanAvailabilityRow(r.dbpool.QueryRowContext(ctx, query, id).Scan, availability); err != nil {
		return nil, wrapNotFound(err)
	}

	return availability, nil
}

func (r *Repository) ListAvailabilitiesForUser(userID int64) ([]*domain.Availability, error) {
	query := `
		SELECT ` + availabilityColumns + ` FROM availabilities
		WHERE user_id = $1
		ORDER BY week_day, start_time, id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	availabilities := []*domain.Availability{}
	for rows.Next() {
		availability := &domain.Availability{}
		if err := scanAvailabilityRow(rows.Scan, availability); err != nil {
			return nil, err
		}
		availabilities = append(availabilities, availability)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return availabilities, nil
}

func (r *Repository) CreateAvailability(availability *domain.Availability) error {
	query := `
		INSERT INTO availabilities (user_id, week_day, start_time, end_time, recurring, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{
		availability.UserID,
		availability.WeekDay,
		availability.StartTime,
		availability.EndTime,
		availability.Recurring,
		availability.Notes,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&availability.ID, &availability.CreatedAt, &availability.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) UpdateAvailability(availability *domain.Availability) error {
	query := `
		UPDATE availabilities
		SET
			week_day = $1,
			start_time = $2,
			end_time = $3,
			recurring = $4,
			notes = $5,
			version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{
		availability.WeekDay,
		availability.StartTime,
		availability.EndTime,
		availability.Recurring,
		availability.Notes,
		availability.ID,
		availability.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&availability.Version); err != nil {
		return wrapNotFound(err)
	}

	return nil
}

func (r *Repository) DeleteAvailability(id int64) error {
	query := `DELETE FROM availabilities WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
