package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanResource(row pgx.Row) (*Resource, error) {
	var r Resource
	var specialty *string
	var availability []byte

	err := row.Scan(
		&r.ID,
		&r.Type,
		&r.Name,
		&specialty,
		&availability,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	r.Specialty = specialty
	r.Availability = Availability{}
	if len(availability) > 0 {
		if err := json.Unmarshal(availability, &r.Availability); err != nil {
			return nil, fmt.Errorf("decode availability for %s: %w", r.ID, err)
		}
	}
	return &r, nil
}

func (r *PgRepository) Create(ctx context.Context, res *Resource) error {
	avail, err := json.Marshal(res.Availability)
	if err != nil {
		return fmt.Errorf("encode availability: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO ot_resources (id, type, name, specialty, availability, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
	`, res.ID, res.Type, res.Name, res.Specialty, avail)
	if err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Resource, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, type, name, specialty, availability, created_at, updated_at
		FROM ot_resources
		WHERE id = $1
	`, id)
	return scanResource(row)
}

func (r *PgRepository) List(ctx context.Context) ([]Resource, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, type, name, specialty, availability, created_at, updated_at
		FROM ot_resources
		ORDER BY type, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *res)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) UpdateDay(ctx context.Context, id uuid.UUID, date string, day DaySchedule) error {
	if day == nil {
		day = DaySchedule{}
	}
	encoded, err := json.Marshal(day)
	if err != nil {
		return fmt.Errorf("encode day schedule: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE ot_resources
		SET availability = jsonb_set(COALESCE(availability, '{}'::jsonb), ARRAY[$2], $3::jsonb, true),
		    updated_at = now()
		WHERE id = $1
	`, id, date, encoded)
	if err != nil {
		return fmt.Errorf("update availability day: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
