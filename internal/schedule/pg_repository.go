package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medops/ot-scheduling/internal/resource"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const slotColumns = `
	id, date, start_time, end_time, ot_room_id, surgery_request_id,
	resource_ids, status, notes, created_at, updated_at
`

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	var startStr, endStr string
	var resourceIDs []byte

	err := row.Scan(
		&s.ID,
		&s.Date,
		&startStr,
		&endStr,
		&s.RoomID,
		&s.SurgeryRequestID,
		&resourceIDs,
		&s.Status,
		&s.Notes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	if s.Start, err = resource.ParseTimeOfDay(startStr); err != nil {
		return nil, fmt.Errorf("decode start_time for %s: %w", s.ID, err)
	}
	if s.End, err = resource.ParseTimeOfDay(endStr); err != nil {
		return nil, fmt.Errorf("decode end_time for %s: %w", s.ID, err)
	}
	if len(resourceIDs) > 0 {
		if err := json.Unmarshal(resourceIDs, &s.ResourceIDs); err != nil {
			return nil, fmt.Errorf("decode resource_ids for %s: %w", s.ID, err)
		}
	}

	return &s, nil
}

func (r *PgRepository) Create(ctx context.Context, slot *Slot) error {
	encoded, err := json.Marshal(slot.ResourceIDs)
	if err != nil {
		return fmt.Errorf("encode resource ids: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO ot_slots
			(id, date, start_time, end_time, ot_room_id, surgery_request_id,
			 resource_ids, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
	`, slot.ID, slot.Date, slot.Start.String(), slot.End.String(), slot.RoomID,
		slot.SurgeryRequestID, encoded, slot.Status, slot.Notes)
	if err != nil {
		return fmt.Errorf("insert slot: %w", err)
	}
	return nil
}

func (r *PgRepository) GetActiveByRequest(ctx context.Context, requestID uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM ot_slots
		WHERE surgery_request_id = $1 AND status = 'booked'
	`, requestID)
	return scanSlot(row)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, to SlotStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE ot_slots
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, to)
	if err != nil {
		return fmt.Errorf("update slot status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (r *PgRepository) ListByDate(ctx context.Context, date string, roomID *uuid.UUID) ([]Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM ot_slots WHERE date = $1`
	args := []any{date}
	if roomID != nil {
		query += ` AND ot_room_id = $2`
		args = append(args, *roomID)
	}
	query += ` ORDER BY start_time`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
