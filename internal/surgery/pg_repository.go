package surgery

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

const requestColumns = `
	id, patient_id, requesting_doctor_id, surgery_type, urgency, diagnosis, notes,
	requested_at, status, scheduled_date, scheduled_start, scheduled_end,
	ot_room_id, assigned_resources, consent_signed, created_at, updated_at
`

func scanRequest(row pgx.Row) (*Request, error) {
	var r Request
	var schedDate, startStr, endStr *string
	var roomID *uuid.UUID
	var assigned []byte
	var consent *bool

	err := row.Scan(
		&r.ID,
		&r.PatientID,
		&r.DoctorID,
		&r.SurgeryType,
		&r.Urgency,
		&r.Diagnosis,
		&r.Notes,
		&r.RequestedAt,
		&r.Status,
		&schedDate,
		&startStr,
		&endStr,
		&roomID,
		&assigned,
		&consent,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	if schedDate != nil && startStr != nil && endStr != nil && roomID != nil {
		start, err := resource.ParseTimeOfDay(*startStr)
		if err != nil {
			return nil, fmt.Errorf("decode scheduled_start for %s: %w", r.ID, err)
		}
		end, err := resource.ParseTimeOfDay(*endStr)
		if err != nil {
			return nil, fmt.Errorf("decode scheduled_end for %s: %w", r.ID, err)
		}
		sch := Schedule{
			Date:   *schedDate,
			Start:  start,
			End:    end,
			RoomID: *roomID,
		}
		if len(assigned) > 0 {
			if err := json.Unmarshal(assigned, &sch.ResourceIDs); err != nil {
				return nil, fmt.Errorf("decode assigned_resources for %s: %w", r.ID, err)
			}
		}
		if consent != nil {
			sch.ConsentSigned = *consent
		}
		r.Schedule = &sch
	}

	return &r, nil
}

func (r *PgRepository) Create(ctx context.Context, req *Request) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO surgery_requests
			(id, patient_id, requesting_doctor_id, surgery_type, urgency, diagnosis, notes,
			 requested_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
	`, req.ID, req.PatientID, req.DoctorID, req.SurgeryType, req.Urgency,
		req.Diagnosis, req.Notes, req.RequestedAt, req.Status)
	if err != nil {
		return fmt.Errorf("insert surgery request: %w", err)
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+requestColumns+`
		FROM surgery_requests
		WHERE id = $1
	`, id)
	return scanRequest(row)
}

func (r *PgRepository) List(ctx context.Context, f ListFilter) ([]Request, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + requestColumns + ` FROM surgery_requests`
	args := []any{}
	where := ""
	if f.Status != nil {
		args = append(args, *f.Status)
		where = fmt.Sprintf(" WHERE status = $%d", len(args))
	}
	if f.Urgency != nil {
		args = append(args, *f.Urgency)
		if where == "" {
			where = fmt.Sprintf(" WHERE urgency = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND urgency = $%d", len(args))
		}
	}
	args = append(args, limit, offset)
	query += where + fmt.Sprintf(" ORDER BY requested_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	return r.queryRequests(ctx, query, args...)
}

func (r *PgRepository) ListCandidates(ctx context.Context) ([]Request, error) {
	return r.queryRequests(ctx, `
		SELECT `+requestColumns+`
		FROM surgery_requests
		WHERE status IN ('pending', 'reviewed')
		ORDER BY
			CASE urgency
				WHEN 'emergency' THEN 0
				WHEN 'urgent' THEN 1
				ELSE 2
			END,
			requested_at ASC
	`)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Request, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE surgery_requests
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+requestColumns+`
	`, id, to, from)

	req, err := scanRequest(row)
	if errors.Is(err, ErrRequestNotFound) {
		return nil, ErrStatusChanged
	}
	return req, err
}

func (r *PgRepository) SetSchedule(ctx context.Context, id uuid.UUID, from Status, sch Schedule) (*Request, error) {
	assigned, err := json.Marshal(sch.ResourceIDs)
	if err != nil {
		return nil, fmt.Errorf("encode assigned resources: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE surgery_requests
		SET status = 'scheduled',
		    scheduled_date = $2,
		    scheduled_start = $3,
		    scheduled_end = $4,
		    ot_room_id = $5,
		    assigned_resources = $6,
		    consent_signed = $7,
		    updated_at = now()
		WHERE id = $1
		  AND status = $8
		RETURNING `+requestColumns+`
	`, id, sch.Date, sch.Start.String(), sch.End.String(), sch.RoomID, assigned, sch.ConsentSigned, from)

	req, err := scanRequest(row)
	if errors.Is(err, ErrRequestNotFound) {
		return nil, ErrStatusChanged
	}
	return req, err
}

func (r *PgRepository) ClearSchedule(ctx context.Context, id uuid.UUID, from, to Status) (*Request, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE surgery_requests
		SET status = $2,
		    scheduled_date = NULL,
		    scheduled_start = NULL,
		    scheduled_end = NULL,
		    ot_room_id = NULL,
		    assigned_resources = NULL,
		    consent_signed = false,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+requestColumns+`
	`, id, to, from)

	req, err := scanRequest(row)
	if errors.Is(err, ErrRequestNotFound) {
		return nil, ErrStatusChanged
	}
	return req, err
}

func (r *PgRepository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, count(*)
		FROM surgery_requests
		GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *PgRepository) CountByUrgency(ctx context.Context) (map[Urgency]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT urgency, count(*)
		FROM surgery_requests
		GROUP BY urgency
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Urgency]int)
	for rows.Next() {
		var urgency Urgency
		var n int
		if err := rows.Scan(&urgency, &n); err != nil {
			return nil, err
		}
		counts[urgency] = n
	}
	return counts, rows.Err()
}

func (r *PgRepository) queryRequests(ctx context.Context, query string, args ...any) ([]Request, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
