package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

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

func (r *PgRepository) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, clinic_id, name, specialty,
		       slot_duration_min, working_days, break_blocks, max_concurrent,
		       created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)

	var d Doctor
	var workingDays, breakBlocks []byte

	err := row.Scan(
		&d.ID,
		&d.ClinicID,
		&d.Name,
		&d.Specialty,
		&d.Template.SlotDurationMin,
		&workingDays,
		&breakBlocks,
		&d.Template.MaxConcurrent,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(workingDays, &d.Template.WorkingDays); err != nil {
		return nil, fmt.Errorf("decode working_days for doctor %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(breakBlocks, &d.Template.BreakBlocks); err != nil {
		return nil, fmt.Errorf("decode break_blocks for doctor %s: %w", d.ID, err)
	}

	return &d, nil
}

func scanOverride(row pgx.Row) (*Override, error) {
	var ov Override
	var date time.Time
	var workingBlocks, breakBlocks []byte

	err := row.Scan(
		&ov.ID,
		&ov.DoctorID,
		&date,
		&workingBlocks,
		&breakBlocks,
		&ov.SlotDurationMin,
		&ov.MaxConcurrent,
		&ov.Status,
		&ov.CreatedAt,
		&ov.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOverrideNotFound
		}
		return nil, err
	}

	ov.Date = date.Format("2006-01-02")
	if workingBlocks != nil {
		if err := json.Unmarshal(workingBlocks, &ov.WorkingBlocks); err != nil {
			return nil, fmt.Errorf("decode working_blocks for override %s: %w", ov.ID, err)
		}
	}
	if breakBlocks != nil {
		if err := json.Unmarshal(breakBlocks, &ov.BreakBlocks); err != nil {
			return nil, fmt.Errorf("decode break_blocks for override %s: %w", ov.ID, err)
		}
	}

	return &ov, nil
}

func (r *PgRepository) GetOverride(ctx context.Context, doctorID uuid.UUID, date string) (*Override, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, date, working_blocks, break_blocks,
		       slot_duration_min, max_concurrent, status, created_at, updated_at
		FROM schedule_overrides
		WHERE doctor_id = $1 AND date = $2
	`, doctorID, date)
	return scanOverride(row)
}

// UpsertOverride inserts or fully replaces the override for (doctor, date).
// Repeating the same payload leaves exactly one row with the latest values.
func (r *PgRepository) UpsertOverride(ctx context.Context, ov *Override) (*Override, error) {
	workingBlocks, err := marshalBlocks(ov.WorkingBlocks)
	if err != nil {
		return nil, err
	}
	breakBlocks, err := marshalBlocks(ov.BreakBlocks)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO schedule_overrides
			(id, doctor_id, date, working_blocks, break_blocks,
			 slot_duration_min, max_concurrent, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		ON CONFLICT (doctor_id, date) DO UPDATE SET
			working_blocks    = EXCLUDED.working_blocks,
			break_blocks      = EXCLUDED.break_blocks,
			slot_duration_min = EXCLUDED.slot_duration_min,
			max_concurrent    = EXCLUDED.max_concurrent,
			status            = EXCLUDED.status,
			updated_at        = now()
		RETURNING id, doctor_id, date, working_blocks, break_blocks,
		          slot_duration_min, max_concurrent, status, created_at, updated_at
	`, uuid.New(), ov.DoctorID, ov.Date, workingBlocks, breakBlocks,
		ov.SlotDurationMin, ov.MaxConcurrent, ov.Status)

	return scanOverride(row)
}

func (r *PgRepository) ListOverrides(ctx context.Context, doctorID uuid.UUID, from, to string) ([]Override, error) {
	query := `
		SELECT id, doctor_id, date, working_blocks, break_blocks,
		       slot_duration_min, max_concurrent, status, created_at, updated_at
		FROM schedule_overrides
		WHERE doctor_id = $1
	`
	args := []any{doctorID}
	if from != "" && to != "" {
		query += ` AND date BETWEEN $2 AND $3`
		args = append(args, from, to)
	}
	query += ` ORDER BY date`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Override
	for rows.Next() {
		ov, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ov)
	}
	return result, rows.Err()
}

func (r *PgRepository) DeleteOverride(ctx context.Context, doctorID uuid.UUID, date string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM schedule_overrides
		WHERE doctor_id = $1 AND date = $2
	`, doctorID, date)
	if err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOverrideNotFound
	}
	return nil
}

func marshalBlocks(blocks []Block) ([]byte, error) {
	if blocks == nil {
		return nil, nil
	}
	data, err := json.Marshal(blocks)
	if err != nil {
		return nil, fmt.Errorf("encode blocks: %w", err)
	}
	return data, nil
}
