package schedule

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound   = errors.New("doctor not found")
	ErrOverrideNotFound = errors.New("schedule override not found")
)

// Repository contains the schedule-side DB interactions: doctor templates and
// per-date overrides. Dates are normalized YYYY-MM-DD strings.
type Repository interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)

	GetOverride(ctx context.Context, doctorID uuid.UUID, date string) (*Override, error)
	UpsertOverride(ctx context.Context, ov *Override) (*Override, error)
	ListOverrides(ctx context.Context, doctorID uuid.UUID, from, to string) ([]Override, error)
	DeleteOverride(ctx context.Context, doctorID uuid.UUID, date string) error
}
