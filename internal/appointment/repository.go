package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrClinicNotFound      = errors.New("clinic not found")
)

// ListFilter narrows an appointment listing. Zero-value fields are ignored.
type ListFilter struct {
	DoctorID   *uuid.UUID
	CustomerID *uuid.UUID
	Limit      int
	Offset     int
}

// Repository contains all appointment-side DB interactions needed by the
// service.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// Insert creates the row. The storage-level uniqueness constraint on
	// (doctor_id, start_at) over active statuses is the authoritative
	// double-booking guard; a violation surfaces as ErrSlotTaken.
	Insert(ctx context.Context, a *Appointment) (*Appointment, error)

	// FindActiveAt is the pre-check inside the booking critical section.
	FindActiveAt(ctx context.Context, doctorID uuid.UUID, startAt time.Time) (*Appointment, error)

	// ListActiveStarts returns the start times of active holds for a doctor
	// within [from, to).
	ListActiveStarts(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]time.Time, error)

	// UpdateStatus performs a compare-and-swap on the status column and
	// returns ErrAppointmentNotFound when the row is gone or its status no
	// longer matches from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, cancelledAt *time.Time) (*Appointment, error)

	List(ctx context.Context, f ListFilter) ([]Appointment, error)

	// Delete is the administrative hard-delete path; normal flows cancel
	// instead.
	Delete(ctx context.Context, id uuid.UUID) error

	GetClinic(ctx context.Context, id uuid.UUID) (*Clinic, error)
}
