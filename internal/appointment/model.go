package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCheckedIn Status = "CHECKED_IN"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusNoShow    Status = "NO_SHOW"
)

// Active reports whether an appointment in this status holds its slot.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCheckedIn
}

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

type Channel string

const (
	ChannelOffline Channel = "OFFLINE"
	ChannelOnline  Channel = "ONLINE"
)

type Role string

const (
	RoleCustomer    Role = "customer"
	RoleDoctor      Role = "doctor"
	RoleClinicOwner Role = "clinic-owner"
	RoleAdmin       Role = "admin"
)

// Actor is the verified identity performing a request. Identity and role
// arrive from the auth gateway; DoctorID is set only for doctor accounts and
// names their doctor profile.
type Actor struct {
	ID       uuid.UUID
	Role     Role
	DoctorID *uuid.UUID
}

type Appointment struct {
	ID          uuid.UUID
	ClinicID    *uuid.UUID
	DoctorID    uuid.UUID
	CustomerID  *uuid.UUID
	PetID       *uuid.UUID
	StartAt     time.Time
	EndAt       time.Time
	ExamType    string
	Note        string
	Channel     Channel
	Status      Status
	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clinic carries the policy fields the booking core consults. The rest of
// the clinic profile is owned elsewhere.
type Clinic struct {
	ID                     uuid.UUID
	Name                   string
	OwnerID                *uuid.UUID
	CancelBeforeMinutes    int
	NoShowMarkAfterMinutes int
}

// DefaultCancelBeforeMinutes applies when an appointment has no clinic
// attached (legacy bookings) or the clinic row is missing.
const DefaultCancelBeforeMinutes = 120
