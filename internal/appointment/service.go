package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/pawmed/vet-clinic-booking/internal/redis"
	"github.com/pawmed/vet-clinic-booking/internal/schedule"
)

var (
	ErrInvalidTime     = errors.New("invalid or unparseable start time")
	ErrSlotTaken       = errors.New("slot already has an active appointment")
	ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")
	ErrInvalidOverride = errors.New("invalid override payload")
)

type Service struct {
	repo      Repository
	schedules schedule.Repository
	locker    redisclient.Locker
	loc       *time.Location
	log       zerolog.Logger
}

func NewService(repo Repository, schedules schedule.Repository, locker redisclient.Locker, loc *time.Location, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		schedules: schedules,
		locker:    locker,
		loc:       loc,
		log:       log,
	}
}

// ParseStart resolves the two accepted booking time shapes into one instant:
// an RFC3339 startAt, or a date (YYYY-MM-DD) plus clinic-local time of day
// (HH:MM). The pair takes precedence when both are present.
func ParseStart(startAt, date, timeOfDay string, loc *time.Location) (time.Time, error) {
	if date != "" && timeOfDay != "" {
		normDate, err := schedule.NormalizeDate(date)
		if err != nil {
			return time.Time{}, ErrInvalidTime
		}
		min, err := schedule.ParseClock(timeOfDay)
		if err != nil {
			return time.Time{}, ErrInvalidTime
		}
		day, err := time.ParseInLocation("2006-01-02", normDate, loc)
		if err != nil {
			return time.Time{}, ErrInvalidTime
		}
		return day.Add(time.Duration(min) * time.Minute), nil
	}
	if startAt != "" {
		t, err := time.Parse(time.RFC3339, startAt)
		if err != nil {
			return time.Time{}, ErrInvalidTime
		}
		return t, nil
	}
	return time.Time{}, ErrInvalidTime
}

// Availability computes the bookable slots for a doctor on one calendar
// date: template and override are merged, breaks subtracted, and slots whose
// start time is already held by an active appointment are removed. This is a
// plain read; the booking path re-validates under its own guard.
func (s *Service) Availability(ctx context.Context, doctorID uuid.UUID, date string) ([]schedule.Slot, error) {
	normDate, err := schedule.NormalizeDate(date)
	if err != nil {
		return nil, err
	}

	doc, err := s.schedules.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	ov, err := s.loadOverride(ctx, doctorID, normDate)
	if err != nil {
		return nil, err
	}
	if ov != nil && ov.Status != schedule.StatusOpen {
		return []schedule.Slot{}, nil
	}

	weekday, err := schedule.WeekdayKey(normDate, s.loc)
	if err != nil {
		return nil, err
	}

	working, breaks, slotMin := schedule.EffectiveDay(doc.Template, ov, weekday)
	slots := schedule.SubtractBreaks(schedule.GenerateSlots(working, slotMin), breaks)
	if len(slots) == 0 {
		return []schedule.Slot{}, nil
	}

	dayStart, dayEnd, err := schedule.DayWindow(normDate, s.loc)
	if err != nil {
		return nil, err
	}
	starts, err := s.repo.ListActiveStarts(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list active appointment starts: %w", err)
	}

	taken := make(map[string]struct{}, len(starts))
	for _, t := range starts {
		taken[t.In(s.loc).Format("15:04")] = struct{}{}
	}

	open := make([]schedule.Slot, 0, len(slots))
	for _, slot := range slots {
		if _, held := taken[slot.Start]; !held {
			open = append(open, slot)
		}
	}
	return open, nil
}

// BookingRequest describes one slot reservation attempt. StaffBooked marks a
// staff-initiated booking, which is created directly as CONFIRMED.
type BookingRequest struct {
	DoctorID    uuid.UUID
	StartAt     time.Time
	ClinicID    *uuid.UUID
	CustomerID  *uuid.UUID
	PetID       *uuid.UUID
	ExamType    string
	Note        string
	Channel     Channel
	StaffBooked bool
}

// CreateBooking reserves a slot for a customer. A per-(doctor, start) lock
// wraps the recheck-then-insert span so concurrent requests for the same
// slot cannot both pass the pre-check; the partial unique index on
// (doctor_id, start_at) remains the hard guarantee underneath.
func (s *Service) CreateBooking(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if req.StartAt.IsZero() {
		return nil, ErrInvalidTime
	}

	doc, err := s.schedules.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}

	date := req.StartAt.In(s.loc).Format("2006-01-02")
	ov, err := s.loadOverride(ctx, req.DoctorID, date)
	if err != nil {
		return nil, err
	}
	slotMin := doc.Template.SlotDurationMin
	if slotMin <= 0 {
		slotMin = 30
	}
	if ov != nil && ov.SlotDurationMin != nil {
		slotMin = *ov.SlotDurationMin
	}

	status := StatusPending
	if req.StaffBooked {
		status = StatusConfirmed
	}
	channel := req.Channel
	if channel == "" {
		channel = ChannelOffline
	}
	clinicID := req.ClinicID
	if clinicID == nil {
		clinicID = doc.ClinicID
	}

	appt := &Appointment{
		ClinicID:   clinicID,
		DoctorID:   req.DoctorID,
		CustomerID: req.CustomerID,
		PetID:      req.PetID,
		StartAt:    req.StartAt,
		EndAt:      req.StartAt.Add(time.Duration(slotMin) * time.Minute),
		ExamType:   req.ExamType,
		Note:       req.Note,
		Channel:    channel,
		Status:     status,
	}

	var created *Appointment

	err = s.locker.WithSlotLock(ctx, req.DoctorID, req.StartAt, func(lockCtx context.Context) error {
		existing, err := s.repo.FindActiveAt(lockCtx, req.DoctorID, req.StartAt)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			return fmt.Errorf("check active appointment: %w", err)
		}
		if existing != nil {
			return ErrSlotTaken
		}

		created, err = s.repo.Insert(lockCtx, appt)
		if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.log.Info().
		Str("appointment_id", created.ID.String()).
		Str("doctor_id", req.DoctorID.String()).
		Time("start_at", req.StartAt).
		Str("status", string(created.Status)).
		Msg("appointment booked")

	return created, nil
}

// UpdateStatus runs the lifecycle state machine and persists the result with
// a compare-and-swap on the current status.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, actor Actor, target Status) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	policy, err := s.clinicPolicy(ctx, appt.ClinicID)
	if err != nil {
		return nil, err
	}

	cancelledAt, err := Transition(appt, actor, target, time.Now(), policy)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, id, appt.Status, target, cancelledAt)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Status moved under us between read and CAS.
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.log.Info().
		Str("appointment_id", id.String()).
		Str("from", string(appt.Status)).
		Str("to", string(target)).
		Str("actor_role", string(actor.Role)).
		Msg("appointment status updated")

	return updated, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, f ListFilter) ([]Appointment, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.List(ctx, f)
}

// DeleteAppointment is the administrative hard-delete path. Everything else
// cancels through the state machine.
func (s *Service) DeleteAppointment(ctx context.Context, actor Actor, id uuid.UUID) error {
	if actor.Role != RoleAdmin {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

// OverridePayload is the client-supplied body of an override upsert. Nil
// fields inherit from the template.
type OverridePayload struct {
	WorkingBlocks   []schedule.Block
	BreakBlocks     []schedule.Block
	SlotDurationMin *int
	MaxConcurrent   *int
	Status          schedule.OverrideStatus
}

func (s *Service) UpsertOverride(ctx context.Context, actor Actor, doctorID uuid.UUID, date string, p OverridePayload) (*schedule.Override, error) {
	normDate, err := schedule.NormalizeDate(date)
	if err != nil {
		return nil, err
	}
	doc, err := s.schedules.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if err := s.requireScheduleManager(ctx, actor, doc); err != nil {
		return nil, err
	}

	if p.Status == "" {
		p.Status = schedule.StatusOpen
	}
	if err := validateOverride(p); err != nil {
		return nil, err
	}

	ov := &schedule.Override{
		DoctorID:        doctorID,
		Date:            normDate,
		WorkingBlocks:   p.WorkingBlocks,
		BreakBlocks:     p.BreakBlocks,
		SlotDurationMin: p.SlotDurationMin,
		MaxConcurrent:   p.MaxConcurrent,
		Status:          p.Status,
	}
	return s.schedules.UpsertOverride(ctx, ov)
}

func (s *Service) ListOverrides(ctx context.Context, actor Actor, doctorID uuid.UUID, from, to string) ([]schedule.Override, error) {
	doc, err := s.schedules.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if err := s.requireScheduleManager(ctx, actor, doc); err != nil {
		return nil, err
	}

	if from != "" && to != "" {
		if from, err = schedule.NormalizeDate(from); err != nil {
			return nil, err
		}
		if to, err = schedule.NormalizeDate(to); err != nil {
			return nil, err
		}
	} else {
		from, to = "", ""
	}
	return s.schedules.ListOverrides(ctx, doctorID, from, to)
}

func (s *Service) DeleteOverride(ctx context.Context, actor Actor, doctorID uuid.UUID, date string) error {
	normDate, err := schedule.NormalizeDate(date)
	if err != nil {
		return err
	}
	doc, err := s.schedules.GetDoctor(ctx, doctorID)
	if err != nil {
		return err
	}
	if err := s.requireScheduleManager(ctx, actor, doc); err != nil {
		return err
	}
	return s.schedules.DeleteOverride(ctx, doctorID, normDate)
}

// requireScheduleManager allows admins, the doctor themself, and the owner of
// the doctor's clinic to manage that doctor's schedule.
func (s *Service) requireScheduleManager(ctx context.Context, actor Actor, doc *schedule.Doctor) error {
	if actor.Role == RoleAdmin {
		return nil
	}
	if actor.Role == RoleDoctor && actor.DoctorID != nil && *actor.DoctorID == doc.ID {
		return nil
	}
	if actor.Role == RoleClinicOwner && doc.ClinicID != nil {
		clinic, err := s.repo.GetClinic(ctx, *doc.ClinicID)
		if err != nil && !errors.Is(err, ErrClinicNotFound) {
			return fmt.Errorf("load clinic: %w", err)
		}
		if clinic != nil && clinic.OwnerID != nil && *clinic.OwnerID == actor.ID {
			return nil
		}
	}
	return ErrForbidden
}

func (s *Service) loadOverride(ctx context.Context, doctorID uuid.UUID, date string) (*schedule.Override, error) {
	ov, err := s.schedules.GetOverride(ctx, doctorID, date)
	if err != nil {
		if errors.Is(err, schedule.ErrOverrideNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load schedule override: %w", err)
	}
	return ov, nil
}

func (s *Service) clinicPolicy(ctx context.Context, clinicID *uuid.UUID) (*Clinic, error) {
	if clinicID == nil {
		return nil, nil
	}
	clinic, err := s.repo.GetClinic(ctx, *clinicID)
	if err != nil {
		if errors.Is(err, ErrClinicNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load clinic policy: %w", err)
	}
	return clinic, nil
}

func validateOverride(p OverridePayload) error {
	switch p.Status {
	case schedule.StatusOpen, schedule.StatusClosed, schedule.StatusHoliday:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidOverride, p.Status)
	}
	if p.SlotDurationMin != nil && *p.SlotDurationMin <= 0 {
		return fmt.Errorf("%w: slot duration must be positive", ErrInvalidOverride)
	}
	for _, b := range append(append([]schedule.Block{}, p.WorkingBlocks...), p.BreakBlocks...) {
		start, err := schedule.ParseClock(b.Start)
		if err != nil {
			return fmt.Errorf("%w: bad block start %q", ErrInvalidOverride, b.Start)
		}
		end, err := schedule.ParseClock(b.End)
		if err != nil {
			return fmt.Errorf("%w: bad block end %q", ErrInvalidOverride, b.End)
		}
		if end <= start {
			return fmt.Errorf("%w: block %s-%s is empty", ErrInvalidOverride, b.Start, b.End)
		}
	}
	return nil
}
