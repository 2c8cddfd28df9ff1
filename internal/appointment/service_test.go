package appointment

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pawmed/vet-clinic-booking/internal/schedule"
)

// -- In-memory repositories --

type memScheduleRepo struct {
	mu        sync.Mutex
	doctors   map[uuid.UUID]*schedule.Doctor
	overrides map[string]*schedule.Override
}

func newMemScheduleRepo() *memScheduleRepo {
	return &memScheduleRepo{
		doctors:   make(map[uuid.UUID]*schedule.Doctor),
		overrides: make(map[string]*schedule.Override),
	}
}

func overrideKey(doctorID uuid.UUID, date string) string {
	return doctorID.String() + "|" + date
}

func (m *memScheduleRepo) GetDoctor(_ context.Context, id uuid.UUID) (*schedule.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[id]
	if !ok {
		return nil, schedule.ErrDoctorNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memScheduleRepo) GetOverride(_ context.Context, doctorID uuid.UUID, date string) (*schedule.Override, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ov, ok := m.overrides[overrideKey(doctorID, date)]
	if !ok {
		return nil, schedule.ErrOverrideNotFound
	}
	cp := *ov
	return &cp, nil
}

func (m *memScheduleRepo) UpsertOverride(_ context.Context, ov *schedule.Override) (*schedule.Override, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := overrideKey(ov.DoctorID, ov.Date)
	stored := *ov
	if prev, ok := m.overrides[key]; ok {
		stored.ID = prev.ID
		stored.CreatedAt = prev.CreatedAt
	} else {
		stored.ID = uuid.New()
		stored.CreatedAt = time.Now()
	}
	stored.UpdatedAt = time.Now()
	m.overrides[key] = &stored
	cp := stored
	return &cp, nil
}

func (m *memScheduleRepo) ListOverrides(_ context.Context, doctorID uuid.UUID, from, to string) ([]schedule.Override, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []schedule.Override
	for _, ov := range m.overrides {
		if ov.DoctorID != doctorID {
			continue
		}
		if from != "" && (ov.Date < from || ov.Date > to) {
			continue
		}
		out = append(out, *ov)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *memScheduleRepo) DeleteOverride(_ context.Context, doctorID uuid.UUID, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := overrideKey(doctorID, date)
	if _, ok := m.overrides[key]; !ok {
		return schedule.ErrOverrideNotFound
	}
	delete(m.overrides, key)
	return nil
}

type memApptRepo struct {
	mu      sync.Mutex
	appts   map[uuid.UUID]*Appointment
	clinics map[uuid.UUID]*Clinic
}

func newMemApptRepo() *memApptRepo {
	return &memApptRepo{
		appts:   make(map[uuid.UUID]*Appointment),
		clinics: make(map[uuid.UUID]*Clinic),
	}
}

func (m *memApptRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

// Insert mirrors the partial unique index: at most one active appointment
// per (doctor, start), enforced atomically under the repo mutex.
func (m *memApptRepo) Insert(_ context.Context, a *Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.appts {
		if existing.DoctorID == a.DoctorID && existing.StartAt.Equal(a.StartAt) && existing.Status.Active() {
			return nil, ErrSlotTaken
		}
	}
	stored := *a
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.appts[stored.ID] = &stored
	cp := stored
	return &cp, nil
}

func (m *memApptRepo) FindActiveAt(_ context.Context, doctorID uuid.UUID, startAt time.Time) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.StartAt.Equal(startAt) && a.Status.Active() {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (m *memApptRepo) ListActiveStarts(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var starts []time.Time
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.Status.Active() &&
			!a.StartAt.Before(from) && a.StartAt.Before(to) {
			starts = append(starts, a.StartAt)
		}
	}
	return starts, nil
}

func (m *memApptRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status, cancelledAt *time.Time) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	if cancelledAt != nil {
		a.CancelledAt = cancelledAt
	}
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (m *memApptRepo) List(_ context.Context, f ListFilter) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.appts {
		if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
			continue
		}
		if f.CustomerID != nil && (a.CustomerID == nil || *a.CustomerID != *f.CustomerID) {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (m *memApptRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appts[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(m.appts, id)
	return nil
}

func (m *memApptRepo) GetClinic(_ context.Context, id uuid.UUID) (*Clinic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clinics[id]
	if !ok {
		return nil, ErrClinicNotFound
	}
	cp := *c
	return &cp, nil
}

// noopLocker satisfies the locker interface without coordination, so tests
// exercise the storage-level uniqueness guarantee on its own.
type noopLocker struct{}

func (noopLocker) WithSlotLock(ctx context.Context, _ uuid.UUID, _ time.Time, fn func(context.Context) error) error {
	return fn(ctx)
}

// -- Fixtures --

var testLoc = time.FixedZone("ICT", 7*3600)

func weekdayTemplate() schedule.Template {
	return schedule.Template{
		SlotDurationMin: 30,
		WorkingDays: schedule.WorkingDays{
			"mon": {
				{Start: "08:00", End: "11:30"},
				{Start: "13:30", End: "17:00"},
			},
		},
		BreakBlocks:   []schedule.Block{{Start: "11:30", End: "11:50"}},
		MaxConcurrent: 1,
	}
}

func newTestService(t *testing.T) (*Service, *memApptRepo, *memScheduleRepo) {
	t.Helper()
	appts := newMemApptRepo()
	scheds := newMemScheduleRepo()
	svc := NewService(appts, scheds, noopLocker{}, testLoc, zerolog.Nop())
	return svc, appts, scheds
}

func addDoctor(scheds *memScheduleRepo, tmpl schedule.Template) uuid.UUID {
	id := uuid.New()
	scheds.doctors[id] = &schedule.Doctor{ID: id, Name: "Dr. Test", Template: tmpl}
	return id
}

// localTime builds an instant on 2025-01-06 (a Monday) in the clinic zone.
func localTime(hour, min int) time.Time {
	return time.Date(2025, 1, 6, hour, min, 0, 0, testLoc)
}

const monday = "2025-01-06"

// -- Availability --

func TestAvailabilityFullTemplateDay(t *testing.T) {
	svc, _, scheds := newTestService(t)
	doctorID := addDoctor(scheds, weekdayTemplate())

	slots, err := svc.Availability(context.Background(), doctorID, monday)
	if err != nil {
		t.Fatal(err)
	}
	// 7 morning slots + 7 afternoon slots; the 11:30-11:50 break touches the
	// last morning slot's end but does not overlap it.
	if len(slots) != 14 {
		t.Fatalf("got %d slots: %v", len(slots), slots)
	}
	if slots[0].Start != "08:00" || slots[6].Start != "11:00" || slots[7].Start != "13:30" {
		t.Fatalf("unexpected slot order: %v", slots)
	}
}

func TestAvailabilityUnknownDoctor(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Availability(context.Background(), uuid.New(), monday)
	if !errors.Is(err, schedule.ErrDoctorNotFound) {
		t.Fatalf("err = %v, want ErrDoctorNotFound", err)
	}
}

func TestAvailabilityNormalizesDate(t *testing.T) {
	svc, _, scheds := newTestService(t)
	doctorID := addDoctor(scheds, weekdayTemplate())

	slots, err := svc.Availability(context.Background(), doctorID, "2025-1-6")
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 14 {
		t.Fatalf("unpadded date must resolve to the same day, got %d slots", len(slots))
	}

	if _, err := svc.Availability(context.Background(), doctorID, "2025-02-30"); !errors.Is(err, schedule.ErrInvalidDate) {
		t.Fatalf("err = %v, want ErrInvalidDate", err)
	}
}

func TestAvailabilityOverridePrecedence(t *testing.T) {
	svc, _, scheds := newTestService(t)
	doctorID := addDoctor(scheds, weekdayTemplate())

	scheds.overrides[overrideKey(doctorID, monday)] = &schedule.Override{
		ID:            uuid.New(),
		DoctorID:      doctorID,
		Date:          monday,
		WorkingBlocks: []schedule.Block{{Start: "14:00", End: "16:00"}},
		Status:        schedule.StatusOpen,
	}

	slots, err := svc.Availability(context.Background(), doctorID, monday)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 4 || slots[0].Start != "14:00" {
		t.Fatalf("override blocks must fully replace template blocks: %v", slots)
	}
}

func TestAvailabilityHolidayShortCircuit(t *testing.T) {
	svc, _, scheds := newTestService(t)
	doctorID := addDoctor(scheds, weekdayTemplate())

	// Working blocks present in the same record must not matter.
	scheds.overrides[overrideKey(doctorID, monday)] = &schedule.Override{
		ID:            uuid.New(),
		DoctorID:      doctorID,
		Date:          monday,
		WorkingBlocks: []schedule.Block{{Start: "08:00", End: "17:00"}},
		Status:        schedule.StatusHoliday,
	}

	slots, err := svc.Availability(context.Background(), doctorID, monday)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 0 {
		t.Fatalf("holiday must yield no slots, got %v", slots)
	}
}

func TestAvailabilityFiltersTakenSlots(t *testing.T) {
	svc, appts, scheds := newTestService(t)
	doctorID := addDoctor(scheds, weekdayTemplate())

	_, err := appts.Insert(context.Background(), &Appointment{
		DoctorID: doctorID,
		StartAt:  localTime(9, 0),
		EndAt:    localTime(9, 30),
		Status:   StatusConfirmed,
	})
	if err != nil {
		t.Fatal(err)
	}

	slots, err := svc.Availability(context.Background(), doctorID, monday)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 13 {
		t.Fatalf("got %d slots", len(slots))
	}
	for _, s := range slots {
		if s.Start == "09:00" {
			t.Fatal("09:00 is held and must be filtered")
		}
	}
}

func TestAvailabilityAfterCancellation(t *testing.T) {
	svc, _, scheds := newTestService(t)
	doctorID := addDoctor(scheds, schedule.Template{
		SlotDurationMin: 30,
		WorkingDays: schedule.WorkingDays{
			"mon": {{Start: "09:00", End: "09:30"}},
		},
	})

	appt, err := svc.CreateBooking(context.Background(), BookingRequest{
		DoctorID: doctorID,
		StartAt:  localTime(9, 0),
	})
	if err != nil {
		t.Fatal(err)
	}

	slots, err := svc.Availability(context.Background(), doctorID, monday)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 0 {
		t.Fatalf("the only slot is booked, got %v", slots)
	}

	admin := Actor{ID: uuid.New(), Role: RoleAdmin}
	if _, err := svc.UpdateStatus(context.Background(), appt.ID, admin, StatusCancelled); err != nil {
		t.Fatal(err)
	}

	slots, err = svc.Availability(context.Background(), doctorID, monday)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 1 || slots[0].Start != "09:00" {
		t.Fatalf("cancelled slot must reappear, got %v", slots)
	}
}

// -- Booking --

func TestCreateBooking(t *testing.T) {
	svc, _, scheds := newTestService(t)
	doctorID := addDoctor(scheds, weekdayTemplate())
	customerID := uuid.New()

	start := localTime(8, 0)
	appt, err := svc.CreateBooking(context.Background(), BookingRequest{
		DoctorID:   doctorID,
		StartAt:    start,
		CustomerID: &customerID,
		ExamType:   "checkup",
	})
	if err != nil {
		t.Fatal(err)
	}
	if appt.Status != StatusPending {
		t.Errorf("status = %s, want PENDING", appt.Status)
	}
	if !appt.EndAt.Equal(start.Add(30 * time.Minute)) {
		t.Errorf("endAt = %v, want start + slot duration", appt.EndAt)
	}
	if appt.Channel != ChannelOffline {
		t.Errorf("channel = %s, want default OFFLINE", appt.Channel)
	}
}

func TestCreateBookingStaffConfirmed(t *testing.T) {
	svc, _, scheds := newTestService(t)
	doctorID := addDoctor(scheds, weekdayTemplate())

	appt, err := svc.CreateBooking(context.Background(), BookingRequest{
		DoctorID:    doctorID,
		StartAt:     localTime(8, 0),
		StaffBooked: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if appt.Status != StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED for staff booking", appt.Status)
	}
}

func TestCreateBookingUsesOverrideDuration(t *testing.T) {
	svc, _, scheds := newTestService(t)
	doctorID := addDoctor(scheds, weekdayTemplate())

	dur := 20
	scheds.overrides[overrideKey(doctorID, monday)] = &schedule.Override{
		ID:              uuid.New(),
		DoctorID:        doctorID,
		Date:            monday,
		SlotDurationMin: &dur,
		Status:          schedule.StatusOpen,
	}

	start := localTime(8, 0)
	appt, err := svc.CreateBooking(context.Background(), BookingRequest{DoctorID: doctorID, StartAt: start})
	if err != nil {
		t.Fatal(err)
	}
	if !appt.EndAt.Equal(start.Add(20 * time.Minute)) {
		t.Errorf("endAt = %v, want override duration applied", appt.EndAt)
	}
}

func TestCreateBookingErrors(t *testing.T) {
	svc, _, scheds := newTestService(t)
	doctorID := addDoctor(scheds, weekdayTemplate())

	if _, err := svc.CreateBooking(context.Background(), BookingRequest{DoctorID: doctorID}); !errors.Is(err, ErrInvalidTime) {
		t.Errorf("zero start: err = %v, want ErrInvalidTime", err)
	}
	if _, err := svc.CreateBooking(context.Background(), BookingRequest{DoctorID: uuid.New(), StartAt: localTime(8, 0)}); !errors.Is(err, schedule.ErrDoctorNotFound) {
		t.Errorf("unknown doctor: err = %v, want ErrDoctorNotFound", err)
	}

	if _, err := svc.CreateBooking(context.Background(), BookingRequest{DoctorID: doctorID, StartAt: localTime(8, 0)}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateBooking(context.Background(), BookingRequest{DoctorID: doctorID, StartAt: localTime(8, 0)}); !errors.Is(err, ErrSlotTaken) {
		t.Errorf("duplicate: err = %v, want ErrSlotTaken", err)
	}
}

func TestCreateBookingConcurrentExactlyOneWins(t *testing.T) {
	svc, appts, scheds := newTestService(t)
	doctorID := addDoctor(scheds, weekdayTemplate())
	start := localTime(9, 0)

	const racers = 16
	var wg sync.WaitGroup
	results := make(chan error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			customerID := uuid.New()
			_, err := svc.CreateBooking(context.Background(), BookingRequest{
				DoctorID:   doctorID,
				StartAt:    start,
				CustomerID: &customerID,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrSlotTaken):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != racers-1 {
		t.Fatalf("wins = %d, conflicts = %d", wins, conflicts)
	}

	active, err := appts.ListActiveStarts(context.Background(), doctorID, start.Add(-time.Hour), start.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 {
		t.Fatalf("exactly one appointment must exist, got %d", len(active))
	}
}

// -- Status updates through the service --

func TestUpdateStatusPersistsCancellation(t *testing.T) {
	svc, appts, scheds := newTestService(t)
	doctorID := addDoctor(scheds, weekdayTemplate())
	customerID := uuid.New()

	appt, err := svc.CreateBooking(context.Background(), BookingRequest{
		DoctorID:   doctorID,
		StartAt:    time.Now().In(testLoc).Add(6 * time.Hour).Truncate(time.Minute),
		CustomerID: &customerID,
	})
	if err != nil {
		t.Fatal(err)
	}

	customer := Actor{ID: customerID, Role: RoleCustomer}
	updated, err := svc.UpdateStatus(context.Background(), appt.ID, customer, StatusCancelled)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != StatusCancelled || updated.CancelledAt == nil {
		t.Fatalf("updated = %+v", updated)
	}

	stored, err := appts.GetByID(context.Background(), appt.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != StatusCancelled {
		t.Fatalf("stored status = %s", stored.Status)
	}
}

func TestUpdateStatusUnknownAppointment(t *testing.T) {
	svc, _, _ := newTestService(t)
	admin := Actor{ID: uuid.New(), Role: RoleAdmin}
	if _, err := svc.UpdateStatus(context.Background(), uuid.New(), admin, StatusConfirmed); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("err = %v, want ErrAppointmentNotFound", err)
	}
}

func TestDeleteAppointmentAdminOnly(t *testing.T) {
	svc, _, scheds := newTestService(t)
	doctorID := addDoctor(scheds, weekdayTemplate())

	appt, err := svc.CreateBooking(context.Background(), BookingRequest{DoctorID: doctorID, StartAt: localTime(8, 0)})
	if err != nil {
		t.Fatal(err)
	}

	owner := Actor{ID: uuid.New(), Role: RoleClinicOwner}
	if err := svc.DeleteAppointment(context.Background(), owner, appt.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}

	admin := Actor{ID: uuid.New(), Role: RoleAdmin}
	if err := svc.DeleteAppointment(context.Background(), admin, appt.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetAppointment(context.Background(), appt.ID); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("appointment must be gone, err = %v", err)
	}
}

// -- Overrides through the service --

func TestUpsertOverrideIdempotent(t *testing.T) {
	svc, _, scheds := newTestService(t)
	doctorID := addDoctor(scheds, weekdayTemplate())
	admin := Actor{ID: uuid.New(), Role: RoleAdmin}

	payload := OverridePayload{
		WorkingBlocks: []schedule.Block{{Start: "14:00", End: "16:00"}},
		Status:        schedule.StatusOpen,
	}

	first, err := svc.UpsertOverride(context.Background(), admin, doctorID, monday, payload)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.UpsertOverride(context.Background(), admin, doctorID, monday, payload)
	if err != nil {
		t.Fatal(err)
	}

	if first.ID != second.ID {
		t.Fatalf("repeat upsert must keep one record: %s vs %s", first.ID, second.ID)
	}
	stored, err := svc.ListOverrides(context.Background(), admin, doctorID, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Fatalf("got %d overrides", len(stored))
	}
}

func TestUpsertOverridePermissions(t *testing.T) {
	svc, appts, scheds := newTestService(t)

	ownerID := uuid.New()
	clinicID := uuid.New()
	appts.clinics[clinicID] = &Clinic{ID: clinicID, OwnerID: &ownerID, CancelBeforeMinutes: 120}

	doctorID := uuid.New()
	scheds.doctors[doctorID] = &schedule.Doctor{
		ID:       doctorID,
		ClinicID: &clinicID,
		Template: weekdayTemplate(),
	}

	payload := OverridePayload{Status: schedule.StatusClosed}

	cases := []struct {
		name    string
		actor   Actor
		wantErr error
	}{
		{"admin", Actor{ID: uuid.New(), Role: RoleAdmin}, nil},
		{"doctor self", Actor{ID: uuid.New(), Role: RoleDoctor, DoctorID: &doctorID}, nil},
		{"clinic owner", Actor{ID: ownerID, Role: RoleClinicOwner}, nil},
		{"other owner", Actor{ID: uuid.New(), Role: RoleClinicOwner}, ErrForbidden},
		{"customer", Actor{ID: uuid.New(), Role: RoleCustomer}, ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpsertOverride(context.Background(), tc.actor, doctorID, monday, payload)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestUpsertOverrideValidation(t *testing.T) {
	svc, _, scheds := newTestService(t)
	doctorID := addDoctor(scheds, weekdayTemplate())
	admin := Actor{ID: uuid.New(), Role: RoleAdmin}

	bad := []OverridePayload{
		{Status: "CLOSED_FOREVER"},
		{Status: schedule.StatusOpen, WorkingBlocks: []schedule.Block{{Start: "9:00", End: "10:00"}}},
		{Status: schedule.StatusOpen, WorkingBlocks: []schedule.Block{{Start: "10:00", End: "09:00"}}},
		{Status: schedule.StatusOpen, SlotDurationMin: intPtr(0)},
	}
	for i, payload := range bad {
		if _, err := svc.UpsertOverride(context.Background(), admin, doctorID, monday, payload); !errors.Is(err, ErrInvalidOverride) {
			t.Errorf("case %d: err = %v, want ErrInvalidOverride", i, err)
		}
	}
}

func TestDeleteOverrideRevertsToTemplate(t *testing.T) {
	svc, _, scheds := newTestService(t)
	doctorID := addDoctor(scheds, weekdayTemplate())
	admin := Actor{ID: uuid.New(), Role: RoleAdmin}

	if _, err := svc.UpsertOverride(context.Background(), admin, doctorID, monday, OverridePayload{Status: schedule.StatusClosed}); err != nil {
		t.Fatal(err)
	}
	slots, err := svc.Availability(context.Background(), doctorID, monday)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 0 {
		t.Fatalf("closed date must have no slots, got %v", slots)
	}

	if err := svc.DeleteOverride(context.Background(), admin, doctorID, monday); err != nil {
		t.Fatal(err)
	}
	slots, err = svc.Availability(context.Background(), doctorID, monday)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 14 {
		t.Fatalf("template must apply again, got %d slots", len(slots))
	}
}

// -- ParseStart --

func TestParseStart(t *testing.T) {
	loc := testLoc

	got, err := ParseStart("", "2025-01-06", "09:00", loc)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(localTime(9, 0)) {
		t.Fatalf("got %v", got)
	}

	got, err = ParseStart("2025-01-06T09:00:00+07:00", "", "", loc)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(localTime(9, 0)) {
		t.Fatalf("got %v", got)
	}

	for _, tc := range [][3]string{
		{"", "", ""},
		{"yesterday", "", ""},
		{"", "2025-01-06", "25:00"},
		{"", "2025-02-30", "09:00"},
	} {
		if _, err := ParseStart(tc[0], tc[1], tc[2], loc); !errors.Is(err, ErrInvalidTime) {
			t.Errorf("ParseStart(%q, %q, %q): err = %v, want ErrInvalidTime", tc[0], tc[1], tc[2], err)
		}
	}
}

func intPtr(v int) *int { return &v }
