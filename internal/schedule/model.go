package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidDate  = errors.New("invalid calendar date, want YYYY-MM-DD")
	ErrInvalidClock = errors.New("invalid clock time, want HH:MM")
)

// Block is a contiguous wall-clock interval on a single day, either a
// working block or a break block. Times are clinic-local "HH:MM".
type Block struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Slot is one bookable window produced by tiling a working block.
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WorkingDays maps a weekday key (mon..sun) to that day's working blocks,
// in chronological order.
type WorkingDays map[string][]Block

// Template is a doctor's recurring weekly availability. Created with the
// doctor profile and mutated in place, never deleted on its own.
type Template struct {
	SlotDurationMin int         `json:"slotDurationMin"`
	WorkingDays     WorkingDays `json:"workingDays"`
	BreakBlocks     []Block     `json:"breakBlocks"`
	MaxConcurrent   int         `json:"maxConcurrent"`
}

type Doctor struct {
	ID        uuid.UUID
	ClinicID  *uuid.UUID
	Name      string
	Specialty *string
	Template  Template
	CreatedAt time.Time
	UpdatedAt time.Time
}

type OverrideStatus string

const (
	StatusOpen    OverrideStatus = "OPEN"
	StatusClosed  OverrideStatus = "CLOSED"
	StatusHoliday OverrideStatus = "HOLIDAY"
)

// Override is a per-date exception to a doctor's template. Nil block slices
// and nil pointers mean "inherit from the template"; an empty non-nil slice
// overrides to nothing. At most one override exists per (doctor, date).
type Override struct {
	ID              uuid.UUID
	DoctorID        uuid.UUID
	Date            string // YYYY-MM-DD
	WorkingBlocks   []Block
	BreakBlocks     []Block
	SlotDurationMin *int
	MaxConcurrent   *int
	Status          OverrideStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

var weekdayKeys = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// NormalizeDate canonicalizes a calendar date string to zero-padded
// YYYY-MM-DD ("2024-3-5" becomes "2024-03-05") and rejects anything that is
// not a real date.
func NormalizeDate(s string) (string, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return "", ErrInvalidDate
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil || y < 1 || len(parts[0]) != 4 {
		return "", ErrInvalidDate
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 1 || m > 12 {
		return "", ErrInvalidDate
	}
	d, err := strconv.Atoi(parts[2])
	if err != nil || d < 1 || d > 31 {
		return "", ErrInvalidDate
	}
	// time.Date normalizes out-of-range days (Feb 30 -> Mar 2), so round-trip
	// to catch them.
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return "", ErrInvalidDate
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d), nil
}

// WeekdayKey returns the mon..sun key for a normalized date string. The date
// is treated as a zone-agnostic calendar date anchored to the clinic's time
// zone, never to UTC.
func WeekdayKey(date string, loc *time.Location) (string, error) {
	t, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return "", ErrInvalidDate
	}
	return weekdayKeys[int(t.Weekday())], nil
}

// DayWindow returns the half-open 24-hour window [start, end) covering the
// given calendar date in the clinic's time zone.
func DayWindow(date string, loc *time.Location) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDate
	}
	return t, t.AddDate(0, 0, 1), nil
}

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, ErrInvalidClock
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil || h < 0 || h > 23 {
		return 0, ErrInvalidClock
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil || m < 0 || m > 59 {
		return 0, ErrInvalidClock
	}
	return h*60 + m, nil
}

// FormatClock converts minutes since midnight back to "HH:MM".
func FormatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}
