// Package availability manages the weekly time windows a doctor offers.
package availability

import (
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/consultation-booking/internal/apperr"
)

const DefaultTimezone = "Asia/Kolkata"

// DateLayout is the wire and storage form of ValidFrom, ValidUntil and query dates.
const DateLayout = "2006-01-02"

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type Slot struct {
	ID          uuid.UUID
	DoctorID    uuid.UUID
	DayOfWeek   int // 0 = Sunday
	StartTime   string
	EndTime     string
	Timezone    string
	IsRecurring bool
	ValidFrom   *time.Time
	ValidUntil  *time.Time
	CreatedAt   time.Time
}

// SlotSpec is the caller's description of a new slot. Nil fields take their defaults.
type SlotSpec struct {
	DayOfWeek   int
	StartTime   string
	EndTime     string
	Timezone    string
	IsRecurring *bool
	ValidFrom   *time.Time
	ValidUntil  *time.Time
}

func (s SlotSpec) Validate() error {
	if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
		return apperr.Validation("dayOfWeek must be between 0 and 6")
	}
	if !clockPattern.MatchString(s.StartTime) {
		return apperr.Validation("startTime must be HH:MM")
	}
	if !clockPattern.MatchString(s.EndTime) {
		return apperr.Validation("endTime must be HH:MM")
	}
	return nil
}

// ParseDate reads a calendar date in DateLayout.
func ParseDate(v string) (time.Time, error) {
	d, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, apperr.Validation("date must be YYYY-MM-DD")
	}
	return d, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
