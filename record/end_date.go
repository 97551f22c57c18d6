package record

import (
	"fmt"
	"strings"
	"time"
)

const (
	// AsNeededValue is the string form persisted for open-ended
	// medications. It must survive every prune pass.
	AsNeededValue = "as needed"

	// DateLayout is the persisted calendar-date form.
	DateLayout = "2006-01-02"
)

// EndDate is either a calendar date or the as-needed marker. The zero
// value is neither and must not be persisted.
type EndDate struct {
	asNeeded bool
	date     time.Time
}

func AsNeeded() EndDate {
	return EndDate{asNeeded: true}
}

// Dated keeps the calendar day in t's location. Truncating to an
// absolute 24h boundary would shift the day for zones west of UTC.
func Dated(t time.Time) EndDate {
	day, _ := time.Parse(DateLayout, t.Format(DateLayout))
	return EndDate{date: day}
}

// ParseEndDate reads a persisted end-date string back into its
// variant form.
func ParseEndDate(s string) (EndDate, error) {
	trimmed := strings.TrimSpace(s)
	if strings.EqualFold(trimmed, AsNeededValue) {
		return AsNeeded(), nil
	}
	t, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return EndDate{}, fmt.Errorf("end date %q is neither a date nor %q: %w", s, AsNeededValue, err)
	}
	return Dated(t), nil
}

func (e EndDate) IsAsNeeded() bool {
	return e.asNeeded
}

// Date returns the calendar date. Only meaningful when IsAsNeeded is false.
func (e EndDate) Date() time.Time {
	return e.date
}

// Before reports whether a dated entry expired strictly before ref.
// As-needed entries never expire.
func (e EndDate) Before(ref time.Time) bool {
	if e.asNeeded {
		return false
	}
	refDay, _ := time.Parse(DateLayout, ref.Format(DateLayout))
	return e.date.Before(refDay)
}

func (e EndDate) String() string {
	if e.asNeeded {
		return AsNeededValue
	}
	return e.date.Format(DateLayout)
}
