package medication

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/w-h-a/medrecord/record"
)

const sosFrequency = "sos"

var firstInteger = regexp.MustCompile(`\d+`)

// ResolveEndDates maps each medication to its end date or the
// as-needed marker. Per medication, the first matching rule wins:
// an explicit parsable end date is used verbatim; otherwise a duration
// yields ref + duration days unless the medication is open-ended;
// otherwise an open-ended medication gets the as-needed marker;
// otherwise the medication is omitted.
func ResolveEndDates(ref time.Time, medications []record.Medication) map[string]record.EndDate {
	endDates := map[string]record.EndDate{}

	for _, med := range medications {
		if len(med.Name) == 0 {
			continue
		}

		frequency := strings.ToLower(strings.TrimSpace(med.Frequency))
		duration := strings.ToLower(med.Duration)

		if len(med.EndDate) > 0 {
			if t, err := time.Parse(record.DateLayout, strings.TrimSpace(med.EndDate)); err == nil {
				endDates[med.Name] = record.Dated(t)
				continue
			}
		}

		openEnded := frequency == sosFrequency || strings.Contains(duration, record.AsNeededValue)

		if len(duration) > 0 && !openEnded {
			endDates[med.Name] = record.Dated(ref.AddDate(0, 0, durationDays(duration)))
			continue
		}

		if openEnded {
			endDates[med.Name] = record.AsNeeded()
		}
	}

	return endDates
}

// durationDays converts strings like "3 days", "2 weeks", "1 month"
// into a number of days. A missing magnitude defaults to one week or
// one month; day-only text without a number counts as zero.
func durationDays(duration string) int {
	magnitude := 0
	if match := firstInteger.FindString(duration); len(match) > 0 {
		magnitude, _ = strconv.Atoi(match)
	}

	switch {
	case strings.Contains(duration, "day"):
		return magnitude
	case strings.Contains(duration, "week"):
		if magnitude == 0 {
			magnitude = 1
		}
		return magnitude * 7
	case strings.Contains(duration, "month"):
		if magnitude == 0 {
			magnitude = 1
		}
		return magnitude * 30
	default:
		return magnitude
	}
}
