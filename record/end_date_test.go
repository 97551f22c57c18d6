package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseEndDate(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		asNeeded bool
		date     string
		wantErr  bool
	}{
		{name: "calendar date", input: "2025-08-13", date: "2025-08-13"},
		{name: "as needed", input: "as needed", asNeeded: true},
		{name: "as needed mixed case", input: "As Needed", asNeeded: true},
		{name: "padded date", input: " 2025-01-01 ", date: "2025-01-01"},
		{name: "garbage", input: "whenever", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			endDate, err := ParseEndDate(tc.input)

			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tc.asNeeded, endDate.IsAsNeeded())
			if len(tc.date) > 0 {
				assert.Equal(t, tc.date, endDate.String())
			}
		})
	}
}

func TestEndDateBefore(t *testing.T) {
	ref, err := time.Parse(DateLayout, "2025-08-03")
	assert.NoError(t, err)

	expired, err := ParseEndDate("2025-01-01")
	assert.NoError(t, err)
	assert.True(t, expired.Before(ref))

	current, err := ParseEndDate("2025-08-03")
	assert.NoError(t, err)
	assert.False(t, current.Before(ref))

	future, err := ParseEndDate("2025-09-01")
	assert.NoError(t, err)
	assert.False(t, future.Before(ref))

	// as-needed entries never expire
	assert.False(t, AsNeeded().Before(ref.AddDate(100, 0, 0)))
}

func TestDatedKeepsCalendarDay(t *testing.T) {
	zone := time.FixedZone("UTC-5", -5*3600)

	// shortly after local midnight, still the previous day in UTC
	early := time.Date(2025, 8, 13, 0, 30, 0, 0, zone)
	assert.Equal(t, "2025-08-13", Dated(early).String())

	late := time.Date(2025, 8, 13, 23, 30, 0, 0, zone)
	assert.Equal(t, "2025-08-13", Dated(late).String())
}

func TestEndDateString(t *testing.T) {
	assert.Equal(t, AsNeededValue, AsNeeded().String())

	day, err := time.Parse(DateLayout, "2025-08-13")
	assert.NoError(t, err)
	assert.Equal(t, "2025-08-13", Dated(day).String())
}
