package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
)

func TestNormalizeIntervalsMergesOverlapsAndTouching(t *testing.T) {
	got := NormalizeIntervals([]Interval{{600, 660}, {480, 540}, {530, 570}, {570, 590}})
	assert.Equal(t, []Interval{{480, 590}, {600, 660}}, got)
	assert.Nil(t, NormalizeIntervals(nil))
}

func TestNormalizeWeekly(t *testing.T) {
	got, err := NormalizeWeekly(models.WeeklyAvailability{
		"Monday":  {{Start: "14:00", End: "18:00"}, {Start: "08:00", End: "12:00"}, {Start: "11:00", End: "13:00"}},
		"tuesday": {},
	})
	require.NoError(t, err)
	assert.Equal(t, models.WeeklyAvailability{
		"monday": {{Start: "08:00", End: "13:00"}, {Start: "14:00", End: "18:00"}},
	}, got)
}

func TestNormalizeWeeklyRejectsBadInput(t *testing.T) {
	_, err := NormalizeWeekly(models.WeeklyAvailability{
		"funday":    {{Start: "08:00", End: "09:00"}},
		"wednesday": {{Start: "10:00", End: "09:00"}, {Start: "7:00", End: "09:00"}},
	})
	require.Error(t, err)
	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "availability.funday")
	assert.Contains(t, fields, "availability.wednesday[0]")
	assert.Contains(t, fields, "availability.wednesday[1].start")
}

func TestCompileSkipsMalformedWindows(t *testing.T) {
	s := Compile(models.WeeklyAvailability{
		"Friday": {{Start: "08:00", End: "09:00"}, {Start: "x", End: "10:00"}, {Start: "12:00", End: "11:00"}},
	})
	assert.Equal(t, []Interval{{480, 540}}, s["friday"])
}

func TestGridDefaultRange(t *testing.T) {
	labels := DefaultGrid().Labels()
	require.Len(t, labels, 33)
	assert.Equal(t, "06:00", labels[0])
	assert.Equal(t, "06:30", labels[1])
	assert.Equal(t, "22:00", labels[len(labels)-1])
	assert.NotContains(t, labels, "22:30")
}

func TestNewGridValidates(t *testing.T) {
	g, err := NewGrid("06:00", "22:00", 30)
	require.NoError(t, err)
	assert.Equal(t, DefaultGrid(), g)

	_, err = NewGrid("10:00", "09:00", 30)
	assert.Error(t, err)
	_, err = NewGrid("06:00", "22:00", 0)
	assert.Error(t, err)
}
