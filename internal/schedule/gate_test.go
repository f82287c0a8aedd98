package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_ShouldRun(t *testing.T) {
	gate := NewGate(nil, time.UTC)

	// 2024-06-03 is a Monday.
	monday := time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC)
	for i, want := range []bool{true, true, true, true, true, false, false} {
		day := monday.AddDate(0, 0, i)
		assert.Equal(t, want, gate.ShouldRun(day), day.Weekday().String())
	}
}

func TestGate_Location(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	gate := NewGate(nil, tokyo)

	// Friday 20:00 UTC is already Saturday in Tokyo.
	friday := time.Date(2024, time.June, 7, 20, 0, 0, 0, time.UTC)
	assert.False(t, gate.ShouldRun(friday))
	assert.True(t, NewGate(nil, time.UTC).ShouldRun(friday))
}

func TestGate_CustomWeekend(t *testing.T) {
	gate := NewGate([]time.Weekday{time.Friday}, time.UTC)

	assert.False(t, gate.ShouldRun(time.Date(2024, time.June, 7, 0, 0, 0, 0, time.UTC)))
	assert.True(t, gate.ShouldRun(time.Date(2024, time.June, 8, 0, 0, 0, 0, time.UTC)))

	open := NewGate([]time.Weekday{}, time.UTC)
	assert.True(t, open.ShouldRun(time.Date(2024, time.June, 9, 0, 0, 0, 0, time.UTC)))
}

func TestWeekdays(t *testing.T) {
	days, err := Weekdays([]int{0, 6, 6})
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Sunday, time.Saturday}, days)

	_, err = Weekdays([]int{7})
	assert.Error(t, err)
}
