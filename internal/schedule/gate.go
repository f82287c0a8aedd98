package schedule

import (
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var DefaultWeekend = []time.Weekday{time.Sunday, time.Saturday}

// Gate decides from the calendar whether a run should happen at all.
type Gate struct {
	weekend  []time.Weekday
	location *time.Location
}

// NewGate returns a gate closed on the given days, evaluated in loc.
// A nil weekend means DefaultWeekend and a nil loc means time.Local.
func NewGate(weekend []time.Weekday, loc *time.Location) *Gate {
	if weekend == nil {
		weekend = DefaultWeekend
	}
	if loc == nil {
		loc = time.Local
	}
	return &Gate{weekend: weekend, location: loc}
}

func (g *Gate) ShouldRun(t time.Time) bool {
	return !lo.Contains(g.weekend, t.In(g.location).Weekday())
}

// Weekdays converts day numbers (0 = Sunday) to time.Weekday values.
func Weekdays(days []int) ([]time.Weekday, error) {
	weekdays := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return nil, errors.Errorf("invalid weekday %d, expected 0 (Sunday) to 6 (Saturday)", d)
		}
		weekdays = append(weekdays, time.Weekday(d))
	}
	return lo.Uniq(weekdays), nil
}
