package monitor

import (
	"context"
	"time"

	"investment-alarm/internal/alert"
	"investment-alarm/internal/notify"
	"investment-alarm/internal/schedule"
	"investment-alarm/internal/types"

	log "github.com/sirupsen/logrus"
)

var _ schedule.Task = (*System)(nil)

// System is one pass of the price alarm: gate, watch list, notifications.
type System struct {
	gate      *schedule.Gate
	processor *alert.Processor
	fanout    *notify.Fanout
	watchList []types.WatchedItem
	now       func() time.Time
}

type Option func(s *System)

// WithClock replaces time.Now for the gate check.
func WithClock(now func() time.Time) Option {
	return func(s *System) {
		s.now = now
	}
}

func NewSystem(gate *schedule.Gate, processor *alert.Processor, fanout *notify.Fanout, watchList []types.WatchedItem, opts ...Option) *System {
	s := &System{
		gate:      gate,
		processor: processor,
		fanout:    fanout,
		watchList: watchList,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run never fails: item and dispatcher errors are logged where they happen.
func (s *System) Run(ctx context.Context) error {
	today := s.now()
	if !s.gate.ShouldRun(today) {
		log.Infof("📅 %s is a weekend day, skipping the run", today.Weekday())
		return nil
	}

	log.Infof("🔄 Checking %d watched items...", len(s.watchList))
	messages := s.processor.Process(ctx, s.watchList)

	for _, text := range alert.Texts(messages) {
		log.Info("🚨 ", text)
	}

	s.fanout.Broadcast(ctx, messages)

	log.Infof("✅ Price check completed, %d alerts triggered", len(messages))
	return nil
}

func (s *System) Name() string {
	return "watch list price alarm"
}
