package alert

import (
	"context"
	"fmt"
	"runtime/debug"

	"investment-alarm/internal/metrics"
	"investment-alarm/internal/price"
	"investment-alarm/internal/types"
	"investment-alarm/lib/helpers"
	"investment-alarm/lib/translation"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const messageFormat = "%[1]s price %[4]s %[2]s%[3]s (%[5]s%[3]s)"

// Message is a triggered alert ready to be dispatched.
type Message struct {
	Item  types.WatchedItem
	Price price.Quote
	Text  string
}

func (m Message) String() string {
	return m.Text
}

// PriceSource fetches the current price of a watched item.
type PriceSource interface {
	FetchPrice(ctx context.Context, item types.WatchedItem) (price.Quote, error)
}

// Evaluate compares the observed quote against the item's target and returns
// the alert message when the target was reached.
func Evaluate(item types.WatchedItem, q price.Quote) (Message, bool) {
	if !q.OK() {
		return Message{}, false
	}

	var fired bool
	var phrase string
	switch item.Direction {
	case types.UpperBound:
		fired = q.Price.GreaterThanOrEqual(item.Target)
		phrase = translation.Translate("rose above ↑↑🎉")
	case types.LowerBound:
		fired = q.Price.LessThanOrEqual(item.Target)
		phrase = translation.Translate("fell below ↓↓🎉")
	}
	if !fired {
		return Message{}, false
	}

	return Message{
		Item:  item,
		Price: q,
		Text: translation.Translate(messageFormat,
			item.Symbol,
			helpers.FormatPrice(item.Target),
			item.Unit,
			phrase,
			helpers.FormatPrice(q.Price),
		),
	}, true
}

// Processor runs every watched item through the price source and the evaluator.
type Processor struct {
	source  PriceSource
	metrics *metrics.RunMetrics
	workers int
}

type Option func(p *Processor)

// WithWorkers bounds the number of items priced concurrently.
func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// NewProcessor records into m, or into a private registry when m is nil.
func NewProcessor(source PriceSource, m *metrics.RunMetrics, opts ...Option) *Processor {
	if m == nil {
		m = metrics.New()
	}
	p := &Processor{
		source:  source,
		metrics: m,
		workers: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process returns the triggered alerts in watch-list order. A failing item is
// logged and skipped.
func (p *Processor) Process(ctx context.Context, items []types.WatchedItem) []Message {
	results := make([]*Message, len(items))

	if p.workers <= 1 {
		for i, item := range items {
			results[i] = p.processItem(ctx, item)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.workers)
		for i, item := range items {
			i, item := i, item
			g.Go(func() error {
				results[i] = p.processItem(gctx, item)
				return nil
			})
		}
		_ = g.Wait()
	}

	return lo.FilterMap(results, func(m *Message, _ int) (Message, bool) {
		if m == nil {
			return Message{}, false
		}
		return *m, true
	})
}

func (p *Processor) processItem(ctx context.Context, item types.WatchedItem) (msg *Message) {
	p.metrics.ItemsChecked.Inc()

	defer func() {
		if r := recover(); r != nil {
			p.metrics.ItemFailures.Inc()
			log.Errorf("🔥 Panic recovered while processing %s: %v\nStack trace: %s", item.Symbol, r, debug.Stack())
			msg = nil
		}
	}()

	q, err := p.source.FetchPrice(ctx, item)
	if err != nil {
		p.metrics.ItemFailures.Inc()
		log.Errorf("❌ Failed to process %s: %v", item.Symbol, errors.Wrap(err, "fetch price"))
		return nil
	}
	if !q.OK() {
		p.metrics.PricesUnavailable.Inc()
		log.Warnf("⚠️ Could not get a price for %s: %s", item.Symbol, q.Reason)
		return nil
	}

	log.Debugf("🔍 Checking %s | Target: %s (%s) | Current: %s", item.Symbol, item.Target, item.Direction, q.Price)

	m, fired := Evaluate(item, q)
	if !fired {
		return nil
	}

	p.metrics.AlertsTriggered.Inc()
	return &m
}

// Texts returns the message texts, for logging.
func Texts(messages []Message) []string {
	return lo.Map(messages, func(m Message, _ int) string {
		return fmt.Sprint(m)
	})
}
