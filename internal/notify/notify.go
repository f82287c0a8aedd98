package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"runtime/debug"

	"investment-alarm/internal/alert"
	"investment-alarm/internal/metrics"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Dispatcher delivers alert messages to one external sink.
type Dispatcher interface {
	Name() string
	// Configured reports whether the credentials the sink needs are present.
	Configured() bool
	Dispatch(ctx context.Context, m alert.Message) error
}

// Fanout hands every message to every dispatcher, logging failures.
type Fanout struct {
	dispatchers []Dispatcher
	metrics     *metrics.RunMetrics
}

func NewFanout(m *metrics.RunMetrics, dispatchers ...Dispatcher) *Fanout {
	if m == nil {
		m = metrics.New()
	}
	return &Fanout{
		dispatchers: dispatchers,
		metrics:     m,
	}
}

// Broadcast attempts all dispatchers for a message before moving to the next one.
func (f *Fanout) Broadcast(ctx context.Context, messages []alert.Message) {
	for _, m := range messages {
		for _, d := range f.dispatchers {
			f.dispatch(ctx, d, m)
		}
	}
}

func (f *Fanout) dispatch(ctx context.Context, d Dispatcher, m alert.Message) {
	defer func() {
		if r := recover(); r != nil {
			f.metrics.Dispatched(d.Name(), metrics.OutcomeFailed)
			log.Errorf("🔥 Panic recovered in %s dispatcher: %v\nStack trace: %s", d.Name(), r, debug.Stack())
		}
	}()

	if !d.Configured() {
		f.metrics.Dispatched(d.Name(), metrics.OutcomeSkipped)
		log.Warnf("⚠️ %s is not configured, skipping notification", d.Name())
		return
	}

	if err := d.Dispatch(ctx, m); err != nil {
		f.metrics.Dispatched(d.Name(), metrics.OutcomeFailed)
		log.Errorf("❌ Failed to send %s notification: %v", d.Name(), err)
		return
	}

	f.metrics.Dispatched(d.Name(), metrics.OutcomeSent)
	log.Infof("✅ %s notification sent", d.Name())
}

// postJSON posts v as JSON and returns the response body of a non-2xx answer as an error.
func postJSON(ctx context.Context, client *http.Client, url string, header http.Header, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "could not encode payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "could not build request")
	}
	for k, vv := range header {
		req.Header[k] = vv
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Errorf("status code %d, response: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}

func clientOrDefault(c *http.Client) *http.Client {
	if c == nil {
		return &http.Client{}
	}
	return c
}

// Names of the dispatchers accepted in configuration
const (
	SlackName    = "slack"
	TodoistName  = "todoist"
	TelegramName = "telegram"
)

// Settings holds the credentials of every dispatcher.
type Settings struct {
	SlackWebhookURL  string
	TodoistAPIKey    string
	TodoistProjectID string
	TodoistURL       string
	TelegramToken    string
	TelegramChatID   int64
	HTTPClient       *http.Client
}

// FromNames builds the dispatchers listed in names, in that order.
func FromNames(names []string, s Settings) ([]Dispatcher, error) {
	dispatchers := make([]Dispatcher, 0, len(names))
	for _, name := range names {
		switch name {
		case SlackName:
			dispatchers = append(dispatchers, NewSlack(s.SlackWebhookURL, s.HTTPClient))
		case TodoistName:
			dispatchers = append(dispatchers, NewTodoist(TodoistConfig{
				APIKey:     s.TodoistAPIKey,
				ProjectID:  s.TodoistProjectID,
				URL:        s.TodoistURL,
				HTTPClient: s.HTTPClient,
			}))
		case TelegramName:
			dispatchers = append(dispatchers, NewTelegram(TelegramConfig{
				Token:      s.TelegramToken,
				ChatID:     s.TelegramChatID,
				HTTPClient: s.HTTPClient,
			}))
		default:
			return nil, errors.Errorf("unknown notifier %q", name)
		}
	}
	return dispatchers, nil
}
