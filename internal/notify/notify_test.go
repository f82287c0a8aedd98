package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"investment-alarm/internal/alert"
	"investment-alarm/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDispatcher struct {
	mock.Mock
	name string
}

func (m *MockDispatcher) Name() string { return m.name }

func (m *MockDispatcher) Configured() bool {
	return m.Called().Bool(0)
}

func (m *MockDispatcher) Dispatch(ctx context.Context, msg alert.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

func recorder(t *testing.T, status int, reply string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Body: body})
		w.WriteHeader(status)
		fmt.Fprint(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

var usdjpy = alert.Message{Text: "USD/JPY price fell below ↓↓🎉 140円 (139.5円)"}

func TestSlack_Dispatch(t *testing.T) {
	srv, requests := recorder(t, http.StatusOK, "ok")
	s := NewSlack(srv.URL+"/services/T000/B000/XXX", nil)

	require.True(t, s.Configured())
	require.NoError(t, s.Dispatch(context.Background(), usdjpy))

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/services/T000/B000/XXX", req.Path)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	var payload map[string]string
	require.NoError(t, json.Unmarshal(req.Body, &payload))
	assert.Equal(t, "<!channel> "+usdjpy.Text, payload["text"])
}

func TestSlack_DispatchFailure(t *testing.T) {
	srv, _ := recorder(t, http.StatusForbidden, "invalid_token")

	err := NewSlack(srv.URL, nil).Dispatch(context.Background(), usdjpy)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "invalid_token")
}

func TestSlack_NotConfigured(t *testing.T) {
	assert.False(t, NewSlack("", nil).Configured())
}

func TestTodoist_Dispatch(t *testing.T) {
	srv, requests := recorder(t, http.StatusOK, `{"id": "2995104339"}`)
	td := NewTodoist(TodoistConfig{APIKey: "secret", ProjectID: "2203306141", URL: srv.URL + "/rest/v2/tasks"})

	require.True(t, td.Configured())
	require.NoError(t, td.Dispatch(context.Background(), usdjpy))

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "/rest/v2/tasks", req.Path)
	assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))

	var task map[string]interface{}
	require.NoError(t, json.Unmarshal(req.Body, &task))
	assert.Equal(t, usdjpy.Text, task["content"])
	assert.Equal(t, "Today", task["due_string"])
	assert.Equal(t, 4.0, task["priority"])
	assert.Equal(t, "2203306141", task["project_id"])
}

func TestTodoist_OmitsEmptyProject(t *testing.T) {
	srv, requests := recorder(t, http.StatusOK, `{}`)
	require.NoError(t, NewTodoist(TodoistConfig{APIKey: "secret", URL: srv.URL}).Dispatch(context.Background(), usdjpy))

	require.Len(t, *requests, 1)
	assert.NotContains(t, string((*requests)[0].Body), "project_id")
}

func TestTodoist_DispatchFailure(t *testing.T) {
	srv, _ := recorder(t, http.StatusBadRequest, "Invalid argument value")

	err := NewTodoist(TodoistConfig{APIKey: "secret", URL: srv.URL}).Dispatch(context.Background(), usdjpy)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code 400")
	assert.Contains(t, err.Error(), "Invalid argument value")
}

func TestTodoist_Defaults(t *testing.T) {
	td := NewTodoist(TodoistConfig{})
	assert.False(t, td.Configured())
	assert.Equal(t, DefaultTodoistURL, td.url)
}

func TestTelegram_Dispatch(t *testing.T) {
	var sent url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, `{"ok": true, "result": {"id": 1, "is_bot": true, "first_name": "alarm", "username": "alarm_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			assert.NoError(t, r.ParseForm())
			sent = r.PostForm
			fmt.Fprint(w, `{"ok": true, "result": {"message_id": 7, "date": 0, "chat": {"id": 42, "type": "private"}}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tg := NewTelegram(TelegramConfig{Token: "123:abc", ChatID: 42, Endpoint: srv.URL + "/bot%s/%s"})
	require.True(t, tg.Configured())
	require.NoError(t, tg.Dispatch(context.Background(), usdjpy))

	assert.Equal(t, "42", sent.Get("chat_id"))
	assert.Equal(t, "MarkdownV2", sent.Get("parse_mode"))
	assert.Equal(t, `USD/JPY price fell below ↓↓🎉 140円 \(139\.5円\)`, sent.Get("text"))
}

func TestTelegram_BadToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"ok": false, "error_code": 401, "description": "Unauthorized"}`)
	}))
	defer srv.Close()

	err := NewTelegram(TelegramConfig{Token: "bad", ChatID: 42, Endpoint: srv.URL + "/bot%s/%s"}).
		Dispatch(context.Background(), usdjpy)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not create telegram bot")
}

func TestTelegram_NotConfigured(t *testing.T) {
	assert.False(t, NewTelegram(TelegramConfig{Token: "123:abc"}).Configured())
	assert.False(t, NewTelegram(TelegramConfig{ChatID: 42}).Configured())
}

func TestFanout_SkipsUnconfigured(t *testing.T) {
	configured := &MockDispatcher{name: "slack"}
	configured.On("Configured").Return(true)
	configured.On("Dispatch", mock.Anything, usdjpy).Return(nil)

	missing := &MockDispatcher{name: "todoist"}
	missing.On("Configured").Return(false)

	m := metrics.New()
	NewFanout(m, configured, missing).Broadcast(context.Background(), []alert.Message{usdjpy})

	configured.AssertNumberOfCalls(t, "Dispatch", 1)
	missing.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("slack", metrics.OutcomeSent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("todoist", metrics.OutcomeSkipped)))
}

func TestFanout_IsolatesFailures(t *testing.T) {
	second := alert.Message{Text: "VOO price rose above ↑↑🎉 600$ (601$)"}

	failing := &MockDispatcher{name: "slack"}
	failing.On("Configured").Return(true)
	failing.On("Dispatch", mock.Anything, usdjpy).Return(fmt.Errorf("connection reset"))
	failing.On("Dispatch", mock.Anything, second).Run(func(mock.Arguments) { panic("nil map") }).Return(nil)

	healthy := &MockDispatcher{name: "todoist"}
	healthy.On("Configured").Return(true)
	healthy.On("Dispatch", mock.Anything, mock.Anything).Return(nil)

	m := metrics.New()
	assert.NotPanics(t, func() {
		NewFanout(m, failing, healthy).Broadcast(context.Background(), []alert.Message{usdjpy, second})
	})

	healthy.AssertNumberOfCalls(t, "Dispatch", 2)
	failing.AssertExpectations(t)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("slack", metrics.OutcomeFailed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("todoist", metrics.OutcomeSent)))
}

func TestFanout_NilMetrics(t *testing.T) {
	d := &MockDispatcher{name: "slack"}
	d.On("Configured").Return(true)
	d.On("Dispatch", mock.Anything, usdjpy).Return(nil)

	assert.NotPanics(t, func() {
		NewFanout(nil, d).Broadcast(context.Background(), []alert.Message{usdjpy})
	})
	d.AssertNumberOfCalls(t, "Dispatch", 1)
}

func TestFromNames(t *testing.T) {
	dispatchers, err := FromNames([]string{"todoist", "slack", "telegram"}, Settings{SlackWebhookURL: "http://hook"})
	require.NoError(t, err)
	require.Len(t, dispatchers, 3)
	assert.Equal(t, TodoistName, dispatchers[0].Name())
	assert.Equal(t, SlackName, dispatchers[1].Name())
	assert.Equal(t, TelegramName, dispatchers[2].Name())
	assert.True(t, dispatchers[1].Configured())
	assert.False(t, dispatchers[0].Configured())

	_, err = FromNames([]string{"slack", "email"}, Settings{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}
