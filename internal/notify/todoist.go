package notify

import (
	"context"
	"net/http"

	"investment-alarm/internal/alert"

	"github.com/pkg/errors"
)

const DefaultTodoistURL = "https://api.todoist.com/rest/v2/tasks"

// Todoist priority 4 is shown as "P1", the most urgent.
const todoistPriorityUrgent = 4

type TodoistConfig struct {
	APIKey     string
	ProjectID  string
	URL        string
	HTTPClient *http.Client
}

// Todoist creates a task due today for every alert.
type Todoist struct {
	apiKey    string
	projectID string
	url       string
	client    *http.Client
}

type todoistTask struct {
	Content   string `json:"content"`
	DueString string `json:"due_string"`
	Priority  int    `json:"priority"`
	ProjectID string `json:"project_id,omitempty"`
}

func NewTodoist(c TodoistConfig) *Todoist {
	url := c.URL
	if url == "" {
		url = DefaultTodoistURL
	}
	return &Todoist{
		apiKey:    c.APIKey,
		projectID: c.ProjectID,
		url:       url,
		client:    clientOrDefault(c.HTTPClient),
	}
}

func (t *Todoist) Name() string { return TodoistName }

func (t *Todoist) Configured() bool { return t.apiKey != "" }

func (t *Todoist) Dispatch(ctx context.Context, m alert.Message) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+t.apiKey)

	err := postJSON(ctx, t.client, t.url, header, todoistTask{
		Content:   m.Text,
		DueString: "Today",
		Priority:  todoistPriorityUrgent,
		ProjectID: t.projectID,
	})
	return errors.Wrap(err, "todoist create task")
}
