package notify

import (
	"context"
	"net/http"

	"investment-alarm/internal/alert"

	"github.com/pkg/errors"
)

// channelMention notifies every member of the channel.
const channelMention = "<!channel>"

// Slack posts messages to an incoming webhook.
type Slack struct {
	webhookURL string
	client     *http.Client
}

type slackPayload struct {
	Text string `json:"text"`
}

func NewSlack(webhookURL string, client *http.Client) *Slack {
	return &Slack{
		webhookURL: webhookURL,
		client:     clientOrDefault(client),
	}
}

func (s *Slack) Name() string { return SlackName }

func (s *Slack) Configured() bool { return s.webhookURL != "" }

func (s *Slack) Dispatch(ctx context.Context, m alert.Message) error {
	err := postJSON(ctx, s.client, s.webhookURL, nil, slackPayload{Text: channelMention + " " + m.Text})
	return errors.Wrap(err, "slack webhook")
}
