package notify

import (
	"context"
	"net/http"

	"investment-alarm/internal/alert"
	"investment-alarm/lib/helpers"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

type TelegramConfig struct {
	Token  string
	ChatID int64
	// Endpoint overrides tgbotapi.APIEndpoint, "https://api.telegram.org/bot%s/%s".
	Endpoint   string
	HTTPClient *http.Client
}

// Telegram sends alerts to a chat through the bot API.
type Telegram struct {
	config TelegramConfig
	bot    *tgbotapi.BotAPI
}

func NewTelegram(c TelegramConfig) *Telegram {
	if c.Endpoint == "" {
		c.Endpoint = tgbotapi.APIEndpoint
	}
	c.HTTPClient = clientOrDefault(c.HTTPClient)
	return &Telegram{config: c}
}

func (t *Telegram) Name() string { return TelegramName }

func (t *Telegram) Configured() bool { return t.config.Token != "" && t.config.ChatID != 0 }

// Dispatch creates the bot on first use since tgbotapi validates the token
// against the API when constructed.
func (t *Telegram) Dispatch(_ context.Context, m alert.Message) error {
	if t.bot == nil {
		bot, err := tgbotapi.NewBotAPIWithClient(t.config.Token, t.config.Endpoint, t.config.HTTPClient)
		if err != nil {
			return errors.Wrap(err, "could not create telegram bot")
		}
		t.bot = bot
	}

	msg := tgbotapi.NewMessage(t.config.ChatID, helpers.EscapeMarkdownV2(m.Text))
	msg.DisableWebPagePreview = true
	msg.ParseMode = "MarkdownV2"
	_, err := t.bot.Send(msg)
	return errors.Wrapf(err, "could not send message to chat %d", t.config.ChatID)
}
