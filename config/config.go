package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"investment-alarm/internal/notify"
	"investment-alarm/internal/price"
	"investment-alarm/internal/schedule"
	"investment-alarm/internal/types"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config is built once at startup and handed to each component.
type Config struct {
	Debug      bool
	Lang       string
	LocalesDir string

	AlphaVantageAPIKey string
	AlphaVantageURL    string
	APIProKey          string

	SlackWebhookURL  string
	TodoistAPIKey    string
	TodoistProjectID string
	TodoistURL       string
	TelegramToken    string
	TelegramChatID   int64
	Notifiers        []string

	Weekend  []time.Weekday
	Location *time.Location
	Workers  int

	PushgatewayURL string

	WatchList []types.WatchedItem
}

type watchItemConfig struct {
	Symbol        string `mapstructure:"symbol"`
	Type          string `mapstructure:"type"`
	Target        string `mapstructure:"target"`
	Direction     string `mapstructure:"direction"`
	IsUpperTarget *bool  `mapstructure:"is_upper_target"`
	Unit          string `mapstructure:"unit"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.BindEnv("debug", "DEBUG")
	v.BindEnv("lang", "ALARM_LANG")
	v.BindEnv("locales_dir", "LOCALES_DIR")
	v.BindEnv("alpha_vantage_api_key", "ALPHA_VANTAGE_API_KEY")
	v.BindEnv("alpha_vantage_url", "ALPHA_VANTAGE_URL")
	v.BindEnv("api_pro_key", "API_PRO_KEY")
	v.BindEnv("slack_webhook_url", "SLACK_WEBHOOK_URL")
	v.BindEnv("todoist_api_key", "TODOIST_API_KEY")
	v.BindEnv("todoist_project_id", "TODO_PROJECT_ID")
	v.BindEnv("todoist_url", "TODOIST_URL")
	v.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram_chat_id", "TELEGRAM_CHAT_ID")
	v.BindEnv("notifiers", "NOTIFIERS")
	v.BindEnv("weekend_days", "WEEKEND_DAYS")
	v.BindEnv("timezone", "ALARM_TIMEZONE")
	v.BindEnv("workers", "WORKERS")
	v.BindEnv("pushgateway_url", "PUSHGATEWAY_URL")

	v.SetDefault("debug", false)
	v.SetDefault("lang", "en")
	v.SetDefault("locales_dir", "locales")
	v.SetDefault("alpha_vantage_url", price.DefaultAlphaVantageURL)
	v.SetDefault("todoist_url", notify.DefaultTodoistURL)
	v.SetDefault("notifiers", []string{notify.SlackName, notify.TodoistName})
	v.SetDefault("weekend_days", []int{0, 6})
	v.SetDefault("timezone", "Local")
	v.SetDefault("workers", 1)

	return v
}

// Load reads the environment and, when file is not empty, a config file.
// Invalid watch-list entries fail the load.
func Load(file string) (Config, error) {
	v := newViper()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "could not read config file %s", file)
		}
	}

	weekend, err := parseWeekend(v.GetStringSlice("weekend_days"))
	if err != nil {
		return Config{}, errors.Wrap(err, "weekend_days")
	}

	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		return Config{}, errors.Wrap(err, "timezone")
	}

	watchList := DefaultWatchList()
	if v.IsSet("watch_list") {
		var raw []watchItemConfig
		if err := v.UnmarshalKey("watch_list", &raw); err != nil {
			return Config{}, errors.Wrap(err, "could not decode watch_list")
		}
		if watchList, err = parseWatchList(raw); err != nil {
			return Config{}, err
		}
	}

	return Config{
		Debug:              v.GetBool("debug"),
		Lang:               v.GetString("lang"),
		LocalesDir:         v.GetString("locales_dir"),
		AlphaVantageAPIKey: v.GetString("alpha_vantage_api_key"),
		AlphaVantageURL:    v.GetString("alpha_vantage_url"),
		APIProKey:          v.GetString("api_pro_key"),
		SlackWebhookURL:    v.GetString("slack_webhook_url"),
		TodoistAPIKey:      v.GetString("todoist_api_key"),
		TodoistProjectID:   v.GetString("todoist_project_id"),
		TodoistURL:         v.GetString("todoist_url"),
		TelegramToken:      v.GetString("telegram_bot_token"),
		TelegramChatID:     v.GetInt64("telegram_chat_id"),
		Notifiers:          splitList(v.GetStringSlice("notifiers")),
		Weekend:            weekend,
		Location:           loc,
		Workers:            v.GetInt("workers"),
		PushgatewayURL:     v.GetString("pushgateway_url"),
		WatchList:          watchList,
	}, nil
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(values []string) []string {
	items := lo.FlatMap(values, func(s string, _ int) []string {
		return strings.Split(s, ",")
	})
	items = lo.Map(items, func(s string, _ int) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
	return lo.Uniq(lo.Compact(items))
}

// parseWeekend accepts "0,6", "0 6" or a YAML list of day numbers.
func parseWeekend(values []string) ([]time.Weekday, error) {
	fields := lo.FlatMap(values, func(s string, _ int) []string {
		return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	})
	days := make([]int, 0, len(fields))
	for _, f := range fields {
		d, err := strconv.Atoi(f)
		if err != nil {
			return nil, errors.Errorf("invalid weekday %q, expected a number from 0 (Sunday) to 6 (Saturday)", f)
		}
		days = append(days, d)
	}
	return schedule.Weekdays(days)
}

func parseWatchList(raw []watchItemConfig) ([]types.WatchedItem, error) {
	var problems []string
	items := make([]types.WatchedItem, 0, len(raw))

	for i, r := range raw {
		item, err := r.toItem()
		if err == nil {
			err = item.Validate()
		}
		if err != nil {
			problems = append(problems, fmt.Sprintf("watch_list[%d]: %v", i, err))
			continue
		}
		items = append(items, item)
	}

	if len(problems) > 0 {
		return nil, errors.Errorf("invalid watch list:\n  %s", strings.Join(problems, "\n  "))
	}
	return items, nil
}

func (r watchItemConfig) toItem() (types.WatchedItem, error) {
	typ, err := types.ParseInstrumentType(r.Type)
	if err != nil {
		return types.WatchedItem{}, err
	}

	target, err := decimal.NewFromString(strings.TrimSpace(r.Target))
	if err != nil {
		return types.WatchedItem{}, errors.Errorf("%s: invalid target %q", r.Symbol, r.Target)
	}

	var dir types.Direction
	switch {
	case r.Direction != "":
		if dir, err = types.ParseDirection(r.Direction); err != nil {
			return types.WatchedItem{}, err
		}
	case r.IsUpperTarget != nil && *r.IsUpperTarget:
		dir = types.UpperBound
	case r.IsUpperTarget != nil:
		dir = types.LowerBound
	default:
		return types.WatchedItem{}, errors.Errorf("%s: direction is required", r.Symbol)
	}

	return types.WatchedItem{
		Symbol:         strings.TrimSpace(r.Symbol),
		InstrumentType: typ,
		Target:         target,
		Direction:      dir,
		Unit:           r.Unit,
	}, nil
}

// Missing lists the environment variables of required secrets that are not set:
// the price API key and the credentials of every enabled notifier.
// TODO_PROJECT_ID is optional, without it Todoist files tasks in the inbox.
func (c Config) Missing() []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	check("ALPHA_VANTAGE_API_KEY", c.AlphaVantageAPIKey)
	for _, n := range c.Notifiers {
		switch n {
		case notify.SlackName:
			check("SLACK_WEBHOOK_URL", c.SlackWebhookURL)
		case notify.TodoistName:
			check("TODOIST_API_KEY", c.TodoistAPIKey)
		case notify.TelegramName:
			check("TELEGRAM_BOT_TOKEN", c.TelegramToken)
			if c.TelegramChatID == 0 {
				missing = append(missing, "TELEGRAM_CHAT_ID")
			}
		}
	}
	return missing
}

// NotifySettings returns the dispatcher credentials.
func (c Config) NotifySettings() notify.Settings {
	return notify.Settings{
		SlackWebhookURL:  c.SlackWebhookURL,
		TodoistAPIKey:    c.TodoistAPIKey,
		TodoistProjectID: c.TodoistProjectID,
		TodoistURL:       c.TodoistURL,
		TelegramToken:    c.TelegramToken,
		TelegramChatID:   c.TelegramChatID,
	}
}

// PriceConfig returns the price source settings.
func (c Config) PriceConfig() price.Config {
	return price.Config{
		AlphaVantageURL: c.AlphaVantageURL,
		APIKey:          c.AlphaVantageAPIKey,
		APIProKey:       c.APIProKey,
	}
}
