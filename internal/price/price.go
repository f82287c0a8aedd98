package price

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"investment-alarm/internal/types"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultAlphaVantageURL = "https://www.alphavantage.co/query"

	timeSeriesKey   = "Time Series (5min)"
	closeKey        = "4. close"
	exchangeRateKey = "Realtime Currency Exchange Rate"
	rateKey         = "5. Exchange Rate"
)

// ErrUnsupportedInstrument is returned for a watched item whose type no upstream can price.
var ErrUnsupportedInstrument = errors.New("unsupported instrument type")

// Quote is either an observed price or the reason none could be obtained.
type Quote struct {
	Price  decimal.Decimal
	Reason string
	ok     bool
}

func Available(p decimal.Decimal) Quote {
	return Quote{Price: p, ok: true}
}

func Unavailable(format string, args ...interface{}) Quote {
	return Quote{Reason: fmt.Sprintf(format, args...)}
}

// OK reports whether the quote carries a usable price.
func (q Quote) OK() bool {
	return q.ok && q.Price.IsPositive()
}

func (q Quote) String() string {
	if q.OK() {
		return q.Price.String()
	}
	return "unavailable: " + q.Reason
}

// Config of the price source
type Config struct {
	AlphaVantageURL string
	APIKey          string
	APIProKey       string // coinpaprika
	HTTPClient      *http.Client
}

// Source fetches current prices from Alpha Vantage (stocks, currency pairs)
// and CoinPaprika (crypto).
type Source struct {
	baseURL string
	apiKey  string
	client  *http.Client
	paprika *coinpaprika.Client
}

// alphaVantageEnvelope carries the fields Alpha Vantage answers with instead
// of data when a request is throttled or rejected.
type alphaVantageEnvelope struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

type intradayResponse struct {
	alphaVantageEnvelope
	TimeSeries map[string]map[string]string `json:"Time Series (5min)"`
}

type exchangeRateResponse struct {
	alphaVantageEnvelope
	Rate map[string]string `json:"Realtime Currency Exchange Rate"`
}

func NewSource(c Config) *Source {
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	baseURL := c.AlphaVantageURL
	if baseURL == "" {
		baseURL = DefaultAlphaVantageURL
	}

	var paprika *coinpaprika.Client
	if c.APIProKey != "" {
		paprika = coinpaprika.NewClient(client, coinpaprika.WithAPIKey(c.APIProKey))
	} else {
		paprika = coinpaprika.NewClient(client)
	}

	return &Source{
		baseURL: baseURL,
		apiKey:  c.APIKey,
		client:  client,
		paprika: paprika,
	}
}

// FetchPrice returns the current price of the item. Upstream failures are
// reported as an unavailable Quote; the error is reserved for items no
// upstream supports.
func (s *Source) FetchPrice(ctx context.Context, item types.WatchedItem) (Quote, error) {
	switch item.InstrumentType {
	case types.Stock:
		return s.stockPrice(ctx, item.Symbol), nil
	case types.Exchange:
		return s.exchangeRate(ctx, item.Symbol), nil
	case types.Crypto:
		return s.cryptoPrice(item.Symbol), nil
	default:
		return Quote{}, errors.Wrapf(ErrUnsupportedInstrument, "%s: %q", item.Symbol, item.InstrumentType)
	}
}

func (s *Source) stockPrice(ctx context.Context, symbol string) Quote {
	query := url.Values{}
	query.Set("function", "TIME_SERIES_INTRADAY")
	query.Set("symbol", symbol)
	query.Set("interval", "5min")
	query.Set("apikey", s.apiKey)

	var body intradayResponse
	if err := s.getJSON(ctx, query, &body); err != nil {
		log.Errorf("❌ Failed to fetch stock price for %s: %v", symbol, err)
		return Unavailable("%v", err)
	}

	if len(body.TimeSeries) == 0 {
		logEnvelope(symbol, body.alphaVantageEnvelope)
		log.Debugf("response for %s: %s", symbol, spew.Sdump(body))
		return Unavailable("%q missing", timeSeriesKey)
	}

	latest := latestTimestamp(body.TimeSeries)
	q := parsePrice(body.TimeSeries[latest][closeKey])
	if !q.OK() {
		log.Warnf("⚠️ No close price for %s at %s: %s", symbol, latest, q.Reason)
		return q
	}

	log.Infof("✅ %s latest stock price: $%s (%s)", symbol, q.Price, latest)
	return q
}

func (s *Source) exchangeRate(ctx context.Context, pair string) Quote {
	from, to, err := types.WatchedItem{Symbol: pair}.CurrencyPair()
	if err != nil {
		log.Errorf("❌ %v", err)
		return Unavailable("%v", err)
	}

	query := url.Values{}
	query.Set("function", "CURRENCY_EXCHANGE_RATE")
	query.Set("from_currency", from)
	query.Set("to_currency", to)
	query.Set("apikey", s.apiKey)

	var body exchangeRateResponse
	if err := s.getJSON(ctx, query, &body); err != nil {
		log.Errorf("❌ Failed to fetch exchange rate for %s: %v", pair, err)
		return Unavailable("%v", err)
	}

	rate, found := body.Rate[rateKey]
	if !found {
		logEnvelope(pair, body.alphaVantageEnvelope)
		log.Debugf("response for %s: %s", pair, spew.Sdump(body))
		return Unavailable("%q missing", exchangeRateKey)
	}

	q := parsePrice(rate)
	if !q.OK() {
		log.Warnf("⚠️ No exchange rate for %s: %s", pair, q.Reason)
		return q
	}

	log.Infof("✅ %s exchange rate: %s", pair, q.Price)
	return q
}

func (s *Source) cryptoPrice(id string) Quote {
	ticker, err := s.paprika.Tickers.GetByID(id, &coinpaprika.TickersOptions{Quotes: "USD"})
	if err != nil {
		log.Errorf("❌ Failed to fetch coin ticker for %s: %v", id, err)
		return Unavailable("%v", err)
	}
	if ticker == nil {
		return Unavailable("no ticker for %s", id)
	}

	usd, found := ticker.Quotes["USD"]
	if !found || usd.Price == nil {
		log.Debugf("ticker for %s: %s", id, spew.Sdump(ticker))
		return Unavailable("USD quote missing")
	}

	q := Available(decimal.NewFromFloat(*usd.Price))
	if !q.OK() {
		return Unavailable("non-positive price %s", q.Price)
	}

	log.Infof("✅ %s latest coin price: $%s", id, q.Price)
	return q
}

func (s *Source) getJSON(ctx context.Context, query url.Values, v interface{}) error {
	endpoint := s.baseURL + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "could not build request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "request %s", query.Get("function"))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("unexpected status %d", resp.StatusCode)
	}

	return errors.Wrap(json.NewDecoder(resp.Body).Decode(v), "could not decode response")
}

// latestTimestamp picks the greatest key of the series. Keys are
// "2006-01-02 15:04:05", so string order is chronological order and the
// result matches the first key of the upstream's newest-first listing.
func latestTimestamp(series map[string]map[string]string) string {
	return lo.Max(lo.Keys(series))
}

func parsePrice(raw string) Quote {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Unavailable("price field missing")
	}
	p, err := decimal.NewFromString(raw)
	if err != nil {
		return Unavailable("malformed price %q", raw)
	}
	if !p.IsPositive() {
		return Unavailable("non-positive price %s", p)
	}
	return Available(p)
}

func logEnvelope(symbol string, env alphaVantageEnvelope) {
	switch {
	case env.ErrorMessage != "":
		log.Errorf("❌ Price API error for %s: %s", symbol, env.ErrorMessage)
	case env.Note != "":
		log.Warnf("⚠️ Price API note for %s: %s", symbol, env.Note)
	case env.Information != "":
		log.Warnf("⚠️ Price API information for %s: %s", symbol, env.Information)
	default:
		log.Warnf("⚠️ No price data found for %s", symbol)
	}
}
