package types

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// InstrumentType selects the upstream used to price a WatchedItem.
type InstrumentType string

const (
	Stock    InstrumentType = "stock"
	Exchange InstrumentType = "exchange"
	Crypto   InstrumentType = "crypto"
)

// Direction tells which side of the target fires an alert.
type Direction string

const (
	UpperBound Direction = "upper" // price >= target
	LowerBound Direction = "lower" // price <= target
)

var currencyCode = regexp.MustCompile(`^[A-Za-z]{3}$`)

// WatchedItem is one entry of the watch list
type WatchedItem struct {
	Symbol         string          `json:"symbol"`
	InstrumentType InstrumentType  `json:"type"`
	Target         decimal.Decimal `json:"target"`
	Direction      Direction       `json:"direction"`
	Unit           string          `json:"unit"`
}

func (w WatchedItem) String() string {
	return fmt.Sprintf("%s(%s %s %s)", w.Symbol, w.InstrumentType, w.Direction, w.Target)
}

// CurrencyPair splits an exchange symbol such as "USD/JPY".
func (w WatchedItem) CurrencyPair() (string, string, error) {
	parts := strings.Split(w.Symbol, "/")
	if len(parts) != 2 || !currencyCode.MatchString(parts[0]) || !currencyCode.MatchString(parts[1]) {
		return "", "", errors.Errorf("invalid currency pair %q, expected BASE/QUOTE", w.Symbol)
	}
	return strings.ToUpper(parts[0]), strings.ToUpper(parts[1]), nil
}

// Validate checks the static invariants of a watch-list entry.
// The instrument type itself is checked by the price source.
func (w WatchedItem) Validate() error {
	if strings.TrimSpace(w.Symbol) == "" {
		return errors.New("symbol is empty")
	}
	if !w.Target.IsPositive() {
		return errors.Errorf("%s: target must be positive, got %s", w.Symbol, w.Target)
	}
	if w.Direction != UpperBound && w.Direction != LowerBound {
		return errors.Errorf("%s: unknown direction %q", w.Symbol, w.Direction)
	}
	if w.InstrumentType == Exchange {
		if _, _, err := w.CurrencyPair(); err != nil {
			return err
		}
	}
	return nil
}

func ParseInstrumentType(s string) (InstrumentType, error) {
	switch t := InstrumentType(strings.ToLower(strings.TrimSpace(s))); t {
	case Stock, Exchange, Crypto:
		return t, nil
	default:
		return "", errors.Errorf("unsupported instrument type %q", s)
	}
}

// ParseDirection accepts "upper"/"lower" and the "above"/"below" aliases.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upper", "above":
		return UpperBound, nil
	case "lower", "below":
		return LowerBound, nil
	default:
		return "", errors.Errorf("unknown direction %q", s)
	}
}
