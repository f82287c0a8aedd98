package config

import (
	"investment-alarm/internal/types"

	"github.com/shopspring/decimal"
)

// DefaultWatchList is used when the config file has no watch_list.
func DefaultWatchList() []types.WatchedItem {
	item := func(symbol string, typ types.InstrumentType, target int64, dir types.Direction, unit string) types.WatchedItem {
		return types.WatchedItem{
			Symbol:         symbol,
			InstrumentType: typ,
			Target:         decimal.NewFromInt(target),
			Direction:      dir,
			Unit:           unit,
		}
	}

	return []types.WatchedItem{
		item("USD/JPY", types.Exchange, 140, types.LowerBound, "円"),
		item("USD/JPY", types.Exchange, 148, types.UpperBound, "円"),
		item("EUR/JPY", types.Exchange, 170, types.LowerBound, "円"),
		item("VOO", types.Stock, 600, types.UpperBound, "$"),
		item("TECL", types.Stock, 105, types.UpperBound, "$"),
		item("TSLA", types.Stock, 250, types.LowerBound, "$"),
		item("PYPL", types.Stock, 55, types.LowerBound, "$"),
		item("INTC", types.Stock, 40, types.UpperBound, "$"),
	}
}
