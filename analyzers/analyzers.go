// Package analyzers turns an equity/trade stream into performance
// statistics. Each analyzer subscribes to the engine's per-bar equity
// snapshots and/or the broker's trade-close events and maintains its
// statistic incrementally; nothing is recomputed from scratch at the end.
package analyzers

import (
	"time"

	"github.com/rustyeddy/backtester/broker"
)

// Analyzer consumes the replay's output streams. OnEquity fires once per
// replayed bar, OnTradeClosed once per closed round-trip, Finalize once
// after the last bar.
type Analyzer interface {
	Name() string
	OnEquity(date time.Time, equity float64)
	OnTradeClosed(tr broker.Trade)
	Finalize()
}

// nopTrades is embedded by analyzers that only watch the equity curve.
type nopTrades struct{}

func (nopTrades) OnTradeClosed(broker.Trade) {}

// nopFinalize is embedded by analyzers with nothing to settle at the end.
type nopFinalize struct{}

func (nopFinalize) Finalize() {}
