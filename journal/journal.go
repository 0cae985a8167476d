// Package journal persists backtest runs: the run summary, the closed
// trades, and the per-bar equity curve. SQLite is the durable store; the
// CSV journal writes flat files for spreadsheets.
package journal

import "time"

// RunRecord summarizes one completed backtest.
type RunRecord struct {
	RunID        string
	Created      time.Time
	Strategy     string
	Instruments  string // comma-joined
	Start        time.Time
	End          time.Time
	StartingCash float64
	FinalEquity  float64
	Return       float64
	MaxDrawdown  float64
	Sharpe       float64
	Trades       int
}

// TradeRecord is one closed round-trip within a run.
type TradeRecord struct {
	RunID      string
	TradeID    string
	Instrument string
	Quantity   int64
	EntryDate  time.Time
	ExitDate   time.Time
	EntryPrice float64
	ExitPrice  float64
	PNLGross   float64
	PNLNet     float64
	Commission float64
}

// EquityRecord is one bar of the equity curve.
type EquityRecord struct {
	RunID         string
	Date          time.Time
	Cash          float64
	PositionValue float64
	Equity        float64
}

type Journal interface {
	RecordRun(RunRecord) error
	RecordTrade(TradeRecord) error
	RecordEquity(EquityRecord) error
	Close() error
}

// Nop discards everything; the default when no journal is configured.
type Nop struct{}

func (Nop) RecordRun(RunRecord) error       { return nil }
func (Nop) RecordTrade(TradeRecord) error   { return nil }
func (Nop) RecordEquity(EquityRecord) error { return nil }
func (Nop) Close() error                    { return nil }
