package analyzers

import (
	"math"
	"time"

	"github.com/rustyeddy/backtester/broker"
)

// Stat summarizes one metric over a set of trades.
type Stat struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Max   float64 `json:"max"`
	Min   float64 `json:"min"`
}

// TradeStats holds the gross/net P&L and per-trade return statistics for
// one subset of trades.
type TradeStats struct {
	Count    int  `json:"count"`
	GrossPNL Stat `json:"gross_pnl"`
	NetPNL   Stat `json:"net_pnl"`
	Returns  Stat `json:"returns"`
}

// TradesSummary splits the statistics into all, profitable, and
// unprofitable subsets, mirroring what a trade-analyzer report prints.
type TradesSummary struct {
	All          TradeStats `json:"all"`
	Profitable   TradeStats `json:"profitable"`
	Unprofitable TradeStats `json:"unprofitable"`
}

// Trades collects closed round-trips and derives summary statistics.
// Open positions never appear here; the engine reports them separately
// as unrealized.
type Trades struct {
	nopFinalize

	trades []broker.Trade
}

func NewTrades() *Trades { return &Trades{} }

func (t *Trades) Name() string { return "trades" }

func (t *Trades) OnEquity(time.Time, float64) {}

func (t *Trades) OnTradeClosed(tr broker.Trade) {
	t.trades = append(t.trades, tr)
}

func (t *Trades) Count() int { return len(t.trades) }

// NetPNL sums realized net profit over all closed trades.
func (t *Trades) NetPNL() float64 {
	var sum float64
	for _, tr := range t.trades {
		sum += tr.PNLNet
	}
	return sum
}

func (t *Trades) Summary() TradesSummary {
	var wins, losses []broker.Trade
	for _, tr := range t.trades {
		if tr.Profitable() {
			wins = append(wins, tr)
		} else {
			losses = append(losses, tr)
		}
	}
	return TradesSummary{
		All:          statsOf(t.trades),
		Profitable:   statsOf(wins),
		Unprofitable: statsOf(losses),
	}
}

func statsOf(trades []broker.Trade) TradeStats {
	gross := make([]float64, len(trades))
	net := make([]float64, len(trades))
	rets := make([]float64, len(trades))
	for i, tr := range trades {
		gross[i] = tr.PNLGross
		net[i] = tr.PNLNet
		rets[i] = tr.Return()
	}
	return TradeStats{
		Count:    len(trades),
		GrossPNL: statOf(gross),
		NetPNL:   statOf(net),
		Returns:  statOf(rets),
	}
}

// statOf degrades to zeros on an empty set rather than NaN.
func statOf(vals []float64) Stat {
	s := Stat{Count: len(vals)}
	if len(vals) == 0 {
		return s
	}

	s.Max = math.Inf(-1)
	s.Min = math.Inf(1)
	var sum float64
	for _, v := range vals {
		sum += v
		s.Max = math.Max(s.Max, v)
		s.Min = math.Min(s.Min, v)
	}
	s.Mean = sum / float64(len(vals))

	if len(vals) > 1 {
		var ss float64
		for _, v := range vals {
			d := v - s.Mean
			ss += d * d
		}
		s.Std = math.Sqrt(ss / float64(len(vals)-1))
	}
	return s
}
