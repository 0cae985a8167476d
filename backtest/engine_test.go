package backtest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/broker"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategies"
)

func frameOfCloses(t *testing.T, instrument string, closes ...float64) *market.Frame {
	t.Helper()
	base := time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Instrument: instrument,
			Date:       base.AddDate(0, 0, i),
			Open:       c, High: c, Low: c, Close: c, AdjClose: c,
			Volume: 1000,
		}
	}
	s, err := market.LoadSeries(instrument, bars)
	require.NoError(t, err)
	f, err := market.Align(s)
	require.NoError(t, err)
	return f
}

func newSim(t *testing.T, cash, commission float64) *broker.Sim {
	t.Helper()
	sim, err := broker.NewSim(broker.Config{Cash: cash, CommissionRate: commission}, nil)
	require.NoError(t, err)
	return sim
}

// scripted buys a fixed quantity at one index and sells everything at
// another, with no indicator state. Useful for exercising the replay
// plumbing with a known trade.
type scripted struct {
	instrument    string
	buyAt, sellAt int
	qty           int64
	badIntentAt   int
	emitBadIntent bool
}

func (s *scripted) Name() string { return "scripted" }

func (s *scripted) Bindings() []strategies.IndicatorBinding { return nil }

func (s *scripted) OnOrderEvent(broker.OrderEvent) {}

func (s *scripted) OnTradeClosed(broker.Trade) {}

func (s *scripted) OnBars(ctx *strategies.Context) []broker.OrderIntent {
	if s.emitBadIntent && ctx.Index == s.badIntentAt {
		return []broker.OrderIntent{{Instrument: s.instrument, Side: broker.Buy, Quantity: -1}}
	}
	switch ctx.Index {
	case s.buyAt:
		return []broker.OrderIntent{{Instrument: s.instrument, Side: broker.Buy, Quantity: s.qty}}
	case s.sellAt:
		held := ctx.Account.Shares(s.instrument)
		if held > 0 {
			return []broker.OrderIntent{{Instrument: s.instrument, Side: broker.Sell, Quantity: held}}
		}
	}
	return nil
}

func TestBuyAndHoldReplay(t *testing.T) {
	e := &Engine{
		Frame:    frameOfCloses(t, "SPY", 10, 11, 9, 12, 13),
		Broker:   newSim(t, 1000, 0),
		Strategy: strategies.NewBuyAndHold(strategies.Params{Instrument: "SPY", Buffer: 1}),
	}

	r, err := e.Run(context.Background())
	require.NoError(t, err)

	// The first-bar order fills on the second bar at 11; all the cash
	// buys 90 whole shares.
	assert.EqualValues(t, 90, e.Broker.Shares("SPY"))
	assert.InDelta(t, 10, r.FinalCash, 1e-9)
	assert.InDelta(t, 10+90*13, r.FinalEquity, 1e-9)

	snaps := e.Snapshots()
	require.Len(t, snaps, 5)
	want := []float64{1000, 1000, 820, 1090, 1180}
	for i, w := range want {
		assert.InDelta(t, w, snaps[i].Equity, 1e-9, "bar %d", i)
	}

	// The position was never exited: no realized trades, one unrealized
	// position marked at the last close.
	assert.Equal(t, 0, r.TradeCount)
	require.Len(t, r.Unrealized, 1)
	up := r.Unrealized[0]
	assert.Equal(t, "SPY", up.Instrument)
	assert.EqualValues(t, 90, up.Quantity)
	assert.InDelta(t, 11, up.AvgEntryPrice, 1e-9)
	assert.InDelta(t, 13, up.MarkPrice, 1e-9)
	assert.InDelta(t, 180, up.PNL, 1e-9)

	assert.InDelta(t, 0.18, r.CumulativeReturn, 1e-9)
	assert.InDelta(t, 0.18, r.MaxDrawdown, 1e-9)
	assert.Equal(t, 1, r.DrawdownDuration)
	assert.True(t, r.Sharpe.Defined)
	assert.Equal(t, Finished, e.CurrentState())
}

func TestRoundTripReconciliation(t *testing.T) {
	e := &Engine{
		Frame:    frameOfCloses(t, "SPY", 10, 11, 12, 13, 14),
		Broker:   newSim(t, 1000, 0.001),
		Strategy: &scripted{instrument: "SPY", buyAt: 0, sellAt: 2, qty: 50},
	}

	r, err := e.Run(context.Background())
	require.NoError(t, err)

	// Buy fills at 11, sell fills at 13: gross 100, commission
	// 0.55 + 0.65, net 98.80.
	require.Equal(t, 1, r.TradeCount)
	assert.InDelta(t, 100, r.Trades.All.GrossPNL.Mean, 1e-9)
	assert.InDelta(t, 98.8, r.RealizedNetPNL, 1e-9)

	// Cash reconciles exactly with realized P&L.
	assert.InDelta(t, 1000+98.8, r.FinalCash, 1e-9)
	assert.InDelta(t, r.FinalCash, r.FinalEquity, 1e-9)
	assert.Empty(t, r.Unrealized)

	// Cash never went negative along the way.
	for i, s := range e.Snapshots() {
		assert.GreaterOrEqual(t, s.Cash, 0.0, "bar %d", i)
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func() (*Result, []EquitySnapshot, []broker.Trade) {
		e := &Engine{
			Frame:    frameOfCloses(t, "SPY", 10, 11, 9, 13, 12, 14),
			Broker:   newSim(t, 1000, 0.001),
			Strategy: &scripted{instrument: "SPY", buyAt: 1, sellAt: 4, qty: 40},
		}
		r, err := e.Run(context.Background())
		require.NoError(t, err)
		return r, e.Snapshots(), e.Broker.Trades()
	}

	r1, snaps1, trades1 := run()
	r2, snaps2, trades2 := run()

	assert.Equal(t, snaps1, snaps2)
	assert.Equal(t, trades1, trades2)
	assert.Equal(t, r1.FinalEquity, r2.FinalEquity)
	assert.Equal(t, r1.Trades, r2.Trades)
	assert.Equal(t, r1.Sharpe, r2.Sharpe)
	// Only the run ID may differ between the two results.
	r2.RunID = r1.RunID
	assert.Equal(t, r1, r2)
}

func TestEngineRunsOnce(t *testing.T) {
	e := &Engine{
		Frame:    frameOfCloses(t, "SPY", 10, 11, 12),
		Broker:   newSim(t, 1000, 0),
		Strategy: &scripted{instrument: "SPY", buyAt: -1, sellAt: -1},
	}

	_, err := e.Run(context.Background())
	require.NoError(t, err)

	_, err = e.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already")
}

func TestEngineValidation(t *testing.T) {
	_, err := (&Engine{}).Run(context.Background())
	require.Error(t, err)

	e := &Engine{
		Broker:   newSim(t, 1000, 0),
		Strategy: &scripted{instrument: "SPY"},
	}
	_, err = e.Run(context.Background())
	require.Error(t, err)
}

func TestEngineContextCancel(t *testing.T) {
	e := &Engine{
		Frame:    frameOfCloses(t, "SPY", 10, 11, 12),
		Broker:   newSim(t, 1000, 0),
		Strategy: &scripted{instrument: "SPY", buyAt: -1, sellAt: -1},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestEngineAbortsOnInvalidIntent(t *testing.T) {
	e := &Engine{
		Frame:    frameOfCloses(t, "SPY", 10, 11, 12),
		Broker:   newSim(t, 1000, 0),
		Strategy: &scripted{instrument: "SPY", buyAt: -1, sellAt: -1, emitBadIntent: true, badIntentAt: 1},
	}

	_, err := e.Run(context.Background())
	require.ErrorIs(t, err, broker.ErrInvalidQuantity)
}

// captureJournal counts what the engine hands to the journal.
type captureJournal struct {
	runs   []journal.RunRecord
	trades []journal.TradeRecord
	equity []journal.EquityRecord
}

func (c *captureJournal) RecordRun(r journal.RunRecord) error {
	c.runs = append(c.runs, r)
	return nil
}

func (c *captureJournal) RecordTrade(t journal.TradeRecord) error {
	c.trades = append(c.trades, t)
	return nil
}

func (c *captureJournal) RecordEquity(e journal.EquityRecord) error {
	c.equity = append(c.equity, e)
	return nil
}

func (c *captureJournal) Close() error { return nil }

func TestEngineJournalsRun(t *testing.T) {
	rec := &captureJournal{}
	e := &Engine{
		Frame:    frameOfCloses(t, "SPY", 10, 11, 12, 13, 14),
		Broker:   newSim(t, 1000, 0),
		Strategy: &scripted{instrument: "SPY", buyAt: 0, sellAt: 2, qty: 10},
		Journal:  rec,
	}

	r, err := e.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rec.runs, 1)
	assert.Equal(t, r.RunID, rec.runs[0].RunID)
	assert.Equal(t, "scripted", rec.runs[0].Strategy)
	assert.Equal(t, "SPY", rec.runs[0].Instruments)
	assert.Equal(t, 1, rec.runs[0].Trades)

	require.Len(t, rec.trades, 1)
	assert.True(t, strings.HasPrefix(rec.trades[0].TradeID, r.RunID+"/"))

	assert.Len(t, rec.equity, 5)
	assert.InDelta(t, r.FinalEquity, rec.equity[4].Equity, 1e-9)
}
