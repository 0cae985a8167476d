package strategies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/broker"
	"github.com/rustyeddy/backtester/market"
)

type fakeAccount struct {
	cash   float64
	shares map[string]int64
}

func (a *fakeAccount) Cash() float64 { return a.cash }

func (a *fakeAccount) Shares(instr string) int64 { return a.shares[instr] }

// replayCtx advances a strategy's indicators bar by bar and returns the
// context for each step, mimicking the engine's ordering.
type replayCtx struct {
	frame *market.Frame
	strat Strategy
	acct  *fakeAccount
	cal   *market.Calendar
}

func newReplay(t *testing.T, strat Strategy, closes ...float64) *replayCtx {
	t.Helper()
	start := time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Date: start.AddDate(0, 0, i),
			Open: c, High: c, Low: c, Close: c, AdjClose: c, Volume: 1,
		}
	}
	s, err := market.LoadSeries("SPY", bars)
	require.NoError(t, err)
	f, err := market.Align(s)
	require.NoError(t, err)
	return &replayCtx{
		frame: f,
		strat: strat,
		acct:  &fakeAccount{cash: 10000, shares: map[string]int64{}},
		cal:   market.FrameCalendar(f),
	}
}

func (r *replayCtx) step(i int) []broker.OrderIntent {
	snap := r.frame.Snapshot(i)
	for _, bind := range r.strat.Bindings() {
		if b, ok := snap.Bar(bind.Instrument); ok {
			bind.Indicator.Update(b)
		}
	}
	return r.strat.OnBars(&Context{
		Index:    i,
		Date:     r.frame.Date(i),
		Bars:     snap,
		Account:  r.acct,
		Calendar: r.cal,
	})
}

func terminal(instr string, state broker.OrderState) broker.OrderEvent {
	return broker.OrderEvent{Order: broker.Order{Instrument: instr, State: state}}
}

func TestNewFactory(t *testing.T) {
	for _, name := range Names() {
		s, err := New(name, Params{Instrument: "SPY", Filter: "VIX"})
		require.NoError(t, err, name)
		assert.Equal(t, name, s.Name())
	}

	_, err := New("nope", Params{Instrument: "SPY"})
	require.Error(t, err)

	_, err = New("buy-hold", Params{})
	require.Error(t, err, "instrument required")
}

func TestBuyAndHoldEntersOnce(t *testing.T) {
	s := NewBuyAndHold(Params{Instrument: "SPY", Buffer: 1.0})
	r := newReplay(t, s, 10, 11, 9)

	intents := r.step(0)
	require.Len(t, intents, 1)
	assert.Equal(t, broker.Buy, intents[0].Side)
	assert.Equal(t, 1.0, intents[0].CashFraction)
	assert.Zero(t, intents[0].Quantity)

	// Order in flight: no duplicate submission.
	assert.Empty(t, r.step(1))

	// Filled: holding blocks any further entry.
	s.OnOrderEvent(terminal("SPY", broker.Completed))
	r.acct.shares["SPY"] = 90
	assert.Empty(t, r.step(2))
}

func TestBuyAndHoldRetriesAfterMargin(t *testing.T) {
	s := NewBuyAndHold(Params{Instrument: "SPY"})
	r := newReplay(t, s, 10, 11)

	require.Len(t, r.step(0), 1)
	s.OnOrderEvent(terminal("SPY", broker.Margin))
	assert.Len(t, r.step(1), 1, "terminal rejection reopens the gate")
}

func TestBuyAndHoldDefaultBuffer(t *testing.T) {
	s := NewBuyAndHold(Params{Instrument: "SPY"})
	r := newReplay(t, s, 10)
	intents := r.step(0)
	require.Len(t, intents, 1)
	assert.Equal(t, DefaultBuffer, intents[0].CashFraction)
}

func TestSMAMonthEndGating(t *testing.T) {
	s := NewSMAMonthEnd(Params{Instrument: "SPY", Window: 2})
	// Daily bars from Jan 4: Jan 31 is index 27.
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 10 + float64(i)*0.1 // rising: close > SMA
	}
	r := newReplay(t, s, closes...)

	for i := 0; i < len(closes); i++ {
		intents := r.step(i)
		if r.frame.Date(i).Format("2006-01-02") == "2021-01-31" {
			require.Len(t, intents, 1, "buys on the month's last trading day")
			assert.Equal(t, broker.Buy, intents[0].Side)
		} else {
			assert.Empty(t, intents, "index %d is not month-end", i)
		}
	}
}

func TestSMAMonthEndExitsBelowAverage(t *testing.T) {
	s := NewSMAMonthEnd(Params{Instrument: "SPY", Window: 2})
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 20 - float64(i)*0.1 // falling: close < SMA
	}
	r := newReplay(t, s, closes...)
	r.acct.shares["SPY"] = 40

	var sells int
	for i := 0; i < len(closes); i++ {
		for _, in := range r.step(i) {
			require.Equal(t, broker.Sell, in.Side)
			assert.Equal(t, int64(40), in.Quantity)
			sells++
			s.OnOrderEvent(terminal("SPY", broker.Completed))
			r.acct.shares["SPY"] = 0
		}
	}
	assert.Equal(t, 1, sells)
}

func TestBollingerBreakout(t *testing.T) {
	s := NewBollingerBreakout(Params{Instrument: "SPY", Window: 4, BandWidth: 0.5})
	// Flat prices, then a drop through the lower band. The drop bar is
	// itself part of the band window, so it must breach by more than the
	// stddev it introduces.
	r := newReplay(t, s, 10, 10, 10, 10, 9)

	for i := 0; i < 4; i++ {
		assert.Empty(t, r.step(i))
	}
	intents := r.step(4)
	require.Len(t, intents, 1)
	assert.Equal(t, broker.Buy, intents[0].Side)
}

func TestBollingerExitAboveUpper(t *testing.T) {
	s := NewBollingerBreakout(Params{Instrument: "SPY", Window: 4, BandWidth: 0.5})
	r := newReplay(t, s, 10, 10, 10, 10, 12)
	r.acct.shares["SPY"] = 10

	for i := 0; i < 4; i++ {
		assert.Empty(t, r.step(i))
	}
	intents := r.step(4)
	require.Len(t, intents, 1)
	assert.Equal(t, broker.Sell, intents[0].Side)
	assert.Equal(t, int64(10), intents[0].Quantity)
}

func TestDouble7TrendFilterBlocksEntry(t *testing.T) {
	s := NewDouble7(Params{Instrument: "SPY", Window: 2, TrendWindow: 3})
	// Falling prices: every bar is a fresh low, but below the trend SMA.
	r := newReplay(t, s, 12, 11, 10, 9, 8)
	for i := 0; i < 5; i++ {
		assert.Empty(t, r.step(i), "index %d", i)
	}
}

func TestDouble7BuysFreshLowInUptrend(t *testing.T) {
	s := NewDouble7(Params{Instrument: "SPY", Window: 2, TrendWindow: 3})
	// Uptrend with a dip: bar 4 (10.5) is above SMA(3) of the last three
	// closes but is a fresh 2-day low.
	r := newReplay(t, s, 9, 9.2, 9.4, 11, 10.5)

	var buys int
	for i := 0; i < 5; i++ {
		for _, in := range r.step(i) {
			assert.Equal(t, broker.Buy, in.Side)
			buys++
		}
	}
	assert.Equal(t, 1, buys)
}

func TestRSI2EnterAndExit(t *testing.T) {
	s := NewRSI2(Params{
		Instrument:  "SPY",
		TrendWindow: 3,
		ExitWindow:  2,
		RSIPeriod:   2,
		Oversold:    85,
	})
	// Uptrend, one pullback bar that drags RSI(2) to ~83 while the close
	// stays above the trend average, then a recovery bar that crosses
	// back above the exit average.
	closes := []float64{10, 10.5, 11, 10.9, 11.5}
	r := newReplay(t, s, closes...)

	var entryIdx = -1
	for i := 0; i < len(closes); i++ {
		intents := r.step(i)
		if len(intents) == 1 && intents[0].Side == broker.Buy {
			entryIdx = i
			s.OnOrderEvent(terminal("SPY", broker.Completed))
			r.acct.shares["SPY"] = 30
		}
		if len(intents) == 1 && intents[0].Side == broker.Sell {
			assert.Equal(t, int64(30), intents[0].Quantity)
			assert.Greater(t, i, entryIdx)
			return
		}
	}
	t.Fatalf("expected an entry then an exit; entry index %d", entryIdx)
}
