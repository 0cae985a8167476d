package strategies

import (
	"github.com/rustyeddy/backtester/broker"
	"github.com/rustyeddy/backtester/indicators"
)

// Double7 is a Donchian-style breakout with a trend filter: while the
// close is above a long moving average, buy a fresh N-day low and exit on
// a fresh N-day high. Both the entry and the exit are gated by the trend
// filter; below the long average the strategy does nothing.
type Double7 struct {
	tracker
	instrument string
	buffer     float64
	trend      *indicators.SMA
	low        *indicators.RollingExtreme
	high       *indicators.RollingExtreme
}

func NewDouble7(p Params) *Double7 {
	window := p.Window
	if window <= 0 {
		window = 7
	}
	trend := p.TrendWindow
	if trend <= 0 {
		trend = 200
	}
	return &Double7{
		instrument: p.Instrument,
		buffer:     p.buffer(),
		trend:      indicators.NewSMA(trend),
		// The original rules roll the extremes over adjusted closes,
		// not intraday highs/lows.
		low:  indicators.NewRollingLow(window, indicators.FieldAdjClose),
		high: indicators.NewRollingHigh(window, indicators.FieldAdjClose),
	}
}

func (s *Double7) Name() string { return "double7" }

func (s *Double7) Bindings() []IndicatorBinding {
	return []IndicatorBinding{
		{Instrument: s.instrument, Indicator: s.trend},
		{Instrument: s.instrument, Indicator: s.low},
		{Instrument: s.instrument, Indicator: s.high},
	}
}

func (s *Double7) OnBars(ctx *Context) []broker.OrderIntent {
	b, ok := ctx.Bars.Bar(s.instrument)
	if !ok || !s.trend.Ready() || !s.low.Ready() || s.gate.Blocked() {
		return nil
	}

	close := b.AdjClose
	if close <= s.trend.Value() {
		return nil
	}
	held := ctx.Account.Shares(s.instrument)

	switch {
	case held == 0 && close <= s.low.Value():
		s.gate.Sent()
		return []broker.OrderIntent{{
			Instrument:   s.instrument,
			Side:         broker.Buy,
			CashFraction: s.buffer,
		}}
	case held > 0 && close >= s.high.Value():
		s.gate.Sent()
		return []broker.OrderIntent{{
			Instrument: s.instrument,
			Side:       broker.Sell,
			Quantity:   held,
		}}
	}
	return nil
}
