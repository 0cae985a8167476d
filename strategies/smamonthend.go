package strategies

import (
	"github.com/rustyeddy/backtester/broker"
	"github.com/rustyeddy/backtester/indicators"
)

// SMAMonthEnd trades only on the last trading day of each month: long
// while the close is above a long moving average, flat while below.
type SMAMonthEnd struct {
	tracker
	instrument string
	buffer     float64
	sma        *indicators.SMA
}

func NewSMAMonthEnd(p Params) *SMAMonthEnd {
	window := p.Window
	if window <= 0 {
		window = 200
	}
	return &SMAMonthEnd{
		instrument: p.Instrument,
		buffer:     p.buffer(),
		sma:        indicators.NewSMA(window),
	}
}

func (s *SMAMonthEnd) Name() string { return "sma-monthend" }

func (s *SMAMonthEnd) Bindings() []IndicatorBinding {
	return []IndicatorBinding{{Instrument: s.instrument, Indicator: s.sma}}
}

func (s *SMAMonthEnd) OnBars(ctx *Context) []broker.OrderIntent {
	b, ok := ctx.Bars.Bar(s.instrument)
	if !ok || !s.sma.Ready() || s.gate.Blocked() {
		return nil
	}
	if ctx.Calendar == nil || !ctx.Calendar.IsLastOfMonth(ctx.Date) {
		return nil
	}

	close := b.AdjClose
	held := ctx.Account.Shares(s.instrument)

	switch {
	case held == 0 && close > s.sma.Value():
		s.gate.Sent()
		return []broker.OrderIntent{{
			Instrument:   s.instrument,
			Side:         broker.Buy,
			CashFraction: s.buffer,
		}}
	case held > 0 && close < s.sma.Value():
		s.gate.Sent()
		return []broker.OrderIntent{{
			Instrument: s.instrument,
			Side:       broker.Sell,
			Quantity:   held,
		}}
	}
	return nil
}
