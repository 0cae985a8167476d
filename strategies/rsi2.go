package strategies

import (
	"github.com/rustyeddy/backtester/broker"
	"github.com/rustyeddy/backtester/indicators"
)

// RSI2 is a mean-reversion entry with a momentum exit: enter long when
// the price is above a long moving average and a short RSI is at or
// below the oversold threshold; exit when the price crosses above a
// short moving average.
type RSI2 struct {
	tracker
	instrument string
	buffer     float64
	oversold   float64

	entryMA *indicators.SMA
	exitMA  *indicators.SMA
	rsi     *indicators.RSI

	prevClose  float64
	prevExitMA float64
	havePrev   bool
}

func NewRSI2(p Params) *RSI2 {
	entry := p.TrendWindow
	if entry <= 0 {
		entry = 200
	}
	exit := p.ExitWindow
	if exit <= 0 {
		exit = 5
	}
	period := p.RSIPeriod
	if period <= 0 {
		period = 2
	}
	oversold := p.Oversold
	if oversold <= 0 {
		oversold = 10
	}
	return &RSI2{
		instrument: p.Instrument,
		buffer:     p.buffer(),
		oversold:   oversold,
		entryMA:    indicators.NewSMA(entry),
		exitMA:     indicators.NewSMA(exit),
		rsi:        indicators.NewRSI(period),
	}
}

func (s *RSI2) Name() string { return "rsi2" }

func (s *RSI2) Bindings() []IndicatorBinding {
	return []IndicatorBinding{
		{Instrument: s.instrument, Indicator: s.entryMA},
		{Instrument: s.instrument, Indicator: s.exitMA},
		{Instrument: s.instrument, Indicator: s.rsi},
	}
}

func (s *RSI2) OnBars(ctx *Context) []broker.OrderIntent {
	b, ok := ctx.Bars.Bar(s.instrument)
	if !ok || !s.entryMA.Ready() || !s.exitMA.Ready() || !s.rsi.Ready() {
		return nil
	}

	close := b.AdjClose
	exitMA := s.exitMA.Value()

	// A cross needs last bar's relation to last bar's average.
	crossedAbove := s.havePrev && s.prevClose <= s.prevExitMA && close > exitMA
	s.prevClose = close
	s.prevExitMA = exitMA
	s.havePrev = true

	if s.gate.Blocked() {
		return nil
	}
	held := ctx.Account.Shares(s.instrument)

	switch {
	case held > 0 && crossedAbove:
		s.gate.Sent()
		return []broker.OrderIntent{{
			Instrument: s.instrument,
			Side:       broker.Sell,
			Quantity:   held,
		}}
	case held == 0 && close > s.entryMA.Value() && s.rsi.Value() <= s.oversold:
		s.gate.Sent()
		return []broker.OrderIntent{{
			Instrument:   s.instrument,
			Side:         broker.Buy,
			CashFraction: s.buffer,
		}}
	}
	return nil
}
