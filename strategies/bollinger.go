package strategies

import (
	"github.com/rustyeddy/backtester/broker"
	"github.com/rustyeddy/backtester/indicators"
)

// BollingerBreakout buys a close below the lower band and exits on a
// close above the upper band.
type BollingerBreakout struct {
	tracker
	instrument string
	buffer     float64
	bands      *indicators.Bollinger
}

func NewBollingerBreakout(p Params) *BollingerBreakout {
	window := p.Window
	if window <= 0 {
		window = 40
	}
	return &BollingerBreakout{
		instrument: p.Instrument,
		buffer:     p.buffer(),
		bands:      indicators.NewBollinger(window, p.BandWidth),
	}
}

func (s *BollingerBreakout) Name() string { return "bollinger" }

func (s *BollingerBreakout) Bindings() []IndicatorBinding {
	return []IndicatorBinding{{Instrument: s.instrument, Indicator: s.bands}}
}

func (s *BollingerBreakout) OnBars(ctx *Context) []broker.OrderIntent {
	b, ok := ctx.Bars.Bar(s.instrument)
	if !ok || !s.bands.Ready() || s.gate.Blocked() {
		return nil
	}

	close := b.AdjClose
	held := ctx.Account.Shares(s.instrument)

	switch {
	case held == 0 && close < s.bands.Lower():
		s.gate.Sent()
		return []broker.OrderIntent{{
			Instrument:   s.instrument,
			Side:         broker.Buy,
			CashFraction: s.buffer,
		}}
	case held > 0 && close > s.bands.Upper():
		s.gate.Sent()
		return []broker.OrderIntent{{
			Instrument: s.instrument,
			Side:       broker.Sell,
			Quantity:   held,
		}}
	}
	return nil
}
