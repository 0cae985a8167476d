package strategies

import (
	"github.com/rustyeddy/backtester/broker"
	"github.com/rustyeddy/backtester/indicators"
)

// VIX10 trades one instrument while reading a second as a volatility
// filter. On the last trading day of each month, while the close is
// above a long moving average, it buys when the filter index closes more
// than 5% above its own short moving average; it exits once the filter
// falls back below that threshold. Entries commit half the buffered
// cash. Days where either instrument did not trade are skipped.
type VIX10 struct {
	tracker
	instrument string
	filter     string
	buffer     float64
	ratio      float64
	trend      *indicators.SMA
	filterSMA  *indicators.SMA
}

func NewVIX10(p Params) *VIX10 {
	trend := p.TrendWindow
	if trend <= 0 {
		trend = 200
	}
	window := p.Window
	if window <= 0 {
		window = 10
	}
	ratio := p.FilterRatio
	if ratio <= 0 {
		ratio = 1.05
	}
	return &VIX10{
		instrument: p.Instrument,
		filter:     p.Filter,
		buffer:     p.buffer(),
		ratio:      ratio,
		trend:      indicators.NewSMA(trend),
		filterSMA:  indicators.NewSMA(window),
	}
}

func (s *VIX10) Name() string { return "vix10" }

func (s *VIX10) Bindings() []IndicatorBinding {
	return []IndicatorBinding{
		{Instrument: s.instrument, Indicator: s.trend},
		{Instrument: s.filter, Indicator: s.filterSMA},
	}
}

func (s *VIX10) OnBars(ctx *Context) []broker.OrderIntent {
	b, ok := ctx.Bars.Bar(s.instrument)
	if !ok {
		return nil
	}
	fb, ok := ctx.Bars.Bar(s.filter)
	if !ok || !s.trend.Ready() || !s.filterSMA.Ready() || s.gate.Blocked() {
		return nil
	}
	if ctx.Calendar == nil || !ctx.Calendar.IsLastOfMonth(ctx.Date) {
		return nil
	}

	close := b.AdjClose
	elevated := fb.AdjClose > s.filterSMA.Value()*s.ratio
	held := ctx.Account.Shares(s.instrument)

	switch {
	case held == 0 && elevated && close > s.trend.Value():
		s.gate.Sent()
		return []broker.OrderIntent{{
			Instrument:   s.instrument,
			Side:         broker.Buy,
			CashFraction: s.buffer / 2,
		}}
	case held > 0 && !elevated:
		s.gate.Sent()
		return []broker.OrderIntent{{
			Instrument: s.instrument,
			Side:       broker.Sell,
			Quantity:   held,
		}}
	}
	return nil
}
