package strategies

import "github.com/rustyeddy/backtester/broker"

// BuyAndHold enters a full position on the first bar and never exits.
// The open position is reported as unrealized at the end of the replay.
type BuyAndHold struct {
	tracker
	instrument string
	buffer     float64
}

func NewBuyAndHold(p Params) *BuyAndHold {
	return &BuyAndHold{instrument: p.Instrument, buffer: p.buffer()}
}

func (s *BuyAndHold) Name() string { return "buy-hold" }

func (s *BuyAndHold) Bindings() []IndicatorBinding { return nil }

func (s *BuyAndHold) OnBars(ctx *Context) []broker.OrderIntent {
	if _, ok := ctx.Bars.Bar(s.instrument); !ok {
		return nil
	}
	if s.gate.Blocked() || ctx.Account.Shares(s.instrument) > 0 {
		return nil
	}

	s.gate.Sent()
	return []broker.OrderIntent{{
		Instrument:   s.instrument,
		Side:         broker.Buy,
		CashFraction: s.buffer,
	}}
}
