// Package strategies defines the strategy contract and the concrete
// trading rules. A strategy reads its indicators (already advanced for
// the current bar by the engine) and broker state, and emits order
// intents; it never mutates broker state directly.
package strategies

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/backtester/broker"
	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

// AccountReader is the read-only broker surface a strategy may consult.
type AccountReader interface {
	Cash() float64
	Shares(instrument string) int64
}

// Context is the per-bar view handed to OnBars.
type Context struct {
	Index    int
	Date     time.Time
	Bars     market.Snapshot
	Account  AccountReader
	Calendar *market.Calendar
}

// IndicatorBinding names an indicator the engine must advance with the
// instrument's bar before each OnBars callback.
type IndicatorBinding struct {
	Instrument string
	Indicator  indicators.Indicator
}

// Strategy is the decision contract. OnBars returns zero or more order
// intents for the engine to submit; fills resolve on the next bar.
// OnOrderEvent and OnTradeClosed deliver the broker's terminal order
// states and closed round-trips, drained by the engine once per bar.
type Strategy interface {
	Name() string
	Bindings() []IndicatorBinding
	OnBars(ctx *Context) []broker.OrderIntent
	OnOrderEvent(ev broker.OrderEvent)
	OnTradeClosed(tr broker.Trade)
}

// orderGate blocks new intents while one is in flight, so a signal that
// persists across the one-bar fill delay is not submitted twice.
type orderGate struct {
	inFlight bool
}

func (g *orderGate) Blocked() bool { return g.inFlight }

func (g *orderGate) Sent() { g.inFlight = true }

func (g *orderGate) Observe(ev broker.OrderEvent) {
	if ev.Order.State.Terminal() {
		g.inFlight = false
	}
}

// tracker supplies the event plumbing shared by the concrete strategies.
type tracker struct {
	gate orderGate
}

func (t *tracker) OnOrderEvent(ev broker.OrderEvent) { t.gate.Observe(ev) }

func (t *tracker) OnTradeClosed(broker.Trade) {}

// Params carries the knobs the CLI and config file expose. Zero values
// mean "use the strategy's default".
type Params struct {
	Instrument  string  `json:"instrument" yaml:"instrument"`
	Buffer      float64 `json:"buffer" yaml:"buffer"`             // fraction of cash per entry
	Window      int     `json:"window" yaml:"window"`             // primary window
	ExitWindow  int     `json:"exit_window" yaml:"exit_window"`   // rsi2 exit SMA
	TrendWindow int     `json:"trend_window" yaml:"trend_window"` // long trend filter SMA
	BandWidth   float64 `json:"band_width" yaml:"band_width"`     // bollinger k
	RSIPeriod   int     `json:"rsi_period" yaml:"rsi_period"`
	Oversold    float64 `json:"oversold" yaml:"oversold"`
	Overbought  float64 `json:"overbought" yaml:"overbought"`
	Filter      string  `json:"filter" yaml:"filter"`             // vix10 filter instrument
	FilterRatio float64 `json:"filter_ratio" yaml:"filter_ratio"` // vix10 threshold vs filter SMA
}

// DefaultBuffer leaves headroom so fills are not margin-rejected by
// commission and whole-share rounding.
const DefaultBuffer = 0.95

func (p Params) buffer() float64 {
	if p.Buffer <= 0 || p.Buffer > 1 {
		return DefaultBuffer
	}
	return p.Buffer
}

// Names lists the registered strategy names for the CLI.
func Names() []string {
	return []string{"buy-hold", "sma-monthend", "bollinger", "double7", "rsi2", "vix10"}
}

// New builds a strategy by name.
func New(name string, p Params) (Strategy, error) {
	if p.Instrument == "" {
		return nil, fmt.Errorf("strategy %q: instrument is required", name)
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "buy-hold", "buyhold":
		return NewBuyAndHold(p), nil
	case "sma-monthend", "sma":
		return NewSMAMonthEnd(p), nil
	case "bollinger", "bbands":
		return NewBollingerBreakout(p), nil
	case "double7", "double-7":
		return NewDouble7(p), nil
	case "rsi2", "rsi-2":
		return NewRSI2(p), nil
	case "vix10", "vix-10":
		if p.Filter == "" {
			return nil, fmt.Errorf("strategy %q: filter instrument is required", name)
		}
		return NewVIX10(p), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
}
