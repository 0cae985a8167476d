package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/backtester/market"
)

// Bollinger maintains SMA ± k·stddev bands over the last `period`
// adjusted closes. Stddev is the sample standard deviation.
type Bollinger struct {
	period int
	k      float64
	sma    *SMA
}

// NewBollinger builds bands with the given width multiplier; k defaults
// to 2 when non-positive.
func NewBollinger(period int, k float64) *Bollinger {
	if k <= 0 {
		k = 2
	}
	return &Bollinger{period: period, k: k, sma: NewSMA(period)}
}

func (b *Bollinger) Name() string { return fmt.Sprintf("BBands(%d,%g)", b.period, b.k) }

func (b *Bollinger) Warmup() int { return b.period }

func (b *Bollinger) Reset() { b.sma.Reset() }

func (b *Bollinger) Update(bar market.Bar) { b.sma.Update(bar) }

func (b *Bollinger) Ready() bool { return b.sma.Ready() }

// Value returns the middle band (the SMA).
func (b *Bollinger) Value() float64 { return b.sma.Value() }

func (b *Bollinger) Upper() float64 {
	if !b.Ready() {
		return 0
	}
	return b.sma.Value() + b.k*b.stddev()
}

func (b *Bollinger) Lower() float64 {
	if !b.Ready() {
		return 0
	}
	return b.sma.Value() - b.k*b.stddev()
}

func (b *Bollinger) stddev() float64 {
	if b.period < 2 {
		return 0
	}
	mean := b.sma.Value()
	var ss float64
	b.sma.win.each(func(v float64) {
		d := v - mean
		ss += d * d
	})
	return math.Sqrt(ss / float64(b.period-1))
}
