package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/backtester/market"
)

// RollingExtreme tracks the max or min of the last `period` values. The
// current bar is included in the window, so on a new N-period low the
// current value equals Value().
type RollingExtreme struct {
	period int
	field  Field
	high   bool
	win    window
}

// NewRollingHigh tracks the rolling maximum of the given field.
func NewRollingHigh(period int, field Field) *RollingExtreme {
	return newExtreme(period, field, true)
}

// NewRollingLow tracks the rolling minimum of the given field.
func NewRollingLow(period int, field Field) *RollingExtreme {
	return newExtreme(period, field, false)
}

func newExtreme(period int, field Field, high bool) *RollingExtreme {
	if period <= 0 {
		panic(fmt.Sprintf("indicators: rolling extreme period must be positive, got %d", period))
	}
	return &RollingExtreme{period: period, field: field, high: high, win: newWindow(period)}
}

func (r *RollingExtreme) Name() string {
	if r.high {
		return fmt.Sprintf("High(%d)", r.period)
	}
	return fmt.Sprintf("Low(%d)", r.period)
}

func (r *RollingExtreme) Warmup() int { return r.period }

func (r *RollingExtreme) Reset() { r.win.reset() }

func (r *RollingExtreme) Update(b market.Bar) {
	r.win.push(r.field.of(b))
}

func (r *RollingExtreme) Ready() bool { return r.win.ready() }

// Value scans the O(window) buffer; windows here are short (7, 20, 55).
func (r *RollingExtreme) Value() float64 {
	if !r.Ready() {
		return 0
	}
	best := math.Inf(-1)
	if !r.high {
		best = math.Inf(1)
	}
	r.win.each(func(v float64) {
		if r.high {
			best = math.Max(best, v)
		} else {
			best = math.Min(best, v)
		}
	})
	return best
}
