// Package indicators provides streaming technical indicators over bar
// series. All indicators are pure functions of the bars fed to them, hold
// O(window) state, and are recomputable from the series alone.
package indicators

import "github.com/rustyeddy/backtester/market"

// Indicator computes a streaming value from bars. Values are undefined
// until Ready() — callers must check Ready() and treat an unready
// indicator as "no signal available this step".
type Indicator interface {
	// Name returns a stable identifier like "SMA(200)" or "RSI(2)".
	Name() string

	// Warmup returns how many bars are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closed bar.
	Update(b market.Bar)

	// Ready reports whether Value() is meaningful.
	Ready() bool
}

// Valuer is implemented by indicators exposing a single float value.
type Valuer interface {
	Value() float64
}

// Field selects which bar price an indicator consumes. Adjusted close is
// the default everywhere, matching adjusted-value backtests.
type Field int

const (
	FieldAdjClose Field = iota
	FieldClose
	FieldOpen
	FieldHigh
	FieldLow
)

func (f Field) of(b market.Bar) float64 {
	switch f {
	case FieldClose:
		return b.Close
	case FieldOpen:
		return b.Open
	case FieldHigh:
		return b.High
	case FieldLow:
		return b.Low
	default:
		return b.AdjClose
	}
}

// window is a fixed-size rolling buffer shared by the windowed indicators.
type window struct {
	size  int
	vals  []float64
	head  int
	count int
}

func newWindow(size int) window {
	return window{size: size, vals: make([]float64, size)}
}

func (w *window) push(v float64) (evicted float64, full bool) {
	full = w.count == w.size
	if full {
		evicted = w.vals[w.head]
	}
	w.vals[w.head] = v
	w.head = (w.head + 1) % w.size
	if !full {
		w.count++
	}
	return evicted, full
}

func (w *window) reset() {
	w.head = 0
	w.count = 0
}

func (w *window) ready() bool { return w.count == w.size }

// each visits the buffered values, oldest first.
func (w *window) each(fn func(v float64)) {
	start := w.head - w.count
	if start < 0 {
		start += w.size
	}
	for i := 0; i < w.count; i++ {
		fn(w.vals[(start+i)%w.size])
	}
}
