package analyzers

import "time"

// Returns maintains the cumulative return series equity[i]/equity[0] - 1.
type Returns struct {
	nopTrades
	nopFinalize

	first      float64
	haveFirst  bool
	cumulative []float64
}

func NewReturns() *Returns { return &Returns{} }

func (r *Returns) Name() string { return "returns" }

func (r *Returns) OnEquity(_ time.Time, equity float64) {
	if !r.haveFirst {
		r.first = equity
		r.haveFirst = true
	}
	r.cumulative = append(r.cumulative, equity/r.first-1)
}

// Cumulative returns the final cumulative return, 0 before any bar.
func (r *Returns) Cumulative() float64 {
	if len(r.cumulative) == 0 {
		return 0
	}
	return r.cumulative[len(r.cumulative)-1]
}

// Series returns the per-bar cumulative return curve.
func (r *Returns) Series() []float64 {
	out := make([]float64, len(r.cumulative))
	copy(out, r.cumulative)
	return out
}
