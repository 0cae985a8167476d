package analyzers

import "time"

// DrawDown tracks the running peak of the equity curve, the maximum
// peak-to-trough decline as a fraction of the peak, and the longest
// contiguous run of bars spent below a prior peak.
type DrawDown struct {
	nopTrades
	nopFinalize

	peak        float64
	max         float64
	current     float64
	curRun      int
	longestRun  int
	seenAnyBars bool
}

func NewDrawDown() *DrawDown { return &DrawDown{} }

func (d *DrawDown) Name() string { return "drawdown" }

func (d *DrawDown) OnEquity(_ time.Time, equity float64) {
	if !d.seenAnyBars || equity > d.peak {
		d.peak = equity
		d.seenAnyBars = true
	}

	d.current = 0
	if d.peak > 0 {
		d.current = (d.peak - equity) / d.peak
	}
	if d.current > d.max {
		d.max = d.current
	}

	if d.current > 0 {
		d.curRun++
		if d.curRun > d.longestRun {
			d.longestRun = d.curRun
		}
	} else {
		d.curRun = 0
	}
}

// Max returns the maximum drawdown in [0, 1]; 0 for a monotonically
// non-decreasing curve.
func (d *DrawDown) Max() float64 { return d.max }

// Current returns the drawdown at the last bar.
func (d *DrawDown) Current() float64 { return d.current }

// LongestDuration returns the longest run of consecutive bars with a
// positive drawdown, in bar count.
func (d *DrawDown) LongestDuration() int { return d.longestRun }
