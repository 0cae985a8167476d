package market

import (
	"errors"
	"fmt"
	"math"
)

// ErrData marks malformed bar data: out-of-order or duplicate dates,
// non-finite or non-positive prices. A load that returns ErrData must
// abort the run before any broker or engine state exists.
var ErrData = errors.New("bad bar data")

// BarSeries is an ordered, immutable sequence of bars for one instrument.
// Index order equals chronological order.
type BarSeries struct {
	instrument string
	bars       []Bar
}

// LoadSeries validates rows and builds a BarSeries. It fails with an
// ErrData-wrapped error if dates are not strictly increasing or any price
// field is non-finite or <= 0.
func LoadSeries(instrument string, bars []Bar) (*BarSeries, error) {
	if instrument == "" {
		return nil, fmt.Errorf("%w: empty instrument", ErrData)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s: no bars", ErrData, instrument)
	}

	out := make([]Bar, len(bars))
	for i, b := range bars {
		if b.Instrument == "" {
			b.Instrument = instrument
		}
		if b.Instrument != instrument {
			return nil, fmt.Errorf("%w: %s: bar %d belongs to %q", ErrData, instrument, i, b.Instrument)
		}
		if b.Date.IsZero() {
			return nil, fmt.Errorf("%w: %s: bar %d has zero date", ErrData, instrument, i)
		}
		if i > 0 && !b.Date.After(out[i-1].Date) {
			return nil, fmt.Errorf("%w: %s: bar %d date %s not after %s",
				ErrData, instrument, i, b.DateKey(), out[i-1].DateKey())
		}
		for _, p := range []float64{b.Open, b.High, b.Low, b.Close, b.AdjClose} {
			if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
				return nil, fmt.Errorf("%w: %s: bar %d (%s) has bad price %v",
					ErrData, instrument, i, b.DateKey(), p)
			}
		}
		out[i] = b
	}

	return &BarSeries{instrument: instrument, bars: out}, nil
}

func (s *BarSeries) Instrument() string { return s.instrument }

func (s *BarSeries) Len() int { return len(s.bars) }

// At returns the bar at replay position i. Panics on a bad index, like a
// slice would.
func (s *BarSeries) At(i int) Bar { return s.bars[i] }

// First and Last bound the series' date range.
func (s *BarSeries) First() Bar { return s.bars[0] }
func (s *BarSeries) Last() Bar  { return s.bars[len(s.bars)-1] }
