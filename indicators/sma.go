package indicators

import (
	"fmt"

	"github.com/rustyeddy/backtester/market"
)

// SMA is a streaming Simple Moving Average: the arithmetic mean of the
// last `period` values. Not Ready until `period` bars have been seen.
type SMA struct {
	period int
	field  Field
	win    window
	sum    float64
}

// NewSMA builds an SMA over adjusted closes.
func NewSMA(period int) *SMA {
	return NewSMAField(period, FieldAdjClose)
}

// NewSMAField builds an SMA over the given bar field.
func NewSMAField(period int, field Field) *SMA {
	if period <= 0 {
		panic(fmt.Sprintf("indicators: SMA period must be positive, got %d", period))
	}
	return &SMA{period: period, field: field, win: newWindow(period)}
}

func (s *SMA) Name() string { return fmt.Sprintf("SMA(%d)", s.period) }

func (s *SMA) Warmup() int { return s.period }

func (s *SMA) Reset() {
	s.win.reset()
	s.sum = 0
}

func (s *SMA) Update(b market.Bar) {
	v := s.field.of(b)
	evicted, full := s.win.push(v)
	s.sum += v
	if full {
		s.sum -= evicted
	}
}

func (s *SMA) Ready() bool { return s.win.ready() }

func (s *SMA) Value() float64 {
	if !s.Ready() {
		return 0
	}
	return s.sum / float64(s.period)
}
