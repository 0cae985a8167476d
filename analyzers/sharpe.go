package analyzers

import (
	"math"
	"time"
)

// SharpeResult is the annualized risk-adjusted return. Defined is false
// when the return stddev is zero or fewer than two periods were seen;
// Value is 0 in that case rather than NaN.
type SharpeResult struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// Sharpe accumulates per-period returns equity[i]/equity[i-1] - 1 and
// annualizes by sqrt(periods per year).
type Sharpe struct {
	nopTrades
	nopFinalize

	riskFree       float64
	periodsPerYear float64

	prev     float64
	havePrev bool
	n        int
	sum      float64
	sumSq    float64
}

// NewSharpe takes the annual risk-free rate and the number of return
// periods per year (252 for daily bars).
func NewSharpe(riskFree float64, periodsPerYear int) *Sharpe {
	if periodsPerYear <= 0 {
		periodsPerYear = 252
	}
	return &Sharpe{riskFree: riskFree, periodsPerYear: float64(periodsPerYear)}
}

func (s *Sharpe) Name() string { return "sharpe" }

func (s *Sharpe) OnEquity(_ time.Time, equity float64) {
	if !s.havePrev {
		s.prev = equity
		s.havePrev = true
		return
	}
	ret := equity/s.prev - 1
	s.prev = equity

	s.n++
	s.sum += ret
	s.sumSq += ret * ret
}

// Result computes the annualized Sharpe ratio from the accumulated
// moments. Sample (n-1) standard deviation.
func (s *Sharpe) Result() SharpeResult {
	if s.n < 2 {
		return SharpeResult{}
	}

	n := float64(s.n)
	mean := s.sum / n
	variance := (s.sumSq - n*mean*mean) / (n - 1)
	if variance <= 0 {
		return SharpeResult{}
	}
	std := math.Sqrt(variance)

	excess := mean - s.riskFree/s.periodsPerYear
	return SharpeResult{
		Value:   excess / std * math.Sqrt(s.periodsPerYear),
		Defined: true,
	}
}
