package indicators

import (
	"fmt"

	"github.com/rustyeddy/backtester/market"
)

// RSI is Wilder's Relative Strength Index over adjusted closes. The first
// average gain/loss is a simple mean over the first `period` changes;
// after that, averages use Wilder smoothing:
//
//	avg = (prev·(period-1) + current) / period
//
// Ready after period+1 bars (a change needs two closes). When the average
// loss over the window is exactly 0, RSI is 100.
type RSI struct {
	period  int
	field   Field
	prev    float64
	havePre bool
	seen    int // changes consumed
	sumGain float64
	sumLoss float64
	avgGain float64
	avgLoss float64
}

func NewRSI(period int) *RSI {
	if period <= 0 {
		panic(fmt.Sprintf("indicators: RSI period must be positive, got %d", period))
	}
	return &RSI{period: period, field: FieldAdjClose}
}

func (r *RSI) Name() string { return fmt.Sprintf("RSI(%d)", r.period) }

func (r *RSI) Warmup() int { return r.period + 1 }

func (r *RSI) Reset() {
	*r = RSI{period: r.period, field: r.field}
}

func (r *RSI) Update(b market.Bar) {
	v := r.field.of(b)
	if !r.havePre {
		r.prev = v
		r.havePre = true
		return
	}

	change := v - r.prev
	r.prev = v
	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	r.seen++
	switch {
	case r.seen < r.period:
		r.sumGain += gain
		r.sumLoss += loss
	case r.seen == r.period:
		r.sumGain += gain
		r.sumLoss += loss
		r.avgGain = r.sumGain / float64(r.period)
		r.avgLoss = r.sumLoss / float64(r.period)
	default:
		n := float64(r.period)
		r.avgGain = (r.avgGain*(n-1) + gain) / n
		r.avgLoss = (r.avgLoss*(n-1) + loss) / n
	}
}

func (r *RSI) Ready() bool { return r.seen >= r.period }

func (r *RSI) Value() float64 {
	if !r.Ready() {
		return 0
	}
	if r.avgLoss == 0 {
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}
