package backtest

import (
	"encoding/json"
	"time"

	"github.com/rustyeddy/backtester/analyzers"
)

// UnrealizedPosition is a position still open when the replay ends,
// marked at the last seen price. Its P&L is reported separately and is
// never folded into the realized trade statistics.
type UnrealizedPosition struct {
	Instrument    string  `json:"instrument"`
	Quantity      int64   `json:"quantity"`
	AvgEntryPrice float64 `json:"avg_entry_price"`
	MarkPrice     float64 `json:"mark_price"`
	PNL           float64 `json:"pnl"`
}

// Result is the assembled outcome of one replay.
type Result struct {
	RunID       string    `json:"run_id"`
	Strategy    string    `json:"strategy"`
	Instruments []string  `json:"instruments"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Bars        int       `json:"bars"`

	StartingCash float64 `json:"starting_cash"`
	FinalCash    float64 `json:"final_cash"`
	FinalEquity  float64 `json:"final_equity"`

	CumulativeReturn float64                `json:"cumulative_return"`
	MaxDrawdown      float64                `json:"max_drawdown"`
	DrawdownDuration int                    `json:"drawdown_duration_bars"`
	Sharpe           analyzers.SharpeResult `json:"sharpe"`

	TradeCount     int                     `json:"trade_count"`
	RealizedNetPNL float64                 `json:"realized_net_pnl"`
	Trades         analyzers.TradesSummary `json:"trades"`

	Unrealized []UnrealizedPosition `json:"unrealized,omitempty"`
}

// JSON renders the result for machine consumers.
func (r *Result) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
