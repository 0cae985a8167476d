package backtest

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// WriteText prints a human-readable run report.
func WriteText(w io.Writer, r *Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	fmt.Fprintf(w, "Instruments:   %s\n", strings.Join(r.Instruments, ", "))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.DateOnly))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.DateOnly))
	fmt.Fprintf(w, "Bars:          %d\n", r.Bars)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Cash:    %.2f\n", r.StartingCash)
	fmt.Fprintf(w, "Final Cash:    %.2f\n", r.FinalCash)
	fmt.Fprintf(w, "Final Equity:  %.2f\n", r.FinalEquity)
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.CumulativeReturn*100)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", r.MaxDrawdown*100)
	fmt.Fprintf(w, "DD Duration:   %d bars\n", r.DrawdownDuration)
	if r.Sharpe.Defined {
		fmt.Fprintf(w, "Sharpe:        %.2f\n", r.Sharpe.Value)
	} else {
		fmt.Fprintln(w, "Sharpe:        n/a")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Closed Trades: %d\n", r.TradeCount)
	fmt.Fprintf(w, "Realized P/L:  %.2f\n", r.RealizedNetPNL)
	if r.TradeCount > 0 {
		fmt.Fprintf(w, "Wins:          %d\n", r.Trades.Profitable.Count)
		fmt.Fprintf(w, "Losses:        %d\n", r.Trades.Unprofitable.Count)
		fmt.Fprintf(w, "Win Rate:      %.2f%%\n",
			float64(r.Trades.Profitable.Count)/float64(r.TradeCount)*100)
		fmt.Fprintf(w, "Avg Net P/L:   %.2f\n", r.Trades.All.NetPNL.Mean)
		fmt.Fprintf(w, "Avg Return:    %.2f%%\n", r.Trades.All.Returns.Mean*100)
	}

	if len(r.Unrealized) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Open Positions (unrealized)")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, p := range r.Unrealized {
			fmt.Fprintf(w, "%-10s %6d @ %.4f  mark %.4f  P/L %.2f\n",
				p.Instrument, p.Quantity, p.AvgEntryPrice, p.MarkPrice, p.PNL)
		}
	}

	fmt.Fprintln(w)
}
