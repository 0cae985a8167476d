package journal

import (
	"encoding/csv"
	"os"
	"strconv"
)

// CSV writes trades and the equity curve to two flat files. Run
// summaries have no natural CSV shape and are dropped; use the SQLite
// journal when summaries matter.
type CSV struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSV, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	ew := csv.NewWriter(ef)

	if err := tw.Write([]string{
		"run_id", "trade_id", "instrument", "quantity", "entry_date", "exit_date",
		"entry_price", "exit_price", "pnl_gross", "pnl_net", "commission",
	}); err != nil {
		return nil, err
	}
	if err := ew.Write([]string{"run_id", "date", "cash", "position_value", "equity"}); err != nil {
		return nil, err
	}
	tw.Flush()
	ew.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	if err := ew.Error(); err != nil {
		return nil, err
	}

	return &CSV{trades: tw, equity: ew, tf: tf, ef: ef}, nil
}

func (j *CSV) RecordRun(RunRecord) error { return nil }

func (j *CSV) RecordTrade(t TradeRecord) error {
	if err := j.trades.Write([]string{
		t.RunID,
		t.TradeID,
		t.Instrument,
		strconv.FormatInt(t.Quantity, 10),
		t.EntryDate.Format("2006-01-02"),
		t.ExitDate.Format("2006-01-02"),
		f(t.EntryPrice),
		f(t.ExitPrice),
		f(t.PNLGross),
		f(t.PNLNet),
		f(t.Commission),
	}); err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSV) RecordEquity(e EquityRecord) error {
	if err := j.equity.Write([]string{
		e.RunID,
		e.Date.Format("2006-01-02"),
		f(e.Cash),
		f(e.PositionValue),
		f(e.Equity),
	}); err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSV) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}
	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
