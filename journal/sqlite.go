package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, strategy, instruments, start_date, end_date,
		 starting_cash, final_equity, return_pct, max_drawdown, sharpe, trades)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Strategy, r.Instruments, r.Start, r.End,
		r.StartingCash, r.FinalEquity, r.Return, r.MaxDrawdown, r.Sharpe, r.Trades,
	)
	return err
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, instrument, quantity, entry_date, exit_date,
		 entry_price, exit_price, pnl_gross, pnl_net, commission)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.RunID, t.Instrument, t.Quantity, t.EntryDate, t.ExitDate,
		t.EntryPrice, t.ExitPrice, t.PNLGross, t.PNLNet, t.Commission,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquityRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, date, cash, position_value, equity)
		VALUES (?, ?, ?, ?, ?)`,
		e.RunID, e.Date, e.Cash, e.PositionValue, e.Equity,
	)
	return err
}

// GetRun returns a run summary by ID.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	var r RunRecord
	row := j.db.QueryRow(`
		SELECT run_id, created, strategy, instruments, start_date, end_date,
		       starting_cash, final_equity, return_pct, max_drawdown, sharpe, trades
		FROM runs WHERE run_id = ?`, runID)
	err := row.Scan(
		&r.RunID, &r.Created, &r.Strategy, &r.Instruments, &r.Start, &r.End,
		&r.StartingCash, &r.FinalEquity, &r.Return, &r.MaxDrawdown, &r.Sharpe, &r.Trades,
	)
	if err == sql.ErrNoRows {
		return RunRecord{}, fmt.Errorf("run %q not found", runID)
	}
	return r, err
}

// ListTrades returns a run's closed trades in exit order.
func (j *SQLite) ListTrades(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, run_id, instrument, quantity, entry_date, exit_date,
		       entry_price, exit_price, pnl_gross, pnl_net, commission
		FROM trades WHERE run_id = ? ORDER BY exit_date ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(
			&t.TradeID, &t.RunID, &t.Instrument, &t.Quantity, &t.EntryDate, &t.ExitDate,
			&t.EntryPrice, &t.ExitPrice, &t.PNLGross, &t.PNLNet, &t.Commission,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListEquity returns a run's equity curve in date order.
func (j *SQLite) ListEquity(runID string) ([]EquityRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, date, cash, position_value, equity
		FROM equity WHERE run_id = ? ORDER BY date ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityRecord
	for rows.Next() {
		var e EquityRecord
		if err := rows.Scan(&e.RunID, &e.Date, &e.Cash, &e.PositionValue, &e.Equity); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
