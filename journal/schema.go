package journal

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	instruments TEXT NOT NULL,
	start_date DATETIME NOT NULL,
	end_date DATETIME NOT NULL,
	starting_cash REAL NOT NULL,
	final_equity REAL NOT NULL,
	return_pct REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	sharpe REAL NOT NULL,
	trades INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	instrument TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	entry_date DATETIME NOT NULL,
	exit_date DATETIME NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	pnl_gross REAL NOT NULL,
	pnl_net REAL NOT NULL,
	commission REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	date DATETIME NOT NULL,
	cash REAL NOT NULL,
	position_value REAL NOT NULL,
	equity REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);
CREATE INDEX IF NOT EXISTS idx_equity_run ON equity(run_id, date);
`
