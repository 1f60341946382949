package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	trade_log TEXT NOT NULL,
	bar_size TEXT NOT NULL,
	origin DATETIME NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	instruments TEXT NOT NULL,
	events INTEGER NOT NULL,
	fictitious_dropped INTEGER NOT NULL,
	bars INTEGER NOT NULL,
	final_equity REAL NOT NULL,
	final_realized REAL NOT NULL,
	min_equity REAL NOT NULL,
	max_equity REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	max_drawdown_pct REAL NOT NULL,
	total_commission REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	cash_no_commission REAL NOT NULL,
	cumulative_commission REAL NOT NULL,
	cash_net REAL NOT NULL,
	value_open REAL NOT NULL,
	value_high REAL NOT NULL,
	value_low REAL NOT NULL,
	value_close REAL NOT NULL,
	equity_open REAL NOT NULL,
	equity_high REAL NOT NULL,
	equity_low REAL NOT NULL,
	equity_close REAL NOT NULL,
	realized_profit REAL NOT NULL,
	PRIMARY KEY (run_id, time)
);

CREATE TABLE IF NOT EXISTS positions (
	run_id TEXT NOT NULL,
	instrument TEXT NOT NULL,
	time DATETIME NOT NULL,
	quantity REAL NOT NULL,
	cash_no_commission REAL NOT NULL,
	cumulative_commission REAL NOT NULL,
	cash_net REAL NOT NULL,
	value_open REAL NOT NULL,
	value_high REAL NOT NULL,
	value_low REAL NOT NULL,
	value_close REAL NOT NULL,
	equity_open REAL NOT NULL,
	equity_high REAL NOT NULL,
	equity_low REAL NOT NULL,
	equity_close REAL NOT NULL,
	realized_profit REAL NOT NULL,
	PRIMARY KEY (run_id, instrument, time)
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	instrument TEXT NOT NULL,
	kind TEXT NOT NULL,
	time DATETIME NOT NULL,
	bar INTEGER NOT NULL,
	quantity REAL NOT NULL,
	price REAL NOT NULL,
	commission REAL NOT NULL,
	signal TEXT NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_trades_instrument ON trades(run_id, instrument);
`
