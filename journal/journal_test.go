package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() (RunRecord, TradeRecord, EquityRecord) {
	created := time.Date(2022, 3, 11, 12, 0, 0, 0, time.UTC)
	entry := time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC)
	exit := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

	run := RunRecord{
		RunID:        "run-1",
		Created:      created,
		Strategy:     "bollinger",
		Instruments:  "SPY",
		Start:        entry,
		End:          exit,
		StartingCash: 10000,
		FinalEquity:  10500,
		Return:       0.05,
		MaxDrawdown:  0.02,
		Sharpe:       1.3,
		Trades:       1,
	}
	trade := TradeRecord{
		RunID:      "run-1",
		TradeID:    "trade-1",
		Instrument: "SPY",
		Quantity:   25,
		EntryDate:  entry,
		ExitDate:   exit,
		EntryPrice: 380,
		ExitPrice:  400,
		PNLGross:   500,
		PNLNet:     480.5,
		Commission: 19.5,
	}
	eq := EquityRecord{
		RunID:         "run-1",
		Date:          entry,
		Cash:          500,
		PositionValue: 9500,
		Equity:        10000,
	}
	return run, trade, eq
}

func TestSQLiteRoundTrip(t *testing.T) {
	j, err := NewSQLite(filepath.Join(t.TempDir(), "backtests.sqlite"))
	require.NoError(t, err)
	defer j.Close()

	run, trade, eq := sampleRecords()
	require.NoError(t, j.RecordRun(run))
	require.NoError(t, j.RecordTrade(trade))
	require.NoError(t, j.RecordEquity(eq))

	got, err := j.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, run.Strategy, got.Strategy)
	assert.InDelta(t, run.Return, got.Return, 1e-12)
	assert.Equal(t, run.Trades, got.Trades)

	trades, err := j.ListTrades("run-1")
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(25), trades[0].Quantity)
	assert.InDelta(t, 480.5, trades[0].PNLNet, 1e-12)

	curve, err := j.ListEquity("run-1")
	require.NoError(t, err)
	require.Len(t, curve, 1)
	assert.InDelta(t, 10000, curve[0].Equity, 1e-12)
}

func TestSQLiteUnknownRun(t *testing.T) {
	j, err := NewSQLite(filepath.Join(t.TempDir(), "backtests.sqlite"))
	require.NoError(t, err)
	defer j.Close()

	_, err = j.GetRun("missing")
	require.Error(t, err)
}

func TestCSVWritesRows(t *testing.T) {
	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)

	run, trade, eq := sampleRecords()
	require.NoError(t, j.RecordRun(run))
	require.NoError(t, j.RecordTrade(trade))
	require.NoError(t, j.RecordEquity(eq))
	require.NoError(t, j.Close())

	trades, err := os.ReadFile(tradesPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(trades)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "pnl_net")
	assert.Contains(t, lines[1], "trade-1")
	assert.Contains(t, lines[1], "480.5")

	equity, err := os.ReadFile(equityPath)
	require.NoError(t, err)
	assert.Contains(t, string(equity), "2021-02-01")
}

func TestNopJournal(t *testing.T) {
	var j Journal = Nop{}
	run, trade, eq := sampleRecords()
	require.NoError(t, j.RecordRun(run))
	require.NoError(t, j.RecordTrade(trade))
	require.NoError(t, j.RecordEquity(eq))
	require.NoError(t, j.Close())
}
