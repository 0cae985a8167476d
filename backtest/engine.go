// Package backtest drives the sequential bar replay: advance indicators,
// ask the strategy, submit its intents, resolve fills, record equity.
// One bar at a time, oldest first; nothing sees a future bar.
package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/rustyeddy/backtester/analyzers"
	"github.com/rustyeddy/backtester/broker"
	"github.com/rustyeddy/backtester/internal/id"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategies"
)

// State tracks the engine lifecycle. An engine runs exactly once.
type State int8

const (
	NotStarted State = iota
	Running
	Finished
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// EquitySnapshot is the account state after one replay step.
type EquitySnapshot struct {
	Date          time.Time `json:"date"`
	Cash          float64   `json:"cash"`
	PositionValue float64   `json:"position_value"`
	Equity        float64   `json:"equity"`
}

// Engine wires a frame, a broker, a strategy and the output sinks into
// one replay. Zero-value optional fields pick defaults: a nop journal,
// the frame's own calendar, slog.Default(), and the standard analyzer
// set (returns, drawdown, sharpe, trades).
type Engine struct {
	Frame     *market.Frame
	Broker    *broker.Sim
	Strategy  strategies.Strategy
	Analyzers []analyzers.Analyzer
	Journal   journal.Journal
	Calendar  *market.Calendar
	Logger    *slog.Logger

	state     State
	snapshots []EquitySnapshot
}

// DefaultAnalyzers returns the standard set the engine attaches when none
// are supplied.
func DefaultAnalyzers() []analyzers.Analyzer {
	return []analyzers.Analyzer{
		analyzers.NewReturns(),
		analyzers.NewDrawDown(),
		analyzers.NewSharpe(0, 252),
		analyzers.NewTrades(),
	}
}

// Run replays the frame from the first bar to the last and returns the
// assembled result. The context is only checked between bars; a replay
// step itself is not interruptible.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if e.state != NotStarted {
		return nil, fmt.Errorf("backtest: engine already %s", e.state)
	}
	if e.Frame == nil || e.Broker == nil || e.Strategy == nil {
		return nil, fmt.Errorf("backtest: frame, broker and strategy are required")
	}
	if e.Frame.Len() == 0 {
		return nil, fmt.Errorf("backtest: empty frame")
	}

	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	if e.Journal == nil {
		e.Journal = journal.Nop{}
	}
	if e.Calendar == nil {
		e.Calendar = market.FrameCalendar(e.Frame)
	}
	if len(e.Analyzers) == 0 {
		e.Analyzers = DefaultAnalyzers()
	}
	e.state = Running

	runID := id.New()
	created := time.Now().UTC()
	startCash := e.Broker.Cash()
	bindings := e.Strategy.Bindings()

	e.Logger.Info("replay starting",
		"run", runID, "strategy", e.Strategy.Name(),
		"bars", e.Frame.Len(), "cash", startCash)

	for i := 0; i < e.Frame.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("backtest: aborted at bar %d: %w", i, err)
		}
		if err := e.step(runID, i, bindings); err != nil {
			return nil, err
		}
	}

	// Orders still pending after the last bar never fill.
	e.Broker.CancelOpen("end of replay")
	for _, ev := range e.Broker.DrainEvents() {
		e.Strategy.OnOrderEvent(ev)
	}
	for _, a := range e.Analyzers {
		a.Finalize()
	}

	r := e.buildResult(runID, startCash)
	if err := e.Journal.RecordRun(journal.RunRecord{
		RunID:        runID,
		Created:      created,
		Strategy:     r.Strategy,
		Instruments:  strings.Join(r.Instruments, ","),
		Start:        r.Start,
		End:          r.End,
		StartingCash: r.StartingCash,
		FinalEquity:  r.FinalEquity,
		Return:       r.CumulativeReturn,
		MaxDrawdown:  r.MaxDrawdown,
		Sharpe:       r.Sharpe.Value,
		Trades:       r.TradeCount,
	}); err != nil {
		return nil, fmt.Errorf("backtest: record run: %w", err)
	}
	e.state = Finished

	e.Logger.Info("replay finished",
		"run", runID, "equity", r.FinalEquity,
		"return", r.CumulativeReturn, "trades", r.TradeCount)
	return r, nil
}

func (e *Engine) step(runID string, i int, bindings []strategies.IndicatorBinding) error {
	snap := e.Frame.Snapshot(i)

	// Indicators advance only on bars that actually traded.
	for _, b := range bindings {
		if bar, ok := snap.Bar(b.Instrument); ok {
			b.Indicator.Update(bar)
		}
	}

	intents := e.Strategy.OnBars(&strategies.Context{
		Index:    i,
		Date:     snap.Date,
		Bars:     snap,
		Account:  e.Broker,
		Calendar: e.Calendar,
	})
	for _, in := range intents {
		if _, err := e.Broker.Submit(i, in); err != nil {
			return fmt.Errorf("backtest: submit at %s: %w", snap.Date.Format("2006-01-02"), err)
		}
	}

	// Orders submitted this step are not eligible; they wait for i+1.
	e.Broker.OnBarAdvance(snap)

	es := EquitySnapshot{
		Date:          snap.Date,
		Cash:          e.Broker.Cash(),
		PositionValue: e.Broker.PositionValue(),
		Equity:        e.Broker.Equity(),
	}
	e.snapshots = append(e.snapshots, es)
	if err := e.Journal.RecordEquity(journal.EquityRecord{
		RunID:         runID,
		Date:          es.Date,
		Cash:          es.Cash,
		PositionValue: es.PositionValue,
		Equity:        es.Equity,
	}); err != nil {
		return fmt.Errorf("backtest: record equity: %w", err)
	}
	for _, a := range e.Analyzers {
		a.OnEquity(es.Date, es.Equity)
	}

	for _, ev := range e.Broker.DrainEvents() {
		e.Strategy.OnOrderEvent(ev)
	}
	for _, tr := range e.Broker.DrainTrades() {
		e.Strategy.OnTradeClosed(tr)
		for _, a := range e.Analyzers {
			a.OnTradeClosed(tr)
		}
		if err := e.Journal.RecordTrade(journal.TradeRecord{
			RunID:      runID,
			TradeID:    fmt.Sprintf("%s/%s", runID, tr.ID),
			Instrument: tr.Instrument,
			Quantity:   tr.Quantity,
			EntryDate:  tr.EntryDate,
			ExitDate:   tr.ExitDate,
			EntryPrice: tr.EntryPrice,
			ExitPrice:  tr.ExitPrice,
			PNLGross:   tr.PNLGross,
			PNLNet:     tr.PNLNet,
			Commission: tr.Commission,
		}); err != nil {
			return fmt.Errorf("backtest: record trade: %w", err)
		}
	}
	return nil
}

func (e *Engine) buildResult(runID string, startCash float64) *Result {
	last := e.Frame.Len() - 1
	r := &Result{
		RunID:        runID,
		Strategy:     e.Strategy.Name(),
		Instruments:  e.Frame.Instruments(),
		Start:        e.Frame.Date(0),
		End:          e.Frame.Date(last),
		Bars:         e.Frame.Len(),
		StartingCash: startCash,
		FinalCash:    e.Broker.Cash(),
		FinalEquity:  e.Broker.Equity(),
	}

	for _, a := range e.Analyzers {
		switch an := a.(type) {
		case *analyzers.Returns:
			r.CumulativeReturn = an.Cumulative()
		case *analyzers.DrawDown:
			r.MaxDrawdown = an.Max()
			r.DrawdownDuration = an.LongestDuration()
		case *analyzers.Sharpe:
			r.Sharpe = an.Result()
		case *analyzers.Trades:
			r.TradeCount = an.Count()
			r.RealizedNetPNL = an.NetPNL()
			r.Trades = an.Summary()
		}
	}

	// Positions still open at the end are marked, not force-closed.
	open := e.Broker.OpenInstruments()
	sort.Strings(open)
	for _, instr := range open {
		pos, ok := e.Broker.Position(instr)
		if !ok {
			continue
		}
		mark, _ := e.Broker.MarkPrice(instr)
		r.Unrealized = append(r.Unrealized, UnrealizedPosition{
			Instrument:    instr,
			Quantity:      pos.Quantity,
			AvgEntryPrice: pos.AvgEntryPrice,
			MarkPrice:     mark,
			PNL:           (mark - pos.AvgEntryPrice) * float64(pos.Quantity),
		})
	}
	return r
}

// Snapshots returns the per-bar equity curve recorded so far.
func (e *Engine) Snapshots() []EquitySnapshot {
	out := make([]EquitySnapshot, len(e.snapshots))
	copy(out, e.snapshots)
	return out
}

// State reports the engine lifecycle state.
func (e *Engine) CurrentState() State { return e.state }
