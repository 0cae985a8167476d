package broker

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/rustyeddy/backtester/market"
)

// Config controls the simulated account.
type Config struct {
	// Cash is the starting balance in account currency.
	Cash float64

	// CommissionRate is charged on both legs, e.g. 0.001 for 0.1%.
	CommissionRate float64

	// FillOnOpen fills orders at the fill bar's open instead of its
	// adjusted close.
	FillOnOpen bool
}

// Sim owns cash, positions and the pending-order queue. Orders submitted
// at replay index i are eligible to fill from index i+1 onward, at the
// fill bar's price. Insufficient funds or shares are terminal order
// states (Margin, Rejected), not errors: the run continues and the
// strategy observes the state through the event queue.
//
// A Sim belongs to exactly one engine run; nothing here is safe for
// concurrent use.
type Sim struct {
	cfg       Config
	cash      float64
	positions map[string]*Position
	pending   []*Order
	events    []OrderEvent
	trades    []Trade
	newTrades []Trade
	lastPrice map[string]float64
	log       *slog.Logger

	// Sequential IDs keep replays deterministic: identical inputs yield
	// identical order and trade records.
	nextOrder int
	nextTrade int
}

// NewSim validates the config and builds a fresh account. A nil logger
// falls back to slog.Default().
func NewSim(cfg Config, logger *slog.Logger) (*Sim, error) {
	if cfg.Cash <= 0 || math.IsNaN(cfg.Cash) || math.IsInf(cfg.Cash, 0) {
		return nil, fmt.Errorf("broker: starting cash must be positive, got %v", cfg.Cash)
	}
	if cfg.CommissionRate < 0 || cfg.CommissionRate >= 1 {
		return nil, fmt.Errorf("broker: commission rate must be in [0,1), got %v", cfg.CommissionRate)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sim{
		cfg:       cfg,
		cash:      cfg.Cash,
		positions: make(map[string]*Position),
		lastPrice: make(map[string]float64),
		log:       logger,
	}, nil
}

// Submit validates and queues a market order at replay index idx. The
// order is Accepted immediately and will not fill before index idx+1.
func (s *Sim) Submit(idx int, in OrderIntent) (string, error) {
	if in.Instrument == "" {
		return "", fmt.Errorf("%w: empty instrument", ErrInvalidOrder)
	}
	if in.Quantity < 0 || in.CashFraction < 0 {
		return "", fmt.Errorf("%w: %s %s qty=%d fraction=%v",
			ErrInvalidQuantity, in.Instrument, in.Side, in.Quantity, in.CashFraction)
	}

	switch in.Side {
	case Buy:
		if (in.Quantity == 0) == (in.CashFraction == 0) {
			return "", fmt.Errorf("%w: buy needs exactly one of quantity or cash fraction", ErrInvalidQuantity)
		}
		if in.CashFraction > 1 {
			return "", fmt.Errorf("%w: cash fraction %v > 1", ErrInvalidOrder, in.CashFraction)
		}
	case Sell:
		if in.Quantity == 0 {
			return "", fmt.Errorf("%w: sell needs a positive quantity", ErrInvalidQuantity)
		}
		if in.CashFraction != 0 {
			return "", fmt.Errorf("%w: sells are sized by quantity", ErrInvalidOrder)
		}
	default:
		return "", fmt.Errorf("%w: unknown side %d", ErrInvalidOrder, in.Side)
	}

	s.nextOrder++
	o := &Order{
		ID:           fmt.Sprintf("o-%d", s.nextOrder),
		Instrument:   in.Instrument,
		Side:         in.Side,
		Quantity:     in.Quantity,
		CashFraction: in.CashFraction,
		State:        Submitted,
		SubmittedIdx: idx,
	}
	o.State = Accepted
	s.pending = append(s.pending, o)

	s.log.Debug("order accepted",
		"order", o.ID, "instrument", o.Instrument, "side", o.Side.String(),
		"quantity", o.Quantity, "fraction", o.CashFraction, "index", idx)
	return o.ID, nil
}

// OnBarAdvance resolves pending orders against the snapshot. Only orders
// submitted before snap.Index are eligible; an order whose instrument has
// no bar today keeps waiting. Mark prices update to each present bar's
// adjusted close.
func (s *Sim) OnBarAdvance(snap market.Snapshot) {
	for instr := range s.positions {
		if b, ok := snap.Bar(instr); ok {
			s.lastPrice[instr] = b.AdjClose
		}
	}

	keep := s.pending[:0]
	for _, o := range s.pending {
		if o.SubmittedIdx >= snap.Index {
			keep = append(keep, o)
			continue
		}
		b, ok := snap.Bar(o.Instrument)
		if !ok {
			keep = append(keep, o)
			continue
		}
		s.fill(o, snap, b)
	}
	s.pending = keep
}

func (s *Sim) fill(o *Order, snap market.Snapshot, b market.Bar) {
	price := b.AdjClose
	if s.cfg.FillOnOpen {
		price = b.Open
	}
	s.lastPrice[o.Instrument] = b.AdjClose

	switch o.Side {
	case Buy:
		s.fillBuy(o, snap, price)
	case Sell:
		s.fillSell(o, snap, price)
	}
}

func (s *Sim) fillBuy(o *Order, snap market.Snapshot, price float64) {
	c := s.cfg.CommissionRate

	qty := o.Quantity
	if o.CashFraction > 0 {
		// Whole shares affordable at the fill price, commission included.
		// The epsilon guards against float truncation on exact divisions.
		qty = int64(s.cash*o.CashFraction/(price*(1+c)) + 1e-9)
		if qty <= 0 {
			s.reject(o, Rejected, fmt.Sprintf("cash %.2f buys no shares at %.4f", s.cash, price))
			return
		}
	}

	required := price * float64(qty) * (1 + c)
	if required > s.cash {
		s.reject(o, Margin, fmt.Sprintf("need %.2f, have %.2f", required, s.cash))
		return
	}

	s.cash -= required
	commission := price * float64(qty) * c

	pos := s.positions[o.Instrument]
	if pos == nil {
		pos = &Position{
			Instrument:   o.Instrument,
			EntryOrderID: o.ID,
			EntryDate:    snap.Date,
		}
		s.positions[o.Instrument] = pos
	}
	pos.Quantity += qty
	pos.entryQty += qty
	pos.entryValue += price * float64(qty)
	pos.entryComm += commission
	pos.AvgEntryPrice = pos.entryValue / float64(pos.entryQty)

	s.complete(o, snap, price, qty, commission)
}

func (s *Sim) fillSell(o *Order, snap market.Snapshot, price float64) {
	pos := s.positions[o.Instrument]
	if pos == nil || pos.Quantity < o.Quantity {
		held := int64(0)
		if pos != nil {
			held = pos.Quantity
		}
		s.reject(o, Rejected, fmt.Sprintf("sell %d, hold %d", o.Quantity, held))
		return
	}

	c := s.cfg.CommissionRate
	gross := price * float64(o.Quantity)
	commission := gross * c
	s.cash += gross - commission

	pos.Quantity -= o.Quantity
	pos.exitValue += gross
	pos.exitComm += commission

	s.complete(o, snap, price, o.Quantity, commission)

	if pos.Quantity == 0 {
		s.closeTrade(pos, snap)
	}
}

// closeTrade emits the round-trip record for a position that just
// returned to zero. Net P&L is gross minus commission on both legs.
func (s *Sim) closeTrade(pos *Position, snap market.Snapshot) {
	gross := pos.exitValue - pos.entryValue
	s.nextTrade++
	tr := Trade{
		ID:         fmt.Sprintf("t-%d", s.nextTrade),
		Instrument: pos.Instrument,
		Quantity:   pos.entryQty,
		EntryDate:  pos.EntryDate,
		ExitDate:   snap.Date,
		EntryPrice: pos.AvgEntryPrice,
		ExitPrice:  pos.exitValue / float64(pos.entryQty),
		PNLGross:   gross,
		PNLNet:     gross - pos.entryComm - pos.exitComm,
		Commission: pos.entryComm + pos.exitComm,
	}
	delete(s.positions, pos.Instrument)

	s.trades = append(s.trades, tr)
	s.newTrades = append(s.newTrades, tr)

	s.log.Debug("trade closed",
		"trade", tr.ID, "instrument", tr.Instrument, "quantity", tr.Quantity,
		"entry", tr.EntryPrice, "exit", tr.ExitPrice, "net", tr.PNLNet)
}

func (s *Sim) complete(o *Order, snap market.Snapshot, price float64, qty int64, commission float64) {
	o.State = Completed
	o.FillIdx = snap.Index
	o.FillDate = snap.Date
	o.FillPrice = price
	o.FillQty = qty
	o.Commission = commission
	s.events = append(s.events, OrderEvent{Order: *o, Reason: "filled"})

	s.log.Debug("order filled",
		"order", o.ID, "instrument", o.Instrument, "side", o.Side.String(),
		"quantity", qty, "price", price, "commission", commission)
}

func (s *Sim) reject(o *Order, state OrderState, reason string) {
	o.State = state
	s.events = append(s.events, OrderEvent{Order: *o, Reason: reason})

	s.log.Warn("order not filled",
		"order", o.ID, "instrument", o.Instrument, "side", o.Side.String(),
		"state", state.String(), "reason", reason)
}

// CancelOpen cancels all still-pending orders, e.g. at the end of a
// replay. Canceled is terminal; the events reach the strategy as usual.
func (s *Sim) CancelOpen(reason string) {
	for _, o := range s.pending {
		o.State = Canceled
		s.events = append(s.events, OrderEvent{Order: *o, Reason: reason})
	}
	s.pending = s.pending[:0]
}

// Cash returns the current balance. It is never negative: any fill that
// would overdraw is rejected instead of applied.
func (s *Sim) Cash() float64 { return s.cash }

// Shares returns the held quantity for an instrument, zero when flat.
func (s *Sim) Shares(instrument string) int64 {
	if pos := s.positions[instrument]; pos != nil {
		return pos.Quantity
	}
	return 0
}

// Position returns a copy of the open position, if any.
func (s *Sim) Position(instrument string) (Position, bool) {
	if pos := s.positions[instrument]; pos != nil {
		return *pos, true
	}
	return Position{}, false
}

// OpenInstruments lists instruments with an open position.
func (s *Sim) OpenInstruments() []string {
	out := make([]string, 0, len(s.positions))
	for instr := range s.positions {
		out = append(out, instr)
	}
	return out
}

// MarkPrice returns the last seen adjusted close for an instrument.
func (s *Sim) MarkPrice(instrument string) (float64, bool) {
	p, ok := s.lastPrice[instrument]
	return p, ok
}

// PositionValue marks all open positions at their last seen price.
func (s *Sim) PositionValue() float64 {
	var v float64
	for instr, pos := range s.positions {
		v += float64(pos.Quantity) * s.lastPrice[instr]
	}
	return v
}

// Equity is cash plus marked position value.
func (s *Sim) Equity() float64 { return s.cash + s.PositionValue() }

// Trades returns all closed round-trips so far.
func (s *Sim) Trades() []Trade {
	out := make([]Trade, len(s.trades))
	copy(out, s.trades)
	return out
}

// DrainEvents returns terminal order events queued since the last drain.
func (s *Sim) DrainEvents() []OrderEvent {
	ev := s.events
	s.events = nil
	return ev
}

// DrainTrades returns trades closed since the last drain.
func (s *Sim) DrainTrades() []Trade {
	tr := s.newTrades
	s.newTrades = nil
	return tr
}

// PendingCount reports orders still waiting for a fill bar.
func (s *Sim) PendingCount() int { return len(s.pending) }
