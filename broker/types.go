// Package broker simulates market-order execution against a bar stream:
// cash and per-instrument position accounting, a fixed commission rate,
// and a one-bar execution delay so orders never fill on the bar that
// generated them.
package broker

import (
	"errors"
	"time"
)

var (
	// ErrInvalidQuantity marks a non-positive order size. This is a caller
	// bug, surfaced immediately, never retried.
	ErrInvalidQuantity = errors.New("invalid order quantity")

	// ErrInvalidOrder marks a malformed order (empty instrument,
	// conflicting sizing).
	ErrInvalidOrder = errors.New("invalid order")
)

type Side int8

const (
	Buy Side = iota + 1
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// OrderState tracks the order lifecycle:
//
//	Submitted → Accepted → {Completed | Canceled | Margin | Rejected}
//
// Submitted is the zero value and only lives inside Submit: a validated
// order moves to Accepted before it is queued, so there is no exchange
// reject simulation beyond cash/share sufficiency at fill time. Margin is
// the insufficient-cash terminal state, Rejected the insufficient-shares
// one. Terminal states are never retried.
type OrderState int8

const (
	Submitted OrderState = iota
	Accepted
	Completed
	Canceled
	Margin
	Rejected
)

func (s OrderState) String() string {
	switch s {
	case Submitted:
		return "submitted"
	case Accepted:
		return "accepted"
	case Completed:
		return "completed"
	case Canceled:
		return "canceled"
	case Margin:
		return "margin"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

func (s OrderState) Terminal() bool {
	switch s {
	case Completed, Canceled, Margin, Rejected:
		return true
	}
	return false
}

// Order is a market order. Sizing is either a fixed Quantity or a
// CashFraction: a fraction of available cash converted to whole shares at
// the fill price, which is the only price a next-bar fill can know.
type Order struct {
	ID           string
	Instrument   string
	Side         Side
	Quantity     int64
	CashFraction float64
	State        OrderState
	SubmittedIdx int

	// Fill details, set when State becomes Completed.
	FillIdx    int
	FillDate   time.Time
	FillPrice  float64
	FillQty    int64
	Commission float64
}

// OrderIntent is what a strategy emits; the engine turns intents into
// submitted orders. Exactly one of Quantity or CashFraction must be set
// for a buy; sells always use Quantity.
type OrderIntent struct {
	Instrument   string
	Side         Side
	Quantity     int64
	CashFraction float64
}

// OrderEvent reports an order reaching a terminal state. Events are
// queued by the broker and drained by the engine once per bar, then
// handed to the strategy — there are no re-entrant callbacks.
type OrderEvent struct {
	Order  Order
	Reason string
}

// Position is the open holding for one instrument. Entry legs accumulate
// into the average entry price; the position is destroyed when quantity
// returns to zero, emitting a Trade.
type Position struct {
	Instrument    string
	Quantity      int64
	AvgEntryPrice float64
	EntryOrderID  string
	EntryDate     time.Time

	// Accumulated legs, used to build the Trade on full close.
	entryQty   int64
	entryValue float64
	entryComm  float64
	exitValue  float64
	exitComm   float64
}

// Trade is a closed round-trip. Immutable once emitted.
type Trade struct {
	ID         string
	Instrument string
	Quantity   int64
	EntryDate  time.Time
	ExitDate   time.Time
	EntryPrice float64
	ExitPrice  float64
	PNLGross   float64
	PNLNet     float64
	Commission float64
}

// Return is the trade's net profit relative to entry cost.
func (t Trade) Return() float64 {
	cost := t.EntryPrice * float64(t.Quantity)
	if cost == 0 {
		return 0
	}
	return t.PNLNet / cost
}

func (t Trade) Profitable() bool { return t.PNLNet > 0 }
