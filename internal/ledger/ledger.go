// Package ledger tracks every order this trader has submitted during an
// episode. Entries are appended at submission, mutated in place as fills
// are discovered, and never deleted until the episode resets.
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// NotYet is the sentinel tick for lifecycle events that have not occurred.
const NotYet = -1

var (
	// ErrDuplicateEntry is returned when an order id is appended twice.
	ErrDuplicateEntry = errors.New("ledger: duplicate order id")

	// ErrFillRegression is returned when the exchange reports less filled
	// quantity than previously recorded.
	ErrFillRegression = errors.New("ledger: filled quantity decreased")

	// ErrFillExceedsTarget is returned when the exchange reports more
	// filled quantity than the order's target.
	ErrFillExceedsTarget = errors.New("ledger: filled quantity exceeds target")
)

// Entry is the lifecycle record of one submitted order.
type Entry struct {
	OrderID     int64
	PlacedAt    int
	FilledAt    int // NotYet until the first observed fill
	CancelledAt int // NotYet until cancelled
	Price       decimal.Decimal
	Target      decimal.Decimal
	Filled      decimal.Decimal
	VWAP        decimal.NullDecimal // running fill VWAP, null until traded
	Active      bool
}

// Remaining is the unfilled portion of the order's target.
func (e *Entry) Remaining() decimal.Decimal {
	return e.Target.Sub(e.Filled)
}

// Ledger is an arena of entries with an order-id index. Updates go through
// explicit operations so fill accounting stays monotonic.
type Ledger struct {
	entries []*Entry
	byID    map[int64]*Entry
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		byID: make(map[int64]*Entry),
	}
}

// Append records a newly submitted order. The entry's FilledAt is set to
// the placement tick when the submission already carried a partial fill.
func (l *Ledger) Append(e Entry) error {
	if _, exists := l.byID[e.OrderID]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateEntry, e.OrderID)
	}
	entry := e
	l.entries = append(l.entries, &entry)
	l.byID[entry.OrderID] = &entry
	return nil
}

// Get returns the entry for an order id, if tracked.
func (l *Ledger) Get(orderID int64) (*Entry, bool) {
	e, ok := l.byID[orderID]
	return e, ok
}

// Active returns the entries that can still receive fills or be cancelled.
func (l *Ledger) Active() []*Entry {
	var active []*Entry
	for _, e := range l.entries {
		if e.Active {
			active = append(active, e)
		}
	}
	return active
}

// All returns every entry in submission order.
func (l *Ledger) All() []*Entry {
	return l.entries
}

// Len returns the number of tracked orders.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// ApplyFill records an exchange-reported fill state against an entry.
// The filled quantity must not regress and must not exceed the target;
// violations leave the entry untouched.
func (l *Ledger) ApplyFill(orderID int64, tick int, filled decimal.Decimal, vwap decimal.NullDecimal, open bool) error {
	e, ok := l.byID[orderID]
	if !ok {
		return fmt.Errorf("ledger: unknown order id %d", orderID)
	}
	if filled.LessThan(e.Filled) {
		return fmt.Errorf("%w: order %d reported %s after %s", ErrFillRegression, orderID, filled, e.Filled)
	}
	if filled.GreaterThan(e.Target) {
		return fmt.Errorf("%w: order %d reported %s of %s", ErrFillExceedsTarget, orderID, filled, e.Target)
	}

	e.FilledAt = tick
	e.Filled = filled
	e.VWAP = vwap
	e.Active = open
	return nil
}

// CancelActive stamps every active entry as cancelled at the given tick
// and deactivates it, returning how many entries were affected. Used after
// a cancel-all: the exchange gives no per-order acknowledgement.
func (l *Ledger) CancelActive(tick int) int {
	n := 0
	for _, e := range l.entries {
		if e.Active {
			e.CancelledAt = tick
			e.Active = false
			n++
		}
	}
	return n
}
