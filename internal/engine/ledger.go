package engine

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInsufficientPosition is returned when a sell larger than the held size
// is requested. The risk calculator clamps sells before they reach the
// ledger, so hitting this indicates a logic bug and aborts the run instead
// of being silently adjusted.
var ErrInsufficientPosition = errors.New("sell size exceeds held position")

const sizeEpsilon = 1e-9

// Entry is one lot within a position. Entries are immutable once created;
// they are only ever fully or partially consumed, oldest first.
type Entry struct {
	Size  float64
	Price float64
	Ts    time.Time
}

// Ledger is the per-symbol record of open entries. Mean price is the
// cost-weighted average of the remaining lots and is not changed by sells;
// highWater feeds the trailing stop and lifetimeSize the take-profit ladder.
type Ledger struct {
	symbol       string
	entries      []Entry
	netSize      float64
	meanPrice    float64
	highWater    float64
	openedAt     time.Time
	lifetimeSize float64
}

func NewLedger(symbol string) *Ledger {
	return &Ledger{symbol: symbol}
}

func (l *Ledger) Symbol() string      { return l.symbol }
func (l *Ledger) NetSize() float64    { return l.netSize }
func (l *Ledger) MeanPrice() float64  { return l.meanPrice }
func (l *Ledger) HighWater() float64  { return l.highWater }
func (l *Ledger) OpenedAt() time.Time { return l.openedAt }

// LifetimeSize is the total size bought during the current position
// lifetime. The take-profit ladder sizes rungs against it rather than the
// net size so laddering does not compound.
func (l *Ledger) LifetimeSize() float64 { return l.lifetimeSize }

func (l *Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// RecordBuy appends a new entry and recomputes the cost-weighted mean price
// over all remaining lots.
func (l *Ledger) RecordBuy(size, price float64, ts time.Time) error {
	if size <= 0 || price <= 0 {
		return fmt.Errorf("invalid buy: size %.8f price %.8f", size, price)
	}
	wasFlat := l.netSize <= sizeEpsilon
	l.entries = append(l.entries, Entry{Size: size, Price: price, Ts: ts})

	cost, total := 0.0, 0.0
	for _, e := range l.entries {
		cost += e.Size * e.Price
		total += e.Size
	}
	l.netSize = total
	l.meanPrice = cost / total
	l.highWater = math.Max(l.highWater, price)
	l.lifetimeSize += size
	if wasFlat {
		l.openedAt = ts
		l.highWater = price
		l.lifetimeSize = size
	}
	return l.checkInvariant()
}

// RecordSell consumes entries oldest-first until size is exhausted and
// returns the cost basis of the consumed lots. The mean price of the
// remaining lots is unchanged. Selling more than the net size fails with
// ErrInsufficientPosition.
func (l *Ledger) RecordSell(size, price float64, ts time.Time) (costBasis float64, err error) {
	if size <= 0 || price <= 0 {
		return 0, fmt.Errorf("invalid sell: size %.8f price %.8f", size, price)
	}
	if size > l.netSize+sizeEpsilon {
		return 0, fmt.Errorf("%w: sell %.8f, held %.8f", ErrInsufficientPosition, size, l.netSize)
	}

	remaining := size
	for remaining > sizeEpsilon && len(l.entries) > 0 {
		oldest := &l.entries[0]
		if oldest.Size <= remaining+sizeEpsilon {
			costBasis += oldest.Size * oldest.Price
			remaining -= oldest.Size
			l.entries = l.entries[1:]
		} else {
			costBasis += remaining * oldest.Price
			oldest.Size -= remaining
			remaining = 0
		}
	}

	total := 0.0
	for _, e := range l.entries {
		total += e.Size
	}
	l.netSize = total

	if l.netSize <= sizeEpsilon {
		l.netSize = 0
		l.entries = nil
		l.meanPrice = 0
		l.highWater = 0
		l.openedAt = time.Time{}
		l.lifetimeSize = 0
	} else {
		l.openedAt = l.entries[0].Ts
	}
	if err := l.checkInvariant(); err != nil {
		return 0, err
	}
	return costBasis, nil
}

// UpdateMark raises the high-water price. Called every bar regardless of
// trade activity.
func (l *Ledger) UpdateMark(price float64) {
	if l.netSize > 0 {
		l.highWater = math.Max(l.highWater, price)
	}
}

func (l *Ledger) checkInvariant() error {
	sum := 0.0
	for _, e := range l.entries {
		sum += e.Size
	}
	if l.netSize < 0 || math.Abs(sum-l.netSize) > 1e-6 {
		return fmt.Errorf("ledger invariant violated for %s: net %.8f, entries sum %.8f", l.symbol, l.netSize, sum)
	}
	return nil
}

// Restore rebuilds a ledger from persisted entries, oldest first.
func Restore(symbol string, entries []Entry) (*Ledger, error) {
	l := NewLedger(symbol)
	for _, e := range entries {
		if err := l.RecordBuy(e.Size, e.Price, e.Ts); err != nil {
			return nil, err
		}
	}
	return l, nil
}
