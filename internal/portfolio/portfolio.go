package portfolio

import (
	"os"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"llm-trader/internal/engine"
)

// PositionState is the persisted view of one symbol's ledger.
type PositionState struct {
	Symbol    string  `json:"symbol"`
	NetSize   float64 `json:"net_size"`
	MeanPrice float64 `json:"mean_price"`
	Entries   []Entry `json:"entries"`
}

type Entry struct {
	Size  float64   `json:"size"`
	Price float64   `json:"price"`
	Ts    time.Time `json:"ts"`
}

// State is the portfolio snapshot written between paper-trading runs.
type State struct {
	Balance   float64                  `json:"balance"`
	Positions map[string]PositionState `json:"positions"`
	SavedAt   time.Time                `json:"saved_at"`
}

var mu sync.Mutex

// Load reads the persisted portfolio, returning a fresh one with the given
// balance when no file exists yet.
func Load(path string, initialBalance float64) (*State, error) {
	mu.Lock()
	defer mu.Unlock()

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{Balance: initialBalance, Positions: map[string]PositionState{}}, nil
		}
		return nil, err
	}
	var st State
	if err := sonic.Unmarshal(b, &st); err != nil {
		return nil, err
	}
	if st.Positions == nil {
		st.Positions = map[string]PositionState{}
	}
	return &st, nil
}

// Save writes the portfolio snapshot atomically-enough for a single process.
func Save(path string, st *State) error {
	mu.Lock()
	defer mu.Unlock()

	st.SavedAt = time.Now().UTC()
	b, err := sonic.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// FromLedger captures a ledger into its persisted form.
func FromLedger(l *engine.Ledger) PositionState {
	entries := l.Entries()
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry{Size: e.Size, Price: e.Price, Ts: e.Ts}
	}
	return PositionState{
		Symbol:    l.Symbol(),
		NetSize:   l.NetSize(),
		MeanPrice: l.MeanPrice(),
		Entries:   out,
	}
}

// ToLedger rebuilds a ledger from its persisted form.
func ToLedger(ps PositionState) (*engine.Ledger, error) {
	entries := make([]engine.Entry, len(ps.Entries))
	for i, e := range ps.Entries {
		entries[i] = engine.Entry{Size: e.Size, Price: e.Price, Ts: e.Ts}
	}
	return engine.Restore(ps.Symbol, entries)
}
