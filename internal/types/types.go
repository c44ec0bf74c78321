package types

import "time"

type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
	Hold Action = "HOLD"
)

// Reason codes attached to decisions and fills. HOLD decisions always carry
// the code that produced them; forced exits carry the exit rule that fired.
type Reason string

const (
	ReasonSignal            Reason = "signal"
	ReasonBelowThreshold    Reason = "below_threshold"
	ReasonBelowConfidence   Reason = "below_confidence"
	ReasonNoPositionToSell  Reason = "no_position_to_sell"
	ReasonSignalUnavailable Reason = "signal_unavailable"
	ReasonInvalidSize       Reason = "invalid_size"
	ReasonStopLoss          Reason = "stop_loss"
	ReasonTimeExit          Reason = "time_exit"
	ReasonTakeProfit        Reason = "take_profit"
)

// Bar is one OHLCV sample. Bars are immutable once produced by the data
// source; ordering by timestamp is relied on by every rolling-window
// calculation.
type Bar struct {
	Ts                          time.Time
	Open, High, Low, Close, Vol float64
}

type Indicators struct {
	SMA map[int]float64
	RSI float64
	BB  struct{ Middle, Upper, Lower float64 }
	ATR float64
}

// Snapshot is the per-bar market view consumed by the decision pipeline.
// RecentChanges is a bounded window of bar-to-bar percentage changes,
// oldest first.
type Snapshot struct {
	Symbol        string
	Ts            time.Time
	Price         float64
	Volume        float64
	ChangePct     float64
	HighLowPct    float64
	RecentChanges []float64
	Indicators    Indicators
}

// Signal is the raw structured action produced by a decider before risk
// sizing and exit overrides are applied. Size is in the configured sizing
// unit; Confidence is 0-100.
type Signal struct {
	Action     Action  `json:"action"`
	Size       float64 `json:"size"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// Decision is the final per-bar output of the pipeline. Size is in base
// asset units and already bounded by the risk calculator. Forced marks an
// exit-evaluator override, which fills at the triggering bar's open rather
// than the next bar's.
type Decision struct {
	Action     Action  `json:"action"`
	Size       float64 `json:"size"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
	Reason     Reason  `json:"reason"`
	Forced     bool    `json:"forced,omitempty"`
}

// Fill is the immutable record emitted for every executed trade. Balance and
// NetSize are the values immediately after the fill was applied.
type Fill struct {
	Ts      time.Time `json:"ts"`
	Symbol  string    `json:"symbol"`
	Action  Action    `json:"action"`
	Size    float64   `json:"size"`
	Price   float64   `json:"price"`
	Fee     float64   `json:"fee"`
	Balance float64   `json:"balance"`
	NetSize float64   `json:"net_size"`
	Profit  float64   `json:"profit"`
	Reason  Reason    `json:"reason"`
}
