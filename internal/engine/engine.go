package engine

import (
	"context"
	"fmt"
	"time"

	"llm-trader/internal/interfaces"
	"llm-trader/internal/logger"
	"llm-trader/internal/store"
	"llm-trader/internal/ta"
	"llm-trader/internal/types"
)

// Engine is the per-symbol decision pipeline: gate check, external signal,
// size-and-risk, exit override. Each bar produces exactly one Decision.
// State mutations are strictly sequential; an Engine is never shared across
// concurrent runs.
type Engine struct {
	cfg     *store.Config
	decider interfaces.Decider
	ledger  *Ledger
	exits   *ExitEvaluator
}

func New(cfg *store.Config, decider interfaces.Decider, symbol string) *Engine {
	return &Engine{
		cfg:     cfg,
		decider: decider,
		ledger:  NewLedger(symbol),
		exits:   NewExitEvaluator(cfg),
	}
}

// NewWithLedger builds an engine around a restored ledger.
func NewWithLedger(cfg *store.Config, decider interfaces.Decider, led *Ledger) *Engine {
	return &Engine{cfg: cfg, decider: decider, ledger: led, exits: NewExitEvaluator(cfg)}
}

func (e *Engine) Ledger() *Ledger { return e.ledger }

// Decide runs the pipeline for one bar. The external signal is requested at
// most once; any failure there degrades to a HOLD for this bar only, with
// the raw error preserved in the rationale.
func (e *Engine) Decide(ctx context.Context, snap types.Snapshot, balance float64) types.Decision {
	volRatio := ta.VolatilityRatio(snap.RecentChanges)
	gate := CheckGate(snap.ChangePct, volRatio, e.cfg)

	var dec types.Decision
	if !gate.Act {
		dec = types.Decision{
			Action: types.Hold,
			Reason: types.ReasonBelowThreshold,
			Rationale: fmt.Sprintf("price change %.3f%% below dynamic threshold %.3f%% (volatility %.2fx)",
				gate.CurrentPct, gate.RequiredPct, volRatio),
		}
		logger.Debug(ctx, "Gate rejected bar",
			"symbol", snap.Symbol,
			"change_pct", gate.CurrentPct,
			"required_pct", gate.RequiredPct,
			"volatility", volRatio,
		)
	} else {
		dec = e.signalDecision(ctx, snap, balance)
	}

	if exit := e.exits.Evaluate(e.ledger, snap.Price, snap.Ts); exit != nil {
		closesOut := dec.Action == types.Sell && dec.Size >= e.ledger.NetSize()
		if !closesOut {
			logger.Warn(ctx, "Forced exit overrides signal",
				"symbol", snap.Symbol,
				"exit_reason", exit.Reason,
				"signal_action", dec.Action,
				"price", snap.Price,
			)
			dec = *exit
		}
	}
	return dec
}

func (e *Engine) signalDecision(ctx context.Context, snap types.Snapshot, balance float64) types.Decision {
	timeout := time.Duration(e.cfg.LLM.TimeoutSeconds) * time.Second
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sig, err := e.decider.Decide(sctx, snap, interfaces.PositionContext{
		NetSize:    e.ledger.NetSize(),
		EntryPrice: e.ledger.MeanPrice(),
	})
	if err != nil {
		logger.ErrorWithErr(ctx, "Signal source failed, holding", err, "symbol", snap.Symbol)
		return types.Decision{
			Action:    types.Hold,
			Reason:    types.ReasonSignalUnavailable,
			Rationale: fmt.Sprintf("signal unavailable: %v", err),
		}
	}

	if sig.Action == types.Hold {
		return types.Decision{
			Action:     types.Hold,
			Reason:     types.ReasonSignal,
			Confidence: sig.Confidence,
			Rationale:  sig.Rationale,
		}
	}

	size, holdReason := ComputeSize(SizeRequest{
		Action:    sig.Action,
		Requested: sig.Size,
		Balance:   balance,
		Price:     snap.Price,
		NetSize:   e.ledger.NetSize(),
	}, e.cfg)
	if holdReason != "" {
		return types.Decision{
			Action:     types.Hold,
			Reason:     holdReason,
			Confidence: sig.Confidence,
			Rationale:  fmt.Sprintf("%s rejected: %s", sig.Action, holdReason),
		}
	}

	if sig.Confidence < e.cfg.MinConfidence {
		return types.Decision{
			Action:     types.Hold,
			Reason:     types.ReasonBelowConfidence,
			Confidence: sig.Confidence,
			Rationale: fmt.Sprintf("confidence %.0f%% below minimum %.0f%%",
				sig.Confidence, e.cfg.MinConfidence),
		}
	}

	return types.Decision{
		Action:     sig.Action,
		Size:       size,
		Confidence: sig.Confidence,
		Reason:     types.ReasonSignal,
		Rationale:  sig.Rationale,
	}
}
