package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"llm-trader/internal/interfaces"
	"llm-trader/internal/store"
	"llm-trader/internal/trace"
	"llm-trader/internal/types"
)

const defaultSystem = "You are a trading assistant. You receive market state as JSON and respond " +
	"ONLY with compact JSON: {\"action\":\"BUY|SELL|HOLD\",\"size\":<number>,\"confidence\":<0-100>,\"rationale\":\"...\"}. " +
	"You cannot SELL when the current position is zero."

type OpenAIDecider struct {
	cfg *store.Config
}

func NewOpenAIDecider(cfg *store.Config) *OpenAIDecider {
	return &OpenAIDecider{cfg: cfg}
}

func (d *OpenAIDecider) Decide(ctx context.Context, snap types.Snapshot, pos interfaces.PositionContext) (types.Signal, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return types.Signal{}, errors.New("OPENAI_API_KEY missing")
	}

	state := map[string]any{
		"symbol":           snap.Symbol,
		"price":            snap.Price,
		"volume":           snap.Volume,
		"change_pct":       snap.ChangePct,
		"high_low_pct":     snap.HighLowPct,
		"recent_changes":   snap.RecentChanges,
		"indicators":       snap.Indicators,
		"current_position": pos.NetSize,
		"entry_price":      pos.EntryPrice,
	}
	sb, _ := json.Marshal(state)
	prompt := fmt.Sprintf("State:%s", string(sb))

	system := d.cfg.LLM.System
	if system == "" {
		system = defaultSystem
	}

	body := map[string]any{
		"model":       d.cfg.LLM.Model,
		"messages":    []map[string]string{{"role": "system", "content": system}, {"role": "user", "content": prompt}},
		"temperature": d.cfg.LLM.Temperature,
		"max_tokens":  d.cfg.LLM.MaxTokens,
	}
	bb, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(bb))
	if err != nil {
		return types.Signal{}, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return types.Signal{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return types.Signal{}, fmt.Errorf("openai http %d", resp.StatusCode)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return types.Signal{}, err
	}
	if len(r.Choices) == 0 {
		return types.Signal{}, errors.New("no choices")
	}

	return parseSignal(r.Choices[0].Message.Content)
}

// parseSignal decodes the model reply, repairing malformed JSON before
// giving up. An unusable reply is an error: the pipeline maps it to a HOLD
// for this bar.
func parseSignal(content string) (types.Signal, error) {
	out := strings.TrimSpace(content)

	var sig types.Signal
	if err := json.Unmarshal([]byte(out), &sig); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(out)
		if rerr != nil {
			return types.Signal{}, fmt.Errorf("unparseable reply: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &sig); err != nil {
			return types.Signal{}, fmt.Errorf("unparseable reply after repair: %w", err)
		}
	}

	sig.Action = types.Action(strings.ToUpper(strings.TrimSpace(string(sig.Action))))
	switch sig.Action {
	case types.Buy, types.Sell, types.Hold:
	default:
		return types.Signal{}, fmt.Errorf("invalid action %q", sig.Action)
	}
	if sig.Confidence < 0 || sig.Confidence > 100 {
		sig.Confidence = 0
	}
	if sig.Size < 0 {
		sig.Size = 0
	}
	return sig, nil
}
