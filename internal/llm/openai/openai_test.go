package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-trader/internal/types"
)

func TestParseSignalCleanJSON(t *testing.T) {
	sig, err := parseSignal(`{"action":"BUY","size":0.25,"confidence":72,"rationale":"momentum"}`)
	require.NoError(t, err)
	assert.Equal(t, types.Buy, sig.Action)
	assert.InDelta(t, 0.25, sig.Size, 1e-9)
	assert.InDelta(t, 72, sig.Confidence, 1e-9)
	assert.Equal(t, "momentum", sig.Rationale)
}

func TestParseSignalRepairsMarkdownFence(t *testing.T) {
	sig, err := parseSignal("```json\n{\"action\":\"SELL\",\"size\":1,\"confidence\":60,\"rationale\":\"overbought\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, types.Sell, sig.Action)
}

func TestParseSignalNormalizesAction(t *testing.T) {
	sig, err := parseSignal(`{"action":" hold ","size":0,"confidence":50}`)
	require.NoError(t, err)
	assert.Equal(t, types.Hold, sig.Action)
}

func TestParseSignalRejectsUnknownAction(t *testing.T) {
	_, err := parseSignal(`{"action":"SHORT","size":1,"confidence":50}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid action")
}

func TestParseSignalClampsOutOfRangeFields(t *testing.T) {
	sig, err := parseSignal(`{"action":"BUY","size":-2,"confidence":140}`)
	require.NoError(t, err)
	assert.Zero(t, sig.Size)
	assert.Zero(t, sig.Confidence)
}
