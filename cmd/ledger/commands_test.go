package main

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/trade-ledger/internal/common"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractCmd_FallbackOnly(t *testing.T) {
	cfg := &common.Config{LLM: common.LLMConfig{Provider: "none"}}
	cmd := newExtractCmd(cfg, quietLogger())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"Sold", "5kg", "tomatoes", "to", "John", "for", "500"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"transactionType": "sale"`)
	assert.Contains(t, out.String(), `"strategy": "fallback"`)
	assert.Contains(t, out.String(), "✅ Sale recorded:\n- tomatoes: 5 kg @ 100\nTotal: 500\nCustomer: John")
}

func TestExtractCmd_MissingKeyFallsBack(t *testing.T) {
	cfg := &common.Config{LLM: common.LLMConfig{Provider: "openai"}}
	cmd := newExtractCmd(cfg, quietLogger())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--repeat", "2", "nimeuza chai kwa Juma 50"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("Mauzo imerekodiwa")))
}

func TestRecordCmd_RequiresUUIDOwner(t *testing.T) {
	cmd := newRecordCmd(&common.Config{}, quietLogger())
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--owner", "bob", "Sold rice"})
	assert.ErrorContains(t, cmd.Execute(), "--owner must be a UUID")
}

func TestParseDay(t *testing.T) {
	d, err := parseDay("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = parseDay("2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, 14, d.Day())

	_, err = parseDay("14/03/2026")
	assert.Error(t, err)
}
