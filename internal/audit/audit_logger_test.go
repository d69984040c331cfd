package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestZerologLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	a := NewLogger(zerolog.New(&buf))

	a.Log(Event{
		Type:       EventPaymentAdded,
		CustomerID: "c1",
		Operator:   "kim",
		Amount:     decimal.RequireFromString("5"),
		Details:    map[string]any{"balance": "3.00"},
	})

	line := decode(t, &buf)
	assert.Equal(t, true, line["audit"])
	assert.Equal(t, EventPaymentAdded, line["event_type"])
	assert.Equal(t, "c1", line["customer_id"])
	assert.Equal(t, "kim", line["operator"])
	assert.Equal(t, "5.00", line["amount"])
	assert.Equal(t, "3.00", line["balance"])
	assert.Equal(t, "SUCCESS", line["status"])
}

func TestZerologLogger_LogWithoutAmount(t *testing.T) {
	var buf bytes.Buffer
	a := NewLogger(zerolog.New(&buf))

	a.Log(Event{Type: EventLedgerReset, CustomerID: "c1"})

	line := decode(t, &buf)
	assert.NotContains(t, line, "amount")
}

func TestZerologLogger_LogError(t *testing.T) {
	var buf bytes.Buffer
	a := NewLogger(zerolog.New(&buf))

	a.LogError("confirm", "c1", errors.New("boom"))

	line := decode(t, &buf)
	assert.Equal(t, "ERROR", line["event_type"])
	assert.Equal(t, "confirm", line["operation"])
	assert.Equal(t, "FAILED", line["status"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "warn", line["level"])
}
