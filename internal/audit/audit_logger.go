// Package audit records who changed which tab. It is an operational trail,
// not a tamper-proof log.
package audit

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	EventCustomerCreated  = "CUSTOMER_CREATED"
	EventCustomerRenamed  = "CUSTOMER_RENAMED"
	EventCustomerDeleted  = "CUSTOMER_DELETED"
	EventChargeAdded      = "CHARGE_ADDED"
	EventPaymentAdded     = "PAYMENT_ADDED"
	EventPendingConfirmed = "PENDING_CONFIRMED"
	EventPendingCancelled = "PENDING_CANCELLED"
	EventLedgerReset      = "LEDGER_RESET"
	EventStoreCleared     = "STORE_CLEARED"
)

type Event struct {
	Type       string
	CustomerID string
	Operator   string
	Amount     decimal.Decimal
	Details    map[string]any
}

type Logger interface {
	Log(event Event)
	LogError(operation, customerID string, err error)
}

// ZerologLogger writes audit events as structured log lines tagged audit=true.
type ZerologLogger struct {
	log zerolog.Logger
}

func NewLogger(log zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{log: log.With().Bool("audit", true).Logger()}
}

func (a *ZerologLogger) Log(event Event) {
	e := a.log.Info().
		Str("event_type", event.Type).
		Str("customer_id", event.CustomerID).
		Str("operator", event.Operator).
		Str("status", "SUCCESS")
	if !event.Amount.IsZero() {
		e = e.Str("amount", event.Amount.StringFixed(2))
	}
	if len(event.Details) > 0 {
		e = e.Fields(event.Details)
	}
	e.Msg("AUDIT")
}

func (a *ZerologLogger) LogError(operation, customerID string, err error) {
	a.log.Warn().
		Str("event_type", "ERROR").
		Str("operation", operation).
		Str("customer_id", customerID).
		Str("status", "FAILED").
		Err(err).
		Msg("AUDIT")
}
