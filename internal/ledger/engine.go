// Package ledger holds the pure bar tab operations. Nothing here performs I/O:
// every operation takes a record and returns a new one for the caller to persist.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/bartab/backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places amounts are rounded to on entry.
const MoneyPlaces = 2

const defaultItemTitle = "Item"

type Engine struct {
	now             func() time.Time
	newID           func() string
	defaultOperator string
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithDefaultOperator sets the attribution used when an entry has none.
func WithDefaultOperator(name string) Option {
	return func(e *Engine) {
		if name = strings.TrimSpace(name); name != "" {
			e.defaultOperator = name
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:             time.Now,
		newID:           uuid.NewString,
		defaultOperator: models.UnknownOperator,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ChargeInput describes a charge to queue as pending. Quantity must be at least 1.
type ChargeInput struct {
	Title      string
	UnitPrice  decimal.Decimal
	Quantity   int
	RecordedBy string
}

func (e *Engine) CreateRecord(name string) (*models.CustomerRecord, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()
	return &models.CustomerRecord{
		ID:        e.newID(),
		Name:      name,
		Purchases: []models.LineItem{},
		Payments:  []models.PaymentItem{},
		Pending:   []models.LineItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (e *Engine) Rename(rec *models.CustomerRecord, name string) (*models.CustomerRecord, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	out := rec.Clone()
	out.Name = name
	return out, nil
}

func (e *Engine) AddPendingCharge(rec *models.CustomerRecord, in ChargeInput) (*models.CustomerRecord, error) {
	if in.UnitPrice.IsNegative() {
		return nil, fmt.Errorf("%w: unit price %s is negative", ErrInvalidAmount, in.UnitPrice)
	}
	if in.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity %d is not positive", ErrInvalidAmount, in.Quantity)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = defaultItemTitle
	}

	out := rec.Clone()
	out.Pending = append(out.Pending, models.LineItem{
		Title:      title,
		UnitPrice:  in.UnitPrice.Round(MoneyPlaces),
		Quantity:   in.Quantity,
		Timestamp:  e.now().UTC(),
		RecordedBy: e.operator(in.RecordedBy),
	})
	return out, nil
}

func (e *Engine) AddPayment(rec *models.CustomerRecord, amount decimal.Decimal, recordedBy string) (*models.CustomerRecord, error) {
	amount = amount.Round(MoneyPlaces)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment %s is not positive", ErrInvalidAmount, amount)
	}

	out := rec.Clone()
	out.Payments = append(out.Payments, models.PaymentItem{
		Amount:     amount,
		Timestamp:  e.now().UTC(),
		RecordedBy: e.operator(recordedBy),
	})
	return out, nil
}

// ConfirmOne moves the pending item at index to the end of purchases unchanged.
func (e *Engine) ConfirmOne(rec *models.CustomerRecord, index int) (*models.CustomerRecord, error) {
	if err := checkIndex(rec, index); err != nil {
		return nil, err
	}
	out := rec.Clone()
	item := out.Pending[index]
	out.Pending = append(out.Pending[:index], out.Pending[index+1:]...)
	out.Purchases = append(out.Purchases, item)
	return out, nil
}

func (e *Engine) ConfirmAll(rec *models.CustomerRecord) *models.CustomerRecord {
	out := rec.Clone()
	out.Purchases = append(out.Purchases, out.Pending...)
	out.Pending = []models.LineItem{}
	return out
}

// CancelOne discards the pending item at index.
func (e *Engine) CancelOne(rec *models.CustomerRecord, index int) (*models.CustomerRecord, error) {
	if err := checkIndex(rec, index); err != nil {
		return nil, err
	}
	out := rec.Clone()
	out.Pending = append(out.Pending[:index], out.Pending[index+1:]...)
	return out, nil
}

// ResetLedger empties purchases, payments and pending.
func (e *Engine) ResetLedger(rec *models.CustomerRecord) *models.CustomerRecord {
	out := rec.Clone()
	out.Purchases = []models.LineItem{}
	out.Payments = []models.PaymentItem{}
	out.Pending = []models.LineItem{}
	return out
}

func (e *Engine) operator(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return e.defaultOperator
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}

func checkIndex(rec *models.CustomerRecord, index int) error {
	if index < 0 || index >= len(rec.Pending) {
		return fmt.Errorf("%w: %d (pending has %d)", ErrIndexOutOfRange, index, len(rec.Pending))
	}
	return nil
}
