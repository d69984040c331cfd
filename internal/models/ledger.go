package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// UnknownOperator is the attribution used when an entry was recorded without one.
const UnknownOperator = "Unknown"

type LineItem struct {
	Title      string          `json:"title"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Quantity   int             `json:"quantity"`
	Timestamp  time.Time       `json:"timestamp"`
	RecordedBy string          `json:"recordedBy"`
}

// Total is unitPrice × quantity. It is never stored.
func (li LineItem) Total() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// UnmarshalJSON reads current and legacy line items. Older records stored the
// price as "amount", the time as "time" and had no quantity or attribution.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	type current LineItem
	var raw struct {
		current
		Amount *decimal.Decimal `json:"amount"`
		Time   *time.Time       `json:"time"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*li = LineItem(raw.current)
	if li.UnitPrice.IsZero() && raw.Amount != nil {
		li.UnitPrice = *raw.Amount
	}
	if li.Timestamp.IsZero() && raw.Time != nil {
		li.Timestamp = *raw.Time
	}
	if li.Quantity <= 0 {
		li.Quantity = 1
	}
	if li.RecordedBy == "" {
		li.RecordedBy = UnknownOperator
	}
	return nil
}

type PaymentItem struct {
	Amount     decimal.Decimal `json:"amount"`
	Timestamp  time.Time       `json:"timestamp"`
	RecordedBy string          `json:"recordedBy"`
}

func (p *PaymentItem) UnmarshalJSON(data []byte) error {
	type current PaymentItem
	var raw struct {
		current
		Time *time.Time `json:"time"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = PaymentItem(raw.current)
	if p.Timestamp.IsZero() && raw.Time != nil {
		p.Timestamp = *raw.Time
	}
	if p.RecordedBy == "" {
		p.RecordedBy = UnknownOperator
	}
	return nil
}
