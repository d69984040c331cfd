package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CustomerRecord is the persisted ledger of one customer.
type CustomerRecord struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Purchases []LineItem    `json:"purchases"`
	Payments  []PaymentItem `json:"payments"`
	Pending   []LineItem    `json:"pending"`
	Version   int           `json:"version"` // for optimistic locking
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Clone returns a deep copy so callers never share item slices.
func (c *CustomerRecord) Clone() *CustomerRecord {
	if c == nil {
		return nil
	}
	out := *c
	out.Purchases = append([]LineItem{}, c.Purchases...)
	out.Payments = append([]PaymentItem{}, c.Payments...)
	out.Pending = append([]LineItem{}, c.Pending...)
	return &out
}

// legacyEntry is a pending entry from the first schema, where payments were
// queued alongside drinks and told apart by "type".
type legacyEntry struct {
	Type string `json:"type"`
}

// UnmarshalJSON accepts records written by older revisions: auto-increment
// numeric ids, purchases stored as "beers" and pending payments mixed into the
// pending list.
func (c *CustomerRecord) UnmarshalJSON(data []byte) error {
	type current CustomerRecord
	var raw struct {
		current
		ID      json.RawMessage   `json:"id"`
		Pending []json.RawMessage `json:"pending"`
		Beers   []LineItem        `json:"beers"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = CustomerRecord(raw.current)
	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}
	c.ID = id
	c.Pending = nil
	if len(c.Purchases) == 0 && len(raw.Beers) > 0 {
		c.Purchases = raw.Beers
	}

	for _, entry := range raw.Pending {
		var kind legacyEntry
		if err := json.Unmarshal(entry, &kind); err != nil {
			return err
		}
		// The first schema could only confirm a queued payment, never cancel
		// it, so it is read as the payment it would become.
		if kind.Type == "payment" {
			var p PaymentItem
			if err := json.Unmarshal(entry, &p); err != nil {
				return err
			}
			c.Payments = append(c.Payments, p)
			continue
		}
		var li LineItem
		if err := json.Unmarshal(entry, &li); err != nil {
			return err
		}
		if li.Title == "" && kind.Type != "" {
			li.Title = kind.Type
		}
		c.Pending = append(c.Pending, li)
	}

	if c.Purchases == nil {
		c.Purchases = []LineItem{}
	}
	if c.Payments == nil {
		c.Payments = []PaymentItem{}
	}
	if c.Pending == nil {
		c.Pending = []LineItem{}
	}
	return nil
}

// decodeID reads a string id or a legacy numeric one.
func decodeID(data json.RawMessage) (string, error) {
	if len(data) == 0 || string(data) == "null" {
		return "", nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return "", err
		}
		return id, nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", fmt.Errorf("customer id: %w", err)
	}
	return n.String(), nil
}

// Statement is a customer record with its derived totals.
type Statement struct {
	Customer       *CustomerRecord `json:"customer"`
	TotalPurchases decimal.Decimal `json:"totalPurchases"`
	TotalPayments  decimal.Decimal `json:"totalPayments"`
	PendingTotal   decimal.Decimal `json:"pendingTotal"`
	Balance        decimal.Decimal `json:"balance"` // positive: customer owes
}
