package ledger

import (
	"github.com/bartab/backend/internal/models"
	"github.com/shopspring/decimal"
)

func sumLines(items []models.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Total())
	}
	return total
}

func TotalPurchases(rec *models.CustomerRecord) decimal.Decimal {
	return sumLines(rec.Purchases)
}

func TotalPayments(rec *models.CustomerRecord) decimal.Decimal {
	total := decimal.Zero
	for _, p := range rec.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// PendingTotal is what the customer would owe on top of Balance if every
// pending item were confirmed.
func PendingTotal(rec *models.CustomerRecord) decimal.Decimal {
	return sumLines(rec.Pending)
}

// Balance is purchases minus payments. Positive means the customer owes money,
// negative means they are in credit.
func Balance(rec *models.CustomerRecord) decimal.Decimal {
	return TotalPurchases(rec).Sub(TotalPayments(rec))
}

func BuildStatement(rec *models.CustomerRecord) *models.Statement {
	return &models.Statement{
		Customer:       rec,
		TotalPurchases: TotalPurchases(rec),
		TotalPayments:  TotalPayments(rec),
		PendingTotal:   PendingTotal(rec),
		Balance:        Balance(rec),
	}
}
