package ledger

import (
	"testing"
	"time"

	"github.com/bartab/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 21, 30, 0, 0, time.UTC)

func newTestEngine() *Engine {
	n := 0
	return NewEngine(
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			n++
			return "cust-" + string(rune('0'+n))
		}),
	)
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, money(want).Equal(got), "want %s, got %s", want, got)
}

func TestEngine_CreateRecord(t *testing.T) {
	e := newTestEngine()

	t.Run("trims name and starts empty", func(t *testing.T) {
		rec, err := e.CreateRecord("  Alex ")
		require.NoError(t, err)
		assert.Equal(t, "Alex", rec.Name)
		assert.NotEmpty(t, rec.ID)
		assert.Empty(t, rec.Purchases)
		assert.Empty(t, rec.Payments)
		assert.Empty(t, rec.Pending)
		assert.Equal(t, fixedNow, rec.CreatedAt)
	})

	t.Run("unique ids", func(t *testing.T) {
		a, err := e.CreateRecord("A")
		require.NoError(t, err)
		b, err := e.CreateRecord("B")
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("rejects blank names", func(t *testing.T) {
		for _, name := range []string{"", "   ", "\t\n"} {
			_, err := e.CreateRecord(name)
			assert.ErrorIs(t, err, ErrInvalidName)
		}
	})

	t.Run("default engine mints uuids", func(t *testing.T) {
		rec, err := NewEngine().CreateRecord("Sam")
		require.NoError(t, err)
		assert.Len(t, rec.ID, 36)
	})
}

func TestEngine_AddPendingCharge(t *testing.T) {
	e := newTestEngine()
	rec, _ := e.CreateRecord("Alex")

	t.Run("appends one pending item", func(t *testing.T) {
		out, err := e.AddPendingCharge(rec, ChargeInput{Title: "Beer", UnitPrice: money("4.00"), Quantity: 2, RecordedBy: "kim"})
		require.NoError(t, err)
		require.Len(t, out.Pending, 1)
		assert.Empty(t, out.Purchases)
		assert.Empty(t, out.Payments)
		assert.Empty(t, rec.Pending, "input record must not change")

		item := out.Pending[0]
		assert.Equal(t, "Beer", item.Title)
		assert.Equal(t, 2, item.Quantity)
		assert.Equal(t, "kim", item.RecordedBy)
		assert.Equal(t, fixedNow, item.Timestamp)
		assertMoney(t, "8.00", item.Total())
	})

	t.Run("defaults title and attribution", func(t *testing.T) {
		out, err := e.AddPendingCharge(rec, ChargeInput{UnitPrice: money("3.5"), Quantity: 1})
		require.NoError(t, err)
		item := out.Pending[0]
		assert.Equal(t, 1, item.Quantity)
		assert.Equal(t, "Item", item.Title)
		assert.Equal(t, models.UnknownOperator, item.RecordedBy)
	})

	t.Run("free items are allowed", func(t *testing.T) {
		out, err := e.AddPendingCharge(rec, ChargeInput{Title: "Water", UnitPrice: decimal.Zero, Quantity: 1})
		require.NoError(t, err)
		assert.Len(t, out.Pending, 1)
	})

	t.Run("rounds to cents", func(t *testing.T) {
		out, err := e.AddPendingCharge(rec, ChargeInput{Title: "Shot", UnitPrice: money("2.555"), Quantity: 1})
		require.NoError(t, err)
		assertMoney(t, "2.56", out.Pending[0].UnitPrice)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := e.AddPendingCharge(rec, ChargeInput{Title: "Beer", UnitPrice: money("-1"), Quantity: 1})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects quantity below one", func(t *testing.T) {
		for _, quantity := range []int{0, -3} {
			out, err := e.AddPendingCharge(rec, ChargeInput{Title: "Beer", UnitPrice: money("4"), Quantity: quantity})
			assert.ErrorIs(t, err, ErrInvalidAmount, "quantity %d", quantity)
			assert.Nil(t, out)
		}
		assert.Empty(t, rec.Pending)
	})

	t.Run("custom default operator", func(t *testing.T) {
		eng := NewEngine(WithDefaultOperator("bar"))
		out, err := eng.AddPendingCharge(rec, ChargeInput{Title: "Beer", UnitPrice: money("4"), Quantity: 1})
		require.NoError(t, err)
		assert.Equal(t, "bar", out.Pending[0].RecordedBy)
	})
}

func TestEngine_AddPayment(t *testing.T) {
	e := newTestEngine()
	rec, _ := e.CreateRecord("Alex")

	out, err := e.AddPayment(rec, money("5"), "kim")
	require.NoError(t, err)
	require.Len(t, out.Payments, 1)
	assertMoney(t, "5", out.Payments[0].Amount)
	assert.Equal(t, "kim", out.Payments[0].RecordedBy)
	assert.Empty(t, rec.Payments)

	for _, bad := range []string{"0", "-5", "0.001"} {
		_, err := e.AddPayment(rec, money(bad), "kim")
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}

func pendingRecord(t *testing.T, e *Engine, titles ...string) *models.CustomerRecord {
	t.Helper()
	rec, err := e.CreateRecord("Alex")
	require.NoError(t, err)
	for i, title := range titles {
		rec, err = e.AddPendingCharge(rec, ChargeInput{Title: title, UnitPrice: decimal.NewFromInt(int64(i + 1)), Quantity: 1})
		require.NoError(t, err)
	}
	return rec
}

func TestEngine_ConfirmOne(t *testing.T) {
	e := newTestEngine()
	rec := pendingRecord(t, e, "a", "b", "c")

	out, err := e.ConfirmOne(rec, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, titles(out.Pending))
	assert.Equal(t, []string{"b"}, titles(out.Purchases))
	assert.Equal(t, rec.Pending[1], out.Purchases[0])
	assert.Len(t, rec.Pending, 3)

	t.Run("one past the end", func(t *testing.T) {
		_, err := e.ConfirmOne(rec, len(rec.Pending))
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
		assert.Len(t, rec.Pending, 3)
		assert.Empty(t, rec.Purchases)
	})

	t.Run("negative index", func(t *testing.T) {
		_, err := e.ConfirmOne(rec, -1)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	})
}

func TestEngine_ConfirmAll(t *testing.T) {
	e := newTestEngine()
	rec := pendingRecord(t, e, "a", "b", "c")
	rec, err := e.ConfirmOne(rec, 0)
	require.NoError(t, err)

	all := e.ConfirmAll(rec)
	assert.Empty(t, all.Pending)
	assert.Equal(t, []string{"a", "b", "c"}, titles(all.Purchases))

	t.Run("matches repeated ConfirmOne(0)", func(t *testing.T) {
		step := rec
		for range rec.Pending {
			step, err = e.ConfirmOne(step, 0)
			require.NoError(t, err)
		}
		assert.Equal(t, all.Purchases, step.Purchases)
		assert.Empty(t, step.Pending)
	})

	t.Run("adds pending totals to purchases", func(t *testing.T) {
		want := TotalPurchases(rec).Add(PendingTotal(rec))
		assert.True(t, want.Equal(TotalPurchases(all)))
	})

	t.Run("empty pending is a no-op", func(t *testing.T) {
		again := e.ConfirmAll(all)
		assert.Equal(t, all.Purchases, again.Purchases)
	})
}

func TestEngine_CancelOne(t *testing.T) {
	e := newTestEngine()
	rec := pendingRecord(t, e, "a", "b")

	out, err := e.CancelOne(rec, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, titles(out.Pending))
	assert.Empty(t, out.Purchases)

	_, err = e.CancelOne(out, 1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestEngine_Rename(t *testing.T) {
	e := newTestEngine()
	rec, _ := e.CreateRecord("Alex")

	out, err := e.Rename(rec, " Alexandra ")
	require.NoError(t, err)
	assert.Equal(t, "Alexandra", out.Name)
	assert.Equal(t, rec.ID, out.ID)

	_, err = e.Rename(rec, " ")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestScenarios(t *testing.T) {
	e := newTestEngine()

	t.Run("two beers and a partial payment", func(t *testing.T) {
		rec, err := e.CreateRecord("Alex")
		require.NoError(t, err)
		for i := 0; i < 2; i++ {
			rec, err = e.AddPendingCharge(rec, ChargeInput{Title: "Beer", UnitPrice: money("4.00"), Quantity: 1})
			require.NoError(t, err)
		}
		rec = e.ConfirmAll(rec)
		rec, err = e.AddPayment(rec, money("5.00"), "")
		require.NoError(t, err)

		assertMoney(t, "8.00", TotalPurchases(rec))
		assertMoney(t, "5.00", TotalPayments(rec))
		assertMoney(t, "3.00", Balance(rec))
	})

	t.Run("cancelled custom charge", func(t *testing.T) {
		rec, err := e.CreateRecord("Sam")
		require.NoError(t, err)
		rec, err = e.AddPendingCharge(rec, ChargeInput{Title: "Custom", UnitPrice: money("12.50"), Quantity: 2})
		require.NoError(t, err)
		rec, err = e.CancelOne(rec, 0)
		require.NoError(t, err)

		assert.Empty(t, rec.Pending)
		assert.Empty(t, rec.Purchases)
		assertMoney(t, "0", Balance(rec))
	})

	t.Run("reset clears everything", func(t *testing.T) {
		rec := pendingRecord(t, e, "a", "b")
		rec, err := e.ConfirmOne(rec, 0)
		require.NoError(t, err)
		rec, err = e.AddPayment(rec, money("10"), "")
		require.NoError(t, err)
		require.False(t, Balance(rec).IsZero())

		rec = e.ResetLedger(rec)
		assertMoney(t, "0", Balance(rec))
		assert.Empty(t, rec.Purchases)
		assert.Empty(t, rec.Payments)
		assert.Empty(t, rec.Pending)
	})

	t.Run("overpayment leaves credit", func(t *testing.T) {
		rec := pendingRecord(t, e, "a")
		rec = e.ConfirmAll(rec)
		rec, err := e.AddPayment(rec, money("20"), "")
		require.NoError(t, err)
		assertMoney(t, "-19", Balance(rec))
	})
}

func TestBuildStatement(t *testing.T) {
	e := newTestEngine()
	rec := pendingRecord(t, e, "a", "b", "c")
	rec, err := e.ConfirmOne(rec, 2)
	require.NoError(t, err)
	rec, err = e.AddPayment(rec, money("1"), "")
	require.NoError(t, err)

	st := BuildStatement(rec)
	assert.Same(t, rec, st.Customer)
	assertMoney(t, "3", st.TotalPurchases)
	assertMoney(t, "1", st.TotalPayments)
	assertMoney(t, "3", st.PendingTotal)
	assertMoney(t, "2", st.Balance)
}

func titles(items []models.LineItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Title)
	}
	return out
}
