package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bartab/backend/internal/audit"
	"github.com/bartab/backend/internal/config"
	"github.com/bartab/backend/internal/ledger"
	"github.com/bartab/backend/internal/models"
	"github.com/bartab/backend/internal/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TabService runs every ledger change as get → transform → put while holding
// the customer's write lock. It never retries; the caller decides.
type TabService struct {
	store   store.CustomerStore
	engine  *ledger.Engine
	audit   audit.Logger
	log     zerolog.Logger
	locks   *keyedMutex
	timeout time.Duration
	quick   config.TabConfig
}

func NewTabService(st store.CustomerStore, engine *ledger.Engine, auditLog audit.Logger, log zerolog.Logger, cfg *config.Config) *TabService {
	timeout := cfg.StorageTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &TabService{
		store:   st,
		engine:  engine,
		audit:   auditLog,
		log:     log.With().Str("component", "TabService").Logger(),
		locks:   newKeyedMutex(),
		timeout: timeout,
		quick:   cfg.Tab,
	}
}

func (s *TabService) CreateCustomer(ctx context.Context, name string) (*models.Statement, error) {
	rec, err := s.engine.CreateRecord(name)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(rec.ID)
	defer unlock()

	if err := s.put(ctx, rec); err != nil {
		s.audit.LogError("create customer", rec.ID, err)
		return nil, err
	}

	s.log.Debug().Str("customer_id", rec.ID).Str("name", rec.Name).Msg("CreateCustomer - Success")
	s.audit.Log(audit.Event{
		Type:       audit.EventCustomerCreated,
		CustomerID: rec.ID,
		Operator:   audit.OperatorFrom(ctx),
		Details:    map[string]any{"name": rec.Name},
	})
	return ledger.BuildStatement(rec), nil
}

func (s *TabService) Statement(ctx context.Context, id string) (*models.Statement, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return ledger.BuildStatement(rec), nil
}

// ListCustomers returns statements for every customer whose name contains
// search (case-insensitive), sorted by name.
func (s *TabService) ListCustomers(ctx context.Context, search string) ([]*models.Statement, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	records, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, storageErr(err)
	}

	search = strings.ToLower(strings.TrimSpace(search))
	statements := make([]*models.Statement, 0, len(records))
	for i := range records {
		rec := &records[i]
		if search != "" && !strings.Contains(strings.ToLower(rec.Name), search) {
			continue
		}
		statements = append(statements, ledger.BuildStatement(rec))
	}

	sort.SliceStable(statements, func(i, j int) bool {
		a, b := strings.ToLower(statements[i].Customer.Name), strings.ToLower(statements[j].Customer.Name)
		if a != b {
			return a < b
		}
		return statements[i].Customer.ID < statements[j].Customer.ID
	})
	return statements, nil
}

func (s *TabService) RenameCustomer(ctx context.Context, id, name string) (*models.Statement, error) {
	return s.mutate(ctx, id, "rename customer", func(rec *models.CustomerRecord) (*models.CustomerRecord, *audit.Event, error) {
		next, err := s.engine.Rename(rec, name)
		if err != nil {
			return nil, nil, err
		}
		return next, &audit.Event{
			Type:    audit.EventCustomerRenamed,
			Details: map[string]any{"from": rec.Name, "to": next.Name},
		}, nil
	})
}

// AddCharge queues a pending charge. An empty RecordedBy falls back to the
// operator carried by ctx.
func (s *TabService) AddCharge(ctx context.Context, id string, in ledger.ChargeInput) (*models.Statement, error) {
	if in.RecordedBy == "" {
		in.RecordedBy = audit.OperatorFrom(ctx)
	}
	return s.mutate(ctx, id, "add charge", func(rec *models.CustomerRecord) (*models.CustomerRecord, *audit.Event, error) {
		next, err := s.engine.AddPendingCharge(rec, in)
		if err != nil {
			return nil, nil, err
		}
		item := next.Pending[len(next.Pending)-1]
		return next, &audit.Event{
			Type:     audit.EventChargeAdded,
			Operator: item.RecordedBy,
			Amount:   item.Total(),
			Details:  map[string]any{"title": item.Title, "quantity": item.Quantity},
		}, nil
	})
}

// QuickCharge queues one unit of the configured house item.
func (s *TabService) QuickCharge(ctx context.Context, id string) (*models.Statement, error) {
	return s.AddCharge(ctx, id, ledger.ChargeInput{
		Title:     s.quick.QuickItemTitle,
		UnitPrice: s.quick.QuickItemPrice,
		Quantity:  1,
	})
}

func (s *TabService) AddPayment(ctx context.Context, id string, amount decimal.Decimal, recordedBy string) (*models.Statement, error) {
	if recordedBy == "" {
		recordedBy = audit.OperatorFrom(ctx)
	}
	return s.mutate(ctx, id, "add payment", func(rec *models.CustomerRecord) (*models.CustomerRecord, *audit.Event, error) {
		next, err := s.engine.AddPayment(rec, amount, recordedBy)
		if err != nil {
			return nil, nil, err
		}
		payment := next.Payments[len(next.Payments)-1]
		return next, &audit.Event{
			Type:     audit.EventPaymentAdded,
			Operator: payment.RecordedBy,
			Amount:   payment.Amount,
			Details:  map[string]any{"balance": ledger.Balance(next).StringFixed(2)},
		}, nil
	})
}

func (s *TabService) ConfirmPending(ctx context.Context, id string, index int) (*models.Statement, error) {
	return s.mutate(ctx, id, "confirm pending", func(rec *models.CustomerRecord) (*models.CustomerRecord, *audit.Event, error) {
		next, err := s.engine.ConfirmOne(rec, index)
		if err != nil {
			return nil, nil, err
		}
		item := rec.Pending[index]
		return next, &audit.Event{
			Type:    audit.EventPendingConfirmed,
			Amount:  item.Total(),
			Details: map[string]any{"title": item.Title, "count": 1},
		}, nil
	})
}

func (s *TabService) ConfirmAllPending(ctx context.Context, id string) (*models.Statement, error) {
	return s.mutate(ctx, id, "confirm all pending", func(rec *models.CustomerRecord) (*models.CustomerRecord, *audit.Event, error) {
		return s.engine.ConfirmAll(rec), &audit.Event{
			Type:    audit.EventPendingConfirmed,
			Amount:  ledger.PendingTotal(rec),
			Details: map[string]any{"count": len(rec.Pending)},
		}, nil
	})
}

func (s *TabService) CancelPending(ctx context.Context, id string, index int) (*models.Statement, error) {
	return s.mutate(ctx, id, "cancel pending", func(rec *models.CustomerRecord) (*models.CustomerRecord, *audit.Event, error) {
		next, err := s.engine.CancelOne(rec, index)
		if err != nil {
			return nil, nil, err
		}
		item := rec.Pending[index]
		return next, &audit.Event{
			Type:    audit.EventPendingCancelled,
			Amount:  item.Total(),
			Details: map[string]any{"title": item.Title},
		}, nil
	})
}

// ResetLedger clears the customer's balance and history but keeps the customer.
func (s *TabService) ResetLedger(ctx context.Context, id string) (*models.Statement, error) {
	return s.mutate(ctx, id, "reset ledger", func(rec *models.CustomerRecord) (*models.CustomerRecord, *audit.Event, error) {
		return s.engine.ResetLedger(rec), &audit.Event{
			Type:    audit.EventLedgerReset,
			Amount:  ledger.Balance(rec),
			Details: map[string]any{"previous_balance": ledger.Balance(rec).StringFixed(2)},
		}, nil
	})
}

func (s *TabService) DeleteCustomer(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.Delete(ctx, id); err != nil {
		err = storageErr(err)
		s.audit.LogError("delete customer", id, err)
		return err
	}

	s.audit.Log(audit.Event{Type: audit.EventCustomerDeleted, CustomerID: id, Operator: audit.OperatorFrom(ctx)})
	return nil
}

// ClearAll removes every customer. It waits for in-flight writes to finish
// so none of them can resurrect a record afterwards.
func (s *TabService) ClearAll(ctx context.Context) error {
	unlock := s.locks.LockAll()
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.ClearAll(ctx); err != nil {
		err = storageErr(err)
		s.audit.LogError("clear all", "", err)
		return err
	}

	s.log.Info().Msg("ClearAll - all customers removed")
	s.audit.Log(audit.Event{Type: audit.EventStoreCleared, Operator: audit.OperatorFrom(ctx)})
	return nil
}

type transform func(rec *models.CustomerRecord) (*models.CustomerRecord, *audit.Event, error)

func (s *TabService) mutate(ctx context.Context, id, op string, fn transform) (*models.Statement, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	rec, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	next, event, err := fn(rec)
	if err != nil {
		s.log.Debug().Str("customer_id", id).Str("operation", op).Err(err).Msg("rejected")
		return nil, err
	}

	if err := s.put(ctx, next); err != nil {
		s.audit.LogError(op, id, err)
		return nil, err
	}

	if event != nil {
		event.CustomerID = id
		if event.Operator == "" {
			event.Operator = audit.OperatorFrom(ctx)
		}
		s.audit.Log(*event)
	}
	return ledger.BuildStatement(next), nil
}

func (s *TabService) get(ctx context.Context, id string) (*models.CustomerRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr(err)
	}
	return rec, nil
}

func (s *TabService) put(ctx context.Context, rec *models.CustomerRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.Put(ctx, rec); err != nil {
		return storageErr(err)
	}
	return nil
}

// storageErr reports a store timeout as ErrStorageUnavailable and leaves the
// other store errors untouched.
func storageErr(err error) error {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrVersionConflict) || errors.Is(err, store.ErrStorageUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", store.ErrStorageUnavailable, err)
	}
	return err
}
