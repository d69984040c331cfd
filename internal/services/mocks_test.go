package services

import (
	"context"

	"github.com/bartab/backend/internal/audit"
	"github.com/bartab/backend/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockCustomerStore struct {
	mock.Mock
}

func (m *MockCustomerStore) Put(ctx context.Context, rec *models.CustomerRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockCustomerStore) GetAll(ctx context.Context) ([]models.CustomerRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CustomerRecord), args.Error(1)
}

func (m *MockCustomerStore) GetByID(ctx context.Context, id string) (*models.CustomerRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CustomerRecord), args.Error(1)
}

func (m *MockCustomerStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCustomerStore) ClearAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCustomerStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockAuditLogger struct {
	mock.Mock
}

func (m *MockAuditLogger) Log(event audit.Event) {
	m.Called(event)
}

func (m *MockAuditLogger) LogError(operation, customerID string, err error) {
	m.Called(operation, customerID, err)
}

func newMockAuditLogger() *MockAuditLogger {
	m := &MockAuditLogger{}
	m.On("Log", mock.Anything).Return()
	m.On("LogError", mock.Anything, mock.Anything, mock.Anything).Return()
	return m
}
