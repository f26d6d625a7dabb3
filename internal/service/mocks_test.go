package service_test

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"

	"github.com/akylbek/payment-system/checkout-service/internal/models"
)

var (
	errProcessor = errors.New("mercadopago: status 401: invalid access token")
	errLedger    = errors.New("redis: connection refused")
)

type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) CreatePreference(ctx context.Context, pref models.PreferenceDescriptor) (*models.PreferenceResult, error) {
	args := m.Called(ctx, pref)
	res, _ := args.Get(0).(*models.PreferenceResult)
	return res, args.Error(1)
}

func (m *mockProcessor) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	args := m.Called(ctx, paymentID)
	p, _ := args.Get(0).(*models.Payment)
	return p, args.Error(1)
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Fulfill(ctx context.Context, req models.FulfillmentRequest) error {
	return m.Called(ctx, req).Error(0)
}

// brokenLedger fails every call.
type brokenLedger struct{}

func (brokenLedger) Claim(context.Context, models.DispatchRecord) (bool, error) {
	return false, errLedger
}

func (brokenLedger) Release(context.Context, string) error {
	return errLedger
}

func (brokenLedger) Get(context.Context, string) (*models.DispatchRecord, error) {
	return nil, errLedger
}
