package interfaces

import (
	"context"

	"github.com/akylbek/payment-system/checkout-service/internal/models"
)

// PaymentProcessor defines the calls made to the external payment processor
type PaymentProcessor interface {
	CreatePreference(ctx context.Context, pref models.PreferenceDescriptor) (*models.PreferenceResult, error)
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
}

// DispatchLedger records which payments already had fulfillment dispatched.
// Claim returns false when the payment was claimed before.
type DispatchLedger interface {
	Claim(ctx context.Context, record models.DispatchRecord) (bool, error)
	Release(ctx context.Context, paymentID string) error
	Get(ctx context.Context, paymentID string) (*models.DispatchRecord, error)
}

// FulfillmentSink performs the side effect for an approved payment
type FulfillmentSink interface {
	Fulfill(ctx context.Context, req models.FulfillmentRequest) error
}
