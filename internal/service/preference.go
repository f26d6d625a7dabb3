package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/checkout-service/internal/config"
	"github.com/akylbek/payment-system/checkout-service/internal/interfaces"
	"github.com/akylbek/payment-system/checkout-service/internal/models"
	"github.com/akylbek/payment-system/checkout-service/internal/telemetry"
)

// ErrPreferenceCreation hides processor failures from API clients.
var ErrPreferenceCreation = errors.New("preference creation failed")

const webhookPath = "/webhook"

type PreferenceService struct {
	processor   interfaces.PaymentProcessor
	frontendURL string
	backendURL  string
}

func NewPreferenceService(cfg *config.Config, processor interfaces.PaymentProcessor) *PreferenceService {
	return &PreferenceService{
		processor:   processor,
		frontendURL: cfg.FrontendURL,
		backendURL:  cfg.BackendURL,
	}
}

// BuildPreference derives the processor request from an order. The price is
// forwarded as-is; the processor validates it.
func (s *PreferenceService) BuildPreference(order models.OrderRequest) models.PreferenceDescriptor {
	return models.PreferenceDescriptor{
		Items: []models.PreferenceItem{{
			Title:     order.Service,
			UnitPrice: order.Price.InexactFloat64(),
			Quantity:  1,
		}},
		Payer: models.PreferencePayer{
			Name:  order.Name,
			Email: order.Email,
		},
		BackURLs: models.BackURLs{
			Success: s.frontendURL + "/success",
			Failure: s.frontendURL + "/failure",
			Pending: s.frontendURL + "/pending",
		},
		AutoReturn:        models.AutoReturnApproved,
		NotificationURL:   s.backendURL + webhookPath,
		ExternalReference: uuid.NewString(),
	}
}

// CreatePreference makes a single attempt; callers retry the whole request.
func (s *PreferenceService) CreatePreference(ctx context.Context, order models.OrderRequest) (*models.PreferenceResult, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "preference.Create")
	defer span.End()

	pref := s.BuildPreference(order)
	span.SetAttributes(attribute.String("preference.external_reference", pref.ExternalReference))

	telemetry.Logger.Info("Creating payment preference",
		zap.String("service", order.Service),
		zap.String("price", order.Price.String()),
		zap.String("email", order.Email),
		zap.String("external_reference", pref.ExternalReference),
	)

	result, err := s.processor.CreatePreference(ctx, pref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "processor rejected preference")
		telemetry.PreferencesTotal.WithLabelValues("failed").Inc()
		telemetry.Logger.Error("Failed to create payment preference",
			zap.String("external_reference", pref.ExternalReference),
			zap.Error(err),
		)
		return nil, ErrPreferenceCreation
	}

	telemetry.PreferencesTotal.WithLabelValues("created").Inc()
	telemetry.Logger.Info("Payment preference created",
		zap.String("preference_id", result.PreferenceID),
		zap.String("redirect_url", result.RedirectURL),
	)
	return result, nil
}
