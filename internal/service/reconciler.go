package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/checkout-service/internal/interfaces"
	"github.com/akylbek/payment-system/checkout-service/internal/models"
	"github.com/akylbek/payment-system/checkout-service/internal/telemetry"
)

// Reconciler resolves processor notifications into fulfillment. Work runs
// after the webhook has been acknowledged, so nothing here is ever reported
// back to the processor.
type Reconciler struct {
	processor   interfaces.PaymentProcessor
	ledger      interfaces.DispatchLedger
	sink        interfaces.FulfillmentSink
	minIDLength int
	now         func() time.Time

	mu       sync.Mutex
	draining bool
	wg       sync.WaitGroup
}

func NewReconciler(
	processor interfaces.PaymentProcessor,
	ledger interfaces.DispatchLedger,
	sink interfaces.FulfillmentSink,
	minIDLength int,
) *Reconciler {
	return &Reconciler{
		processor:   processor,
		ledger:      ledger,
		sink:        sink,
		minIDLength: minIDLength,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Submit reconciles a raw delivery in a detached task. The task keeps the
// request's values (trace) but not its cancellation. Once Drain has started,
// new work runs inline instead of being dropped.
func (r *Reconciler) Submit(ctx context.Context, body []byte, query url.Values) {
	detached := context.WithoutCancel(ctx)

	r.mu.Lock()
	if r.draining {
		r.mu.Unlock()
		telemetry.Logger.Warn("Reconciler draining, processing notification inline")
		r.ReconcileRaw(detached, body, query)
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	telemetry.ReconciliationsInFlight.Inc()
	go func() {
		defer r.wg.Done()
		defer telemetry.ReconciliationsInFlight.Dec()
		r.ReconcileRaw(detached, body, query)
	}()
}

// Drain waits for submitted tasks to finish or for ctx to expire.
func (r *Reconciler) Drain(ctx context.Context) error {
	r.mu.Lock()
	r.draining = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain reconciliations: %w", ctx.Err())
	}
}

// ReconcileRaw decodes a raw delivery and reconciles it. Decoding runs inside
// the same panic boundary as the rest of the pipeline.
func (r *Reconciler) ReconcileRaw(ctx context.Context, body []byte, query url.Values) models.ReconcileResult {
	return r.contained(ctx, func(ctx context.Context, paymentID *string) models.ReconcileResult {
		event, err := DecodeNotification(body, query)
		if err != nil {
			return failed("", err)
		}
		return r.reconcile(ctx, event, paymentID)
	})
}

// Reconcile runs one notification to a terminal outcome. Panics are contained
// and reported as OutcomeError.
func (r *Reconciler) Reconcile(ctx context.Context, event models.NotificationEvent) models.ReconcileResult {
	return r.contained(ctx, func(ctx context.Context, paymentID *string) models.ReconcileResult {
		return r.reconcile(ctx, event, paymentID)
	})
}

// contained runs fn under one span and one recover. fn records the payment id
// as soon as it is known so a later panic is still attributed to it.
func (r *Reconciler) contained(
	ctx context.Context,
	fn func(ctx context.Context, paymentID *string) models.ReconcileResult,
) (res models.ReconcileResult) {
	ctx, span := telemetry.Tracer.Start(ctx, "reconciler.Reconcile")
	defer span.End()

	var paymentID string
	defer func() {
		if p := recover(); p != nil {
			res = models.ReconcileResult{
				Outcome:   models.OutcomeError,
				PaymentID: paymentID,
				Reason:    fmt.Sprintf("panic: %v", p),
			}
		}
		r.finish(ctx, res)
	}()

	return fn(ctx, &paymentID)
}

func (r *Reconciler) reconcile(ctx context.Context, event models.NotificationEvent, seen *string) models.ReconcileResult {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("notification.type", event.Type),
		attribute.String("notification.action", event.Action),
		attribute.String("notification.reference_kind", event.Data.Kind.String()),
	)

	if !event.Actionable() {
		return ignored("", "not a payment notification")
	}

	paymentID, err := event.Data.ID()
	if err != nil {
		return failed("", err)
	}
	*seen = paymentID
	span.SetAttributes(attribute.String("payment.id", paymentID))

	if len(paymentID) < r.minIDLength {
		return ignored(paymentID, "test payment id, lookup skipped")
	}

	payment, err := r.processor.GetPayment(ctx, paymentID)
	if err != nil {
		return failed(paymentID, fmt.Errorf("lookup payment: %w", err))
	}

	if payment.Status != models.StatusApproved {
		res := ignored(paymentID, "payment not approved")
		res.Status = payment.Status
		return res
	}

	res := r.dispatch(ctx, paymentID, payment)
	res.Status = payment.Status
	return res
}

func (r *Reconciler) dispatch(ctx context.Context, paymentID string, payment *models.Payment) models.ReconcileResult {
	claimed, err := r.ledger.Claim(ctx, models.DispatchRecord{
		PaymentID:    paymentID,
		Email:        payment.Payer.Email,
		Status:       string(payment.Status),
		DispatchedAt: r.now(),
	})
	if err != nil {
		return failed(paymentID, fmt.Errorf("claim dispatch: %w", err))
	}
	if !claimed {
		return ignored(paymentID, "fulfillment already dispatched")
	}

	if payment.Payer.Email == "" {
		telemetry.Logger.Warn("Approved payment has no payer e-mail", zap.String("payment_id", paymentID))
	}

	approvedAt := r.now()
	if payment.DateApproved != nil {
		approvedAt = payment.DateApproved.UTC()
	}

	err = r.sink.Fulfill(ctx, models.FulfillmentRequest{
		PaymentID:   paymentID,
		Email:       payment.Payer.Email,
		Name:        payment.PayerName(),
		Amount:      payment.TransactionAmount,
		Description: payment.Description,
		ApprovedAt:  approvedAt,
	})
	if err != nil {
		// Let a redelivery of the same notification try again.
		if relErr := r.ledger.Release(ctx, paymentID); relErr != nil {
			err = errors.Join(err, fmt.Errorf("release dispatch: %w", relErr))
		}
		return failed(paymentID, fmt.Errorf("fulfill: %w", err))
	}

	return models.ReconcileResult{Outcome: models.OutcomeApprovedDispatched, PaymentID: paymentID}
}

func (r *Reconciler) finish(ctx context.Context, res models.ReconcileResult) {
	telemetry.NotificationsTotal.WithLabelValues(string(res.Outcome)).Inc()

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("reconcile.outcome", string(res.Outcome)))

	fields := []zap.Field{
		zap.String("outcome", string(res.Outcome)),
		zap.String("payment_id", res.PaymentID),
		zap.String("status", string(res.Status)),
		zap.String("reason", res.Reason),
	}

	switch res.Outcome {
	case models.OutcomeError:
		span.SetStatus(codes.Error, res.Reason)
		telemetry.Logger.Error("Notification reconciliation failed", fields...)
	case models.OutcomeApprovedDispatched:
		telemetry.Logger.Info("Payment approved, fulfillment dispatched", fields...)
	default:
		telemetry.Logger.Info("Notification ignored", fields...)
	}
}

func ignored(paymentID, reason string) models.ReconcileResult {
	return models.ReconcileResult{Outcome: models.OutcomeIgnored, PaymentID: paymentID, Reason: reason}
}

func failed(paymentID string, err error) models.ReconcileResult {
	return models.ReconcileResult{Outcome: models.OutcomeError, PaymentID: paymentID, Reason: err.Error()}
}
