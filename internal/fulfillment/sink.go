package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/checkout-service/internal/models"
	"github.com/akylbek/payment-system/checkout-service/internal/telemetry"
)

// LogSink records the fulfillment instead of delivering it. It stands in for
// the credential e-mail until a delivery channel is wired.
type LogSink struct{}

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (LogSink) Fulfill(_ context.Context, req models.FulfillmentRequest) error {
	telemetry.Logger.Info("Fulfillment requested, access e-mail would be sent",
		zap.String("payment_id", req.PaymentID),
		zap.String("email", req.Email),
		zap.String("name", req.Name),
		zap.Float64("amount", req.Amount),
	)
	return nil
}

// MessageWriter is the subset of *kafka.Writer used by KafkaSink.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSink publishes approved payments for a downstream mailer.
type KafkaSink struct {
	writer MessageWriter
}

func NewKafkaSink(writer MessageWriter) *KafkaSink {
	return &KafkaSink{writer: writer}
}

func (s *KafkaSink) Fulfill(ctx context.Context, req models.FulfillmentRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal fulfillment request: %w", err)
	}

	if err := s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(req.PaymentID),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("publish fulfillment for payment %s: %w", req.PaymentID, err)
	}

	telemetry.Logger.Info("Fulfillment published to Kafka", zap.String("payment_id", req.PaymentID))
	return nil
}

// Publisher is the subset of *nats.Conn used by NatsSink.
type Publisher interface {
	Publish(subject string, data []byte) error
}

type NatsSink struct {
	conn    Publisher
	subject string
}

func NewNatsSink(conn Publisher, subject string) *NatsSink {
	return &NatsSink{conn: conn, subject: subject}
}

func (s *NatsSink) Fulfill(_ context.Context, req models.FulfillmentRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal fulfillment request: %w", err)
	}

	if err := s.conn.Publish(s.subject, payload); err != nil {
		return fmt.Errorf("publish fulfillment for payment %s: %w", req.PaymentID, err)
	}

	telemetry.Logger.Info("Fulfillment published to NATS",
		zap.String("payment_id", req.PaymentID),
		zap.String("subject", s.subject),
	)
	return nil
}
