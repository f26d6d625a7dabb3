package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/checkout-service/internal/interfaces"
	"github.com/akylbek/payment-system/checkout-service/internal/models"
)

var (
	_ interfaces.FulfillmentSink = LogSink{}
	_ interfaces.FulfillmentSink = (*KafkaSink)(nil)
	_ interfaces.FulfillmentSink = (*NatsSink)(nil)
	_ MessageWriter              = (*kafka.Writer)(nil)
	_ Publisher                  = (*nats.Conn)(nil)
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

type fakePublisher struct {
	subject string
	data    []byte
	err     error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.subject = subject
	p.data = data
	return p.err
}

var approved = models.FulfillmentRequest{
	PaymentID: "123456789",
	Email:     "ana@x.com",
	Name:      "Ana",
	Amount:    100,
}

func TestLogSink(t *testing.T) {
	assert.NoError(t, NewLogSink().Fulfill(context.Background(), approved))
}

func TestKafkaSink_PublishesKeyedMessage(t *testing.T) {
	writer := &fakeWriter{}
	sink := NewKafkaSink(writer)

	require.NoError(t, sink.Fulfill(context.Background(), approved))
	require.Len(t, writer.msgs, 1)
	assert.Equal(t, "123456789", string(writer.msgs[0].Key))

	var got models.FulfillmentRequest
	require.NoError(t, json.Unmarshal(writer.msgs[0].Value, &got))
	assert.Equal(t, "ana@x.com", got.Email)
}

func TestKafkaSink_WriteError(t *testing.T) {
	sink := NewKafkaSink(&fakeWriter{err: errors.New("broker unavailable")})

	err := sink.Fulfill(context.Background(), approved)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
}

func TestNatsSink(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewNatsSink(pub, "fulfillment.requested")

	require.NoError(t, sink.Fulfill(context.Background(), approved))
	assert.Equal(t, "fulfillment.requested", pub.subject)
	assert.Contains(t, string(pub.data), `"email":"ana@x.com"`)

	pub.err = errors.New("nats: connection closed")
	assert.Error(t, sink.Fulfill(context.Background(), approved))
}
