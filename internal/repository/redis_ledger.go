package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/akylbek/payment-system/checkout-service/internal/models"
)

const dispatchKeyPrefix = "fulfillment_dispatch:"

// RedisLedger claims payments with SETNX; keys expire after ttl so the set
// stays small.
type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLedger(client *redis.Client, ttl time.Duration) *RedisLedger {
	return &RedisLedger{client: client, ttl: ttl}
}

func dispatchKey(paymentID string) string {
	return fmt.Sprintf("%s%s", dispatchKeyPrefix, paymentID)
}

func (l *RedisLedger) Claim(ctx context.Context, record models.DispatchRecord) (bool, error) {
	if record.DispatchedAt.IsZero() {
		record.DispatchedAt = time.Now().UTC()
	}

	value, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("marshal dispatch record: %w", err)
	}

	return l.client.SetNX(ctx, dispatchKey(record.PaymentID), value, l.ttl).Result()
}

func (l *RedisLedger) Release(ctx context.Context, paymentID string) error {
	return l.client.Del(ctx, dispatchKey(paymentID)).Err()
}

func (l *RedisLedger) Get(ctx context.Context, paymentID string) (*models.DispatchRecord, error) {
	value, err := l.client.Get(ctx, dispatchKey(paymentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrDispatchNotFound
	}
	if err != nil {
		return nil, err
	}

	var record models.DispatchRecord
	if err := json.Unmarshal(value, &record); err != nil {
		return nil, fmt.Errorf("unmarshal dispatch record: %w", err)
	}
	return &record, nil
}
