package repository

import (
	"context"
	"sync"
	"time"

	"github.com/akylbek/payment-system/checkout-service/internal/models"
)

// MemoryLedger is a process-local dispatch ledger. Claims do not survive a
// restart.
type MemoryLedger struct {
	mu      sync.Mutex
	records map[string]models.DispatchRecord
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[string]models.DispatchRecord)}
}

func (l *MemoryLedger) Claim(_ context.Context, record models.DispatchRecord) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.records[record.PaymentID]; ok {
		return false, nil
	}
	if record.DispatchedAt.IsZero() {
		record.DispatchedAt = time.Now().UTC()
	}
	l.records[record.PaymentID] = record
	return true, nil
}

func (l *MemoryLedger) Release(_ context.Context, paymentID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.records, paymentID)
	return nil
}

func (l *MemoryLedger) Get(_ context.Context, paymentID string) (*models.DispatchRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.records[paymentID]
	if !ok {
		return nil, ErrDispatchNotFound
	}
	return &record, nil
}
