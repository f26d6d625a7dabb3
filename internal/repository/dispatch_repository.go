package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/akylbek/payment-system/checkout-service/internal/models"
)

var ErrDispatchNotFound = errors.New("dispatch record not found")

// DispatchRepository is the durable dispatch ledger backed by PostgreSQL.
type DispatchRepository struct {
	db *sql.DB
}

func NewDispatchRepository(db *sql.DB) *DispatchRepository {
	return &DispatchRepository{db: db}
}

func (r *DispatchRepository) InitDB() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS fulfillment_dispatches (
			payment_id VARCHAR(64) PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			status VARCHAR(50) NOT NULL,
			dispatched_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fulfillment_dispatches_dispatched_at ON fulfillment_dispatches(dispatched_at)`,
	}

	for _, query := range queries {
		if _, err := r.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

func (r *DispatchRepository) Claim(ctx context.Context, record models.DispatchRecord) (bool, error) {
	if record.DispatchedAt.IsZero() {
		record.DispatchedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO fulfillment_dispatches (payment_id, email, status, dispatched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (payment_id) DO NOTHING
	`, record.PaymentID, record.Email, record.Status, record.DispatchedAt)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *DispatchRepository) Release(ctx context.Context, paymentID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM fulfillment_dispatches WHERE payment_id = $1`, paymentID)
	return err
}

func (r *DispatchRepository) Get(ctx context.Context, paymentID string) (*models.DispatchRecord, error) {
	record := models.DispatchRecord{PaymentID: paymentID}
	err := r.db.QueryRowContext(ctx, `
		SELECT email, status, dispatched_at
		FROM fulfillment_dispatches WHERE payment_id = $1
	`, paymentID).Scan(&record.Email, &record.Status, &record.DispatchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDispatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
