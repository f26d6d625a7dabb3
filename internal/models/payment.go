package models

import "time"

type PaymentStatus string

// Only StatusApproved triggers fulfillment; the rest are informational.
const (
	StatusApproved    PaymentStatus = "approved"
	StatusPending     PaymentStatus = "pending"
	StatusInProcess   PaymentStatus = "in_process"
	StatusAuthorized  PaymentStatus = "authorized"
	StatusRejected    PaymentStatus = "rejected"
	StatusCancelled   PaymentStatus = "cancelled"
	StatusRefunded    PaymentStatus = "refunded"
	StatusChargedBack PaymentStatus = "charged_back"
	StatusInMediation PaymentStatus = "in_mediation"
)

type Payer struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Payment is the authoritative record returned by the processor.
type Payment struct {
	ID                int64         `json:"id"`
	Status            PaymentStatus `json:"status"`
	StatusDetail      string        `json:"status_detail"`
	TransactionAmount float64       `json:"transaction_amount"`
	Description       string        `json:"description"`
	ExternalReference string        `json:"external_reference"`
	DateApproved      *time.Time    `json:"date_approved"`
	Payer             Payer         `json:"payer"`
}

func (p *Payment) PayerName() string {
	switch {
	case p.Payer.FirstName != "" && p.Payer.LastName != "":
		return p.Payer.FirstName + " " + p.Payer.LastName
	case p.Payer.FirstName != "":
		return p.Payer.FirstName
	default:
		return p.Payer.LastName
	}
}

type Outcome string

const (
	OutcomeIgnored            Outcome = "ignored"
	OutcomeApprovedDispatched Outcome = "approved_dispatched"
	OutcomeError              Outcome = "error"
)

// ReconcileResult is the terminal state of one notification.
type ReconcileResult struct {
	Outcome   Outcome
	PaymentID string
	Status    PaymentStatus
	Reason    string
}

// FulfillmentRequest is handed to the fulfillment sink once a payment is approved.
type FulfillmentRequest struct {
	PaymentID   string    `json:"payment_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name,omitempty"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	ApprovedAt  time.Time `json:"approved_at"`
}

// DispatchRecord marks a payment whose fulfillment has been claimed.
type DispatchRecord struct {
	PaymentID    string    `json:"payment_id"`
	Email        string    `json:"email"`
	Status       string    `json:"status"`
	DispatchedAt time.Time `json:"dispatched_at"`
}
