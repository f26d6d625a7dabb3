package models

import "github.com/shopspring/decimal"

// OrderRequest is the client payload for POST /create-preference.
type OrderRequest struct {
	Name    string          `json:"nombre"`
	Email   string          `json:"email"`
	Service string          `json:"servicio"`
	Price   decimal.Decimal `json:"precio"`
}

const AutoReturnApproved = "approved"

type PreferenceItem struct {
	Title      string  `json:"title"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
	CurrencyID string  `json:"currency_id,omitempty"`
}

type PreferencePayer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// PreferenceDescriptor is the body sent to the processor's preference endpoint.
type PreferenceDescriptor struct {
	Items             []PreferenceItem `json:"items"`
	Payer             PreferencePayer  `json:"payer"`
	BackURLs          BackURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return"`
	NotificationURL   string           `json:"notification_url"`
	ExternalReference string           `json:"external_reference,omitempty"`
}

type PreferenceResult struct {
	RedirectURL  string `json:"redirectUrl"`
	PreferenceID string `json:"preferenceId"`
}
