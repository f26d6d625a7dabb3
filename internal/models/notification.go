package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	NotificationTypePayment = "payment"
	ActionPaymentUpdated    = "payment.updated"
)

var ErrMissingReference = errors.New("notification carries no payment reference")

// NotificationEvent is the processor's webhook payload. Only the fields the
// reconciler needs are modelled; everything else is ignored on decode.
type NotificationEvent struct {
	Type   string           `json:"type"`
	Action string           `json:"action,omitempty"`
	Data   PaymentReference `json:"data"`
}

// Actionable reports whether the event may concern a payment status change.
func (e NotificationEvent) Actionable() bool {
	return e.Type == NotificationTypePayment || e.Action == ActionPaymentUpdated
}

type ReferenceKind int

const (
	ReferenceAbsent ReferenceKind = iota
	ReferenceBare
	ReferenceObject
)

func (k ReferenceKind) String() string {
	switch k {
	case ReferenceBare:
		return "bare"
	case ReferenceObject:
		return "object"
	default:
		return "absent"
	}
}

// PaymentReference is the `data` field of a notification. The processor sends
// it either as {"id": ...} or as the identifier itself, with the id encoded as
// a string or a number.
type PaymentReference struct {
	Kind ReferenceKind
	id   string
}

func BareReference(id string) PaymentReference {
	return PaymentReference{Kind: ReferenceBare, id: id}
}

func ObjectReference(id string) PaymentReference {
	return PaymentReference{Kind: ReferenceObject, id: id}
}

// ID returns the normalized payment identifier.
func (r PaymentReference) ID() (string, error) {
	if r.Kind == ReferenceAbsent || r.id == "" {
		return "", ErrMissingReference
	}
	return r.id, nil
}

func (r *PaymentReference) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = PaymentReference{}
		return nil
	}

	if b[0] == '{' {
		var obj struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return fmt.Errorf("decode payment reference: %w", err)
		}
		id, err := scalarString(obj.ID)
		if err != nil {
			return fmt.Errorf("decode payment reference id: %w", err)
		}
		*r = ObjectReference(id)
		return nil
	}

	id, err := scalarString(b)
	if err != nil {
		return fmt.Errorf("decode payment reference: %w", err)
	}
	*r = BareReference(id)
	return nil
}

func (r PaymentReference) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case ReferenceObject:
		return json.Marshal(map[string]string{"id": r.id})
	case ReferenceBare:
		return json.Marshal(r.id)
	default:
		return []byte("null"), nil
	}
}

// scalarString accepts a JSON string or number and returns its text.
func scalarString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", fmt.Errorf("unsupported identifier %s", string(raw))
	}
}
