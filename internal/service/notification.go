package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/akylbek/payment-system/checkout-service/internal/models"
)

// DecodeNotification parses a webhook delivery. Fields missing from the body
// are taken from the query string, which is how the legacy IPN format
// (?topic=payment&id=...) and the webhook format (?type=payment&data.id=...)
// carry them.
func DecodeNotification(body []byte, query url.Values) (models.NotificationEvent, error) {
	var event models.NotificationEvent

	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 {
		if err := json.Unmarshal(trimmed, &event); err != nil {
			return models.NotificationEvent{}, fmt.Errorf("decode notification: %w", err)
		}
	}

	if event.Type == "" {
		event.Type = firstNonEmpty(query.Get("type"), query.Get("topic"))
	}
	if _, err := event.Data.ID(); err != nil {
		if id := firstNonEmpty(query.Get("data.id"), query.Get("id")); id != "" {
			event.Data = models.BareReference(id)
		}
	}

	return event, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
