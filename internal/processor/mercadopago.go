package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/checkout-service/internal/config"
	"github.com/akylbek/payment-system/checkout-service/internal/models"
	"github.com/akylbek/payment-system/checkout-service/internal/telemetry"
)

const (
	opCreatePreference = "create_preference"
	opGetPayment       = "get_payment"

	maxErrorBody = 4 << 10
)

// APIError is returned for any non-2xx processor response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mercadopago: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the Mercado Pago REST API.
type Client struct {
	baseURL    string
	token      string
	sandbox    bool
	httpClient *http.Client
}

func NewClient(cfg config.MercadoPago) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		token:      cfg.AccessToken,
		sandbox:    cfg.Sandbox,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type preferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

func (c *Client) CreatePreference(ctx context.Context, pref models.PreferenceDescriptor) (*models.PreferenceResult, error) {
	body, err := json.Marshal(pref)
	if err != nil {
		return nil, fmt.Errorf("marshal preference: %w", err)
	}

	var resp preferenceResponse
	headers := map[string]string{"X-Idempotency-Key": uuid.NewString()}
	if err := c.do(ctx, opCreatePreference, http.MethodPost, "/checkout/preferences", body, headers, &resp); err != nil {
		return nil, err
	}

	redirect := resp.InitPoint
	if c.sandbox && resp.SandboxInitPoint != "" {
		redirect = resp.SandboxInitPoint
	}

	return &models.PreferenceResult{
		RedirectURL:  redirect,
		PreferenceID: resp.ID,
	}, nil
}

func (c *Client) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	var payment models.Payment
	if err := c.do(ctx, opGetPayment, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (c *Client) do(ctx context.Context, operation, method, path string, body []byte, headers map[string]string, out any) error {
	ctx, span := telemetry.Tracer.Start(ctx, "mercadopago."+operation)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("mercadopago.path", path),
	)

	start := time.Now()
	defer func() {
		telemetry.ProcessorRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return fmt.Errorf("%s request: %w", operation, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp)
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, apiErr.Message)
		telemetry.Logger.Debug("Processor returned error",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &payload); err == nil {
		switch {
		case payload.Message != "":
			msg = payload.Message
		case payload.Error != "":
			msg = payload.Error
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
