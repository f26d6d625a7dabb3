package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/checkout-service/internal/models"
	"github.com/akylbek/payment-system/checkout-service/internal/repository"
)

type fakePreferences struct {
	result *models.PreferenceResult
	err    error
	got    models.OrderRequest
}

func (f *fakePreferences) CreatePreference(_ context.Context, order models.OrderRequest) (*models.PreferenceResult, error) {
	f.got = order
	return f.result, f.err
}

// recordingSubmitter captures what the response looked like when Submit ran.
type recordingSubmitter struct {
	rec          *httptest.ResponseRecorder
	calls        int
	body         []byte
	query        url.Values
	codeAtSubmit int
	bodyAtSubmit string
	flushed      bool
}

func (s *recordingSubmitter) Submit(_ context.Context, body []byte, query url.Values) {
	s.calls++
	s.body = body
	s.query = query
	if s.rec != nil {
		s.codeAtSubmit = s.rec.Code
		s.bodyAtSubmit = s.rec.Body.String()
		s.flushed = s.rec.Flushed
	}
}

func newEngine(checkout *CheckoutHandler, dispatch *DispatchHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", checkout.Banner)
	r.POST("/create-preference", checkout.CreatePreference)
	r.POST("/webhook", checkout.Webhook)
	if dispatch != nil {
		r.GET("/fulfillments/:paymentId", dispatch.GetDispatch)
	}
	return r
}

func TestCreatePreference_Success(t *testing.T) {
	prefs := &fakePreferences{result: &models.PreferenceResult{
		RedirectURL:  "https://www.mercadopago.com/checkout/v1/redirect?pref_id=123-abc",
		PreferenceID: "123-abc",
	}}
	r := newEngine(NewCheckoutHandler(prefs, &recordingSubmitter{}), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/create-preference",
		bytes.NewBufferString(`{"nombre":"Ana","email":"ana@x.com","servicio":"Plan A","precio":100}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "123-abc", resp["preferenceId"])
	assert.Equal(t, "https://www.mercadopago.com/checkout/v1/redirect?pref_id=123-abc", resp["redirectUrl"])

	assert.Equal(t, "Ana", prefs.got.Name)
	assert.Equal(t, "Plan A", prefs.got.Service)
	assert.Equal(t, "100", prefs.got.Price.String())
}

func TestCreatePreference_PriceAsString(t *testing.T) {
	prefs := &fakePreferences{result: &models.PreferenceResult{PreferenceID: "p"}}
	r := newEngine(NewCheckoutHandler(prefs, &recordingSubmitter{}), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/create-preference",
		bytes.NewBufferString(`{"nombre":"Ana","email":"ana@x.com","servicio":"Plan A","precio":"49.90"}`))
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "49.9", prefs.got.Price.String())
}

func TestCreatePreference_Failures(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		prefs *fakePreferences
	}{
		{"processor error", `{"nombre":"Ana","precio":100}`, &fakePreferences{err: errors.New("preference creation failed")}},
		{"malformed json", `{"nombre":`, &fakePreferences{}},
		{"non numeric price", `{"nombre":"Ana","precio":"cien"}`, &fakePreferences{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(NewCheckoutHandler(tt.prefs, &recordingSubmitter{}), nil)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/create-preference", bytes.NewBufferString(tt.body))
			r.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"success":false,"error":"Error al crear la preferencia de pago"}`, rec.Body.String())
		})
	}
}

func TestWebhook_AcknowledgesBeforeSubmitting(t *testing.T) {
	rec := httptest.NewRecorder()
	submitter := &recordingSubmitter{rec: rec}
	r := newEngine(NewCheckoutHandler(&fakePreferences{}, submitter), nil)

	payload := `{"type":"payment","action":"payment.updated","data":{"id":"123456789"}}`
	req := httptest.NewRequest(http.MethodPost, "/webhook?data.id=123456789&type=payment", bytes.NewBufferString(payload))
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	require.Equal(t, 1, submitter.calls)
	assert.Equal(t, http.StatusOK, submitter.codeAtSubmit)
	assert.Equal(t, "OK", submitter.bodyAtSubmit)
	assert.True(t, submitter.flushed)
	assert.JSONEq(t, payload, string(submitter.body))
	assert.Equal(t, "123456789", submitter.query.Get("data.id"))
}

func TestWebhook_AlwaysOK(t *testing.T) {
	bodies := []string{"", "not json", `{"type":"merchant_order"}`, `{"type":"payment","data":"12"}`}

	for _, body := range bodies {
		submitter := &recordingSubmitter{}
		r := newEngine(NewCheckoutHandler(&fakePreferences{}, submitter), nil)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(body)))

		assert.Equal(t, http.StatusOK, rec.Code, body)
		assert.Equal(t, "OK", rec.Body.String(), body)
		assert.Equal(t, 1, submitter.calls, body)
	}
}

func TestBanner(t *testing.T) {
	r := newEngine(NewCheckoutHandler(&fakePreferences{}, &recordingSubmitter{}), nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, Banner, rec.Body.String())
}

func TestGetDispatch(t *testing.T) {
	ledger := repository.NewMemoryLedger()
	_, err := ledger.Claim(context.Background(), models.DispatchRecord{
		PaymentID:    "123456789",
		Email:        "ana@x.com",
		Status:       "approved",
		DispatchedAt: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	r := newEngine(NewCheckoutHandler(&fakePreferences{}, &recordingSubmitter{}), NewDispatchHandler(ledger))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fulfillments/123456789", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"payment_id": "123456789",
		"email": "ana@x.com",
		"status": "approved",
		"dispatched_at": "2026-10-18T12:00:00Z"
	}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fulfillments/000000", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
