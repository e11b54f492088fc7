package http_api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/industriousparadigm/dr-jose-gomes/internal/campaign"
	"github.com/industriousparadigm/dr-jose-gomes/internal/config"
	"github.com/industriousparadigm/dr-jose-gomes/internal/models"
	"github.com/industriousparadigm/dr-jose-gomes/pkg/logger"
)

// fakeCampaign implements models.CampaignI with canned responses.
type fakeCampaign struct {
	initiateErr   error
	webhookErr    error
	lastSignature string
	lastInput     *models.InitiateDonationInput
	adminEvents   []string

	donations []*models.Donation
	feed      []*models.PublicDonation
}

func (f *fakeCampaign) InitiateDonation(_ context.Context, input *models.InitiateDonationInput) (*models.InitiateDonationResult, error) {
	f.lastInput = input
	if f.initiateErr != nil {
		return nil, f.initiateErr
	}
	return &models.InitiateDonationResult{
		SessionID:  "cs_test_1",
		URL:        "https://checkout.stripe.com/pay/cs_test_1",
		DonationID: "d1",
	}, nil
}

func (f *fakeCampaign) HandleWebhookEvent(_ context.Context, _ []byte, signature string) error {
	f.lastSignature = signature
	return f.webhookErr
}

func (f *fakeCampaign) RecentDonations(_ int) ([]*models.PublicDonation, error) {
	return f.feed, nil
}

func (f *fakeCampaign) CampaignStats() (*models.Stats, error) {
	return &models.Stats{TotalRaised: 110, DonorCount: 3, GoalAmount: 25000, RecentDonations: f.feed}, nil
}

func (f *fakeCampaign) AllDonations(_, _ int) ([]*models.Donation, int64, error) {
	return f.donations, int64(len(f.donations)), nil
}

func (f *fakeCampaign) VerifyAuditChain() (*models.ChainVerification, error) {
	return &models.ChainVerification{Valid: true, Entries: 4}, nil
}

func (f *fakeCampaign) RecordAdminEvent(action string, _ any) error {
	f.adminEvents = append(f.adminEvents, action)
	return nil
}

func newTestServer(fake *fakeCampaign) *HTTPServer {
	cfg := &config.Config{
		AdminUsername: "admin",
		AdminPassword: "hunter2",
	}
	return NewHTTPServer(fake, cfg, logger.NewNop())
}

func TestCreateCheckout(t *testing.T) {
	fake := &fakeCampaign{}
	server := newTestServer(fake)

	body := `{"amount": 25, "donorName": "Maria", "donorEmail": "maria@example.com", "locale": "pt"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/donations/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("CF-IPCountry", "BR")
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var result models.InitiateDonationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.SessionID != "cs_test_1" || result.URL == "" {
		t.Fatalf("unexpected result: %+v", result)
	}

	if fake.lastInput.DonorName != "Maria" || fake.lastInput.Locale != "pt" {
		t.Fatalf("input not forwarded: %+v", fake.lastInput)
	}
	if fake.lastInput.IPCountry != "BR" {
		t.Fatalf("IPCountry = %q, want BR", fake.lastInput.IPCountry)
	}
}

func TestCreateCheckoutInvalidAmount(t *testing.T) {
	fake := &fakeCampaign{initiateErr: campaign.ErrInvalidAmount}
	server := newTestServer(fake)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/donations/checkout", strings.NewReader(`{"amount": 0}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid donation amount") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestCreateCheckoutGatewayError(t *testing.T) {
	fake := &fakeCampaign{initiateErr: campaign.ErrGateway}
	server := newTestServer(fake)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/donations/checkout", strings.NewReader(`{"amount": 25}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestStripeWebhook(t *testing.T) {
	cases := []struct {
		name       string
		signature  string
		webhookErr error
		wantStatus int
		wantBody   string
	}{
		{"accepted", "sig", nil, http.StatusOK, `"received":true`},
		{"missing signature", "", campaign.ErrMissingSignature, http.StatusBadRequest, "No signature"},
		{"invalid signature", "bad", campaign.ErrInvalidSignature, http.StatusBadRequest, "Invalid signature"},
		{"handler failure", "sig", campaign.ErrPersistence, http.StatusInternalServerError, "Webhook handler failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeCampaign{webhookErr: tc.webhookErr}
			server := newTestServer(fake)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(`{}`))
			if tc.signature != "" {
				req.Header.Set("Stripe-Signature", tc.signature)
			}
			rec := httptest.NewRecorder()
			server.router.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tc.wantBody) {
				t.Fatalf("body = %s, want %s", rec.Body.String(), tc.wantBody)
			}
			if fake.lastSignature != tc.signature {
				t.Fatalf("signature forwarded as %q, want %q", fake.lastSignature, tc.signature)
			}
		})
	}
}

func TestRecentDonations(t *testing.T) {
	fake := &fakeCampaign{feed: []*models.PublicDonation{
		{ID: "d1", Amount: 25, Currency: models.CurrencyUSD, DisplayName: "Maria"},
		{ID: "d2", Amount: 10, Currency: models.CurrencyUSD, DisplayName: "Anonymous"},
	}}
	server := newTestServer(fake)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/donations/recent", nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var feed []*models.PublicDonation
	if err := json.Unmarshal(rec.Body.Bytes(), &feed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(feed) != 2 || feed[1].DisplayName != "Anonymous" {
		t.Fatalf("unexpected feed: %+v", feed)
	}
}

func TestStats(t *testing.T) {
	server := newTestServer(&fakeCampaign{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats models.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalRaised != 110 || stats.DonorCount != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestAdminRequiresCredentials(t *testing.T) {
	server := newTestServer(&fakeCampaign{})

	for _, path := range []string{"/api/v1/admin/donations", "/api/v1/admin/export", "/api/v1/admin/audit/verify"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		server.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s status = %d, want 401", path, rec.Code)
		}
	}
}

func TestAdminDisabledWithoutPassword(t *testing.T) {
	server := NewHTTPServer(&fakeCampaign{}, &config.Config{}, logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/donations", nil)
	req.SetBasicAuth("admin", "anything")
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAdminDonations(t *testing.T) {
	fake := &fakeCampaign{donations: []*models.Donation{
		{ID: "d1", Amount: 25, Currency: models.CurrencyUSD, Status: models.DonationCompleted},
	}}
	server := newTestServer(fake)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/donations", nil)
	req.SetBasicAuth("admin", "hunter2")
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var response struct {
		Donations []*models.Donation `json:"donations"`
		Total     int64              `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if response.Total != 1 || len(response.Donations) != 1 {
		t.Fatalf("unexpected response: %+v", response)
	}
}

func TestAdminExportCSV(t *testing.T) {
	name := "Maria, Silva"
	email := "maria@example.com"
	message := "get well \"soon\""
	fake := &fakeCampaign{donations: []*models.Donation{
		{
			ID: "d1", Amount: 25, Currency: models.CurrencyUSD, PaymentMethod: "stripe",
			ProcessorID: "cs_1", DonorName: &name, DonorEmail: &email, DonorMessage: &message,
			IsMessagePublic: true, Status: models.DonationCompleted,
			CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ID: "d2", Amount: 10, Currency: models.CurrencyUSD, PaymentMethod: "stripe",
			ProcessorID: "cs_2", IsAnonymous: true, Status: models.DonationPending,
		},
	}}
	server := newTestServer(fake)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/export", nil)
	req.SetBasicAuth("admin", "hunter2")
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("Content-Type = %s", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "attachment") {
		t.Fatalf("Content-Disposition = %s", got)
	}

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header plus 2 rows", len(lines))
	}
	if lines[0] != "ID,Date,Amount,Currency,Donor Name,Donor Email,Message,Status,Anonymous,Public,Payment ID" {
		t.Fatalf("header = %s", lines[0])
	}
	// Fields with commas and quotes come back quoted.
	if !strings.Contains(lines[1], `"Maria, Silva"`) {
		t.Fatalf("row = %s", lines[1])
	}
	if !strings.Contains(lines[1], "2026-03-01T12:00:00Z") || !strings.Contains(lines[1], "25.00") {
		t.Fatalf("row = %s", lines[1])
	}
	if !strings.Contains(lines[2], "Yes") {
		t.Fatalf("anonymous row = %s", lines[2])
	}

	// The export itself lands in the audit log.
	if len(fake.adminEvents) != 1 || fake.adminEvents[0] != "export" {
		t.Fatalf("adminEvents = %v", fake.adminEvents)
	}
}

func TestAdminVerifyAudit(t *testing.T) {
	server := newTestServer(&fakeCampaign{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit/verify", nil)
	req.SetBasicAuth("admin", "hunter2")
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var verification models.ChainVerification
	if err := json.Unmarshal(rec.Body.Bytes(), &verification); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !verification.Valid || verification.Entries != 4 {
		t.Fatalf("unexpected verification: %+v", verification)
	}
}

func TestHealth(t *testing.T) {
	server := newTestServer(&fakeCampaign{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	server := newTestServer(&fakeCampaign{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "Stripe-Signature") {
		t.Fatal("Stripe-Signature missing from allowed headers")
	}
}
