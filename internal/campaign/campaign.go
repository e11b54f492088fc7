package campaign

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/industriousparadigm/dr-jose-gomes/internal/audit"
	"github.com/industriousparadigm/dr-jose-gomes/internal/config"
	"github.com/industriousparadigm/dr-jose-gomes/internal/metrics"
	"github.com/industriousparadigm/dr-jose-gomes/internal/models"
	"github.com/industriousparadigm/dr-jose-gomes/internal/rates"
	"github.com/industriousparadigm/dr-jose-gomes/pkg/logger"
	"github.com/industriousparadigm/dr-jose-gomes/pkg/money"
)

// Lifecycle error taxonomy. Handlers map these onto HTTP status codes.
var (
	// ErrInvalidAmount rejects a donation amount that is missing, not
	// finite or below the minimum.
	ErrInvalidAmount = errors.New("invalid donation amount")
	// ErrMissingSignature rejects a webhook delivery with no signature
	// header, before any verification or parsing happens.
	ErrMissingSignature = errors.New("missing webhook signature")
	// ErrInvalidSignature rejects a delivery that fails verification.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrGateway wraps a failed payment-processor call. No donation row is
	// written when session creation fails.
	ErrGateway = errors.New("payment gateway request failed")
	// ErrPersistence wraps a failed database call.
	ErrPersistence = errors.New("persistence failed")
	// ErrNotification wraps a failed confirmation delivery. The status
	// transition and audit entry committed before it stay committed.
	ErrNotification = errors.New("notification delivery failed")
)

const (
	paymentMethodStripe = "stripe"
	placeholderDonor    = "Friend"

	defaultRecentLimit = 20
	statsRecentLimit   = 5
	defaultPageLimit   = 100
)

// Campaign orchestrates the donation lifecycle: checkout session creation,
// webhook reconciliation, audit logging and notifications.
type Campaign struct {
	logger *logger.Logger
	config *config.Config

	repo        models.Repository
	gateway     models.PaymentGateway
	notificator models.ConfirmationSender
	auditLog    *audit.Log
	rates       *rates.Service
	metrics     *metrics.DonationMetrics
}

// NewCampaign creates a new Campaign instance
func NewCampaign(
	repo models.Repository,
	gateway models.PaymentGateway,
	notificator models.ConfirmationSender,
	auditLog *audit.Log,
	ratesService *rates.Service,
	donationMetrics *metrics.DonationMetrics,
	logger *logger.Logger,
	config *config.Config,
) models.CampaignI {
	return &Campaign{
		repo:        repo,
		gateway:     gateway,
		notificator: notificator,
		auditLog:    auditLog,
		rates:       ratesService,
		metrics:     donationMetrics,
		logger:      logger,
		config:      config,
	}
}

// InitiateDonation creates a hosted checkout session and persists a pending
// donation pointing at it. If the gateway call fails nothing is written; if
// the insert fails after a successful gateway call, the orphaned external
// session is accepted and surfaced as a persistence error.
func (c *Campaign) InitiateDonation(ctx context.Context, input *models.InitiateDonationInput) (*models.InitiateDonationResult, error) {
	if math.IsNaN(input.Amount) || math.IsInf(input.Amount, 0) || input.Amount < c.config.MinDonationAmount {
		return nil, ErrInvalidAmount
	}

	start := time.Now()
	session, err := c.gateway.CreateCheckoutSession(ctx, &models.CheckoutSessionParams{
		AmountMinor: money.ToMinorUnits(input.Amount),
		Currency:    models.CurrencyUSD,
		Locale:      input.Locale,
		DonorName:   input.DonorName,
		DonorEmail:  input.DonorEmail,
		Message:     input.Message,
		IsAnonymous: input.IsAnonymous,
	})
	if err != nil {
		c.logger.Error("Failed to create checkout session", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	c.metrics.RecordCheckoutSessionDuration(time.Since(start).Seconds())

	donation := &models.Donation{
		ID:              uuid.NewString(),
		Amount:          input.Amount,
		Currency:        models.CurrencyUSD,
		PaymentMethod:   paymentMethodStripe,
		ProcessorID:     session.ID,
		DonorMessage:    optional(input.Message),
		IsAnonymous:     input.IsAnonymous,
		IsMessagePublic: !input.IsAnonymous,
		IPCountry:       input.IPCountry,
		Status:          models.DonationPending,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	// Anonymous donations never persist donor identity, regardless of what
	// the request supplied.
	if !input.IsAnonymous {
		donation.DonorName = optional(input.DonorName)
		donation.DonorEmail = optional(input.DonorEmail)
	}

	if err := c.repo.CreateDonation(donation); err != nil {
		c.logger.Error("Failed to persist donation after session creation",
			"error", err, "session_id", session.ID)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// Best-effort: an audit failure must not lose an initiated donation.
	if _, err := c.auditLog.Append(models.AuditDonationInitiated, map[string]any{
		"donation_id": donation.ID,
		"session_id":  session.ID,
		"amount":      donation.Amount,
		"currency":    donation.Currency,
	}); err != nil {
		c.logger.Warn("Failed to append donation_initiated audit entry", "error", err)
	}

	c.metrics.RecordDonationInitiated(string(donation.Currency))
	c.logger.Info("Donation initiated", "donation_id", donation.ID, "session_id", session.ID)

	return &models.InitiateDonationResult{
		SessionID:  session.ID,
		URL:        session.URL,
		DonationID: donation.ID,
	}, nil
}

// HandleWebhookEvent verifies one processor delivery and reconciles the
// referenced donation. Redeliveries of an already-recorded event id are
// acknowledged without re-running side effects.
func (c *Campaign) HandleWebhookEvent(ctx context.Context, payload []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}

	event, err := c.gateway.VerifyEvent(payload, signature)
	if err != nil {
		c.logger.Warn("Webhook signature verification failed", "error", err)
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch event.Type {
	case models.CheckoutEventCompleted, models.CheckoutEventExpired:
	default:
		c.logger.Debug("Unhandled event type", "type", event.Type)
		c.metrics.RecordWebhookEvent(event.Type, "ignored")
		return nil
	}

	firstDelivery, err := c.repo.RecordWebhookEvent(&models.WebhookEvent{
		Provider:   paymentMethodStripe,
		EventID:    event.ID,
		EventType:  event.Type,
		ReceivedAt: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !firstDelivery {
		c.logger.Info("Duplicate webhook delivery skipped", "event_id", event.ID, "type", event.Type)
		c.metrics.RecordWebhookEvent(event.Type, "duplicate")
		return nil
	}

	switch event.Type {
	case models.CheckoutEventCompleted:
		return c.reconcileCompleted(event)
	case models.CheckoutEventExpired:
		return c.reconcileExpired(event)
	}
	return nil
}

func (c *Campaign) reconcileCompleted(event *models.CheckoutEvent) error {
	if err := c.repo.UpdateDonationStatusByProcessorID(event.SessionID, models.DonationCompleted); err != nil {
		c.metrics.RecordWebhookEvent(event.Type, "error")
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// Amount and email come from the verified payload, not re-derived.
	if _, err := c.auditLog.Append(models.AuditDonationCompleted, map[string]any{
		"session_id":     event.SessionID,
		"amount":         event.AmountMinor,
		"customer_email": event.CustomerEmail,
	}); err != nil {
		c.metrics.RecordWebhookEvent(event.Type, "error")
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	currency := event.Currency
	if currency == "" {
		currency = models.CurrencyUSD
	}
	c.metrics.RecordDonationCompleted(string(currency), float64(event.AmountMinor)/money.MinorUnitsPerUnit)
	c.metrics.RecordWebhookEvent(event.Type, "processed")
	c.logger.Info("Donation completed", "session_id", event.SessionID)

	displayName := event.Metadata["donor_name"]
	if displayName == "" {
		displayName = placeholderDonor
	}
	formattedAmount := money.FormatMinorUnits(event.AmountMinor)

	c.notificator.NotifyAdmins(displayName, formattedAmount)

	if event.CustomerEmail == "" {
		return nil
	}
	if err := c.notificator.SendDonationConfirmation(event.CustomerEmail, displayName, formattedAmount, event.Metadata["message"]); err != nil {
		c.metrics.RecordNotificationFailure()
		return fmt.Errorf("%w: %v", ErrNotification, err)
	}

	return nil
}

func (c *Campaign) reconcileExpired(event *models.CheckoutEvent) error {
	if err := c.repo.UpdateDonationStatusByProcessorID(event.SessionID, models.DonationFailed); err != nil {
		c.metrics.RecordWebhookEvent(event.Type, "error")
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if _, err := c.auditLog.Append(models.AuditDonationFailed, map[string]any{
		"session_id": event.SessionID,
	}); err != nil {
		c.metrics.RecordWebhookEvent(event.Type, "error")
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	currency := event.Currency
	if currency == "" {
		currency = models.CurrencyUSD
	}
	c.metrics.RecordDonationFailed(string(currency))
	c.metrics.RecordWebhookEvent(event.Type, "processed")
	c.logger.Info("Donation failed, checkout session expired", "session_id", event.SessionID)

	return nil
}

// RecentDonations returns the public feed: completed donations, newest
// first, anonymized per the donor's flags.
func (c *Campaign) RecentDonations(limit int) ([]*models.PublicDonation, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	donations, err := c.repo.RecentCompletedDonations(limit)
	if err != nil {
		return nil, err
	}

	public := make([]*models.PublicDonation, 0, len(donations))
	for _, donation := range donations {
		public = append(public, donation.Public())
	}
	return public, nil
}

// CampaignStats aggregates completed donations into the progress snapshot,
// converting each currency into USD via the rates service.
func (c *Campaign) CampaignStats() (*models.Stats, error) {
	totals, err := c.repo.CompletedTotalsByCurrency()
	if err != nil {
		return nil, err
	}

	totalRaised := 0.0
	for _, total := range totals {
		totalRaised += total.Total * c.rates.USDRate(total.Currency)
	}

	donorCount, err := c.repo.DistinctDonorCount()
	if err != nil {
		return nil, err
	}

	recent, err := c.RecentDonations(statsRecentLimit)
	if err != nil {
		return nil, err
	}

	return &models.Stats{
		TotalRaised:     totalRaised,
		DonorCount:      donorCount,
		GoalAmount:      c.config.GoalAmount,
		RecentDonations: recent,
	}, nil
}

// AllDonations returns the full records for admin reporting.
func (c *Campaign) AllDonations(limit, offset int) ([]*models.Donation, int64, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return c.repo.AllDonations(limit, offset)
}

// VerifyAuditChain recomputes the audit hash chain from the first entry.
func (c *Campaign) VerifyAuditChain() (*models.ChainVerification, error) {
	return c.auditLog.Verify()
}

// RecordAdminEvent appends an admin event to the audit log.
func (c *Campaign) RecordAdminEvent(action string, data any) error {
	_, err := c.auditLog.Append("admin_"+action, data)
	return err
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
