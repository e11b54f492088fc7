package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/industriousparadigm/dr-jose-gomes/internal/models"
	"github.com/industriousparadigm/dr-jose-gomes/pkg/logger"
)

// StripeGateway creates hosted checkout sessions and verifies webhook
// deliveries against the shared signing secret.
type StripeGateway struct {
	logger *logger.Logger

	webhookSecret string
	siteURL       string
}

func NewStripeGateway(logger *logger.Logger, secretKey, webhookSecret, siteURL string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{
		logger:        logger,
		webhookSecret: webhookSecret,
		siteURL:       siteURL,
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, params *models.CheckoutSessionParams) (*models.CheckoutSession, error) {
	sessionParams := g.buildSessionParams(params)
	sessionParams.Params.Context = ctx

	s, err := session.New(sessionParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	g.logger.Debug("Checkout session created", "session_id", s.ID)

	return &models.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// buildSessionParams assembles the Stripe request. The success URL carries
// the session id template token plus display fields for the thank-you page;
// the metadata mirrors the donor fields so the webhook can read them back.
func (g *StripeGateway) buildSessionParams(params *models.CheckoutSessionParams) *stripe.CheckoutSessionParams {
	name, description := productText(params.Locale)

	displayName := params.DonorName
	if displayName == "" {
		displayName = "Friend"
	}
	displayAmount := strconv.FormatFloat(float64(params.AmountMinor)/100, 'f', -1, 64)

	successURL := fmt.Sprintf("%s/thank-you?session_id={CHECKOUT_SESSION_ID}&amount=%s&name=%s&message=%s",
		g.siteURL, displayAmount, url.QueryEscape(displayName), url.QueryEscape(params.Message))

	sessionParams := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(params.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(name),
						Description: stripe.String(description),
					},
					UnitAmount: stripe.Int64(params.AmountMinor),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(g.siteURL),
		SubmitType: stripe.String(string(stripe.CheckoutSessionSubmitTypeDonate)),
	}

	metadataName := params.DonorName
	if metadataName == "" {
		metadataName = "Anonymous"
	}
	sessionParams.AddMetadata("donor_name", metadataName)
	sessionParams.AddMetadata("donor_email", params.DonorEmail)
	sessionParams.AddMetadata("message", params.Message)
	sessionParams.AddMetadata("is_anonymous", strconv.FormatBool(params.IsAnonymous))

	if params.DonorEmail != "" {
		sessionParams.CustomerEmail = stripe.String(params.DonorEmail)
	}

	return sessionParams
}

// VerifyEvent checks the Stripe-Signature header over the raw payload and
// parses the event envelope. Session fields are only extracted for the
// checkout event types the lifecycle handles.
func (g *StripeGateway) VerifyEvent(payload []byte, signature string) (*models.CheckoutEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	checkoutEvent := &models.CheckoutEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	switch checkoutEvent.Type {
	case models.CheckoutEventCompleted, models.CheckoutEventExpired:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("failed to parse checkout session payload: %w", err)
		}
		checkoutEvent.SessionID = s.ID
		checkoutEvent.AmountMinor = s.AmountTotal
		checkoutEvent.Currency = models.Currency(strings.ToUpper(string(s.Currency)))
		checkoutEvent.CustomerEmail = s.CustomerEmail
		checkoutEvent.Metadata = s.Metadata
	}

	return checkoutEvent, nil
}

// productText returns the hosted-checkout product name and description for
// the donor's locale.
func productText(locale string) (string, string) {
	if locale == "pt" {
		return "Doação para Dr. José Gomes", "Apoio ao tratamento médico"
	}
	return "Donation for Dr. José Gomes", "Support for medical treatment"
}
