package models

import "context"

// Checkout event kinds handled by the lifecycle service. Any other verified
// kind is acknowledged as a no-op.
const (
	CheckoutEventCompleted = "checkout.session.completed"
	CheckoutEventExpired   = "checkout.session.expired"
)

// CheckoutSessionParams carries everything the gateway needs to create a
// hosted checkout session.
type CheckoutSessionParams struct {
	// AmountMinor is the donation amount in minor units (cents).
	AmountMinor int64
	Currency    Currency
	// Locale selects the product description language on the hosted page.
	Locale      string
	DonorName   string
	DonorEmail  string
	Message     string
	IsAnonymous bool
}

// CheckoutSession is the gateway's handle to a hosted payment page.
type CheckoutSession struct {
	// ID is the processor's session identifier, used as Donation.ProcessorID.
	ID string
	// URL is the hosted payment page the donor is redirected to.
	URL string
}

// CheckoutEvent is a verified webhook event, already parsed out of the
// processor's envelope.
type CheckoutEvent struct {
	// ID is the processor's event id (dedup key), distinct from the session id.
	ID string
	// Type is the raw verified event type string.
	Type string
	// SessionID is the checkout session the event refers to, empty for
	// event types that do not carry a session.
	SessionID string
	// AmountMinor is the session total in minor units, from the payload.
	AmountMinor int64
	// Currency is the session currency, upper-cased (e.g. "USD").
	Currency Currency
	// CustomerEmail is the email the processor collected, if any.
	CustomerEmail string
	// Metadata echoes the key/value pairs attached at session creation.
	Metadata map[string]string
}

// PaymentGateway wraps the hosted-checkout processor: creating payment
// sessions and verifying asynchronous event deliveries against the shared
// webhook secret.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, params *CheckoutSessionParams) (*CheckoutSession, error)
	// VerifyEvent checks the signature over the raw payload and parses the
	// event. It must not be called with an empty signature.
	VerifyEvent(payload []byte, signature string) (*CheckoutEvent, error)
}
