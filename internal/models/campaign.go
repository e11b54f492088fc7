package models

import "context"

// InitiateDonationInput is the request to start a donation.
type InitiateDonationInput struct {
	Amount      float64
	DonorEmail  string
	DonorName   string
	Message     string
	IsAnonymous bool
	Locale      string
	// IPCountry is the best-effort country code from request headers.
	IPCountry string
}

// InitiateDonationResult is returned so the caller can redirect the donor
// to the hosted payment page.
type InitiateDonationResult struct {
	SessionID  string `json:"sessionId"`
	URL        string `json:"url"`
	DonationID string `json:"donationId"`
}

// ChainVerification is the outcome of recomputing the audit hash chain.
type ChainVerification struct {
	Valid   bool  `json:"valid"`
	Entries int   `json:"entries"`
	// BadEntryID is the first entry whose stored hash does not match the
	// recomputation, 0 when the chain is intact.
	BadEntryID int64 `json:"bad_entry_id,omitempty"`
}

// CampaignI is the donation lifecycle service consumed by the HTTP layer.
type CampaignI interface {
	// InitiateDonation creates a hosted checkout session and a pending
	// donation record pointing at it.
	InitiateDonation(ctx context.Context, input *InitiateDonationInput) (*InitiateDonationResult, error)

	// HandleWebhookEvent verifies and reconciles one processor webhook
	// delivery: status transition, audit entry, confirmation notification.
	HandleWebhookEvent(ctx context.Context, payload []byte, signature string) error

	RecentDonations(limit int) ([]*PublicDonation, error)
	CampaignStats() (*Stats, error)
	AllDonations(limit, offset int) ([]*Donation, int64, error)
	VerifyAuditChain() (*ChainVerification, error)
	// RecordAdminEvent appends an admin_* entry to the audit log.
	RecordAdminEvent(action string, data any) error
}
