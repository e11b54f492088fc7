package models

import "time"

// DonationStatus is the lifecycle state of a donation.
type DonationStatus string

const (
	// DonationPending is set when a checkout session has been created but
	// no funds have moved yet.
	DonationPending DonationStatus = "pending"
	// DonationCompleted is set when the payment processor confirms the
	// checkout session completed.
	DonationCompleted DonationStatus = "completed"
	// DonationFailed is set when the checkout session expires without payment.
	DonationFailed DonationStatus = "failed"
	// DonationRefunded is a declared state with no producer in this system.
	DonationRefunded DonationStatus = "refunded"
)

// Currency is one of the small fixed set of accepted currencies.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyBRL Currency = "BRL"
	CurrencyEUR Currency = "EUR"
)

// Donation is a record of one contribution attempt. Rows are created in
// pending status when a checkout session is created and are never deleted.
type Donation struct {
	// ID is the opaque unique identifier, generated at creation.
	ID string `json:"id" gorm:"column:id;primaryKey"`
	// Amount is the donated amount in whole currency units.
	Amount float64 `json:"amount" gorm:"column:amount;not null"`
	// Currency the donation was made in.
	Currency Currency `json:"currency" gorm:"column:currency;not null"`
	// PaymentMethod is the processor used, e.g. "stripe".
	PaymentMethod string `json:"payment_method" gorm:"column:payment_method;not null"`
	// ProcessorID is the external checkout session id. It is the
	// reconciliation key for webhook events; exactly one row per id.
	ProcessorID string `json:"processor_id" gorm:"column:processor_id;uniqueIndex;not null"`
	// DonorName is nil for anonymous donations.
	DonorName *string `json:"donor_name" gorm:"column:donor_name"`
	// DonorEmail is nil for anonymous donations.
	DonorEmail *string `json:"donor_email" gorm:"column:donor_email"`
	// DonorMessage is an optional message from the donor.
	DonorMessage *string `json:"donor_message" gorm:"column:donor_message"`
	// IsAnonymous forces donor name/email to be nulled at write time.
	IsAnonymous bool `json:"is_anonymous" gorm:"column:is_anonymous;not null"`
	// IsMessagePublic gates whether the message may appear in public feeds.
	IsMessagePublic bool `json:"is_message_public" gorm:"column:is_message_public;not null"`
	// IPCountry is a best-effort country code taken from request headers.
	IPCountry string `json:"ip_country" gorm:"column:ip_country"`
	// Status of the donation lifecycle.
	Status DonationStatus `json:"status" gorm:"column:status;index;not null"`
	// CreatedAt is set at insert and never changes.
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;index"`
	// UpdatedAt is bumped on every status transition.
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// PublicDonation is the anonymized shape served by the public feed.
type PublicDonation struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Currency    Currency  `json:"currency"`
	DisplayName string    `json:"display_name"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Public converts a donation into its feed representation, hiding the
// donor identity when the donation is anonymous and the message unless it
// was marked public.
func (d *Donation) Public() *PublicDonation {
	pub := &PublicDonation{
		ID:          d.ID,
		Amount:      d.Amount,
		Currency:    d.Currency,
		DisplayName: "Anonymous",
		CreatedAt:   d.CreatedAt,
	}
	if !d.IsAnonymous && d.DonorName != nil && *d.DonorName != "" {
		pub.DisplayName = *d.DonorName
	}
	if d.IsMessagePublic && d.DonorMessage != nil {
		pub.Message = *d.DonorMessage
	}
	return pub
}

// CurrencyTotal is the completed-donation sum for one currency.
type CurrencyTotal struct {
	Currency Currency `json:"currency"`
	Total    float64  `json:"total"`
}

// Stats is the campaign progress snapshot served to the landing page.
type Stats struct {
	TotalRaised     float64           `json:"total_raised"`
	DonorCount      int64             `json:"donor_count"`
	GoalAmount      float64           `json:"goal_amount"`
	RecentDonations []*PublicDonation `json:"recent_donations"`
}
