package models

type Repository interface {
	CreateDonation(donation *Donation) error
	GetDonationByID(id string) (*Donation, error)
	GetDonationByProcessorID(processorID string) (*Donation, error)
	UpdateDonationStatusByProcessorID(processorID string, status DonationStatus) error
	RecentCompletedDonations(limit int) ([]*Donation, error)
	AllDonations(limit, offset int) ([]*Donation, int64, error)
	CompletedTotalsByCurrency() ([]*CurrencyTotal, error)
	DistinctDonorCount() (int64, error)

	AppendAuditLog(entry *AuditLogEntry) error
	LastAuditHash() (string, error)
	AuditLogChain() ([]*AuditLogEntry, error)

	// RecordWebhookEvent inserts the event into the dedup ledger. It reports
	// false when the (provider, event id) pair was already recorded.
	RecordWebhookEvent(event *WebhookEvent) (bool, error)

	Close() error
}
