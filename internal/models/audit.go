package models

// Audit event types written by the donation lifecycle. Admin handlers may
// append arbitrary "admin_*" events on top of these.
const (
	AuditDonationInitiated = "donation_initiated"
	AuditDonationCompleted = "donation_completed"
	AuditDonationFailed    = "donation_failed"
	AuditDonationRefunded  = "donation_refunded"
)

// AuditLogEntry is one link of the tamper-evident audit chain. The hash is
// sha256(previousHash || json{event_type, event_data, timestamp}); the first
// entry chains from the empty string.
type AuditLogEntry struct {
	// ID is assigned by the database; chain order is id order.
	ID int64 `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	// EventType names the lifecycle or admin event.
	EventType string `json:"event_type" gorm:"column:event_type;index;not null"`
	// EventData is the serialized JSON payload of the event.
	EventData string `json:"event_data" gorm:"column:event_data;not null"`
	// Hash is the hex sha256 over the previous hash and this entry.
	Hash string `json:"hash" gorm:"column:hash;not null"`
	// Timestamp is the unix time the entry was hashed. It participates in
	// the hash, so it is stored verbatim rather than derived at read time.
	Timestamp int64 `json:"timestamp" gorm:"column:timestamp;not null"`
}

// WebhookEvent is the dedup ledger for processor webhook deliveries. The
// unique (provider, event_id) index makes side effects run at most once per
// provider event even when the processor redelivers.
type WebhookEvent struct {
	ID int64 `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	// Provider is the payment processor that delivered the event.
	Provider string `json:"provider" gorm:"column:provider;not null;uniqueIndex:ux_webhook_events_provider_event"`
	// EventID is the processor's unique id for the event.
	EventID string `json:"event_id" gorm:"column:event_id;not null;uniqueIndex:ux_webhook_events_provider_event"`
	// EventType is the verified event type string.
	EventType string `json:"event_type" gorm:"column:event_type;not null"`
	// ReceivedAt is the unix time of first delivery.
	ReceivedAt int64 `json:"received_at" gorm:"column:received_at;not null"`
}
