package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/industriousparadigm/dr-jose-gomes/internal/models"
	"github.com/industriousparadigm/dr-jose-gomes/pkg/logger"
)

// Log is the append-only, tamper-evident audit log. Each entry's hash is
// computed over the previous entry's hash and the serialized event, forming
// a chain that can be re-verified from the first row. The previous hash is
// seeded from storage at construction and appends are serialized, so the
// chain stays verifiable across process restarts.
type Log struct {
	logger *logger.Logger
	repo   models.Repository

	mu       sync.Mutex
	lastHash string
}

// chainedEvent is the exact byte layout that participates in the hash.
type chainedEvent struct {
	EventType string          `json:"event_type"`
	EventData json.RawMessage `json:"event_data"`
	Timestamp int64           `json:"timestamp"`
}

func NewLog(repo models.Repository, logger *logger.Logger) (*Log, error) {
	lastHash, err := repo.LastAuditHash()
	if err != nil {
		return nil, fmt.Errorf("failed to seed audit chain: %w", err)
	}

	return &Log{
		logger:   logger,
		repo:     repo,
		lastHash: lastHash,
	}, nil
}

// Append serializes the event, chains it onto the last hash and persists it.
func (l *Log) Append(eventType string, eventData any) (*models.AuditLogEntry, error) {
	payload, err := json.Marshal(eventData)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize audit event data: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Unix()
	hash, err := chainHash(l.lastHash, eventType, payload, timestamp)
	if err != nil {
		return nil, err
	}

	entry := &models.AuditLogEntry{
		EventType: eventType,
		EventData: string(payload),
		Hash:      hash,
		Timestamp: timestamp,
	}
	if err := l.repo.AppendAuditLog(entry); err != nil {
		return nil, err
	}

	l.lastHash = hash
	l.logger.Debug("Audit entry appended", "event_type", eventType, "hash", hash)

	return entry, nil
}

// Verify recomputes the whole chain in creation order. Any mismatch
// indicates tampering or reordering; the first bad entry is reported.
func (l *Log) Verify() (*models.ChainVerification, error) {
	entries, err := l.repo.AuditLogChain()
	if err != nil {
		return nil, err
	}

	result := &models.ChainVerification{Valid: true, Entries: len(entries)}
	previous := ""
	for _, entry := range entries {
		expected, err := chainHash(previous, entry.EventType, json.RawMessage(entry.EventData), entry.Timestamp)
		if err != nil {
			return nil, err
		}
		if expected != entry.Hash {
			result.Valid = false
			result.BadEntryID = entry.ID
			return result, nil
		}
		previous = entry.Hash
	}

	return result, nil
}

func chainHash(previousHash, eventType string, eventData json.RawMessage, timestamp int64) (string, error) {
	serialized, err := json.Marshal(chainedEvent{
		EventType: eventType,
		EventData: eventData,
		Timestamp: timestamp,
	})
	if err != nil {
		return "", fmt.Errorf("failed to serialize audit entry for hashing: %w", err)
	}

	sum := sha256.Sum256(append([]byte(previousHash), serialized...))
	return hex.EncodeToString(sum[:]), nil
}
