package repository

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/industriousparadigm/dr-jose-gomes/internal/models"
	"github.com/industriousparadigm/dr-jose-gomes/pkg/logger"
)

type DB struct {
	logger *logger.Logger

	Conn *gorm.DB
}

// New wraps an open gorm connection and migrates the schema. Tests use it
// with an in-memory SQLite dialector.
func New(conn *gorm.DB, logger *logger.Logger) (models.Repository, error) {
	if err := conn.AutoMigrate(&models.Donation{}, &models.AuditLogEntry{}, &models.WebhookEvent{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate models: %s", err)
	}
	return &DB{Conn: conn, logger: logger}, nil
}

func NewPostgresDB(user, password, dbname, host string, port int, logger *logger.Logger) (models.Repository, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		host, user, password, dbname, port)

	// Configure GORM logger to suppress "record not found" messages
	gormLogger := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %s", err)
	}

	db, err := New(conn, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Successfully connected to PostgreSQL!")
	return db, nil
}

func (db *DB) Close() error {
	sqlDB, err := db.Conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %s", err)
	}
	return sqlDB.Close()
}

func (db *DB) CreateDonation(donation *models.Donation) error {
	if err := db.Conn.Create(donation).Error; err != nil {
		return fmt.Errorf("failed to create donation: %s", err)
	}

	return nil
}

func (db *DB) GetDonationByID(id string) (*models.Donation, error) {
	var donation models.Donation
	if err := db.Conn.Where("id = ?", id).First(&donation).Error; err != nil {
		return nil, fmt.Errorf("failed to get donation: %s", err)
	}

	return &donation, nil
}

func (db *DB) GetDonationByProcessorID(processorID string) (*models.Donation, error) {
	var donation models.Donation
	if err := db.Conn.Where("processor_id = ?", processorID).First(&donation).Error; err != nil {
		return nil, fmt.Errorf("failed to get donation by processor id: %s", err)
	}

	return &donation, nil
}

// UpdateDonationStatusByProcessorID sets the status and bumps updated_at.
// A processor id with no matching row is not an error; the webhook may
// reference a session this instance never recorded.
func (db *DB) UpdateDonationStatusByProcessorID(processorID string, status models.DonationStatus) error {
	err := db.Conn.Model(&models.Donation{}).
		Where("processor_id = ?", processorID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update donation status: %s", err)
	}

	return nil
}

func (db *DB) RecentCompletedDonations(limit int) ([]*models.Donation, error) {
	var donations []*models.Donation
	err := db.Conn.Where("status = ?", models.DonationCompleted).
		Order("created_at DESC").
		Limit(limit).
		Find(&donations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recent donations: %s", err)
	}

	return donations, nil
}

func (db *DB) AllDonations(limit, offset int) ([]*models.Donation, int64, error) {
	var donations []*models.Donation
	err := db.Conn.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&donations).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list donations: %s", err)
	}

	var total int64
	if err := db.Conn.Model(&models.Donation{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count donations: %s", err)
	}

	return donations, total, nil
}

func (db *DB) CompletedTotalsByCurrency() ([]*models.CurrencyTotal, error) {
	var totals []*models.CurrencyTotal
	err := db.Conn.Model(&models.Donation{}).
		Select("currency, COALESCE(SUM(amount), 0) AS total").
		Where("status = ?", models.DonationCompleted).
		Group("currency").
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum completed donations: %s", err)
	}

	return totals, nil
}

// DistinctDonorCount counts donors of completed donations. Anonymous
// donations have no email, so each one counts as its own donor.
func (db *DB) DistinctDonorCount() (int64, error) {
	var count int64
	err := db.Conn.Model(&models.Donation{}).
		Where("status = ?", models.DonationCompleted).
		Select("COUNT(DISTINCT COALESCE(donor_email, id))").
		Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count donors: %s", err)
	}

	return count, nil
}

func (db *DB) AppendAuditLog(entry *models.AuditLogEntry) error {
	if err := db.Conn.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append audit log: %s", err)
	}

	return nil
}

// LastAuditHash returns the hash of the most recently appended entry, or
// the empty string when the log is empty.
func (db *DB) LastAuditHash() (string, error) {
	var entry models.AuditLogEntry
	if err := db.Conn.Order("id DESC").First(&entry).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", fmt.Errorf("failed to get last audit hash: %s", err)
	}

	return entry.Hash, nil
}

func (db *DB) AuditLogChain() ([]*models.AuditLogEntry, error) {
	var entries []*models.AuditLogEntry
	if err := db.Conn.Order("id ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load audit log chain: %s", err)
	}

	return entries, nil
}

func (db *DB) RecordWebhookEvent(event *models.WebhookEvent) (bool, error) {
	result := db.Conn.Clauses(clause.OnConflict{DoNothing: true}).Create(event)
	if result.Error != nil {
		return false, fmt.Errorf("failed to record webhook event: %s", result.Error)
	}

	return result.RowsAffected == 1, nil
}
