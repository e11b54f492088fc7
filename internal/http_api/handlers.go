package http_api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/industriousparadigm/dr-jose-gomes/internal/campaign"
	"github.com/industriousparadigm/dr-jose-gomes/internal/models"
)

// exportRowLimit bounds the CSV export page size.
const exportRowLimit = 100000

// CheckoutRequest represents the JSON body for starting a donation
type CheckoutRequest struct {
	Amount      float64 `json:"amount"`
	DonorEmail  string  `json:"donorEmail"`
	DonorName   string  `json:"donorName"`
	Message     string  `json:"message"`
	IsAnonymous bool    `json:"isAnonymous"`
	Locale      string  `json:"locale"`
}

// createCheckout is the handler for POST /donations/checkout. It creates a
// hosted checkout session and a pending donation, and returns the session
// url the browser should redirect to.
func (s *HTTPServer) createCheckout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	result, err := s.campaign.InitiateDonation(c.Request.Context(), &models.InitiateDonationInput{
		Amount:      req.Amount,
		DonorEmail:  req.DonorEmail,
		DonorName:   req.DonorName,
		Message:     req.Message,
		IsAnonymous: req.IsAnonymous,
		Locale:      req.Locale,
		IPCountry:   c.GetHeader("CF-IPCountry"),
	})
	if err != nil {
		if errors.Is(err, campaign.ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid donation amount"})
			return
		}
		s.logger.Error("Failed to create checkout session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// stripeWebhook receives asynchronous processor events. The raw body and
// the signature header go to the lifecycle service untouched; nothing else
// is validated before signature verification.
func (s *HTTPServer) stripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := s.campaign.HandleWebhookEvent(c.Request.Context(), payload, signature); err != nil {
		switch {
		case errors.Is(err, campaign.ErrMissingSignature):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No signature"})
		case errors.Is(err, campaign.ErrInvalidSignature):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		default:
			s.logger.Error("Error processing webhook", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook handler failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// recentDonations serves the public feed of completed donations.
func (s *HTTPServer) recentDonations(c *gin.Context) {
	limit := queryInt(c, "limit", 20)

	donations, err := s.campaign.RecentDonations(limit)
	if err != nil {
		s.logger.Error("Failed to fetch recent donations", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch donations"})
		return
	}

	c.JSON(http.StatusOK, donations)
}

// stats serves the campaign progress snapshot.
func (s *HTTPServer) stats(c *gin.Context) {
	stats, err := s.campaign.CampaignStats()
	if err != nil {
		s.logger.Error("Failed to compute stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// adminDonations lists full donation records with pagination.
func (s *HTTPServer) adminDonations(c *gin.Context) {
	limit := queryInt(c, "limit", 100)
	offset := queryInt(c, "offset", 0)

	donations, total, err := s.campaign.AllDonations(limit, offset)
	if err != nil {
		s.logger.Error("Failed to list donations", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list donations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"donations": donations,
		"total":     total,
	})
}

// adminExport streams all donation records as CSV.
func (s *HTTPServer) adminExport(c *gin.Context) {
	// Campaign-scale export: one page large enough for every record.
	donations, total, err := s.campaign.AllDonations(exportRowLimit, 0)
	if err != nil {
		s.logger.Error("Export failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Export failed"})
		return
	}

	if err := s.campaign.RecordAdminEvent("export", map[string]any{
		"user":  c.MustGet(gin.AuthUserKey).(string),
		"count": total,
	}); err != nil {
		s.logger.Warn("Failed to audit admin export", "error", err)
	}

	filename := fmt.Sprintf("donations-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	writer := csv.NewWriter(c.Writer)
	_ = writer.Write([]string{"ID", "Date", "Amount", "Currency", "Donor Name", "Donor Email", "Message", "Status", "Anonymous", "Public", "Payment ID"})
	for _, d := range donations {
		_ = writer.Write(donationCSVRow(d))
	}
	writer.Flush()
}

func donationCSVRow(d *models.Donation) []string {
	return []string{
		d.ID,
		d.CreatedAt.UTC().Format(time.RFC3339),
		strconv.FormatFloat(d.Amount, 'f', 2, 64),
		string(d.Currency),
		stringOrEmpty(d.DonorName),
		stringOrEmpty(d.DonorEmail),
		stringOrEmpty(d.DonorMessage),
		string(d.Status),
		yesNo(d.IsAnonymous),
		yesNo(d.IsMessagePublic),
		d.ProcessorID,
	}
}

// adminVerifyAudit recomputes the audit hash chain and reports the result.
func (s *HTTPServer) adminVerifyAudit(c *gin.Context) {
	verification, err := s.campaign.VerifyAuditChain()
	if err != nil {
		s.logger.Error("Audit chain verification failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed"})
		return
	}

	c.JSON(http.StatusOK, verification)
}

// health is a liveness probe.
func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func queryInt(c *gin.Context, name string, defaultValue int) int {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func yesNo(value bool) string {
	if value {
		return "Yes"
	}
	return "No"
}
