package http_api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// routes sets up the routes for the HTTP server.
func (s *HTTPServer) routes() {
	api := s.router.Group("/api/v1")
	api.POST("/donations/checkout", s.createCheckout)
	api.POST("/webhooks/stripe", s.stripeWebhook)
	api.GET("/donations/recent", s.recentDonations)
	api.GET("/stats", s.stats)

	// Admin reporting stays unmounted without a configured password.
	if s.config.AdminPassword != "" {
		admin := api.Group("/admin", gin.BasicAuth(gin.Accounts{
			s.config.AdminUsername: s.config.AdminPassword,
		}))
		admin.GET("/donations", s.adminDonations)
		admin.GET("/export", s.adminExport)
		admin.GET("/audit/verify", s.adminVerifyAudit)
	} else {
		s.logger.Warn("ADMIN_PASSWORD not set, admin endpoints disabled")
	}

	s.router.GET("/healthz", s.health)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
