package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/industriousparadigm/dr-jose-gomes/internal/audit"
	"github.com/industriousparadigm/dr-jose-gomes/internal/campaign"
	"github.com/industriousparadigm/dr-jose-gomes/internal/config"
	"github.com/industriousparadigm/dr-jose-gomes/internal/gateway"
	"github.com/industriousparadigm/dr-jose-gomes/internal/http_api"
	"github.com/industriousparadigm/dr-jose-gomes/internal/metrics"
	"github.com/industriousparadigm/dr-jose-gomes/internal/notificator"
	"github.com/industriousparadigm/dr-jose-gomes/internal/rates"
	"github.com/industriousparadigm/dr-jose-gomes/internal/repository"
	"github.com/industriousparadigm/dr-jose-gomes/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "campaign",
		Usage: "Donation campaign service for the Dr. José Gomes medical fund",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "postgres-user", Aliases: []string{"u"}, Usage: "Postgres user"},
			&cli.StringFlag{Name: "postgres-password", Aliases: []string{"p"}, Usage: "Postgres password"},
			&cli.StringFlag{Name: "postgres-host", Aliases: []string{"t"}, Usage: "Postgres host"},
			&cli.IntFlag{Name: "postgres-port", Aliases: []string{"P"}, Usage: "Postgres port"},
			&cli.StringFlag{Name: "postgres-db", Aliases: []string{"d"}, Usage: "Postgres database name"},
			&cli.IntFlag{Name: "api-port", Aliases: []string{"a"}, Usage: "API listen port"},
			&cli.StringFlag{Name: "site-url", Aliases: []string{"s"}, Usage: "Public site base URL"},
			&cli.BoolFlag{Name: "development", Aliases: []string{"D"}, Usage: "Development mode"},
		},
		Action: func(c *cli.Context) error {
			return run(c)
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	// Load configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	// Override with flags if set
	if c.IsSet("postgres-user") {
		cfg.PostgresUser = c.String("postgres-user")
	}
	if c.IsSet("postgres-password") {
		cfg.PostgresPassword = c.String("postgres-password")
	}
	if c.IsSet("postgres-host") {
		cfg.PostgresHost = c.String("postgres-host")
	}
	if c.IsSet("postgres-port") {
		cfg.PostgresPort = c.Int("postgres-port")
	}
	if c.IsSet("postgres-db") {
		cfg.PostgresDB = c.String("postgres-db")
	}
	if c.IsSet("api-port") {
		cfg.APIPort = c.Int("api-port")
	}
	if c.IsSet("site-url") {
		cfg.SiteURL = c.String("site-url")
	}
	if c.IsSet("development") {
		cfg.Development = c.Bool("development")
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}

	// Initialize database
	db, err := repository.NewPostgresDB(cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB, cfg.PostgresHost, cfg.PostgresPort, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize the audit log, seeded from the last persisted hash
	auditLog, err := audit.NewLog(db, log)
	if err != nil {
		return fmt.Errorf("failed to initialize audit log: %v", err)
	}

	// Initialize payment gateway
	stripeGateway := gateway.NewStripeGateway(log, cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.SiteURL)

	// Initialize notificators
	emailNotificator := notificator.NewEmailNotificator(log, cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPSender, cfg.SMTPReplyTo)
	var telegramNotificator *notificator.TelegramNotificator
	if cfg.TelegramBotToken != "" {
		telegramNotificator, err = notificator.NewTelegramNotificator(log, cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			return fmt.Errorf("failed to initialize telegram notificator: %v", err)
		}
	}
	notif := notificator.NewNotificator(log, emailNotificator, telegramNotificator)

	// Initialize FX rates cache
	ratesService := rates.NewService(log, "")
	ratesService.Start()
	defer ratesService.Stop()

	// Initialize metrics
	donationMetrics := metrics.NewDonationMetrics(prometheus.DefaultRegisterer)

	// Create the campaign service
	campaignApp := campaign.NewCampaign(db, stripeGateway, notif, auditLog, ratesService, donationMetrics, log, cfg)

	apiServer := http_api.NewHTTPServer(campaignApp, cfg, log)
	go apiServer.Start()

	// Block until asked to stop, then shut down gracefully
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return apiServer.Shutdown()
}
