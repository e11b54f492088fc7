package rates

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/industriousparadigm/dr-jose-gomes/internal/models"
	"github.com/industriousparadigm/dr-jose-gomes/pkg/logger"
)

const (
	// DefaultBaseURL serves daily FX rates with USD as the base currency.
	DefaultBaseURL = "https://open.er-api.com/v6/latest/USD"
	// refreshInterval is how often the cached rates are re-fetched.
	refreshInterval = 6 * time.Hour
)

// Service caches USD conversion rates for the campaign's accepted
// currencies. When the remote fetch has never succeeded the static
// fallbacks apply: 5 BRL to the dollar, 1.10 USD per EUR.
type Service struct {
	logger  *logger.Logger
	client  *http.Client
	baseURL string

	mu       sync.RWMutex
	usdRates map[models.Currency]float64

	stop chan struct{}
	wg   sync.WaitGroup
}

type ratesResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

func NewService(logger *logger.Logger, baseURL string) *Service {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Service{
		logger:  logger,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		usdRates: map[models.Currency]float64{
			models.CurrencyUSD: 1,
			models.CurrencyBRL: 1.0 / 5.0,
			models.CurrencyEUR: 1.1,
		},
		stop: make(chan struct{}),
	}
}

// USDRate returns the multiplier converting one unit of the currency into
// USD. Unknown currencies convert 1:1.
func (s *Service) USDRate(currency models.Currency) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rate, ok := s.usdRates[currency]; ok {
		return rate
	}
	return 1
}

// Refresh fetches current rates and swaps the cache atomically.
func (s *Service) Refresh() error {
	resp, err := s.client.Get(s.baseURL)
	if err != nil {
		return fmt.Errorf("failed to fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var parsed ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("failed to decode rates response: %w", err)
	}
	if parsed.Result != "success" {
		return fmt.Errorf("rates API returned result %q", parsed.Result)
	}

	updated := map[models.Currency]float64{models.CurrencyUSD: 1}
	for _, currency := range []models.Currency{models.CurrencyBRL, models.CurrencyEUR} {
		perUSD, ok := parsed.Rates[string(currency)]
		if !ok || perUSD <= 0 {
			s.logger.Warn("Rates response missing currency, keeping previous rate", "currency", currency)
			updated[currency] = s.USDRate(currency)
			continue
		}
		updated[currency] = 1 / perUSD
	}

	s.mu.Lock()
	s.usdRates = updated
	s.mu.Unlock()

	s.logger.Debug("FX rates refreshed", "rates", updated)
	return nil
}

// Start refreshes once and then keeps the cache warm in the background.
func (s *Service) Start() {
	if err := s.Refresh(); err != nil {
		s.logger.Warn("Initial rates refresh failed, using fallback rates", "error", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.Refresh(); err != nil {
					s.logger.Error("Failed to refresh rates", "error", err)
				}
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *Service) Stop() {
	close(s.stop)
	s.wg.Wait()
}
