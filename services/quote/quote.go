package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"villamar/models"

	"go.uber.org/zap"
)

// QuoteService is the pricing collaborator. It owns availability and the
// pricing rules; the checkout flow only consumes its breakdowns.
type QuoteService interface {
	GetQuote(ctx context.Context, unitID, checkIn, checkOut string, guests int) (*models.Quote, error)
}

// HTTPQuoteService consumes the hosted quote endpoint over HTTPS/JSON.
type HTTPQuoteService struct {
	BaseURL string
	Client  *http.Client
	Logger  *zap.Logger
}

// NewHTTPQuoteService returns a quote client with a bounded request timeout.
func NewHTTPQuoteService(baseURL string, logger *zap.Logger) *HTTPQuoteService {
	return &HTTPQuoteService{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
		Logger:  logger,
	}
}

func (s *HTTPQuoteService) GetQuote(ctx context.Context, unitID, checkIn, checkOut string, guests int) (*models.Quote, error) {
	q := url.Values{}
	q.Set("unit", unitID)
	q.Set("checkIn", checkIn)
	q.Set("checkOut", checkOut)
	q.Set("guests", strconv.Itoa(guests))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.Logger.Warn("quote service returned non-OK status",
			zap.Int("status", resp.StatusCode), zap.String("unit", unitID))
		return nil, fmt.Errorf("quote service returned status %d", resp.StatusCode)
	}

	var quote models.Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("failed to decode quote: %w", err)
	}
	if quote.IssuedAt.IsZero() {
		quote.IssuedAt = time.Now()
	}
	return &quote, nil
}
