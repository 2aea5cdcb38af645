package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/sealer"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	ModeMock = "mock"
	ModeHTTP = "http"
)

type CheckoutRequest struct {
	BookingID string          `json:"booking_id"`
	PaymentID string          `json:"payment_id"`
	Provider  string          `json:"provider"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

type Checkout struct {
	PaymentURL string `json:"payment_url"`
}

// Gateway hands a payment over to its provider and returns where the guest
// should be sent to pay. It never reports the outcome; that arrives later as
// a callback.
type Gateway interface {
	Checkout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
}

type Config struct {
	Mode       string        `envconfig:"MODE" default:"mock"`
	URL        string        `envconfig:"URL"`
	APIKey     string        `envconfig:"API_KEY"`
	Timeout    time.Duration `envconfig:"TIMEOUT" default:"10s"`
	RetryCount int           `envconfig:"RETRY_COUNT" default:"2"`
}

// LoadConfig reads PAYMENT_GATEWAY_* variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("PAYMENT_GATEWAY", &cfg); err != nil {
		return Config{}, fmt.Errorf("payment gateway config: %w", err)
	}
	switch cfg.Mode {
	case ModeMock:
	case ModeHTTP:
		if cfg.URL == "" {
			return Config{}, fmt.Errorf("payment gateway config: PAYMENT_GATEWAY_URL is required in http mode")
		}
	default:
		return Config{}, fmt.Errorf("payment gateway config: unknown mode %q", cfg.Mode)
	}
	return cfg, nil
}

// New builds the gateway selected by cfg.Mode.
func New(cfg Config, checkoutBaseURL string, tokens *sealer.Sealer, log *logger.Logger) Gateway {
	if cfg.Mode == ModeHTTP {
		return NewHTTPGateway(cfg, log)
	}
	return NewMockGateway(checkoutBaseURL, tokens)
}

// MockGateway builds a local checkout link carrying a sealed token instead of
// calling a provider.
type MockGateway struct {
	baseURL string
	tokens  *sealer.Sealer
}

func NewMockGateway(baseURL string, tokens *sealer.Sealer) *MockGateway {
	return &MockGateway{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		tokens:  tokens,
	}
}

func (g *MockGateway) Checkout(_ context.Context, req CheckoutRequest) (*Checkout, error) {
	token, err := g.tokens.Seal(req.BookingID, req.PaymentID, req.Reference)
	if err != nil {
		return nil, fmt.Errorf("seal checkout token: %w", err)
	}

	q := url.Values{}
	q.Set("token", token)
	q.Set("amount", req.Amount.StringFixed(2))
	q.Set("currency", req.Currency)

	return &Checkout{
		PaymentURL: fmt.Sprintf("%s/checkout/%s?%s", g.baseURL, url.PathEscape(req.Provider), q.Encode()),
	}, nil
}

// ParseCheckoutToken recovers the booking, payment and reference sealed into a mock checkout link.
func (g *MockGateway) ParseCheckoutToken(token string) (bookingID, paymentID, reference string, err error) {
	parts, err := g.tokens.Open(token)
	if err != nil {
		return "", "", "", err
	}
	if len(parts) != 3 {
		return "", "", "", sealer.ErrInvalidToken
	}
	return parts[0], parts[1], parts[2], nil
}
