package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// StripeClient wraps the Stripe payment-intents API.
type StripeClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// StripeOption customises the client.
type StripeOption func(*StripeClient)

// WithBaseURL points the client at a different API host, used in tests.
func WithBaseURL(baseURL string) StripeOption {
	return func(c *StripeClient) {
		c.baseURL = baseURL
	}
}

// NewStripeClient constructs a client with the account's secret key.
func NewStripeClient(secretKey string, opts ...StripeOption) *StripeClient {
	c := &StripeClient{
		baseURL:   "https://api.stripe.com",
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Intent is the subset of a Stripe payment intent the API exposes.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

type stripeError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent opens a payment intent for the given amount in cents.
func (c *StripeClient) CreateIntent(ctx context.Context, amount int64, currency string) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", currency)
	form.Set("payment_method_types[]", "card")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/v1/payment_intents", c.baseURL), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		var se stripeError
		if err := json.NewDecoder(resp.Body).Decode(&se); err == nil && se.Error.Message != "" {
			return nil, fmt.Errorf("stripe returned status %d: %s", resp.StatusCode, se.Error.Message)
		}
		return nil, fmt.Errorf("stripe returned status %d", resp.StatusCode)
	}

	var intent Intent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, err
	}
	return &intent, nil
}
