package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/vendo/internal/config"
)

var (
	// ErrNotConfigured means the provider API key is absent.
	ErrNotConfigured = errors.New("payment_provider_not_configured")
	// ErrRequestFailed means the provider rejected or failed the call.
	ErrRequestFailed = errors.New("payment_provider_request_failed")
)

// Session is the provider-side checkout session reference.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// LineItem is one priced catalog item on a checkout session.
type LineItem struct {
	Name        string
	Description string
	Currency    string
	UnitAmount  int64
}

// CheckoutParams describes a one-time payment checkout session.
type CheckoutParams struct {
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
	LineItems  []LineItem
}

type stripeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client calls the Stripe checkout API. Prices always come from the catalog
// server-side; the client never sends amounts of its own.
type Client struct {
	apiKey  string
	apiBase string
	client  *http.Client
}

func NewClient(cfg config.Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.StripeAPIBase), "/")
	if base == "" {
		base = "https://api.stripe.com"
	}
	return &Client{
		apiKey:  strings.TrimSpace(cfg.StripeSecretKey),
		apiBase: base,
		client:  &http.Client{Timeout: 12 * time.Second},
	}
}

// CreateCheckoutSession mints a payment-mode checkout session with the given
// line items and metadata. One outbound call, no internal retry.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (Session, error) {
	if c.apiKey == "" {
		return Session{}, ErrNotConfigured
	}
	if len(params.LineItems) == 0 {
		return Session{}, fmt.Errorf("%w: no line items", ErrRequestFailed)
	}

	values := url.Values{}
	values.Set("mode", "payment")
	values.Set("success_url", params.SuccessURL)
	values.Set("cancel_url", params.CancelURL)
	for key, value := range params.Metadata {
		values.Set("metadata["+key+"]", value)
	}
	for i, item := range params.LineItems {
		prefix := "line_items[" + strconv.Itoa(i) + "]"
		values.Set(prefix+"[quantity]", "1")
		values.Set(prefix+"[price_data][currency]", strings.ToLower(item.Currency))
		values.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		values.Set(prefix+"[price_data][product_data][name]", item.Name)
		if item.Description != "" {
			values.Set(prefix+"[price_data][product_data][description]", item.Description)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/v1/checkout/sessions", strings.NewReader(values.Encode()))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", "checkout:"+ulid.Make().String())

	resp, err := c.client.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr stripeErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&stripeErr); decodeErr != nil {
			return Session{}, ErrRequestFailed
		}
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			return Session{}, ErrRequestFailed
		}
		return Session{}, fmt.Errorf("%w: %s", ErrRequestFailed, message)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return Session{}, err
	}
	if session.ID == "" {
		return Session{}, fmt.Errorf("%w: empty session id", ErrRequestFailed)
	}
	return session, nil
}
