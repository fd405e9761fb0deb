package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/adcraftlabs/adcraft/internal/billing/domain"
	"github.com/bwmarrin/snowflake"
)

type stripeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type stripeCustomer struct {
	ID string `json:"id"`
}

type stripeSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type stripeSubscriptionDetail struct {
	ID                 string            `json:"id"`
	Status             string            `json:"status"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	Metadata           map[string]string `json:"metadata"`
	Items              struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// Client talks to the Stripe REST API with form-encoded requests.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: "https://api.stripe.com",
		client:  &http.Client{Timeout: 12 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a stub server.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

func (c *Client) CreateCustomer(ctx context.Context, email, name string, accountID snowflake.ID) (string, error) {
	values := url.Values{}
	values.Set("email", email)
	if name != "" {
		values.Set("name", name)
	}
	values.Set("metadata[account_id]", accountID.String())

	var customer stripeCustomer
	err := c.doRequest(ctx, http.MethodPost, "/v1/customers", values, "customer:"+accountID.String(), &customer)
	if err != nil {
		return "", err
	}
	if customer.ID == "" {
		return "", errors.New("stripe_response_invalid")
	}
	return customer.ID, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req domain.ProviderCheckoutRequest) (string, error) {
	values := url.Values{}
	values.Set("mode", "subscription")
	values.Set("customer", req.CustomerID)
	values.Set("success_url", req.SuccessURL)
	values.Set("cancel_url", req.CancelURL)
	values.Set("line_items[0][price]", req.PriceID)
	values.Set("line_items[0][quantity]", "1")
	values.Set("allow_promotion_codes", "true")
	values.Set("metadata[account_id]", req.AccountID.String())
	values.Set("metadata[plan]", string(req.Plan))
	values.Set("subscription_data[metadata][account_id]", req.AccountID.String())
	values.Set("subscription_data[metadata][plan]", string(req.Plan))

	var session stripeSession
	err := c.doRequest(ctx, http.MethodPost, "/v1/checkout/sessions", values, "", &session)
	if err != nil {
		return "", err
	}
	if session.URL == "" {
		return "", errors.New("stripe_response_invalid")
	}
	return session.URL, nil
}

func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	values := url.Values{}
	values.Set("customer", customerID)
	values.Set("return_url", returnURL)

	var session stripeSession
	err := c.doRequest(ctx, http.MethodPost, "/v1/billing_portal/sessions", values, "", &session)
	if err != nil {
		return "", err
	}
	if session.URL == "" {
		return "", errors.New("stripe_response_invalid")
	}
	return session.URL, nil
}

func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (domain.ProviderSubscription, error) {
	var sub stripeSubscriptionDetail
	err := c.doRequest(ctx, http.MethodGet, "/v1/subscriptions/"+subscriptionID, nil, "", &sub)
	if err != nil {
		return domain.ProviderSubscription{}, err
	}
	if sub.ID == "" {
		return domain.ProviderSubscription{}, errors.New("stripe_response_invalid")
	}

	out := domain.ProviderSubscription{
		ID:                sub.ID,
		Status:            strings.TrimSpace(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		AccountID:         metadataAccountID(sub.Metadata),
		PlanID:            strings.TrimSpace(sub.Metadata["plan"]),
	}
	if sub.CurrentPeriodStart > 0 {
		out.CurrentPeriodStart = time.Unix(sub.CurrentPeriodStart, 0).UTC()
	}
	if sub.CurrentPeriodEnd > 0 {
		out.CurrentPeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}
	if len(sub.Items.Data) > 0 {
		out.PriceID = strings.TrimSpace(sub.Items.Data[0].Price.ID)
	}
	return out, nil
}

func (c *Client) doRequest(
	ctx context.Context,
	method string,
	path string,
	values url.Values,
	idempotencyKey string,
	out any,
) error {
	if c.apiKey == "" {
		return domain.ErrNotConfigured
	}

	var bodyReader *strings.Reader
	if values != nil {
		bodyReader = strings.NewReader(values.Encode())
	} else {
		bodyReader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr stripeErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return errors.New("stripe_request_failed")
		}
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			message = "stripe_request_failed"
		}
		return errors.New(message)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
