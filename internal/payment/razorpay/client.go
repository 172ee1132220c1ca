package razorpay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	paymentdomain "github.com/servizo/walletd/internal/payment/domain"
)

// Client is a minimal Razorpay REST client. Only the order read used by the
// partner resolution fallback is implemented.
type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
}

func NewClient(baseURL, keyID, keySecret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		keyID:     strings.TrimSpace(keyID),
		keySecret: strings.TrimSpace(keySecret),
		client:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) FetchOrder(ctx context.Context, orderID string) (*paymentdomain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, paymentdomain.ErrOrderNotFound
	}
	if c.keyID == "" || c.keySecret == "" {
		return nil, fmt.Errorf("razorpay api credentials not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/orders/"+orderID, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, paymentdomain.ErrOrderNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Description != "" {
			return nil, fmt.Errorf("razorpay order fetch: %s", apiErr.Error.Description)
		}
		return nil, fmt.Errorf("razorpay order fetch: status %d", resp.StatusCode)
	}

	var order orderEntity
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}

	return &paymentdomain.Order{
		ID:          strings.TrimSpace(order.ID),
		AmountMinor: order.Amount,
		Currency:    strings.ToUpper(strings.TrimSpace(order.Currency)),
		Status:      strings.TrimSpace(order.Status),
		Notes:       order.Notes,
	}, nil
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}
