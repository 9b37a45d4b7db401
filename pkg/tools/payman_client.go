package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/chatvault/chatvault/internal/config"
)

const defaultPaymanBaseURL = "https://agent.payman.ai/api"

// PaymanClient is a client for the Payman payments API.
type PaymanClient struct {
	cfg    config.PaymanConfig
	client *http.Client
}

// NewPaymanClient creates a new PaymanClient.
func NewPaymanClient(cfg config.PaymanConfig) *PaymanClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultPaymanBaseURL
	}
	return &PaymanClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

// SendPaymentRequest describes an outgoing payment.
type SendPaymentRequest struct {
	AmountDecimal        float64 `json:"amountDecimal"`
	PaymentDestinationID string  `json:"paymentDestinationId"`
	CustomerID           string  `json:"customerId,omitempty"`
	CustomerEmail        string  `json:"customerEmail,omitempty"`
	CustomerName         string  `json:"customerName,omitempty"`
	Memo                 string  `json:"memo,omitempty"`
}

// PaymentResult is the API's acknowledgment of a payment.
type PaymentResult struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// Payee is a registered payment destination.
type Payee struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	ContactEmail string `json:"contactEmail,omitempty"`
}

// AddPayeeRequest registers a new payment destination. Type is "us_ach" or
// "crypto_address"; the bank fields apply to ACH destinations only.
type AddPayeeRequest struct {
	Type              string `json:"type"`
	Name              string `json:"name"`
	ContactEmail      string `json:"contactEmail,omitempty"`
	AccountHolderName string `json:"accountHolderName,omitempty"`
	AccountNumber     string `json:"accountNumber,omitempty"`
	RoutingNumber     string `json:"routingNumber,omitempty"`
	AccountType       string `json:"accountType,omitempty"`
	Address           string `json:"address,omitempty"`
	Currency          string `json:"currency,omitempty"`
}

// DepositRequest asks a customer to fund their agent balance.
type DepositRequest struct {
	AmountDecimal float64 `json:"amountDecimal"`
	CustomerID    string  `json:"customerId"`
	CustomerEmail string  `json:"customerEmail,omitempty"`
	CustomerName  string  `json:"customerName,omitempty"`
	Memo          string  `json:"memo,omitempty"`
}

// DepositLink is the checkout URL the customer completes the deposit on.
type DepositLink struct {
	CheckoutURL string `json:"checkoutUrl"`
}

// SendPayment sends a payment to a registered destination.
func (c *PaymanClient) SendPayment(ctx context.Context, req SendPaymentRequest) (*PaymentResult, error) {
	var out PaymentResult
	if err := c.do(ctx, http.MethodPost, "/payments/send-payment", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchPayees looks up payment destinations by name and/or contact email.
func (c *PaymanClient) SearchPayees(ctx context.Context, name, contactEmail, payeeType string) ([]Payee, error) {
	q := url.Values{}
	if name != "" {
		q.Set("name", name)
	}
	if contactEmail != "" {
		q.Set("contactEmail", contactEmail)
	}
	if payeeType != "" {
		q.Set("type", payeeType)
	}
	var out []Payee
	if err := c.do(ctx, http.MethodGet, "/payments/search-destinations", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddPayee registers a new payment destination.
func (c *PaymanClient) AddPayee(ctx context.Context, req AddPayeeRequest) (*Payee, error) {
	var out Payee
	if err := c.do(ctx, http.MethodPost, "/payments/destinations", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AskForMoney generates a checkout link a customer uses to deposit funds.
func (c *PaymanClient) AskForMoney(ctx context.Context, req DepositRequest) (*DepositLink, error) {
	var out DepositLink
	if err := c.do(ctx, http.MethodPost, "/payments/request-customer-deposit", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBalance returns the agent's spendable balance for a currency ("USD").
func (c *PaymanClient) GetBalance(ctx context.Context, currency string) (float64, error) {
	var out float64
	if err := c.do(ctx, http.MethodGet, "/balances/currencies/"+url.PathEscape(currency), nil, nil, &out); err != nil {
		return 0, err
	}
	return out, nil
}

func (c *PaymanClient) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("x-payman-api-secret", c.cfg.APISecret)
	req.Header.Set("Accept", "application/vnd.payman.v1+json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("payman: %s %s: unexpected status code %d: %s", method, path, resp.StatusCode, msg)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
