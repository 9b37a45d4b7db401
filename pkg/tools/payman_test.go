package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatvault/chatvault/internal/config"
)

func newTestPaymanClient(t *testing.T, handler http.HandlerFunc) *PaymanClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewPaymanClient(config.PaymanConfig{BaseURL: srv.URL, APISecret: "test-secret"})
}

func TestPaymanClient_SendPayment(t *testing.T) {
	client := newTestPaymanClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/payments/send-payment", r.URL.Path)
		require.Equal(t, "test-secret", r.Header.Get("x-payman-api-secret"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req SendPaymentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, 12.5, req.AmountDecimal)
		require.Equal(t, "dest-1", req.PaymentDestinationID)

		json.NewEncoder(w).Encode(PaymentResult{Reference: "ref-42", Status: "INITIATED"})
	})

	res, err := client.SendPayment(context.Background(), SendPaymentRequest{
		AmountDecimal:        12.5,
		PaymentDestinationID: "dest-1",
	})
	require.NoError(t, err)
	require.Equal(t, "ref-42", res.Reference)
	require.Equal(t, "INITIATED", res.Status)
}

func TestPaymanClient_SearchPayees(t *testing.T) {
	client := newTestPaymanClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/payments/search-destinations", r.URL.Path)
		require.Equal(t, "Alice", r.URL.Query().Get("name"))
		require.Equal(t, "us_ach", r.URL.Query().Get("type"))

		json.NewEncoder(w).Encode([]Payee{{ID: "p1", Name: "Alice", Type: "us_ach"}})
	})

	payees, err := client.SearchPayees(context.Background(), "Alice", "", "us_ach")
	require.NoError(t, err)
	require.Len(t, payees, 1)
	require.Equal(t, "p1", payees[0].ID)
}

func TestPaymanClient_ErrorStatusSurfaces(t *testing.T) {
	client := newTestPaymanClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient balance", http.StatusPaymentRequired)
	})

	_, err := client.SendPayment(context.Background(), SendPaymentRequest{AmountDecimal: 1})
	require.Error(t, err)
	require.Contains(t, err.Error(), "402")
	require.Contains(t, err.Error(), "insufficient balance")
}

func TestSendPaymentTool_Run(t *testing.T) {
	client := newTestPaymanClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(PaymentResult{Reference: "ref-1", Status: "COMPLETED"})
	})
	tool := &SendPaymentTool{client: client}

	out, err := tool.Run(context.Background(), `{"amount_decimal": 5, "payment_destination_id": "dest-9"}`)
	require.NoError(t, err)
	require.Contains(t, out, "dest-9")
	require.Contains(t, out, "ref-1")

	_, err = tool.Run(context.Background(), `not json`)
	require.Error(t, err)
}

func TestGetBalanceTool_DefaultsToUSD(t *testing.T) {
	client := newTestPaymanClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/balances/currencies/USD", r.URL.Path)
		json.NewEncoder(w).Encode(99.5)
	})
	tool := &GetBalanceTool{client: client}

	out, err := tool.Run(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "Spendable balance: 99.50 USD", out)
}

func TestAskForMoneyTool_Run(t *testing.T) {
	client := newTestPaymanClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payments/request-customer-deposit", r.URL.Path)
		json.NewEncoder(w).Encode(DepositLink{CheckoutURL: "https://pay.example/checkout/1"})
	})
	tool := &AskForMoneyTool{client: client}

	out, err := tool.Run(context.Background(), `{"amount_decimal": 20, "customer_id": "cust-7"}`)
	require.NoError(t, err)
	require.Contains(t, out, "cust-7")
	require.Contains(t, out, "https://pay.example/checkout/1")
}

func TestRegisterPaymanTools(t *testing.T) {
	m := NewManager()
	RegisterPaymanTools(m, config.PaymanConfig{APISecret: "s"})
	require.Len(t, m.List(), 5)
	for _, name := range []string{"send_payment", "search_payees", "add_payee", "ask_for_money", "get_balance"} {
		tool, err := m.Get(name)
		require.NoError(t, err)
		require.NotEmpty(t, tool.Description())
		require.True(t, json.Valid(tool.Schema()), "schema of %s must be valid JSON", name)
	}
}
