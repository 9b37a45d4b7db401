package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chatvault/chatvault/internal/config"
	"github.com/chatvault/chatvault/internal/logger"
)

// RegisterPaymanTools registers the full Payman tool set on m.
func RegisterPaymanTools(m *Manager, cfg config.PaymanConfig) {
	client := NewPaymanClient(cfg)
	m.Register(&SendPaymentTool{client: client})
	m.Register(&SearchPayeesTool{client: client})
	m.Register(&AddPayeeTool{client: client})
	m.Register(&AskForMoneyTool{client: client})
	m.Register(&GetBalanceTool{client: client})
}

// SendPaymentTool sends funds to a registered payment destination.
type SendPaymentTool struct {
	client *PaymanClient
}

func (t *SendPaymentTool) Name() string { return "send_payment" }

func (t *SendPaymentTool) Description() string {
	return "Sends a payment to a registered payee. Use 'search_payees' first to obtain a valid payment_destination_id."
}

func (t *SendPaymentTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"amount_decimal": {"type": "number", "description": "Amount in decimal units, e.g. 10.50 for $10.50"},
			"payment_destination_id": {"type": "string", "description": "Id of the payee to pay"},
			"customer_id": {"type": "string", "description": "Optional customer the payment is made on behalf of"},
			"customer_email": {"type": "string"},
			"customer_name": {"type": "string"},
			"memo": {"type": "string", "description": "Optional note attached to the payment"}
		},
		"required": ["amount_decimal", "payment_destination_id"]
	}`)
}

func (t *SendPaymentTool) Run(ctx context.Context, args string) (string, error) {
	logger.L.Info("send_payment tool invoked", "args", args)

	var toolArgs struct {
		AmountDecimal        float64 `json:"amount_decimal"`
		PaymentDestinationID string  `json:"payment_destination_id"`
		CustomerID           string  `json:"customer_id"`
		CustomerEmail        string  `json:"customer_email"`
		CustomerName         string  `json:"customer_name"`
		Memo                 string  `json:"memo"`
	}
	if err := json.Unmarshal([]byte(args), &toolArgs); err != nil {
		return "", err
	}

	res, err := t.client.SendPayment(ctx, SendPaymentRequest{
		AmountDecimal:        toolArgs.AmountDecimal,
		PaymentDestinationID: toolArgs.PaymentDestinationID,
		CustomerID:           toolArgs.CustomerID,
		CustomerEmail:        toolArgs.CustomerEmail,
		CustomerName:         toolArgs.CustomerName,
		Memo:                 toolArgs.Memo,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Payment of %.2f sent to %s (reference %s, status %s)",
		toolArgs.AmountDecimal, toolArgs.PaymentDestinationID, res.Reference, res.Status), nil
}

// SearchPayeesTool looks up registered payment destinations.
type SearchPayeesTool struct {
	client *PaymanClient
}

func (t *SearchPayeesTool) Name() string { return "search_payees" }

func (t *SearchPayeesTool) Description() string {
	return "Searches registered payees by name, contact email or type and returns their ids."
}

func (t *SearchPayeesTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"name": {"type": "string", "description": "Payee name to match"},
			"contact_email": {"type": "string"},
			"type": {"type": "string", "description": "Destination type, e.g. us_ach or crypto_address"}
		}
	}`)
}

func (t *SearchPayeesTool) Run(ctx context.Context, args string) (string, error) {
	var toolArgs struct {
		Name         string `json:"name"`
		ContactEmail string `json:"contact_email"`
		Type         string `json:"type"`
	}
	if err := json.Unmarshal([]byte(args), &toolArgs); err != nil {
		return "", err
	}

	payees, err := t.client.SearchPayees(ctx, toolArgs.Name, toolArgs.ContactEmail, toolArgs.Type)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(payees)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// AddPayeeTool registers a new payment destination.
type AddPayeeTool struct {
	client *PaymanClient
}

func (t *AddPayeeTool) Name() string { return "add_payee" }

func (t *AddPayeeTool) Description() string {
	return "Registers a new payee. ACH payees need account holder name, account number, routing number and account type."
}

func (t *AddPayeeTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"type": {"type": "string", "description": "us_ach or crypto_address"},
			"name": {"type": "string"},
			"contact_email": {"type": "string"},
			"account_holder_name": {"type": "string"},
			"account_number": {"type": "string"},
			"routing_number": {"type": "string"},
			"account_type": {"type": "string", "description": "checking or savings"},
			"address": {"type": "string", "description": "Wallet address for crypto payees"},
			"currency": {"type": "string"}
		},
		"required": ["type", "name"]
	}`)
}

func (t *AddPayeeTool) Run(ctx context.Context, args string) (string, error) {
	var toolArgs struct {
		Type              string `json:"type"`
		Name              string `json:"name"`
		ContactEmail      string `json:"contact_email"`
		AccountHolderName string `json:"account_holder_name"`
		AccountNumber     string `json:"account_number"`
		RoutingNumber     string `json:"routing_number"`
		AccountType       string `json:"account_type"`
		Address           string `json:"address"`
		Currency          string `json:"currency"`
	}
	if err := json.Unmarshal([]byte(args), &toolArgs); err != nil {
		return "", err
	}

	payee, err := t.client.AddPayee(ctx, AddPayeeRequest{
		Type:              toolArgs.Type,
		Name:              toolArgs.Name,
		ContactEmail:      toolArgs.ContactEmail,
		AccountHolderName: toolArgs.AccountHolderName,
		AccountNumber:     toolArgs.AccountNumber,
		RoutingNumber:     toolArgs.RoutingNumber,
		AccountType:       toolArgs.AccountType,
		Address:           toolArgs.Address,
		Currency:          toolArgs.Currency,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Payee %q registered with id %s", payee.Name, payee.ID), nil
}

// AskForMoneyTool generates a customer deposit checkout link.
type AskForMoneyTool struct {
	client *PaymanClient
}

func (t *AskForMoneyTool) Name() string { return "ask_for_money" }

func (t *AskForMoneyTool) Description() string {
	return "Asks a customer for money by generating a checkout link they can use to deposit funds."
}

func (t *AskForMoneyTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"amount_decimal": {"type": "number"},
			"customer_id": {"type": "string"},
			"customer_email": {"type": "string"},
			"customer_name": {"type": "string"},
			"memo": {"type": "string"}
		},
		"required": ["amount_decimal", "customer_id"]
	}`)
}

func (t *AskForMoneyTool) Run(ctx context.Context, args string) (string, error) {
	var toolArgs struct {
		AmountDecimal float64 `json:"amount_decimal"`
		CustomerID    string  `json:"customer_id"`
		CustomerEmail string  `json:"customer_email"`
		CustomerName  string  `json:"customer_name"`
		Memo          string  `json:"memo"`
	}
	if err := json.Unmarshal([]byte(args), &toolArgs); err != nil {
		return "", err
	}

	link, err := t.client.AskForMoney(ctx, DepositRequest{
		AmountDecimal: toolArgs.AmountDecimal,
		CustomerID:    toolArgs.CustomerID,
		CustomerEmail: toolArgs.CustomerEmail,
		CustomerName:  toolArgs.CustomerName,
		Memo:          toolArgs.Memo,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Deposit link for customer %s: %s", toolArgs.CustomerID, link.CheckoutURL), nil
}

// GetBalanceTool reports the agent's spendable balance.
type GetBalanceTool struct {
	client *PaymanClient
}

func (t *GetBalanceTool) Name() string { return "get_balance" }

func (t *GetBalanceTool) Description() string {
	return "Returns the agent's current spendable balance for a currency."
}

func (t *GetBalanceTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"currency": {"type": "string", "description": "Currency code, defaults to USD"}
		}
	}`)
}

func (t *GetBalanceTool) Run(ctx context.Context, args string) (string, error) {
	var toolArgs struct {
		Currency string `json:"currency"`
	}
	if args != "" {
		if err := json.Unmarshal([]byte(args), &toolArgs); err != nil {
			return "", err
		}
	}
	if toolArgs.Currency == "" {
		toolArgs.Currency = "USD"
	}

	balance, err := t.client.GetBalance(ctx, toolArgs.Currency)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Spendable balance: %.2f %s", balance, toolArgs.Currency), nil
}
