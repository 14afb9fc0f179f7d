package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	sandboxSnapBaseURL    = "https://app.sandbox.midtrans.com"
	productionSnapBaseURL = "https://app.midtrans.com"
	sandboxAPIBaseURL     = "https://api.sandbox.midtrans.com"
	productionAPIBaseURL  = "https://api.midtrans.com"

	defaultTimeout              = 15 * time.Second
	responseBodyReadLimit int64 = 1024
)

var errServerKeyRequired = errors.New("payment server key is required")

// Client talks to the Snap hosted-checkout API.
type Client struct {
	httpClient  *http.Client
	serverKey   string
	snapBaseURL string
	apiBaseURL  string
	now         func() time.Time
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURLs overrides the Snap and core API base URLs.
func WithBaseURLs(snapBaseURL, apiBaseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(snapBaseURL); trimmed != "" {
			c.snapBaseURL = trimmed
		}
		if trimmed := strings.TrimSpace(apiBaseURL); trimmed != "" {
			c.apiBaseURL = trimmed
		}
	}
}

// WithClock overrides the time source used for gateway order ids.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient builds the gateway client from configuration.
func NewClient(cfg config.PaymentConfig, opts ...Option) (*Client, error) {
	serverKey := strings.TrimSpace(cfg.ServerKey)
	if serverKey == "" {
		return nil, errServerKeyRequired
	}

	client := &Client{
		serverKey:   serverKey,
		snapBaseURL: sandboxSnapBaseURL,
		apiBaseURL:  sandboxAPIBaseURL,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		now:         time.Now,
	}
	if cfg.IsProduction {
		client.snapBaseURL = productionSnapBaseURL
		client.apiBaseURL = productionAPIBaseURL
	}
	if cfg.Timeout > 0 {
		client.httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	WithBaseURLs(cfg.SnapBaseURL, cfg.APIBaseURL)(client)

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// ServerKey exposes the key used to verify notification signatures.
func (c *Client) ServerKey() string {
	if c == nil {
		return ""
	}
	return c.serverKey
}

// Customer identifies the payer on the hosted checkout page.
type Customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Item is one line shown on the hosted checkout page.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
}

// TransactionRequest carries an order to the gateway.
type TransactionRequest struct {
	OrderNumber string
	GrossAmount int
	Customer    Customer
	Items       []Item
	FinishURL   string
}

// Transaction is the gateway's answer to a token request.
type Transaction struct {
	Token          string
	RedirectURL    string
	GatewayOrderID string
}

// GatewayOrderID derives a per-attempt gateway id so one order can be paid
// after earlier attempts expired.
func GatewayOrderID(orderNumber string, at time.Time) string {
	return fmt.Sprintf("%s-%d", orderNumber, at.UnixMilli())
}

// OrderNumberFromGatewayID strips the attempt suffix added by GatewayOrderID.
func OrderNumberFromGatewayID(gatewayOrderID string) (string, bool) {
	i := strings.LastIndexByte(gatewayOrderID, '-')
	if i <= 0 {
		return "", false
	}
	if _, err := strconv.ParseInt(gatewayOrderID[i+1:], 10, 64); err != nil {
		return "", false
	}
	return gatewayOrderID[:i], true
}

// CreateTransaction requests a hosted-checkout token for the order.
func (c *Client) CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment client not configured")
	}
	if strings.TrimSpace(req.OrderNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	if req.GrossAmount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gross amount must be positive")
	}

	gatewayOrderID := GatewayOrderID(req.OrderNumber, c.now())
	body := snapRequest{
		TransactionDetails: transactionDetails{OrderID: gatewayOrderID, GrossAmount: req.GrossAmount},
		CustomerDetails:    req.Customer,
		ItemDetails:        req.Items,
		CreditCard:         creditCard{Secure: true},
	}
	if req.FinishURL != "" {
		body.Callbacks = &callbacks{Finish: req.FinishURL}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal transaction request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, joinURL(c.snapBaseURL, "snap/v1/transactions"), bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build transaction request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "execute transaction request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "transaction request failed")
	}

	var apiResp struct {
		Token       string `json:"token"`
		RedirectURL string `json:"redirect_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode transaction response")
	}
	if apiResp.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "gateway returned an empty token")
	}

	return &Transaction{
		Token:          apiResp.Token,
		RedirectURL:    apiResp.RedirectURL,
		GatewayOrderID: gatewayOrderID,
	}, nil
}

// TransactionStatus is the gateway's view of one payment attempt.
type TransactionStatus struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
}

// GetTransactionStatus fetches the current status for a gateway order id.
func (c *Client) GetTransactionStatus(ctx context.Context, gatewayOrderID string) (*TransactionStatus, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment client not configured")
	}
	trimmed := strings.TrimSpace(gatewayOrderID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id is required")
	}

	endpoint := joinURL(c.apiBaseURL, fmt.Sprintf("v2/%s/status", url.PathEscape(trimmed)))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build status request")
	}
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "execute status request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "status request failed")
	}

	var status TransactionStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode status response")
	}
	if status.StatusCode == "404" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
	}
	return &status, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.serverKey, "")
}

type snapRequest struct {
	TransactionDetails transactionDetails `json:"transaction_details"`
	CustomerDetails    Customer           `json:"customer_details"`
	ItemDetails        []Item             `json:"item_details,omitempty"`
	CreditCard         creditCard         `json:"credit_card"`
	Callbacks          *callbacks         `json:"callbacks,omitempty"`
}

type transactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int    `json:"gross_amount"`
}

type creditCard struct {
	Secure bool `json:"secure"`
}

type callbacks struct {
	Finish string `json:"finish"`
}

func joinURL(base, path string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), strings.TrimLeft(path, "/"))
}
