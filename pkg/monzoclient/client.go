/**
 * @description
 * This package provides a read-only client for the Monzo API. It builds
 * authenticated GET requests for balances, accounts, pots and transactions,
 * decodes the JSON bodies into domain records, and reports failures as one of
 * three distinct error kinds (TransportError, APIError, DecodeError).
 *
 * @dependencies
 * - context, encoding/json, net/http, net/url: Standard Go libraries.
 * - internal/domain: Record shapes and decode/validate logic.
 */
package monzoclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/benfdking/monzo-mcp/internal/domain"
)

const (
	// DefaultBaseURL is the production Monzo API host.
	DefaultBaseURL = "https://api.monzo.com"

	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 8 << 20
)

// Config is the immutable configuration a Client is built from.
type Config struct {
	BaseURL     string
	AccessToken string
	// Timeout bounds each request when HTTPClient is nil.
	Timeout time.Duration
	// HTTPClient overrides the default transport, e.g. for pooling or tests.
	HTTPClient *http.Client
}

// Client is a Monzo API client. It is safe for concurrent use; no state is
// mutated after construction.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ListTransactionsOptions are the optional bounds for ListTransactions. Since
// and Before are passed through verbatim (timestamp or pagination cursor).
// Zero values are not sent.
type ListTransactionsOptions struct {
	Since  string
	Before string
	Limit  int
}

// ListPotsOptions narrows ListPots to the pots of one current account.
type ListPotsOptions struct {
	CurrentAccountID string
}

// NewClient creates a new Monzo API client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, ErrMissingAccessToken
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    baseURL,
		token:      cfg.AccessToken,
		httpClient: httpClient,
	}, nil
}

// BaseURL returns the API host the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetBalance fetches the current balance of an account.
func (c *Client) GetBalance(ctx context.Context, accountID string) (domain.Balance, error) {
	const op = "get_balance"
	if accountID == "" {
		return domain.Balance{}, fmt.Errorf("%w: account_id", ErrMissingArgument)
	}

	query := url.Values{}
	query.Set("account_id", accountID)

	body, err := c.get(ctx, op, "/balance", query)
	if err != nil {
		return domain.Balance{}, err
	}

	balance, err := domain.DecodeBalance(body)
	if err != nil {
		return domain.Balance{}, c.decodeFailure(op, err)
	}
	return balance, nil
}

// ListAccounts lists the accounts the token can see. A zero accountType
// returns every account; otherwise it must be a known AccountType and is sent
// as the account_type filter.
func (c *Client) ListAccounts(ctx context.Context, accountType domain.AccountType) ([]domain.Account, error) {
	const op = "list_accounts"

	query := url.Values{}
	if accountType != "" {
		if !accountType.Valid() {
			return nil, &domain.UnknownEnumValueError{Field: "account_type", Value: string(accountType)}
		}
		query.Set("account_type", string(accountType))
	}

	body, err := c.get(ctx, op, "/accounts", query)
	if err != nil {
		return nil, err
	}

	accounts, err := domain.DecodeAccountList(body)
	if err != nil {
		return nil, c.decodeFailure(op, err)
	}
	return accounts, nil
}

// ListPots lists pots, including deleted ones.
func (c *Client) ListPots(ctx context.Context, opts ListPotsOptions) ([]domain.Pot, error) {
	const op = "list_pots"

	query := url.Values{}
	if opts.CurrentAccountID != "" {
		query.Set("current_account_id", opts.CurrentAccountID)
	}

	body, err := c.get(ctx, op, "/pots", query)
	if err != nil {
		return nil, err
	}

	pots, err := domain.DecodePotList(body)
	if err != nil {
		return nil, c.decodeFailure(op, err)
	}
	return pots, nil
}

// GetTransaction fetches one transaction with its merchant expanded.
func (c *Client) GetTransaction(ctx context.Context, transactionID string) (domain.Transaction, error) {
	const op = "get_transaction"
	if transactionID == "" {
		return domain.Transaction{}, fmt.Errorf("%w: transaction_id", ErrMissingArgument)
	}

	query := url.Values{}
	query.Set("expand[]", "merchant")

	body, err := c.get(ctx, op, "/transactions/"+url.PathEscape(transactionID), query)
	if err != nil {
		return domain.Transaction{}, err
	}

	tx, err := domain.DecodeTransactionResponse(body)
	if err != nil {
		return domain.Transaction{}, c.decodeFailure(op, err)
	}
	return tx, nil
}

// ListTransactions lists an account's transactions in server order.
func (c *Client) ListTransactions(ctx context.Context, accountID string, opts ListTransactionsOptions) ([]domain.Transaction, error) {
	const op = "list_transactions"
	if accountID == "" {
		return nil, fmt.Errorf("%w: account_id", ErrMissingArgument)
	}

	query := url.Values{}
	query.Set("account_id", accountID)
	if opts.Since != "" {
		query.Set("since", opts.Since)
	}
	if opts.Before != "" {
		query.Set("before", opts.Before)
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}

	body, err := c.get(ctx, op, "/transactions", query)
	if err != nil {
		return nil, err
	}

	txs, err := domain.DecodeTransactionList(body)
	if err != nil {
		return nil, c.decodeFailure(op, err)
	}
	return txs, nil
}

// get performs one authenticated GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, op, path string, query url.Values) (json.RawMessage, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("level=warn component=monzo_client op=%s msg=\"request failed\" err=%v", op, err)
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		log.Printf("level=warn component=monzo_client op=%s status=%d msg=\"response read failed\" err=%v", op, resp.StatusCode, err)
		return nil, &TransportError{Op: op, Err: err}
	}

	oversized := len(bodyBytes) > maxResponseBytes
	if oversized {
		bodyBytes = bodyBytes[:maxResponseBytes]
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(op, resp.StatusCode, bodyBytes)
		log.Printf("level=warn component=monzo_client op=%s status=%d code=%q msg=\"non-2xx response\"", op, resp.StatusCode, apiErr.Code)
		return nil, apiErr
	}

	if oversized {
		return nil, c.decodeFailure(op, fmt.Errorf("%w: limit is %d bytes", ErrResponseTooLarge, maxResponseBytes))
	}

	return bodyBytes, nil
}

func (c *Client) decodeFailure(op string, err error) error {
	log.Printf("level=warn component=monzo_client op=%s msg=\"response did not match schema\" err=%q", op, err.Error())
	return &DecodeError{Op: op, Err: err}
}

// newAPIError keeps the raw body and, when the body is a Monzo error object,
// lifts its code and message.
func newAPIError(op string, status int, body []byte) *APIError {
	apiErr := &APIError{Op: op, StatusCode: status, Body: string(body)}

	var errBody struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errBody); err == nil {
		apiErr.Code = errBody.Code
		apiErr.Message = errBody.Message
	}
	return apiErr
}
