/**
 * @description
 * The tool registry turns each Monzo client operation into a named tool with a
 * declared JSON-Schema input. Invocation decodes and validates the arguments,
 * applies the per-caller rate limit, calls the client, and publishes an audit
 * event describing the outcome.
 *
 * @dependencies
 * - github.com/google/uuid: Invocation identifiers.
 * - pkg/monzoclient: The Monzo API client.
 * - pkg/rabbitmq: Audit event publishing.
 */

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/benfdking/monzo-mcp/internal/domain"
	"github.com/benfdking/monzo-mcp/pkg/monzoclient"
	"github.com/benfdking/monzo-mcp/pkg/rabbitmq"
	"github.com/google/uuid"
)

const auditTimeout = 2 * time.Second

// MonzoAPI is the subset of the Monzo client the tools call.
type MonzoAPI interface {
	GetBalance(ctx context.Context, accountID string) (domain.Balance, error)
	ListAccounts(ctx context.Context, accountType domain.AccountType) ([]domain.Account, error)
	ListPots(ctx context.Context, opts monzoclient.ListPotsOptions) ([]domain.Pot, error)
	GetTransaction(ctx context.Context, transactionID string) (domain.Transaction, error)
	ListTransactions(ctx context.Context, accountID string, opts monzoclient.ListTransactionsOptions) ([]domain.Transaction, error)
}

// RateDecision is the outcome of counting one invocation against a limit.
type RateDecision struct {
	Allowed    bool
	Count      int
	Limit      int
	RetryAfter time.Duration
}

// RateLimiter decides whether caller may invoke tool now.
type RateLimiter interface {
	Allow(ctx context.Context, tool, caller string) (RateDecision, error)
}

type toolFunc func(ctx context.Context, api MonzoAPI, args json.RawMessage) (any, error)

// Tool describes one invocable action.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
	run         toolFunc
}

// Invocation is the successful result of a tool call.
type Invocation struct {
	ID     uuid.UUID `json:"invocation_id"`
	Tool   string    `json:"tool"`
	Result any       `json:"result"`
}

// Registry holds the registered tools and their shared collaborators.
type Registry struct {
	api       MonzoAPI
	tools     map[string]Tool
	limiter   RateLimiter
	publisher rabbitmq.Publisher
}

// NewRegistry creates a registry with every Monzo tool registered.
func NewRegistry(api MonzoAPI) *Registry {
	r := &Registry{
		api:       api,
		tools:     make(map[string]Tool),
		publisher: &rabbitmq.EventProducerFallback{},
	}
	for _, tool := range monzoTools() {
		r.register(tool)
	}
	return r
}

func (r *Registry) register(tool Tool) {
	if _, exists := r.tools[tool.Name]; exists {
		panic(fmt.Sprintf("tool %q registered twice", tool.Name))
	}
	r.tools[tool.Name] = tool
}

// SetRateLimiter enables per-caller limiting. A nil limiter disables it.
func (r *Registry) SetRateLimiter(limiter RateLimiter) {
	r.limiter = limiter
}

// SetPublisher replaces the audit publisher.
func (r *Registry) SetPublisher(p rabbitmq.Publisher) {
	if p == nil {
		p = &rabbitmq.EventProducerFallback{}
	}
	r.publisher = p
}

// Tools returns the registered tools sorted by name.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		out = append(out, tool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Invoke runs the named tool with raw JSON arguments on behalf of caller.
// Errors are returned unchanged; use ClassifyError to branch on them.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage, caller string) (*Invocation, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	id := uuid.New()
	started := time.Now()

	if err := r.checkRateLimit(ctx, name, caller); err != nil {
		r.audit(ctx, id, name, caller, started, err)
		return nil, err
	}

	result, err := tool.run(ctx, r.api, args)
	r.audit(ctx, id, name, caller, started, err)
	if err != nil {
		log.Printf("level=warn component=tools tool=%s invocation_id=%s kind=%s err=%v", name, id, ClassifyError(err), err)
		return nil, err
	}

	log.Printf("level=info component=tools tool=%s invocation_id=%s outcome=success duration_ms=%d", name, id, time.Since(started).Milliseconds())
	return &Invocation{ID: id, Tool: name, Result: result}, nil
}

func (r *Registry) checkRateLimit(ctx context.Context, tool, caller string) error {
	if r.limiter == nil {
		return nil
	}
	decision, err := r.limiter.Allow(ctx, tool, caller)
	if err != nil {
		// Fail open: a limiter outage must not block read-only calls.
		log.Printf("level=warn component=tools msg=\"rate limiter unavailable; allowing call\" tool=%s caller=%s err=%v", tool, caller, err)
		return nil
	}
	if decision.Allowed {
		return nil
	}
	log.Printf("level=info component=tools msg=\"rate limited\" tool=%s caller=%s count=%d limit=%d", tool, caller, decision.Count, decision.Limit)
	return &RateLimitedError{RetryAfterSeconds: retryAfterSeconds(decision.RetryAfter)}
}

func retryAfterSeconds(d time.Duration) int {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}

func (r *Registry) audit(ctx context.Context, id uuid.UUID, tool, caller string, started time.Time, invokeErr error) {
	event := rabbitmq.ToolInvocationEvent{
		InvocationID: id,
		Tool:         tool,
		Caller:       caller,
		Outcome:      "success",
		DurationMs:   time.Since(started).Milliseconds(),
		Timestamp:    time.Now().UTC(),
	}
	if invokeErr != nil {
		event.Outcome = "failure"
		event.ErrorKind = string(ClassifyError(invokeErr))
		var apiErr *monzoclient.APIError
		if errors.As(invokeErr, &apiErr) {
			event.StatusCode = apiErr.StatusCode
		}
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if err := r.publisher.PublishToolInvocation(publishCtx, event); err != nil {
		log.Printf("level=warn component=tools msg=\"audit publish failed\" tool=%s invocation_id=%s err=%v", tool, id, err)
	}
}

func monzoTools() []Tool {
	return []Tool{
		{
			Name:        "get_balance",
			Description: "Get the current balance, total balance including pots, and today's spend for an account. Amounts are in minor units (pence).",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"account_id":{"type":"string","description":"The account to read."}},"required":["account_id"],"additionalProperties":false}`),
			run:         runGetBalance,
		},
		{
			Name:        "list_accounts",
			Description: "List the accounts the access token can see, optionally filtered by account type.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"account_type":{"type":"string","enum":["uk_retail","uk_retail_joint"],"description":"Only return accounts of this type."}},"additionalProperties":false}`),
			run:         runListAccounts,
		},
		{
			Name:        "list_pots",
			Description: "List savings pots, including deleted ones. Check the deleted flag before presenting a pot.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"current_account_id":{"type":"string","description":"Only return pots owned by this current account."}},"additionalProperties":false}`),
			run:         runListPots,
		},
		{
			Name:        "get_transaction",
			Description: "Get a single transaction with its merchant details expanded.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"transaction_id":{"type":"string","description":"The transaction to read."}},"required":["transaction_id"],"additionalProperties":false}`),
			run:         runGetTransaction,
		},
		{
			Name:        "list_transactions",
			Description: "List an account's transactions in ascending creation order. since and before accept an RFC 3339 timestamp or a transaction id cursor.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"account_id":{"type":"string"},"since":{"type":"string"},"before":{"type":"string"},"limit":{"type":"integer","minimum":1,"maximum":100}},"required":["account_id"],"additionalProperties":false}`),
			run:         runListTransactions,
		},
	}
}

func runGetBalance(ctx context.Context, api MonzoAPI, raw json.RawMessage) (any, error) {
	var args getBalanceArgs
	if err := decodeArgs("get_balance", raw, &args); err != nil {
		return nil, err
	}
	balance, err := api.GetBalance(ctx, args.AccountID)
	if err != nil {
		return nil, err
	}
	return balance, nil
}

func runListAccounts(ctx context.Context, api MonzoAPI, raw json.RawMessage) (any, error) {
	var args listAccountsArgs
	if err := decodeArgs("list_accounts", raw, &args); err != nil {
		return nil, err
	}
	var filter domain.AccountType
	if args.AccountType != "" {
		parsed, err := domain.ParseAccountType(args.AccountType)
		if err != nil {
			return nil, err
		}
		filter = parsed
	}
	accounts, err := api.ListAccounts(ctx, filter)
	if err != nil {
		return nil, err
	}
	return map[string]any{"accounts": accounts}, nil
}

func runListPots(ctx context.Context, api MonzoAPI, raw json.RawMessage) (any, error) {
	var args listPotsArgs
	if err := decodeArgs("list_pots", raw, &args); err != nil {
		return nil, err
	}
	pots, err := api.ListPots(ctx, monzoclient.ListPotsOptions{CurrentAccountID: args.CurrentAccountID})
	if err != nil {
		return nil, err
	}
	return map[string]any{"pots": pots}, nil
}

func runGetTransaction(ctx context.Context, api MonzoAPI, raw json.RawMessage) (any, error) {
	var args getTransactionArgs
	if err := decodeArgs("get_transaction", raw, &args); err != nil {
		return nil, err
	}
	tx, err := api.GetTransaction(ctx, args.TransactionID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"transaction": tx}, nil
}

func runListTransactions(ctx context.Context, api MonzoAPI, raw json.RawMessage) (any, error) {
	var args listTransactionsArgs
	if err := decodeArgs("list_transactions", raw, &args); err != nil {
		return nil, err
	}
	txs, err := api.ListTransactions(ctx, args.AccountID, monzoclient.ListTransactionsOptions{
		Since:  args.Since,
		Before: args.Before,
		Limit:  args.Limit,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"transactions": txs}, nil
}
