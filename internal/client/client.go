// Package client provides an HTTP client for the fintrack API with a
// per-session data cache.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fintrack/internal/logger"
	"fintrack/internal/models"
	"fintrack/internal/services"
)

// User is the account returned by login and registration.
type User struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// TransactionInput is the body of a transaction create or update.
type TransactionInput struct {
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Date        string          `json:"date,omitempty"`
	Description string          `json:"description,omitempty"`
	CategoryID  *uint           `json:"category_id,omitempty"`
	AssetID     *uint           `json:"asset_id,omitempty"`
	Account     string          `json:"account,omitempty"`
	Card        string          `json:"card,omitempty"`
	Memo        string          `json:"memo,omitempty"`
}

// View names the domains the current screen shows. They are re-fetched right
// after every mutation.
type View struct {
	Year         int
	Month        int
	Categories   bool
	Transactions bool
	Stats        bool
	Balance      bool
}

// APIError is a failure envelope returned by the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
}

// Client talks to the fintrack API on behalf of one signed-in user at a time.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *Cache
	log        *zap.SugaredLogger

	mu    sync.Mutex
	token string
	user  *User
	view  View
}

// New creates a Client for the API at baseURL, e.g. http://localhost:8080.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		cache:      NewCache(),
		log:        logger.Named("client"),
	}
}

// Cache exposes the client's data cache.
func (c *Client) Cache() *Cache {
	return c.cache
}

// CurrentUser returns the signed-in user, or nil.
func (c *Client) CurrentUser() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// SetView records the domains the caller is displaying.
func (c *Client) SetView(v View) {
	c.mu.Lock()
	c.view = v
	c.mu.Unlock()
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: decoding response (status %d): %w", method, path, resp.StatusCode, err)
	}
	if resp.StatusCode >= 400 || !env.Success {
		return &APIError{StatusCode: resp.StatusCode, Code: env.Code, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s %s: decoding data: %w", method, path, err)
	}
	return nil
}

// Login signs in and stores the token. Signing in as a different user
// clears the cache.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	return c.authenticate(ctx, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
}

// Register creates an account and signs in as it.
func (c *Client) Register(ctx context.Context, username, email, password string) (*User, error) {
	return c.authenticate(ctx, "/api/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
}

func (c *Client) authenticate(ctx context.Context, path string, body map[string]string) (*User, error) {
	var result struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, path, body, &result); err != nil {
		return nil, err
	}

	c.mu.Lock()
	switched := c.user == nil || c.user.ID != result.User.ID
	c.token = result.Token
	c.user = &result.User
	c.mu.Unlock()

	if switched {
		c.cache.Clear()
	}
	return &result.User, nil
}

// Logout discards the token and the cache.
func (c *Client) Logout() {
	c.mu.Lock()
	c.token = ""
	c.user = nil
	c.view = View{}
	c.mu.Unlock()
	c.cache.Clear()
}

// Categories returns the visible categories.
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	return load(ctx, c.cache, DomainCategories, func(ctx context.Context) ([]models.Category, error) {
		var categories []models.Category
		err := c.do(ctx, http.MethodGet, "/api/categories", nil, &categories)
		return categories, err
	})
}

// Transactions returns one month of transactions.
func (c *Client) Transactions(ctx context.Context, year, month int) ([]models.Transaction, error) {
	return load(ctx, c.cache, TransactionsKey(year, month), func(ctx context.Context) ([]models.Transaction, error) {
		var transactions []models.Transaction
		err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/transactions/%d/%d", year, month), nil, &transactions)
		return transactions, err
	})
}

// MonthlyStats returns one month's totals.
func (c *Client) MonthlyStats(ctx context.Context, year, month int) (*services.MonthlyStats, error) {
	return load(ctx, c.cache, StatsKey(year, month), func(ctx context.Context) (*services.MonthlyStats, error) {
		var stats services.MonthlyStats
		if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/stats/%d/%d", year, month), nil, &stats); err != nil {
			return nil, err
		}
		return &stats, nil
	})
}

// TotalBalance returns the overall position.
func (c *Client) TotalBalance(ctx context.Context) (*services.TotalBalance, error) {
	return load(ctx, c.cache, DomainBalanceTotal, func(ctx context.Context) (*services.TotalBalance, error) {
		var total services.TotalBalance
		if err := c.do(ctx, http.MethodGet, "/api/balance/total", nil, &total); err != nil {
			return nil, err
		}
		return &total, nil
	})
}

// CreateTransaction records a transaction.
func (c *Client) CreateTransaction(ctx context.Context, input TransactionInput) (*models.Transaction, error) {
	var tx models.Transaction
	if err := c.do(ctx, http.MethodPost, "/api/transactions", input, &tx); err != nil {
		return nil, err
	}
	c.afterMutation(ctx)
	return &tx, nil
}

// UpdateTransaction replaces a transaction.
func (c *Client) UpdateTransaction(ctx context.Context, id uint, input TransactionInput) (*models.Transaction, error) {
	var tx models.Transaction
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/transactions/%d", id), input, &tx); err != nil {
		return nil, err
	}
	c.afterMutation(ctx)
	return &tx, nil
}

// DeleteTransaction removes a transaction.
func (c *Client) DeleteTransaction(ctx context.Context, id uint) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", id), nil, nil); err != nil {
		return err
	}
	c.afterMutation(ctx)
	return nil
}

// afterMutation drops the domains a transaction change affects and reloads
// the ones on screen. Reload failures leave the domain empty for the next
// read.
func (c *Client) afterMutation(ctx context.Context) {
	c.cache.InvalidatePrefix(transactionsPrefix, statsPrefix)
	c.cache.Invalidate(DomainBalanceTotal)

	if err := c.refreshView(ctx); err != nil {
		c.log.Warnw("failed to refresh view after mutation", "error", err)
	}
}

func (c *Client) refreshView(ctx context.Context) error {
	c.mu.Lock()
	v := c.view
	c.mu.Unlock()

	if v.Categories {
		if _, err := c.Categories(ctx); err != nil {
			return err
		}
	}
	if v.Transactions {
		if _, err := c.Transactions(ctx, v.Year, v.Month); err != nil {
			return err
		}
	}
	if v.Stats {
		if _, err := c.MonthlyStats(ctx, v.Year, v.Month); err != nil {
			return err
		}
	}
	if v.Balance {
		if _, err := c.TotalBalance(ctx); err != nil {
			return err
		}
	}
	return nil
}
