package odoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("odoo: record not found")

type Config struct {
	URL      string
	DB       string
	Username string
	APIKey   string
	Timeout  time.Duration
}

// Client speaks Odoo's external JSON-RPC API (/jsonrpc, services common and
// object). The uid from common.login is cached for the life of the client.
type Client struct {
	cfg  Config
	rest *resty.Client
	log  zerolog.Logger

	mu  sync.Mutex
	uid int64

	seq int64
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	l := log.With().Str("component", "odoo").Logger()
	rest := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(gatewayUnavailable)
	return &Client{cfg: cfg, rest: rest, log: l}
}

// gatewayUnavailable retries replies from a proxy in front of a restarting
// Odoo. Those requests never reached the database.
func gatewayUnavailable(resp *resty.Response, err error) bool {
	if err != nil || resp == nil {
		return false
	}
	switch resp.StatusCode() {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int64     `json:"id"`
}

type rpcParams struct {
	Service string        `json:"service"`
	Method  string        `json:"method"`
	Args    []interface{} `json:"args"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"data"`
}

func (e *rpcError) Error() string {
	if e.Data.Message != "" {
		return fmt.Sprintf("odoo rpc error %d: %s (%s)", e.Code, e.Data.Message, e.Data.Name)
	}
	return fmt.Sprintf("odoo rpc error %d: %s", e.Code, e.Message)
}

func (c *Client) call(ctx context.Context, service, method string, args []interface{}, out interface{}) error {
	var parsed rpcResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(rpcRequest{
			JSONRPC: "2.0",
			Method:  "call",
			Params:  rpcParams{Service: service, Method: method, Args: args},
			ID:      atomic.AddInt64(&c.seq, 1),
		}).
		SetResult(&parsed).
		ForceContentType("application/json").
		Post("/jsonrpc")
	if err != nil {
		return fmt.Errorf("odoo request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode()).Str("service", service).Str("method", method).Msg("odoo http error")
		return fmt.Errorf("odoo http status %d", resp.StatusCode())
	}
	if parsed.Error != nil {
		return parsed.Error
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(parsed.Result, out); err != nil {
		return fmt.Errorf("decode odoo result: %w", err)
	}
	return nil
}

// Authenticate logs in once and caches the uid.
func (c *Client) Authenticate(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uid != 0 {
		return c.uid, nil
	}

	var result interface{}
	if err := c.call(ctx, "common", "login", []interface{}{c.cfg.DB, c.cfg.Username, c.cfg.APIKey}, &result); err != nil {
		return 0, fmt.Errorf("odoo login: %w", err)
	}
	// login answers false on bad credentials
	uid, ok := result.(float64)
	if !ok || uid == 0 {
		return 0, fmt.Errorf("odoo login: invalid credentials")
	}
	c.uid = int64(uid)
	return c.uid, nil
}

// ExecuteKW runs object.execute_kw for model/method.
func (c *Client) ExecuteKW(ctx context.Context, model, method string, args []interface{}, kwargs map[string]interface{}, out interface{}) error {
	uid, err := c.Authenticate(ctx)
	if err != nil {
		return err
	}
	if kwargs == nil {
		kwargs = map[string]interface{}{}
	}
	params := []interface{}{c.cfg.DB, uid, c.cfg.APIKey, model, method, args, kwargs}
	if err := c.call(ctx, "object", "execute_kw", params, out); err != nil {
		return fmt.Errorf("odoo %s.%s: %w", model, method, err)
	}
	return nil
}

func (c *Client) searchOne(ctx context.Context, model string, domain []interface{}) (int64, error) {
	var ids []int64
	if err := c.ExecuteKW(ctx, model, "search", []interface{}{domain}, map[string]interface{}{"limit": 1}, &ids); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, ErrNotFound
	}
	return ids[0], nil
}

func (c *Client) create(ctx context.Context, model string, values map[string]interface{}) (int64, error) {
	var id int64
	if err := c.ExecuteKW(ctx, model, "create", []interface{}{values}, nil, &id); err != nil {
		return 0, err
	}
	return id, nil
}

func (c *Client) write(ctx context.Context, model string, id int64, values map[string]interface{}) error {
	var ok bool
	return c.ExecuteKW(ctx, model, "write", []interface{}{[]int64{id}, values}, nil, &ok)
}
