package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"vetadmin/internal/metrics"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultFetchLimit = 1000

	cachePrefix = "vetadmin:page:"
	maxBodySize = 1 << 20
)

// HTTPError is a non-2xx response from the backend.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: status=%d: %s", e.StatusCode, e.Message)
	}
	if e.Body == "" {
		return fmt.Sprintf("backend: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("backend: status=%d body=%s", e.StatusCode, e.Body)
}

// IsStatus reports whether err is an HTTPError with the given status.
func IsStatus(err error, status int) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == status
}

// Client talks to the clinic's admin REST backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration

	limiter *rate.Limiter
	logger  *zerolog.Logger

	fetchLimit int
	exhaustive bool
}

// New constructs a client for baseURL. token is sent as a bearer token when set.
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	nop := zerolog.Nop()
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: timeout},
		logger:     &nop,
		fetchLimit: DefaultFetchLimit,
	}
}

// UseRedisCache configures optional Redis caching for table pages.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// UseRateLimit caps outgoing requests at rps with the given burst.
func (c *Client) UseRateLimit(rps float64, burst int) {
	if rps <= 0 {
		c.limiter = nil
		return
	}
	if burst <= 0 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

func (c *Client) UseLogger(logger *zerolog.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// SetFetchLimit sets the page size used when fetching a whole table.
// With exhaustive set, every page is walked instead of stopping at the first.
func (c *Client) SetFetchLimit(limit int, exhaustive bool) {
	if limit <= 0 {
		limit = DefaultFetchLimit
	}
	c.fetchLimit = limit
	c.exhaustive = exhaustive
}

func (c *Client) FetchLimit() int { return c.fetchLimit }

// Ping checks that the backend answers a minimal request.
func (c *Client) Ping(ctx context.Context) error {
	var page struct {
		Pagination json.RawMessage `json:"pagination"`
	}
	endpoint := fmt.Sprintf("%s/admin/%s?page=1&limit=1", c.baseURL, "vaccine_types")
	return c.doJSON(ctx, "ping", http.MethodGet, endpoint, nil, &page)
}

type noCacheKey struct{}

// WithoutCache marks ctx so page reads skip the cache. Results are still written back.
func WithoutCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, noCacheKey{}, true)
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	if skip, _ := ctx.Value(noCacheKey{}).(bool); skip {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		metrics.IncCache("miss")
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		metrics.IncCache("miss")
		return false
	}
	metrics.IncCache("hit")
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

// invalidate drops every cached page of table.
func (c *Client) invalidate(ctx context.Context, table string) {
	if c.redis == nil {
		return
	}
	iter := c.redis.Scan(ctx, 0, cachePrefix+table+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn().Err(err).Str("table", table).Msg("scan cached pages")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Str("table", table).Msg("drop cached pages")
	}
}

func pageCacheKey(table string, page, limit int) string {
	return fmt.Sprintf("%s%s:%d:%d", cachePrefix, table, page, limit)
}

// doJSON sends in (if non-nil) as JSON and decodes a 2xx body into out (if non-nil).
// label names the call in logs and metrics.
func (c *Client) doJSON(ctx context.Context, label, method, endpoint string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", label, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := c.addHeaders(req)

	start := time.Now()
	err = c.do(req, out)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.ObserveBackend(label, method, outcome, time.Since(start))

	if err != nil {
		c.logger.Debug().
			Err(err).
			Str("method", method).
			Str("call", label).
			Str("request_id", requestID).
			Msg("backend request failed")
	}
	return err
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func newHTTPError(status int, raw []byte) *HTTPError {
	he := &HTTPError{StatusCode: status, Body: strings.TrimSpace(string(raw))}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		he.Message = payload.Message
		if he.Message == "" {
			he.Message = payload.Error
		}
	}
	return he
}

func (c *Client) addHeaders(req *http.Request) string {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	id := uuid.NewString()
	req.Header.Set("X-Request-ID", id)
	return id
}
