package push

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// ClientConfig configures the Expo HTTP client.
type ClientConfig struct {
	PushURL           string
	ReceiptsURL       string
	AccessToken       string // optional, enhanced push security
	RequestsPerSecond int
	Timeout           time.Duration
	BreakerFailures   uint32
	BreakerCooldown   time.Duration
}

// ExpoClient talks to the Expo push service. Requests are rate limited with
// a token bucket and nothing is retried. Send and Receipts each have their
// own circuit breaker, so a failing receipts endpoint never blocks sends.
type ExpoClient struct {
	httpClient  *http.Client
	pushURL     string
	receiptsURL string
	accessToken string
	limiter     *rate.Limiter
	sendCB      *gobreaker.CircuitBreaker[[]byte]
	receiptsCB  *gobreaker.CircuitBreaker[[]byte]
	logger      *slog.Logger
}

// NewExpoClient creates an Expo client.
func NewExpoClient(cfg ClientConfig, logger *slog.Logger) *ExpoClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestsPerSecond < 1 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}

	return &ExpoClient{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		pushURL:     cfg.PushURL,
		receiptsURL: cfg.ReceiptsURL,
		accessToken: cfg.AccessToken,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestsPerSecond),
		sendCB:      newBreaker("expo-push", cfg, logger),
		receiptsCB:  newBreaker("expo-receipts", cfg, logger),
		logger:      logger,
	}
}

func newBreaker(name string, cfg ClientConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Push gateway circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// sendResponse is the Expo push/send response body.
type sendResponse struct {
	Data   []Ticket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Send posts one batch of messages. The caller is responsible for keeping
// batches within the gateway's per-request limit.
func (c *ExpoClient) Send(ctx context.Context, msgs []Message) ([]Ticket, error) {
	if len(msgs) == 0 {
		return nil, nil
	}
	payload, err := json.Marshal(msgs)
	if err != nil {
		return nil, fmt.Errorf("encode messages: %w", err)
	}

	body, err := c.execute(ctx, c.sendCB, c.pushURL, payload)
	if err != nil {
		return nil, err
	}

	var resp sendResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode push response: %w", err)
	}
	if len(resp.Errors) > 0 && len(resp.Data) == 0 {
		return nil, fmt.Errorf("push request rejected: %s: %s", resp.Errors[0].Code, resp.Errors[0].Message)
	}
	if len(resp.Data) != len(msgs) {
		return nil, fmt.Errorf("push response has %d tickets for %d messages", len(resp.Data), len(msgs))
	}
	return resp.Data, nil
}

// Receipts fetches delivery receipts for previously issued ticket ids.
func (c *ExpoClient) Receipts(ctx context.Context, ids []string) (map[string]Receipt, error) {
	if len(ids) == 0 {
		return map[string]Receipt{}, nil
	}
	payload, err := json.Marshal(map[string][]string{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("encode receipt ids: %w", err)
	}

	body, err := c.execute(ctx, c.receiptsCB, c.receiptsURL, payload)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data map[string]Receipt `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode receipts response: %w", err)
	}
	if resp.Data == nil {
		resp.Data = map[string]Receipt{}
	}
	return resp.Data, nil
}

// execute runs one rate-limited POST through cb.
func (c *ExpoClient) execute(ctx context.Context, cb *gobreaker.CircuitBreaker[[]byte], url string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return cb.Execute(func() ([]byte, error) {
		return c.post(ctx, url, payload)
	})
}

func (c *ExpoClient) post(ctx context.Context, url string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("expo %s returned %d: %s", url, resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
