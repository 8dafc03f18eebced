package b2

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
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	apiPath        = "/b2api/v1/"
	defaultAuthURL = "https://api.backblazeb2.com"

	defaultTimeout    = 60 * time.Second
	defaultMaxRetries = 10
	initialBackoff    = time.Second
	defaultMaxBackoff = 10 * time.Second
)

// Client is a B2 API client for one account. A client may be used from
// multiple goroutines; each call runs its own retry chain, and the
// session state swapped by reconnects is guarded separately. Clients for
// the same account share throttling state through their Registry.
type Client struct {
	creds      Credentials
	logger     zerolog.Logger
	httpClient *http.Client
	registry   *Registry
	authURL    string
	maxRetries int
	maxBackoff time.Duration

	// Session state, replaced wholesale on every (re)connect.
	sessionMu   sync.RWMutex
	apiURL      string
	downloadURL string
	token       string

	// Running request statistics.
	statsMu      sync.Mutex
	requestCount int
	requestTime  time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

// chain tracks one logical call chain: the initial attempt plus however
// many retries it takes to get a terminal answer. It is created fresh for
// every top-level call and never shared between goroutines.
type chain struct {
	retries int
	backoff time.Duration
	start   time.Time
}

func newChain() *chain {
	return &chain{backoff: initialBackoff, start: time.Now()}
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRegistry makes the client coordinate throttling through the given
// registry instead of the shared process-wide default.
func WithRegistry(r *Registry) Option {
	return func(c *Client) {
		c.registry = r
	}
}

// WithMaxRetries sets the retry budget for one call chain.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithMaxBackoff sets the ceiling on the backoff delay between retries.
func WithMaxBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.maxBackoff = d
		}
	}
}

// WithAuthURL overrides the well-known authorization URL. Intended for
// pointing the client at a compatible or mock endpoint.
func WithAuthURL(u string) Option {
	return func(c *Client) {
		c.authURL = u
	}
}

// NewClient creates a new B2 client and performs the initial account
// authorization. Authorization runs through the same throttle/retry
// envelope as every other call, so a flaky network delays construction
// rather than failing it.
func NewClient(accountID, applicationKey string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if accountID == "" {
		return nil, fmt.Errorf("b2 account ID is required")
	}
	if applicationKey == "" {
		return nil, fmt.Errorf("b2 application key is required")
	}

	c := &Client{
		creds:      Credentials{AccountID: accountID, ApplicationKey: applicationKey},
		logger:     logger,
		httpClient: &http.Client{Timeout: defaultTimeout},
		registry:   defaultRegistry,
		authURL:    defaultAuthURL,
		maxRetries: defaultMaxRetries,
		maxBackoff: defaultMaxBackoff,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.connect(context.Background(), newChain()); err != nil {
		return nil, fmt.Errorf("failed to connect to B2: %w", err)
	}

	return c, nil
}

// AccountID returns the account this client authenticates as.
func (c *Client) AccountID() string {
	return c.creds.AccountID
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// waitOutThrottling blocks until the account's shared throttle deadline
// has passed. The sleep happens outside the registry lock; afterwards the
// deadline is cleared only if no other client raised it in the meantime.
func (c *Client) waitOutThrottling(ctx context.Context) error {
	if c.registry.IsShutdown(c.creds.AccountID) {
		return &ShutdownError{AccountID: c.creds.AccountID}
	}
	until, ok := c.registry.Deadline(c.creds.AccountID)
	if !ok {
		return nil
	}
	if delta := time.Until(until); delta > 0 {
		c.logger.Debug().
			Dur("delta", delta).
			Msg("Sleeping out the throttling period")
		if err := c.sleep(ctx, delta); err != nil {
			return err
		}
	}
	if c.registry.ClearIf(c.creds.AccountID, until) {
		c.logger.Info().Msg("Throttling period has expired, continuing")
	}
	return nil
}

// sleepAndRetry charges one failure against the chain's retry budget,
// sleeps the current backoff, optionally re-authorizes, and doubles the
// backoff up to the ceiling. When the budget is exhausted it returns a
// terminal RetryError instead.
func (c *Client) sleepAndRetry(ctx context.Context, ch *chain, reason, operation string, reconnect bool) error {
	ch.retries++
	if ch.retries >= c.maxRetries {
		retryErr := &RetryError{
			Operation: operation,
			Attempts:  ch.retries,
			Reason:    reason,
			Elapsed:   time.Since(ch.start),
		}
		c.logger.Error().
			Str("operation", operation).
			Str("reason", reason).
			Int("attempts", ch.retries).
			Dur("elapsed", retryErr.Elapsed).
			Msg("Giving up after repeated failures")
		return retryErr
	}

	c.logger.Debug().
		Str("operation", operation).
		Str("reason", reason).
		Dur("backoff", ch.backoff).
		Bool("reconnect", reconnect).
		Msg("Sleeping before retry")
	if err := c.sleep(ctx, ch.backoff); err != nil {
		return err
	}
	ch.backoff = min(ch.backoff*2, c.maxBackoff)
	if reconnect {
		c.logger.Debug().Msg("Done sleeping, attempting to reconnect")
		if err := c.connect(ctx, ch); err != nil {
			return err
		}
	}
	return nil
}

// resetChain records the chain's elapsed time in the running statistics
// and, if the chain needed retries, logs the recovery and resets the
// chain to its initial state.
func (c *Client) resetChain(ch *chain) {
	delta := time.Since(ch.start)

	c.statsMu.Lock()
	c.requestCount++
	c.requestTime += delta
	count, total := c.requestCount, c.requestTime
	c.statsMu.Unlock()

	c.logger.Debug().
		Int("requests", count).
		Str("avg", (total / time.Duration(count)).Round(time.Millisecond).String()).
		Msg("Request timing")

	if ch.retries > 0 {
		c.logger.Info().
			Int("retries", ch.retries).
			Dur("elapsed", delta).
			Msg("Success after retries")
		ch.retries = 0
		ch.backoff = initialBackoff
	}
}

// checkThrottling classifies a non-success response. It returns true when
// the caller should wait out throttling and try again, and a terminal
// error for permanent shutdown or an unclassified HTTP failure.
func (c *Client) checkThrottling(resp *http.Response, body []byte) (bool, error) {
	if resp.StatusCode == http.StatusOK {
		return false, nil
	}
	retryAfter, ok := retryAfterSeconds(resp.Header)
	if !ok {
		if resp.StatusCode == http.StatusForbidden {
			c.registry.Shutdown(c.creds.AccountID)
			return false, &ShutdownError{AccountID: c.creds.AccountID}
		}
		return false, apiErrorFromResponse(resp.StatusCode, body)
	}
	until := time.Now().Add(time.Duration(retryAfter) * time.Second)
	if c.registry.Raise(c.creds.AccountID, until) {
		c.logger.Warn().
			Int("seconds", retryAfter).
			Msg("Throttled by the server")
	}
	return true, nil
}

func retryAfterSeconds(h http.Header) (int, bool) {
	v := h.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return seconds, true
}

func apiErrorFromResponse(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var parsed struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		apiErr.Code = parsed.Code
		apiErr.Message = parsed.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func errorKind(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return "timeout"
	}
	return "connection"
}

// connect performs the b2_authorize_account exchange and replaces the
// session state with the result. It shares the caller's chain, so login
// failures during a reconnect consume the same retry budget as the call
// that triggered them.
func (c *Client) connect(ctx context.Context, ch *chain) error {
	for {
		if err := c.waitOutThrottling(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.authURL+apiPath+"b2_authorize_account", nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.SetBasicAuth(c.creds.AccountID, c.creds.ApplicationKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			reason := fmt.Sprintf("B2 login %s error", errorKind(err))
			if err := c.sleepAndRetry(ctx, ch, reason, "login", false); err != nil {
				return err
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			if err := c.sleepAndRetry(ctx, ch, "B2 login connection error", "login", false); err != nil {
				return err
			}
			continue
		}

		throttled, err := c.checkThrottling(resp, body)
		if err != nil {
			return err
		}
		if throttled {
			continue
		}

		var data authorizeResponse
		if err := json.Unmarshal(body, &data); err != nil {
			return fmt.Errorf("failed to parse authorization response: %w", err)
		}

		c.sessionMu.Lock()
		c.apiURL = data.APIURL + apiPath
		c.downloadURL = data.DownloadURL + apiPath
		c.token = data.AuthorizationToken
		c.sessionMu.Unlock()

		c.logger.Debug().
			Str("account_id", c.creds.AccountID).
			Str("api_url", data.APIURL).
			Msg("Logged into Backblaze")
		c.resetChain(ch)
		return nil
	}
}

func (c *Client) session() (apiURL, downloadURL, token string) {
	c.sessionMu.RLock()
	defer c.sessionMu.RUnlock()
	return c.apiURL, c.downloadURL, c.token
}

// call issues one authenticated API call, absorbing throttling and
// transient network failures until it has a terminal answer. Each loop
// iteration is one attempt; tryCall reports whether another is needed.
func (c *Client) call(ctx context.Context, endpoint string, params any, download bool) ([]byte, error) {
	ch := newChain()
	for {
		body, retry, err := c.tryCall(ctx, ch, endpoint, params, download)
		if err != nil {
			return nil, err
		}
		if !retry {
			return body, nil
		}
	}
}

// tryCall makes one attempt at an API call. It returns retry=true when
// the attempt failed in a way the chain should absorb (throttling, or a
// transient failure that was charged to the retry budget).
func (c *Client) tryCall(ctx context.Context, ch *chain, endpoint string, params any, download bool) (body []byte, retry bool, err error) {
	if err := c.waitOutThrottling(ctx); err != nil {
		return nil, false, err
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode request parameters: %w", err)
	}

	apiURL, downloadURL, token := c.session()
	base := apiURL
	if download {
		base = downloadURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		reason := fmt.Sprintf("B2 %s error", errorKind(err))
		if err := c.sleepAndRetry(ctx, ch, reason, endpoint, true); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		if err := c.sleepAndRetry(ctx, ch, "B2 connection error", endpoint, true); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}

	throttled, err := c.checkThrottling(resp, body)
	if err != nil {
		return nil, false, err
	}
	if throttled {
		return nil, true, nil
	}

	c.logger.Debug().Str("endpoint", endpoint).Msg("API call succeeded")
	c.resetChain(ch)
	return body, false, nil
}
