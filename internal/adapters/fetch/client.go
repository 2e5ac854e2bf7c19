package fetch

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/hearthstone-io/hearthscout/internal/adapters/observability"
)

// Reason classifies a fetch failure.
type Reason string

const (
	ReasonBlocked Reason = "blocked" // 403-class: same identity will keep failing
	ReasonTimeout Reason = "timeout"
	ReasonNetwork Reason = "network"
	ReasonStatus  Reason = "status" // non-2xx other than a hard block
)

// FetchError is the typed failure surfaced after the final attempt.
type FetchError struct {
	URL    string
	Reason Reason
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: %s (%d)", e.URL, e.Reason, e.Status)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsBlocked reports whether err is a hard anti-automation rejection.
func IsBlocked(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Reason == ReasonBlocked
}

// RetryPolicy is an explicit, injectable retry strategy.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	IsRetryable func(err error) bool
}

// DefaultRetryPolicy retries twice after the first attempt with jittered
// exponential backoff; hard blocks are never retried.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     backoff,
		IsRetryable: func(err error) bool { return !IsBlocked(err) },
	}
}

// Identity is one browser persona from the rotation pool.
type Identity struct {
	UserAgent      string
	AcceptLanguage string
}

// identityPool is read-only after init; rotation only advances a pointer.
var identityPool = []Identity{
	{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", "en-US,en;q=0.9"},
	{"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36", "en-US,en;q=0.9"},
	{"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0", "en-US,en;q=0.5"},
	{"Mozilla/5.0 (Macintosh; Intel Mac OS X 13.6; rv:121.0) Gecko/20100101 Firefox/121.0", "en-US,en;q=0.5"},
	{"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_6_3) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15", "en-US,en;q=0.9"},
}

// Options configures a Client. Zero values fall back to production defaults;
// tests inject a no-op Sleep and zero delays to run without real waits.
type Options struct {
	Timeout  time.Duration
	RPS      int
	Policy   RetryPolicy
	MinDelay time.Duration
	MaxDelay time.Duration
	// Sleep waits for d or returns false when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) bool
}

type Client struct {
	hc       *http.Client
	rl       *rate.Limiter
	policy   RetryPolicy
	minDelay time.Duration
	maxDelay time.Duration
	sleep    func(ctx context.Context, d time.Duration) bool
	next     atomic.Uint64 // identity rotation pointer
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 12 * time.Second
	}
	if opts.RPS <= 0 {
		opts.RPS = 1
	}
	if opts.Policy.MaxAttempts <= 0 {
		opts.Policy = DefaultRetryPolicy()
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepCtx
	}
	return &Client{
		hc:       &http.Client{Timeout: opts.Timeout},
		rl:       rate.NewLimiter(rate.Limit(opts.RPS), opts.RPS),
		policy:   opts.Policy,
		minDelay: opts.MinDelay,
		maxDelay: opts.MaxDelay,
		sleep:    opts.Sleep,
	}
}

// Fetch GETs one URL with a rotated identity, randomized pacing and bounded
// retries. A 403-class response short-circuits: retrying a rejection from
// the same pool is wasted traffic.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}
	if d := c.randomDelay(); d > 0 {
		if !c.sleep(ctx, d) {
			return nil, ctx.Err()
		}
	}

	start := time.Now()
	body, err := c.fetchWithRetries(ctx, rawURL)
	observability.ObserveFetch(hostOf(rawURL), outcomeOf(err), time.Since(start))
	return body, err
}

func (c *Client) fetchWithRetries(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			if !c.sleep(ctx, c.policy.Backoff(attempt)) {
				return nil, ctx.Err()
			}
		}

		body, err := c.doOnce(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if !c.policy.IsRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Reason: ReasonNetwork, Err: err}
	}
	id := identityPool[c.next.Add(1)%uint64(len(identityPool))]
	req.Header.Set("User-Agent", id.UserAgent)
	req.Header.Set("Accept-Language", id.AcceptLanguage)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.hc.Do(req)
	if err != nil {
		reason := ReasonNetwork
		if isTimeout(err) {
			reason = ReasonTimeout
		}
		return nil, &FetchError{URL: rawURL, Reason: reason, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return io.ReadAll(resp.Body)

	case resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{URL: rawURL, Reason: ReasonBlocked, Status: resp.StatusCode}

	case resp.StatusCode == http.StatusTooManyRequests:
		// server told us how long to stand down; honor it before the next attempt
		if wait := retryAfter(resp); wait > 0 {
			c.sleep(ctx, wait)
		}
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{URL: rawURL, Reason: ReasonStatus, Status: resp.StatusCode}

	default:
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{URL: rawURL, Reason: ReasonStatus, Status: resp.StatusCode}
	}
}

// randomDelay picks a uniform delay in [minDelay, maxDelay].
func (c *Client) randomDelay() time.Duration {
	if c.maxDelay <= c.minDelay {
		return c.minDelay
	}
	span := float64(c.maxDelay - c.minDelay)
	return c.minDelay + time.Duration(randFloat()*span)
}

// sleepCtx waits for d or returns false if ctx is done first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay with concurrency-safe jitter.
// attempt = 1,2,3... doubles the base each step (400ms, 800ms, ...), with up
// to +50% jitter to avoid thundering herds.
func backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * 200 * time.Millisecond
	j := time.Duration(0.5 * randFloat() * float64(base))
	return base + j
}

// randFloat returns a uniform value in [0,1) safe for concurrent callers.
func randFloat() float64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0.5
	}
	u := uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
		uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7])
	return float64(u>>11) / float64(uint64(1)<<53)
}

func isTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return string(fe.Reason)
	}
	return "network"
}
