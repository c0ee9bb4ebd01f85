package scraper

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	svcmetrics "MarketMood/internal/service/metrics"
	xhttp "MarketMood/pkg/http"
	applogger "MarketMood/pkg/logger"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	defaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	defaultAcceptLanguage = "en-US,en;q=0.5"

	// MaxBodyBytes caps a downloaded page.
	MaxBodyBytes = 8 << 20
)

var (
	// ErrInvalidHTML is returned when a 2xx body does not look like an HTML document.
	ErrInvalidHTML = errors.New("invalid HTML response")
	// ErrUpstreamStatus wraps non-2xx responses.
	ErrUpstreamStatus = errors.New("upstream status")
)

// PageFetcher returns the HTML of a page.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// SleepFunc waits for d or until ctx ends.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures Fetcher.
type Option func(*Fetcher)

// Fetcher downloads pages with request pacing, browser-like headers and exponential retry.
type Fetcher struct {
	client     *xhttp.Client
	limiter    *rate.Limiter
	maxRetries int
	userAgent  string
	referer    string
	sleep      SleepFunc
	logger     *applogger.Logger
}

// WithRequestDelay sets the minimum spacing between two outbound requests.
func WithRequestDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		if d <= 0 {
			f.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		f.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithMaxRetries sets how many retries follow a failed first attempt.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.maxRetries = n
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithReferer sets the Referer header. Empty disables the browser header set.
func WithReferer(ref string) Option {
	return func(f *Fetcher) {
		f.referer = ref
	}
}

// WithSleep replaces the retry backoff wait.
func WithSleep(s SleepFunc) Option {
	return func(f *Fetcher) {
		f.sleep = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// WithClient sets the HTTP client.
func WithClient(c *xhttp.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// NewFetcher builds a fetcher: 5s pacing, 3 retries with 1s/2s/4s backoff by default.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:     xhttp.NewClient(xhttp.WithTimeout(30*time.Second), xhttp.WithMaxBody(MaxBodyBytes)),
		limiter:    rate.NewLimiter(rate.Every(5*time.Second), 1),
		maxRetries: 3,
		userAgent:  DefaultUserAgent,
		sleep:      sleepCtx,
		logger:     applogger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	svcmetrics.Register()
	return f
}

// Fetch downloads pageURL. Every attempt, retries included, waits for the pacing limiter.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	host := hostOf(pageURL)

	var lastErr error
	for attempt := 0; ; attempt++ {
		body, err := f.fetchOnce(ctx, pageURL, host)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil || attempt >= f.maxRetries {
			break
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
		f.logger.Warn("scrape attempt failed, retrying",
			applogger.String("url", pageURL),
			applogger.Int("attempt", attempt+1),
			applogger.Duration("backoff_ms", backoff),
			applogger.Error(err),
		)
		svcmetrics.ScrapeRetries.WithLabelValues(host).Inc()
		if err := f.sleep(ctx, backoff); err != nil {
			return "", fmt.Errorf("fetch %s: %w", pageURL, err)
		}
	}
	return "", fmt.Errorf("fetch %s after %d retries: %w", pageURL, f.maxRetries, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, pageURL, host string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("pacing: %w", err)
	}

	start := time.Now()
	body, err := f.get(ctx, pageURL)
	svcmetrics.ScrapeLatency.WithLabelValues(host).Observe(time.Since(start).Seconds())
	if err != nil {
		svcmetrics.ScrapeRequests.WithLabelValues(host, "error").Inc()
		return "", err
	}
	svcmetrics.ScrapeRequests.WithLabelValues(host, "ok").Inc()

	f.logger.Debug("page fetched",
		applogger.String("url", pageURL),
		applogger.String("size", humanize.Bytes(uint64(len(body)))),
		applogger.Duration("took_ms", time.Since(start)),
	)
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, pageURL string) (string, error) {
	resp, err := f.client.Get(ctx, pageURL, f.headers())
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	body := string(resp.Body)
	if !LooksLikeHTML(body) {
		return "", ErrInvalidHTML
	}
	return body, nil
}

func (f *Fetcher) headers() map[string]string {
	h := map[string]string{"User-Agent": f.userAgent}
	if f.referer == "" {
		return h
	}
	h["Accept"] = defaultAccept
	h["Accept-Language"] = defaultAcceptLanguage
	h["Cache-Control"] = "no-cache"
	h["Pragma"] = "no-cache"
	h["Referer"] = f.referer
	return h
}

// LooksLikeHTML reports whether body contains a doctype or an html element.
func LooksLikeHTML(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "<!doctype html") || strings.Contains(lower, "<html")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
