// Package fetch resolves bundle locators to raw bytes. It is the transport
// boundary for workspace loading: HTTP(S) URLs and local paths are supported,
// and transient HTTP failures are retried below the collaborator contract.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	werrors "github.com/tetherlab/workbench/internal/errors"
	"github.com/tetherlab/workbench/internal/retry"
	"github.com/tetherlab/workbench/lru"
)

// Fetcher resolves a locator to raw bundle bytes.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// HTTP fetches bundles over HTTP(S) with retry and an LRU payload cache.
type HTTP struct {
	client *http.Client
	cache  *lru.Cache[string, []byte]
	retry  retry.Config
	logger zerolog.Logger

	// CacheHit is invoked after each fetch with the cache outcome. Optional.
	CacheHit func(hit bool)
}

// Option configures the HTTP fetcher.
type Option func(*HTTP)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *HTTP) { f.client = c }
}

// WithRetry overrides the retry policy.
func WithRetry(cfg retry.Config) Option {
	return func(f *HTTP) { f.retry = cfg }
}

// WithCacheSize sets the payload cache capacity.
func WithCacheSize(n int) Option {
	return func(f *HTTP) { f.cache = lru.New[string, []byte](n) }
}

// NewHTTP constructs an HTTP fetcher.
func NewHTTP(logger zerolog.Logger, opts ...Option) *HTTP {
	f := &HTTP{
		client: &http.Client{Timeout: 30 * time.Second},
		cache:  lru.New[string, []byte](8),
		retry:  retry.DefaultConfig(),
		logger: logger.With().Str("component", "fetch").Logger(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch retrieves the bundle bytes for a locator.
func (f *HTTP) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if data, ok := f.cache.Get(locator); ok {
		f.logger.Debug().Str("locator", locator).Msg("bundle cache hit")
		if f.CacheHit != nil {
			f.CacheHit(true)
		}
		return data, nil
	}
	if f.CacheHit != nil {
		f.CacheHit(false)
	}

	var data []byte
	err := retry.Do(ctx, f.retry, func(ctx context.Context) error {
		var ferr error
		data, ferr = f.fetchOnce(ctx, locator)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	f.cache.Put(locator, data)
	return data, nil
}

func (f *HTTP) fetchOnce(ctx context.Context, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, &werrors.TransportError{Service: "fetch", Message: "building request", Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &werrors.TransportError{Service: "fetch", Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, werrors.NewTransportError("fetch", resp.StatusCode, fmt.Sprintf("fetching %s", locator))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &werrors.TransportError{Service: "fetch", Message: "reading body", Err: err}
	}
	return data, nil
}

// Local resolves file: locators and bare paths from the local filesystem.
type Local struct{}

// Fetch reads the file behind the locator.
func (Local) Fetch(_ context.Context, locator string) ([]byte, error) {
	path := strings.TrimPrefix(locator, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &werrors.TransportError{Service: "fetch", Message: "reading " + path, Err: err}
	}
	return data, nil
}

// ForLocator picks the fetcher matching the locator scheme.
func ForLocator(locator string, httpFetcher *HTTP) Fetcher {
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		return httpFetcher
	}
	return Local{}
}

// Dispatch routes each fetch by locator scheme, so a single Fetcher can serve
// both remote and local bundles.
type Dispatch struct {
	HTTP *HTTP
}

func (d Dispatch) Fetch(ctx context.Context, locator string) ([]byte, error) {
	return ForLocator(locator, d.HTTP).Fetch(ctx, locator)
}
