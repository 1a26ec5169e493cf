package pipeline

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/vedcheck/internal/model"
	"github.com/ppiankov/vedcheck/internal/util"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// fetchNow stamps fetch results (injectable for tests)
var fetchNow = time.Now

// Fetcher retrieves card lookup pages. Requests carry no custom headers
// and are never retried.
type Fetcher struct {
	httpClient *http.Client
	maxBytes   int64
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(cfg model.LookupConfig) *Fetcher {
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = model.DefaultConfig().Lookup.MaxBodyBytes
	}

	transport := &http.Transport{
		Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(transport),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		maxBytes: maxBytes,
	}
}

// FetchResult contains the fetched page and metadata
type FetchResult struct {
	Body        string
	StatusCode  int
	ContentType string
	FinalURL    string
	FetchedAt   time.Time
}

// Fetch retrieves the text body at rawURL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isTextual(contentType) {
		return nil, fmt.Errorf("unexpected content type: %s", contentType)
	}

	// Read body with size limit
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{
		Body:        string(body),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		FinalURL:    resp.Request.URL.String(),
		FetchedAt:   fetchNow(),
	}, nil
}

// isTextual accepts a missing content type, text/* and XHTML
func isTextual(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "text/") || mediaType == "application/xhtml+xml"
}
