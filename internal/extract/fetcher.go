package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/ppiankov/docstruct/internal/model"
	"github.com/ppiankov/docstruct/internal/util"
	"github.com/ppiankov/docstruct/internal/worker"
)

const (
	fetchAttempts   = 3
	fetchRetryDelay = time.Second
)

// StatusError is returned for non-2xx responses
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Fetcher downloads documents over HTTP and extracts them
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker // nil when robots.txt is ignored
	limiter    *worker.Limiter
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewFetcher creates a fetcher from the HTTP configuration. A nil limiter
// allows one request per second per host.
func NewFetcher(cfg model.HTTPConfig, limiter *worker.Limiter, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if limiter == nil {
		limiter = worker.NewLimiter(1, 1)
	}

	client := util.NewHTTPClient(cfg)
	f := &Fetcher{
		httpClient: client,
		userAgent:  cfg.UserAgent,
		maxBytes:   cfg.MaxBodyBytes,
		limiter:    limiter,
		retryDelay: fetchRetryDelay,
		logger:     logger,
	}
	if cfg.RespectRobots {
		f.robots = util.NewRobotsChecker(client, cfg.UserAgent, logger)
	}
	return f
}

// FetchResult is a raw HTTP response body with its metadata
type FetchResult struct {
	Body        []byte
	StatusCode  int
	ContentType string
	FinalURL    string
}

// Fetch downloads rawURL, honouring robots.txt and the per-host rate limit,
// and extracts it by content type
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Source, error) {
	host, err := worker.HostKey(rawURL)
	if err != nil {
		return nil, err
	}

	var crawlDelay time.Duration
	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots check: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrDisallowedByRobots, rawURL)
		}
		crawlDelay = delay
	}

	if err := f.limiter.WaitWithDelay(ctx, host, crawlDelay); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	result, err := f.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	src, err := extractResponse(result)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", result.FinalURL, err)
	}

	src.Metadata["source_url"] = rawURL
	src.Metadata["final_url"] = result.FinalURL
	src.Metadata["status_code"] = result.StatusCode
	src.Metadata["content_type"] = result.ContentType
	if _, ok := src.Metadata["title"]; !ok {
		src.Metadata["title"] = extractSubject(result.FinalURL)
	}

	return src, nil
}

// extractResponse picks the extractor from the response media type
func extractResponse(result *FetchResult) (*Source, error) {
	mediaType, _, err := mime.ParseMediaType(result.ContentType)
	if err != nil {
		mediaType = "text/html"
	}

	switch {
	case mediaType == "application/pdf":
		return FromPDFReader(bytes.NewReader(result.Body))
	case mediaType == "text/plain" || mediaType == "text/markdown":
		src := FromText(string(result.Body), nil)
		if len(src.Paragraphs) == 0 {
			return nil, ErrNoText
		}
		if title, ok := titleFromFirstLine(string(result.Body)); ok {
			src.Metadata["title"] = title
		}
		return src, nil
	case mediaType == "text/html" || mediaType == "application/xhtml+xml" || strings.HasSuffix(mediaType, "+xml"):
		return FromHTML(bytes.NewReader(result.Body), result.FinalURL)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mediaType)
	}
}

// FetchWithRetry performs the GET, retrying server errors, 429s and
// connection failures with backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	return retry.DoWithData(
		func() (*FetchResult, error) {
			return f.fetchOnce(ctx, rawURL)
		},
		retry.Context(ctx),
		retry.Attempts(fetchAttempts),
		retry.Delay(f.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryableFetchError),
		retry.OnRetry(func(n uint, err error) {
			f.logger.Warn("fetch failed, retrying", "url", rawURL, "attempt", n+1, "error", err)
		}),
	)
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	reader := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("read body: %w", err))
	}
	if f.maxBytes > 0 && int64(len(body)) > f.maxBytes {
		return nil, retry.Unrecoverable(fmt.Errorf("read body: exceeds %d bytes", f.maxBytes))
	}

	return &FetchResult{
		Body:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// isRetryableFetchError reports 5xx and 429 responses and transport failures
func isRetryableFetchError(err error) bool {
	if err == nil || !retry.IsRecoverable(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 || statusErr.Code == http.StatusTooManyRequests
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// extractSubject derives a human-readable title from the URL
func extractSubject(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}

	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]

	last = strings.ReplaceAll(last, "_", " ")
	last = strings.ReplaceAll(last, "-", " ")

	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}

	return last
}
