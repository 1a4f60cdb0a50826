package colorpool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"leadhub/internal/domain"
)

const maxLogoBytes = 5 << 20

// Extractor implements domain.ColorExtractor. Fetching the logo is
// plain IO on the calling goroutine; the pixel analysis is handed to
// the worker pool.
type Extractor struct {
	pool       *Pool
	httpClient *http.Client
	logger     *slog.Logger
}

// NewExtractor creates an extractor with a tuned HTTP transport.
func NewExtractor(pool *Pool, logger *slog.Logger) *Extractor {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Extractor{
		pool: pool,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
		logger: logger,
	}
}

// Extract downloads the logo and derives its palette on the pool.
func (e *Extractor) Extract(ctx context.Context, logoURL string, priority int) (domain.BusinessColors, error) {
	data, err := e.fetch(ctx, logoURL)
	if err != nil {
		return domain.BusinessColors{}, err
	}

	return e.pool.Run(ctx, priority, func() (domain.BusinessColors, error) {
		return PaletteFromImage(data)
	})
}

func (e *Extractor) fetch(ctx context.Context, logoURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, logoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: logo fetch returned status %d", domain.ErrExtractionFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
	}
	if len(data) > maxLogoBytes {
		return nil, fmt.Errorf("%w: logo exceeds %d bytes", domain.ErrExtractionFailed, maxLogoBytes)
	}
	return data, nil
}

var _ domain.ColorExtractor = (*Extractor)(nil)
