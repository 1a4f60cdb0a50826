package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"leadhub/internal/domain"
)

// WebhookConfig holds the automation platform endpoints.
type WebhookConfig struct {
	VerifyAddressURL string
	CreateBookingURL string
	RescheduleURL    string
	CancelURL        string
	FreeSlotsURL     string
	Timeout          time.Duration
}

// WebhookGateway implements domain.BookingGateway against the booking
// automation platform. The platform is opaque: anything other than a
// 2xx with a parseable body is a generic retryable failure.
type WebhookGateway struct {
	cfg        WebhookConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWebhookGateway creates the webhook gateway.
func NewWebhookGateway(cfg WebhookConfig, logger *slog.Logger) *WebhookGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookGateway{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
	}
}

// VerifyAddress asks the platform whether the address is serviceable.
func (g *WebhookGateway) VerifyAddress(ctx context.Context, req domain.AddressVerification) (*domain.AddressResult, error) {
	var result domain.AddressResult
	if err := g.post(ctx, g.cfg.VerifyAddressURL, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateBooking books the appointment and returns the platform's
// booking id.
func (g *WebhookGateway) CreateBooking(ctx context.Context, req domain.BookingRequest) (string, error) {
	payload := struct {
		domain.BookingRequest
		StartTime string `json:"startTime"`
	}{
		BookingRequest: req,
		StartTime:      req.StartTime.UTC().Format(time.RFC3339),
	}

	var result struct {
		BookingID string `json:"bookingId"`
	}
	if err := g.post(ctx, g.cfg.CreateBookingURL, payload, &result); err != nil {
		return "", err
	}
	if result.BookingID == "" {
		return "", fmt.Errorf("%w: missing booking id in response", domain.ErrWebhookFailed)
	}
	return result.BookingID, nil
}

// RescheduleBooking moves an appointment.
func (g *WebhookGateway) RescheduleBooking(ctx context.Context, bookingID string, startTime time.Time) error {
	payload := map[string]string{
		"bookingId": bookingID,
		"startTime": startTime.UTC().Format(time.RFC3339),
	}
	return g.post(ctx, g.cfg.RescheduleURL, payload, nil)
}

// CancelBooking cancels an appointment.
func (g *WebhookGateway) CancelBooking(ctx context.Context, bookingID string) error {
	payload := map[string]string{
		"bookingId": bookingID,
	}
	return g.post(ctx, g.cfg.CancelURL, payload, nil)
}

// FreeSlots fetches open calendar windows for a business.
func (g *WebhookGateway) FreeSlots(ctx context.Context, businessID string, from, to time.Time) ([]domain.FreeSlot, error) {
	payload := map[string]string{
		"businessId": businessID,
		"from":       from.UTC().Format(time.RFC3339),
		"to":         to.UTC().Format(time.RFC3339),
	}

	var result struct {
		Slots []domain.FreeSlot `json:"slots"`
	}
	if err := g.post(ctx, g.cfg.FreeSlotsURL, payload, &result); err != nil {
		return nil, err
	}
	return result.Slots, nil
}

func (g *WebhookGateway) post(ctx context.Context, url string, payload, out any) error {
	if url == "" {
		return fmt.Errorf("%w: endpoint not configured", domain.ErrWebhookFailed)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrWebhookFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrWebhookFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Error("webhook request failed", "url", url, "error", err)
		return fmt.Errorf("%w: %w", domain.ErrWebhookFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.logger.Error("webhook returned error status", "url", url, "status", resp.StatusCode)
		return fmt.Errorf("%w: status %d", domain.ErrWebhookFailed, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", domain.ErrWebhookFailed, err)
	}
	return nil
}

var _ domain.BookingGateway = (*WebhookGateway)(nil)
