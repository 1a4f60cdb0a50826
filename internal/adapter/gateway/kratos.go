package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	kratos "github.com/ory/kratos-client-go"

	"leadhub/internal/domain"
)

// KratosGateway implements domain.IdentityProvider.
type KratosGateway struct {
	client       *kratos.APIClient
	adminBaseURL string
	httpClient   *http.Client
}

// NewKratosGateway creates a new Kratos gateway with tuned HTTP transport.
func NewKratosGateway(baseURL, adminBaseURL string, timeout time.Duration) *KratosGateway {
	configuration := kratos.NewConfiguration()
	configuration.Servers = []kratos.ServerConfiguration{
		{URL: baseURL},
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
	configuration.HTTPClient = httpClient

	return &KratosGateway{
		client:       kratos.NewAPIClient(configuration),
		adminBaseURL: adminBaseURL,
		httpClient:   httpClient,
	}
}

// ValidateSession validates a session cookie and returns the identity.
// Provider throttling surfaces as a RateLimitedError carrying any
// advertised retry window.
func (g *KratosGateway) ValidateSession(ctx context.Context, cookie string) (*domain.Identity, error) {
	if cookie == "" {
		return nil, domain.ErrSessionNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	session, resp, err := g.client.FrontendAPI.ToSession(ctx).Cookie(cookie).Execute()
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return nil, domain.ErrAuthFailed
			case http.StatusTooManyRequests:
				return nil, &domain.RateLimitedError{RetryAfter: parseRetryAfter(resp)}
			}
			return nil, fmt.Errorf("%w: kratos returned status %d", domain.ErrIdentityProviderUnavailable, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrIdentityProviderUnavailable, err)
	}

	if session.Active != nil && !*session.Active {
		return nil, domain.ErrSessionInactive
	}

	if session.Identity == nil {
		return nil, domain.ErrMissingIdentity
	}

	email := ""
	if traits, ok := session.Identity.Traits.(map[string]interface{}); ok {
		if emailVal, ok := traits["email"]; ok {
			if emailStr, ok := emailVal.(string); ok {
				email = emailStr
			}
		}
	}

	var createdAt time.Time
	if session.Identity.CreatedAt != nil {
		createdAt = *session.Identity.CreatedAt
	}

	return &domain.Identity{
		UserID:    session.Identity.Id,
		Email:     email,
		SessionID: session.Id,
		CreatedAt: createdAt,
	}, nil
}

// TerminateSession disables a session through the Kratos Admin API.
// Used by the anomaly monitor on critical findings.
func (g *KratosGateway) TerminateSession(ctx context.Context, sessionID string) error {
	if g.adminBaseURL == "" {
		return fmt.Errorf("%w: admin API not configured", domain.ErrIdentityProviderUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/admin/sessions/%s", g.adminBaseURL, sessionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIdentityProviderUnavailable, err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIdentityProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusNotFound:
		// Already gone is the outcome we wanted.
		return nil
	default:
		return fmt.Errorf("%w: admin API returned status %d", domain.ErrIdentityProviderUnavailable, resp.StatusCode)
	}
}

// parseRetryAfter reads a Retry-After header in seconds, 0 when
// absent or unparseable.
func parseRetryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

var _ domain.IdentityProvider = (*KratosGateway)(nil)
