package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"leadhub/internal/domain"
	"leadhub/internal/usecase"
)

const (
	authResultKey     = "auth_result"
	sessionCookieName = "ory_kratos_session"

	headerRequestID     = "X-Request-Id"
	headerSessionID     = "X-Session-Id"
	headerBackendToken  = "X-Backend-Token"
	headerSecurityAlert = "X-Security-Alert"
)

// AuthConfig wires the per-request authentication middleware.
type AuthConfig struct {
	Resolver *usecase.ResolveUser
	Monitor  domain.AnomalyMonitor
	Identity domain.IdentityProvider
	Tokens   domain.TokenIssuer
	Logger   *slog.Logger
}

// Auth resolves the caller once per request (cookie → cache → Kratos →
// Postgres), feeds the anomaly monitor, mints the backend token, and
// stores the AuthResult in the echo context for handlers. Terminal
// statuses are answered here so handlers only ever see usable users.
func Auth(cfg AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			requestID := c.Request().Header.Get(headerRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Response().Header().Set(headerRequestID, requestID)

			var cookieValue string
			if cookie, err := c.Cookie(sessionCookieName); err == nil {
				cookieValue = cookie.Value
			}

			result := cfg.Resolver.Execute(ctx, cookieValue)
			switch result.Status {
			case domain.AuthOK:
				// fall through below
			case domain.AuthUnauthenticated, domain.AuthTerminated:
				return echo.NewHTTPError(http.StatusUnauthorized, reasonOr(result.Reason, "authentication_required"))
			case domain.AuthAccessDenied:
				return echo.NewHTTPError(http.StatusForbidden, reasonOr(result.Reason, "access_denied"))
			case domain.AuthRateLimited:
				return echo.NewHTTPError(http.StatusTooManyRequests, reasonOr(result.Reason, "rate_limited"))
			default:
				return echo.NewHTTPError(http.StatusServiceUnavailable, reasonOr(result.Reason, "auth_unavailable"))
			}

			user := result.User
			c.Response().Header().Set(headerSessionID, user.Identity.SessionID)

			if alert, terminated := cfg.observe(c, user); terminated {
				clearSessionCookie(c)
				return echo.NewHTTPError(http.StatusUnauthorized, "session_terminated")
			} else if alert != "" {
				c.Response().Header().Set(headerSecurityAlert, alert)
			}

			if token, err := cfg.Tokens.IssueBackendToken(&user.Identity, user.Role); err != nil {
				cfg.Logger.Error("backend token issue failed", "user_id", user.Identity.UserID, "error", err)
			} else {
				c.Response().Header().Set(headerBackendToken, token)
			}

			c.Set(authResultKey, result)
			return next(c)
		}
	}
}

// observe runs the anomaly rules for this request. A critical finding
// terminates the session at the identity provider; high findings are
// surfaced to the caller via header and the request continues.
func (cfg AuthConfig) observe(c echo.Context, user *domain.AuthenticatedUser) (alert string, terminated bool) {
	req := c.Request()
	sc := domain.SecurityContext{
		RequestID:   c.Response().Header().Get(headerRequestID),
		SessionID:   user.Identity.SessionID,
		UserID:      user.Identity.UserID,
		IP:          c.RealIP(),
		UserAgent:   req.UserAgent(),
		Fingerprint: clientFingerprint(req),
		Path:        req.URL.Path,
		Timestamp:   time.Now(),
	}

	anomalies := cfg.Monitor.Observe(sc)
	if len(anomalies) == 0 {
		return "", false
	}

	risk := domain.MaxRisk(anomalies)
	for _, a := range anomalies {
		cfg.Logger.Warn("session anomaly detected",
			"user_id", sc.UserID,
			"session_id", sc.SessionID,
			"type", a.Type,
			"risk", a.Risk.String(),
			"ip", sc.IP)
		if a.Risk >= domain.RiskHigh && alert == "" {
			alert = string(a.Type)
		}
	}

	if risk >= domain.RiskCritical {
		if err := cfg.Identity.TerminateSession(req.Context(), sc.SessionID); err != nil {
			cfg.Logger.Error("session termination failed", "session_id", sc.SessionID, "error", err)
		}
		return "", true
	}
	return alert, false
}

// clientFingerprint derives a stable per-client hash from headers the
// browser sends consistently within one session.
func clientFingerprint(req *http.Request) string {
	h := sha256.New()
	h.Write([]byte(req.UserAgent()))
	h.Write([]byte{0})
	h.Write([]byte(req.Header.Get("Accept")))
	h.Write([]byte{0})
	h.Write([]byte(req.Header.Get("Accept-Language")))
	h.Write([]byte{0})
	h.Write([]byte(req.Header.Get("Accept-Encoding")))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func reasonOr(reason, fallback string) string {
	if reason == "" {
		return fallback
	}
	return reason
}

// AuthResultFrom returns the AuthResult stored by Auth, if any.
func AuthResultFrom(c echo.Context) (domain.AuthResult, bool) {
	result, ok := c.Get(authResultKey).(domain.AuthResult)
	return result, ok
}

// UserFrom returns the authenticated user stored by Auth.
func UserFrom(c echo.Context) (*domain.AuthenticatedUser, bool) {
	result, ok := AuthResultFrom(c)
	if !ok || result.User == nil {
		return nil, false
	}
	return result.User, true
}
