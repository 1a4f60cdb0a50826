// Package security holds the in-memory session anomaly monitor. It is
// a best-effort heuristic, not a hard security boundary; cookie scoping
// and the identity provider remain the real enforcement points.
package security

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"leadhub/internal/domain"
)

const (
	// historyLimit bounds per-user request history.
	historyLimit = 100
	// sessionLimit is the distinct-session count above which the
	// concurrent-sessions rule fires.
	sessionLimit = 3
	// switchLimit is the business-switch request count inside
	// switchWindow above which rapid tenant switching fires.
	switchLimit  = 5
	switchWindow = 30 * time.Second
	// retention is how long a user's history survives without traffic.
	retention = 30 * time.Minute
)

// switchPathMarker identifies business-switch requests by path.
const switchPathMarker = "/switch-business"

// Monitor implements domain.AnomalyMonitor over a bounded per-user
// sliding window of request contexts.
type Monitor struct {
	mu      sync.Mutex
	history map[string][]domain.SecurityContext
	logger  *slog.Logger

	now func() time.Time
}

// NewMonitor creates a monitor and starts its cleanup loop.
func NewMonitor(logger *slog.Logger) *Monitor {
	m := &Monitor{
		history: make(map[string][]domain.SecurityContext),
		logger:  logger,
		now:     time.Now,
	}
	go m.cleanupLoop()
	return m
}

// Observe records the request context and evaluates the anomaly rules
// against the user's prior history.
func (m *Monitor) Observe(sc domain.SecurityContext) []domain.Anomaly {
	if sc.UserID == "" {
		return nil
	}
	if sc.Timestamp.IsZero() {
		sc.Timestamp = m.now()
	}

	m.mu.Lock()
	prior := m.history[sc.UserID]
	anomalies := evaluate(prior, sc)

	next := append(prior, sc)
	if len(next) > historyLimit {
		next = next[len(next)-historyLimit:]
	}
	m.history[sc.UserID] = next
	m.mu.Unlock()

	for _, a := range anomalies {
		m.logger.Warn("session anomaly detected",
			"user_id", sc.UserID,
			"session_id", sc.SessionID,
			"type", string(a.Type),
			"risk", a.Risk.String(),
			"detail", a.Detail)
	}
	return anomalies
}

// evaluate runs the rules. prior excludes the incoming context so the
// "not among them" conditions compare against history only.
func evaluate(prior []domain.SecurityContext, sc domain.SecurityContext) []domain.Anomaly {
	var anomalies []domain.Anomaly

	ips := make(map[string]struct{})
	fingerprints := make(map[string]struct{})
	sessions := make(map[string]struct{})
	switches := 0

	for _, p := range prior {
		if p.IP != "" {
			ips[p.IP] = struct{}{}
		}
		if p.Fingerprint != "" {
			fingerprints[p.Fingerprint] = struct{}{}
		}
		if p.SessionID != "" {
			sessions[p.SessionID] = struct{}{}
		}
		if strings.Contains(p.Path, switchPathMarker) && sc.Timestamp.Sub(p.Timestamp) <= switchWindow {
			switches++
		}
	}

	if _, seen := ips[sc.IP]; len(ips) > 0 && !seen && sc.IP != "" {
		anomalies = append(anomalies, domain.Anomaly{
			Type:   domain.AnomalyIPChange,
			Risk:   domain.RiskHigh,
			Detail: fmt.Sprintf("%d prior IPs, current unseen", len(ips)),
		})
	}

	if sc.SessionID != "" {
		sessions[sc.SessionID] = struct{}{}
	}
	if len(sessions) > sessionLimit {
		anomalies = append(anomalies, domain.Anomaly{
			Type:   domain.AnomalyConcurrentSessions,
			Risk:   domain.RiskMedium,
			Detail: fmt.Sprintf("%d distinct sessions tracked", len(sessions)),
		})
	}

	if strings.Contains(sc.Path, switchPathMarker) {
		switches++
	}
	if switches > switchLimit {
		anomalies = append(anomalies, domain.Anomaly{
			Type:   domain.AnomalyRapidTenantSwitch,
			Risk:   domain.RiskHigh,
			Detail: fmt.Sprintf("%d business switches in %s", switches, switchWindow),
		})
	}

	if _, seen := fingerprints[sc.Fingerprint]; len(fingerprints) > 0 && !seen && sc.Fingerprint != "" {
		anomalies = append(anomalies, domain.Anomaly{
			Type:   domain.AnomalyFingerprintMismatch,
			Risk:   domain.RiskCritical,
			Detail: fmt.Sprintf("%d prior fingerprints, current unseen", len(fingerprints)),
		})
	}

	return anomalies
}

// cleanupLoop drops users whose last request is older than retention.
func (m *Monitor) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		cutoff := m.now().Add(-retention)
		for userID, contexts := range m.history {
			if len(contexts) == 0 || contexts[len(contexts)-1].Timestamp.Before(cutoff) {
				delete(m.history, userID)
			}
		}
		m.mu.Unlock()
	}
}

var _ domain.AnomalyMonitor = (*Monitor)(nil)
