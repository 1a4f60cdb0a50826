package domain

import "time"

// RiskLevel grades how suspicious an observed session signal is.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

// String returns the lowercase label used in logs and alert headers.
func (r RiskLevel) String() string {
	switch r {
	case RiskCritical:
		return "critical"
	case RiskHigh:
		return "high"
	case RiskMedium:
		return "medium"
	default:
		return "low"
	}
}

// AnomalyType identifies the rule that produced an anomaly.
type AnomalyType string

const (
	AnomalyIPChange            AnomalyType = "ip_change"
	AnomalyConcurrentSessions  AnomalyType = "concurrent_sessions"
	AnomalyRapidTenantSwitch   AnomalyType = "rapid_tenant_switching"
	AnomalyFingerprintMismatch AnomalyType = "fingerprint_mismatch"
)

// Anomaly is a single flagged session signal.
type Anomaly struct {
	Type   AnomalyType
	Risk   RiskLevel
	Detail string
}

// SecurityContext captures per-request metadata fed to the anomaly monitor.
type SecurityContext struct {
	RequestID   string
	SessionID   string
	UserID      string
	IP          string
	UserAgent   string
	Fingerprint string
	Path        string
	Timestamp   time.Time
}

// MaxRisk returns the highest risk level among the anomalies.
func MaxRisk(anomalies []Anomaly) RiskLevel {
	risk := RiskLow
	for _, a := range anomalies {
		if a.Risk > risk {
			risk = a.Risk
		}
	}
	return risk
}
