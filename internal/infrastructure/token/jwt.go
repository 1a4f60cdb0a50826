package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"leadhub/internal/domain"
)

const minSecretLength = 32

// JWTConfig holds JWT generation configuration.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// backendClaims are the claims on tokens minted for downstream
// services.
type backendClaims struct {
	Email string `json:"email"`
	Role  int    `json:"role"`
	Sid   string `json:"sid"`
	jwt.RegisteredClaims
}

// JWTIssuer generates JWT tokens for backend authentication.
// Implements domain.TokenIssuer.
type JWTIssuer struct {
	cfg JWTConfig
}

// NewJWTIssuer creates a new JWT issuer.
func NewJWTIssuer(cfg JWTConfig) (*JWTIssuer, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, domain.ErrBackendSecretWeak
	}
	return &JWTIssuer{cfg: cfg}, nil
}

// IssueBackendToken generates a signed HS256 token carrying the user's
// role and session binding.
func (j *JWTIssuer) IssueBackendToken(identity *domain.Identity, role domain.Role) (string, error) {
	now := time.Now()
	claims := backendClaims{
		Email: identity.Email,
		Role:  int(role),
		Sid:   identity.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.cfg.Issuer,
			Audience:  jwt.ClaimStrings{j.cfg.Audience},
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.cfg.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrTokenGeneration, err)
	}
	return signed, nil
}

var _ domain.TokenIssuer = (*JWTIssuer)(nil)
