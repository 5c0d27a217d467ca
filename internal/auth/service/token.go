package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"lexdraft/internal/auth/models"
	id "lexdraft/pkg/domain"
)

type tokenClaims struct {
	jwt.RegisteredClaims
	TenantID  string `json:"tid"`
	SessionID string `json:"sid"`
	Role      string `json:"role"`
}

// TokenManager signs and verifies HS256 access tokens. A token is bound to a
// session; verification of the signature alone is not enough to accept it.
type TokenManager struct {
	signingKey []byte
}

func NewTokenManager(signingKey []byte) *TokenManager {
	return &TokenManager{signingKey: signingKey}
}

// Issue signs a token for the session. The token expires together with the
// session.
func (m *TokenManager) Issue(session *models.Session) (string, error) {
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
		TenantID:  session.TenantID.String(),
		SessionID: session.ID.String(),
		Role:      string(session.Role),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the parsed claims.
func (m *TokenManager) Verify(tokenString string) (*parsedToken, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Header["alg"])
		}
		return m.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("token subject: %w", err)
	}
	tenantID, err := id.ParseTenantID(claims.TenantID)
	if err != nil {
		return nil, fmt.Errorf("token tenant: %w", err)
	}
	sessionID, err := id.ParseSessionID(claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("token session: %w", err)
	}
	return &parsedToken{
		UserID:    userID,
		TenantID:  tenantID,
		SessionID: sessionID,
		Role:      claims.Role,
	}, nil
}

type parsedToken struct {
	UserID    id.UserID
	TenantID  id.TenantID
	SessionID id.SessionID
	Role      string
}

// expiresIn guards against clock skew producing an already expired session.
func expiresIn(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return now.Add(ttl)
}
