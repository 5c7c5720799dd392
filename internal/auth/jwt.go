package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles recognized by the service. The identity provider assigns them; the
// engine trusts the token as given and never authenticates credentials itself.
const (
	RoleAdmin      = "administrator"
	RoleAgentAdmin = "agent_admin"
	RoleAgentStaff = "agent_staff"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims is the identity payload issued by the platform's identity provider.
// AgentID is nil for administrators, who are not attached to a travel agent.
type Claims struct {
	UserID   uuid.UUID  `json:"user_id"`
	UserName string     `json:"user_name"`
	Role     string     `json:"role"`
	AgentID  *uuid.UUID `json:"agent_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager verifies (and, for tests and tooling, issues) access tokens.
type JWTManager struct {
	secret   []byte
	tokenTTL time.Duration
}

// NewJWTManager creates a JWTManager with the shared signing secret.
func NewJWTManager(secret string, tokenTTL time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), tokenTTL: tokenTTL}
}

// Generate issues a signed token for the given identity.
func (m *JWTManager) Generate(userID uuid.UUID, userName, role string, agentID *uuid.UUID) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID:   userID,
		UserName: userName,
		Role:     role,
		AgentID:  agentID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses and validates a token, returning its claims.
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
