package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/oncall-service/internal/domain"
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute, now: time.Now}
}

// Claims describes JWT payload. The person id travels in the registered "sub" claim.
type Claims struct {
	Role domain.PersonRole `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken builds and signs a JWT for the person.
func (tm *TokenManager) GenerateToken(personID string, role domain.PersonRole) (string, domain.Token, error) {
	issuedAt := tm.now()
	meta := domain.Token{
		ID:        uuid.NewString(),
		SubjectID: personID,
		Role:      role,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(tm.ttl),
	}
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        meta.ID,
			Subject:   personID,
			ExpiresAt: jwt.NewNumericDate(meta.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", domain.Token{}, err
	}
	return tokenString, meta, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
