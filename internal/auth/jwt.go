package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const sessionIssuer = "furniture-market"

// Claims represents session token claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService signs and checks session tokens
type TokenService struct {
	secretKey []byte
	ttl       time.Duration
}

// NewTokenService creates a token service. A zero ttl issues tokens that
// never expire.
func NewTokenService(secretKey string, ttl time.Duration) *TokenService {
	return &TokenService{
		secretKey: []byte(secretKey),
		ttl:       ttl,
	}
}

// Issue creates a session token for a user
func (s *TokenService) Issue(userID, email string) (string, time.Time, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
			Subject:  userID,
			Issuer:   sessionIssuer,
		},
	}

	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = now.Add(s.ttl)
		claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// Validate checks a session token and returns its claims
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(sessionIssuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" || claims.Subject != claims.UserID {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// TTL returns the session lifetime
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
