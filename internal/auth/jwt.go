package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// Token types carried in the "typ" claim
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// ErrWrongTokenType is returned when a refresh token is used as an access
// token or the other way around
var ErrWrongTokenType = errors.New("wrong token type")

// JWTClaims represents the JWT token claims
type JWTClaims struct {
	AdminID string `json:"admin_id"`
	Email   string `json:"email,omitempty"`
	Type    string `json:"typ"`
	jwt.RegisteredClaims
}

// Issuer signs and validates HS256 tokens with the deployment secret
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer creates an issuer for the given secret and lifetimes
func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret not initialized")
	}
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// RefreshTTL returns how long refresh tokens stay valid
func (i *Issuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}

// GenerateAccessToken creates a short-lived token for API calls
func (i *Issuer) GenerateAccessToken(adminID, email string) (string, error) {
	// A fresh ID keeps tokens issued within the same second distinct
	return i.sign(JWTClaims{AdminID: adminID, Email: email, Type: TypeAccess}, ulid.Make().String(), i.accessTTL)
}

// GenerateRefreshToken creates a refresh token whose JWT ID is tokenID
func (i *Issuer) GenerateRefreshToken(adminID, tokenID string) (string, error) {
	return i.sign(JWTClaims{AdminID: adminID, Type: TypeRefresh}, tokenID, i.refreshTTL)
}

func (i *Issuer) sign(claims JWTClaims, id string, ttl time.Duration) (string, error) {
	now := i.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        id,
		Subject:   claims.AdminID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// ValidateToken validates a JWT token of the expected type and returns the claims
func (i *Issuer) ValidateToken(tokenString, tokenType string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims.Type != tokenType {
		return nil, fmt.Errorf("%w: expected %s, got %q", ErrWrongTokenType, tokenType, claims.Type)
	}

	return claims, nil
}
