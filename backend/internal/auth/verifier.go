// Package auth verifies Clerk session tokens and exposes the caller
// identity to request handlers. The core engine never depends on this
// package; it only ever sees the plain user id string.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	apperrors "flock/backend/pkg/errors"
	"flock/backend/pkg/logger"
)

// User is the verified caller identity extracted from a session token
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// sessionClaims is the Clerk session token payload we care about
type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// jwks is the JSON Web Key Set document served by the Clerk frontend API
type jwks struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

const jwksRefreshInterval = 5 * time.Minute

// Verifier validates Clerk RS256 session tokens against the instance
// JWKS. Keys are cached and refetched on an unknown kid, rate-limited by
// jwksRefreshInterval.
type Verifier struct {
	jwksURL string
	rest    *resty.Client
	logger  *zap.Logger

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewVerifier creates a verifier for the given Clerk frontend API host,
// e.g. "clerk.example.com"
func NewVerifier(frontendAPI string) *Verifier {
	return &Verifier{
		jwksURL: fmt.Sprintf("https://%s/.well-known/jwks.json", frontendAPI),
		rest:    resty.New().SetTimeout(10 * time.Second),
		logger:  logger.Get(),
		keys:    map[string]*rsa.PublicKey{},
	}
}

// VerifyToken verifies a session token and returns the caller identity.
// The subject claim is the Clerk user id. Clerk does not set an audience,
// so none is checked.
func (v *Verifier) VerifyToken(ctx context.Context, tokenString string) (*User, error) {
	claims := &sessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token has no kid header")
		}
		return v.signingKey(ctx, kid)
	}, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil {
		return nil, apperrors.NewAuthTokenInvalid(err)
	}
	if !token.Valid {
		return nil, apperrors.NewAuthTokenInvalid(nil)
	}
	if claims.Subject == "" {
		return nil, apperrors.NewAuthTokenInvalid(fmt.Errorf("token has no subject"))
	}

	return &User{ID: claims.Subject, Email: claims.Email}, nil
}

// signingKey resolves a kid to a cached RSA public key, refetching the
// JWKS when the kid is unknown and the cache is stale enough
func (v *Verifier) signingKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.keys[kid]
	stale := time.Since(v.fetchedAt) > jwksRefreshInterval
	v.mu.RUnlock()
	if ok {
		return key, nil
	}
	if !stale {
		return nil, apperrors.NewAuthKeyNotFound(kid)
	}

	if err := v.refreshKeys(ctx); err != nil {
		return nil, err
	}

	v.mu.RLock()
	key, ok = v.keys[kid]
	v.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewAuthKeyNotFound(kid)
	}
	return key, nil
}

func (v *Verifier) refreshKeys(ctx context.Context) error {
	resp, err := v.rest.R().SetContext(ctx).Get(v.jwksURL)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("JWKS endpoint returned %s", resp.Status())
	}

	var doc jwks
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := rsaPublicKey(k)
		if err != nil {
			v.logger.Warn("Skipping unparseable JWK", zap.String("kid", k.Kid), zap.Error(err))
			continue
		}
		keys[k.Kid] = pub
	}

	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = time.Now()
	v.mu.Unlock()

	v.logger.Debug("JWKS refreshed", zap.Int("keys", len(keys)))
	return nil
}

// rsaPublicKey builds an RSA public key from the base64url modulus and
// exponent of a JWK
func rsaPublicKey(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent: %w", err)
	}

	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() <= 0 {
		return nil, fmt.Errorf("exponent out of range")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(e.Int64()),
	}, nil
}
