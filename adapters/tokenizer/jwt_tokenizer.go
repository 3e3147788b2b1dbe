// Package tokenizer mints and verifies session credentials.
package tokenizer

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cardpass/gatekeeper/core"
	"github.com/cardpass/gatekeeper/ports"
)

const refreshSecretBytes = 48

// JWTTokenizer implements the Tokenizer interface with HS256-signed JWTs for
// access tokens and random opaque strings for refresh secrets.
type JWTTokenizer struct {
	secret    []byte
	issuer    string
	audience  string
	accessTTL time.Duration
}

// NewJWTTokenizer creates a tokenizer. Audience may be empty, in which case
// no audience claim is minted or enforced.
func NewJWTTokenizer(secret []byte, issuer, audience string, accessTTL time.Duration) *JWTTokenizer {
	return &JWTTokenizer{
		secret:    secret,
		issuer:    issuer,
		audience:  audience,
		accessTTL: accessTTL,
	}
}

// MintAccess builds and signs the access token claim set.
func (j *JWTTokenizer) MintAccess(wallet, nonce, purpose, domain string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(j.accessTTL)

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   wallet,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
		Nonce:   nonce,
		Purpose: purpose,
		Domain:  domain,
	}
	if j.audience != "" {
		claims.Audience = jwt.ClaimStrings{j.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	return signed, expiresAt, nil
}

// VerifyAccess parses and validates an access token and returns the claim set.
func (j *JWTTokenizer) VerifyAccess(tokenStr string) (*core.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithIssuedAt(),
	}
	if j.audience != "" {
		opts = append(opts, jwt.WithAudience(j.audience))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, func(*jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, core.ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, core.ErrIssuerMismatch
		case errors.Is(err, jwt.ErrTokenInvalidAudience):
			return nil, core.ErrAudienceMismatch
		default:
			return nil, core.ErrInvalidSignature
		}
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, core.ErrInvalidSignature
	}

	principal := &core.Principal{
		Wallet:    claims.Subject,
		Issuer:    claims.Issuer,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		Nonce:     claims.Nonce,
		Purpose:   claims.Purpose,
		Domain:    claims.Domain,
	}
	if len(claims.Audience) > 0 {
		principal.Audience = claims.Audience[0]
	}

	return principal, nil
}

// NewRefreshSecret generates the opaque refresh credential. It is not a JWT;
// the ledger stores only its hash.
func (j *JWTTokenizer) NewRefreshSecret() (string, error) {
	raw := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate refresh secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

var _ ports.Tokenizer = (*JWTTokenizer)(nil)
