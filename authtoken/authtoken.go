// File: authtoken/authtoken.go
package authtoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is the fixed "iss" claim every token minted by this service
// carries, grounded in original_source's JWT_ISSUER constant.
const Issuer = "session-arena"

// Leeway absorbs small clock skew between the token minter and this
// server when checking "exp", mirroring the Rust validator's leeway.
const Leeway = 15 * time.Second

// DefaultExpiration is a ten-minute validity period callers of Mint may pass.
// The transport adapter only verifies tokens and mints none; cmd/gentoken
// takes its duration from the --duration flag (one year by default).
const DefaultExpiration = 10 * time.Minute

// Audience distinguishes what class of endpoint a token may be used on.
type Audience string

const (
	AudiencePlayer Audience = "player"
	AudienceViewer Audience = "viewer"
)

// ErrInvalidToken wraps every validation failure (bad signature, wrong
// audience, expired, wrong issuer) behind a single sentinel so callers
// don't need to inspect the underlying jwt/v5 error type.
var ErrInvalidToken = errors.New("authtoken: invalid token")

// Claims is the JWT payload shape: reserved claims plus a player-only
// display name, matching original_source's JWTToken<Audience,T> generic
// collapsed into one concrete struct (Go has no clean per-audience
// generic specialization for this, and the field is simply empty/unused
// for viewer tokens).
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// Mint signs a new token for id, valid for the given audience and
// duration, with an optional display name (used for AudiencePlayer).
func Mint(secret []byte, id uuid.UUID, aud Audience, name string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   id.String(),
			Audience:  jwt.ClaimStrings{string(aud)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
		Name: name,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Verify parses and validates raw against secret, requiring the fixed
// issuer and the given audience, and returns the subject id plus the
// decoded claims on success.
func Verify(secret []byte, raw string, wantAudience Audience) (uuid.UUID, Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(string(wantAudience)),
		jwt.WithLeeway(Leeway),
	)
	if err != nil || !token.Valid {
		return uuid.UUID{}, Claims{}, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.UUID{}, Claims{}, ErrInvalidToken
	}
	return id, claims, nil
}
