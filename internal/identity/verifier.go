package identity

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoVerificationKey is returned when neither a public key nor a secret is configured.
var ErrNoVerificationKey = errors.New("identity: no token verification key configured")

// TokenVerifier validates a raw identity token and returns its principal.
type TokenVerifier interface {
	Verify(raw string) (Principal, error)
}

// VerifierConfig selects how identity tokens are checked.
type VerifierConfig struct {
	Issuer   string
	Audience string
	// PublicKeyPEM is the provider's RSA signing key.
	PublicKeyPEM string
	// HMACSecret enables HS256 tokens; intended for development only.
	HMACSecret string
}

// JWTVerifier verifies identity tokens with golang-jwt.
type JWTVerifier struct {
	parser *jwt.Parser
	key    any
}

// NewJWTVerifier builds a verifier from cfg. An RSA key takes precedence over
// an HMAC secret.
func NewJWTVerifier(cfg VerifierConfig) (*JWTVerifier, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	var key any
	switch {
	case cfg.PublicKeyPEM != "":
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("identity: parse public key: %w", err)
		}
		key = pub
		opts = append(opts, jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}))
	case cfg.HMACSecret != "":
		key = []byte(cfg.HMACSecret)
		opts = append(opts, jwt.WithValidMethods([]string{"HS256"}))
	default:
		return nil, ErrNoVerificationKey
	}
	return &JWTVerifier{parser: jwt.NewParser(opts...), key: key}, nil
}

// Verify parses raw, checks signature, expiry, issuer and audience.
func (v *JWTVerifier) Verify(raw string) (Principal, error) {
	claims := jwt.MapClaims{}
	token, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("identity: verify token: %w", err)
	}
	if !token.Valid {
		return Principal{}, errors.New("identity: token is not valid")
	}
	return PrincipalFromToken(claims), nil
}
