// Package identity turns externally issued identity tokens into request
// principals and guards routes by the roles those principals hold.
package identity

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Claim types understood by the guards.
const (
	ClaimSubject     = "sub"
	ClaimRole        = "role"
	ClaimRealmAccess = "realm_access"
)

// Roles granted by the identity provider.
const (
	RoleUser          = "user"
	RoleJobsDashboard = "jobs-dashboard-access"
)

// Principal is the identity of one request: a set of claim types, each with
// one or more values. A Principal is never mutated after construction.
type Principal struct {
	authenticated bool
	claims        map[string][]string
}

// Anonymous returns the unauthenticated principal.
func Anonymous() Principal {
	return Principal{}
}

// NewPrincipal returns an authenticated principal holding claims.
func NewPrincipal(claims map[string][]string) Principal {
	copied := make(map[string][]string, len(claims))
	for k, v := range claims {
		copied[k] = append([]string(nil), v...)
	}
	return Principal{authenticated: true, claims: copied}
}

// PrincipalFromToken flattens verified token claims. Scalars become one value,
// arrays one value per element and nested objects their JSON text.
func PrincipalFromToken(claims jwt.MapClaims) Principal {
	flat := make(map[string][]string, len(claims))
	for typ, raw := range claims {
		switch v := raw.(type) {
		case []any:
			for _, item := range v {
				if s, ok := claimValue(item); ok {
					flat[typ] = append(flat[typ], s)
				}
			}
		default:
			if s, ok := claimValue(v); ok {
				flat[typ] = append(flat[typ], s)
			}
		}
	}
	return NewPrincipal(flat)
}

func claimValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	case json.Number:
		return t.String(), true
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(data), true
	}
}

// Authenticated reports whether the principal came from a verified token.
func (p Principal) Authenticated() bool {
	return p.authenticated
}

// Values returns a copy of every value of claim type typ.
func (p Principal) Values(typ string) []string {
	return append([]string(nil), p.claims[typ]...)
}

// First returns the first value of claim type typ.
func (p Principal) First(typ string) (string, bool) {
	values := p.claims[typ]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// HasClaim reports whether the principal holds typ with value.
func (p Principal) HasClaim(typ, value string) bool {
	for _, v := range p.claims[typ] {
		if v == value {
			return true
		}
	}
	return false
}

// HasRole reports whether the principal holds a discrete role claim.
func (p Principal) HasRole(role string) bool {
	return p.HasClaim(ClaimRole, role)
}

// Subject returns the sub claim.
func (p Principal) Subject() string {
	sub, _ := p.First(ClaimSubject)
	return sub
}

// ClaimTypes returns the claim types held, sorted.
func (p Principal) ClaimTypes() []string {
	types := make([]string, 0, len(p.claims))
	for t := range p.claims {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// withClaim returns a copy of p that also holds typ=value. An existing pair
// is not duplicated.
func (p Principal) withClaim(typ, value string) Principal {
	if p.HasClaim(typ, value) {
		return p
	}
	next := NewPrincipal(p.claims)
	next.authenticated = p.authenticated
	next.claims[typ] = append(next.claims[typ], value)
	return next
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the request principal, anonymous when absent.
func PrincipalFromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(principalContextKey{}).(Principal)
	return p
}
