package identity

import (
	"net/http"
	"net/url"

	"github.com/odyssey-erp/catalog/internal/platform/httpx"
	"github.com/odyssey-erp/catalog/internal/shared"
)

// Decision is the outcome of one guard.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow is the allowing decision.
var Allow = Decision{Allowed: true}

// Deny returns a denying decision with reason.
func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Guard evaluates a normalized principal.
type Guard func(Principal) Decision

// RequireAuthenticated denies anonymous principals.
func RequireAuthenticated() Guard {
	return func(p Principal) Decision {
		if !p.Authenticated() {
			return Deny("Authentication is required.")
		}
		return Allow
	}
}

// RequireRole denies principals lacking role.
func RequireRole(role string) Guard {
	return func(p Principal) Decision {
		if !p.HasRole(role) {
			return Deny("The '" + role + "' role is required.")
		}
		return Allow
	}
}

// Evaluate runs guards in order and returns the first denial.
func Evaluate(p Principal, guards ...Guard) Decision {
	for _, g := range guards {
		if d := g(p); !d.Allowed {
			return d
		}
	}
	return Allow
}

// Authorize guards API routes. Anonymous principals are answered with 401,
// authenticated ones lacking a grant with 403, both as envelopes.
func Authorize(errs *httpx.ErrorMapper, guards ...Guard) func(http.Handler) http.Handler {
	guards = append([]Guard{RequireAuthenticated()}, guards...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			d := Evaluate(p, guards...)
			switch {
			case d.Allowed:
				next.ServeHTTP(w, r)
			case !p.Authenticated():
				errs.Write(w, r, &shared.UnauthorizedError{Message: d.Reason})
			default:
				errs.Write(w, r, &shared.ForbiddenError{Message: d.Reason})
			}
		})
	}
}

// AuthorizeBrowser guards pages visited by a browser. Anonymous visitors are
// sent to the login trigger, denied ones to the access denied path.
func AuthorizeBrowser(loginPath, deniedPath string, guards ...Guard) func(http.Handler) http.Handler {
	guards = append([]Guard{RequireAuthenticated()}, guards...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			d := Evaluate(p, guards...)
			switch {
			case d.Allowed:
				next.ServeHTTP(w, r)
			case !p.Authenticated():
				http.Redirect(w, r, loginPath+"?returnUrl="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			default:
				http.Redirect(w, r, deniedPath, http.StatusFound)
			}
		})
	}
}
