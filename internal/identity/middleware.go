package identity

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/odyssey-erp/catalog/internal/platform/httpx"
	"github.com/odyssey-erp/catalog/internal/shared"
)

// Authenticator resolves the principal of every request, once, before any
// guard runs. Tokens come from the Authorization header or, failing that,
// from the login session.
type Authenticator struct {
	verifier TokenVerifier
	errors   *httpx.ErrorMapper
	logger   *slog.Logger
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(verifier TokenVerifier, errs *httpx.ErrorMapper, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{verifier: verifier, errors: errs, logger: logger}
}

// Middleware stores the normalized principal in the request context. A bad
// bearer token is rejected with 401; a stale session token only leaves the
// request anonymous. A malformed realm_access claim fails the request.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, fromHeader := bearerToken(r)
		if raw == "" {
			if sess := shared.SessionFromContext(r.Context()); sess != nil {
				raw = sess.Get(shared.SessionKeyIDToken)
			}
		}

		principal := Anonymous()
		if raw != "" {
			verified, err := a.verifier.Verify(raw)
			switch {
			case err == nil:
				principal = verified
			case fromHeader:
				a.errors.Write(w, r, &shared.UnauthorizedError{Message: "The bearer token is invalid or expired."})
				return
			default:
				a.logger.Debug("discarding session token", slog.Any("error", err))
			}
		}

		principal, err := Normalize(principal)
		if err != nil {
			a.errors.Write(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
