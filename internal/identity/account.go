package identity

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/odyssey-erp/catalog/internal/shared"
)

const messageAuthFailure = "An error occurred processing your authentication."

// OIDCConfig describes the identity provider endpoints and client registration.
type OIDCConfig struct {
	AuthURL       string
	TokenURL      string
	EndSessionURL string
	ClientID      string
	ClientSecret  string
	RedirectURL   string
}

// AccountHandler drives the browser login flow: authorization code with PKCE,
// the callback exchange, and logout.
type AccountHandler struct {
	oauth       *oauth2.Config
	endSession  string
	verifier    TokenVerifier
	sessions    *shared.SessionManager
	logger      *slog.Logger
	development bool
}

// NewAccountHandler constructs an AccountHandler.
func NewAccountHandler(cfg OIDCConfig, verifier TokenVerifier, sessions *shared.SessionManager, logger *slog.Logger, development bool) *AccountHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountHandler{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
			Scopes: []string{"openid", "profile", "roles"},
		},
		endSession:  cfg.EndSessionURL,
		verifier:    verifier,
		sessions:    sessions,
		logger:      logger,
		development: development,
	}
}

// MountRoutes registers the account endpoints.
func (h *AccountHandler) MountRoutes(r chi.Router) {
	r.Get("/login", h.login)
	r.Post("/login", h.login)
	r.Get("/callback", h.callback)
	r.Post("/logout", h.logout)
	r.Get("/access-denied", h.logout)
}

func (h *AccountHandler) login(w http.ResponseWriter, r *http.Request) {
	if PrincipalFromContext(r.Context()).Authenticated() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.fail(w, errors.New("identity: no session in request context"))
		return
	}

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	sess.Set(shared.SessionKeyState, state)
	sess.Set(shared.SessionKeyPKCEVerifier, verifier)
	sess.Set(shared.SessionKeyReturnTo, localPath(r.URL.Query().Get("returnUrl")))

	target := h.oauth.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "login"),
	)
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *AccountHandler) callback(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.fail(w, errors.New("identity: no session in request context"))
		return
	}
	q := r.URL.Query()

	state := sess.Pop(shared.SessionKeyState)
	verifier := sess.Pop(shared.SessionKeyPKCEVerifier)
	returnTo := sess.Pop(shared.SessionKeyReturnTo)

	if e := q.Get("error"); e != "" {
		h.fail(w, fmt.Errorf("identity: provider returned %s: %s", e, q.Get("error_description")))
		return
	}
	if state == "" || q.Get("state") != state {
		h.fail(w, errors.New("identity: state mismatch"))
		return
	}

	token, err := h.oauth.Exchange(r.Context(), q.Get("code"), oauth2.VerifierOption(verifier))
	if err != nil {
		h.fail(w, fmt.Errorf("identity: exchange code: %w", err))
		return
	}
	rawID, _ := token.Extra("id_token").(string)
	if rawID == "" {
		h.fail(w, errors.New("identity: token response has no id_token"))
		return
	}
	if _, err := h.verifier.Verify(rawID); err != nil {
		h.fail(w, fmt.Errorf("identity: verify id_token: %w", err))
		return
	}

	sess.Set(shared.SessionKeyIDToken, rawID)
	if returnTo == "" {
		returnTo = "/"
	}
	http.Redirect(w, r, returnTo, http.StatusFound)
}

func (h *AccountHandler) logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	var idToken string
	if sess != nil {
		idToken = sess.Get(shared.SessionKeyIDToken)
		h.sessions.Destroy(sess)
	}
	if h.endSession == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	target, err := url.Parse(h.endSession)
	if err != nil {
		h.fail(w, fmt.Errorf("identity: parse end session url: %w", err))
		return
	}
	params := target.Query()
	if idToken != "" {
		params.Set("id_token_hint", idToken)
	}
	target.RawQuery = params.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}

func (h *AccountHandler) fail(w http.ResponseWriter, err error) {
	h.logger.Error("authentication failed", slog.Any("error", err))
	body := messageAuthFailure
	if h.development {
		body = err.Error()
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(body))
}

// localPath keeps only same-origin, absolute paths to avoid open redirects.
func localPath(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	return raw
}
