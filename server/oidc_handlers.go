package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/lumawork/go-sso-gateway/oidcauth"
	"github.com/lumawork/go-sso-gateway/server/statestore"
	"github.com/lumawork/go-sso-gateway/tenants"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Query parameters owned by the OAuth2 protocol or consumed by this gateway
// itself. Everything else on the initiate request is carried through the
// state store and replayed as a token-exchange parameter on the callback.
var reservedOAuthParams = map[string]bool{
	"code":          true,
	"state":         true,
	"client_id":     true,
	"client_secret": true,
	"client":        true,
	"returnTo":      true,
	"grant_type":    true,
	"redirect_uri":  true,
	"response_type": true,
	"scope":         true,
}

// OIDCInitiateHandler starts the authorization roundtrip: it persists CSRF
// state (with the caller's extra query parameters bound to it) and redirects
// the browser to the identity provider.
func (s *Server) OIDCInitiateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := generateRandomString(24)

		forwarded := make(map[string]string)
		for key, values := range r.URL.Query() {
			if reservedOAuthParams[key] || len(values) == 0 {
				continue
			}
			forwarded[key] = values[0]
		}

		stateData := &statestore.State{
			ClientID:       clientFromRequest(r),
			ReturnURL:      r.URL.Query().Get("returnTo"),
			ForwardedQuery: forwarded,
			CreatedAt:      time.Now(),
		}
		if tenant := s.tenantFromRequest(r); tenant != nil {
			stateData.TenantID = tenant.ID
		}

		if err := s.authState.Upsert(state, stateData); err != nil {
			log.Error().Err(err).Msg("failed to persist authorization state")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, s.oauth2Config.AuthCodeURL(state), http.StatusFound)
	}
}

// OIDCCallbackHandler completes the roundtrip. It validates state, exchanges
// the authorization code, and hands the token result to the sign-in
// pipeline. Every failure lands on the generic failure redirect with a
// notice code; no claim data reaches the response.
func (s *Server) OIDCCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// r.FormValue reads both query params (GET) and form data (form_post)
		state := r.FormValue("state")
		code := r.FormValue("code")

		if errorParam := r.FormValue("error"); errorParam != "" {
			log.Warn().Str("error", errorParam).Str("description", r.FormValue("error_description")).Msg("provider returned an authorization error")
			s.redirectFailure(w, r, "auth_error")
			return
		}
		if code == "" || state == "" {
			http.Error(w, "Missing code or state parameter", http.StatusBadRequest)
			return
		}

		authState, err := s.authState.Get(state)
		if err != nil || authState == nil {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}
		// One-time use: a replayed state must not complete a second exchange.
		if err := s.authState.Delete(state); err != nil {
			http.Error(w, "Invalid state parameter", http.StatusInternalServerError)
			return
		}

		opts := make([]oauth2.AuthCodeOption, 0, len(authState.ForwardedQuery))
		for key, value := range authState.ForwardedQuery {
			opts = append(opts, oauth2.SetAuthURLParam(key, value))
		}

		oauth2Token, err := s.oauth2Config.Exchange(r.Context(), code, opts...)
		if err != nil {
			log.Warn().Err(err).Msg("token exchange failed")
			s.redirectFailure(w, r, "auth_error")
			return
		}

		var tenant *tenants.Tenant
		if authState.TenantID != "" {
			if tenant, err = s.repos.Tenants.Get(authState.TenantID); err != nil {
				http.Error(w, "Tenant not found", http.StatusNotFound)
				return
			}
		}

		idToken, _ := oauth2Token.Extra("id_token").(string)
		result, err := s.auth.SignIn(r.Context(), oidcauth.SignInInput{
			AccessToken:  oauth2Token.AccessToken,
			RefreshToken: oauth2Token.RefreshToken,
			IDToken:      idToken,
			ExpiresIn:    int(time.Until(oauth2Token.Expiry).Seconds()),
			Tenant:       tenant,
			ClientIP:     clientIP(r),
		})
		if err != nil {
			log.Warn().Err(err).Str("kind", oidcauth.Kind(err)).Msg("sign-in failed")
			s.redirectFailure(w, r, oidcauth.Kind(err))
			return
		}

		log.Info().Str("user_id", result.User.ID).Str("tenant_id", result.Tenant.ID).Bool("new_user", result.IsNewUser).Msg("sign-in completed")

		if authState.ClientID == ClientDesktop {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"user":       result.User,
				"team":       result.Tenant,
				"client":     authState.ClientID,
				"new_user":   result.IsNewUser,
				"new_tenant": result.IsNewTenant,
			})
			return
		}

		returnURL := authState.ReturnURL
		if returnURL == "" || returnURL == "/" {
			returnURL = RouteHome
		}
		http.Redirect(w, r, returnURL, http.StatusFound)
	}
}

// redirectFailure sends the browser to the generic failure location with a
// machine-readable notice code. User-facing copy belongs to the web layer.
func (s *Server) redirectFailure(w http.ResponseWriter, r *http.Request, notice string) {
	http.Redirect(w, r, RouteLoginFailure+"?notice="+url.QueryEscape(notice), http.StatusFound)
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
