package server

import (
	"crypto/rand"
	"encoding/base64"
	"net"
	"net/http"
	"strings"

	"github.com/lumawork/go-sso-gateway/tenants"
)

// Client identifiers reported by the initiate request's "client" query
// parameter. Pure request context; nothing here has side effects.
const (
	ClientWeb     = "web"
	ClientDesktop = "desktop"
)

// tenantFromRequest resolves the optional request-scoped tenant from the
// host's first label. A miss is not an error: sign-in without a tenant is a
// first-time signup.
func (s *Server) tenantFromRequest(r *http.Request) *tenants.Tenant {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return nil
	}
	tenant, err := s.repos.Tenants.GetBySubdomain(labels[0])
	if err != nil {
		return nil
	}
	return tenant
}

// clientFromRequest returns the requesting client identifier, defaulting to
// the web app.
func clientFromRequest(r *http.Request) string {
	if client := r.URL.Query().Get("client"); client == ClientDesktop {
		return ClientDesktop
	}
	return ClientWeb
}

// clientIP prefers the forwarded address set by the reverse proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
