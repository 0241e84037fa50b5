package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/lumawork/go-sso-gateway/internal/config"
	"github.com/lumawork/go-sso-gateway/internal/metrics"
	"github.com/lumawork/go-sso-gateway/oidcauth"
	"github.com/lumawork/go-sso-gateway/provision"
	"github.com/lumawork/go-sso-gateway/server/statestore"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

type Server struct {
	env          string // Environment (e.g., "DEV", "production")
	mux          *http.ServeMux
	routes       []string
	config       config.Config
	auth         *oidcauth.AuthenticationService
	repos        oidcauth.Repos
	authState    statestore.Repo
	oauth2Config *oauth2.Config
}

func New(cfg config.Config, repos oidcauth.Repos, provisioner provision.Provisioner, authStateRepo statestore.Repo) (*Server, error) {
	cfg, err := withDiscoveredEndpoints(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("[Server New] endpoint discovery failed: %w", err)
	}

	s := &Server{
		mux:       http.NewServeMux(),
		config:    cfg,
		repos:     repos,
		authState: authStateRepo,
	}
	s.env = cfg.GetEnv()

	if err := metrics.Register(nil); err != nil {
		return nil, fmt.Errorf("[Server New] metrics registration: %w", err)
	}

	if cfg.OIDCEnabled() {
		authService, err := oidcauth.NewAuthenticationService(repos, cfg, provisioner)
		if err != nil {
			return nil, fmt.Errorf("[Server New] failed to create authentication service: %w", err)
		}
		s.auth = authService
		s.oauth2Config = &oauth2.Config{
			ClientID:     cfg.GetOIDCClientID(),
			ClientSecret: cfg.GetOIDCClientSecret(),
			RedirectURL:  cfg.GetAppURL() + RouteOIDCCallback,
			Scopes:       cfg.GetOIDCScopes(),
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.GetOIDCAuthURI(),
				TokenURL: cfg.GetOIDCTokenURI(),
			},
		}
	} else {
		// Incomplete OIDC configuration disables the provider: no routes,
		// no startup error.
		log.Info().Msg("OIDC configuration incomplete, provider disabled")
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) initRoutes() {
	if s.auth != nil {
		s.RegisterRouteHandler("GET "+RouteOIDCInitiate, ChainMiddleware(s.OIDCInitiateHandler(), s.StandardMiddleware()...))
		s.RegisterRouteHandler("GET "+RouteOIDCCallback, ChainMiddleware(s.OIDCCallbackHandler(), s.StandardMiddleware()...))
		s.RegisterRouteHandler("POST "+RouteOIDCCallback, ChainMiddleware(s.OIDCCallbackHandler(), s.StandardMiddleware()...)) // form_post response mode
	}

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			log.Info().Str("method", parts[0]).Str("path", parts[1]).Msg("route registered")
		} else {
			log.Info().Str("path", parts[0]).Msg("route registered")
		}
	}
}

// withDiscoveredEndpoints fills missing OIDC endpoint values from the
// issuer's discovery document when OIDC_ISSUER_URI is configured. Explicit
// endpoint configuration always wins over discovery.
func withDiscoveredEndpoints(ctx context.Context, cfg config.Config) (config.Config, error) {
	issuer := cfg.GetOIDCIssuerURI()
	if issuer == "" {
		return cfg, nil
	}
	if cfg.GetOIDCAuthURI() != "" && cfg.GetOIDCTokenURI() != "" && cfg.GetOIDCUserinfoURI() != "" {
		return cfg, nil
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, err
	}
	var doc struct {
		UserinfoEndpoint string `json:"userinfo_endpoint"`
	}
	if err := provider.Claims(&doc); err != nil {
		return nil, err
	}

	discovered := discoveredConfig{
		Config:      cfg,
		authURI:     cfg.GetOIDCAuthURI(),
		tokenURI:    cfg.GetOIDCTokenURI(),
		userinfoURI: cfg.GetOIDCUserinfoURI(),
	}
	if discovered.authURI == "" {
		discovered.authURI = provider.Endpoint().AuthURL
	}
	if discovered.tokenURI == "" {
		discovered.tokenURI = provider.Endpoint().TokenURL
	}
	if discovered.userinfoURI == "" {
		discovered.userinfoURI = doc.UserinfoEndpoint
	}
	return discovered, nil
}

// discoveredConfig overlays discovered endpoint values on the environment
// configuration.
type discoveredConfig struct {
	config.Config
	authURI     string
	tokenURI    string
	userinfoURI string
}

func (d discoveredConfig) GetOIDCAuthURI() string     { return d.authURI }
func (d discoveredConfig) GetOIDCTokenURI() string    { return d.tokenURI }
func (d discoveredConfig) GetOIDCUserinfoURI() string { return d.userinfoURI }

func (d discoveredConfig) OIDCEnabled() bool {
	return d.GetOIDCClientID() != "" &&
		d.GetOIDCClientSecret() != "" &&
		d.authURI != "" &&
		d.tokenURI != "" &&
		d.userinfoURI != ""
}
