package oidcauth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"slices"

	"github.com/lumawork/go-sso-gateway/internal/config"
	"github.com/lumawork/go-sso-gateway/internal/domains"
	"github.com/lumawork/go-sso-gateway/internal/metrics"
	"github.com/lumawork/go-sso-gateway/provision"
	"github.com/lumawork/go-sso-gateway/providers"
	"github.com/lumawork/go-sso-gateway/tenants"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const maxUserInfoBytes = 1 << 20

// Repos holds the repository dependencies of the AuthenticationService.
type Repos struct {
	Providers providers.Repo // Authentication provider lookups (read-only here)
	Tenants   tenants.Repo   // Tenant data
}

// SignInInput is what the authorization-code exchange hands the pipeline
// after the identity provider redirected back with a valid result.
type SignInInput struct {
	AccessToken  string
	RefreshToken string
	IDToken      string          // Raw compact JWT, optional
	ExpiresIn    int             // Seconds until the access token expires
	Tenant       *tenants.Tenant // Request-scoped tenant, nil on first-time signup
	ClientIP     string
}

// AuthenticationService drives the sign-in completion pipeline: userinfo
// fetch, claim normalization, provider resolution, the access check, and the
// hand-off to account provisioning. Stages run in strict order and the first
// failure short-circuits the rest.
type AuthenticationService struct {
	repos       Repos
	cfg         config.Config
	provisioner provision.Provisioner
	resolver    *ProviderResolver
	gate        *AccessGate
	httpClient  *http.Client
}

type AuthenticationServiceOption func(*AuthenticationService)

// WithHTTPClient sets the client used for the userinfo fetch.
func WithHTTPClient(client *http.Client) AuthenticationServiceOption {
	return func(as *AuthenticationService) {
		as.httpClient = client
	}
}

// WithAccessGate replaces the gate built from configuration.
func WithAccessGate(gate *AccessGate) AuthenticationServiceOption {
	return func(as *AuthenticationService) {
		as.gate = gate
	}
}

func NewAuthenticationService(
	repos Repos,
	cfg config.Config,
	provisioner provision.Provisioner,
	options ...AuthenticationServiceOption,
) (*AuthenticationService, error) {
	if repos.Providers == nil {
		return nil, errors.New("[NewAuthenticationService] Providers repo is required")
	}
	if repos.Tenants == nil {
		return nil, errors.New("[NewAuthenticationService] Tenants repo is required")
	}
	if cfg == nil {
		return nil, errors.New("[NewAuthenticationService] config is required")
	}
	if provisioner == nil {
		return nil, errors.New("[NewAuthenticationService] provisioner is required")
	}

	resolver, err := NewProviderResolver(repos.Providers, cfg.GetOIDCAuthURI())
	if err != nil {
		return nil, errors.Wrap(err, "[NewAuthenticationService]")
	}

	authService := &AuthenticationService{
		repos:       repos,
		cfg:         cfg,
		provisioner: provisioner,
		resolver:    resolver,
		gate:        NewAccessGate(cfg.GetAccessAPI()),
		httpClient:  http.DefaultClient,
	}

	for _, opt := range options {
		opt(authService)
	}

	return authService, nil
}

// SignIn completes an authentication attempt. It returns either the
// provisioning result or exactly one typed error; no stage failure escapes
// any other way. Provisioning failures propagate unchanged.
func (as *AuthenticationService) SignIn(ctx context.Context, input SignInInput) (result *provision.Result, err error) {
	defer func() {
		metrics.SignInOutcomes.WithLabelValues(Kind(err)).Inc()
	}()

	userInfo, err := as.fetchUserInfo(ctx, input.AccessToken)
	if err != nil {
		return nil, errors.Wrap(err, "[SignIn] userinfo fetch")
	}

	profile, err := NormalizeProfile(userInfo, input.IDToken, ClaimConfig{
		EmailClaim:    as.cfg.GetOIDCEmailClaim(),
		UsernameClaim: as.cfg.GetOIDCUsernameClaim(),
	})
	if err != nil {
		return nil, err
	}

	resolution, err := as.resolver.Resolve(profile, input.Tenant)
	if err != nil {
		return nil, err
	}

	if err := as.checkAccess(ctx, profile); err != nil {
		return nil, err
	}

	req := &provision.Request{
		IP: input.ClientIP,
		Team: provision.TeamParams{
			Name:      as.cfg.GetAppName(),
			Domain:    resolution.Domain,
			Subdomain: resolution.Subdomain,
		},
		User: provision.UserParams{
			Name:      profile.Name,
			Email:     profile.Email,
			AvatarURL: profile.AvatarURL,
		},
		Provider: provision.ProviderParams{
			Name:       providers.NameOIDC,
			ProviderID: resolution.ProviderID,
		},
		Credentials: provision.CredentialParams{
			Subject:      profile.Subject,
			AccessToken:  input.AccessToken,
			RefreshToken: input.RefreshToken,
			ExpiresIn:    input.ExpiresIn,
			Scopes:       as.cfg.GetOIDCScopes(),
		},
	}
	if input.Tenant != nil {
		req.Team.TenantID = input.Tenant.ID
	}

	return as.provisioner.Provision(ctx, req)
}

// checkAccess derives the gate username from the selected email's local part
// and maps the decision onto the pipeline's typed failures. Anything other
// than Allowed aborts sign-in before provisioning.
func (as *AuthenticationService) checkAccess(ctx context.Context, profile *Profile) error {
	username, domain := domains.ParseEmail(profile.SelectedEmail)

	log.Info().Str("domain", domain).Msg("checking access for sign-in attempt")

	decision, err := as.gate.Check(ctx, username)
	if err != nil {
		return err
	}
	switch decision.Kind {
	case DecisionAllowed:
		return nil
	case DecisionDenied:
		return ErrAccessDenied
	default:
		switch decision.Cause {
		case CauseInvalidResponse:
			return ErrInvalidAccessResponse
		case CauseTimeout:
			return errors.Wrap(ErrAccessUnavailable, "access check timed out")
		case CauseNameResolution:
			return errors.Wrap(ErrAccessUnavailable, "access API name resolution failed")
		case CauseConnectionRefused:
			return errors.Wrap(ErrAccessUnavailable, "access API connection refused")
		default:
			return ErrAccessUnavailable
		}
	}
}

// fetchUserInfo calls the provider's userinfo endpoint with the access
// token. A handful of providers require POST for this call; those endpoints
// are listed in configuration, keyed by URL.
func (as *AuthenticationService) fetchUserInfo(ctx context.Context, accessToken string) (map[string]any, error) {
	endpoint := as.cfg.GetOIDCUserinfoURI()

	method := http.MethodGet
	if slices.Contains(as.cfg.GetOIDCUserinfoPostURIs(), endpoint) {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := as.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserInfoBytes))
	if err != nil {
		return nil, err
	}
	var userInfo map[string]any
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, errors.Wrap(err, "userinfo response is not a JSON object")
	}
	return userInfo, nil
}
