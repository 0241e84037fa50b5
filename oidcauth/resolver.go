package oidcauth

import (
	"net/url"

	"github.com/lumawork/go-sso-gateway/internal/domains"
	"github.com/lumawork/go-sso-gateway/providers"
	"github.com/lumawork/go-sso-gateway/tenants"
	"github.com/pkg/errors"
)

// Resolution is the provider identity a sign-in attempt binds to.
type Resolution struct {
	Domain     string                            // Email domain of the authentication address
	Subdomain  string                            // Slug derived from the domain minus its top-level suffix
	ProviderID string                            // Stored provider id, or the IdP hostname fallback
	Provider   *providers.AuthenticationProvider // Existing provider, nil on first-time resolution
}

// ProviderResolver maps an email domain and an optional tenant context onto
// an authentication provider identity.
type ProviderResolver struct {
	repo         providers.Repo
	fallbackHost string
}

// NewProviderResolver builds a resolver whose first-time provider identity is
// the hostname of the IdP's authorization endpoint.
func NewProviderResolver(repo providers.Repo, authURI string) (*ProviderResolver, error) {
	if repo == nil {
		return nil, errors.New("[NewProviderResolver] provider repo is required")
	}
	parsed, err := url.Parse(authURI)
	if err != nil || parsed.Hostname() == "" {
		return nil, errors.Errorf("[NewProviderResolver] authorization URI %q has no hostname", authURI)
	}
	return &ProviderResolver{repo: repo, fallbackHost: parsed.Hostname()}, nil
}

// Resolve extracts the domain from the profile's authentication email and
// finds the tenant's OIDC provider: the one scoped to the domain first, then
// the tenant's sole provider. A tenant holds at most one OIDC provider, so a
// domain miss still matches the tenant-wide lookup. Without a tenant no
// lookup is attempted and the IdP hostname stands in as the provider id.
func (pr *ProviderResolver) Resolve(profile *Profile, tenant *tenants.Tenant) (*Resolution, error) {
	_, domain := domains.ParseEmail(profile.Email)
	if domain == "" {
		return nil, errors.Wrapf(ErrMalformedProfile, "email %q has no domain", profile.Email)
	}

	res := &Resolution{
		Domain:     domain,
		Subdomain:  domains.SlugifyDomain(domain),
		ProviderID: pr.fallbackHost,
	}

	if tenant == nil {
		return res, nil
	}

	provider, err := pr.repo.FindByTenantAndProvider(providers.NameOIDC, tenant.ID, domain)
	if err != nil {
		return nil, errors.Wrap(err, "[Resolve] provider lookup by domain")
	}
	if provider == nil {
		provider, err = pr.repo.FindByTenant(providers.NameOIDC, tenant.ID)
		if err != nil {
			return nil, errors.Wrap(err, "[Resolve] provider lookup by tenant")
		}
	}
	if provider != nil {
		res.Provider = provider
		res.ProviderID = provider.ProviderID
	}
	return res, nil
}
