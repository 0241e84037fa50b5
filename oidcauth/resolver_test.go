package oidcauth_test

import (
	"testing"

	"github.com/lumawork/go-sso-gateway/oidcauth"
	"github.com/lumawork/go-sso-gateway/providers"
	providerrepofakes "github.com/lumawork/go-sso-gateway/providers/repofakes"
	"github.com/lumawork/go-sso-gateway/tenants"
	"github.com/stretchr/testify/require"
)

const testAuthURI = "https://idp.example.com/authorize"

func newResolver(t *testing.T, repo providers.Repo) *oidcauth.ProviderResolver {
	t.Helper()
	resolver, err := oidcauth.NewProviderResolver(repo, testAuthURI)
	require.NoError(t, err)
	return resolver
}

func TestNewProviderResolver_RequiresHostname(t *testing.T) {
	_, err := oidcauth.NewProviderResolver(providerrepofakes.NewFakeProviderRepo(), "not a url")
	require.Error(t, err)

	_, err = oidcauth.NewProviderResolver(nil, testAuthURI)
	require.Error(t, err)
}

func TestResolve_NoDomainFails(t *testing.T) {
	resolver := newResolver(t, providerrepofakes.NewFakeProviderRepo())

	_, err := resolver.Resolve(&oidcauth.Profile{Email: "nodomain"}, nil)
	require.ErrorIs(t, err, oidcauth.ErrMalformedProfile)
}

func TestResolve_FirstTimeFallsBackToIdPHost(t *testing.T) {
	resolver := newResolver(t, providerrepofakes.NewFakeProviderRepo())

	res, err := resolver.Resolve(&oidcauth.Profile{Email: "ann@getting-started.example.com"}, nil)
	require.NoError(t, err)

	require.Equal(t, "getting-started.example.com", res.Domain)
	require.Equal(t, "getting-started-example", res.Subdomain)
	require.Equal(t, "idp.example.com", res.ProviderID)
	require.Nil(t, res.Provider)
}

func TestResolve_DomainScopedProviderWins(t *testing.T) {
	repo := providerrepofakes.NewFakeProviderRepo()
	require.NoError(t, repo.Upsert(&providers.AuthenticationProvider{
		ID:         "p-other",
		Name:       providers.NameOIDC,
		TenantID:   "t1",
		ProviderID: "other.example",
	}))
	require.NoError(t, repo.Upsert(&providers.AuthenticationProvider{
		ID:         "p-scoped",
		Name:       providers.NameOIDC,
		TenantID:   "t1",
		ProviderID: "co.example",
	}))
	resolver := newResolver(t, repo)

	res, err := resolver.Resolve(&oidcauth.Profile{Email: "ann@co.example"}, &tenants.Tenant{ID: "t1"})
	require.NoError(t, err)

	require.NotNil(t, res.Provider)
	require.Equal(t, "p-scoped", res.Provider.ID)
	require.Equal(t, "co.example", res.ProviderID)
}

func TestResolve_TenantWideFallback(t *testing.T) {
	// The stored provider was registered under a different domain. A tenant
	// holds at most one OIDC provider, so the tenant-wide lookup still finds
	// it.
	repo := providerrepofakes.NewFakeProviderRepo()
	require.NoError(t, repo.Upsert(&providers.AuthenticationProvider{
		ID:         "p1",
		Name:       providers.NameOIDC,
		TenantID:   "t1",
		ProviderID: "registered.example",
	}))
	resolver := newResolver(t, repo)

	res, err := resolver.Resolve(&oidcauth.Profile{Email: "ann@alias.example"}, &tenants.Tenant{ID: "t1"})
	require.NoError(t, err)

	require.NotNil(t, res.Provider)
	require.Equal(t, "registered.example", res.ProviderID)
	require.Equal(t, "alias.example", res.Domain)
}

func TestResolve_TenantWithoutProviderKeepsFallback(t *testing.T) {
	repo := providerrepofakes.NewFakeProviderRepo()
	require.NoError(t, repo.Upsert(&providers.AuthenticationProvider{
		ID:         "p1",
		Name:       providers.NameOIDC,
		TenantID:   "someone-else",
		ProviderID: "co.example",
	}))
	resolver := newResolver(t, repo)

	res, err := resolver.Resolve(&oidcauth.Profile{Email: "ann@co.example"}, &tenants.Tenant{ID: "t1"})
	require.NoError(t, err)

	require.Nil(t, res.Provider)
	require.Equal(t, "idp.example.com", res.ProviderID)
}

func TestResolve_OtherProviderNamesIgnored(t *testing.T) {
	repo := providerrepofakes.NewFakeProviderRepo()
	require.NoError(t, repo.Upsert(&providers.AuthenticationProvider{
		ID:         "p1",
		Name:       "saml",
		TenantID:   "t1",
		ProviderID: "co.example",
	}))
	resolver := newResolver(t, repo)

	res, err := resolver.Resolve(&oidcauth.Profile{Email: "ann@co.example"}, &tenants.Tenant{ID: "t1"})
	require.NoError(t, err)
	require.Nil(t, res.Provider)
}
