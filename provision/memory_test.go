package provision_test

import (
	"context"
	"testing"

	"github.com/lumawork/go-sso-gateway/provision"
	"github.com/lumawork/go-sso-gateway/providers"
	providerrepofakes "github.com/lumawork/go-sso-gateway/providers/repofakes"
	"github.com/lumawork/go-sso-gateway/tenants"
	tenantrepofakes "github.com/lumawork/go-sso-gateway/tenants/repofakes"
	"github.com/stretchr/testify/require"
)

type memoryFixture struct {
	provisioner *provision.MemoryProvisioner
	tenants     tenants.Repo
	providers   providers.Repo
}

func newMemoryFixture(t *testing.T) *memoryFixture {
	t.Helper()
	tenantRepo := tenantrepofakes.NewFakeTenantRepo()
	providerRepo := providerrepofakes.NewFakeProviderRepo()
	provisioner, err := provision.NewMemoryProvisioner(tenantRepo, providerRepo)
	require.NoError(t, err)
	return &memoryFixture{provisioner: provisioner, tenants: tenantRepo, providers: providerRepo}
}

func signUpRequest() *provision.Request {
	return &provision.Request{
		IP: "203.0.113.7",
		Team: provision.TeamParams{
			Name:      "Wiki",
			Domain:    "co.example",
			Subdomain: "co",
		},
		User: provision.UserParams{
			Name:  "Ann",
			Email: "ann@co.example",
		},
		Provider: provision.ProviderParams{
			Name:       providers.NameOIDC,
			ProviderID: "co.example",
		},
		Credentials: provision.CredentialParams{
			Subject:     "subject-1",
			AccessToken: "access-token",
			Scopes:      []string{"openid"},
		},
	}
}

func TestMemoryProvisioner_FirstSignUpCreatesEverything(t *testing.T) {
	fixture := newMemoryFixture(t)

	result, err := fixture.provisioner.Provision(context.Background(), signUpRequest())
	require.NoError(t, err)

	require.True(t, result.IsNewTenant)
	require.True(t, result.IsNewUser)
	require.Equal(t, "co", result.Tenant.Subdomain)
	require.Equal(t, result.Tenant.ID, result.User.TenantID)

	stored, err := fixture.tenants.GetBySubdomain("co")
	require.NoError(t, err)
	require.Equal(t, result.Tenant.ID, stored.ID)

	binding, err := fixture.providers.FindByTenantAndProvider(providers.NameOIDC, result.Tenant.ID, "co.example")
	require.NoError(t, err)
	require.NotNil(t, binding)
	require.True(t, binding.Enabled)
}

func TestMemoryProvisioner_RepeatSignInIsIdempotent(t *testing.T) {
	fixture := newMemoryFixture(t)

	first, err := fixture.provisioner.Provision(context.Background(), signUpRequest())
	require.NoError(t, err)

	req := signUpRequest()
	req.Team.TenantID = first.Tenant.ID
	second, err := fixture.provisioner.Provision(context.Background(), req)
	require.NoError(t, err)

	require.False(t, second.IsNewTenant)
	require.False(t, second.IsNewUser)
	require.Equal(t, first.User.ID, second.User.ID)
}

func TestMemoryProvisioner_ExistingTenantLookup(t *testing.T) {
	fixture := newMemoryFixture(t)
	tenant := &tenants.Tenant{Name: "Wiki", Subdomain: "co"}
	require.NoError(t, fixture.tenants.Upsert(tenant))

	req := signUpRequest()
	req.Team.TenantID = tenant.ID

	result, err := fixture.provisioner.Provision(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsNewTenant)
	require.Equal(t, tenant.ID, result.Tenant.ID)
}

func TestMemoryProvisioner_UnknownTenantFails(t *testing.T) {
	fixture := newMemoryFixture(t)

	req := signUpRequest()
	req.Team.TenantID = "missing"

	_, err := fixture.provisioner.Provision(context.Background(), req)
	require.Error(t, err)
}

func TestMemoryProvisioner_ValidatesRequest(t *testing.T) {
	fixture := newMemoryFixture(t)

	req := signUpRequest()
	req.User.Email = ""
	_, err := fixture.provisioner.Provision(context.Background(), req)
	require.Error(t, err)

	req = signUpRequest()
	req.Credentials.Subject = ""
	_, err = fixture.provisioner.Provision(context.Background(), req)
	require.Error(t, err)
}

func TestMemoryProvisioner_SubjectBoundToTenant(t *testing.T) {
	fixture := newMemoryFixture(t)

	_, err := fixture.provisioner.Provision(context.Background(), signUpRequest())
	require.NoError(t, err)

	// Same subject arriving without a tenant context creates a second tenant,
	// which the user cannot silently move to.
	_, err = fixture.provisioner.Provision(context.Background(), signUpRequest())
	require.Error(t, err)
}
