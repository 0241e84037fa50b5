package providers

// Repo is the read-side of authentication provider storage. The sign-in
// pipeline never writes providers, so the interface carries lookups only;
// Upsert exists for the provisioner and test seeding.
type Repo interface {
	Upsert(provider *AuthenticationProvider) error
	// FindByTenantAndProvider returns the provider matching
	// (name, tenantID, providerID), or nil when none exists.
	FindByTenantAndProvider(name, tenantID, providerID string) (*AuthenticationProvider, error)
	// FindByTenant returns the tenant's sole provider of the given name, or
	// nil when none exists. Tenants hold at most one OIDC provider.
	FindByTenant(name, tenantID string) (*AuthenticationProvider, error)
}
