package providers

import "time"

// Name identifies the kind of external identity source an authentication
// provider is bound to. This service only registers OIDC providers.
const NameOIDC = "oidc"

// AuthenticationProvider links a tenant to one external identity source,
// keyed by (name, tenantID, providerID). The sign-in pipeline reads these
// records; they are created and updated only by the account provisioner.
type AuthenticationProvider struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`        // Provider kind, e.g. "oidc"
	TenantID   string    `json:"tenant_id"`   // Owning tenant
	ProviderID string    `json:"provider_id"` // External identity of the provider (domain or IdP hostname)
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
}
