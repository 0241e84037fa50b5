package provision

import (
	"context"
	"time"

	"github.com/lumawork/go-sso-gateway/tenants"
)

// Request is the payload handed to the account provisioner once a sign-in
// attempt has passed the access check. It carries everything needed to create
// or link the tenant, the user, and the authentication provider binding.
type Request struct {
	IP          string
	Team        TeamParams
	User        UserParams
	Provider    ProviderParams
	Credentials CredentialParams
}

// TeamParams identifies the tenant: by ID when the request arrived in an
// existing tenant's context, otherwise by the creation attributes derived
// from the authentication email.
type TeamParams struct {
	TenantID  string // Existing tenant id, empty on first-time signup
	Name      string
	Domain    string
	Subdomain string
}

type UserParams struct {
	Name      string
	Email     string
	AvatarURL string
}

type ProviderParams struct {
	Name       string // Provider kind constant, e.g. "oidc"
	ProviderID string
}

// CredentialParams is the material obtained from the identity provider for
// the authenticated subject.
type CredentialParams struct {
	Subject      string // External subject identifier (sub/id claim)
	AccessToken  string
	RefreshToken string
	ExpiresIn    int // Seconds until the access token expires
	Scopes       []string
}

// User is the provisioned local account returned to the caller.
type User struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Result is what the provisioner returns on success. Its failure modes
// (duplicate accounts, validation, storage) are opaque to the sign-in
// pipeline and propagate unchanged.
type Result struct {
	User        *User
	Tenant      *tenants.Tenant
	IsNewTenant bool
	IsNewUser   bool
}

type Provisioner interface {
	Provision(ctx context.Context, req *Request) (*Result, error)
}
