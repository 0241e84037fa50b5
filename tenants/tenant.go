package tenants

import "time"

// Tenant represents a team: the top-level organizational unit users are
// provisioned into. Tenants are created and updated only by the account
// provisioner; the sign-in pipeline reads them.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`    // Email domain the team was created from (e.g. "co.example")
	Subdomain string    `json:"subdomain"` // Workspace subdomain (e.g. "co")
	CreatedAt time.Time `json:"created_at"`
}
