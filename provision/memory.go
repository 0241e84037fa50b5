package provision

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lumawork/go-sso-gateway/providers"
	"github.com/lumawork/go-sso-gateway/tenants"
	"github.com/pkg/errors"
)

// MemoryProvisioner is the reference account provisioner: it creates or
// links tenants, users, and provider bindings in process memory. Deployments
// substitute an implementation backed by their application database; the
// sign-in pipeline only depends on the Provisioner interface.
type MemoryProvisioner struct {
	tenantRepo   tenants.Repo
	providerRepo providers.Repo

	lock  sync.Mutex
	users map[string]*User // keyed by provider subject
}

var _ Provisioner = (*MemoryProvisioner)(nil)

func NewMemoryProvisioner(tenantRepo tenants.Repo, providerRepo providers.Repo) (*MemoryProvisioner, error) {
	if tenantRepo == nil {
		return nil, errors.New("[NewMemoryProvisioner] tenant repo is required")
	}
	if providerRepo == nil {
		return nil, errors.New("[NewMemoryProvisioner] provider repo is required")
	}
	return &MemoryProvisioner{
		tenantRepo:   tenantRepo,
		providerRepo: providerRepo,
		users:        make(map[string]*User),
	}, nil
}

// Provision is idempotent per (provider, subject): repeated sign-ins by the
// same external identity return the same local user.
func (mp *MemoryProvisioner) Provision(ctx context.Context, req *Request) (*Result, error) {
	if req.User.Email == "" {
		return nil, errors.New("[Provision] user email is required")
	}
	if req.Credentials.Subject == "" {
		return nil, errors.New("[Provision] credential subject is required")
	}

	mp.lock.Lock()
	defer mp.lock.Unlock()

	tenant, isNewTenant, err := mp.tenantFor(req)
	if err != nil {
		return nil, err
	}

	if err := mp.ensureProvider(req, tenant); err != nil {
		return nil, err
	}

	key := req.Provider.Name + ":" + req.Credentials.Subject
	user, exists := mp.users[key]
	if !exists {
		user = &User{
			ID:        uuid.New().String(),
			TenantID:  tenant.ID,
			Name:      req.User.Name,
			Email:     req.User.Email,
			AvatarURL: req.User.AvatarURL,
			CreatedAt: time.Now(),
		}
		mp.users[key] = user
	} else if user.TenantID != tenant.ID {
		return nil, errors.Errorf("[Provision] user %s belongs to another tenant", req.User.Email)
	}

	return &Result{
		User:        user,
		Tenant:      tenant,
		IsNewTenant: isNewTenant,
		IsNewUser:   !exists,
	}, nil
}

func (mp *MemoryProvisioner) tenantFor(req *Request) (*tenants.Tenant, bool, error) {
	if req.Team.TenantID != "" {
		tenant, err := mp.tenantRepo.Get(req.Team.TenantID)
		if err != nil {
			return nil, false, errors.Wrap(err, "[Provision] tenant lookup")
		}
		return tenant, false, nil
	}

	tenant := &tenants.Tenant{
		Name:      req.Team.Name,
		Domain:    req.Team.Domain,
		Subdomain: req.Team.Subdomain,
		CreatedAt: time.Now(),
	}
	if err := mp.tenantRepo.Upsert(tenant); err != nil {
		return nil, false, errors.Wrap(err, "[Provision] tenant create")
	}
	return tenant, true, nil
}

func (mp *MemoryProvisioner) ensureProvider(req *Request, tenant *tenants.Tenant) error {
	existing, err := mp.providerRepo.FindByTenantAndProvider(req.Provider.Name, tenant.ID, req.Provider.ProviderID)
	if err != nil {
		return errors.Wrap(err, "[Provision] provider lookup")
	}
	if existing != nil {
		return nil
	}
	err = mp.providerRepo.Upsert(&providers.AuthenticationProvider{
		Name:       req.Provider.Name,
		TenantID:   tenant.ID,
		ProviderID: req.Provider.ProviderID,
		Enabled:    true,
		CreatedAt:  time.Now(),
	})
	return errors.Wrap(err, "[Provision] provider create")
}
