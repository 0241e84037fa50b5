package providerrepofakes

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/lumawork/go-sso-gateway/providers"
)

var _ providers.Repo = (*FakeProviderRepo)(nil)

type FakeProviderRepo struct {
	providers map[string]*providers.AuthenticationProvider
	lock      sync.RWMutex
}

func NewFakeProviderRepo() providers.Repo {
	return &FakeProviderRepo{
		providers: make(map[string]*providers.AuthenticationProvider),
	}
}

func (pr *FakeProviderRepo) Upsert(provider *providers.AuthenticationProvider) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()
	if provider.ID == "" {
		provider.ID = uuid.New().String()
	}
	pr.providers[provider.ID] = provider
	return nil
}

func (pr *FakeProviderRepo) FindByTenantAndProvider(name, tenantID, providerID string) (*providers.AuthenticationProvider, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()
	for _, p := range pr.sorted() {
		if p.Name == name && p.TenantID == tenantID && p.ProviderID == providerID {
			return p, nil
		}
	}
	return nil, nil
}

func (pr *FakeProviderRepo) FindByTenant(name, tenantID string) (*providers.AuthenticationProvider, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()
	for _, p := range pr.sorted() {
		if p.Name == name && p.TenantID == tenantID {
			return p, nil
		}
	}
	return nil, nil
}

// sorted keeps lookups deterministic across runs.
func (pr *FakeProviderRepo) sorted() []*providers.AuthenticationProvider {
	list := make([]*providers.AuthenticationProvider, 0, len(pr.providers))
	for _, p := range pr.providers {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}
