package tenantrepofakes

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/lumawork/go-sso-gateway/tenants"
)

var _ tenants.Repo = (*FakeTenantRepo)(nil)

type FakeTenantRepo struct {
	tenants map[string]*tenants.Tenant
	lock    sync.RWMutex
}

func NewFakeTenantRepo() tenants.Repo {
	return &FakeTenantRepo{
		tenants: make(map[string]*tenants.Tenant),
	}
}

func (tr *FakeTenantRepo) Upsert(tenantData *tenants.Tenant) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	if tenantData.ID == "" {
		tenantData.ID = uuid.New().String()
	}
	tr.tenants[tenantData.ID] = tenantData
	return nil
}

func (tr *FakeTenantRepo) Delete(tenantID string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	delete(tr.tenants, tenantID)
	return nil
}

func (tr *FakeTenantRepo) Get(tenantID string) (*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	tenant, ok := tr.tenants[tenantID]
	if !ok {
		return nil, errors.New("not found")
	}
	return tenant, nil
}

func (tr *FakeTenantRepo) GetBySubdomain(subdomain string) (*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	for _, t := range tr.tenants {
		if t.Subdomain == subdomain {
			return t, nil
		}
	}
	return nil, errors.New("not found")
}

func (tr *FakeTenantRepo) List(offset, limit int) ([]*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	tenantList := make([]*tenants.Tenant, 0)
	for _, t := range tr.tenants {
		tenantList = append(tenantList, t)
	}

	sort.Slice(tenantList, func(i, j int) bool {
		return tenantList[i].ID < tenantList[j].ID
	})

	if offset > len(tenantList) {
		return nil, nil
	}
	end := offset + limit
	if end > len(tenantList) {
		end = len(tenantList)
	}
	return tenantList[offset:end], nil
}
