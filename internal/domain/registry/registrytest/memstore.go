// Package registrytest provides an in-memory registry store for tests.
package registrytest

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"sitelabor/internal/domain/registry"
)

type MemStore struct {
	mu          sync.Mutex
	seq         int
	workers     map[string]registry.Worker
	contractors map[string]registry.Contractor
	sites       map[string]registry.Site

	// SiteLookups counts SiteByID calls.
	SiteLookups int
}

func NewMemStore() *MemStore {
	return &MemStore{
		workers:     map[string]registry.Worker{},
		contractors: map[string]registry.Contractor{},
		sites:       map[string]registry.Site{},
	}
}

func (m *MemStore) id(prefix string) string {
	m.seq++
	return prefix + "-" + strconv.Itoa(m.seq)
}

func (m *MemStore) CreateWorker(_ context.Context, in registry.WorkerInput) (registry.Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.workers {
		if w.NationalID == in.NationalID {
			return registry.Worker{}, registry.ErrDuplicateNationalID
		}
	}
	now := time.Now()
	w := registry.Worker{
		ID:               m.id("w"),
		Code:             registry.WorkerCodePrefix + now.Format("06") + strconv.Itoa(1000+m.seq),
		Name:             in.Name,
		Phone:            in.Phone,
		NationalID:       in.NationalID,
		NationalIDMasked: registry.MaskNationalID(in.NationalID),
		Bank:             in.Bank,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	m.workers[w.ID] = w
	return w, nil
}

func (m *MemStore) GetWorker(_ context.Context, id string) (registry.Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[id]
	if !ok {
		return registry.Worker{}, registry.ErrWorkerNotFound
	}
	return w, nil
}

func matches(search string, values ...string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), search) {
			return true
		}
	}
	return false
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (m *MemStore) ListWorkers(_ context.Context, f registry.WorkerFilter) ([]registry.Worker, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []registry.Worker{}
	for _, w := range m.workers {
		if f.IsActive != nil && w.IsActive != *f.IsActive {
			continue
		}
		if !matches(f.Search, w.Name, w.Code, w.Phone) {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (m *MemStore) UpdateWorker(_ context.Context, id string, p registry.WorkerPatch) (registry.Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[id]
	if !ok {
		return registry.Worker{}, registry.ErrWorkerNotFound
	}
	if p.Name != nil {
		w.Name = *p.Name
	}
	if p.Phone != nil {
		w.Phone = *p.Phone
	}
	if p.NationalID != nil {
		w.NationalID = *p.NationalID
		w.NationalIDMasked = registry.MaskNationalID(*p.NationalID)
	}
	if p.Bank != nil {
		w.Bank = *p.Bank
	}
	if p.IsActive != nil {
		w.IsActive = *p.IsActive
	}
	w.UpdatedAt = time.Now()
	m.workers[id] = w
	return w, nil
}

func (m *MemStore) newSite(contractorID string, in registry.SiteInput) registry.Site {
	now := time.Now()
	s := registry.Site{
		ID:           m.id("s"),
		ContractorID: contractorID,
		Name:         in.Name,
		Address:      in.Address,
		Description:  in.Description,
		StartDate:    in.StartDate,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.sites[s.ID] = s
	return s
}

func (m *MemStore) CreateContractor(ctx context.Context, in registry.ContractorInput) (registry.Contractor, error) {
	m.mu.Lock()
	now := time.Now()
	c := registry.Contractor{
		ID:            m.id("c"),
		Code:          registry.ContractorCodePrefix + now.Format("06") + strconv.Itoa(1000+m.seq),
		Name:          in.Name,
		ContactNumber: in.ContactNumber,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.contractors[c.ID] = c
	for _, site := range in.Sites {
		m.newSite(c.ID, site)
	}
	m.mu.Unlock()
	return m.GetContractor(ctx, c.ID)
}

func (m *MemStore) sitesOf(contractorID string, activeOnly bool) []registry.Site {
	out := []registry.Site{}
	for _, s := range m.sites {
		if s.ContractorID == contractorID && (!activeOnly || s.IsActive) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemStore) withSites(c registry.Contractor) registry.Contractor {
	c.Sites = m.sitesOf(c.ID, false)
	c.ActiveSitesCount = len(m.sitesOf(c.ID, true))
	return c
}

func (m *MemStore) GetContractor(_ context.Context, id string) (registry.Contractor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contractors[id]
	if !ok {
		return registry.Contractor{}, registry.ErrContractorNotFound
	}
	return m.withSites(c), nil
}

func (m *MemStore) ListContractors(_ context.Context, f registry.ContractorFilter) ([]registry.Contractor, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []registry.Contractor{}
	for _, c := range m.contractors {
		if f.IsActive != nil && c.IsActive != *f.IsActive {
			continue
		}
		if !matches(f.Search, c.Name, c.Code, c.ContactNumber) {
			continue
		}
		c = m.withSites(c)
		c.Sites = nil
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (m *MemStore) UpdateContractor(ctx context.Context, id string, p registry.ContractorPatch) (registry.Contractor, error) {
	m.mu.Lock()
	c, ok := m.contractors[id]
	if !ok {
		m.mu.Unlock()
		return registry.Contractor{}, registry.ErrContractorNotFound
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.ContactNumber != nil {
		c.ContactNumber = *p.ContactNumber
	}
	m.contractors[id] = c
	m.mu.Unlock()
	return m.GetContractor(ctx, id)
}

func (m *MemStore) SetContractorActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contractors[id]
	if !ok {
		return registry.ErrContractorNotFound
	}
	c.IsActive = active
	m.contractors[id] = c
	return nil
}

func (m *MemStore) AddSite(_ context.Context, contractorID string, in registry.SiteInput) (registry.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contractors[contractorID]; !ok {
		return registry.Site{}, registry.ErrContractorNotFound
	}
	return m.newSite(contractorID, in), nil
}

func (m *MemStore) GetSite(_ context.Context, contractorID, siteID string) (registry.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sites[siteID]
	if !ok || s.ContractorID != contractorID {
		return registry.Site{}, registry.ErrSiteNotFound
	}
	return s, nil
}

func (m *MemStore) SiteByID(_ context.Context, siteID string) (registry.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SiteLookups++
	s, ok := m.sites[siteID]
	if !ok {
		return registry.Site{}, registry.ErrSiteNotFound
	}
	return s, nil
}

func (m *MemStore) ListSites(_ context.Context, contractorID string, activeOnly bool) ([]registry.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sitesOf(contractorID, activeOnly), nil
}

func (m *MemStore) UpdateSite(_ context.Context, contractorID, siteID string, p registry.SitePatch) (registry.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sites[siteID]
	if !ok || s.ContractorID != contractorID {
		return registry.Site{}, registry.ErrSiteNotFound
	}
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Address != nil {
		s.Address = *p.Address
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.StartDate != nil {
		s.StartDate = *p.StartDate
	}
	if p.IsActive != nil {
		s.IsActive = *p.IsActive
	}
	m.sites[siteID] = s
	return s, nil
}
