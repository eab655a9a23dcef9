package registry

import (
	"context"
	"strings"
	"time"
)

type Service struct {
	store StoreAPI
	now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) CreateWorker(ctx context.Context, in WorkerInput) (Worker, error) {
	in, err := in.normalized()
	if err != nil {
		return Worker{}, err
	}
	return s.store.CreateWorker(ctx, in)
}

func (s *Service) GetWorker(ctx context.Context, id string) (Worker, error) {
	return s.store.GetWorker(ctx, id)
}

// ListWorkers applies the filter as given; a nil IsActive lists everyone.
func (s *Service) ListWorkers(ctx context.Context, filter WorkerFilter) ([]Worker, int, error) {
	filter.Limit = clampLimit(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.store.ListWorkers(ctx, filter)
}

func (s *Service) UpdateWorker(ctx context.Context, id string, patch WorkerPatch) (Worker, error) {
	patch, err := patch.normalized()
	if err != nil {
		return Worker{}, err
	}
	return s.store.UpdateWorker(ctx, id, patch)
}

// DeactivateWorker is a soft delete; attendance history keeps referencing
// the worker.
func (s *Service) DeactivateWorker(ctx context.Context, id string) error {
	inactive := false
	_, err := s.store.UpdateWorker(ctx, id, WorkerPatch{IsActive: &inactive})
	return err
}

func (s *Service) CreateContractor(ctx context.Context, in ContractorInput) (Contractor, error) {
	in, err := in.normalized(s.now())
	if err != nil {
		return Contractor{}, err
	}
	return s.store.CreateContractor(ctx, in)
}

func (s *Service) GetContractor(ctx context.Context, id string) (Contractor, error) {
	return s.store.GetContractor(ctx, id)
}

func (s *Service) ListContractors(ctx context.Context, filter ContractorFilter) ([]Contractor, int, error) {
	filter.Limit = clampLimit(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.store.ListContractors(ctx, filter)
}

// UpdateContractor changes only the descriptive fields; the code and the
// active flag are managed elsewhere.
func (s *Service) UpdateContractor(ctx context.Context, id string, patch ContractorPatch) (Contractor, error) {
	if patch.Name != nil {
		v, err := checkName(*patch.Name)
		if err != nil {
			return Contractor{}, err
		}
		patch.Name = &v
	}
	if patch.ContactNumber != nil {
		v, err := checkPhone(*patch.ContactNumber, true)
		if err != nil {
			return Contractor{}, err
		}
		patch.ContactNumber = &v
	}
	return s.store.UpdateContractor(ctx, id, patch)
}

func (s *Service) DeactivateContractor(ctx context.Context, id string) error {
	return s.store.SetContractorActive(ctx, id, false)
}

func (s *Service) AddSite(ctx context.Context, contractorID string, in SiteInput) (Site, error) {
	in, err := in.normalized(s.now())
	if err != nil {
		return Site{}, err
	}
	c, err := s.store.GetContractor(ctx, contractorID)
	if err != nil {
		return Site{}, err
	}
	if !c.IsActive {
		return Site{}, ErrContractorInactive
	}
	return s.store.AddSite(ctx, contractorID, in)
}

func (s *Service) GetSite(ctx context.Context, contractorID, siteID string) (Site, error) {
	return s.store.GetSite(ctx, contractorID, siteID)
}

func (s *Service) SiteByID(ctx context.Context, siteID string) (Site, error) {
	return s.store.SiteByID(ctx, siteID)
}

func (s *Service) ListSites(ctx context.Context, contractorID string, activeOnly bool) ([]Site, error) {
	if _, err := s.store.GetContractor(ctx, contractorID); err != nil {
		return nil, err
	}
	return s.store.ListSites(ctx, contractorID, activeOnly)
}

func (s *Service) UpdateSite(ctx context.Context, contractorID, siteID string, patch SitePatch) (Site, error) {
	if patch.Name != nil {
		v := strings.TrimSpace(*patch.Name)
		if v == "" {
			return Site{}, ErrSiteNameRequired
		}
		patch.Name = &v
	}
	if patch.StartDate != nil {
		y, m, d := patch.StartDate.Date()
		v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		patch.StartDate = &v
	}
	return s.store.UpdateSite(ctx, contractorID, siteID, patch)
}

func (s *Service) DeactivateSite(ctx context.Context, contractorID, siteID string) error {
	inactive := false
	_, err := s.store.UpdateSite(ctx, contractorID, siteID, SitePatch{IsActive: &inactive})
	return err
}
