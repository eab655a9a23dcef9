package registry

import "context"

type StoreAPI interface {
	CreateWorker(ctx context.Context, in WorkerInput) (Worker, error)
	GetWorker(ctx context.Context, id string) (Worker, error)
	ListWorkers(ctx context.Context, filter WorkerFilter) ([]Worker, int, error)
	UpdateWorker(ctx context.Context, id string, patch WorkerPatch) (Worker, error)

	CreateContractor(ctx context.Context, in ContractorInput) (Contractor, error)
	GetContractor(ctx context.Context, id string) (Contractor, error)
	ListContractors(ctx context.Context, filter ContractorFilter) ([]Contractor, int, error)
	UpdateContractor(ctx context.Context, id string, patch ContractorPatch) (Contractor, error)
	SetContractorActive(ctx context.Context, id string, active bool) error

	AddSite(ctx context.Context, contractorID string, in SiteInput) (Site, error)
	GetSite(ctx context.Context, contractorID, siteID string) (Site, error)
	SiteByID(ctx context.Context, siteID string) (Site, error)
	ListSites(ctx context.Context, contractorID string, activeOnly bool) ([]Site, error)
	UpdateSite(ctx context.Context, contractorID, siteID string, patch SitePatch) (Site, error)
}
