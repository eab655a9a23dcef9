package reports

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"sitelabor/internal/domain/attendance"
	"sitelabor/internal/domain/registry"
)

// lookupLimit bounds concurrent descriptor lookups per report.
const lookupLimit = 8

type Attendance interface {
	Records(ctx context.Context, filter attendance.Filter) ([]attendance.Record, error)
	SummarizeForWorker(ctx context.Context, workerID string, r attendance.DateRange) (attendance.Summary, []attendance.Record, error)
	SummarizeForContractorSite(ctx context.Context, contractorID, siteID string, r attendance.DateRange) ([]attendance.WorkerGroup, error)
}

type Registry interface {
	GetWorker(ctx context.Context, id string) (registry.Worker, error)
	GetContractor(ctx context.Context, id string) (registry.Contractor, error)
	GetSite(ctx context.Context, contractorID, siteID string) (registry.Site, error)
	SiteByID(ctx context.Context, siteID string) (registry.Site, error)
}

type Service struct {
	attendance Attendance
	registry   Registry
}

func NewService(a Attendance, r Registry) *Service {
	return &Service{attendance: a, registry: r}
}

func requireRange(r attendance.DateRange) (Period, error) {
	if r.From.IsZero() || r.To.IsZero() {
		return Period{}, ErrRangeRequired
	}
	n := r.Normalized()
	if n.To.Before(n.From) {
		return Period{}, attendance.ErrInvalidRange
	}
	return Period{From: n.From, To: n.To}, nil
}

func workerInfo(w registry.Worker) WorkerInfo {
	return WorkerInfo{ID: w.ID, Code: w.Code, Name: w.Name, Phone: w.Phone}
}

// Worker resolves the descriptor of one worker.
func (s *Service) Worker(ctx context.Context, workerID string) (WorkerInfo, error) {
	w, err := s.registry.GetWorker(ctx, workerID)
	if err != nil {
		return WorkerInfo{}, err
	}
	return workerInfo(w), nil
}

func contractorInfo(c registry.Contractor) ContractorInfo {
	return ContractorInfo{ID: c.ID, Code: c.Code, Name: c.Name}
}

func siteInfo(s registry.Site) SiteInfo {
	return SiteInfo{ID: s.ID, Name: s.Name, Address: s.Address}
}

// lookupAll resolves every distinct id once, in parallel. Ids for which
// fetch reports notFound are absent from the result.
func lookupAll[T any](ctx context.Context, ids []string, notFound error, fetch func(context.Context, string) (T, error)) (map[string]T, error) {
	var mu sync.Mutex
	out := make(map[string]T, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupLimit)
	seen := map[string]struct{}{}
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		id := id
		g.Go(func() error {
			v, err := fetch(gctx, id)
			if errors.Is(err, notFound) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ContractorReport groups a site's attendance by worker, in the order each
// worker first appears in the listing.
func (s *Service) ContractorReport(ctx context.Context, contractorID, siteID string, r attendance.DateRange) (ContractorReport, error) {
	period, err := requireRange(r)
	if err != nil {
		return ContractorReport{}, err
	}
	contractor, err := s.registry.GetContractor(ctx, contractorID)
	if err != nil {
		return ContractorReport{}, err
	}
	site, err := s.registry.GetSite(ctx, contractorID, siteID)
	if err != nil {
		return ContractorReport{}, err
	}
	groups, err := s.attendance.SummarizeForContractorSite(ctx, contractorID, siteID, r)
	if err != nil {
		return ContractorReport{}, err
	}

	ids := make([]string, len(groups))
	for i, g := range groups {
		ids[i] = g.WorkerID
	}
	workers, err := lookupAll(ctx, ids, registry.ErrWorkerNotFound, s.registry.GetWorker)
	if err != nil {
		return ContractorReport{}, err
	}

	report := ContractorReport{
		Contractor:          contractorInfo(contractor),
		Site:                siteInfo(site),
		Period:              period,
		Workers:             make([]WorkerEntry, 0, len(groups)),
		TotalEquivalentDays: decimal.Zero,
	}
	for _, g := range groups {
		info := WorkerInfo{ID: g.WorkerID}
		if w, ok := workers[g.WorkerID]; ok {
			info = workerInfo(w)
		}
		report.Workers = append(report.Workers, WorkerEntry{Worker: info, Records: g.Records, Summary: g.Summary})
		report.TotalRecords += g.Summary.TotalRecords
		report.TotalEquivalentDays = report.TotalEquivalentDays.Add(g.Summary.TotalEquivalentDays)
	}
	return report, nil
}

// WorkerReport lists a worker's attendance across contractors and sites.
func (s *Service) WorkerReport(ctx context.Context, workerID string, r attendance.DateRange) (WorkerReport, error) {
	period, err := requireRange(r)
	if err != nil {
		return WorkerReport{}, err
	}
	worker, err := s.registry.GetWorker(ctx, workerID)
	if err != nil {
		return WorkerReport{}, err
	}
	summary, records, err := s.attendance.SummarizeForWorker(ctx, workerID, r)
	if err != nil {
		return WorkerReport{}, err
	}

	siteIDs := make([]string, len(records))
	contractorIDs := make([]string, len(records))
	for i, rec := range records {
		siteIDs[i] = rec.SiteID
		contractorIDs[i] = rec.ContractorID
	}

	var sites map[string]registry.Site
	var contractors map[string]registry.Contractor
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sites, err = lookupAll(gctx, siteIDs, registry.ErrSiteNotFound, s.registry.SiteByID)
		return err
	})
	g.Go(func() error {
		var err error
		contractors, err = lookupAll(gctx, contractorIDs, registry.ErrContractorNotFound, s.registry.GetContractor)
		return err
	})
	if err := g.Wait(); err != nil {
		return WorkerReport{}, err
	}

	details := make([]RecordDetail, len(records))
	for i, rec := range records {
		details[i] = RecordDetail{Record: rec}
		if c, ok := contractors[rec.ContractorID]; ok {
			info := contractorInfo(c)
			details[i].Contractor = &info
		}
		if site, ok := sites[rec.SiteID]; ok {
			info := siteInfo(site)
			details[i].Site = &info
		}
	}
	return WorkerReport{Worker: workerInfo(worker), Period: period, Summary: summary, Records: details}, nil
}

// RangeSummary aggregates every record in the range.
func (s *Service) RangeSummary(ctx context.Context, r attendance.DateRange) (RangeSummary, error) {
	period, err := requireRange(r)
	if err != nil {
		return RangeSummary{}, err
	}
	records, err := s.attendance.Records(ctx, attendance.Filter{Range: r})
	if err != nil {
		return RangeSummary{}, err
	}
	summary, err := attendance.Summarize(records)
	if err != nil {
		return RangeSummary{}, err
	}
	workers := map[string]struct{}{}
	contractors := map[string]struct{}{}
	for _, rec := range records {
		workers[rec.WorkerID] = struct{}{}
		contractors[rec.ContractorID] = struct{}{}
	}
	return RangeSummary{
		Period:              period,
		TotalRecords:        summary.TotalRecords,
		UniqueWorkers:       len(workers),
		UniqueContractors:   len(contractors),
		ShiftBreakdown:      summary.Counts,
		TotalEquivalentDays: summary.TotalEquivalentDays,
	}, nil
}
