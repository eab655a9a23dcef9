package payroll

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"sitelabor/internal/domain/attendance"
	"sitelabor/internal/domain/registry"
	"sitelabor/internal/platform/logging"
	"sitelabor/internal/platform/metrics"
)

// AttendanceSource is the part of the attendance service payroll reads.
type AttendanceSource interface {
	SummarizeForWorker(ctx context.Context, workerID string, r attendance.DateRange) (attendance.Summary, []attendance.Record, error)
	SummarizeForContractorSite(ctx context.Context, contractorID, siteID string, r attendance.DateRange) ([]attendance.WorkerGroup, error)
}

// Directory resolves the people and places a payroll is computed for.
type Directory interface {
	GetWorker(ctx context.Context, id string) (registry.Worker, error)
	GetContractor(ctx context.Context, id string) (registry.Contractor, error)
	GetSite(ctx context.Context, contractorID, siteID string) (registry.Site, error)
}

type Service struct {
	store      StoreAPI
	attendance AttendanceSource
	directory  Directory
	metrics    *metrics.Collector
}

func NewService(store StoreAPI, source AttendanceSource, directory Directory, collector *metrics.Collector) *Service {
	return &Service{store: store, attendance: source, directory: directory, metrics: collector}
}

// ActiveSettings returns the active settings, persisting the defaults on
// first use.
func (s *Service) ActiveSettings(ctx context.Context) (Settings, error) {
	active, err := s.store.Active(ctx)
	if err == nil {
		return active, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Settings{}, err
	}
	active, err = s.store.EnsureActive(ctx, DefaultSettings())
	if err != nil {
		logging.Error("payroll", "ensure_active", err, nil)
		return Settings{}, err
	}
	return active, nil
}

func (s *Service) ListSettings(ctx context.Context) ([]Settings, error) {
	return s.store.List(ctx)
}

func (s *Service) GetSettings(ctx context.Context, id string) (Settings, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) UpdateSettings(ctx context.Context, id string, input SettingsInput) (Settings, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return Settings{}, err
	}
	return s.store.Update(ctx, id, input)
}

// ReplaceActive records input as a new settings version and makes it the
// active one. Previous versions stay readable through ListSettings.
func (s *Service) ReplaceActive(ctx context.Context, input SettingsInput) (Settings, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return Settings{}, err
	}
	return s.store.CreateActive(ctx, input)
}

func normalizeInput(in SettingsInput) (SettingsInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		in.Name = DefaultSettingsName
	}
	for _, r := range []*decimal.Decimal{in.Rates.Half, in.Rates.Full, in.Rates.OneHalf, in.Rates.Double} {
		if r != nil && r.IsNegative() {
			return SettingsInput{}, ErrNegativeAmount
		}
	}
	for _, d := range []decimal.Decimal{in.Deductions.PF, in.Deductions.ESI, in.Deductions.Advance} {
		if d.IsNegative() {
			return SettingsInput{}, ErrNegativeAmount
		}
	}
	return in, nil
}

func requireRange(r attendance.DateRange) error {
	if r.From.IsZero() || r.To.IsZero() {
		return ErrRangeRequired
	}
	if attendance.NormalizeDate(r.To).Before(attendance.NormalizeDate(r.From)) {
		return attendance.ErrInvalidRange
	}
	return nil
}

// CalculateForWorker prices a worker's attendance across every contractor
// and site in the inclusive range, using the active settings. Unknown
// workers fail with registry.ErrWorkerNotFound.
func (s *Service) CalculateForWorker(ctx context.Context, workerID string, r attendance.DateRange) (WorkerPayroll, error) {
	if err := requireRange(r); err != nil {
		return WorkerPayroll{}, err
	}
	if _, err := s.directory.GetWorker(ctx, workerID); err != nil {
		return WorkerPayroll{}, err
	}
	settings, err := s.ActiveSettings(ctx)
	if err != nil {
		return WorkerPayroll{}, err
	}
	summary, _, err := s.attendance.SummarizeForWorker(ctx, workerID, r)
	if err != nil {
		return WorkerPayroll{}, err
	}
	res, err := Derive(summary, settings)
	s.metrics.PayrollRun(err)
	if err != nil {
		logging.Warn("payroll", "calculate_worker", err.Error(), logrus.Fields{"workerId": workerID, "settingsId": settings.ID})
		return WorkerPayroll{}, err
	}
	return WorkerPayroll{WorkerID: workerID, Period: periodOf(r), SettingsID: settings.ID, Payroll: res}, nil
}

// PayrollForContractorSite prices each worker seen at the site in the range,
// in the order workers first appear in the attendance listing. The site must
// belong to the contractor.
func (s *Service) PayrollForContractorSite(ctx context.Context, contractorID, siteID string, r attendance.DateRange) (ContractorPayroll, error) {
	if err := requireRange(r); err != nil {
		return ContractorPayroll{}, err
	}
	if _, err := s.directory.GetContractor(ctx, contractorID); err != nil {
		return ContractorPayroll{}, err
	}
	if _, err := s.directory.GetSite(ctx, contractorID, siteID); err != nil {
		return ContractorPayroll{}, err
	}
	settings, err := s.ActiveSettings(ctx)
	if err != nil {
		return ContractorPayroll{}, err
	}
	groups, err := s.attendance.SummarizeForContractorSite(ctx, contractorID, siteID, r)
	if err != nil {
		return ContractorPayroll{}, err
	}

	out := ContractorPayroll{
		ContractorID:    contractorID,
		SiteID:          siteID,
		Period:          periodOf(r),
		SettingsID:      settings.ID,
		Workers:         make([]WorkerPayroll, 0, len(groups)),
		TotalGross:      decimal.Zero,
		TotalDeductions: decimal.Zero,
		TotalNet:        decimal.Zero,
	}
	for _, g := range groups {
		res, err := Derive(g.Summary, settings)
		s.metrics.PayrollRun(err)
		if err != nil {
			logging.Warn("payroll", "calculate_site", err.Error(), logrus.Fields{"workerId": g.WorkerID, "siteId": siteID})
			return ContractorPayroll{}, err
		}
		out.Workers = append(out.Workers, WorkerPayroll{WorkerID: g.WorkerID, Period: out.Period, SettingsID: settings.ID, Payroll: res})
		out.TotalGross = out.TotalGross.Add(res.Gross)
		out.TotalDeductions = out.TotalDeductions.Add(res.TotalDeductions)
		out.TotalNet = out.TotalNet.Add(res.Net)
	}
	return out, nil
}
