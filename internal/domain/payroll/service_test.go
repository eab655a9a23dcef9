package payroll_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sitelabor/internal/domain/attendance"
	"sitelabor/internal/domain/attendance/attendancetest"
	"sitelabor/internal/domain/payroll"
	"sitelabor/internal/domain/payroll/payrolltest"
	"sitelabor/internal/domain/registry"
	"sitelabor/internal/domain/shift"
	"sitelabor/internal/platform/metrics"
)

func rate(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

var jan1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// directory knows workers w1..w3 and contractor c1 with sites s1 and s2.
type directory struct{}

func (directory) GetWorker(_ context.Context, id string) (registry.Worker, error) {
	switch id {
	case "w1", "w2", "w3":
		return registry.Worker{ID: id}, nil
	}
	return registry.Worker{}, registry.ErrWorkerNotFound
}

func (directory) GetContractor(_ context.Context, id string) (registry.Contractor, error) {
	if id != "c1" {
		return registry.Contractor{}, registry.ErrContractorNotFound
	}
	return registry.Contractor{ID: id}, nil
}

func (directory) GetSite(_ context.Context, contractorID, siteID string) (registry.Site, error) {
	if contractorID != "c1" || (siteID != "s1" && siteID != "s2") {
		return registry.Site{}, registry.ErrSiteNotFound
	}
	return registry.Site{ID: siteID, ContractorID: contractorID}, nil
}

var known directory

func seedAttendance(t *testing.T, entries ...attendance.NewEntry) *attendance.Service {
	t.Helper()
	svc := attendance.NewService(attendancetest.NewMemStore(), nil)
	if _, err := svc.CreateBatch(context.Background(), "u1", entries); err != nil {
		t.Fatalf("seed attendance: %v", err)
	}
	return svc
}

func at(worker, site string, day int, kind shift.Kind) attendance.NewEntry {
	return attendance.NewEntry{WorkerID: worker, ContractorID: "c1", SiteID: site, Date: jan1.AddDate(0, 0, day), ShiftKind: kind}
}

func TestActiveSettingsPersistsDefaultsOnce(t *testing.T) {
	store := payrolltest.NewMemStore()
	svc := payroll.NewService(store, seedAttendance(t, at("w1", "s1", 0, shift.Full)), known, nil)
	ctx := context.Background()

	first, err := svc.ActiveSettings(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Name != payroll.DefaultSettingsName || !first.Rates.Full.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected default settings, got %+v", first)
	}
	second, _ := svc.ActiveSettings(ctx)
	if second.ID != first.ID {
		t.Fatalf("expected same settings, got %s and %s", first.ID, second.ID)
	}
	if store.Ensures != 1 || store.Len() != 1 {
		t.Fatalf("expected one lazy insert, got %d ensures and %d rows", store.Ensures, store.Len())
	}
}

func TestActiveSettingsConcurrentFirstUse(t *testing.T) {
	store := payrolltest.NewMemStore()
	svc := payroll.NewService(store, seedAttendance(t, at("w1", "s1", 0, shift.Full)), known, nil)

	var wg sync.WaitGroup
	ids := make([]string, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := svc.ActiveSettings(context.Background())
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			ids[i] = s.ID
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("expected one active settings id, got %v", ids)
		}
	}
	if store.Len() != 1 {
		t.Fatalf("expected one settings row, got %d", store.Len())
	}
}

func TestReplaceActiveKeepsHistory(t *testing.T) {
	store := payrolltest.NewMemStore()
	svc := payroll.NewService(store, seedAttendance(t, at("w1", "s1", 0, shift.Full)), known, nil)
	ctx := context.Background()

	old, _ := svc.ActiveSettings(ctx)
	input := payroll.DefaultSettings()
	input.Name = "  Monsoon rates "
	input.Rates.Full = rate(600)
	replaced, err := svc.ReplaceActive(ctx, input)
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if replaced.ID == old.ID || replaced.Name != "Monsoon rates" {
		t.Fatalf("unexpected replacement: %+v", replaced)
	}

	history, _ := svc.ListSettings(ctx)
	if len(history) != 2 || history[0].ID != replaced.ID || history[1].IsActive {
		t.Fatalf("unexpected history: %+v", history)
	}
	active, _ := svc.ActiveSettings(ctx)
	if active.ID != replaced.ID {
		t.Fatalf("expected replacement to be active")
	}
}

func TestSettingsRejectNegative(t *testing.T) {
	svc := payroll.NewService(payrolltest.NewMemStore(), seedAttendance(t, at("w1", "s1", 0, shift.Full)), known, nil)
	input := payroll.DefaultSettings()
	input.Deductions.ESI = decimal.NewFromInt(-1)
	if _, err := svc.ReplaceActive(context.Background(), input); !errors.Is(err, payroll.ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	input = payroll.DefaultSettings()
	neg := decimal.NewFromInt(-5)
	input.Rates.Half = &neg
	if _, err := svc.UpdateSettings(context.Background(), "ps-1", input); !errors.Is(err, payroll.ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestCalculateForWorker(t *testing.T) {
	source := seedAttendance(t,
		at("w1", "s1", 0, shift.Half),
		at("w1", "s2", 0, shift.Half),
		at("w1", "s1", 1, shift.Full),
		at("w1", "s1", 2, shift.Full),
		at("w1", "s1", 3, shift.Full),
		at("w1", "s1", 4, shift.Double),
		at("w1", "s1", 30, shift.Double),
		at("w2", "s1", 0, shift.Full),
	)
	store := payrolltest.NewMemStore()
	store.Insert(payroll.SettingsInput{
		Name:       "site",
		Rates:      payroll.Rates{Half: rate(250), Full: rate(500), Double: rate(1000)},
		Deductions: payroll.Deductions{PF: decimal.NewFromInt(100), ESI: decimal.NewFromInt(50)},
	}, true)
	collector := metrics.New()
	svc := payroll.NewService(store, source, known, collector)

	got, err := svc.CalculateForWorker(context.Background(), "w1", attendance.DateRange{From: jan1, To: jan1.AddDate(0, 0, 4)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Payroll.Net.Equal(decimal.NewFromInt(2850)) {
		t.Fatalf("expected net 2850, got %s", got.Payroll.Net)
	}
	if got.SettingsID != "ps-1" || !got.Period.From.Equal(jan1) {
		t.Fatalf("unexpected payroll envelope: %+v", got)
	}
	if n := collector.Snapshot()["payrollCalculationsTotal"].(uint64); n != 1 {
		t.Fatalf("expected one payroll run, got %d", n)
	}
}

func TestCalculateForWorkerMissingRate(t *testing.T) {
	store := payrolltest.NewMemStore()
	store.Insert(payroll.SettingsInput{Name: "partial", Rates: payroll.Rates{Full: rate(500)}}, true)
	collector := metrics.New()
	svc := payroll.NewService(store, seedAttendance(t, at("w1", "s1", 0, shift.OneHalf)), known, collector)

	_, err := svc.CalculateForWorker(context.Background(), "w1", attendance.DateRange{From: jan1, To: jan1})
	var missing *payroll.MissingRateError
	if !errors.As(err, &missing) || missing.Kind != shift.OneHalf {
		t.Fatalf("expected MissingRateError for onehalf, got %v", err)
	}
	if n := collector.Snapshot()["payrollFailuresTotal"].(uint64); n != 1 {
		t.Fatalf("expected one payroll failure, got %d", n)
	}
}

func TestCalculateRequiresRange(t *testing.T) {
	svc := payroll.NewService(payrolltest.NewMemStore(), seedAttendance(t, at("w1", "s1", 0, shift.Full)), known, nil)
	ctx := context.Background()
	if _, err := svc.CalculateForWorker(ctx, "w1", attendance.DateRange{From: jan1}); !errors.Is(err, payroll.ErrRangeRequired) {
		t.Fatalf("expected ErrRangeRequired, got %v", err)
	}
	if _, err := svc.CalculateForWorker(ctx, "w1", attendance.DateRange{From: jan1.AddDate(0, 0, 1), To: jan1}); !errors.Is(err, attendance.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestPayrollForContractorSite(t *testing.T) {
	source := seedAttendance(t,
		at("w2", "s1", 0, shift.Full),
		at("w1", "s1", 0, shift.Half),
		at("w1", "s1", 1, shift.Double),
		at("w3", "s2", 0, shift.Full),
	)
	svc := payroll.NewService(payrolltest.NewMemStore(), source, known, nil)

	got, err := svc.PayrollForContractorSite(context.Background(), "c1", "s1", attendance.DateRange{From: jan1, To: jan1.AddDate(0, 0, 1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Workers) != 2 {
		t.Fatalf("expected 2 workers, got %d", len(got.Workers))
	}
	byWorker := map[string]payroll.WorkerPayroll{}
	for _, w := range got.Workers {
		byWorker[w.WorkerID] = w
	}
	if !byWorker["w1"].Payroll.Gross.Equal(decimal.NewFromInt(1250)) {
		t.Fatalf("expected w1 gross 1250, got %s", byWorker["w1"].Payroll.Gross)
	}
	if !byWorker["w2"].Payroll.Gross.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected w2 gross 500, got %s", byWorker["w2"].Payroll.Gross)
	}
	if !got.TotalNet.Equal(decimal.NewFromInt(1750)) {
		t.Fatalf("expected total net 1750, got %s", got.TotalNet)
	}
}

func TestCalculateUnknownReferences(t *testing.T) {
	store := payrolltest.NewMemStore()
	store.Insert(payroll.SettingsInput{
		Name:       "flat",
		Rates:      payroll.Rates{Half: rate(250), Full: rate(500), OneHalf: rate(750), Double: rate(1000)},
		Deductions: payroll.Deductions{PF: decimal.NewFromInt(100)},
	}, true)
	collector := metrics.New()
	svc := payroll.NewService(store, seedAttendance(t, at("w1", "s1", 0, shift.Full)), known, collector)
	ctx := context.Background()
	month := attendance.DateRange{From: jan1, To: jan1.AddDate(0, 0, 30)}

	if _, err := svc.CalculateForWorker(ctx, "ghost", month); !errors.Is(err, registry.ErrWorkerNotFound) {
		t.Fatalf("expected ErrWorkerNotFound, got %v", err)
	}
	if _, err := svc.PayrollForContractorSite(ctx, "c9", "s1", month); !errors.Is(err, registry.ErrContractorNotFound) {
		t.Fatalf("expected ErrContractorNotFound, got %v", err)
	}
	if _, err := svc.PayrollForContractorSite(ctx, "c1", "s9", month); !errors.Is(err, registry.ErrSiteNotFound) {
		t.Fatalf("expected ErrSiteNotFound, got %v", err)
	}
	if n := collector.Snapshot()["payrollCalculationsTotal"].(uint64); n != 0 {
		t.Fatalf("expected no payroll runs for unresolved references, got %d", n)
	}
}
