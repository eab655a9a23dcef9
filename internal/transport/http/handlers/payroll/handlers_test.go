package payrollhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"sitelabor/internal/domain/attendance"
	"sitelabor/internal/domain/attendance/attendancetest"
	"sitelabor/internal/domain/audit/audittest"
	"sitelabor/internal/domain/auth"
	"sitelabor/internal/domain/payroll"
	"sitelabor/internal/domain/payroll/payrolltest"
	"sitelabor/internal/domain/registry"
	"sitelabor/internal/domain/registry/registrytest"
	"sitelabor/internal/domain/reports"
	"sitelabor/internal/domain/shift"
	"sitelabor/internal/transport/http/middleware"
)

var jan1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

const month = "startDate=2024-01-01&endDate=2024-01-31"

type fixture struct {
	router     http.Handler
	settings   *payrolltest.MemStore
	attendance *attendancetest.MemStore
	recorder   *audittest.Recorder
	worker     registry.Worker
	contractor registry.Contractor
}

func newFixture(t *testing.T, kinds ...shift.Kind) fixture {
	t.Helper()
	ctx := context.Background()
	reg := registry.NewService(registrytest.NewMemStore())
	worker, err := reg.CreateWorker(ctx, registry.WorkerInput{Name: "Ravi", Phone: "9876543210", NationalID: "111122223333"})
	if err != nil {
		t.Fatalf("worker: %v", err)
	}
	contractor, err := reg.CreateContractor(ctx, registry.ContractorInput{Name: "Apex Builders", Sites: []registry.SiteInput{{Name: "Tower A"}}})
	if err != nil {
		t.Fatalf("contractor: %v", err)
	}
	records := attendancetest.NewMemStore()
	att := attendance.NewService(records, nil)
	entries := make([]attendance.NewEntry, len(kinds))
	for i, k := range kinds {
		entries[i] = attendance.NewEntry{WorkerID: worker.ID, ContractorID: contractor.ID, SiteID: contractor.Sites[0].ID, Date: jan1.AddDate(0, 0, i), ShiftKind: k}
	}
	if len(entries) > 0 {
		if _, err := att.CreateBatch(ctx, "u1", entries); err != nil {
			t.Fatalf("seed attendance: %v", err)
		}
	}

	settings := payrolltest.NewMemStore()
	recorder := &audittest.Recorder{}
	r := chi.NewRouter()
	NewHandler(payroll.NewService(settings, att, reg, nil), reports.NewService(att, reg), recorder, auth.StaticPermissions{}).RegisterRoutes(r)
	return fixture{router: r, settings: settings, attendance: records, recorder: recorder, worker: worker, contractor: contractor}
}

func (f fixture) serve(role, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u1", Role: role}))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: out}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body.Error.Code
}

func TestSettingsLifecycle(t *testing.T) {
	f := newFixture(t)

	var active payroll.Settings
	rec := f.serve(auth.RoleUser, http.MethodGet, "/payroll/settings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	decodeData(t, rec, &active)
	if active.Name != payroll.DefaultSettingsName || !active.Rates.Full.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected default settings, got %+v", active)
	}

	body := `{"name":"Monsoon","rates":{"half":300,"full":"600","onehalf":900,"double":1200},"deductions":{"pf":100}}`
	if rec := f.serve(auth.RoleUser, http.MethodPost, "/payroll/settings", body); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user, got %d", rec.Code)
	}
	var replaced payroll.Settings
	rec = f.serve(auth.RoleAdmin, http.MethodPost, "/payroll/settings", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	decodeData(t, rec, &replaced)
	if replaced.ID == active.ID || !replaced.Deductions.PF.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected replacement %+v", replaced)
	}

	var updated payroll.Settings
	rec = f.serve(auth.RoleAdmin, http.MethodPut, "/payroll/settings/"+replaced.ID, `{"rates":{"full":650}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	decodeData(t, rec, &updated)
	if !updated.Rates.Full.Equal(decimal.NewFromInt(650)) || !updated.Rates.Half.Equal(decimal.NewFromInt(300)) || updated.Name != "Monsoon" {
		t.Fatalf("expected a partial update, got %+v", updated)
	}

	var history []payroll.Settings
	decodeData(t, f.serve(auth.RoleUser, http.MethodGet, "/payroll/settings/history", ""), &history)
	if len(history) != 2 || history[0].ID != replaced.ID || history[1].IsActive {
		t.Fatalf("unexpected history %+v", history)
	}

	if rec := f.serve(auth.RoleAdmin, http.MethodPut, "/payroll/settings/missing", `{}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	want := []string{"payroll.settings.replace", "payroll.settings.update"}
	got := f.recorder.Actions()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected actions %v, got %v", want, got)
	}
}

func TestSettingsRejectNegativeAmounts(t *testing.T) {
	f := newFixture(t)
	rec := f.serve(auth.RoleAdmin, http.MethodPost, "/payroll/settings", `{"rates":{"full":-1},"deductions":{"esi":-5}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	for _, field := range []string{"rates.full", "deductions.esi"} {
		if !strings.Contains(rec.Body.String(), `"field":"`+field+`"`) {
			t.Fatalf("expected issue on %s, got %s", field, rec.Body.String())
		}
	}
	if f.settings.Len() != 1 {
		t.Fatalf("expected only the lazily created defaults, got %d", f.settings.Len())
	}
}

func TestCalculate(t *testing.T) {
	f := newFixture(t, shift.Full, shift.Full, shift.Half)
	path := "/payroll/calculate/" + f.worker.ID

	var result payroll.WorkerPayroll
	rec := f.serve(auth.RoleUser, http.MethodGet, path+"?startDate=2024-01-01&endDate=2024-01-31", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	decodeData(t, rec, &result)
	if !result.Payroll.Net.Equal(decimal.NewFromInt(1250)) {
		t.Fatalf("expected net 1250, got %s", result.Payroll.Net)
	}
	if result.Payroll.Breakdown.TotalEquivalentDays.String() != "2.5" {
		t.Fatalf("expected 2.5 days, got %s", result.Payroll.Breakdown.TotalEquivalentDays)
	}

	if rec := f.serve(auth.RoleUser, http.MethodGet, path+"?startDate=2024-01-01", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without end date, got %d", rec.Code)
	}
	if rec := f.serve(auth.RoleUser, http.MethodGet, path+"?startDate=2024-02-01&endDate=2024-01-01", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", rec.Code)
	}
}

func TestCalculateMissingRate(t *testing.T) {
	f := newFixture(t, shift.OneHalf)
	full := decimal.NewFromInt(500)
	f.settings.Insert(payroll.SettingsInput{Name: "partial", Rates: payroll.Rates{Full: &full}}, true)

	rec := f.serve(auth.RoleUser, http.MethodGet, "/payroll/calculate/"+f.worker.ID+"?startDate=2024-01-01&endDate=2024-01-31", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "missing_rate" {
		t.Fatalf("expected missing_rate, got %q", code)
	}
}

func TestContractorPayroll(t *testing.T) {
	f := newFixture(t, shift.Double, shift.Full)
	base := "/payroll/contractor?contractorId=" + f.contractor.ID

	var result payroll.ContractorPayroll
	rec := f.serve(auth.RoleUser, http.MethodGet, base+"&siteId="+f.contractor.Sites[0].ID+"&"+month, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	decodeData(t, rec, &result)
	if len(result.Workers) != 1 || !result.TotalGross.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("unexpected contractor payroll %+v", result)
	}

	rec = f.serve(auth.RoleUser, http.MethodGet, base+"&"+month, "")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"field":"siteId"`) {
		t.Fatalf("expected 400 on siteId, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestPayrollUnknownReferences(t *testing.T) {
	f := newFixture(t, shift.Full)
	body := `{"rates":{"half":250,"full":500,"onehalf":750,"double":1000},"deductions":{"pf":100}}`
	if rec := f.serve(auth.RoleAdmin, http.MethodPost, "/payroll/settings", body); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	site := f.contractor.Sites[0].ID
	tests := []struct {
		name string
		path string
	}{
		{name: "unknown worker", path: "/payroll/calculate/no-such-worker?" + month},
		{name: "unknown contractor", path: "/payroll/contractor?contractorId=missing&siteId=" + site + "&" + month},
		{name: "unknown site", path: "/payroll/contractor?contractorId=" + f.contractor.ID + "&siteId=missing&" + month},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.serve(auth.RoleUser, http.MethodGet, tc.path, "")
			if rec.Code != http.StatusNotFound {
				t.Fatalf("expected 404, got %d (%s)", rec.Code, rec.Body.String())
			}
			if code := errorCode(t, rec); code != "not_found" {
				t.Fatalf("expected not_found, got %q", code)
			}
		})
	}
}

func TestCalculateStoredUnknownKind(t *testing.T) {
	f := newFixture(t)
	f.attendance.Seed(attendance.Record{WorkerID: f.worker.ID, ContractorID: f.contractor.ID, SiteID: f.contractor.Sites[0].ID, Date: jan1, ShiftKind: "triple"})

	rec := f.serve(auth.RoleUser, http.MethodGet, "/payroll/calculate/"+f.worker.ID+"?"+month, "")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"field":"shiftType"`) {
		t.Fatalf("expected 400 on shiftType, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestReplaceSettingsConflict(t *testing.T) {
	f := newFixture(t)
	f.settings.CreateErr = payroll.ErrSettingsConflict

	rec := f.serve(auth.RoleAdmin, http.MethodPost, "/payroll/settings", `{"rates":{"full":600}}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (%s)", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "settings_conflict" {
		t.Fatalf("expected settings_conflict, got %q", code)
	}
	if got := f.recorder.Actions(); len(got) != 0 {
		t.Fatalf("expected no audit entry for a failed replacement, got %v", got)
	}
}

func TestExportStatement(t *testing.T) {
	f := newFixture(t, shift.Full)
	path := "/payroll/calculate/" + f.worker.ID + "/export?startDate=2024-01-01&endDate=2024-01-31"

	rec := f.serve(auth.RoleUser, http.MethodGet, path, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected pdf content type, got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, ".pdf") {
		t.Fatalf("expected pdf attachment, got %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("expected a pdf document")
	}

	if rec := f.serve(auth.RoleUser, http.MethodGet, path+"&format=csv", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for csv statement, got %d", rec.Code)
	}
	if rec := f.serve(auth.RoleUser, http.MethodGet, "/payroll/calculate/missing/export?startDate=2024-01-01&endDate=2024-01-31", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown worker, got %d", rec.Code)
	}
}
