package payrollhandler

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"sitelabor/internal/domain/attendance"
	"sitelabor/internal/domain/audit"
	"sitelabor/internal/domain/auth"
	"sitelabor/internal/domain/export"
	"sitelabor/internal/domain/payroll"
	"sitelabor/internal/domain/registry"
	"sitelabor/internal/domain/reports"
	"sitelabor/internal/domain/shift"
	"sitelabor/internal/platform/logging"
	"sitelabor/internal/transport/http/api"
	"sitelabor/internal/transport/http/middleware"
	"sitelabor/internal/transport/http/shared"
)

type Handler struct {
	Service *payroll.Service
	Reports *reports.Service
	Audit   audit.Recorder
	Perms   middleware.PermissionStore
}

func NewHandler(service *payroll.Service, reportsSvc *reports.Service, recorder audit.Recorder, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Reports: reportsSvc, Audit: recorder, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermPayrollRead, h.Perms)
	edit := middleware.RequirePermission(auth.PermPayrollSettingsEdit, h.Perms)

	r.Route("/payroll", func(r chi.Router) {
		r.With(read).Get("/settings", h.handleActiveSettings)
		r.With(read).Get("/settings/history", h.handleSettingsHistory)
		r.With(edit).Post("/settings", h.handleReplaceSettings)
		r.With(edit).Put("/settings/{settingsID}", h.handleUpdateSettings)
		r.With(read).Get("/calculate/{workerID}", h.handleCalculate)
		r.With(read).Get("/calculate/{workerID}/export", h.handleExportStatement)
		r.With(read).Get("/contractor", h.handleContractorPayroll)
	})
}

type settingsRequest struct {
	Name       string             `json:"name" validate:"max=100"`
	Rates      payroll.Rates      `json:"rates"`
	Deductions payroll.Deductions `json:"deductions"`
}

func (p settingsRequest) input() payroll.SettingsInput {
	return payroll.SettingsInput{Name: p.Name, Rates: p.Rates, Deductions: p.Deductions}
}

// check names every negative amount in the request.
func (p settingsRequest) check(v *shared.Validator) {
	rates := map[string]*decimal.Decimal{
		"rates.half":    p.Rates.Half,
		"rates.full":    p.Rates.Full,
		"rates.onehalf": p.Rates.OneHalf,
		"rates.double":  p.Rates.Double,
	}
	for field, rate := range rates {
		if rate != nil && rate.IsNegative() {
			v.Add(field, "cannot be negative")
		}
	}
	deductions := map[string]decimal.Decimal{
		"deductions.pf":      p.Deductions.PF,
		"deductions.esi":     p.Deductions.ESI,
		"deductions.advance": p.Deductions.Advance,
	}
	for field, amount := range deductions {
		if amount.IsNegative() {
			v.Add(field, "cannot be negative")
		}
	}
}

func copyRate(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

// requestFrom seeds an update request with the stored settings so absent
// fields keep their value. Rate pointers are copied so decoding never
// writes through to the stored document.
func requestFrom(s payroll.Settings) settingsRequest {
	return settingsRequest{
		Name: s.Name,
		Rates: payroll.Rates{
			Half:    copyRate(s.Rates.Half),
			Full:    copyRate(s.Rates.Full),
			OneHalf: copyRate(s.Rates.OneHalf),
			Double:  copyRate(s.Rates.Double),
		},
		Deductions: s.Deductions,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	requestID := middleware.GetRequestID(r.Context())
	var missing *payroll.MissingRateError
	switch {
	case errors.As(err, &missing):
		api.FailWithDetails(w, http.StatusUnprocessableEntity, "missing_rate", err.Error(), map[string]string{"kind": string(missing.Kind)}, requestID)
	case errors.Is(err, payroll.ErrNegativeAmount):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "rates", Reason: err.Error()}})
	case errors.Is(err, payroll.ErrRangeRequired), errors.Is(err, attendance.ErrInvalidRange):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "endDate", Reason: err.Error()}})
	case errors.Is(err, shift.ErrUnknownKind):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "shiftType", Reason: err.Error()}})
	case errors.Is(err, payroll.ErrSettingsConflict):
		api.Fail(w, http.StatusConflict, "settings_conflict", err.Error(), requestID)
	case errors.Is(err, payroll.ErrNotFound),
		errors.Is(err, registry.ErrWorkerNotFound),
		errors.Is(err, registry.ErrContractorNotFound),
		errors.Is(err, registry.ErrSiteNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, export.ErrUnsupportedFormat):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "format", Reason: "must be pdf"}})
	default:
		logging.Error("payroll", op, err, logrus.Fields{"requestId": requestID})
		api.Fail(w, http.StatusInternalServerError, op+"_failed", "failed to "+strings.ReplaceAll(op, "_", " "), requestID)
	}
}

func (h *Handler) handleActiveSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.ActiveSettings(r.Context())
	if err != nil {
		h.fail(w, r, "load_settings", err)
		return
	}
	api.Success(w, settings, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSettingsHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.Service.ListSettings(r.Context())
	if err != nil {
		h.fail(w, r, "list_settings", err)
		return
	}
	api.Success(w, history, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReplaceSettings(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	before, err := h.Service.ActiveSettings(r.Context())
	if err != nil {
		h.fail(w, r, "replace_settings", err)
		return
	}
	var payload settingsRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	payload.check(v)
	if v.Reject(w, requestID) {
		return
	}
	settings, err := h.Service.ReplaceActive(r.Context(), payload.input())
	if err != nil {
		h.fail(w, r, "replace_settings", err)
		return
	}
	h.Audit.Record(r.Context(), middleware.AuditEntry(r, "payroll.settings.replace", audit.EntityPayrollSettings, settings.ID, before, settings))
	api.Created(w, settings, requestID)
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "settingsID")
	before, err := h.Service.GetSettings(r.Context(), id)
	if err != nil {
		h.fail(w, r, "update_settings", err)
		return
	}
	payload := requestFrom(before)
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	payload.check(v)
	if v.Reject(w, requestID) {
		return
	}
	settings, err := h.Service.UpdateSettings(r.Context(), id, payload.input())
	if err != nil {
		h.fail(w, r, "update_settings", err)
		return
	}
	h.Audit.Record(r.Context(), middleware.AuditEntry(r, "payroll.settings.update", audit.EntityPayrollSettings, id, before, settings))
	api.Success(w, settings, requestID)
}

func (h *Handler) workerPayroll(w http.ResponseWriter, r *http.Request, op string) (payroll.WorkerPayroll, bool) {
	v := shared.NewValidator()
	dates := shared.ParseRange(v, r, true)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return payroll.WorkerPayroll{}, false
	}
	result, err := h.Service.CalculateForWorker(r.Context(), chi.URLParam(r, "workerID"), dates)
	if err != nil {
		h.fail(w, r, op, err)
		return payroll.WorkerPayroll{}, false
	}
	return result, true
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	result, ok := h.workerPayroll(w, r, "calculate_payroll")
	if !ok {
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportStatement(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("format")
	if raw == "" {
		raw = string(export.PDF)
	}
	format, err := export.ParseFormat(raw)
	if err == nil && format != export.PDF {
		err = export.ErrUnsupportedFormat
	}
	if err != nil {
		h.fail(w, r, "export_statement", err)
		return
	}

	result, ok := h.workerPayroll(w, r, "export_statement")
	if !ok {
		return
	}
	worker, err := h.Reports.Worker(r.Context(), result.WorkerID)
	if err != nil {
		h.fail(w, r, "export_statement", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WritePayrollStatement(&buf, worker, result); err != nil {
		h.fail(w, r, "export_statement", err)
		return
	}
	name := export.FileName("payroll-"+worker.Code+"-"+result.Period.From.Format("2006-01-02"), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleContractorPayroll(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	q := r.URL.Query()
	v := shared.NewValidator()
	v.Required("contractorId", q.Get("contractorId"), "is required")
	v.Required("siteId", q.Get("siteId"), "is required")
	dates := shared.ParseRange(v, r, true)
	if v.Reject(w, requestID) {
		return
	}
	result, err := h.Service.PayrollForContractorSite(r.Context(), q.Get("contractorId"), q.Get("siteId"), dates)
	if err != nil {
		h.fail(w, r, "contractor_payroll", err)
		return
	}
	api.Success(w, result, requestID)
}
