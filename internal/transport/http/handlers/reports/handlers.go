package reportshandler

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"sitelabor/internal/domain/attendance"
	"sitelabor/internal/domain/auth"
	"sitelabor/internal/domain/export"
	"sitelabor/internal/domain/registry"
	"sitelabor/internal/domain/reports"
	"sitelabor/internal/domain/shift"
	"sitelabor/internal/platform/logging"
	"sitelabor/internal/transport/http/api"
	"sitelabor/internal/transport/http/middleware"
	"sitelabor/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *reports.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermReportsRead, h.Perms))
		r.Get("/contractor", h.handleContractor)
		r.Get("/contractor/export", h.handleContractorExport)
		r.Get("/worker", h.handleWorker)
		r.Get("/worker/export", h.handleWorkerExport)
		r.Get("/summary", h.handleSummary)
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, reports.ErrRangeRequired), errors.Is(err, attendance.ErrInvalidRange):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "endDate", Reason: err.Error()}})
	case errors.Is(err, shift.ErrUnknownKind):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "shiftType", Reason: err.Error()}})
	case errors.Is(err, export.ErrUnsupportedFormat):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "format", Reason: err.Error()}})
	case errors.Is(err, registry.ErrWorkerNotFound),
		errors.Is(err, registry.ErrContractorNotFound),
		errors.Is(err, registry.ErrSiteNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	default:
		logging.Error("reports", op, err, logrus.Fields{"requestId": requestID})
		api.Fail(w, http.StatusInternalServerError, op+"_failed", "failed to "+strings.ReplaceAll(op, "_", " "), requestID)
	}
}

type contractorQuery struct {
	contractorID string
	siteID       string
	dates        attendance.DateRange
}

func parseContractorQuery(w http.ResponseWriter, r *http.Request) (contractorQuery, bool) {
	q := r.URL.Query()
	v := shared.NewValidator()
	v.Required("contractorId", q.Get("contractorId"), "is required")
	v.Required("siteId", q.Get("siteId"), "is required")
	out := contractorQuery{contractorID: q.Get("contractorId"), siteID: q.Get("siteId"), dates: shared.ParseRange(v, r, true)}
	return out, !v.Reject(w, middleware.GetRequestID(r.Context()))
}

func parseWorkerQuery(w http.ResponseWriter, r *http.Request) (string, attendance.DateRange, bool) {
	q := r.URL.Query()
	v := shared.NewValidator()
	v.Required("workerId", q.Get("workerId"), "is required")
	dates := shared.ParseRange(v, r, true)
	return q.Get("workerId"), dates, !v.Reject(w, middleware.GetRequestID(r.Context()))
}

// writeFile renders t in the requested format, csv when none is given. The
// whole file is rendered before any byte is written so a failure can still
// be reported as JSON.
func (h *Handler) writeFile(w http.ResponseWriter, r *http.Request, op, base string, t export.Table) {
	raw := r.URL.Query().Get("format")
	if raw == "" {
		raw = string(export.CSV)
	}
	format, err := export.ParseFormat(raw)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	var buf bytes.Buffer
	if err := export.Render(&buf, format, t); err != nil {
		h.fail(w, r, op, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(base, format)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleContractor(w http.ResponseWriter, r *http.Request) {
	q, ok := parseContractorQuery(w, r)
	if !ok {
		return
	}
	report, err := h.Service.ContractorReport(r.Context(), q.contractorID, q.siteID, q.dates)
	if err != nil {
		h.fail(w, r, "contractor_report", err)
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleContractorExport(w http.ResponseWriter, r *http.Request) {
	q, ok := parseContractorQuery(w, r)
	if !ok {
		return
	}
	report, err := h.Service.ContractorReport(r.Context(), q.contractorID, q.siteID, q.dates)
	if err != nil {
		h.fail(w, r, "export_contractor_report", err)
		return
	}
	base := "contractor-" + report.Contractor.Code + "-" + report.Period.From.Format("2006-01-02")
	h.writeFile(w, r, "export_contractor_report", base, export.ContractorTable(report))
}

func (h *Handler) handleWorker(w http.ResponseWriter, r *http.Request) {
	workerID, dates, ok := parseWorkerQuery(w, r)
	if !ok {
		return
	}
	report, err := h.Service.WorkerReport(r.Context(), workerID, dates)
	if err != nil {
		h.fail(w, r, "worker_report", err)
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleWorkerExport(w http.ResponseWriter, r *http.Request) {
	workerID, dates, ok := parseWorkerQuery(w, r)
	if !ok {
		return
	}
	report, err := h.Service.WorkerReport(r.Context(), workerID, dates)
	if err != nil {
		h.fail(w, r, "export_worker_report", err)
		return
	}
	base := "worker-" + report.Worker.Code + "-" + report.Period.From.Format("2006-01-02")
	h.writeFile(w, r, "export_worker_report", base, export.WorkerTable(report))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	dates := shared.ParseRange(v, r, true)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	summary, err := h.Service.RangeSummary(r.Context(), dates)
	if err != nil {
		h.fail(w, r, "range_summary", err)
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}
