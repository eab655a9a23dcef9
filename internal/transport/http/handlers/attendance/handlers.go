package attendancehandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"sitelabor/internal/domain/attendance"
	"sitelabor/internal/domain/audit"
	"sitelabor/internal/domain/auth"
	"sitelabor/internal/domain/shift"
	"sitelabor/internal/platform/logging"
	"sitelabor/internal/transport/http/api"
	"sitelabor/internal/transport/http/middleware"
	"sitelabor/internal/transport/http/shared"
)

const createEndpoint = "attendance.create"

type Handler struct {
	Service     *attendance.Service
	Audit       audit.Recorder
	Idempotency *middleware.IdempotencyStore
	Perms       middleware.PermissionStore
}

func NewHandler(service *attendance.Service, recorder audit.Recorder, idempotency *middleware.IdempotencyStore, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Audit: recorder, Idempotency: idempotency, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermAttendanceRead, h.Perms)
	write := middleware.RequirePermission(auth.PermAttendanceWrite, h.Perms)
	remove := middleware.RequirePermission(auth.PermAttendanceDelete, h.Perms)

	r.Route("/attendance", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(write).Post("/", h.handleCreate)
		r.With(read).Get("/today", h.handleToday)
		r.Route("/{attendanceID}", func(r chi.Router) {
			r.With(read).Get("/", h.handleGet)
			r.With(write).Put("/", h.handleUpdate)
			r.With(remove).Delete("/", h.handleDelete)
		})
	})
}

type entryPayload struct {
	WorkerID     string `json:"workerId" validate:"required"`
	ContractorID string `json:"contractorId" validate:"required"`
	SiteID       string `json:"siteId" validate:"required"`
	Date         string `json:"date" validate:"required"`
	ShiftType    string `json:"shiftType" validate:"required"`
	Remarks      string `json:"remarks" validate:"max=500"`
}

type createRequest struct {
	Records []entryPayload `json:"attendanceRecords" validate:"required,min=1,dive"`
}

type updateRequest struct {
	ShiftType *string `json:"shiftType"`
	Remarks   *string `json:"remarks" validate:"omitempty,max=500"`
}

type createResponse struct {
	Count   int                 `json:"count"`
	Records []attendance.Record `json:"records"`
}

var shiftReason = "must be one of " + strings.Join(shift.Codes(), ", ")

// entries converts the batch, collecting a field issue for every bad date or
// shift kind so the caller sees all of them at once.
func (p createRequest) entries(v *shared.Validator) []attendance.NewEntry {
	out := make([]attendance.NewEntry, 0, len(p.Records))
	for i, rec := range p.Records {
		prefix := "attendanceRecords[" + strconv.Itoa(i) + "]."
		date, _ := v.Date(prefix+"date", rec.Date)
		kind, err := shift.Parse(rec.ShiftType)
		if err != nil {
			v.Add(prefix+"shiftType", shiftReason)
		}
		out = append(out, attendance.NewEntry{
			WorkerID:     rec.WorkerID,
			ContractorID: rec.ContractorID,
			SiteID:       rec.SiteID,
			Date:         date,
			ShiftKind:    kind,
			Remarks:      strings.TrimSpace(rec.Remarks),
		})
	}
	return out
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	requestID := middleware.GetRequestID(r.Context())
	var dup *attendance.DuplicateEntryError
	switch {
	case errors.As(err, &dup):
		api.FailWithDetails(w, http.StatusConflict, "duplicate_attendance", err.Error(), dup.Key, requestID)
	case errors.Is(err, attendance.ErrDuplicateEntry):
		api.Fail(w, http.StatusConflict, "duplicate_attendance", err.Error(), requestID)
	case errors.Is(err, shift.ErrUnknownKind):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "shiftType", Reason: shiftReason}})
	case errors.Is(err, attendance.ErrRemarksTooLong):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "remarks", Reason: err.Error()}})
	case errors.Is(err, attendance.ErrInvalidRange):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "endDate", Reason: err.Error()}})
	case errors.Is(err, attendance.ErrEmptyBatch):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "attendanceRecords", Reason: err.Error()}})
	case errors.Is(err, attendance.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, attendance.ErrReferenceNotFound):
		api.Fail(w, http.StatusNotFound, "reference_not_found", err.Error(), requestID)
	default:
		logging.Error("attendance", op, err, logrus.Fields{"requestId": requestID})
		api.Fail(w, http.StatusInternalServerError, op+"_failed", "failed to "+strings.ReplaceAll(op, "_", " "), requestID)
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request payload too large", requestID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	idempotencyKey := r.Header.Get("Idempotency-Key")
	requestHash := middleware.RequestHash(body)
	if idempotencyKey != "" {
		stored, found, err := h.Idempotency.Check(r.Context(), user.UserID, createEndpoint, idempotencyKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", err.Error(), requestID)
			return
		}
		if err != nil {
			logging.Warn("attendance", "idempotency_check", "idempotency check failed", logrus.Fields{"err": err.Error(), "requestId": requestID})
		}
		if found {
			api.Created(w, json.RawMessage(stored), requestID)
			return
		}
	}

	var payload createRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	entries := payload.entries(v)
	if v.Reject(w, requestID) {
		return
	}

	created, err := h.Service.CreateBatch(r.Context(), user.UserID, entries)
	if err != nil {
		h.fail(w, r, "create_attendance", err)
		return
	}
	resp := createResponse{Count: len(created), Records: created}

	if idempotencyKey != "" {
		if raw, err := json.Marshal(resp); err == nil {
			if err := h.Idempotency.Save(r.Context(), user.UserID, createEndpoint, idempotencyKey, requestHash, raw); err != nil {
				logging.Warn("attendance", "idempotency_save", "idempotency save failed", logrus.Fields{"err": err.Error(), "requestId": requestID})
			}
		}
	}

	for _, rec := range created {
		h.Audit.Record(r.Context(), middleware.AuditEntry(r, "attendance.create", audit.EntityAttendance, rec.ID, nil, rec))
	}
	api.Created(w, resp, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	q := r.URL.Query()
	v := shared.NewValidator()
	dates := shared.ParseRange(v, r, false)
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			v.Add("limit", "must be a positive integer")
		}
		limit = n
	}
	if v.Reject(w, requestID) {
		return
	}

	records, err := h.Service.Query(r.Context(), attendance.Filter{
		WorkerID:     q.Get("workerId"),
		ContractorID: q.Get("contractorId"),
		SiteID:       q.Get("siteId"),
		Range:        dates,
		Limit:        limit,
	})
	if err != nil {
		h.fail(w, r, "list_attendance", err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(records)))
	api.Success(w, records, requestID)
}

func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	count, err := h.Service.TodayCount(r.Context())
	if err != nil {
		h.fail(w, r, "count_attendance", err)
		return
	}
	api.Success(w, map[string]any{
		"date":  attendance.NormalizeDate(time.Now()).Format("2006-01-02"),
		"count": count,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	record, err := h.Service.Get(r.Context(), chi.URLParam(r, "attendanceID"))
	if err != nil {
		h.fail(w, r, "get_attendance", err)
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload updateRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	id := chi.URLParam(r, "attendanceID")
	before, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "update_attendance", err)
		return
	}

	change := attendance.Change{}
	if payload.ShiftType != nil {
		kind := shift.Kind(*payload.ShiftType)
		change.ShiftKind = &kind
	}
	if payload.Remarks != nil {
		remarks := strings.TrimSpace(*payload.Remarks)
		change.Remarks = &remarks
	}
	record, err := h.Service.Update(r.Context(), id, change)
	if err != nil {
		h.fail(w, r, "update_attendance", err)
		return
	}
	h.Audit.Record(r.Context(), middleware.AuditEntry(r, "attendance.update", audit.EntityAttendance, id, before, record))
	api.Success(w, record, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "attendanceID")
	before, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "delete_attendance", err)
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "delete_attendance", err)
		return
	}
	h.Audit.Record(r.Context(), middleware.AuditEntry(r, "attendance.delete", audit.EntityAttendance, id, before, nil))
	api.Success(w, map[string]string{"id": id, "status": "deleted"}, middleware.GetRequestID(r.Context()))
}
