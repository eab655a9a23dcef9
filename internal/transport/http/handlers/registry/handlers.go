package registryhandler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"sitelabor/internal/domain/audit"
	"sitelabor/internal/domain/auth"
	"sitelabor/internal/domain/registry"
	"sitelabor/internal/platform/logging"
	"sitelabor/internal/transport/http/api"
	"sitelabor/internal/transport/http/middleware"
	"sitelabor/internal/transport/http/shared"
)

type Handler struct {
	Service *registry.Service
	Audit   audit.Recorder
	Perms   middleware.PermissionStore
}

func NewHandler(service *registry.Service, recorder audit.Recorder, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Audit: recorder, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermRegistryRead, h.Perms)
	write := middleware.RequirePermission(auth.PermRegistryWrite, h.Perms)
	remove := middleware.RequirePermission(auth.PermRegistryDelete, h.Perms)

	r.Route("/workers", func(r chi.Router) {
		r.With(read).Get("/", h.handleListWorkers)
		r.With(write).Post("/", h.handleCreateWorker)
		r.Route("/{workerID}", func(r chi.Router) {
			r.With(read).Get("/", h.handleGetWorker)
			r.With(write).Put("/", h.handleUpdateWorker)
			r.With(remove).Delete("/", h.handleDeleteWorker)
		})
	})
	r.Route("/contractors", func(r chi.Router) {
		r.With(read).Get("/", h.handleListContractors)
		r.With(write).Post("/", h.handleCreateContractor)
		r.Route("/{contractorID}", func(r chi.Router) {
			r.With(read).Get("/", h.handleGetContractor)
			r.With(write).Put("/", h.handleUpdateContractor)
			r.With(remove).Delete("/", h.handleDeleteContractor)
			r.With(read).Get("/sites", h.handleListSites)
			r.With(write).Post("/sites", h.handleAddSite)
			r.With(write).Put("/sites/{siteID}", h.handleUpdateSite)
			r.With(remove).Delete("/sites/{siteID}", h.handleDeleteSite)
		})
	})
}

type bankPayload struct {
	AccountNumber string `json:"accountNumber" validate:"max=34"`
	IFSC          string `json:"ifscCode"`
	BankName      string `json:"bankName" validate:"max=100"`
	Branch        string `json:"branchName" validate:"max=100"`
}

func (b bankPayload) bank() registry.Bank {
	return registry.Bank{AccountNumber: b.AccountNumber, IFSC: b.IFSC, BankName: b.BankName, Branch: b.Branch}
}

type workerRequest struct {
	Name       string      `json:"name" validate:"required"`
	Phone      string      `json:"phoneNumber" validate:"required"`
	NationalID string      `json:"aadhaarNumber" validate:"required"`
	Bank       bankPayload `json:"bankDetails"`
}

type workerUpdateRequest struct {
	Name       *string      `json:"name"`
	Phone      *string      `json:"phoneNumber"`
	NationalID *string      `json:"aadhaarNumber"`
	Bank       *bankPayload `json:"bankDetails"`
	IsActive   *bool        `json:"isActive"`
}

type siteRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Address     string `json:"address" validate:"max=300"`
	Description string `json:"description" validate:"max=500"`
	StartDate   string `json:"startDate"`
}

type contractorRequest struct {
	Name          string        `json:"name" validate:"required"`
	ContactNumber string        `json:"contactNumber"`
	Sites         []siteRequest `json:"sites" validate:"dive"`
}

type contractorUpdateRequest struct {
	Name          *string `json:"name"`
	ContactNumber *string `json:"contactNumber"`
}

type siteUpdateRequest struct {
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	Description *string `json:"description"`
	StartDate   *string `json:"startDate"`
	IsActive    *bool   `json:"isActive"`
}

func (s siteRequest) input(v *shared.Validator, field string) registry.SiteInput {
	return registry.SiteInput{
		Name:        s.Name,
		Address:     s.Address,
		Description: s.Description,
		StartDate:   v.OptionalDate(field, s.StartDate),
	}
}

// fieldErrors names the payload field each registry validation error is
// about.
var fieldErrors = []struct {
	err   error
	field string
}{
	{registry.ErrInvalidName, "name"},
	{registry.ErrInvalidPhone, "phoneNumber"},
	{registry.ErrInvalidNationalID, "aadhaarNumber"},
	{registry.ErrInvalidIFSC, "bankDetails.ifscCode"},
	{registry.ErrSiteNameRequired, "name"},
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	requestID := middleware.GetRequestID(r.Context())
	for _, fe := range fieldErrors {
		if errors.Is(err, fe.err) {
			shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: fe.field, Reason: err.Error()}})
			return
		}
	}
	switch {
	case errors.Is(err, registry.ErrWorkerNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, registry.ErrContractorNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, registry.ErrSiteNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, registry.ErrDuplicateNationalID):
		api.Fail(w, http.StatusConflict, "worker_exists", err.Error(), requestID)
	case errors.Is(err, registry.ErrContractorInactive):
		api.Fail(w, http.StatusConflict, "contractor_inactive", err.Error(), requestID)
	default:
		logging.Error("registry", op, err, logrus.Fields{"requestId": requestID})
		api.Fail(w, http.StatusInternalServerError, op+"_failed", "failed to "+strings.ReplaceAll(op, "_", " "), requestID)
	}
}

// parseActive defaults listings to active entries; "all" lifts the filter.
func parseActive(raw string) *bool {
	if raw == "all" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		v = true
	}
	return &v
}

func (h *Handler) handleListWorkers(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, registry.DefaultListLimit, registry.MaxListLimit)
	workers, total, err := h.Service.ListWorkers(r.Context(), registry.WorkerFilter{
		Search:   r.URL.Query().Get("search"),
		IsActive: parseActive(r.URL.Query().Get("isActive")),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		h.fail(w, r, "list_workers", err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, workers, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateWorker(w http.ResponseWriter, r *http.Request) {
	var payload workerRequest
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	worker, err := h.Service.CreateWorker(r.Context(), registry.WorkerInput{
		Name:       payload.Name,
		Phone:      payload.Phone,
		NationalID: payload.NationalID,
		Bank:       payload.Bank.bank(),
	})
	if err != nil {
		h.fail(w, r, "create_worker", err)
		return
	}
	h.Audit.Record(r.Context(), middleware.AuditEntry(r, "registry.worker.create", audit.EntityWorker, worker.ID, nil, worker))
	api.Created(w, worker, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetWorker(w http.ResponseWriter, r *http.Request) {
	worker, err := h.Service.GetWorker(r.Context(), chi.URLParam(r, "workerID"))
	if err != nil {
		h.fail(w, r, "get_worker", err)
		return
	}
	api.Success(w, worker, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateWorker(w http.ResponseWriter, r *http.Request) {
	var payload workerUpdateRequest
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	workerID := chi.URLParam(r, "workerID")
	before, err := h.Service.GetWorker(r.Context(), workerID)
	if err != nil {
		h.fail(w, r, "update_worker", err)
		return
	}
	patch := registry.WorkerPatch{Name: payload.Name, Phone: payload.Phone, NationalID: payload.NationalID, IsActive: payload.IsActive}
	if payload.Bank != nil {
		bank := payload.Bank.bank()
		patch.Bank = &bank
	}
	worker, err := h.Service.UpdateWorker(r.Context(), workerID, patch)
	if err != nil {
		h.fail(w, r, "update_worker", err)
		return
	}
	h.Audit.Record(r.Context(), middleware.AuditEntry(r, "registry.worker.update", audit.EntityWorker, worker.ID, before, worker))
	api.Success(w, worker, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteWorker(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "workerID")
	if err := h.Service.DeactivateWorker(r.Context(), workerID); err != nil {
		h.fail(w, r, "deactivate_worker", err)
		return
	}
	h.Audit.Record(r.Context(), middleware.AuditEntry(r, "registry.worker.deactivate", audit.EntityWorker, workerID, nil, nil))
	api.Success(w, map[string]string{"id": workerID, "status": "deactivated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListContractors(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, registry.DefaultListLimit, registry.MaxListLimit)
	contractors, total, err := h.Service.ListContractors(r.Context(), registry.ContractorFilter{
		Search:   r.URL.Query().Get("search"),
		IsActive: parseActive(r.URL.Query().Get("isActive")),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		h.fail(w, r, "list_contractors", err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, contractors, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateContractor(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload contractorRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	sites := make([]registry.SiteInput, len(payload.Sites))
	for i, s := range payload.Sites {
		sites[i] = s.input(v, "sites["+strconv.Itoa(i)+"].startDate")
	}
	if v.Reject(w, requestID) {
		return
	}
	contractor, err := h.Service.CreateContractor(r.Context(), registry.ContractorInput{
		Name:          payload.Name,
		ContactNumber: payload.ContactNumber,
		Sites:         sites,
	})
	if err != nil {
		h.fail(w, r, "create_contractor", err)
		return
	}
	h.Audit.Record(r.Context(), middleware.AuditEntry(r, "registry.contractor.create", audit.EntityContractor, contractor.ID, nil, contractor))
	api.Created(w, contractor, requestID)
}

func (h *Handler) handleGetContractor(w http.ResponseWriter, r *http.Request) {
	contractor, err := h.Service.GetContractor(r.Context(), chi.URLParam(r, "contractorID"))
	if err != nil {
		h.fail(w, r, "get_contractor", err)
		return
	}
	api.Success(w, contractor, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateContractor(w http.ResponseWriter, r *http.Request) {
	var payload contractorUpdateRequest
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	contractor, err := h.Service.UpdateContractor(r.Context(), chi.URLParam(r, "contractorID"), registry.ContractorPatch{
		Name:          payload.Name,
		ContactNumber: payload.ContactNumber,
	})
	if err != nil {
		h.fail(w, r, "update_contractor", err)
		return
	}
	h.Audit.Record(r.Context(), middleware.AuditEntry(r, "registry.contractor.update", audit.EntityContractor, contractor.ID, nil, payload))
	api.Success(w, contractor, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteContractor(w http.ResponseWriter, r *http.Request) {
	contractorID := chi.URLParam(r, "contractorID")
	if err := h.Service.DeactivateContractor(r.Context(), contractorID); err != nil {
		h.fail(w, r, "deactivate_contractor", err)
		return
	}
	h.Audit.Record(r.Context(), middleware.AuditEntry(r, "registry.contractor.deactivate", audit.EntityContractor, contractorID, nil, nil))
	api.Success(w, map[string]string{"id": contractorID, "status": "deactivated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListSites(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("activeOnly") == "true"
	sites, err := h.Service.ListSites(r.Context(), chi.URLParam(r, "contractorID"), activeOnly)
	if err != nil {
		h.fail(w, r, "list_sites", err)
		return
	}
	api.Success(w, sites, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAddSite(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload siteRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	input := payload.input(v, "startDate")
	if v.Reject(w, requestID) {
		return
	}
	site, err := h.Service.AddSite(r.Context(), chi.URLParam(r, "contractorID"), input)
	if err != nil {
		h.fail(w, r, "add_site", err)
		return
	}
	h.Audit.Record(r.Context(), middleware.AuditEntry(r, "registry.site.create", audit.EntitySite, site.ID, nil, site))
	api.Created(w, site, requestID)
}

func (h *Handler) handleUpdateSite(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload siteUpdateRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	patch := registry.SitePatch{Name: payload.Name, Address: payload.Address, Description: payload.Description, IsActive: payload.IsActive}
	if payload.StartDate != nil {
		v := shared.NewValidator()
		start, _ := v.Date("startDate", *payload.StartDate)
		if v.Reject(w, requestID) {
			return
		}
		patch.StartDate = &start
	}
	site, err := h.Service.UpdateSite(r.Context(), chi.URLParam(r, "contractorID"), chi.URLParam(r, "siteID"), patch)
	if err != nil {
		h.fail(w, r, "update_site", err)
		return
	}
	h.Audit.Record(r.Context(), middleware.AuditEntry(r, "registry.site.update", audit.EntitySite, site.ID, nil, site))
	api.Success(w, site, requestID)
}

func (h *Handler) handleDeleteSite(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")
	if err := h.Service.DeactivateSite(r.Context(), chi.URLParam(r, "contractorID"), siteID); err != nil {
		h.fail(w, r, "deactivate_site", err)
		return
	}
	h.Audit.Record(r.Context(), middleware.AuditEntry(r, "registry.site.deactivate", audit.EntitySite, siteID, nil, nil))
	api.Success(w, map[string]string{"id": siteID, "status": "deactivated"}, middleware.GetRequestID(r.Context()))
}
