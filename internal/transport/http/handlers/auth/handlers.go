package authhandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sitelabor/internal/domain/audit"
	"sitelabor/internal/domain/auth"
	"sitelabor/internal/platform/logging"
	"sitelabor/internal/transport/http/api"
	"sitelabor/internal/transport/http/middleware"
	"sitelabor/internal/transport/http/shared"
)

type Handler struct {
	Service         *auth.Service
	Audit           audit.Recorder
	AllowSelfSignup bool
}

func NewHandler(service *auth.Service, recorder audit.Recorder, allowSelfSignup bool) *Handler {
	return &Handler{Service: service, Audit: recorder, AllowSelfSignup: allowSelfSignup}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.HandleLogin)
		r.Post("/register", h.HandleRegister)
		r.With(middleware.RequireAuth).Get("/me", h.HandleMe)
	})
}

type loginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}

	session, err := h.Service.Login(r.Context(), payload.Login, payload.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	case errors.Is(err, auth.ErrUserInactive):
		api.Fail(w, http.StatusForbidden, "user_inactive", "account is deactivated", requestID)
		return
	default:
		logging.Error("auth", "login", err, nil)
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestID)
		return
	}

	api.Success(w, session, requestID)
}

// HandleRegister creates a user. Without self signup only an admin may call
// it, and only an admin may grant the admin role.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	caller, authenticated := middleware.GetUser(r.Context())
	callerIsAdmin := authenticated && caller.IsAdmin()
	if !h.AllowSelfSignup && !callerIsAdmin {
		if !authenticated {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
			return
		}
		api.Fail(w, http.StatusForbidden, "forbidden", "admin role required", requestID)
		return
	}

	var payload registerRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	if payload.Role == auth.RoleAdmin && !callerIsAdmin {
		api.Fail(w, http.StatusForbidden, "forbidden", "admin role required", requestID)
		return
	}

	user, err := h.Service.Register(r.Context(), auth.RegisterInput{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
		Role:     payload.Role,
	})
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrUserExists):
		api.Fail(w, http.StatusConflict, "user_exists", err.Error(), requestID)
		return
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidRole):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
		return
	default:
		logging.Error("auth", "register", err, nil)
		api.Fail(w, http.StatusInternalServerError, "user_create_failed", "failed to create user", requestID)
		return
	}

	h.Audit.Record(r.Context(), middleware.AuditEntry(r, "auth.user.create", audit.EntityUser, user.ID, nil, user))
	api.Created(w, user, requestID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	claims, _ := middleware.GetUser(r.Context())
	user, err := h.Service.Me(r.Context(), claims.UserID)
	if errors.Is(err, auth.ErrUserNotFound) {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if err != nil {
		logging.Error("auth", "me", err, nil)
		api.Fail(w, http.StatusInternalServerError, "user_lookup_failed", "failed to load user", requestID)
		return
	}
	api.Success(w, user, requestID)
}
