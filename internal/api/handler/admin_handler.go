package handler

import (
	"encoding/json"
	"net/http"

	"quizgen/internal/api/middleware"
	"quizgen/internal/app/service"
	"quizgen/internal/common"
	"quizgen/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	authService  *service.AuthService
	adminService *service.AdminService
}

func NewAdminHandler(authService *service.AuthService, adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{authService: authService, adminService: adminService}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	// Public admin auth endpoints
	r.Post("/register", h.register) // POST /admin/register
	r.Post("/login", h.login)       // POST /admin/login

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.Authenticator(h.authService))

		protected.Group(func(mod chi.Router) {
			mod.Use(middleware.ModOrAdminOnly)
			mod.Get("/verify-token", h.verifyToken) // GET /admin/verify-token
		})

		protected.Group(func(admin chi.Router) {
			admin.Use(middleware.AdminOnly)
			admin.Post("/approve", h.approve)          // POST /admin/approve
			admin.Get("/pending", h.listPending)       // GET /admin/pending
			admin.Get("/users", h.listUsers)           // GET /admin/users
			admin.Post("/users/status", h.setStatus)   // POST /admin/users/status
		})
	})
}

func (h *AdminHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.AdminRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	user, err := h.authService.RegisterPrivileged(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, user)
}

func (h *AdminHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	resp, err := h.authService.AdminLogin(r.Context(), req, service.ClientInfo{IP: r.RemoteAddr, UserAgent: r.UserAgent()})
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) verifyToken(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	type VerifyTokenResponse struct {
		Valid bool        `json:"valid"`
		User  *model.User `json:"user"`
	}
	common.RespondWithJSON(w, http.StatusOK, VerifyTokenResponse{Valid: true, User: user})
}

func (h *AdminHandler) approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	user, err := h.adminService.Approve(r.Context(), actor, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) listPending(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	users, err := h.adminService.ListPending(r.Context(), actor)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	users, err := h.adminService.ListUsers(r.Context(), actor)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	user, err := h.adminService.SetStatusByEmail(r.Context(), actor, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}
