package handler

import (
	"encoding/json"
	"net/http"

	"quizgen/internal/api/middleware"
	"quizgen/internal/app/service"
	"quizgen/internal/common"

	"github.com/go-chi/chi/v5"
)

type ReportHandler struct {
	authService   *service.AuthService
	reportService *service.ReportService
}

func NewReportHandler(authService *service.AuthService, reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{authService: authService, reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator(h.authService)) // All report routes require auth

	r.Post("/", h.createReport) // POST /reports

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.AdminOnly)
		admin.Get("/", h.listReports)        // GET /reports
		admin.Post("/status", h.setStatus)   // POST /reports/status
	})
}

func (h *ReportHandler) createReport(w http.ResponseWriter, r *http.Request) {
	reporter, ok := middleware.CurrentUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	report, err := h.reportService.Create(r.Context(), reporter, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, report)
}

func (h *ReportHandler) listReports(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	reports, err := h.reportService.List(r.Context(), actor)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, reports)
}

func (h *ReportHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.ResolveReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	report, err := h.reportService.Resolve(r.Context(), actor, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, report)
}
