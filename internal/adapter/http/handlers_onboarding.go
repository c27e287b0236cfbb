package http

import (
	"net/http"
	"time"

	"github.com/shogunhq/shogun/internal/domain/onboarding"
)

type createApplicationResponse struct {
	Message       string            `json:"message"`
	ApplicationID string            `json:"application_id"`
	BusinessName  string            `json:"business_name"`
	Status        onboarding.Status `json:"status"`
}

// CreateApplication handles POST /api/v1/onboarding/applications
func (h *Handlers) CreateApplication(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[onboarding.CreateRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}
	app, err := h.Onboarding.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "initiating user not found")
		return
	}
	writeJSON(w, http.StatusCreated, createApplicationResponse{
		Message:       "Onboarding application created successfully!",
		ApplicationID: app.ID,
		BusinessName:  app.BusinessName,
		Status:        app.Status,
	})
}

// GetApplication handles GET /api/v1/onboarding/applications/{id}
func (h *Handlers) GetApplication(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Onboarding.Get, "onboarding application not found")(w, r)
}

// ListApplications handles GET /api/v1/onboarding/applications?status=
func (h *Handlers) ListApplications(w http.ResponseWriter, r *http.Request) {
	status := onboarding.Status(r.URL.Query().Get("status"))
	apps, err := h.Onboarding.List(r.Context(), status)
	if err != nil {
		writeDomainError(w, err, "onboarding applications not found")
		return
	}
	if apps == nil {
		apps = []onboarding.Application{}
	}
	writeJSON(w, http.StatusOK, apps)
}

type transitionRequest struct {
	OnboardingID string `json:"onboarding_id"`
}

type verifyResponse struct {
	ApplicationID string            `json:"application_id"`
	Status        onboarding.Status `json:"status"`
	VerifiedAt    *time.Time        `json:"verified_at"`
}

// VerifyApplication handles POST /api/v1/onboarding/verify
func (h *Handlers) VerifyApplication(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[transitionRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}
	if !requireField(w, req.OnboardingID, "onboarding_id") {
		return
	}
	app, err := h.Promotion.Verify(r.Context(), req.OnboardingID)
	if err != nil {
		writeDomainError(w, err, "onboarding application not found")
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{
		ApplicationID: app.ID,
		Status:        app.Status,
		VerifiedAt:    app.VerifiedAt,
	})
}

type promoteResponse struct {
	TenantID     string `json:"tenant_id"`
	Schema       string `json:"schema"`
	Status       string `json:"status"`
	Domain       string `json:"domain"`
	MembershipID string `json:"membership_id"`
	LedgerID     string `json:"ledger_id"`
}

// PromoteApplication handles POST /api/v1/onboarding/promote
func (h *Handlers) PromoteApplication(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[transitionRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}
	if !requireField(w, req.OnboardingID, "onboarding_id") {
		return
	}
	res, err := h.Promotion.Promote(r.Context(), req.OnboardingID)
	if err != nil {
		writeDomainError(w, err, "onboarding application not found")
		return
	}
	writeJSON(w, http.StatusCreated, promoteResponse{
		TenantID:     res.Tenant.ID,
		Schema:       res.Tenant.SchemaName,
		Status:       string(res.Tenant.Status),
		Domain:       res.Domain.Domain,
		MembershipID: res.Membership.ID,
		LedgerID:     res.Accounting.Ledger.ID,
	})
}
