package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Identity directory
		r.Get("/users", h.ListUsers)
		r.Post("/users", h.CreateUser)
		r.Get("/users/{id}", h.GetUser)

		// Onboarding
		r.Get("/onboarding/applications", h.ListApplications)
		r.Post("/onboarding/applications", h.CreateApplication)
		r.Get("/onboarding/applications/{id}", h.GetApplication)
		r.Post("/onboarding/verify", h.VerifyApplication)
		r.Post("/onboarding/promote", h.PromoteApplication)

		// Tenants
		r.Get("/tenants", h.ListTenants)
		r.Get("/tenants/{id}", h.GetTenant)
		r.Get("/tenants/{id}/accounting", h.GetTenantAccounting)
		r.Get("/tenants/{id}/domains", h.ListTenantDomains)
		r.Get("/tenants/{id}/memberships", h.ListTenantMemberships)
	})
}
