package http

import "net/http"

// GetTenant handles GET /api/v1/tenants/{id}
func (h *Handlers) GetTenant(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Tenants.Get, "tenant not found")(w, r)
}

// ListTenants handles GET /api/v1/tenants
func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	handleList(h.Tenants.List)(w, r)
}

// GetTenantAccounting handles GET /api/v1/tenants/{id}/accounting
func (h *Handlers) GetTenantAccounting(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Tenants.Accounting, "tenant not found")(w, r)
}

// ListTenantDomains handles GET /api/v1/tenants/{id}/domains
func (h *Handlers) ListTenantDomains(w http.ResponseWriter, r *http.Request) {
	handleListByParam("id", h.Tenants.Domains, "tenant not found")(w, r)
}

// ListTenantMemberships handles GET /api/v1/tenants/{id}/memberships
func (h *Handlers) ListTenantMemberships(w http.ResponseWriter, r *http.Request) {
	handleListByParam("id", h.Tenants.Memberships, "tenant not found")(w, r)
}

// CreateUser handles POST /api/v1/users
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit(), h.Identity.Create)(w, r)
}

// GetUser handles GET /api/v1/users/{id}
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Identity.Get, "user not found")(w, r)
}

// ListUsers handles GET /api/v1/users
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	handleList(h.Identity.List)(w, r)
}
