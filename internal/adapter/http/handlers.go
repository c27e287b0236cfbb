package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shogunhq/shogun/internal/service"
)

const defaultBodyLimit = 1 << 20 // 1 MB

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Identity   *service.IdentityService
	Onboarding *service.OnboardingService
	Promotion  *service.PromotionService
	Tenants    *service.TenantService

	// HealthChecks are run by /health, keyed by dependency name.
	HealthChecks map[string]HealthCheck
	// BodyLimit caps JSON request bodies; zero means defaultBodyLimit.
	BodyLimit int64
}

func (h *Handlers) bodyLimit() int64 {
	if h.BodyLimit > 0 {
		return h.BodyLimit
	}
	return defaultBodyLimit
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health handles GET /health. Any failing check turns the response into a 503.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(h.HealthChecks))}
	status := http.StatusOK
	for name, check := range h.HealthChecks {
		if err := check(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, status, resp)
}
