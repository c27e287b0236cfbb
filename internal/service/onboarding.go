package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shogunhq/shogun/internal/adapter/otel"
	"github.com/shogunhq/shogun/internal/domain"
	"github.com/shogunhq/shogun/internal/domain/onboarding"
	"github.com/shogunhq/shogun/internal/port/database"
	"github.com/shogunhq/shogun/internal/port/messagequeue"
)

// OnboardingService handles intake and lookup of onboarding applications.
type OnboardingService struct {
	store   database.Store
	queue   messagequeue.Queue
	metrics *otel.Metrics
}

// NewOnboardingService creates a new OnboardingService.
func NewOnboardingService(store database.Store) *OnboardingService {
	return &OnboardingService{store: store}
}

// SetQueue enables publishing of onboarding.created events.
func (s *OnboardingService) SetQueue(q messagequeue.Queue) { s.queue = q }

// SetMetrics enables metric recording.
func (s *OnboardingService) SetMetrics(m *otel.Metrics) { s.metrics = m }

// Create validates the request, checks that the initiator exists and stores
// a new DRAFT application. Nothing is persisted when validation fails.
func (s *OnboardingService) Create(ctx context.Context, req onboarding.CreateRequest) (*onboarding.Application, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.store.GetUser(ctx, req.InitiatedBy); err != nil {
		return nil, err
	}

	app := onboarding.New(uuid.NewString(), &req, utcNow())
	if bt := app.BusinessType(); !onboarding.KnownBusinessTypes[bt] {
		slog.WarnContext(ctx, "unknown business type", "business_type", string(bt))
	}
	if err := s.store.CreateApplication(ctx, app); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "onboarding application created",
		"application_id", app.ID, "initiated_by", app.InitiatedBy, "country", app.CountryCode)
	if s.metrics != nil {
		s.metrics.ApplicationsCreated.Add(ctx, 1)
	}

	s.publish(ctx, messagequeue.SubjectOnboardingCreated, messagequeue.OnboardingCreatedPayload{
		ApplicationID: app.ID,
		InitiatedBy:   app.InitiatedBy,
		BusinessName:  app.BusinessName,
		CountryCode:   app.CountryCode,
		CreatedAt:     app.CreatedAt,
	})
	return app, nil
}

// Get returns an application by ID.
func (s *OnboardingService) Get(ctx context.Context, id string) (*onboarding.Application, error) {
	return s.store.GetApplication(ctx, id)
}

// List returns applications, optionally filtered by status.
func (s *OnboardingService) List(ctx context.Context, status onboarding.Status) ([]onboarding.Application, error) {
	if status != "" && !onboarding.ValidStatuses[status] {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	return s.store.ListApplications(ctx, status)
}

func (s *OnboardingService) publish(ctx context.Context, subject string, payload any) {
	publishEvent(ctx, s.queue, subject, payload)
}

// publishEvent sends a best-effort event after the state change it describes
// has been committed. Failures are logged, never returned.
func publishEvent(ctx context.Context, q messagequeue.Queue, subject string, payload any) {
	if q == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "marshal event", "subject", subject, "error", err)
		return
	}
	if err := q.Publish(ctx, subject, data); err != nil {
		slog.WarnContext(ctx, "publish event", "subject", subject, "error", err)
	}
}
