package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shogunhq/shogun/internal/adapter/otel"
	"github.com/shogunhq/shogun/internal/domain"
	"github.com/shogunhq/shogun/internal/domain/accounting"
	"github.com/shogunhq/shogun/internal/domain/membership"
	"github.com/shogunhq/shogun/internal/domain/onboarding"
	"github.com/shogunhq/shogun/internal/domain/tenant"
	"github.com/shogunhq/shogun/internal/port/database"
	"github.com/shogunhq/shogun/internal/port/messagequeue"
	"github.com/shogunhq/shogun/internal/throttle"
)

// ProvisioningResult is everything a successful promotion created.
type ProvisioningResult struct {
	Application *onboarding.Application `json:"application"`
	Tenant      *tenant.Tenant          `json:"tenant"`
	Domain      *tenant.Domain          `json:"domain"`
	Membership  *membership.Membership  `json:"membership"`
	Accounting  *accounting.Setup       `json:"accounting"`
}

// PromotionService moves applications through verification and promotes
// verified applications into fully provisioned tenants.
type PromotionService struct {
	store    database.Store
	registry *TenantRegistry
	members  *MembershipLedger
	books    *AccountingBootstrap
	queue    messagequeue.Queue
	metrics  *otel.Metrics
	slots    *throttle.Pool
	now      func() time.Time
}

// NewPromotionService creates a new PromotionService.
func NewPromotionService(store database.Store, registry *TenantRegistry, members *MembershipLedger, books *AccountingBootstrap) *PromotionService {
	return &PromotionService{
		store:    store,
		registry: registry,
		members:  members,
		books:    books,
		now:      utcNow,
	}
}

// SetQueue enables publishing of verification and provisioning events.
func (s *PromotionService) SetQueue(q messagequeue.Queue) { s.queue = q }

// SetMetrics enables metric recording.
func (s *PromotionService) SetMetrics(m *otel.Metrics) { s.metrics = m }

// SetPool bounds how many promotions provision at the same time.
func (s *PromotionService) SetPool(p *throttle.Pool) { s.slots = p }

// Verify moves a DRAFT application to VERIFIED. The application row is
// locked for the duration so concurrent verifications serialize.
func (s *PromotionService) Verify(ctx context.Context, id string) (_ *onboarding.Application, err error) {
	ctx, span := otel.StartVerifySpan(ctx, id)
	defer func() { otel.EndSpan(span, err) }()

	var app *onboarding.Application
	err = s.store.InTx(ctx, func(ctx context.Context, tx database.Tx) error {
		a, err := tx.LockApplication(ctx, id)
		if err != nil {
			return err
		}
		if err := a.Verify(s.now()); err != nil {
			return err
		}
		if err := tx.SaveApplicationState(ctx, a); err != nil {
			return err
		}
		app = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "onboarding application verified", "application_id", app.ID)
	if s.metrics != nil {
		s.metrics.Verifications.Add(ctx, 1)
	}
	publishEvent(ctx, s.queue, messagequeue.SubjectOnboardingVerified, messagequeue.OnboardingVerifiedPayload{
		ApplicationID: app.ID,
		VerifiedAt:    *app.VerifiedAt,
	})
	return app, nil
}

// Promote turns a VERIFIED application into an ACTIVE tenant with its
// schema, primary domain, owner membership and accounting baseline. All of
// it is written in one transaction: on any failure nothing is created and
// the application keeps its previous state.
func (s *PromotionService) Promote(ctx context.Context, id string) (_ *ProvisioningResult, err error) {
	ctx, span := otel.StartPromotionSpan(ctx, id)
	defer func() { otel.EndSpan(span, err) }()

	start := time.Now()
	var res *ProvisioningResult
	err = s.slots.Run(ctx, func() error {
		return s.store.InTx(ctx, func(ctx context.Context, tx database.Tx) error {
			r, err := s.provision(ctx, tx, id)
			if err != nil {
				return err
			}
			res = r
			return nil
		})
	})
	elapsed := time.Since(start).Seconds()
	if err != nil {
		s.metrics.RecordPromotion(ctx, elapsed, failureReason(err))
		slog.WarnContext(ctx, "promotion rolled back", "application_id", id, "error", err)
		return nil, err
	}
	s.metrics.RecordPromotion(ctx, elapsed, "")

	slog.InfoContext(ctx, "tenant provisioned",
		"application_id", id,
		"tenant_id", res.Tenant.ID,
		"schema", res.Tenant.SchemaName,
		"domain", res.Domain.Domain,
	)
	publishEvent(ctx, s.queue, messagequeue.SubjectTenantProvisioned, messagequeue.TenantProvisionedPayload{
		TenantID:      res.Tenant.ID,
		ApplicationID: id,
		SchemaName:    res.Tenant.SchemaName,
		Domain:        res.Domain.Domain,
		OwnerID:       res.Membership.UserID,
		MembershipID:  res.Membership.ID,
		LedgerID:      res.Accounting.Ledger.ID,
		ProvisionedAt: *res.Application.PromotedAt,
	})
	return res, nil
}

func (s *PromotionService) provision(ctx context.Context, tx database.Tx, id string) (*ProvisioningResult, error) {
	app, err := tx.LockApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := app.CanPromote(); err != nil {
		return nil, err
	}

	owner, err := tx.GetUser(ctx, app.InitiatedBy)
	if err != nil {
		return nil, err
	}

	now := s.now()

	stepCtx, step := otel.StartStepSpan(ctx, "registry", "")
	t, d, err := s.registry.Allocate(stepCtx, tx, app.BusinessName, app.CountryCode, now)
	otel.EndSpan(step, err)
	if err != nil {
		return nil, err
	}

	stepCtx, step = otel.StartStepSpan(ctx, "membership", t.SchemaName)
	m, err := s.members.GrantOwner(stepCtx, tx, owner.ID, t.ID, now)
	otel.EndSpan(step, err)
	if err != nil {
		return nil, err
	}

	stepCtx, step = otel.StartStepSpan(ctx, "accounting", t.SchemaName)
	books, err := s.books.Bootstrap(stepCtx, tx, t, owner, now)
	otel.EndSpan(step, err)
	if err != nil {
		return nil, err
	}

	app.ApplyPromote(now)
	if err := tx.SaveApplicationState(ctx, app); err != nil {
		return nil, err
	}

	return &ProvisioningResult{
		Application: app,
		Tenant:      t,
		Domain:      d,
		Membership:  m,
		Accounting:  books,
	}, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}
