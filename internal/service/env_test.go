package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shogunhq/shogun/internal/adapter/memory"
	"github.com/shogunhq/shogun/internal/domain/accounting"
	"github.com/shogunhq/shogun/internal/domain/onboarding"
	"github.com/shogunhq/shogun/internal/domain/user"
	"github.com/shogunhq/shogun/internal/port/database"
	"github.com/shogunhq/shogun/internal/port/messagequeue"
)

// capturingQueue records published messages.
type capturingQueue struct {
	mu        sync.Mutex
	published []publishedMsg
	err       error
}

type publishedMsg struct {
	subject string
	data    []byte
}

var _ messagequeue.Queue = (*capturingQueue)(nil)

func (q *capturingQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.published = append(q.published, publishedMsg{subject: subject, data: data})
	return nil
}

func (q *capturingQueue) Subscribe(_ context.Context, _ string, _ messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (q *capturingQueue) Drain() error      { return nil }
func (q *capturingQueue) Close() error      { return nil }
func (q *capturingQueue) IsConnected() bool { return true }

func (q *capturingQueue) subjects() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, len(q.published))
	for _, m := range q.published {
		out = append(out, m.subject)
	}
	return out
}

// faultyStore wraps a Store so that one accounting step fails inside every
// transaction.
type faultyStore struct {
	database.Store
	failLedger bool
	failSchema bool
}

var errInjected = errors.New("injected failure")

func (s *faultyStore) InTx(ctx context.Context, fn func(ctx context.Context, tx database.Tx) error) error {
	return s.Store.InTx(ctx, func(ctx context.Context, tx database.Tx) error {
		return fn(ctx, &faultyTx{Tx: tx, store: s})
	})
}

type faultyTx struct {
	database.Tx
	store *faultyStore
}

func (t *faultyTx) CreateLedger(ctx context.Context, schema string, l *accounting.Ledger) error {
	if t.store.failLedger {
		return errInjected
	}
	return t.Tx.CreateLedger(ctx, schema, l)
}

func (t *faultyTx) CreateSchema(ctx context.Context, schema string) error {
	if t.store.failSchema {
		return errInjected
	}
	return t.Tx.CreateSchema(ctx, schema)
}

type testEnv struct {
	store      database.Store
	identity   *IdentityService
	onboarding *OnboardingService
	promotion  *PromotionService
	tenants    *TenantService
	queue      *capturingQueue
}

func newTestEnv(t *testing.T, store database.Store) *testEnv {
	t.Helper()
	if store == nil {
		store = memory.NewStore()
	}
	books, err := NewAccountingBootstrap(accounting.DefaultOptions())
	if err != nil {
		t.Fatalf("NewAccountingBootstrap: %v", err)
	}
	q := &capturingQueue{}

	onb := NewOnboardingService(store)
	onb.SetQueue(q)
	promo := NewPromotionService(store, NewTenantRegistry("localhost", ""), NewMembershipLedger(), books)
	promo.SetQueue(q)

	return &testEnv{
		store:      store,
		identity:   NewIdentityService(store),
		onboarding: onb,
		promotion:  promo,
		tenants:    NewTenantService(store),
		queue:      q,
	}
}

func (e *testEnv) seedUser(t *testing.T, email string) *user.User {
	t.Helper()
	u, err := e.identity.Create(context.Background(), user.CreateRequest{
		Email:     email,
		FirstName: "Ada",
		LastName:  "Obi",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func validRequest(userID, businessName string) onboarding.CreateRequest {
	return onboarding.CreateRequest{
		InitiatedBy:  userID,
		CountryCode:  "NG",
		BusinessName: businessName,
		BusinessProfile: map[string]any{
			"business_type": "LLC",
			"industry":      "Retail",
		},
		Identifiers: map[string]any{"tin": "12345678-0001"},
	}
}

func (e *testEnv) createApplication(t *testing.T, userID, businessName string) *onboarding.Application {
	t.Helper()
	app, err := e.onboarding.Create(context.Background(), validRequest(userID, businessName))
	if err != nil {
		t.Fatalf("create application: %v", err)
	}
	return app
}

func (e *testEnv) verifiedApplication(t *testing.T, userID, businessName string) *onboarding.Application {
	t.Helper()
	app := e.createApplication(t, userID, businessName)
	if _, err := e.promotion.Verify(context.Background(), app.ID); err != nil {
		t.Fatalf("verify: %v", err)
	}
	return app
}

// assertNothingProvisioned fails when any tenant-side record exists.
func assertNothingProvisioned(t *testing.T, store database.Store) {
	t.Helper()
	ctx := context.Background()
	tenants, err := store.ListTenants(ctx)
	if err != nil {
		t.Fatalf("ListTenants: %v", err)
	}
	if len(tenants) != 0 {
		t.Fatalf("expected no tenants, got %d", len(tenants))
	}
}
