package postgres_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shogunhq/shogun/internal/adapter/postgres"
	"github.com/shogunhq/shogun/internal/domain"
	"github.com/shogunhq/shogun/internal/domain/accounting"
	"github.com/shogunhq/shogun/internal/domain/onboarding"
	"github.com/shogunhq/shogun/internal/domain/tenant"
	"github.com/shogunhq/shogun/internal/port/database"
	"github.com/shogunhq/shogun/internal/service"
)

var errLedgerDown = errors.New("ledger insert failed")

// ledgerFailStore makes CreateLedger fail inside every transaction, after
// the schema and the rest of the accounting baseline were written.
type ledgerFailStore struct {
	database.Store
}

func (s ledgerFailStore) InTx(ctx context.Context, fn func(ctx context.Context, tx database.Tx) error) error {
	return s.Store.InTx(ctx, func(ctx context.Context, tx database.Tx) error {
		return fn(ctx, ledgerFailTx{tx})
	})
}

type ledgerFailTx struct {
	database.Tx
}

func (ledgerFailTx) CreateLedger(context.Context, string, *accounting.Ledger) error {
	return errLedgerDown
}

func newPromotionService(t *testing.T, store database.Store) *service.PromotionService {
	t.Helper()
	books, err := service.NewAccountingBootstrap(accounting.DefaultOptions())
	if err != nil {
		t.Fatalf("NewAccountingBootstrap: %v", err)
	}
	return service.NewPromotionService(store, service.NewTenantRegistry("test.local", ""), service.NewMembershipLedger(), books)
}

func verifiedTestApplication(t *testing.T, store *postgres.Store, promo *service.PromotionService, name string) *onboarding.Application {
	t.Helper()
	u := createTestUser(t, store)
	app := createTestApplication(t, store, u.ID, name)
	if _, err := promo.Verify(context.Background(), app.ID); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	return app
}

func tenantsWithSchema(t *testing.T, store *postgres.Store, schema string) []tenant.Tenant {
	t.Helper()
	all, err := store.ListTenants(context.Background())
	if err != nil {
		t.Fatalf("ListTenants: %v", err)
	}
	var out []tenant.Tenant
	for _, tn := range all {
		if tn.SchemaName == schema {
			out = append(out, tn)
		}
	}
	return out
}

func schemaExists(t *testing.T, pool *pgxpool.Pool, schema string) bool {
	t.Helper()
	var ok bool
	err := pool.QueryRow(context.Background(),
		`SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`, schema).Scan(&ok)
	if err != nil {
		t.Fatalf("query schemata: %v", err)
	}
	return ok
}

func TestPromotion_ConcurrentPromoteOnPostgres(t *testing.T) {
	store, pool := setupStoreWithPool(t)
	ctx := context.Background()
	promo := newPromotionService(t, store)

	name := "Race " + uuid.NewString()[:8]
	schema := strings.ToLower(name)
	app := verifiedTestApplication(t, store, promo, name)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = promo.Promote(ctx, app.ID)
		}()
	}
	close(start)
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInvalidState):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || rejected != n-1 {
		t.Fatalf("successes = %d, invalid state = %d, want 1 and %d", ok, rejected, n-1)
	}

	tenants := tenantsWithSchema(t, store, schema)
	if len(tenants) != 1 {
		t.Fatalf("tenants for %q = %d, want 1", schema, len(tenants))
	}
	members, err := store.ListMemberships(ctx, tenants[0].ID)
	if err != nil {
		t.Fatalf("ListMemberships: %v", err)
	}
	if len(members) != 1 {
		t.Errorf("memberships = %d, want 1", len(members))
	}

	var ledgers int
	q := `SELECT count(*) FROM ` + pgx.Identifier{schema, "ledgers"}.Sanitize()
	if err := pool.QueryRow(ctx, q).Scan(&ledgers); err != nil {
		t.Fatalf("count ledgers: %v", err)
	}
	if ledgers != 1 {
		t.Errorf("ledgers = %d, want 1", ledgers)
	}

	stored, err := store.GetApplication(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetApplication: %v", err)
	}
	if stored.Status != onboarding.StatusPromoted || stored.PromotedAt == nil {
		t.Errorf("application = %s promoted_at=%v, want PROMOTED", stored.Status, stored.PromotedAt)
	}
}

func TestPromotion_LedgerFailureLeavesNoSchema(t *testing.T) {
	store, pool := setupStoreWithPool(t)
	ctx := context.Background()

	name := "Broken " + uuid.NewString()[:8]
	schema := strings.ToLower(name)
	app := verifiedTestApplication(t, store, newPromotionService(t, store), name)

	_, err := newPromotionService(t, ledgerFailStore{store}).Promote(ctx, app.ID)
	if !errors.Is(err, errLedgerDown) {
		t.Fatalf("Promote error = %v, want injected ledger failure", err)
	}

	if schemaExists(t, pool, schema) {
		t.Errorf("schema %q survived the rollback", schema)
	}
	if got := tenantsWithSchema(t, store, schema); len(got) != 0 {
		t.Errorf("tenants for %q = %d, want 0", schema, len(got))
	}
	stored, err := store.GetApplication(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetApplication: %v", err)
	}
	if stored.Status != onboarding.StatusVerified || stored.PromotedAt != nil {
		t.Errorf("application = %s promoted_at=%v, want VERIFIED", stored.Status, stored.PromotedAt)
	}

	// The same application promotes cleanly once the fault is gone.
	res, err := newPromotionService(t, store).Promote(ctx, app.ID)
	if err != nil {
		t.Fatalf("retry Promote: %v", err)
	}
	if res.Tenant.SchemaName != schema || !schemaExists(t, pool, schema) {
		t.Errorf("retry did not provision %q", schema)
	}
}
