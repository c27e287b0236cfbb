package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shogunhq/shogun/internal/adapter/memory"
	"github.com/shogunhq/shogun/internal/domain"
	"github.com/shogunhq/shogun/internal/domain/accounting"
	"github.com/shogunhq/shogun/internal/domain/tenant"
	"github.com/shogunhq/shogun/internal/port/database"
)

func TestNewAccountingBootstrap_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts accounting.Options
	}{
		{name: "unknown method", opts: accounting.Options{Method: "barter", FYStartMonth: 1}},
		{name: "month zero", opts: accounting.Options{Method: accounting.MethodAccrual, FYStartMonth: 0}},
		{name: "month thirteen", opts: accounting.Options{Method: accounting.MethodCash, FYStartMonth: 13}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAccountingBootstrap(tt.opts); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegistryAndBootstrap_InOneTx(t *testing.T) {
	store := memory.NewStore()
	env := newTestEnv(t, store)
	ctx := context.Background()
	owner := env.seedUser(t, "owner@example.com")
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	books, err := NewAccountingBootstrap(accounting.Options{Method: accounting.MethodCash, FYStartMonth: 7})
	if err != nil {
		t.Fatalf("NewAccountingBootstrap: %v", err)
	}
	registry := NewTenantRegistry("shogun.test", "USD")

	var (
		tn    *tenant.Tenant
		d     *tenant.Domain
		setup *accounting.Setup
	)
	err = store.InTx(ctx, func(ctx context.Context, tx database.Tx) error {
		var err error
		tn, d, err = registry.Allocate(ctx, tx, "Lagos Bakery", "NG", now)
		if err != nil {
			return err
		}
		setup, err = books.Bootstrap(ctx, tx, tn, owner, now)
		return err
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}

	if tn.BaseCurrency != "USD" {
		t.Errorf("base currency = %q, want USD", tn.BaseCurrency)
	}
	if d.Domain != "lagos-bakery.shogun.test" {
		t.Errorf("domain = %q", d.Domain)
	}
	if setup.Entity.Method != accounting.MethodCash || setup.Entity.FYStartMonth != 7 {
		t.Errorf("entity options = %q/%d", setup.Entity.Method, setup.Entity.FYStartMonth)
	}
	if setup.Chart.Name != accounting.DefaultChartName("Lagos Bakery") {
		t.Errorf("chart name = %q", setup.Chart.Name)
	}
	for _, a := range setup.Accounts {
		if a.ChartID != setup.Chart.ID || a.ID == "" {
			t.Errorf("account %s not attached to chart", a.Code)
		}
	}

	stored, err := store.GetAccountingSetup(ctx, tn.SchemaName)
	if err != nil {
		t.Fatalf("GetAccountingSetup: %v", err)
	}
	if len(stored.Accounts) != len(setup.Accounts) {
		t.Errorf("stored accounts = %d, want %d", len(stored.Accounts), len(setup.Accounts))
	}
}

func TestTenantRegistry_RejectsBadName(t *testing.T) {
	store := memory.NewStore()
	err := store.InTx(context.Background(), func(ctx context.Context, tx database.Tx) error {
		_, _, err := NewTenantRegistry("localhost", "").Allocate(ctx, tx, "pg_catalog", "NG", time.Now())
		return err
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}
