package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shogunhq/shogun/internal/adapter/memory"
	"github.com/shogunhq/shogun/internal/port/messagequeue"
	"github.com/shogunhq/shogun/internal/service"
)

type countingCache struct {
	deleted []string
}

func (c *countingCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (c *countingCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}
func (c *countingCache) Delete(_ context.Context, key string) error {
	c.deleted = append(c.deleted, key)
	return nil
}

func TestTenantProvisionedHandler(t *testing.T) {
	c := &countingCache{}
	tenants := service.NewTenantService(memory.NewStore())
	tenants.SetCache(c, time.Minute)

	data, err := json.Marshal(messagequeue.TenantProvisionedPayload{TenantID: "t-1", SchemaName: "acme"})
	if err != nil {
		t.Fatal(err)
	}
	if err := tenantProvisionedHandler(tenants)(context.Background(), messagequeue.SubjectTenantProvisioned, data); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(c.deleted) != 1 || c.deleted[0] != "tenant:t-1" {
		t.Errorf("deleted = %v", c.deleted)
	}

	if err := tenantProvisionedHandler(tenants)(context.Background(), messagequeue.SubjectTenantProvisioned, []byte("{")); err == nil {
		t.Error("expected decode error")
	}
}

func TestRunAdminUnknownCommand(t *testing.T) {
	if err := runAdmin([]string{"explode"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
	if err := runAdmin(nil); err != nil {
		t.Fatalf("help: %v", err)
	}
}
