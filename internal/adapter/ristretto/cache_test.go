package ristretto

import (
	"context"
	"testing"
	"time"
)

func TestNew_RejectsNonPositiveSize(t *testing.T) {
	for _, mb := range []int64{0, -1} {
		if _, err := New(mb); err == nil {
			t.Errorf("New(%d) = nil error, want error", mb)
		}
	}
}

func TestCache_SetVisibleImmediately(t *testing.T) {
	c, err := New(1)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "tenant:abc", []byte(`{"id":"abc"}`), time.Minute); err != nil {
		t.Fatal(err)
	}
	val, found, err := c.Get(ctx, "tenant:abc")
	if err != nil {
		t.Fatal(err)
	}
	if !found || string(val) != `{"id":"abc"}` {
		t.Fatalf("Get = %q, %v", val, found)
	}
}
