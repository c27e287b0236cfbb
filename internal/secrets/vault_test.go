package secrets_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shogunhq/shogun/internal/secrets"
)

func TestNewVault_LoaderError(t *testing.T) {
	_, err := secrets.NewVault(func() (map[string]string, error) {
		return nil, errors.New("connection refused")
	})
	if err == nil {
		t.Fatal("expected error from failing loader")
	}
}

func TestVault_Reload(t *testing.T) {
	key := "old"
	fail := false
	v, err := secrets.NewVault(func() (map[string]string, error) {
		if fail {
			return nil, errors.New("unavailable")
		}
		return map[string]string{"SHOGUN_API_KEY": key}, nil
	})
	if err != nil {
		t.Fatalf("NewVault: %v", err)
	}
	if got := v.Get("SHOGUN_API_KEY"); got != "old" {
		t.Fatalf("Get() = %q, want old", got)
	}

	key = "new"
	if err := v.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := v.Get("SHOGUN_API_KEY"); got != "new" {
		t.Fatalf("Get() after reload = %q, want new", got)
	}

	fail = true
	if err := v.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if got := v.Get("SHOGUN_API_KEY"); got != "new" {
		t.Errorf("failed reload replaced values: Get() = %q", got)
	}
}

func TestVault_ConcurrentAccess(t *testing.T) {
	v, _ := secrets.NewVault(func() (map[string]string, error) {
		return map[string]string{"K": "V"}, nil
	})

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = v.Get("K")
		}()
		go func() {
			defer wg.Done()
			_ = v.Reload()
		}()
	}
	wg.Wait()
}

func TestVault_Redacted(t *testing.T) {
	v, _ := secrets.NewVault(func() (map[string]string, error) {
		return map[string]string{
			"SHOGUN_API_KEY": "sk-abcdef123456",
			"SHORT":          "ab",
		}, nil
	})

	tests := []struct {
		key  string
		want string
	}{
		{"SHOGUN_API_KEY", "sk****"},
		{"SHORT", "****"},
		{"MISSING", ""},
	}
	for _, tt := range tests {
		if got := v.Redacted(tt.key); got != tt.want {
			t.Errorf("Redacted(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestEnvLoader(t *testing.T) {
	t.Setenv("SHOGUN_TEST_SECRET", "mysecret")

	vals, err := secrets.EnvLoader("SHOGUN_TEST_SECRET", "SHOGUN_MISSING_SECRET")()
	if err != nil {
		t.Fatalf("EnvLoader: %v", err)
	}
	if vals["SHOGUN_TEST_SECRET"] != "mysecret" {
		t.Fatalf("got %q, want mysecret", vals["SHOGUN_TEST_SECRET"])
	}
	if _, ok := vals["SHOGUN_MISSING_SECRET"]; ok {
		t.Fatal("expected missing env var to be omitted")
	}
}

func TestEnvLoader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api_key")
	if err := os.WriteFile(path, []byte("from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SHOGUN_FILE_SECRET_FILE", path)

	vals, err := secrets.EnvLoader("SHOGUN_FILE_SECRET")()
	if err != nil {
		t.Fatalf("EnvLoader: %v", err)
	}
	if vals["SHOGUN_FILE_SECRET"] != "from-file" {
		t.Errorf("got %q, want from-file", vals["SHOGUN_FILE_SECRET"])
	}

	t.Setenv("SHOGUN_FILE_SECRET_FILE", filepath.Join(t.TempDir(), "missing"))
	if _, err := secrets.EnvLoader("SHOGUN_FILE_SECRET")(); err == nil {
		t.Error("expected error for unreadable secret file")
	}
}
