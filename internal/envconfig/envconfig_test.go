package envconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type sample struct {
	Addr    string        `env:"ENVCONFIG_TEST_ADDR" env-default:":8080" env-description:"listen address"`
	Timeout time.Duration `env:"ENVCONFIG_TEST_TIMEOUT" env-default:"5s"`
	Seed    string        `env:"ENVCONFIG_TEST_SEED" env-required:"true"`
}

func TestLoadFromDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ENVCONFIG_TEST_SEED=abcd\nENVCONFIG_TEST_TIMEOUT=2s\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("ENVCONFIG_TEST_SEED")
		os.Unsetenv("ENVCONFIG_TEST_TIMEOUT")
	})

	var cfg sample
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Seed != "abcd" || cfg.Timeout != 2*time.Second || cfg.Addr != ":8080" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestEnvironmentWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ENVCONFIG_TEST_SEED=fromfile\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENVCONFIG_TEST_SEED", "fromenv")

	var cfg sample
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Seed != "fromenv" {
		t.Fatalf("seed = %q", cfg.Seed)
	}
}

func TestLoadErrors(t *testing.T) {
	var cfg sample
	if err := Load(filepath.Join(t.TempDir(), "missing.env"), &cfg); err == nil {
		t.Fatal("expected missing file error")
	}
	if err := Load("", &cfg); err == nil {
		t.Fatal("expected required variable error")
	}
}

func TestUsageListsVariables(t *testing.T) {
	if !strings.Contains(Usage(&sample{}), "ENVCONFIG_TEST_ADDR") {
		t.Fatal("usage should list variables")
	}
}
