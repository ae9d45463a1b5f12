package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATAGRID_CONFIG", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Grid.Records != 1000 || cfg.Grid.PageSize != 20 || cfg.Grid.PageDelay != 800*time.Millisecond {
		t.Fatalf("unexpected grid defaults: %+v", cfg.Grid)
	}
	if cfg.Store.Driver != "memory" || cfg.Store.Key != "gridComments" {
		t.Fatalf("unexpected store defaults: %+v", cfg.Store)
	}
	if cfg.Payroll.MockDelay != time.Second || cfg.Payroll.Path != "/v1/api/updatesalary" {
		t.Fatalf("unexpected payroll defaults: %+v", cfg.Payroll)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datagrid.yaml")
	doc := []byte(`
grid:
  records: 250
  pageSize: 25
  pageDelay: 50ms
store:
  driver: sqlite
  sqlite:
    path: /tmp/grid.db
payroll:
  baseURL: http://payroll:8080
logging:
  level: debug
`)
	if err := os.WriteFile(path, doc, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DATAGRID_PAGE_SIZE", "10")
	t.Setenv("DATAGRID_VALKEY_TLS", "true")
	t.Setenv("DATAGRID_LOG_FORMAT", "json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Grid.Records != 250 || cfg.Grid.PageDelay != 50*time.Millisecond {
		t.Fatalf("file values not applied: %+v", cfg.Grid)
	}
	if cfg.Grid.PageSize != 10 {
		t.Fatalf("env override not applied, page size %d", cfg.Grid.PageSize)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.SQLite.Path != "/tmp/grid.db" {
		t.Fatalf("store not parsed: %+v", cfg.Store)
	}
	if !cfg.Store.Valkey.TLS || !cfg.Logging.JSON || cfg.Logging.Level != "debug" {
		t.Fatalf("overrides not applied: %+v %+v", cfg.Store.Valkey, cfg.Logging)
	}
	if cfg.Payroll.Workers != 2 {
		t.Fatalf("defaults should survive partial files, workers=%d", cfg.Payroll.Workers)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadRejectsBadPageSize(t *testing.T) {
	t.Setenv("DATAGRID_CONFIG", "")
	t.Setenv("DATAGRID_PAGE_SIZE", "0")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected validation error")
	}
}
