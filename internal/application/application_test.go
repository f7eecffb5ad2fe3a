package application

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/move-estimator/internal/config"
	"github.com/eugenenazirov/move-estimator/internal/distance"
	"github.com/eugenenazirov/move-estimator/internal/store"
)

func TestNewInitializesDependencies(t *testing.T) {
	cfg := baseTestConfig(":8085")
	cfg.Distances = []distance.Route{{Origin: "Seoul", Destination: "Incheon", Km: 40}}

	app, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(app.Close)

	if app.server == nil || app.router == nil || app.handler == nil {
		t.Fatalf("expected server, router, and handler to be initialized")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
	if app.Engine() == nil {
		t.Fatalf("expected estimator to be initialized")
	}
	if got := app.Policies().Current().Version; got != "2026.10-default" {
		t.Fatalf("expected bundled policy, got %s", got)
	}
	if _, ok := app.estimates.(*store.Memory); !ok {
		t.Fatalf("expected in-memory estimates without a database path, got %T", app.estimates)
	}
}

func TestNewOpensSQLiteStore(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.DBPath = filepath.Join(t.TempDir(), "estimates.db")

	app, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(app.Close)

	if app.db == nil {
		t.Fatalf("expected sqlite store to be opened")
	}
	if _, err := os.Stat(cfg.DBPath); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
}

func TestNewReturnsErrorForInvalidPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("bogus: true\n"), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	cfg := baseTestConfig(":0")
	cfg.PolicyFile = path

	if _, err := New(context.Background(), cfg, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for invalid policy file")
	}
}

func TestNewReturnsErrorForInvalidDistances(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.Distances = []distance.Route{{Origin: "Seoul", Km: 10}}

	if _, err := New(context.Background(), cfg, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for incomplete route")
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig("9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestLoadPolicyFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("version: custom\n"), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	snap, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy returned error: %v", err)
	}
	if snap.Version != "custom" {
		t.Fatalf("expected custom version, got %s", snap.Version)
	}

	if _, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing policy file")
	}
}

func TestAppServesEstimates(t *testing.T) {
	app, err := New(context.Background(), baseTestConfig(":0"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(app.Close)

	body := `{"area": 5, "move_type": "GENERAL", "items": [{"furniture_id": "desk"}], "origin": {"floor": 1}, "distance_km": 12}`
	req := httptest.NewRequest(http.MethodPost, "/api/estimates", strings.NewReader(body))
	rec := httptest.NewRecorder()
	app.Server().Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d (body=%s)", rec.Code, rec.Body.String())
	}
}

func baseTestConfig(port string) config.Config {
	return config.Config{
		Port:                 port,
		LogLevel:             "info",
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		RateLimitRPS:         0,
		RateLimitBurst:       0,
	}
}
