package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	env := map[string]string{
		"WARUNG_FIRESTORE_PROJECT_ID": "warung-dev",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Firestore.ProjectID != "warung-dev" {
		t.Errorf("unexpected firestore project: %s", cfg.Firestore.ProjectID)
	}
	if cfg.Shop.Timezone != defaultTimezone {
		t.Errorf("expected default timezone %s, got %s", defaultTimezone, cfg.Shop.Timezone)
	}
	if cfg.Shop.OrderNumberPrefix != defaultOrderNumberPrefix {
		t.Errorf("expected default order number prefix, got %s", cfg.Shop.OrderNumberPrefix)
	}
	if cfg.Paging.DefaultPageSize != defaultPageSize {
		t.Errorf("unexpected default page size: %d", cfg.Paging.DefaultPageSize)
	}
	if cfg.Paging.MaxPageSize != defaultMaxPageSize {
		t.Errorf("unexpected max page size: %d", cfg.Paging.MaxPageSize)
	}
	if !cfg.Features.EnableReminders {
		t.Error("expected reminders enabled by default")
	}
	if !cfg.Features.EnableAutoReply {
		t.Error("expected auto reply enabled by default")
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"WARUNG_SERVER_PORT":             "9090",
		"WARUNG_SERVER_READ_TIMEOUT":     "20s",
		"WARUNG_SERVER_WRITE_TIMEOUT":    "25s",
		"WARUNG_SERVER_IDLE_TIMEOUT":     "2m",
		"WARUNG_FIRESTORE_PROJECT_ID":    "warung-prod",
		"WARUNG_FIRESTORE_EMULATOR_HOST": "localhost:8200",
		"WARUNG_SHOP_TIMEZONE":           "Asia/Makassar",
		"WARUNG_ORDER_NUMBER_PREFIX":     "WRG",
		"WARUNG_PAGING_DEFAULT":          "50",
		"WARUNG_PAGING_MAX":              "200",
		"WARUNG_FEATURE_REMINDERS":       "false",
		"WARUNG_FEATURE_AUTOREPLY":       "off",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("unexpected port: %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 20*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.IdleTimeout != 2*time.Minute {
		t.Errorf("unexpected idle timeout: %s", cfg.Server.IdleTimeout)
	}
	if cfg.Firestore.EmulatorHost != "localhost:8200" {
		t.Errorf("unexpected emulator host: %s", cfg.Firestore.EmulatorHost)
	}
	if cfg.Shop.Timezone != "Asia/Makassar" {
		t.Errorf("unexpected timezone: %s", cfg.Shop.Timezone)
	}
	if cfg.Shop.OrderNumberPrefix != "WRG" {
		t.Errorf("unexpected prefix: %s", cfg.Shop.OrderNumberPrefix)
	}
	if cfg.Paging.DefaultPageSize != 50 || cfg.Paging.MaxPageSize != 200 {
		t.Errorf("unexpected paging config: %+v", cfg.Paging)
	}
	if cfg.Features.EnableReminders {
		t.Error("expected reminders disabled")
	}
	if cfg.Features.EnableAutoReply {
		t.Error("expected auto reply disabled")
	}
}

func TestLoadValidation(t *testing.T) {
	env := map[string]string{
		"WARUNG_SHOP_TIMEZONE": "Not/AZone",
		"WARUNG_PAGING_MAX":    "5",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error")
	}

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	fields := validation.Fields()
	want := map[string]bool{
		"Firestore.ProjectID": false,
		"Shop.Timezone":       false,
		"Paging.MaxPageSize":  false,
	}
	for _, field := range fields {
		if _, ok := want[field]; ok {
			want[field] = true
		}
	}
	for field, seen := range want {
		if !seen {
			t.Errorf("expected %s in validation fields, got %v", field, fields)
		}
	}
}

func TestLoadReadsDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# local overrides\nexport WARUNG_FIRESTORE_PROJECT_ID=warung-local\nWARUNG_SERVER_PORT=\"7070\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load(context.Background(), WithoutSystemEnv(), WithEnvFile(path))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Firestore.ProjectID != "warung-local" {
		t.Errorf("unexpected project id: %s", cfg.Firestore.ProjectID)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("unexpected port: %s", cfg.Server.Port)
	}
}

func TestLoadEnvMapPrecedesDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("WARUNG_FIRESTORE_PROJECT_ID=from-file\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load(context.Background(),
		WithEnvMap(map[string]string{"WARUNG_FIRESTORE_PROJECT_ID": "from-map"}),
		WithoutSystemEnv(),
		WithEnvFile(path),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Firestore.ProjectID != "from-map" {
		t.Errorf("expected env map to win, got %s", cfg.Firestore.ProjectID)
	}
}
