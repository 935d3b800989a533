package config

import (
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"RECIPEBOOK_PORT", "DATABASE_URL", "RECIPEBOOK_UPLOAD_DIR", "RECIPEBOOK_MAX_IMAGE_DIM", "RECIPEBOOK_CORS_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8000" {
		t.Errorf("port = %q, want %q", cfg.Port, "8000")
	}
	if cfg.DBPath != "data/recipes.db" {
		t.Errorf("db path = %q, want %q", cfg.DBPath, "data/recipes.db")
	}
	if cfg.UploadDir != "uploads" {
		t.Errorf("upload dir = %q, want %q", cfg.UploadDir, "uploads")
	}
	if cfg.MaxImageDim != 1920 || cfg.ImageQuality != 85 {
		t.Errorf("image settings = %d/%d, want 1920/85", cfg.MaxImageDim, cfg.ImageQuality)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"*"}) {
		t.Errorf("cors origins = %v, want [*]", cfg.CORSOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RECIPEBOOK_PORT", "9090")
	t.Setenv("DATABASE_URL", "sqlite:///var/lib/recipes.db")
	t.Setenv("RECIPEBOOK_MAX_IMAGE_DIM", "not-a-number")
	t.Setenv("RECIPEBOOK_CORS_ORIGINS", "http://a.test, http://b.test,")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.DBPath != "var/lib/recipes.db" {
		t.Errorf("db path = %q, want %q", cfg.DBPath, "var/lib/recipes.db")
	}
	if cfg.MaxImageDim != 1920 {
		t.Errorf("max image dim = %d, want fallback 1920", cfg.MaxImageDim)
	}
	want := []string{"http://a.test", "http://b.test"}
	if !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Errorf("cors origins = %v, want %v", cfg.CORSOrigins, want)
	}
}

func TestDBPathFromURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"recipes.db", "recipes.db"},
		{"sqlite://recipes.db", "recipes.db"},
		{"sqlite:///data/recipes.db", "data/recipes.db"},
		{":memory:", ":memory:"},
	}
	for _, tt := range tests {
		if got := dbPathFromURL(tt.in); got != tt.want {
			t.Errorf("dbPathFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
