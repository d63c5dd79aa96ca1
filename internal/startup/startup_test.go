package startup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
)

func TestLoadConfig(t *testing.T) {
	mediaDir := t.TempDir()
	dbDir := t.TempDir()

	t.Setenv("MEDIA_DIR", mediaDir)
	t.Setenv("DATABASE_DIR", dbDir)
	t.Setenv("PORT", "8123")
	t.Setenv("MEDIA_URL", "media/")
	t.Setenv("RENDER_WAIT", "5s")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != "8123" {
		t.Errorf("Port = %q, want %q", config.Port, "8123")
	}
	if config.MediaURL != "/media" {
		t.Errorf("MediaURL = %q, want %q (normalized)", config.MediaURL, "/media")
	}
	if config.DatabasePath != filepath.Join(dbDir, "multires.db") {
		t.Errorf("DatabasePath = %q", config.DatabasePath)
	}
	if config.RenderWait.Seconds() != 5 {
		t.Errorf("RenderWait = %v, want 5s", config.RenderWait)
	}

	// Source and derived trees must have been created
	for _, dir := range []string{config.SourceDir, config.DerivedDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s to exist: %v", dir, err)
		}
	}
}

func TestLoadConfigInvalidRenderWait(t *testing.T) {
	t.Setenv("MEDIA_DIR", t.TempDir())
	t.Setenv("DATABASE_DIR", t.TempDir())
	t.Setenv("RENDER_WAIT", "not-a-duration")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.RenderWait.Seconds() != 30 {
		t.Errorf("RenderWait = %v, want default 30s", config.RenderWait)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("STARTUP_TEST_STR", "value")
	if got := getEnv("STARTUP_TEST_STR", "fallback"); got != "value" {
		t.Errorf("getEnv = %q, want %q", got, "value")
	}
	if got := getEnv("STARTUP_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("getEnv = %q, want %q", got, "fallback")
	}

	tests := []struct {
		value    string
		fallback bool
		want     bool
	}{
		{"true", false, true},
		{"false", true, false},
		{"1", false, true},
		{"0", true, false},
		{"garbage", true, true},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Run("bool_"+tt.value, func(t *testing.T) {
			t.Setenv("STARTUP_TEST_BOOL", tt.value)
			if got := getEnvBool("STARTUP_TEST_BOOL", tt.fallback); got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.value, tt.fallback, got, tt.want)
			}
		})
	}
}

func TestGetRoutes(t *testing.T) {
	router := mux.NewRouter()
	router.NewRoute().Path("/health").Methods("GET")
	router.NewRoute().Path("/api/recipes").Methods("GET", "POST")

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes failed: %v", err)
	}
	if len(routes) != 3 {
		t.Fatalf("got %d routes, want 3: %+v", len(routes), routes)
	}
	// Sorted by path then method
	if routes[0].Path != "/api/recipes" || routes[0].Method != "GET" {
		t.Errorf("unexpected first route: %+v", routes[0])
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	if info.Version == "" {
		t.Error("Version should not be empty")
	}
	if info.GoVersion == "" {
		t.Error("GoVersion should not be empty")
	}
}
