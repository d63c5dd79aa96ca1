package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			panic(err)
		}
	})
}

func TestResponseWriterCapture(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	rw.WriteHeader(http.StatusNotFound)
	if _, err := rw.Write([]byte("missing")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("statusCode = %d, want 404", rw.statusCode)
	}
	if rw.bytesWritten != int64(len("missing")) {
		t.Errorf("bytesWritten = %d, want %d", rw.bytesWritten, len("missing"))
	}

	// A second WriteHeader must not override the first
	rw.WriteHeader(http.StatusOK)
	if rw.statusCode != http.StatusNotFound {
		t.Errorf("statusCode after second WriteHeader = %d, want 404", rw.statusCode)
	}
}

func TestLoggerPassesThrough(t *testing.T) {
	handler := Logger(DefaultLoggingConfig())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/multires/app/thumbnail/multires/sources/app/cat.jpg", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want ok", rec.Body.String())
	}
}

func TestShouldSkip(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		config LoggingConfig
		want   bool
	}{
		{
			name:   "normal request",
			path:   "/api/recipes",
			config: DefaultLoggingConfig(),
			want:   false,
		},
		{
			name:   "derived image skipped by default",
			path:   "/media/multires/images/abc-1.jpeg",
			config: DefaultLoggingConfig(),
			want:   true,
		},
		{
			name:   "derived image logged when enabled",
			path:   "/media/multires/images/abc-1.jpeg",
			config: LoggingConfig{LogDerivedFiles: true, LogHealthChecks: true},
			want:   false,
		},
		{
			name:   "health check logged by default",
			path:   "/healthz",
			config: DefaultLoggingConfig(),
			want:   false,
		},
		{
			name:   "health check skipped when disabled",
			path:   "/healthz",
			config: LoggingConfig{LogHealthChecks: false},
			want:   true,
		},
		{
			name:   "configured skip path",
			path:   "/internal/debug",
			config: LoggingConfig{SkipPaths: []string{"/internal"}, LogHealthChecks: true},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldSkip(tt.path, tt.config); got != tt.want {
				t.Errorf("shouldSkip(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"line\nbreak", "line break"},
		{"carriage\rreturn", "carriage return"},
		{"null\x00byte", "nullbyte"},
		{"ansi\x1b[31mred", "ansi[31mred"},
		{"tab\tkept", "tab\tkept"},
	}
	for _, tt := range tests {
		if got := sanitizeLogField(tt.in); got != tt.want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:   "remote addr only",
			remote: "10.0.0.5:51234",
			want:   "10.0.0.5",
		},
		{
			name:    "x-forwarded-for single",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.7"},
			remote:  "10.0.0.5:51234",
			want:    "203.0.113.7",
		},
		{
			name:    "x-forwarded-for chain",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"},
			remote:  "10.0.0.5:51234",
			want:    "203.0.113.7",
		},
		{
			name:    "x-real-ip",
			headers: map[string]string{"X-Real-IP": "198.51.100.9"},
			remote:  "10.0.0.5:51234",
			want:    "198.51.100.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/recipes", "/api/recipes"},
		{"/multires/app/thumbnail/multires/sources/app/cat.jpg", "/multires/app/thumbnail/{path}"},
		{"/media/multires/images/abc-1.jpeg", "/media/multires/images/{path}"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.in); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMetricsMiddleware(t *testing.T) {
	handler := Metrics(DefaultMetricsConfig())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/recipes", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	// Skipped paths still serve normally
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("skipped path status = %d, want 200", rec.Code)
	}
}
