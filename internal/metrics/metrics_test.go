package metrics

import "testing"

// TestInitializeMetrics verifies that pre-populating label combinations
// does not panic and can be called repeatedly.
func TestInitializeMetrics(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("InitializeMetrics panicked: %v", r)
		}
	}()

	InitializeMetrics()
	InitializeMetrics()
}

func TestMetricRecording(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"http counter", func() { HTTPRequestsTotal.WithLabelValues("GET", "/multires", "200").Inc() }},
		{"http duration", func() { HTTPRequestDuration.WithLabelValues("GET", "/multires").Observe(0.01) }},
		{"in flight", func() { HTTPRequestsInFlight.Inc(); HTTPRequestsInFlight.Dec() }},
		{"db counter", func() { DBQueryTotal.WithLabelValues("get_recipe", "success").Inc() }},
		{"render duration", func() { RenderDuration.WithLabelValues("jpeg").Observe(0.5) }},
		{"render waits", func() { RenderWaits.Inc() }},
		{"app info", func() { AppInfo.WithLabelValues("dev", "unknown", "go1.25").Set(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("recording panicked: %v", r)
				}
			}()
			tt.fn()
		})
	}
}
