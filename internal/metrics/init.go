package metrics

// InitializeMetrics pre-populates the expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, op := range []string{"initialize_schema", "create_recipe", "get_recipe",
		"list_recipes", "update_recipe", "delete_recipe", "get_or_create_variant",
		"get_variant", "claim_variant", "finish_variant", "release_variant",
		"variant_stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, ft := range []string{"jpeg", "png"} {
		RenderDuration.WithLabelValues(ft)
		RendersTotal.WithLabelValues(ft, "success")
		RendersTotal.WithLabelValues(ft, "error_source")
		RendersTotal.WithLabelValues(ft, "error_process")
		RendersTotal.WithLabelValues(ft, "error_storage")
	}

	AuthAttemptsTotal.WithLabelValues("success")
	AuthAttemptsTotal.WithLabelValues("failure")
}
