package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_PORT", "")
	t.Setenv("MAX_WORKERS", "")
	t.Setenv("VISION_MODEL", "")
	t.Setenv("RETRY_MAX_ATTEMPTS", "")
	t.Setenv("NATS_URL", "")

	cfg := Load()
	if cfg.APIPort != "8080" {
		t.Fatalf("expected default api port 8080, got %q", cfg.APIPort)
	}
	if cfg.MaxWorkers != 5 {
		t.Fatalf("expected default 5 workers, got %d", cfg.MaxWorkers)
	}
	if cfg.VisionModel != "gpt-4o" {
		t.Fatalf("expected default vision model gpt-4o, got %q", cfg.VisionModel)
	}
	if cfg.RetryMaxAttempts != 3 {
		t.Fatalf("expected default 3 retry attempts, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.NATSURL != "" {
		t.Fatalf("expected notifications disabled by default, got %q", cfg.NATSURL)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("MAX_WORKERS", "12")
	t.Setenv("USE_GCS", "true")
	t.Setenv("GCS_BUCKET", "cctv-frames")
	t.Setenv("VISION_RATE_LIMIT_RPS", "2.5")

	cfg := Load()
	if cfg.MaxWorkers != 12 {
		t.Fatalf("expected 12 workers, got %d", cfg.MaxWorkers)
	}
	if !cfg.UseGCS || cfg.GCSBucket != "cctv-frames" {
		t.Fatalf("expected gcs override, got %+v", cfg)
	}
	if cfg.VisionRateLimit != 2.5 {
		t.Fatalf("expected rate limit 2.5, got %v", cfg.VisionRateLimit)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("MAX_WORKERS", "many")
	cfg := Load()
	if cfg.MaxWorkers != 5 {
		t.Fatalf("expected fallback to 5 workers, got %d", cfg.MaxWorkers)
	}
}
