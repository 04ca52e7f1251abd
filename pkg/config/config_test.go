package config

import "testing"

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("AGENT_MAX_LEVEL", "not-a-number")
	t.Setenv("EXPIRY_NOTIFY_ENABLED", "FALSE")
	t.Setenv("EXPIRY_NOTIFY_THRESHOLD", "0.95")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example.com , ,https://b.example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "9090" || cfg.Database.MaxOpenConns != 7 {
		t.Fatalf("server/db = %+v %+v", cfg.Server, cfg.Database)
	}
	if cfg.Hierarchy.MaxLevel != 5 {
		t.Fatalf("invalid int should fall back to default, got %d", cfg.Hierarchy.MaxLevel)
	}
	if cfg.Notifier.Enabled || cfg.Notifier.Threshold != 0.95 || cfg.Notifier.Spec != "0 9 * * *" {
		t.Fatalf("notifier = %+v", cfg.Notifier)
	}
	origins := cfg.CORS.AllowOrigins
	if len(origins) != 2 || origins[0] != "https://a.example.com" || origins[1] != "https://b.example.com" {
		t.Fatalf("origins = %q", origins)
	}
}
