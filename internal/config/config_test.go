package config

import (
	"strings"
	"testing"
	"time"

	"tito-edge/internal/apperr"
)

func mapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestLoadTito_AllPresent(t *testing.T) {
	cfg, err := LoadTito(mapLookup(map[string]string{
		EnvToken:       "tok",
		EnvAccountSlug: "repair-cafe",
		EnvTokenCheck:  "true",
	}))
	if err != nil {
		t.Fatalf("LoadTito err=%v", err)
	}
	if cfg.Token != "tok" || cfg.AccountSlug != "repair-cafe" || !cfg.TokenCheckEnabled {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTito_TokenCheckOnlyLiteralTrue(t *testing.T) {
	for _, v := range []string{"", "false", "TRUE", "1", "yes"} {
		cfg, err := LoadTito(mapLookup(map[string]string{
			EnvToken:       "tok",
			EnvAccountSlug: "slug",
			EnvTokenCheck:  v,
		}))
		if err != nil {
			t.Fatalf("%q: err=%v", v, err)
		}
		if cfg.TokenCheckEnabled {
			t.Fatalf("%q: token check should be disabled", v)
		}
	}
}

func TestLoadTito_Missing(t *testing.T) {
	_, err := LoadTito(mapLookup(map[string]string{
		EnvToken:       "",
		EnvAccountSlug: "slug",
	}))
	if err == nil {
		t.Fatalf("expected error")
	}
	if apperr.KindOf(err) != apperr.ConfigurationMissing {
		t.Fatalf("kind=%v", apperr.KindOf(err))
	}
	if !strings.Contains(err.Error(), EnvToken) || !strings.Contains(err.Error(), EnvTokenCheck) {
		t.Fatalf("missing keys not reported: %v", err)
	}
	if strings.Contains(err.Error(), EnvAccountSlug) {
		t.Fatalf("present key reported as missing: %v", err)
	}
}

func TestLoadRuntime_Defaults(t *testing.T) {
	cfg, err := LoadRuntime(mapLookup(nil))
	if err != nil {
		t.Fatalf("LoadRuntime err=%v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.ServiceName != "tito-edge" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.UpstreamBaseURL != DefaultUpstreamBase {
		t.Fatalf("base=%q", cfg.UpstreamBaseURL)
	}
	if cfg.AccessLogEnabled() {
		t.Fatalf("access log should be disabled by default")
	}
	if len(cfg.AllowedOrigins) != 0 {
		t.Fatalf("origins=%v", cfg.AllowedOrigins)
	}
}

func TestLoadRuntime_Overrides(t *testing.T) {
	cfg, err := LoadRuntime(mapLookup(map[string]string{
		"TITO_API_BASE":             "http://127.0.0.1:9999/v3/",
		"UPSTREAM_TIMEOUT":          "3s",
		"CORS_ALLOWED_ORIGINS":      " https://a.example , ,https://b.example",
		"ACCESS_LOG_BUCKET":         "logs",
		"AWS_REGION":                "eu-west-2",
		"ACCESS_LOG_FLUSH_INTERVAL": "1m",
		"LOG_PRETTY":                "true",
	}))
	if err != nil {
		t.Fatalf("LoadRuntime err=%v", err)
	}
	if cfg.UpstreamBaseURL != "http://127.0.0.1:9999/v3" {
		t.Fatalf("base=%q", cfg.UpstreamBaseURL)
	}
	if cfg.UpstreamTimeout != 3*time.Second || cfg.FlushInterval != time.Minute {
		t.Fatalf("durations: %v %v", cfg.UpstreamTimeout, cfg.FlushInterval)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins=%v", cfg.AllowedOrigins)
	}
	if !cfg.AccessLogEnabled() || !cfg.LogPretty {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadRuntime_InvalidValues(t *testing.T) {
	_, err := LoadRuntime(mapLookup(map[string]string{
		"UPSTREAM_TIMEOUT":  "soon",
		"S3_APP_RETRIES":    "x",
		"ACCESS_LOG_BUCKET": "logs",
	}))
	if err == nil {
		t.Fatalf("expected error")
	}
	msg := err.Error()
	for _, want := range []string{"UPSTREAM_TIMEOUT", "S3_APP_RETRIES", "AWS_REGION"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error %q missing %q", msg, want)
		}
	}
}
