package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kbukum/transcriptfeed/component"
	"github.com/kbukum/transcriptfeed/config"
	"github.com/kbukum/transcriptfeed/logger"
	"github.com/kbukum/transcriptfeed/logstore"
	"github.com/kbukum/transcriptfeed/token"
)

func staticConfig() *Config {
	cfg := &Config{
		Auth:         AuthConfig{StaticToken: "dev-token"},
		Certificates: CertificatesConfig{DecryptionFile: "webhook.pfx"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestConfig_Defaults(t *testing.T) {
	cfg := staticConfig()
	if cfg.Name != ServiceName {
		t.Errorf("name = %q", cfg.Name)
	}
	if cfg.Streaming.BufferCapacity != 100 || cfg.Logs.Capacity != logstore.DefaultCapacity {
		t.Errorf("unexpected defaults %+v %+v", cfg.Streaming, cfg.Logs)
	}
	if cfg.Certificates.DecryptionPath() != "certs/webhook.pfx" {
		t.Errorf("decryption path = %q", cfg.Certificates.DecryptionPath())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("static config invalid: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"no credentials", func(c *Config) { c.Auth.StaticToken = "" }, "client_id or static_token"},
		{"client id without tenant", func(c *Config) { c.Auth.ClientID = "app" }, "tenant_id"},
		{"client id without thumbprint", func(c *Config) {
			c.Auth.ClientID = "app"
			c.Auth.TenantID = "tenant"
		}, "thumbprint"},
		{"no decryption file", func(c *Config) { c.Certificates.DecryptionFile = "" }, "decryption_file"},
		{"bad graph endpoint", func(c *Config) { c.Graph.Endpoint = "graph.local" }, "endpoint"},
		{"bad environment", func(c *Config) { c.Environment = "qa" }, "environment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := staticConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCertificatesConfig_AbsolutePath(t *testing.T) {
	c := CertificatesConfig{StoreDir: "certs", DecryptionFile: "/etc/feed/webhook.pem"}
	if got := c.DecryptionPath(); got != "/etc/feed/webhook.pem" {
		t.Errorf("path = %q", got)
	}
}

func TestBuild_WiresRoutesAndComponents(t *testing.T) {
	cfg := staticConfig()
	logs := logstore.New(10)
	checker := func(context.Context) []component.Health {
		return []component.Health{{Name: "subscriptions", Status: component.StatusHealthy}}
	}

	svc, err := Build(cfg, logger.NewNop(), logs, checker)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := svc.Tokens.(token.Static); !ok {
		t.Errorf("expected static token provider, got %T", svc.Tokens)
	}

	var names []string
	for _, c := range svc.Components() {
		names = append(names, c.Name())
	}
	if got := strings.Join(names, ","); got != "telemetry,graph,subscriptions,notifications,http-server" {
		t.Errorf("components = %s", got)
	}

	for _, tc := range []struct {
		method, path string
		want         int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/api/subscriptions", http.StatusOK},
		{"GET", "/api/event-subscriptions", http.StatusOK},
		{"GET", "/api/subscriptions/unknown", http.StatusNotFound},
		{"POST", "/api/notification/meetingEvents?validationToken=t", http.StatusOK},
		{"GET", "/api/logs", http.StatusOK},
	} {
		rr := httptest.NewRecorder()
		svc.Server.Handler().ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, http.NoBody))
		if rr.Code != tc.want {
			t.Errorf("%s %s = %d, want %d", tc.method, tc.path, rr.Code, tc.want)
		}
	}
}

func TestBuild_ClientCredentials(t *testing.T) {
	cfg := &Config{
		ServiceConfig: config.ServiceConfig{Name: "feed"},
		Auth: AuthConfig{
			Config:         token.Config{TenantID: "tenant", ClientID: "app"},
			DelegatedToken: "user-token",
		},
		Certificates: CertificatesConfig{Thumbprint: "ABCD", DecryptionFile: "webhook.pfx"},
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	svc, err := Build(cfg, logger.NewNop(), logstore.New(10), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	router, ok := svc.Tokens.(*token.Router)
	if !ok {
		t.Fatalf("expected router, got %T", svc.Tokens)
	}
	if router.Delegated == nil {
		t.Error("expected delegated provider")
	}
	tok, err := svc.Tokens.GetBearerToken(context.Background(), false)
	if err != nil || tok != "user-token" {
		t.Errorf("delegated token = %q, %v", tok, err)
	}
}
