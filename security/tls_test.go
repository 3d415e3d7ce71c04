package security

import (
	"crypto/tls"
	"testing"

	"github.com/kbukum/transcriptfeed/security/tlstest"
)

func TestTLSConfig_Build_Disabled(t *testing.T) {
	for _, cfg := range []*TLSConfig{nil, {}} {
		result, err := cfg.Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != nil {
			t.Fatal("expected nil tls.Config when nothing is configured")
		}
	}
}

func TestTLSConfig_Build_SkipVerify(t *testing.T) {
	result, err := (&TLSConfig{SkipVerify: true, ServerName: "graph.local"}).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.InsecureSkipVerify {
		t.Error("expected InsecureSkipVerify=true")
	}
	if result.MinVersion != tls.VersionTLS12 {
		t.Errorf("expected MinVersion=TLS12, got %d", result.MinVersion)
	}
	if result.ServerName != "graph.local" {
		t.Errorf("expected ServerName=graph.local, got %s", result.ServerName)
	}
}

func TestTLSConfig_Build_Files(t *testing.T) {
	certs := tlstest.Generate(t)
	result, err := (&TLSConfig{
		CAFile:     certs.CAFile,
		CertFile:   certs.CertFile,
		KeyFile:    certs.KeyFile,
		MinVersion: tls.VersionTLS13,
	}).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RootCAs == nil {
		t.Error("expected RootCAs to be set")
	}
	if len(result.Certificates) != 1 {
		t.Errorf("expected 1 client certificate, got %d", len(result.Certificates))
	}
	if result.MinVersion != tls.VersionTLS13 {
		t.Errorf("expected MinVersion=TLS13, got %d", result.MinVersion)
	}
}

func TestTLSConfig_Build_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *TLSConfig
	}{
		{"missing CA", &TLSConfig{CAFile: "/nonexistent/ca.pem"}},
		{"invalid CA", &TLSConfig{CAFile: tlstest.WriteInvalidPEM(t, "bad-ca.pem")}},
		{"missing key pair", &TLSConfig{CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.Build(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestTLSConfig_Validate(t *testing.T) {
	if err := (*TLSConfig)(nil).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (&TLSConfig{CertFile: "cert.pem", KeyFile: "key.pem"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (&TLSConfig{CertFile: "cert.pem"}).Validate(); err == nil {
		t.Fatal("expected error when CertFile set without KeyFile")
	}
}
