package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sample = `
tfa:
  optional: false
  totp:
    issuer: gotfa
    step: 30
  session:
    ttl_minutes: 15
  limiter:
    window_seconds: 300
instrument:
  log_mask_fields: "password, code,,key"
cors:
  origins:
    - http://localhost:3000
    - http://localhost:5173
mfa:
  secret: "AQID"
messaging:
  topics: "tfa_successful:tfa.successful,tfa_disabled:tfa.disabled"
`

func TestViperFromBytes(t *testing.T) {
	// Arrange
	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer cfg.Close()

	// Assert
	if !cfg.IsSet("tfa.optional") || cfg.GetBool("tfa.optional") {
		t.Fatal("expected tfa.optional to be set to false")
	}
	if cfg.IsSet("tfa.totp.sync") {
		t.Fatal("expected tfa.totp.sync to be unset")
	}
	if cfg.GetString("tfa.totp.issuer") != "gotfa" || cfg.GetInt64("tfa.totp.step") != 30 {
		t.Fatal("unexpected totp settings")
	}
	if cfg.GetMinute("tfa.session.ttl_minutes") != 15*time.Minute {
		t.Fatalf("ttl = %s", cfg.GetMinute("tfa.session.ttl_minutes"))
	}
	if cfg.GetSecond("tfa.limiter.window_seconds") != 5*time.Minute {
		t.Fatalf("window = %s", cfg.GetSecond("tfa.limiter.window_seconds"))
	}

	fields := cfg.GetArray("instrument.log_mask_fields")
	if len(fields) != 3 || fields[1] != "code" {
		t.Fatalf("fields = %v", fields)
	}

	origins := cfg.GetArray("cors.origins")
	if len(origins) != 2 || origins[1] != "http://localhost:5173" {
		t.Fatalf("origins = %v", origins)
	}

	if got := cfg.GetBinary("mfa.secret"); len(got) != 3 || got[2] != 3 {
		t.Fatalf("binary = %v", got)
	}

	topics := cfg.GetMap("messaging.topics")
	if topics["tfa_disabled"] != "tfa.disabled" {
		t.Fatalf("topics = %v", topics)
	}
}

func TestViperEnvOverride(t *testing.T) {
	t.Setenv("GOTFA_TFA_TOTP_ISSUER", "from-env")

	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := cfg.GetString("tfa.totp.issuer"); got != "from-env" {
		t.Fatalf("issuer = %s", got)
	}
}

func TestViperFromBytesRequiresType(t *testing.T) {
	if _, err := NewViperFromBytes(" ", []byte(sample)); err == nil {
		t.Fatal("expected error for empty config type")
	}
}

func TestNewViperFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(file, []byte(sample), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := NewViper(file)

	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GetString("tfa.totp.issuer") != "gotfa" {
		t.Fatalf("issuer = %s", cfg.GetString("tfa.totp.issuer"))
	}
	if _, err := NewViper(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for a missing file")
	}
}
