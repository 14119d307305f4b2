package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-crosspost/internal/publisher"
	"github.com/goliatone/go-crosspost/internal/runtimeconfig"
)

func validConfig() runtimeconfig.Config {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Source.Owner = "acme"
	cfg.Source.Repo = "blog"
	cfg.Blog.BaseURL = "https://blog.example.com"
	cfg.Platforms = []runtimeconfig.PlatformConfig{
		{
			Name:    "dev",
			Enabled: true,
			BaseURL: "https://dev.to/api/articles",
			Auth:    runtimeconfig.AuthConfig{Location: "header", Key: "api-key", SecretKey: "dev"},
		},
		{
			Name:    "medium",
			Enabled: true,
			BaseURL: "https://api.medium.com/v1/users/u/posts",
			Auth:    runtimeconfig.AuthConfig{Location: "query", Key: "accessToken", SecretKey: "medium"},
		},
	}
	return cfg
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestValidateRequiresSourceRepository(t *testing.T) {
	cfg := validConfig()
	cfg.Source.Owner = ""
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrSourceRepositoryRequired) {
		t.Fatalf("expected ErrSourceRepositoryRequired, got %v", err)
	}
}

func TestValidateRequiresBlogBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Blog.BaseURL = " "
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrBlogBaseURLRequired) {
		t.Fatalf("expected ErrBlogBaseURLRequired, got %v", err)
	}
}

func TestValidateRequiresEnabledPlatform(t *testing.T) {
	cfg := validConfig()
	for i := range cfg.Platforms {
		cfg.Platforms[i].Enabled = false
	}
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrNoPlatformsEnabled) {
		t.Fatalf("expected ErrNoPlatformsEnabled, got %v", err)
	}
}

func TestValidateCanonicalMustBeEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Canonical = "hashnode"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrCanonicalPlatformUnknown) {
		t.Fatalf("expected ErrCanonicalPlatformUnknown, got %v", err)
	}

	cfg.Canonical = "dev"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected dev canonical to validate, got %v", err)
	}
}

func TestValidatePlatformAuth(t *testing.T) {
	cfg := validConfig()
	cfg.Platforms[0].Auth.SecretKey = ""
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrPlatformSecretKeyRequired) {
		t.Fatalf("expected ErrPlatformSecretKeyRequired, got %v", err)
	}

	cfg = validConfig()
	cfg.Platforms[0].Auth.Location = "cookie"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrAuthLocationInvalid) {
		t.Fatalf("expected ErrAuthLocationInvalid, got %v", err)
	}
}

func TestValidateStorageDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Driver = "dynamo"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrStorageDriverUnknown) {
		t.Fatalf("expected ErrStorageDriverUnknown, got %v", err)
	}
}

func TestValidateNotificationRecipient(t *testing.T) {
	cfg := validConfig()
	cfg.Notifications.Enabled = true
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrNotificationRecipientRequired) {
		t.Fatalf("expected ErrNotificationRecipientRequired, got %v", err)
	}
}

func TestValidateCapabilitiesSchema(t *testing.T) {
	cfg := validConfig()
	cfg.Platforms[0].Capabilities = map[string]any{
		"max_tags":           4,
		"supports_canonical": true,
		"markdown_flavor":    "liquid",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid capabilities, got %v", err)
	}

	cfg.Platforms[0].Capabilities = map[string]any{"max_tags": "four"}
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrCapabilitiesInvalid) {
		t.Fatalf("expected ErrCapabilitiesInvalid, got %v", err)
	}

	cfg.Platforms[0].Capabilities = map[string]any{"unknown_flag": true}
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrCapabilitiesInvalid) {
		t.Fatalf("expected unknown keys rejected, got %v", err)
	}
}

func TestPlatformMaxTagsCapability(t *testing.T) {
	platform := runtimeconfig.PlatformConfig{
		Capabilities: map[string]any{"max_tags": 4},
	}
	if got := platform.MaxTags(); got != 4 {
		t.Fatalf("expected max_tags 4, got %d", got)
	}

	platform.Capabilities = map[string]any{"max_tags": float64(3)}
	if got := platform.MaxTags(); got != 3 {
		t.Fatalf("expected max_tags 3 from float, got %d", got)
	}

	platform.Capabilities = nil
	if got := platform.MaxTags(); got != 0 {
		t.Fatalf("expected zero without capabilities, got %d", got)
	}
}

func TestAuthConfigDescriptorDefaultsToHeader(t *testing.T) {
	descriptor := runtimeconfig.AuthConfig{Key: "api-key", SecretKey: "dev"}.Descriptor()
	if descriptor.Location != publisher.AuthHeader {
		t.Fatalf("expected header default, got %q", descriptor.Location)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	payload := `
source:
  owner: acme
  repo: blog
  tolerance: 15m
blog:
  base_url: https://blog.example.com
platforms:
  - name: dev
    enabled: true
    base_url: https://dev.to/api/articles
    auth:
      location: header
      key: api-key
      secret_key: dev
`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := runtimeconfig.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Source.Tolerance.Std() != 15*time.Minute {
		t.Fatalf("expected tolerance override, got %v", cfg.Source.Tolerance)
	}
	if cfg.Source.CommitPrefix != "[blog]" {
		t.Fatalf("expected default commit prefix preserved, got %q", cfg.Source.CommitPrefix)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Fatalf("expected default storage driver, got %q", cfg.Storage.Driver)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("loaded config should validate: %v", err)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("sauce:\n  owner: acme\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := runtimeconfig.Load(path); err == nil {
		t.Fatal("expected unknown field error")
	}
}
