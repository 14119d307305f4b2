package runtimeconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-crosspost/internal/domain"
	"github.com/goliatone/go-crosspost/internal/publisher"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ErrSourceRepositoryRequired indicates a missing source owner or repository.
var ErrSourceRepositoryRequired = errors.New("crosspost config: source owner and repository are required")

// ErrContentPathRequired indicates a missing content path filter.
var ErrContentPathRequired = errors.New("crosspost config: source content path is required")
var ErrBlogBaseURLRequired = errors.New("crosspost config: blog base url is required")
var ErrNoPlatformsEnabled = errors.New("crosspost config: at least one platform must be enabled")
var ErrCanonicalPlatformUnknown = errors.New("crosspost config: canonical platform is not an enabled platform")
var ErrPlatformNameRequired = errors.New("crosspost config: platform name is required")
var ErrPlatformBaseURLRequired = errors.New("crosspost config: platform base url is required")
var ErrPlatformSecretKeyRequired = errors.New("crosspost config: platform secret key is required")
var ErrAuthKeyRequired = errors.New("crosspost config: platform auth key is required")
var ErrAuthLocationInvalid = errors.New("crosspost config: platform auth location is invalid")
var ErrStorageDriverUnknown = errors.New("crosspost config: storage driver is invalid")
var ErrNotificationRecipientRequired = errors.New("crosspost config: notification recipient is required when notifications are enabled")
var ErrLoggingProviderRequired = errors.New("crosspost config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("crosspost config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("crosspost config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("crosspost config: logging format is invalid")
var ErrCapabilitiesInvalid = errors.New("crosspost config: platform capabilities document is invalid")

// Duration wraps time.Duration so YAML configs can use "10m" style values.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML accepts either a duration string or integer nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err == nil {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("crosspost config: invalid duration %q: %w", raw, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var nanos int64
	if err := value.Decode(&nanos); err != nil {
		return fmt.Errorf("crosspost config: invalid duration value")
	}
	*d = Duration(nanos)
	return nil
}

// Config aggregates the runtime bindings for the cross-posting service.
// Fields intentionally use simple types so host applications can extend them later.
type Config struct {
	Source        SourceConfig       `yaml:"source"`
	Blog          BlogConfig         `yaml:"blog"`
	Platforms     []PlatformConfig   `yaml:"platforms"`
	Canonical     string             `yaml:"canonical"`
	Workflow      WorkflowConfig     `yaml:"workflow"`
	Notifications NotificationConfig `yaml:"notifications"`
	Storage       StorageConfig      `yaml:"storage"`
	Secrets       SecretsConfig      `yaml:"secrets"`
	Webhook       WebhookConfig      `yaml:"webhook"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// SourceConfig describes the repository watched for new content.
type SourceConfig struct {
	Owner           string   `yaml:"owner"`
	Repo            string   `yaml:"repo"`
	Branch          string   `yaml:"branch"`
	ContentPath     string   `yaml:"content_path"`
	CommitPrefix    string   `yaml:"commit_prefix"`
	Tolerance       Duration `yaml:"tolerance"`
	PollInterval    Duration `yaml:"poll_interval"`
	Token           string   `yaml:"token"`
	SendStatusEmail bool     `yaml:"send_status_email"`
}

// BlogConfig describes the source blog the content canonically lives on.
type BlogConfig struct {
	BaseURL string `yaml:"base_url"`
}

// PlatformConfig binds one destination platform: its request template, auth
// expectations, and an optional capabilities document.
type PlatformConfig struct {
	Name           string            `yaml:"name"`
	Enabled        bool              `yaml:"enabled"`
	BaseURL        string            `yaml:"base_url"`
	Method         string            `yaml:"method"`
	Headers        map[string]string `yaml:"headers"`
	Query          map[string]string `yaml:"query"`
	Auth           AuthConfig        `yaml:"auth"`
	OrganizationID string            `yaml:"organization_id"`
	PublicationID  string            `yaml:"publication_id"`
	Capabilities   map[string]any    `yaml:"capabilities"`
}

// MaxTags reads the max_tags capability. Zero means the platform declared no
// tag limit. YAML and JSON decoding disagree on the numeric type, so both are
// accepted.
func (p PlatformConfig) MaxTags() int {
	switch value := p.Capabilities["max_tags"].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	default:
		return 0
	}
}

// AuthConfig mirrors the publisher's credential descriptor.
type AuthConfig struct {
	Location  string `yaml:"location"`
	Key       string `yaml:"key"`
	Prefix    string `yaml:"prefix"`
	SecretKey string `yaml:"secret_key"`
}

// Descriptor converts the config shape into the publisher's.
func (a AuthConfig) Descriptor() publisher.AuthDescriptor {
	location := publisher.AuthLocation(strings.ToLower(strings.TrimSpace(a.Location)))
	if location == "" {
		location = publisher.AuthHeader
	}
	return publisher.AuthDescriptor{
		Location:  location,
		Key:       a.Key,
		Prefix:    a.Prefix,
		SecretKey: a.SecretKey,
	}
}

// WorkflowConfig bounds run behaviour.
type WorkflowConfig struct {
	Timeout Duration `yaml:"timeout"`
	DryRun  bool     `yaml:"dry_run"`
}

// NotificationConfig controls outcome emails.
type NotificationConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Recipient string `yaml:"recipient"`
}

// StorageConfig selects the ledger backend.
type StorageConfig struct {
	Driver   string   `yaml:"driver"`
	DSN      string   `yaml:"dsn"`
	CacheTTL Duration `yaml:"cache_ttl"`
}

// SecretsConfig selects where platform credentials come from.
type SecretsConfig struct {
	Provider  string            `yaml:"provider"`
	EnvPrefix string            `yaml:"env_prefix"`
	Static    map[string]string `yaml:"static"`
}

// WebhookConfig controls the push ingestion surface.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Token   string `yaml:"token"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string `yaml:"provider"`
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// DefaultConfig returns opinionated defaults for a three-platform deployment.
func DefaultConfig() Config {
	return Config{
		Source: SourceConfig{
			Branch:       "main",
			ContentPath:  "content/blog",
			CommitPrefix: "[blog]",
			Tolerance:    Duration(10 * time.Minute),
			PollInterval: Duration(5 * time.Minute),
		},
		Canonical: string(domain.PlatformBlog),
		Workflow: WorkflowConfig{
			Timeout: Duration(5 * time.Minute),
		},
		Storage: StorageConfig{
			Driver:   "sqlite",
			DSN:      "file:crosspost.db?cache=shared",
			CacheTTL: Duration(time.Minute),
		},
		Secrets: SecretsConfig{
			Provider:  "env",
			EnvPrefix: "CROSSPOST_SECRET_",
		},
		Webhook: WebhookConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	payload, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("crosspost config: read %s: %w", path, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(payload))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("crosspost config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// EnabledPlatforms filters the configured platforms down to the active set.
func (cfg Config) EnabledPlatforms() []PlatformConfig {
	out := make([]PlatformConfig, 0, len(cfg.Platforms))
	for _, platform := range cfg.Platforms {
		if platform.Enabled {
			out = append(out, platform)
		}
	}
	return out
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Source.Owner) == "" || strings.TrimSpace(cfg.Source.Repo) == "" {
		return ErrSourceRepositoryRequired
	}
	if strings.TrimSpace(cfg.Source.ContentPath) == "" {
		return ErrContentPathRequired
	}
	if strings.TrimSpace(cfg.Blog.BaseURL) == "" {
		return ErrBlogBaseURLRequired
	}

	enabled := cfg.EnabledPlatforms()
	if len(enabled) == 0 {
		return ErrNoPlatformsEnabled
	}
	for _, platform := range enabled {
		if err := platform.validate(); err != nil {
			return err
		}
	}

	canonical := domain.NormalizePlatformID(cfg.Canonical)
	if canonical != domain.PlatformBlog {
		found := false
		for _, platform := range enabled {
			if domain.NormalizePlatformID(platform.Name) == canonical {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrCanonicalPlatformUnknown, cfg.Canonical)
		}
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)) {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, cfg.Storage.Driver)
	}

	if cfg.Notifications.Enabled && strings.TrimSpace(cfg.Notifications.Recipient) == "" {
		return ErrNotificationRecipientRequired
	}

	provider := normalizeProvider(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

func (p PlatformConfig) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrPlatformNameRequired
	}
	if strings.TrimSpace(p.BaseURL) == "" {
		return fmt.Errorf("%w: %s", ErrPlatformBaseURLRequired, p.Name)
	}
	if strings.TrimSpace(p.Auth.SecretKey) == "" {
		return fmt.Errorf("%w: %s", ErrPlatformSecretKeyRequired, p.Name)
	}
	if strings.TrimSpace(p.Auth.Key) == "" {
		return fmt.Errorf("%w: %s", ErrAuthKeyRequired, p.Name)
	}
	switch strings.ToLower(strings.TrimSpace(p.Auth.Location)) {
	case "", "header", "query":
	default:
		return fmt.Errorf("%w: %s", ErrAuthLocationInvalid, p.Auth.Location)
	}
	if p.Capabilities != nil {
		if err := validateCapabilities(p.Name, p.Capabilities); err != nil {
			return err
		}
	}
	return nil
}

// capabilitySchema constrains the optional per-platform capabilities document
// so typos surface at startup instead of mid-run.
const capabilitySchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"max_tags": {"type": "integer", "minimum": 0},
		"supports_canonical": {"type": "boolean"},
		"supports_cover_image": {"type": "boolean"},
		"tag_spaces_allowed": {"type": "boolean"},
		"markdown_flavor": {"type": "string", "enum": ["commonmark", "gfm", "liquid"]}
	},
	"additionalProperties": false
}`

func validateCapabilities(platform string, doc map[string]any) error {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("capabilities.json", strings.NewReader(capabilitySchema)); err != nil {
		return fmt.Errorf("crosspost config: capability schema: %w", err)
	}
	schema, err := compiler.Compile("capabilities.json")
	if err != nil {
		return fmt.Errorf("crosspost config: capability schema: %w", err)
	}

	// Round-trip through JSON so YAML-decoded values take the shapes the
	// validator expects.
	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("crosspost config: capabilities %s: %w", platform, err)
	}
	var normalized any
	if err := json.Unmarshal(encoded, &normalized); err != nil {
		return fmt.Errorf("crosspost config: capabilities %s: %w", platform, err)
	}

	if err := schema.Validate(normalized); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCapabilitiesInvalid, platform, err)
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
