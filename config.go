package crosspost

import "github.com/goliatone/go-crosspost/internal/runtimeconfig"

var (
	ErrSourceRepositoryRequired      = runtimeconfig.ErrSourceRepositoryRequired
	ErrContentPathRequired           = runtimeconfig.ErrContentPathRequired
	ErrBlogBaseURLRequired           = runtimeconfig.ErrBlogBaseURLRequired
	ErrNoPlatformsEnabled            = runtimeconfig.ErrNoPlatformsEnabled
	ErrCanonicalPlatformUnknown      = runtimeconfig.ErrCanonicalPlatformUnknown
	ErrPlatformNameRequired          = runtimeconfig.ErrPlatformNameRequired
	ErrPlatformBaseURLRequired       = runtimeconfig.ErrPlatformBaseURLRequired
	ErrPlatformSecretKeyRequired     = runtimeconfig.ErrPlatformSecretKeyRequired
	ErrAuthKeyRequired               = runtimeconfig.ErrAuthKeyRequired
	ErrAuthLocationInvalid           = runtimeconfig.ErrAuthLocationInvalid
	ErrStorageDriverUnknown          = runtimeconfig.ErrStorageDriverUnknown
	ErrNotificationRecipientRequired = runtimeconfig.ErrNotificationRecipientRequired
	ErrLoggingProviderRequired       = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown        = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid           = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid          = runtimeconfig.ErrLoggingFormatInvalid
	ErrCapabilitiesInvalid           = runtimeconfig.ErrCapabilitiesInvalid
)

type (
	Config             = runtimeconfig.Config
	SourceConfig       = runtimeconfig.SourceConfig
	BlogConfig         = runtimeconfig.BlogConfig
	PlatformConfig     = runtimeconfig.PlatformConfig
	AuthConfig         = runtimeconfig.AuthConfig
	WorkflowConfig     = runtimeconfig.WorkflowConfig
	NotificationConfig = runtimeconfig.NotificationConfig
	StorageConfig      = runtimeconfig.StorageConfig
	SecretsConfig      = runtimeconfig.SecretsConfig
	WebhookConfig      = runtimeconfig.WebhookConfig
	LoggingConfig      = runtimeconfig.LoggingConfig
	Duration           = runtimeconfig.Duration
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML config file and merges it over the defaults.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}
