// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/JakeFAU/appprofiler/internal/logging"
	"github.com/JakeFAU/appprofiler/internal/ratelimit"
	"github.com/JakeFAU/appprofiler/internal/settings"
	"github.com/JakeFAU/appprofiler/internal/telemetry"
)

// Storage backends.
const (
	BackendLocal  = "local"
	BackendGCS    = "gcs"
	BackendMemory = "memory"
)

// Viewer backends.
const (
	ViewerNone   = "none"
	ViewerRaw    = "raw"
	ViewerRemote = "remote"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig     `mapstructure:"server"`
	Logging  logging.Config   `mapstructure:"logging"`
	Storage  StorageConfig    `mapstructure:"storage"`
	Profiler ProfilerConfig   `mapstructure:"profiler"`
	Viewer   ViewerConfig     `mapstructure:"viewer"`
	Notify   NotifyConfig     `mapstructure:"notify"`
	Tracing  telemetry.Config `mapstructure:"tracing"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port               int `mapstructure:"port"`
	ReadHeaderTimeoutS int `mapstructure:"read_header_timeout_seconds"`
	ShutdownTimeoutS   int `mapstructure:"shutdown_timeout_seconds"`
	MaxUploadBytes     int `mapstructure:"max_upload_bytes"`
	// IngestAPIKey, when set, is required on profile uploads via X-API-Key.
	IngestAPIKey string `mapstructure:"ingest_api_key"`
	// IngestRateLimit throttles profile uploads per client address.
	IngestRateLimit ratelimit.Config `mapstructure:"ingest_rate_limit"`
}

// StorageConfig selects and parameterizes the profile store.
type StorageConfig struct {
	Backend       string `mapstructure:"backend"`
	ProfileRoot   string `mapstructure:"profile_root"`
	GCSBucket     string `mapstructure:"gcs_bucket"`
	Prefix        string `mapstructure:"prefix"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// ProfilerConfig drives the upload coordinator.
type ProfilerConfig struct {
	Autoredirect      bool   `mapstructure:"autoredirect"`
	ProfileHeader     string `mapstructure:"profile_header"`
	ProfileDataHeader string `mapstructure:"profile_data_header"`
	// URLFormat may contain {name} and {url}. Empty disables redirects.
	URLFormat string `mapstructure:"url_format"`
}

// ViewerConfig selects the viewer backend.
type ViewerConfig struct {
	Backend          string `mapstructure:"backend"`
	RemoteURL        string `mapstructure:"remote_url"`
	ProfileURLPrefix string `mapstructure:"profile_url_prefix"`
}

// NotifyConfig enables Pub/Sub upload notifications when both fields are set.
type NotifyConfig struct {
	PubSubProject string `mapstructure:"pubsub_project"`
	PubSubTopic   string `mapstructure:"pubsub_topic"`
}

// Enabled reports whether notifications are configured.
func (n NotifyConfig) Enabled() bool {
	return n.PubSubProject != "" && n.PubSubTopic != ""
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("APPPROFILER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_header_timeout_seconds", 5)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("server.max_upload_bytes", 64<<20)
	v.SetDefault("server.ingest_api_key", "")
	v.SetDefault("server.ingest_rate_limit.rps", 0)
	v.SetDefault("server.ingest_rate_limit.burst", 5)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
	v.SetDefault("storage.backend", BackendLocal)
	v.SetDefault("storage.profile_root", "tmp/app_profiler")
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.prefix", "profiles")
	v.SetDefault("storage.public_base_url", "")
	v.SetDefault("profiler.autoredirect", false)
	v.SetDefault("profiler.profile_header", settings.DefaultProfileHeader)
	v.SetDefault("profiler.profile_data_header", settings.DefaultProfileDataHeader)
	v.SetDefault("profiler.url_format", "")
	v.SetDefault("viewer.backend", ViewerNone)
	v.SetDefault("viewer.remote_url", "")
	v.SetDefault("viewer.profile_url_prefix", "")
	v.SetDefault("notify.pubsub_project", "")
	v.SetDefault("notify.pubsub_topic", "")
	v.SetDefault("tracing.service_name", telemetry.DefaultServiceName)
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.IngestRateLimit.RPS < 0 {
		return fmt.Errorf("server.ingest_rate_limit.rps must be >= 0")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be > 0")
	}
	switch c.Storage.Backend {
	case BackendLocal:
		if strings.TrimSpace(c.Storage.ProfileRoot) == "" {
			return fmt.Errorf("storage.profile_root must be set for the local backend")
		}
	case BackendGCS:
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set for the gcs backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("storage.backend %q is not one of local, gcs, memory", c.Storage.Backend)
	}
	if c.Profiler.ProfileHeader == "" || c.Profiler.ProfileDataHeader == "" {
		return fmt.Errorf("profiler.profile_header and profiler.profile_data_header must be set")
	}
	if c.Profiler.URLFormat != "" &&
		!strings.Contains(c.Profiler.URLFormat, "{name}") && !strings.Contains(c.Profiler.URLFormat, "{url}") {
		return fmt.Errorf("profiler.url_format must contain {name} or {url}")
	}
	switch c.Viewer.Backend {
	case ViewerNone, ViewerRaw:
	case ViewerRemote:
		if c.Viewer.RemoteURL == "" || c.Viewer.ProfileURLPrefix == "" {
			return fmt.Errorf("viewer.remote_url and viewer.profile_url_prefix must be set for the remote viewer")
		}
	default:
		return fmt.Errorf("viewer.backend %q is not one of none, raw, remote", c.Viewer.Backend)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0, 1]")
	}
	if (c.Notify.PubSubProject == "") != (c.Notify.PubSubTopic == "") {
		return fmt.Errorf("notify.pubsub_project and notify.pubsub_topic must be set together")
	}
	return nil
}

// Settings converts the profiler section into runtime settings.
func (c Config) Settings() settings.Values {
	return settings.Values{
		Autoredirect:      c.Profiler.Autoredirect,
		URLFormatter:      settings.TemplateFormatter(c.Profiler.URLFormat),
		ProfileHeader:     c.Profiler.ProfileHeader,
		ProfileDataHeader: c.Profiler.ProfileDataHeader,
	}
}
