package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Registry backends
const (
	BackendMemory    = "memory"
	BackendFile      = "file"
	BackendConfigMap = "configmap"
)

// Config holds the complete application configuration
type Config struct {
	// Application configuration
	App AppConfig `mapstructure:"app"`

	// Registry configuration
	Registry RegistryConfig `mapstructure:"registry"`

	// Kubernetes configuration
	Kubernetes KubernetesConfig `mapstructure:"kubernetes"`

	// Metrics configuration
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// AppConfig holds application configuration
type AppConfig struct {
	// Component is the name of the component
	Component string `mapstructure:"component"`

	// LogLevel is the log level
	LogLevel string `mapstructure:"log_level"`
}

// RegistryConfig selects where the node list is kept
type RegistryConfig struct {
	// Backend is one of memory, file or configmap
	Backend string `mapstructure:"backend"`

	// FilePath is the node list document used by the file backend
	FilePath string `mapstructure:"file_path"`
}

// KubernetesConfig holds Kubernetes client configuration
type KubernetesConfig struct {
	// Namespace is the namespace of the node list ConfigMap and its events
	Namespace string `mapstructure:"namespace"`

	// ConfigPath is the path to the kubeconfig file
	ConfigPath string `mapstructure:"config_path"`

	// MasterURL is the Kubernetes API server URL
	MasterURL string `mapstructure:"master_url"`

	// ConfigMapName is the ConfigMap holding the node list
	ConfigMapName string `mapstructure:"configmap_name"`

	// DataKey is the ConfigMap key holding the node list
	DataKey string `mapstructure:"data_key"`

	// EventsEnabled records every bulk operation as an event
	EventsEnabled bool `mapstructure:"events_enabled"`

	// RetryMaxElapsed bounds API retries
	RetryMaxElapsed time.Duration `mapstructure:"retry_max_elapsed"`
}

// MetricsConfig holds operation metrics configuration
type MetricsConfig struct {
	// Enabled turns on operation metrics
	Enabled bool `mapstructure:"enabled"`

	// Namespace prefixes every metric name
	Namespace string `mapstructure:"namespace"`

	// TextfilePath is where metrics are written after each command
	TextfilePath string `mapstructure:"textfile_path"`
}

// Load loads configuration from files and environment. An empty configFile
// searches the default locations.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure paths and file types
	configureViper(v, configFile)

	// Read configs file
	if err := readConfigs(v, configFile); err != nil {
		return nil, err
	}

	// Load environment variables from app.env
	if err := loadEnvVars(v); err != nil {
		return nil, err
	}

	// Unmarshal configuration
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configs: %w", err)
	}

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// configureViper sets up Viper configuration paths and types
func configureViper(v *viper.Viper, configFile string) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/multislave/")
	}

	// Enable environment variables, e.g. MULTISLAVE_REGISTRY_BACKEND
	v.SetEnvPrefix("MULTISLAVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// readConfigs attempts to read the configuration file
func readConfigs(v *viper.Viper, configFile string) error {
	if err := v.ReadInConfig(); err != nil {
		// An explicitly named file must exist
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read configs file: %w", err)
		}
		// Otherwise, continue with defaults and environment variables
	}
	return nil
}

// loadEnvVars loads environment variables from app.env file
func loadEnvVars(v *viper.Viper) error {
	envViper := viper.New()
	envViper.SetConfigName("app")
	envViper.SetConfigType("env")
	envViper.AddConfigPath("./configs")

	if err := envViper.ReadInConfig(); err == nil {
		// Merge environment file into main configs if found
		for _, key := range envViper.AllKeys() {
			v.Set(key, envViper.Get(key))
		}
	}
	return nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	switch cfg.Registry.Backend {
	case BackendMemory:
	case BackendFile:
		if cfg.Registry.FilePath == "" {
			return fmt.Errorf("registry.file_path is required for the file backend")
		}
	case BackendConfigMap:
		if cfg.Kubernetes.Namespace == "" {
			return fmt.Errorf("kubernetes.namespace is required")
		}
		if cfg.Kubernetes.ConfigMapName == "" {
			return fmt.Errorf("kubernetes.configmap_name is required for the configmap backend")
		}
	default:
		return fmt.Errorf("unknown registry.backend %q", cfg.Registry.Backend)
	}

	if cfg.Kubernetes.EventsEnabled && cfg.Registry.Backend != BackendConfigMap {
		return fmt.Errorf("kubernetes.events_enabled requires the configmap backend")
	}
	if cfg.Kubernetes.RetryMaxElapsed <= 0 {
		return fmt.Errorf("kubernetes.retry_max_elapsed must be positive")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Namespace == "" {
		return fmt.Errorf("metrics.namespace is required when metrics are enabled")
	}

	return nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.component", "multislave-config")
	v.SetDefault("app.log_level", "info")

	// Registry defaults
	v.SetDefault("registry.backend", BackendFile)
	v.SetDefault("registry.file_path", "nodes.yaml")

	// Kubernetes defaults
	v.SetDefault("kubernetes.namespace", "default")
	v.SetDefault("kubernetes.config_path", "")
	v.SetDefault("kubernetes.master_url", "")
	v.SetDefault("kubernetes.configmap_name", "multislave-nodes")
	v.SetDefault("kubernetes.data_key", "nodes.yaml")
	v.SetDefault("kubernetes.events_enabled", false)
	v.SetDefault("kubernetes.retry_max_elapsed", 15*time.Second)

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "multislave")
	v.SetDefault("metrics.textfile_path", "")
}
