package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/songfetch/songfetch-go/internal/security"
)

// Config represents the application configuration
type Config struct {
	Spotify  SpotifyConfig  `json:"spotify" mapstructure:"spotify"`
	Resolver ResolverConfig `json:"resolver" mapstructure:"resolver"`
	Output   OutputConfig   `json:"output" mapstructure:"output"`
	Scan     ScanConfig     `json:"scan" mapstructure:"scan"`
	Network  NetworkConfig  `json:"network" mapstructure:"network"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
	Metrics  MetricsConfig  `json:"metrics" mapstructure:"metrics"`
}

// SpotifyConfig contains catalog API credentials
type SpotifyConfig struct {
	ClientID     string `json:"client_id" mapstructure:"client_id"`
	ClientSecret string `json:"client_secret" mapstructure:"client_secret"`
	AuthToken    string `json:"auth_token" mapstructure:"auth_token"`
	UserAuth     bool   `json:"user_auth" mapstructure:"user_auth"`
}

// ResolverConfig contains query resolution settings
type ResolverConfig struct {
	Threads           int    `json:"threads" mapstructure:"threads"`
	PlaylistNumbering bool   `json:"playlist_numbering" mapstructure:"playlist_numbering"`
	SaveExtension     string `json:"save_extension" mapstructure:"save_extension"`
}

// OutputConfig contains output path settings
type OutputConfig struct {
	Template string `json:"template" mapstructure:"template"`
	Format   string `json:"format" mapstructure:"format"`
}

// ScanConfig contains library scan settings
type ScanConfig struct {
	DBPath  string `json:"db_path" mapstructure:"db_path"`
	Persist bool   `json:"persist" mapstructure:"persist"`
}

// NetworkConfig contains network-related settings
type NetworkConfig struct {
	ProxyURL     string `json:"proxy_url" mapstructure:"proxy_url"`
	Timeout      int    `json:"timeout" mapstructure:"timeout"`
	MaxRetries   int    `json:"max_retries" mapstructure:"max_retries"`
	MaxIdleConns int    `json:"max_idle_conns" mapstructure:"max_idle_conns"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `json:"level" mapstructure:"level"`
	Format     string `json:"format" mapstructure:"format"`
	Output     string `json:"output" mapstructure:"output"`
	FilePath   string `json:"file_path" mapstructure:"file_path"`
	MaxSizeMB  int    `json:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `json:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `json:"compress" mapstructure:"compress"`
}

// MetricsConfig contains metrics endpoint settings
type MetricsConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	ListenAddr string `json:"listen_addr" mapstructure:"listen_addr"`
}

// Load loads configuration from file or creates default
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Determine config path
	if configPath == "" {
		configPath = GetConfigPath()
	}

	// Set config file
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	// Ensure config directory exists
	if err := ensureConfigDir(configPath); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, create with defaults
			if err := v.WriteConfigAs(configPath); err != nil {
				return nil, fmt.Errorf("failed to write default config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Allow environment variable overrides
	v.SetEnvPrefix("SONGFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Credentials may be stored encrypted ("enc:" prefix)
	if err := decryptCredentials(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	// Validate config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// decryptCredentials replaces encrypted credential values with their
// plaintext form. Values without the prefix are left untouched.
func decryptCredentials(cfg *Config) error {
	if !security.IsEncrypted(cfg.Spotify.ClientSecret) && !security.IsEncrypted(cfg.Spotify.AuthToken) {
		return nil
	}

	encryptor := security.NewCredentialEncryptor(GetDataDir())

	if security.IsEncrypted(cfg.Spotify.ClientSecret) {
		secret, err := encryptor.Decrypt(cfg.Spotify.ClientSecret)
		if err != nil {
			return fmt.Errorf("client secret: %w", err)
		}
		cfg.Spotify.ClientSecret = secret
	}

	if security.IsEncrypted(cfg.Spotify.AuthToken) {
		token, err := encryptor.Decrypt(cfg.Spotify.AuthToken)
		if err != nil {
			return fmt.Errorf("auth token: %w", err)
		}
		cfg.Spotify.AuthToken = token
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Resolver validation
	if c.Resolver.Threads < 1 {
		return fmt.Errorf("resolver threads must be at least 1")
	}

	if c.Resolver.Threads > 32 {
		return fmt.Errorf("resolver threads cannot exceed 32")
	}

	if !strings.HasPrefix(c.Resolver.SaveExtension, ".") {
		return fmt.Errorf("invalid save extension: %s (must start with a dot)", c.Resolver.SaveExtension)
	}

	// Output validation
	if c.Output.Template == "" {
		return fmt.Errorf("output template cannot be empty")
	}

	if c.Output.Format != "mp3" && c.Output.Format != "flac" {
		return fmt.Errorf("invalid output format: %s (must be mp3 or flac)", c.Output.Format)
	}

	// Network validation
	if c.Network.Timeout < 1 {
		return fmt.Errorf("network timeout must be at least 1 second")
	}

	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	if c.Network.MaxIdleConns < 1 {
		return fmt.Errorf("max idle connections must be at least 1")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logging.Format)
	}

	validOutputs := map[string]bool{"file": true, "console": true, "both": true}
	if !validOutputs[c.Logging.Output] {
		return fmt.Errorf("invalid log output: %s (must be file, console, or both)", c.Logging.Output)
	}

	if c.Logging.MaxSizeMB < 1 {
		return fmt.Errorf("log max size must be at least 1 MB")
	}

	if c.Logging.MaxBackups < 0 {
		return fmt.Errorf("log max backups cannot be negative")
	}

	if c.Logging.MaxAgeDays < 0 {
		return fmt.Errorf("log max age cannot be negative")
	}

	// Metrics validation
	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return fmt.Errorf("metrics listen address cannot be empty")
	}

	return nil
}

// ValidateCredentials checks that catalog credentials are configured.
// Kept separate from Validate so commands that never touch the catalog
// (config, version) still work on a fresh install.
func (c *Config) ValidateCredentials() error {
	if c.Spotify.UserAuth {
		if c.Spotify.AuthToken == "" {
			return fmt.Errorf("user_auth is enabled but no auth token is configured")
		}
		return nil
	}

	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return fmt.Errorf("catalog credentials are not configured (run \"songfetch config set-credentials\")")
	}

	return nil
}

// Save saves the configuration to file
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.Set("spotify", c.Spotify)
	v.Set("resolver", c.Resolver)
	v.Set("output", c.Output)
	v.Set("scan", c.Scan)
	v.Set("network", c.Network)
	v.Set("logging", c.Logging)
	v.Set("metrics", c.Metrics)

	return v.WriteConfig()
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Spotify defaults
	v.SetDefault("spotify.user_auth", false)

	// Resolver defaults
	v.SetDefault("resolver.threads", 1)
	v.SetDefault("resolver.playlist_numbering", false)
	v.SetDefault("resolver.save_extension", ".songfetch")

	// Output defaults
	v.SetDefault("output.template", "{artists} - {title}")
	v.SetDefault("output.format", "mp3")

	// Scan defaults
	v.SetDefault("scan.db_path", filepath.Join(GetDataDir(), "data", "scan.db"))
	v.SetDefault("scan.persist", true)

	// Network defaults
	v.SetDefault("network.timeout", 30)
	v.SetDefault("network.max_retries", 3)
	v.SetDefault("network.max_idle_conns", 100)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "both")
	v.SetDefault("logging.file_path", filepath.Join(GetDataDir(), "logs", "songfetch.log"))
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen_addr", "127.0.0.1:9464")
}

// getDefaultConfigPath returns the default configuration file path
func getDefaultConfigPath() string {
	return filepath.Join(GetDataDir(), "config.json")
}

// ensureConfigDir ensures the configuration directory exists
func ensureConfigDir(configPath string) error {
	dir := filepath.Dir(configPath)
	return os.MkdirAll(dir, 0755)
}

// Reload reloads the configuration from file
func (c *Config) Reload(configPath string) error {
	newConfig, err := Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	// Update current config
	*c = *newConfig
	return nil
}

// GetDataDir returns the application data directory
func GetDataDir() string {
	// Check if running in portable mode
	if IsPortableMode() {
		exePath, err := os.Executable()
		if err != nil {
			// Fallback to current directory
			return "."
		}
		return filepath.Dir(exePath)
	}

	if dir := os.Getenv("SONGFETCH_CONFIG_DIR"); dir != "" {
		return dir
	}

	base, err := os.UserConfigDir()
	if err != nil {
		base = os.Getenv("HOME")
	}
	return filepath.Join(base, "songfetch")
}

// IsPortableMode checks if the application is running in portable mode
func IsPortableMode() bool {
	exePath, err := os.Executable()
	if err != nil {
		return false
	}
	exeDir := filepath.Dir(exePath)
	portableMarker := filepath.Join(exeDir, ".portable")
	_, err = os.Stat(portableMarker)
	return err == nil
}

// GetConfigPath returns the configuration file path based on mode
func GetConfigPath() string {
	if IsPortableMode() {
		exePath, _ := os.Executable()
		exeDir := filepath.Dir(exePath)
		return filepath.Join(exeDir, "config.json")
	}
	return getDefaultConfigPath()
}
