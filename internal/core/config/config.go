package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/guiyumin/igget/internal/core/downloader"
	"github.com/guiyumin/igget/internal/core/extractor"
	"github.com/guiyumin/igget/internal/core/i18n"
	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName = "config.yml"
	AppDirName     = "igget"

	// ConfigPathEnv overrides the config file location
	ConfigPathEnv = "IGGET_CONFIG"
)

// ConfigDir returns the standard config directory for igget.
// Windows: %APPDATA%\igget\
// macOS/Linux: ~/.config/igget/
func ConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, AppDirName), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppDirName), nil
}

// ConfigPath returns the path to the config file.
// e.g., ~/.config/igget/config.yml
func ConfigPath() (string, error) {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return expandPath(p), nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

type Config struct {
	// Language for messages ("en", "vi")
	Language string `yaml:"language,omitempty" env:"IGGET_LANGUAGE"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level,omitempty" env:"IGGET_LOG_LEVEL"`

	// LogFormat is "text" or "json"
	LogFormat string `yaml:"log_format,omitempty" env:"IGGET_LOG_FORMAT"`

	// Default output directory for `igget download`
	OutputDir string `yaml:"output_dir,omitempty" env:"IGGET_OUTPUT_DIR"`

	// Server configuration for `igget serve`
	Server ServerConfig `yaml:"server,omitempty"`

	Instagram InstagramConfig `yaml:"instagram,omitempty"`

	Download DownloadConfig `yaml:"download,omitempty"`
}

// ServerConfig holds HTTP server settings for `igget serve`
type ServerConfig struct {
	// Port is the HTTP listen port (default: 8080)
	Port int `yaml:"port,omitempty" env:"IGGET_PORT"`

	// APIKey for authentication (optional, if set /api/instagram/* requires X-API-Key)
	APIKey string `yaml:"api_key,omitempty" env:"IGGET_API_KEY"`

	// RequestTimeout bounds a whole fetch request (default: 45s)
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty" env:"IGGET_REQUEST_TIMEOUT"`
}

// InstagramConfig tunes the extraction pipeline
type InstagramConfig struct {
	// Strategies in priority order; unknown names are rejected
	Strategies []string `yaml:"strategies,omitempty" env:"IGGET_STRATEGIES" env-separator:","`

	// Timeouts per strategy name, e.g. {page: 20s, oembed: 8s}
	Timeouts map[string]time.Duration `yaml:"timeouts,omitempty"`

	UserAgent    string `yaml:"user_agent,omitempty" env:"IGGET_USER_AGENT"`
	AppID        string `yaml:"app_id,omitempty" env:"IGGET_APP_ID"`
	GraphQLDocID string `yaml:"graphql_doc_id,omitempty" env:"IGGET_GRAPHQL_DOC_ID"`
}

// DownloadConfig holds asset streaming settings
type DownloadConfig struct {
	// Timeout bounds one asset transfer (default: 30s)
	Timeout time.Duration `yaml:"timeout,omitempty" env:"IGGET_DOWNLOAD_TIMEOUT"`

	// Platform prefixes generated filenames (default: instagram)
	Platform string `yaml:"platform,omitempty" env:"IGGET_DOWNLOAD_PLATFORM"`
}

// ExtractorOptions maps the instagram section onto extractor options
func (c *Config) ExtractorOptions() extractor.Options {
	return extractor.Options{
		Strategies: c.Instagram.Strategies,
		Timeouts:   c.Instagram.Timeouts,
		UserAgent:  c.Instagram.UserAgent,
		AppID:      c.Instagram.AppID,
		DocID:      c.Instagram.GraphQLDocID,
	}
}

// SlogLevel parses LogLevel, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate rejects settings the pipeline cannot run with
func (c *Config) Validate() error {
	if !i18n.IsSupported(c.Language) {
		return fmt.Errorf("unsupported language %q", c.Language)
	}
	if c.LogLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
			return fmt.Errorf("invalid log_level %q", c.LogLevel)
		}
	}
	if f := strings.ToLower(c.LogFormat); f != "" && f != "text" && f != "json" {
		return fmt.Errorf("invalid log_format %q", c.LogFormat)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}

	known := make(map[string]bool)
	for _, name := range extractor.Names() {
		known[name] = true
	}
	for _, name := range c.Instagram.Strategies {
		if !known[name] {
			return fmt.Errorf("unknown strategy %q in instagram.strategies (available: %s)", name, strings.Join(extractor.Names(), ", "))
		}
	}
	for name, d := range c.Instagram.Timeouts {
		if !known[name] {
			return fmt.Errorf("unknown strategy %q in instagram.timeouts", name)
		}
		if d <= 0 {
			return fmt.Errorf("instagram.timeouts.%s must be positive", name)
		}
	}
	return nil
}

// DefaultDownloadDir returns the default download directory
// Windows: ~/Downloads/igget
// macOS: ~/Downloads/igget
// Linux: ~/downloads
func DefaultDownloadDir() string {
	// Docker: use the default container path (users mount their volume here)
	if IsRunningInDocker() {
		return "/home/igget/downloads"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./downloads"
	}

	switch runtime.GOOS {
	case "darwin", "windows":
		return filepath.Join(home, "Downloads", "igget")
	default:
		return filepath.Join(home, "downloads")
	}
}

// IsRunningInDocker detects if we're running inside a Docker container
func IsRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	if data, err := os.ReadFile("/proc/1/cgroup"); err == nil {
		content := string(data)
		if strings.Contains(content, "docker") || strings.Contains(content, "containerd") {
			return true
		}
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true
	}
	return false
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	timeouts := make(map[string]time.Duration, len(extractor.DefaultTimeouts))
	for name, d := range extractor.DefaultTimeouts {
		timeouts[name] = d
	}
	return &Config{
		Language:  "en",
		LogLevel:  "info",
		LogFormat: "text",
		OutputDir: DefaultDownloadDir(),
		Server: ServerConfig{
			Port:           8080,
			RequestTimeout: 45 * time.Second,
		},
		Instagram: InstagramConfig{
			Strategies:   append([]string(nil), extractor.DefaultOrder...),
			Timeouts:     timeouts,
			UserAgent:    extractor.DefaultUserAgent,
			AppID:        extractor.DefaultAppID,
			GraphQLDocID: extractor.DefaultGraphQLDocID,
		},
		Download: DownloadConfig{
			Timeout:  30 * time.Second,
			Platform: downloader.DefaultPlatform,
		},
	}
}

// Exists checks if config file exists
func Exists() bool {
	path, err := ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Load reads the config file over the defaults, then applies IGGET_*
// environment overrides
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	cfg.OutputDir = expandPath(cfg.OutputDir)

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// expandPath expands the tilde (~) in the path to the user's home directory.
// It handles both forward and backward slashes to ensure cross-platform compatibility
// for configuration files.
func expandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		// Only expand if it's explicitly "~", "~/", or "~\"
		if len(path) == 1 || path[1] == '/' || path[1] == '\\' {
			home, err := os.UserHomeDir()
			if err == nil {
				subPath := path[1:]
				if len(subPath) > 0 && (subPath[0] == '/' || subPath[0] == '\\') {
					subPath = subPath[1:]
				}
				return filepath.Join(home, subPath)
			}
		}
	}

	return path
}

// Save writes the config to ~/.config/igget/config.yml
func Save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	configPath, err := ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	header := "# igget configuration file\n# Run 'igget init' to regenerate with defaults\n\n"
	content := header + string(data)

	// may hold server.api_key
	return os.WriteFile(configPath, []byte(content), 0600)
}

// SavePath returns the path where config will be saved
func SavePath() string {
	if path, err := ConfigPath(); err == nil {
		return path
	}
	return ConfigFileName
}

// Init creates a new config.yml with default values
func Init() error {
	if Exists() {
		path, _ := ConfigPath()
		return fmt.Errorf("%s already exists", path)
	}
	return Save(DefaultConfig())
}

// LoadOrDefault loads config if it exists, otherwise returns defaults with
// environment overrides applied
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		cfg = DefaultConfig()
		if envErr := applyEnv(cfg); envErr != nil {
			slog.Warn("ignoring environment overrides", "error", envErr)
		}
	}
	return cfg
}
