// Package config provides configuration structures for the transcript uploader
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/researchaccelerator-hub/transcript-uploader/model/youtube"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// DefaultServerURL is the summarization server used when none is configured
const DefaultServerURL = "https://summarizer.tpaulshippy.com"

// UploaderConfig holds everything a command needs, built once at startup
type UploaderConfig struct {
	APIKey    string        `mapstructure:"api_key" yaml:"api_key" json:"api_key,omitempty"`
	ServerURL string        `mapstructure:"server_url" yaml:"server_url" json:"server_url"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"` // HTTP timeout for server and provider calls
	LogLevel  string        `mapstructure:"log_level" yaml:"log_level" json:"log_level"`

	// Transcript provider configuration
	Languages     []string       `mapstructure:"languages" yaml:"languages" json:"languages"`                             // Caption language preference, most wanted first
	Isolate       bool           `mapstructure:"isolate" yaml:"isolate" json:"isolate"`                                   // Fetch each video in a child process
	YouTubeAPIKey string         `mapstructure:"youtube_api_key" yaml:"youtube_api_key" json:"youtube_api_key,omitempty"` // Enables the Data API availability probe
	Webshare      WebshareConfig `mapstructure:"webshare" yaml:"webshare" json:"webshare"`
}

// WebshareConfig holds the rotating residential proxy credentials
type WebshareConfig struct {
	Username           string   `mapstructure:"username" yaml:"username" json:"username,omitempty"`
	Password           string   `mapstructure:"password" yaml:"password" json:"password,omitempty"`
	Locations          []string `mapstructure:"locations" yaml:"locations" json:"locations"`                                  // Exit IP country filter
	RetriesWhenBlocked int      `mapstructure:"retries_when_blocked" yaml:"retries_when_blocked" json:"retries_when_blocked"` // Immediate re-issues through a fresh exit IP
}

// Enabled reports whether proxy credentials are present
func (w WebshareConfig) Enabled() bool {
	return w.Username != "" && w.Password != ""
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *UploaderConfig {
	return &UploaderConfig{
		ServerURL: DefaultServerURL,
		Timeout:   30 * time.Second,
		LogLevel:  "info",
		Languages: append([]string(nil), youtube.DefaultLanguages...),
		Webshare: WebshareConfig{
			Locations:          []string{"us"},
			RetriesWhenBlocked: 10,
		},
	}
}

// SetDefaults registers DefaultConfig with viper and binds the environment
// variables the scripts have always read.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("server_url", d.ServerURL)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("languages", d.Languages)
	v.SetDefault("isolate", false)
	v.SetDefault("webshare.locations", d.Webshare.Locations)
	v.SetDefault("webshare.retries_when_blocked", d.Webshare.RetriesWhenBlocked)

	_ = v.BindEnv("api_key", "TRANSCRIPT_API_KEY")
	_ = v.BindEnv("server_url", "TRANSCRIPT_SERVER_URL")
	_ = v.BindEnv("log_level", "TRANSCRIPT_LOG_LEVEL")
	_ = v.BindEnv("youtube_api_key", "YOUTUBE_API_KEY")
	_ = v.BindEnv("webshare.username", "WEBSHARE_PROXY_USERNAME")
	_ = v.BindEnv("webshare.password", "WEBSHARE_PROXY_PASSWORD")
}

// Load reads the optional config file and decodes viper's merged view.
// SetDefaults must have been called on v.
func Load(v *viper.Viper, configFile string) (*UploaderConfig, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg UploaderConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *UploaderConfig) Validate() error {
	if err := c.ValidateServerURL(); err != nil {
		return err
	}
	return c.ValidateOptions()
}

// ValidateServerURL checks the server URL on its own, since a positional
// argument may still replace it after startup.
func (c *UploaderConfig) ValidateServerURL() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("server_url must be an absolute http(s) URL, got '%s'", c.ServerURL)
	}
	return nil
}

// ValidateOptions checks everything except the server URL
func (c *UploaderConfig) ValidateOptions() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if len(c.Languages) == 0 {
		return fmt.Errorf("languages cannot be empty")
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level '%s': %w", c.LogLevel, err)
	}

	if (c.Webshare.Username == "") != (c.Webshare.Password == "") {
		return fmt.Errorf("webshare proxy needs both username and password")
	}

	if c.Webshare.RetriesWhenBlocked < 0 {
		return fmt.Errorf("webshare.retries_when_blocked cannot be negative")
	}

	return nil
}

// RequireAPIKey fails when no API key has been configured
func (c *UploaderConfig) RequireAPIKey() error {
	if c.APIKey == "" {
		return fmt.Errorf("API key required. Provide it as argument or set TRANSCRIPT_API_KEY environment variable")
	}
	return nil
}
