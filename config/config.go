package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/xeptore/skyjam/redact"
)

type Config struct {
	Log Log `yaml:"log"`
	GPM GPM `yaml:"gpm"`
}

func (c *Config) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Dict("log", c.Log.ToDict()).
		Dict("gpm", c.GPM.ToDict())
}

func (c *Config) setDefaults() {
	c.Log.setDefaults()
	c.GPM.setDefaults()
}

func (c *Config) validate() error {
	if err := c.Log.validate(); nil != err {
		return fmt.Errorf("log config validation failed: %v", err)
	}

	if err := c.GPM.validate(); nil != err {
		return fmt.Errorf("gpm config validation failed: %v", err)
	}

	return nil
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Log) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("level", c.Level).
		Str("format", c.Format)
}

func (c *Log) setDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}

	if c.Format == "" {
		c.Format = "auto"
	}
}

func (c *Log) validate() error {
	if !slices.Contains([]string{"debug", "info", "warn", "error", "fatal", "panic"}, c.Level) {
		return fmt.Errorf(
			"level must be one of: debug, info, warn, error, fatal, panic, got: %s",
			c.Level,
		)
	}

	if !slices.Contains([]string{"json", "pretty", "auto"}, c.Format) {
		return fmt.Errorf("format must be 'json', 'pretty', or 'auto', got: %s", c.Format)
	}

	return nil
}

// GPM configures the Google Play Music mobile-protocol client.
//
// Credentials are never read from the config file: Email/Password/MasterToken
// come from the GPM_EMAIL, GPM_PASSWORD, and GPM_MASTER_TOKEN environment
// variables.
type GPM struct {
	Email        string      `yaml:"-"`
	Password     string      `yaml:"-"`
	MasterToken  string      `yaml:"-"`
	AccountIndex int         `yaml:"account_index"`
	StorePath    string      `yaml:"store_path"`
	DownloadsDir string      `yaml:"downloads_dir"`
	Proxy        string      `yaml:"proxy"`
	Timeouts     GPMTimeouts `yaml:"timeouts"`
}

func (c *GPM) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Str("email", redact.String(c.Email)).
		Str("password", redact.String(c.Password)).
		Str("master_token", redact.String(c.MasterToken)).
		Int("account_index", c.AccountIndex).
		Str("store_path", c.StorePath).
		Str("downloads_dir", c.DownloadsDir).
		Str("proxy", c.Proxy).
		Dict("timeouts", c.Timeouts.ToDict())
}

func (c *GPM) setDefaults() {
	if c.StorePath == "" {
		c.StorePath = "./skyjam.db"
	}

	if c.DownloadsDir == "" {
		c.DownloadsDir = "./downloads"
	}

	c.Timeouts.setDefaults()
}

func (c *GPM) validate() error {
	if c.AccountIndex < 0 {
		return errors.New("account_index must not be negative")
	}

	// The downloads directory is created on first use, but an existing
	// non-directory at its path is a configuration mistake.
	if i, err := os.Stat(c.DownloadsDir); nil != err {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to stat downloads_dir: %v", err)
		}
	} else if !i.IsDir() {
		return errors.New("downloads_dir must be a directory")
	}

	if c.Proxy != "" {
		u, err := url.Parse(c.Proxy)
		if nil != err {
			return fmt.Errorf("failed to parse proxy URL: %v", err)
		}
		if u.Scheme != "socks5" {
			return fmt.Errorf("proxy scheme must be socks5, got: %s", u.Scheme)
		}
	}

	if err := c.Timeouts.validate(); nil != err {
		return fmt.Errorf("timeouts config validation failed: %v", err)
	}

	return nil
}

// GPMTimeouts are per-operation HTTP timeouts in seconds.
type GPMTimeouts struct {
	Auth          int `yaml:"auth"`
	LoadSettings  int `yaml:"load_settings"`
	GetStreamURL  int `yaml:"get_stream_url"`
	StreamChunk   int `yaml:"stream_chunk"`
	WebAPI        int `yaml:"web_api"`
	GetStreamSize int `yaml:"get_stream_size"`
}

func (c *GPMTimeouts) ToDict() *zerolog.Event {
	return zerolog.Dict().
		Int("auth", c.Auth).
		Int("load_settings", c.LoadSettings).
		Int("get_stream_url", c.GetStreamURL).
		Int("stream_chunk", c.StreamChunk).
		Int("web_api", c.WebAPI).
		Int("get_stream_size", c.GetStreamSize)
}

func (c *GPMTimeouts) setDefaults() {
	if c.Auth == 0 {
		c.Auth = 10
	}

	if c.LoadSettings == 0 {
		c.LoadSettings = 10
	}

	if c.GetStreamURL == 0 {
		c.GetStreamURL = 5
	}

	if c.StreamChunk == 0 {
		c.StreamChunk = 60
	}

	if c.WebAPI == 0 {
		c.WebAPI = 10
	}

	if c.GetStreamSize == 0 {
		c.GetStreamSize = 5
	}
}

func (c *GPMTimeouts) validate() error {
	if c.Auth < 0 {
		return errors.New("auth must not be negative")
	}

	if c.LoadSettings < 0 {
		return errors.New("load_settings must not be negative")
	}

	if c.GetStreamURL < 0 {
		return errors.New("get_stream_url must not be negative")
	}

	if c.StreamChunk < 0 {
		return errors.New("stream_chunk must not be negative")
	}

	if c.WebAPI < 0 {
		return errors.New("web_api must not be negative")
	}

	if c.GetStreamSize < 0 {
		return errors.New("get_stream_size must not be negative")
	}

	return nil
}

func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(lo.Ternary(len(filename) > 0, filename, "config.yaml"))
	if nil != err {
		return nil, fmt.Errorf("failed to read config file %s: %v", filename, err)
	}

	var conf Config
	if err := yaml.Unmarshal(data, &conf); nil != err {
		return nil, fmt.Errorf("failed to parse config file %s: %v", filename, err)
	}

	conf.GPM.Email = os.Getenv("GPM_EMAIL")
	conf.GPM.Password = os.Getenv("GPM_PASSWORD")
	conf.GPM.MasterToken = os.Getenv("GPM_MASTER_TOKEN")
	conf.setDefaults()

	if err := conf.validate(); nil != err {
		return nil, fmt.Errorf("configuration validation failed: %v", err)
	}

	return &conf, nil
}
