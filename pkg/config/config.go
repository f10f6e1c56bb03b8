// Package config loads memebot settings from defaults, an optional YAML file
// and the environment (including .env files).
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/small-frappuccino/memebot/pkg/memes"
	"github.com/small-frappuccino/memebot/pkg/util"
)

// Config is the full process configuration.
type Config struct {
	Discord DiscordConfig `mapstructure:"discord"`
	Imgflip ImgflipConfig `mapstructure:"imgflip"`
	Meme    MemeConfig    `mapstructure:"meme"`
	Log     LogConfig     `mapstructure:"log"`
	Storage StorageConfig `mapstructure:"storage"`
	Control ControlConfig `mapstructure:"control"`
	Theme   string        `mapstructure:"theme"`
}

type DiscordConfig struct {
	Token    string `mapstructure:"token"`
	ClientID string `mapstructure:"client_id"`
	// GuildID scopes command registration to one guild; empty registers globally.
	GuildID string `mapstructure:"guild_id"`
}

type ImgflipConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type MemeConfig struct {
	ReplyVisibility   string `mapstructure:"reply_visibility"`
	Presentation      string `mapstructure:"presentation"`
	AutocompleteMatch string `mapstructure:"autocomplete_match"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type StorageConfig struct {
	// Path of the usage database. "off" disables usage tracking.
	Path string `mapstructure:"path"`
	// RetentionDays drops tally rows older than this many days; 0 keeps them.
	RetentionDays int `mapstructure:"retention_days"`
}

type ControlConfig struct {
	// Addr of the health/metrics server. Empty disables it.
	Addr string `mapstructure:"addr"`
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"discord.token":           "DISCORD_TOKEN",
	"discord.client_id":       "DISCORD_CLIENT_ID",
	"discord.guild_id":        "DISCORD_GUILD_ID",
	"imgflip.base_url":        "IMGFLIP_BASE_URL",
	"imgflip.username":        "IMGFLIP_USERNAME",
	"imgflip.password":        "IMGFLIP_PASSWORD",
	"meme.reply_visibility":   "MEMEBOT_REPLY_VISIBILITY",
	"meme.presentation":       "MEMEBOT_PRESENTATION",
	"meme.autocomplete_match": "MEMEBOT_AUTOCOMPLETE_MATCH",
	"log.level":               "MEMEBOT_LOG_LEVEL",
	"log.format":              "MEMEBOT_LOG_FORMAT",
	"log.file":                "MEMEBOT_LOG_FILE",
	"storage.path":            "MEMEBOT_DB_PATH",
	"storage.retention_days":  "MEMEBOT_USAGE_RETENTION_DAYS",
	"control.addr":            "MEMEBOT_CONTROL_ADDR",
	"theme":                   "MEMEBOT_THEME",
}

// Load reads configuration. configPath may be empty, in which case
// MEMEBOT_CONFIG is consulted and then ./memebot.yaml is tried; a missing
// default file is not an error.
func Load(configPath string) (*Config, error) {
	if _, err := util.LoadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("MEMEBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath == "" {
		_ = v.BindEnv("config_file", "MEMEBOT_CONFIG")
		configPath = v.GetString("config_file")
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("memebot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = util.GetUsageDBPath()
	}
	if cfg.Log.File == "" {
		cfg.Log.File = util.GetLogFilePath()
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := memes.DefaultOptions()
	v.SetDefault("imgflip.base_url", "https://api.imgflip.com")
	v.SetDefault("meme.reply_visibility", string(defaults.ReplyVisibility))
	v.SetDefault("meme.presentation", string(defaults.Presentation))
	v.SetDefault("meme.autocomplete_match", string(defaults.AutocompleteMatch))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("storage.retention_days", 90)
	v.SetDefault("control.addr", "")
	v.SetDefault("theme", "")
}

// Validate reports every missing or invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	required := []struct{ value, env string }{
		{c.Discord.Token, "DISCORD_TOKEN"},
		{c.Imgflip.Username, "IMGFLIP_USERNAME"},
		{c.Imgflip.Password, "IMGFLIP_PASSWORD"},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("%s is required", r.env))
		}
	}
	if _, err := c.MemeOptions(); err != nil {
		errs = append(errs, err)
	}
	if c.Storage.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("MEMEBOT_USAGE_RETENTION_DAYS must not be negative"))
	}
	return errors.Join(errs...)
}

// MemeOptions parses the meme reply policies.
func (c *Config) MemeOptions() (memes.Options, error) {
	var (
		opts memes.Options
		errs []error
		err  error
	)
	if opts.ReplyVisibility, err = memes.ParseVisibility(c.Meme.ReplyVisibility); err != nil {
		errs = append(errs, err)
	}
	if opts.Presentation, err = memes.ParsePresentation(c.Meme.Presentation); err != nil {
		errs = append(errs, err)
	}
	if opts.AutocompleteMatch, err = memes.ParseMatchPolicy(c.Meme.AutocompleteMatch); err != nil {
		errs = append(errs, err)
	}
	return opts, errors.Join(errs...)
}

// UsageEnabled reports whether the usage tally should be opened.
func (c *Config) UsageEnabled() bool {
	return !strings.EqualFold(strings.TrimSpace(c.Storage.Path), "off")
}
