package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/graaaaa/rolecall/internal/fsutil"
)

// CurrentSchemaVersion is the current config schema version.
const CurrentSchemaVersion = 1

// EnvPrefix prefixes every environment override, e.g. ROLECALL_CHANNEL_ID.
// Priority: Environment > Config File > Default
const EnvPrefix = "ROLECALL_"

// RoleConfig is one role and how many of it a team needs.
type RoleConfig struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"gte=0"`
}

// StoreConfig selects the document backend.
type StoreConfig struct {
	Backend  string `json:"backend" env:"BACKEND" validate:"oneof=file sqlite redis"`
	Path     string `json:"path" env:"PATH"`
	RedisURL string `json:"redis_url" env:"REDIS_URL" validate:"required_if=Backend redis"`
	RedisKey string `json:"redis_key" env:"REDIS_KEY"`
}

// Config holds non-sensitive application configuration.
type Config struct {
	SchemaVersion int `json:"schema_version"`

	ChannelID     string `json:"channel_id" env:"CHANNEL_ID" validate:"required"`
	CommandPrefix string `json:"command_prefix" env:"COMMAND_PREFIX" validate:"required,excludesall= \""`
	Timezone      string `json:"timezone" env:"TIMEZONE" validate:"required,timezone"`

	// Message templates. {title} and {time} are replaced.
	AnnouncementMessage string `json:"announcement_message" env:"ANNOUNCEMENT_MESSAGE"`
	StartMessage        string `json:"start_message" env:"START_MESSAGE"`
	DescriptionMessage  string `json:"description_message" env:"DESCRIPTION_MESSAGE"`
	EmptyMessage        string `json:"empty_message" env:"EMPTY_MESSAGE"`

	Roles             []RoleConfig `json:"roles" validate:"required,min=1,unique=Name,dive"`
	RandomBackfilling bool         `json:"random_backfilling" env:"RANDOM_BACKFILLING"`
	FlexRoles         bool         `json:"flex_roles" env:"FLEX_ROLES"`
	ScrambleEntries   bool         `json:"scramble_entries" env:"SCRAMBLE_ENTRIES"`

	ConfigureTimeoutSec int `json:"configure_timeout_sec" env:"CONFIGURE_TIMEOUT_SEC" validate:"gte=1"`
	ReactIntervalMS     int `json:"react_interval_ms" env:"REACT_INTERVAL_MS" validate:"gte=0"`
	ConnectAttempts     int `json:"connect_attempts" env:"CONNECT_ATTEMPTS" validate:"gte=1"`

	Store StoreConfig `json:"store" envPrefix:"STORE_"`

	HTTPEnabled bool `json:"http_enabled" env:"HTTP_ENABLED"`
	Port        int  `json:"port" env:"PORT" validate:"min=1,max=65535"`
}

// DefaultConfig returns a Config with sensible defaults. ChannelID has no
// default and must be configured.
func DefaultConfig() Config {
	return Config{
		SchemaVersion:       CurrentSchemaVersion,
		CommandPrefix:       "!rc",
		Timezone:            "UTC",
		AnnouncementMessage: "{title} @ {time}",
		StartMessage:        "{title} is starting!",
		DescriptionMessage:  "Here are the groups for {title}:",
		EmptyMessage:        "Not enough signups to form a group for {title}.",
		Roles: []RoleConfig{
			{Name: "DPS", Count: 3},
			{Name: "Tank", Count: 1},
			{Name: "Support", Count: 1},
		},
		RandomBackfilling:   false,
		FlexRoles:           false,
		ScrambleEntries:     false,
		ConfigureTimeoutSec: 60,
		ReactIntervalMS:     500,
		ConnectAttempts:     5,
		Store: StoreConfig{
			Backend: "file",
		},
		HTTPEnabled: false,
		Port:        8080,
	}
}

// Location resolves Timezone. Validate guarantees it loads.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ConfigureTimeout returns ConfigureTimeoutSec as a duration.
func (c Config) ConfigureTimeout() time.Duration {
	return time.Duration(c.ConfigureTimeoutSec) * time.Second
}

// ReactInterval returns ReactIntervalMS as a duration.
func (c Config) ReactInterval() time.Duration {
	return time.Duration(c.ReactIntervalMS) * time.Millisecond
}

// RoleNames returns the configured role names in order.
func (c Config) RoleNames() []string {
	names := make([]string, len(c.Roles))
	for i, r := range c.Roles {
		names[i] = r.Name
	}
	return names
}

// LoadConfig reads config from disk. If the file doesn't exist or is corrupt,
// it returns DefaultConfig with a warning logged (non-fatal).
func LoadConfig() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}

	return LoadConfigFrom(path)
}

// LoadConfigFrom reads config from the specified path.
func LoadConfigFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// File doesn't exist, use defaults (not an error)
			return cfg, nil
		}
		slog.Warn("failed to read config file, using defaults", "path", path, "error", err)
		return cfg, nil
	}

	// Decoding over the defaults keeps them for omitted fields.
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&cfg); err != nil {
		slog.Warn("config file is corrupt, using defaults", "path", path, "error", err)
		return DefaultConfig(), nil
	}

	if cfg.SchemaVersion != CurrentSchemaVersion {
		slog.Warn("config schema version mismatch, using defaults",
			"got", cfg.SchemaVersion,
			"expected", CurrentSchemaVersion,
		)
		return DefaultConfig(), nil
	}

	return normalizeConfig(cfg), nil
}

// normalizeConfig fills blank or out-of-range values with defaults.
// Values that cannot be repaired (a missing channel id, an unknown
// timezone) are left for Validate to report.
func normalizeConfig(cfg Config) Config {
	defaults := DefaultConfig()

	cfg.SchemaVersion = CurrentSchemaVersion
	cfg.CommandPrefix = strings.TrimSpace(cfg.CommandPrefix)
	cfg.ChannelID = strings.TrimSpace(cfg.ChannelID)
	cfg.Timezone = strings.TrimSpace(cfg.Timezone)

	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = defaults.CommandPrefix
	}
	if cfg.Timezone == "" {
		cfg.Timezone = defaults.Timezone
	}
	if cfg.AnnouncementMessage == "" {
		cfg.AnnouncementMessage = defaults.AnnouncementMessage
	}
	if cfg.StartMessage == "" {
		cfg.StartMessage = defaults.StartMessage
	}
	if cfg.DescriptionMessage == "" {
		cfg.DescriptionMessage = defaults.DescriptionMessage
	}
	if cfg.EmptyMessage == "" {
		cfg.EmptyMessage = defaults.EmptyMessage
	}
	if len(cfg.Roles) == 0 {
		cfg.Roles = defaults.Roles
	}
	if cfg.ConfigureTimeoutSec <= 0 {
		cfg.ConfigureTimeoutSec = defaults.ConfigureTimeoutSec
	}
	if cfg.ReactIntervalMS < 0 {
		cfg.ReactIntervalMS = defaults.ReactIntervalMS
	}
	if cfg.ConnectAttempts <= 0 {
		cfg.ConnectAttempts = defaults.ConnectAttempts
	}
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = defaults.Store.Backend
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		cfg.Port = defaults.Port
	}

	return cfg
}

// SaveConfig writes config to disk atomically.
func SaveConfig(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	return SaveConfigTo(cfg, path)
}

// SaveConfigTo writes config to the specified path atomically.
func SaveConfigTo(cfg Config, path string) error {
	cfg.SchemaVersion = CurrentSchemaVersion

	return fsutil.WriteJSONAtomic(path, cfg)
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set are not overridden. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnvOverrides applies ROLECALL_* environment variables to the config.
// Environment variables take highest priority over config file values.
// On a malformed value the config is returned unchanged with the error.
func ApplyEnvOverrides(cfg Config) (Config, error) {
	out := cfg
	out.Roles = append([]RoleConfig(nil), cfg.Roles...)
	if err := env.ParseWithOptions(&out, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return normalizeConfig(out), nil
}

var validate = validator.New()

// Validate reports every invalid field in one error.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		switch fe.Tag() {
		case "required", "required_if":
			msgs = append(msgs, field+" is required")
		case "timezone":
			msgs = append(msgs, fmt.Sprintf("%s %q is not a known timezone", field, fe.Value()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		case "unique":
			msgs = append(msgs, field+" must not repeat a role name")
		case "min", "gte":
			msgs = append(msgs, field+" must be at least "+fe.Param())
		case "max":
			msgs = append(msgs, field+" must be at most "+fe.Param())
		case "excludesall":
			msgs = append(msgs, field+" must not contain spaces or quotes")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")
