// Package config provides Viper-based configuration loading for the event server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// TelnetConfig holds settings for the telnet chat gateway.
type TelnetConfig struct {
	// Host is the bind address for the Telnet listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the Telnet listener.
	Port int `mapstructure:"port"`
	// ReadTimeout is the per-read timeout for Telnet connections.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the per-write timeout for Telnet connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// MaxAuthAttempts bounds channel access-code retries per connection.
	MaxAuthAttempts int `mapstructure:"max_auth_attempts"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (t TelnetConfig) Addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// ProjectionConfig holds settings for the live fight projection feed.
type ProjectionConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// Addr returns the "host:port" listen address of the projection feed.
func (p ProjectionConfig) Addr() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// TracingConfig holds OpenTelemetry exporter settings. Tracing is opt-in.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

// EventConfig holds the live event's channels and tunables.
type EventConfig struct {
	// MasterChatID is the privileged controller channel; operator alerts go here too.
	MasterChatID int64 `mapstructure:"master_chat_id"`
	// HordeChatID receives fight notices for the Horde side.
	HordeChatID int64 `mapstructure:"horde_chat_id"`
	// AllianceChatID receives fight notices for the Alliance side.
	AllianceChatID int64 `mapstructure:"alliance_chat_id"`
	// FightVictoryXP is awarded to the winner of a duel.
	FightVictoryXP int `mapstructure:"fight_victory_xp"`
	// QuestionXP is awarded for a correct answer at a question door.
	QuestionXP int `mapstructure:"question_xp"`
	// RevealDelay pauses between a defense roll and the announced result.
	RevealDelay time.Duration `mapstructure:"reveal_delay"`
	// ResetDelay pauses before the projection switches to the next round.
	ResetDelay time.Duration `mapstructure:"reset_delay"`
	// AnnounceDelay pauses between the fight announcement and the tutorial.
	AnnounceDelay time.Duration `mapstructure:"announce_delay"`
	// MessagesFile optionally overrides the embedded message catalog.
	MessagesFile string `mapstructure:"messages_file"`
}

// MediaConfig holds blob store settings.
type MediaConfig struct {
	// Root is the directory media blobs are read from.
	Root string `mapstructure:"root"`
}

// Config is the top-level application configuration.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Telnet     TelnetConfig     `mapstructure:"telnet"`
	Projection ProjectionConfig `mapstructure:"projection"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Event      EventConfig      `mapstructure:"event"`
	Media      MediaConfig      `mapstructure:"media"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	for _, err := range []error{
		validateDatabase(c.Database),
		validateTelnet(c.Telnet),
		validateProjection(c.Projection),
		validateLogging(c.Logging),
		validateTracing(c.Tracing),
		validateEvent(c.Event),
		validateMedia(c.Media),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateTelnet(t TelnetConfig) error {
	var errs []string
	if t.Port < 0 || t.Port > 65535 {
		errs = append(errs, fmt.Sprintf("telnet.port must be 0-65535, got %d", t.Port))
	}
	if t.ReadTimeout < 0 {
		errs = append(errs, "telnet.read_timeout must not be negative")
	}
	if t.WriteTimeout < 0 {
		errs = append(errs, "telnet.write_timeout must not be negative")
	}
	if t.MaxAuthAttempts < 1 {
		errs = append(errs, fmt.Sprintf("telnet.max_auth_attempts must be >= 1, got %d", t.MaxAuthAttempts))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateProjection(p ProjectionConfig) error {
	if !p.Enabled {
		return nil
	}
	if p.Port < 0 || p.Port > 65535 {
		return fmt.Errorf("projection.port must be 0-65535, got %d", p.Port)
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateTracing(t TracingConfig) error {
	if !t.Enabled {
		return nil
	}
	var errs []string
	if t.Endpoint == "" {
		errs = append(errs, "tracing.endpoint must not be empty when tracing is enabled")
	}
	if t.ServiceName == "" {
		errs = append(errs, "tracing.service_name must not be empty when tracing is enabled")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateEvent(e EventConfig) error {
	var errs []string
	if e.MasterChatID == 0 {
		errs = append(errs, "event.master_chat_id must be set")
	}
	if e.HordeChatID == 0 {
		errs = append(errs, "event.horde_chat_id must be set")
	}
	if e.AllianceChatID == 0 {
		errs = append(errs, "event.alliance_chat_id must be set")
	}
	if e.HordeChatID != 0 && e.HordeChatID == e.AllianceChatID {
		errs = append(errs, "event.horde_chat_id and event.alliance_chat_id must differ")
	}
	if e.FightVictoryXP < 0 {
		errs = append(errs, fmt.Sprintf("event.fight_victory_xp must be >= 0, got %d", e.FightVictoryXP))
	}
	if e.QuestionXP < 0 {
		errs = append(errs, fmt.Sprintf("event.question_xp must be >= 0, got %d", e.QuestionXP))
	}
	if e.RevealDelay < 0 || e.ResetDelay < 0 || e.AnnounceDelay < 0 {
		errs = append(errs, "event delays must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateMedia(m MediaConfig) error {
	if m.Root == "" {
		return fmt.Errorf("media.root must not be empty")
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with DRAGONFAIR_ prefix
	v.SetEnvPrefix("DRAGONFAIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetDefaults applies every default to v. Exposed for callers that build
// their own Viper instance.
func SetDefaults(v *viper.Viper) { setDefaults(v) }

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "dragonfair")
	v.SetDefault("database.password", "dragonfair")
	v.SetDefault("database.name", "dragonfair")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("telnet.host", "0.0.0.0")
	v.SetDefault("telnet.port", 4000)
	v.SetDefault("telnet.read_timeout", "30m")
	v.SetDefault("telnet.write_timeout", "30s")
	v.SetDefault("telnet.max_auth_attempts", 3)

	v.SetDefault("projection.enabled", true)
	v.SetDefault("projection.host", "0.0.0.0")
	v.SetDefault("projection.port", 8080)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "dragonfair")

	v.SetDefault("event.fight_victory_xp", 10)
	v.SetDefault("event.question_xp", 5)
	v.SetDefault("event.reveal_delay", "3s")
	v.SetDefault("event.reset_delay", "5s")
	v.SetDefault("event.announce_delay", "5s")

	v.SetDefault("media.root", "content/media")
}
