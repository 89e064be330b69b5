// Package config provides Viper-based configuration loading for the loot engine.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Database drivers understood by DatabaseConfig.Driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig holds template data source connection settings.
type DatabaseConfig struct {
	// Driver selects the row source: "postgres" or "sqlite".
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// Path is the sqlite database file, used only when Driver is "sqlite".
	Path string `mapstructure:"path"`
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

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// RatesConfig holds the drop-rate multipliers applied during resolution.
type RatesConfig struct {
	Poor      float64 `mapstructure:"poor"`
	Normal    float64 `mapstructure:"normal"`
	Uncommon  float64 `mapstructure:"uncommon"`
	Rare      float64 `mapstructure:"rare"`
	Epic      float64 `mapstructure:"epic"`
	Legendary float64 `mapstructure:"legendary"`
	Artifact  float64 `mapstructure:"artifact"`
	// Referenced multiplies the chance of reference entries.
	Referenced float64 `mapstructure:"referenced"`
	// ReferencedAmount multiplies the repeat count of reference expansion.
	ReferencedAmount float64 `mapstructure:"referenced_amount"`
	// Money multiplies generated currency.
	Money float64 `mapstructure:"money"`
}

// Qualities returns the per-quality multipliers ordered poor..artifact.
func (r RatesConfig) Qualities() []float64 {
	return []float64{r.Poor, r.Normal, r.Uncommon, r.Rare, r.Epic, r.Legendary, r.Artifact}
}

// LimitsConfig bounds session pools and reference recursion.
type LimitsConfig struct {
	MaxLootItems           int `mapstructure:"max_loot_items"`
	MaxQuestItems          int `mapstructure:"max_quest_items"`
	MaxReferenceDepth      int `mapstructure:"max_reference_depth"`
	MaxReferenceExpansions int `mapstructure:"max_reference_expansions"`
}

// LootConfig groups the engine tuning sections.
type LootConfig struct {
	Rates  RatesConfig  `mapstructure:"rates"`
	Limits LimitsConfig `mapstructure:"limits"`
	// RewardDistance is the maximum distance at which a party member shares a loot session.
	RewardDistance float64 `mapstructure:"reward_distance"`
}

// ContentConfig locates the YAML and Lua content directories.
type ContentConfig struct {
	ItemsDir      string `mapstructure:"items_dir"`
	ConditionsDir string `mapstructure:"conditions_dir"`
	ScriptsDir    string `mapstructure:"scripts_dir"`
}

// ScriptingConfig holds Lua hook sandbox settings.
type ScriptingConfig struct {
	// InstructionLimit caps opcodes per VM; 0 selects the scripting default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Loot      LootConfig      `mapstructure:"loot"`
	Content   ContentConfig   `mapstructure:"content"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLoot(c.Loot); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	switch d.Driver {
	case DriverSQLite:
		if d.Path == "" {
			return errors.New("database.path must not be empty for the sqlite driver")
		}
		return nil
	case DriverPostgres:
	default:
		return fmt.Errorf("database.driver must be one of [postgres, sqlite], got %q", d.Driver)
	}

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

func validateLoot(l LootConfig) error {
	var errs []string
	names := []string{"poor", "normal", "uncommon", "rare", "epic", "legendary", "artifact"}
	for i, v := range l.Rates.Qualities() {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("loot.rates.%s must be >= 0, got %v", names[i], v))
		}
	}
	if l.Rates.Referenced < 0 {
		errs = append(errs, fmt.Sprintf("loot.rates.referenced must be >= 0, got %v", l.Rates.Referenced))
	}
	if l.Rates.ReferencedAmount < 0 {
		errs = append(errs, fmt.Sprintf("loot.rates.referenced_amount must be >= 0, got %v", l.Rates.ReferencedAmount))
	}
	if l.Rates.Money < 0 {
		errs = append(errs, fmt.Sprintf("loot.rates.money must be >= 0, got %v", l.Rates.Money))
	}
	if l.Limits.MaxLootItems < 1 || l.Limits.MaxLootItems > 255 {
		errs = append(errs, fmt.Sprintf("loot.limits.max_loot_items must be 1-255, got %d", l.Limits.MaxLootItems))
	}
	if l.Limits.MaxQuestItems < 0 || l.Limits.MaxLootItems+l.Limits.MaxQuestItems > 255 {
		errs = append(errs, fmt.Sprintf("loot.limits.max_quest_items must be >= 0 and fit a one-byte slot with max_loot_items, got %d", l.Limits.MaxQuestItems))
	}
	if l.Limits.MaxReferenceDepth < 1 {
		errs = append(errs, fmt.Sprintf("loot.limits.max_reference_depth must be >= 1, got %d", l.Limits.MaxReferenceDepth))
	}
	if l.Limits.MaxReferenceExpansions < 1 {
		errs = append(errs, fmt.Sprintf("loot.limits.max_reference_expansions must be >= 1, got %d", l.Limits.MaxReferenceExpansions))
	}
	if l.RewardDistance <= 0 {
		errs = append(errs, fmt.Sprintf("loot.reward_distance must be > 0, got %v", l.RewardDistance))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
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

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with LOOT_ prefix
	v.SetEnvPrefix("LOOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

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

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "loot")
	v.SetDefault("database.password", "loot")
	v.SetDefault("database.name", "world")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	for _, q := range []string{"poor", "normal", "uncommon", "rare", "epic", "legendary", "artifact"} {
		v.SetDefault("loot.rates."+q, 1.0)
	}
	v.SetDefault("loot.rates.referenced", 1.0)
	v.SetDefault("loot.rates.referenced_amount", 1.0)
	v.SetDefault("loot.rates.money", 1.0)
	v.SetDefault("loot.limits.max_loot_items", 16)
	v.SetDefault("loot.limits.max_quest_items", 32)
	v.SetDefault("loot.limits.max_reference_depth", 32)
	v.SetDefault("loot.limits.max_reference_expansions", 1024)
	v.SetDefault("loot.reward_distance", 74.0)

	v.SetDefault("content.items_dir", "content/items")
	v.SetDefault("content.conditions_dir", "content/conditions")
	v.SetDefault("content.scripts_dir", "content/scripts/loot")
}
