package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for MyHealth
type Config struct {
	Storage       StorageConfig       `mapstructure:"storage"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// StorageConfig holds database settings
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	SQLitePath string `mapstructure:"sqlite_path"`
	BadgerPath string `mapstructure:"badger_path"`
	// SchemaVersion is compared against the persisted version on open; a
	// mismatch resets the relational schema (data loss accepted on upgrade).
	SchemaVersion int `mapstructure:"schema_version"`
}

// NotificationsConfig holds local notification settings
type NotificationsConfig struct {
	// ExactAlarms mimics the platform exact-alarm permission; when false the
	// scheduler silently skips one-shot scheduling.
	ExactAlarms bool `mapstructure:"exact_alarms"`
	// WaterReminderHour is the hour of day (0-23) for the recurring water
	// intake reminder. Negative disables it.
	WaterReminderHour int `mapstructure:"water_reminder_hour"`
	// SleepReminder enables the recurring bedtime reminder derived from the
	// stored sleep schedule.
	SleepReminder bool `mapstructure:"sleep_reminder"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from file, env, and defaults
func Load(configPath, dataDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if dataDir == "" {
		dataDir = getDefaultDataDir()
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	v.Set("storage.data_dir", dataDir)
	v.Set("storage.sqlite_path", filepath.Join(dataDir, "myhealth.db"))
	v.Set("storage.badger_path", filepath.Join(dataDir, "badger"))

	if configPath == "" {
		configPath = filepath.Join(dataDir, "myhealth.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Environment variables (MYHEALTH_STORAGE_DATA_DIR, etc.)
	v.SetEnvPrefix("MYHEALTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.schema_version", 1)

	v.SetDefault("notifications.exact_alarms", true)
	v.SetDefault("notifications.water_reminder_hour", -1)
	v.SetDefault("notifications.sleep_reminder", false)

	v.SetDefault("logging.level", "info")
}

func getDefaultDataDir() string {
	// Try XDG_DATA_HOME first
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "myhealth")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}

	return filepath.Join(home, ".local", "share", "myhealth")
}

// loadEnvOverrides loads specific env vars that Viper doesn't pick up once
// keys were set programmatically
func loadEnvOverrides(cfg *Config) {
	getEnv := func(key, fallback string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return fallback
	}

	cfg.Storage.DataDir = getEnv("MYHEALTH_STORAGE_DATA_DIR", cfg.Storage.DataDir)
	cfg.Logging.Level = getEnv("MYHEALTH_LOGGING_LEVEL", cfg.Logging.Level)

	if hour := os.Getenv("MYHEALTH_NOTIFICATIONS_WATER_REMINDER_HOUR"); hour != "" {
		if h, err := strconv.Atoi(hour); err == nil {
			cfg.Notifications.WaterReminderHour = h
		}
	}
	if exact := os.Getenv("MYHEALTH_NOTIFICATIONS_EXACT_ALARMS"); exact != "" {
		if b, err := strconv.ParseBool(exact); err == nil {
			cfg.Notifications.ExactAlarms = b
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Storage.SQLitePath == "" {
		return fmt.Errorf("storage.sqlite_path is required")
	}
	if cfg.Storage.BadgerPath == "" {
		return fmt.Errorf("storage.badger_path is required")
	}
	if cfg.Notifications.WaterReminderHour > 23 {
		return fmt.Errorf("notifications.water_reminder_hour must be below 24, got %d", cfg.Notifications.WaterReminderHour)
	}
	return nil
}
