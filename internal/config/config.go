package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Device   DeviceSettings  `mapstructure:"device"`
	General  GeneralSettings `mapstructure:"general"`
	Catalog  CatalogConfig   `mapstructure:"catalog"`
	ADB      ADBConfig       `mapstructure:"adb"`
	Database DatabaseConfig  `mapstructure:"database"`
	Journal  JournalConfig   `mapstructure:"journal"`
	Log      LogConfig       `mapstructure:"log"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
	UI       UIConfig        `mapstructure:"ui"`
}

// DeviceSettings shape how actions are applied to the device.
type DeviceSettings struct {
	DisableMode   bool `mapstructure:"disable_mode"`
	MultiUserMode bool `mapstructure:"multi_user_mode"`
}

// GeneralSettings hold operator-level switches.
type GeneralSettings struct {
	ExpertMode bool `mapstructure:"expert_mode"`
}

// CatalogConfig controls where package classifications come from.
type CatalogConfig struct {
	Remote      bool          `mapstructure:"remote"`
	URL         string        `mapstructure:"url"`
	OverlayPath string        `mapstructure:"overlay_path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Retries     int           `mapstructure:"retries"`
}

// ADBConfig locates the transport and the preferred device.
type ADBConfig struct {
	Path   string `mapstructure:"path"`
	Serial string `mapstructure:"serial"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// JournalConfig bounds the action journal.
type JournalConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
}

// LogConfig holds zap settings.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Path        string `mapstructure:"path"`
	Development bool   `mapstructure:"development"`
}

// MetricsConfig holds the optional textfile export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	KeybindingsPath string `mapstructure:"keybindings_path"`
}

const defaultCatalogURL = "https://raw.githubusercontent.com/Universal-Debloater-Alliance/universal-android-debloater-next-generation/main/resources/assets/uad_lists.json"

// Path returns the config file location. UAD_CONFIG overrides the default.
func Path() string {
	if p := os.Getenv("UAD_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "uad-ng", "config.toml")
}

func setDefaults(v *viper.Viper) {
	home := os.Getenv("HOME")
	v.SetDefault("device.disable_mode", false)
	v.SetDefault("device.multi_user_mode", true)
	v.SetDefault("general.expert_mode", false)
	v.SetDefault("catalog.remote", true)
	v.SetDefault("catalog.url", defaultCatalogURL)
	v.SetDefault("catalog.overlay_path", "")
	v.SetDefault("catalog.timeout", 15*time.Second)
	v.SetDefault("catalog.retries", 2)
	v.SetDefault("adb.path", "adb")
	v.SetDefault("adb.serial", "")
	v.SetDefault("database.path", filepath.Join(home, ".local", "share", "uad-ng", "uad-ng.db"))
	v.SetDefault("journal.retention_days", 90)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", filepath.Join(home, ".local", "state", "uad-ng", "uad-ng.log"))
	v.SetDefault("log.development", false)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("ui.keybindings_path", filepath.Join(home, ".config", "uad-ng", "keybindings.toml"))
}

// Load reads configuration from file and env. Env var overrides use prefix UAD_.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads configuration from path. A missing file is not an error.
func LoadFrom(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	v.SetConfigFile(path)

	v.SetEnvPrefix("UAD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to its file, creating the config
// directory if needed. The TUI calls it when a toggle changes.
func Save(cfg Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes cfg to path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("device.disable_mode", cfg.Device.DisableMode)
	v.Set("device.multi_user_mode", cfg.Device.MultiUserMode)
	v.Set("general.expert_mode", cfg.General.ExpertMode)
	v.Set("catalog.remote", cfg.Catalog.Remote)
	v.Set("catalog.url", cfg.Catalog.URL)
	v.Set("catalog.overlay_path", cfg.Catalog.OverlayPath)
	v.Set("catalog.timeout", cfg.Catalog.Timeout.String())
	v.Set("catalog.retries", cfg.Catalog.Retries)
	v.Set("adb.path", cfg.ADB.Path)
	v.Set("adb.serial", cfg.ADB.Serial)
	v.Set("database.path", cfg.Database.Path)
	v.Set("journal.retention_days", cfg.Journal.RetentionDays)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.path", cfg.Log.Path)
	v.Set("log.development", cfg.Log.Development)
	v.Set("metrics.textfile", cfg.Metrics.Textfile)
	v.Set("ui.keybindings_path", cfg.UI.KeybindingsPath)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
