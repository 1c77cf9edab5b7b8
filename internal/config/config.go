package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/yawuxi/create-yawuxi-app/internal/branding"
	"github.com/yawuxi/create-yawuxi-app/internal/logger"
	"github.com/yawuxi/create-yawuxi-app/internal/templates"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Configuration keys. Flags of the same name (with dashes) override them.
const (
	KeyTemplate       = "template"
	KeyPackageManager = "package_manager"
	KeyInstallArgs    = "install_args"
	KeySkipInstall    = "skip_install"
	KeyDryRun         = "dry_run"
	KeyLogLevel       = "log_level"
)

// Config is everything a run needs from the outside world. It is built once
// by the command layer and passed down explicitly.
type Config struct {
	// WorkDir is the directory the project is created in.
	WorkDir        string
	Template       string
	PackageManager string
	InstallArgs    []string
	SkipInstall    bool
	DryRun         bool
	LogLevel       string
}

// Keys lists the settings accepted by "config set".
func Keys() []string {
	return []string{KeyTemplate, KeyPackageManager, KeyInstallArgs, KeySkipInstall, KeyLogLevel}
}

// Dir returns the config directory (~/.create-yawuxi-app/), overridable with
// YAWUXI_HOME.
func Dir() string {
	if v := os.Getenv(branding.EnvVar("HOME")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file.
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(FilePath())
	v.SetConfigType(fileType)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyTemplate, branding.DefaultTemplate())
	v.SetDefault(KeyPackageManager, "npm")
	v.SetDefault(KeyInstallArgs, []string{"install"})
	v.SetDefault(KeySkipInstall, false)
	v.SetDefault(KeyDryRun, false)
	v.SetDefault(KeyLogLevel, "warn")
	return v
}

// Load resolves the configuration from defaults, the config file, YAWUXI_*
// environment variables and, when flags is non-nil, command-line flags, in
// increasing order of precedence. workDir is recorded as-is.
func Load(workDir string, flags *pflag.FlagSet) (*Config, error) {
	v := newViper()

	// A missing config file is normal.
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(FilePath()); statErr == nil {
			return nil, fmt.Errorf("reading config file %s: %w", FilePath(), err)
		}
	}

	if flags != nil {
		for _, key := range []string{KeyTemplate, KeyPackageManager, KeySkipInstall, KeyDryRun, KeyLogLevel} {
			flag := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", flag.Name, err)
			}
		}
	}

	cfg := &Config{
		WorkDir:        workDir,
		Template:       v.GetString(KeyTemplate),
		PackageManager: v.GetString(KeyPackageManager),
		InstallArgs:    v.GetStringSlice(KeyInstallArgs),
		SkipInstall:    v.GetBool(KeySkipInstall),
		DryRun:         v.GetBool(KeyDryRun),
		LogLevel:       v.GetString(KeyLogLevel),
	}
	if cfg.PackageManager == "" {
		return nil, fmt.Errorf("%s must not be empty", KeyPackageManager)
	}
	if len(cfg.InstallArgs) == 0 {
		cfg.InstallArgs = []string{"install"}
	}
	return cfg, nil
}

// Get returns a config value by key as resolved from file and environment.
// Returns empty string if not set.
func Get(key string) string {
	v := newViper()
	_ = v.ReadInConfig()
	if key == KeyInstallArgs {
		return strings.Join(v.GetStringSlice(key), " ")
	}
	return v.GetString(key)
}

// Set writes a config key-value pair to the config file.
func Set(key, value string) error {
	if !isKnownKey(key) {
		return fmt.Errorf("unknown key %q (known keys: %s)", key, strings.Join(Keys(), ", "))
	}
	parsed, err := parseValue(key, value)
	if err != nil {
		return err
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	// Only the file is rewritten, so env overrides must not leak into it.
	v := viper.New()
	v.SetConfigType(fileType)
	configFile := FilePath()
	if _, err := os.Stat(configFile); err == nil {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	v.Set(key, parsed)

	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// parseValue checks value for key and converts it to the type stored in the
// file. A value Load would reject is never written.
func parseValue(key, value string) (any, error) {
	switch key {
	case KeyPackageManager:
		if strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("%s must not be empty", key)
		}
		return value, nil
	case KeyInstallArgs:
		return strings.Fields(value), nil
	case KeySkipInstall:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false, got %q", key, value)
		}
		return b, nil
	case KeyLogLevel:
		if _, err := logger.ParseLevel(value); err != nil {
			return nil, err
		}
		return value, nil
	case KeyTemplate:
		names, err := templates.Names()
		if err != nil {
			return nil, err
		}
		if !slices.Contains(names, value) {
			return nil, fmt.Errorf("unknown template %q (available: %s)", value, strings.Join(names, ", "))
		}
		return value, nil
	}
	return value, nil
}

func isKnownKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}
