// Package branding provides compile-time identity values for the CLI.
//
// branding.yaml is embedded into the binary; forks change the command name,
// config directory and env prefix there instead of in code.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName         string `yaml:"cli_name"`
	DisplayName     string `yaml:"display_name"`
	Description     string `yaml:"description"`
	HomeDir         string `yaml:"home_dir"`
	EnvPrefix       string `yaml:"env_prefix"`
	GitHubRepo      string `yaml:"github_repo"`
	DefaultTemplate string `yaml:"default_template"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:         "create-yawuxi-app",
			DisplayName:     "Yawuxi App",
			Description:     "Scaffold a React + TypeScript + Webpack project",
			HomeDir:         ".create-yawuxi-app",
			EnvPrefix:       "YAWUXI",
			GitHubRepo:      "yawuxi/create-yawuxi-app",
			DefaultTemplate: "react-webpack",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "create-yawuxi-app").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME holding config.yaml.
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "YAWUXI").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GitHubRepo returns the "owner/repo" string.
func GitHubRepo() string { load(); return defaults.GitHubRepo }

// DefaultTemplate returns the template set used when none is configured.
func DefaultTemplate() string { load(); return defaults.DefaultTemplate }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("log_level") → "YAWUXI_LOG_LEVEL".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
