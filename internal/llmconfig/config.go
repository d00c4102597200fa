// Package llmconfig is the provider/model/command configuration surface
// (spec §6): a viper-backed loader supporting JSON (preferred) and a legacy
// INI file, under the XDG config directory. Grounded on
// internal/config/config.go's Load/GetConfigDir/mapstructure-tag shape,
// narrowed to the fields this core actually consumes (provider credentials,
// MCP server sets, per-command enablement) rather than the teacher's much
// larger per-subcommand config surface (image/embed/search/tools/...), which
// belongs to subsystems this module does not implement.
package llmconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/samsaffron/hermes-go/internal/mcpmanager"
)

// CommandMode is the enablement state of one embedded-language command.
type CommandMode string

const (
	CommandOn        CommandMode = "ON"
	CommandOff       CommandMode = "OFF"
	CommandAgentOnly CommandMode = "AGENT_ONLY"
)

// ProviderConfig holds one provider's credentials and defaults.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// MCPConfig lists the two disjoint server sets spec §4.7 routes commands
// for: chat-mode servers and deep-research-mode servers.
type MCPConfig struct {
	ChatServers         map[string]mcpmanager.ServerConfig `mapstructure:"chat_servers"`
	DeepResearchServers map[string]mcpmanager.ServerConfig `mapstructure:"deep_research_servers"`
}

// Config is the complete configuration surface this module consumes.
type Config struct {
	DefaultModel string                    `mapstructure:"default_model"`
	Providers    map[string]ProviderConfig `mapstructure:"providers"`
	MCP          MCPConfig                 `mapstructure:"mcp"`
	Commands     map[string]CommandMode    `mapstructure:"commands"`
}

// Load reads configuration from the conventional location, preferring
// config.json and falling back to a legacy config.ini if present (spec §6).
// A missing file is not an error; defaults apply. An empty configDir
// resolves via GetConfigDir.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		dir, err := GetConfigDir()
		if err != nil {
			return nil, fmt.Errorf("llmconfig: resolve config dir: %w", err)
		}
		configDir = dir
	}

	v := viper.New()
	v.SetDefault("default_model", "")
	v.SetDefault("commands", map[string]string{})

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("llmconfig: read config.json: %w", err)
		}
		if err := readLegacyINI(v, configDir); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("llmconfig: unmarshal config: %w", err)
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	if cfg.Commands == nil {
		cfg.Commands = make(map[string]CommandMode)
	}
	return &cfg, nil
}

// readLegacyINI loads config.ini into v if present, for installs carried
// over from before the JSON format (spec §6: "INI, legacy"). Missing is not
// an error — a fresh install has neither file and relies on defaults/env.
func readLegacyINI(v *viper.Viper, configDir string) error {
	path := filepath.Join(configDir, "config.ini")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("llmconfig: read legacy config.ini: %w", err)
	}
	return nil
}

// GetConfigDir returns the XDG config directory for hermes: $XDG_CONFIG_HOME/hermes
// or ~/.config/hermes.
func GetConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "hermes"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "hermes"), nil
}

// CommandModeFor resolves the configured mode for a command name, defaulting
// to ON when unconfigured (spec §6's "commands" map only lists overrides).
func (c *Config) CommandModeFor(name string) CommandMode {
	if mode, ok := c.Commands[name]; ok {
		return mode
	}
	return CommandOn
}

// ActiveProvider returns the config for DefaultModel's provider component,
// accepting either a bare provider name or a "provider:model" pair (spec §6
// mirrors the teacher's provider:model override syntax).
func (c *Config) ActiveProvider() (name string, cfg ProviderConfig, ok bool) {
	name, _ = ParseProviderModel(c.DefaultModel)
	if name == "" {
		return "", ProviderConfig{}, false
	}
	cfg, ok = c.Providers[name]
	return name, cfg, ok
}

// ParseProviderModel splits "provider:model" into its two parts; model is
// empty if no colon is present.
func ParseProviderModel(s string) (provider, model string) {
	parts := strings.SplitN(s, ":", 2)
	provider = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		model = strings.TrimSpace(parts[1])
	}
	return provider, model
}
