// Package config provides YAML-based configuration loading for the
// bridge server and battle defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	_ "embed"
)

//go:embed defaults/bridge.yaml
var defaultYAML []byte

// Config carries the server and battle settings.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Battle BattleConfig `yaml:"battle"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig defines the HTTP listener for the spectator server.
type ServerConfig struct {
	Addr   string `yaml:"addr"`
	WSPath string `yaml:"ws_path"`
}

// BattleConfig defines defaults for new battles.
type BattleConfig struct {
	Seed  uint64 `yaml:"seed"`
	Level uint8  `yaml:"level"`
}

// LogConfig defines logging behavior.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the hardcoded fallback configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:   ":8040",
			WSPath: "/ws",
		},
		Battle: BattleConfig{
			Seed:  0x123456789ABCDEF,
			Level: 100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration.
// Search order: customPath -> ~/.pkmn-bridge/bridge.yaml -> ./configs/bridge.yaml -> embedded default
func Load(customPath string) (Config, error) {
	var cfg Config

	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, cfg.validate()
	}

	if userCfgPath := userConfigPath("bridge.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil && cfg.validate() == nil {
				return cfg, nil
			}
		}
	}

	if data, err := os.ReadFile("configs/bridge.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil && cfg.validate() == nil {
			return cfg, nil
		}
	}

	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		return Default(), nil
	}
	return cfg, cfg.validate()
}

func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pkmn-bridge", filename)
}

func (c Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server.addr must not be empty")
	}
	if c.Server.WSPath == "" || c.Server.WSPath[0] != '/' {
		return fmt.Errorf("config: server.ws_path %q must start with /", c.Server.WSPath)
	}
	if c.Battle.Level < 1 || c.Battle.Level > 100 {
		return fmt.Errorf("config: battle.level %d outside [1, 100]", c.Battle.Level)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("config: unknown log.level %q", c.Log.Level)
	}
}
