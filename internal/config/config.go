package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Scripts   ScriptsConfig   `yaml:"scripts"`
	Assets    AssetsConfig    `yaml:"assets"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Frontend  FrontendConfig  `yaml:"frontend"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ScriptsConfig binds booth events to the external scripts to launch.
type ScriptsConfig struct {
	Dir   string `yaml:"dir"`
	Start string `yaml:"start"`
	// Actions maps an event type to a script name. Only one binding ships
	// by default: session_end launches the web-upload script.
	Actions map[string]string `yaml:"actions"`
}

type AssetsConfig struct {
	ContentType string `yaml:"content_type"`
}

type BroadcastConfig struct {
	Throttle         time.Duration `yaml:"throttle"`
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
}

type FrontendConfig struct {
	Dir string `yaml:"dir"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8000,
			Host: "127.0.0.1",
		},
		Scripts: ScriptsConfig{
			Dir:   "scripts",
			Start: "toBooth.bat",
			Actions: map[string]string{
				"session_end": "toWeb.bat",
			},
		},
		Assets: AssetsConfig{
			ContentType: "image/jpeg",
		},
		Broadcast: BroadcastConfig{
			Throttle:         100 * time.Millisecond,
			SnapshotInterval: 5 * time.Second,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault returns defaults when no config file exists; any other read
// or parse failure is still an error.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return defaultConfig(), nil
	}
	return cfg, err
}
