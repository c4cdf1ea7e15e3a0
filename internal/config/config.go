package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Database DatabaseConfig `toml:"database" mapstructure:"database"`
	Agent    AgentConfig    `toml:"agent" mapstructure:"agent"`
	Log      LogConfig      `toml:"log" mapstructure:"log"`
	Tasks    TasksConfig    `toml:"tasks" mapstructure:"tasks"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string `toml:"path" mapstructure:"path"`
}

// AgentConfig identifies the sales agent using the inbox
type AgentConfig struct {
	// Name is matched against a contact's assigned agent for the
	// "Assigned to Me" filter, and signs notes.
	Name string `toml:"name" mapstructure:"name"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `toml:"level" mapstructure:"level"`
	Format string `toml:"format" mapstructure:"format"`
	Path   string `toml:"path" mapstructure:"path"`
}

// TasksConfig selects the follow-up task backend ("" picks the first available)
type TasksConfig struct {
	Backend string `toml:"backend" mapstructure:"backend"`
}

// Default returns the default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(homeDir, ".config", "leadbox", "leadbox.db"),
		},
		Agent: AgentConfig{
			Name: "Pedro Agente",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Path:   filepath.Join(homeDir, ".local", "state", "leadbox", "leadbox.log"),
		},
	}
}

// Path returns the config file location, honouring LEADBOX_CONFIG
func Path() (string, error) {
	if p := os.Getenv("LEADBOX_CONFIG"); p != "" {
		return expandPath(p), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}
	return filepath.Join(homeDir, ".config", "leadbox", "config.toml"), nil
}

// Load loads configuration from the standard location
func Load() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom loads configuration from a specific path. Missing files yield
// the defaults; LEADBOX_* environment variables override file values
// (LEADBOX_DATABASE_PATH, LEADBOX_AGENT_NAME, ...).
func LoadFrom(configPath string) (*Config, error) {
	def := Default()

	v := viper.New()
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("agent.name", def.Agent.Name)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.path", def.Log.Path)
	v.SetDefault("tasks.backend", def.Tasks.Backend)

	v.SetConfigType("toml")
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("LEADBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Check if config file exists
	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	// Expand home directory in paths
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Log.Path = expandPath(cfg.Log.Path)

	return cfg, nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save saves the configuration to the standard location
func (c *Config) Save() error {
	configPath, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(configPath)
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return nil
}
