package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/bryanchriswhite/VRPlayer/internal/logger"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Manager handles configuration
type Manager struct {
	configPath string
	config     *Config
	viper      *viper.Viper
	mu         sync.RWMutex

	watching       bool
	skipNextReload bool
	callbacks      []func(*Config)
}

// DefaultPath returns ~/.config/vrplayer/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "vrplayer", "config.yaml"), nil
}

// NewManager loads configFile, or the default path when empty, writing
// defaults when the file does not exist yet.
func NewManager(configFile string) (*Manager, error) {
	path := configFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	m := &Manager{
		configPath: path,
		viper:      viper.New(),
	}
	m.viper.SetConfigFile(path)
	m.viper.SetConfigType("yaml")

	if err := m.load(true); err != nil {
		if os.IsNotExist(err) {
			logger.WithComponent("config").Info().
				Str("path", m.configPath).
				Msg("Config file not found, creating new config")
			m.config = Defaults()
			if err := m.Save(); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
			if err := m.viper.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger.WithComponent("config").Info().
		Str("path", m.configPath).
		Int("key_overrides", len(m.config.Keys)).
		Msg("Config loaded")

	return m, nil
}

// load reads the configuration from disk. syncViper is false when viper
// has already re-read the file itself.
func (m *Manager) load(syncViper bool) error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", m.configPath, err)
	}
	if syncViper {
		if err := m.viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	m.mu.Lock()
	m.config = &cfg
	m.mu.Unlock()
	return nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg := *m.config
	cfg.Keys = make(map[string]string, len(m.config.Keys))
	for k, v := range m.config.Keys {
		cfg.Keys[k] = v
	}
	return &cfg
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	cfg := m.config
	if cfg == nil {
		cfg = Defaults()
	}
	m.skipNextReload = m.watching
	m.mu.Unlock()

	log := logger.WithComponent("config")

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		log.Error().
			Err(err).
			Str("path", m.configPath).
			Msg("Failed to write config")
		return err
	}

	log.Info().
		Str("path", m.configPath).
		Msg("Config saved successfully")
	return nil
}

// Update validates and replaces the configuration, then saves it
func (m *Manager) Update(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	if err := m.Save(); err != nil {
		return err
	}
	return m.viper.ReadInConfig()
}

// GetValue returns the value at a dotted key such as display.fps.
func (m *Manager) GetValue(key string) (interface{}, error) {
	key = strings.ToLower(key)
	if !m.viper.IsSet(key) {
		return nil, fmt.Errorf("configuration key not found: %s", key)
	}
	return m.viper.Get(key), nil
}

// SetValue parses value according to the type already stored at key,
// validates the result and saves it. New entries are only accepted under
// keys.
func (m *Manager) SetValue(key, value string) error {
	key = strings.ToLower(key)

	var typed interface{} = value
	switch {
	case m.viper.IsSet(key):
		var err error
		if typed, err = parseLike(m.viper.Get(key), value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
	case strings.HasPrefix(key, "keys.") && len(key) > len("keys."):
	default:
		return fmt.Errorf("configuration key not found: %s", key)
	}

	next := viper.New()
	if err := next.MergeConfigMap(m.viper.AllSettings()); err != nil {
		return fmt.Errorf("failed to copy config: %w", err)
	}
	next.Set(key, typed)

	var cfg Config
	if err := next.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.fillDefaults()
	return m.Update(&cfg)
}

func parseLike(current interface{}, value string) (interface{}, error) {
	switch current.(type) {
	case int, int64:
		if n, err := strconv.Atoi(value); err == nil {
			return n, nil
		}
		// whole-number floats such as fov: 90 decode as int
		return strconv.ParseFloat(value, 64)
	case float64:
		return strconv.ParseFloat(value, 64)
	case bool:
		return strconv.ParseBool(value)
	case map[string]interface{}:
		return nil, fmt.Errorf("cannot set a section, set one of its keys")
	default:
		return value, nil
	}
}

// SetPort sets the server port
func (m *Manager) SetPort(port int) error {
	cfg := m.Get()
	cfg.ServerPort = port
	return m.Update(cfg)
}

// SetLogLevel sets the log level
func (m *Manager) SetLogLevel(level string) error {
	cfg := m.Get()
	cfg.LogLevel = level
	return m.Update(cfg)
}

// GetConfigPath returns the path to the config file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}
