package config

import (
	"github.com/bryanchriswhite/VRPlayer/internal/logger"
	"github.com/fsnotify/fsnotify"
)

// Watch starts watching the config file and reloads it on external edits.
func (m *Manager) Watch() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watching {
		return nil
	}

	m.viper.OnConfigChange(func(e fsnotify.Event) {
		log := logger.WithComponent("config")
		log.Debug().Str("op", e.Op.String()).Str("file", e.Name).Msg("Config change detected")

		m.mu.Lock()
		if m.skipNextReload {
			m.skipNextReload = false
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()

		if err := m.reload(); err != nil {
			log.Warn().Err(err).Msg("Failed to reload config, keeping previous settings")
			return
		}
		m.notify()
	})
	m.viper.WatchConfig()

	m.watching = true
	return nil
}

// OnConfigChange registers a callback run after each external reload.
func (m *Manager) OnConfigChange(callback func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

func (m *Manager) reload() error {
	if err := m.load(false); err != nil {
		return err
	}
	logger.WithComponent("config").Info().Str("path", m.configPath).Msg("Config reloaded")
	return nil
}

func (m *Manager) notify() {
	cfg := m.Get()
	m.mu.RLock()
	callbacks := make([]func(*Config), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.RUnlock()

	for _, callback := range callbacks {
		callback(cfg)
	}
}
