package storage

import (
	"encoding/json"
	"fmt"
)

// settingsKey is the Store key holding the client settings document.
const settingsKey = "_settings"

// Settings are the process-wide sync preferences. They are read fresh
// before every load/save so a mid-session change takes effect
// immediately.
type Settings struct {
	// UseRemote selects remote persistence for every collection.
	UseRemote bool `json:"useRemote"`
	// Host is the storage server address (host:port).
	Host string `json:"host"`
	// ServerPassword is the server-wide shared secret.
	ServerPassword string `json:"serverPassword"`
	// Username and UserPassword are the per-user credentials.
	Username     string `json:"username"`
	UserPassword string `json:"userPassword"`
}

// DefaultSettings returns the out-of-the-box client settings.
func DefaultSettings() Settings {
	return Settings{
		Host:           "localhost:3000",
		ServerPassword: "1234",
	}
}

// LoadSettings reads the settings document from the store, falling back
// to defaults when absent or unreadable.
func LoadSettings(store Store) Settings {
	data, err := store.Get(settingsKey)
	if err != nil || len(data) == 0 {
		return DefaultSettings()
	}
	settings := DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return DefaultSettings()
	}
	return settings
}

// SaveSettings persists the settings document.
func SaveSettings(store Store, settings Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("serialize settings: %w", err)
	}
	if err := store.Put(settingsKey, data); err != nil {
		return fmt.Errorf("store settings: %w", err)
	}
	return nil
}
