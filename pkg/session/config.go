package session

import (
	"encoding/json"
	"os"
)

const DefaultConfigFile = "graphrec.json"

// Config holds the session configuration persisted between runs, so that
// watch and power can reuse the host recorded by the last record session.
type Config struct {
	Host         string `json:"host"`
	DownloadPath string `json:"download_path"`
	SessionName  string `json:"session_name,omitempty"`
	UserName     string `json:"user_name,omitempty"`
	ImageSource  string `json:"image_source,omitempty"`
}

// LoadConfig loads configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}
