// Package config provides configuration options for the storage server,
// merged from defaults, an optional JSON config file, and environment
// variables. Command-line flags are bound on top by the cmd layer.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the storage server.
type Options struct {
	// Port is the TCP port the server listens on.
	Port int `json:"port"`

	// Password is the server-wide shared secret expected in X-Password.
	Password string `json:"password"`

	// DataDir is the directory holding users.json and collection files.
	DataDir string `json:"dataDir"`

	// DatabaseDSN, when set, stores collections in PostgreSQL instead of
	// the data directory. Users stay file-backed either way.
	DatabaseDSN string `json:"databaseDSN"`

	// Verbose enables debug logging.
	Verbose bool `json:"verbose"`
}

// Default returns the built-in option values.
func Default() *Options {
	return &Options{
		Port:     3000,
		Password: "1234",
		DataDir:  defaultDataDir(),
	}
}

// Load returns options merged from defaults, the JSON config file at path
// (if it exists), and environment variables. A .env file in the working
// directory is honored before the environment is read.
func Load(path string) (*Options, error) {
	_ = godotenv.Load()

	opts := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := json.Unmarshal(data, opts); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if v := os.Getenv("GTACOMPTA_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid GTACOMPTA_PORT %q: %w", v, err)
		}
		opts.Port = port
	}
	if v := os.Getenv("GTACOMPTA_PASSWORD"); v != "" {
		opts.Password = v
	}
	if v := os.Getenv("GTACOMPTA_DATA_DIR"); v != "" {
		opts.DataDir = v
	}
	if v := os.Getenv("GTACOMPTA_DATABASE_DSN"); v != "" {
		opts.DatabaseDSN = v
	}

	return opts, nil
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(base, "GTACOMPTAServer")
}
