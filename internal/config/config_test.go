package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	opts := Default()
	if opts.Port != 3000 {
		t.Errorf("Port = %d; want 3000", opts.Port)
	}
	if opts.Password != "1234" {
		t.Errorf("Password = %q; want 1234", opts.Password)
	}
	if opts.DataDir == "" {
		t.Error("DataDir is empty")
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	opts, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.Port != 3000 || opts.Password != "1234" {
		t.Errorf("opts = %+v; want defaults", opts)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"port":8080,"password":"s3cret"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	opts, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.Port != 8080 || opts.Password != "s3cret" {
		t.Errorf("opts = %+v; want port 8080, password s3cret", opts)
	}
	// Fields the file omits keep their defaults.
	if opts.DataDir == "" {
		t.Error("DataDir lost its default")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"port":8080}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GTACOMPTA_PORT", "9090")
	t.Setenv("GTACOMPTA_PASSWORD", "from-env")

	opts, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.Port != 9090 {
		t.Errorf("Port = %d; want 9090", opts.Port)
	}
	if opts.Password != "from-env" {
		t.Errorf("Password = %q; want from-env", opts.Password)
	}
}

func TestInvalidPortEnv(t *testing.T) {
	t.Setenv("GTACOMPTA_PORT", "not-a-port")

	if _, err := Load(""); err == nil {
		t.Error("Load accepted an invalid GTACOMPTA_PORT")
	}
}

func TestBrokenConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load accepted a malformed config file")
	}
}
