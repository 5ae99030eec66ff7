package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	expected := Default()
	expected.RunID = cfg.RunID
	if cfg != expected {
		t.Errorf("Config not as expected.\nExpected: %+v\nWas: %+v", expected, cfg)
	}
	if len(cfg.RunID) != runIDLength {
		t.Errorf("Expected generated run id of length %d, was %q", runIDLength, cfg.RunID)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "sim.yaml", `
floors: 12
cars: 4
tick: 5ms
doorTicks: 3
seed: 42
runID: lobby
`)

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	expected := Default()
	expected.Floors = 12
	expected.Cars = 4
	expected.Tick = 5 * time.Millisecond
	expected.DoorTicks = 3
	expected.Seed = 42
	expected.RunID = "lobby"
	if cfg != expected {
		t.Errorf("Config not as expected.\nExpected: %+v\nWas: %+v", expected, cfg)
	}
}

func TestLoad_UnknownYAMLField(t *testing.T) {
	path := writeFile(t, "sim.yaml", "floors: 3\nelevators: 2\n")

	if _, err := Load(path, ""); err == nil {
		t.Errorf("Expected error for unknown field")
	}
}

func TestLoad_MissingYAMLFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), ""); err == nil {
		t.Errorf("Expected error for missing config file")
	}
}

func TestLoad_EnvFileThenEnvironment(t *testing.T) {
	yamlPath := writeFile(t, "sim.yaml", "floors: 8\ncars: 3\n")
	envPath := writeFile(t, ".env", "ELEVSIM_FLOORS=10\nELEVSIM_CARS=6\nELEVSIM_TICK=1ms\n")
	t.Setenv(EnvCars, "7")
	t.Setenv(EnvSeed, "99")

	cfg, err := Load(yamlPath, envPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Floors != 10 {
		t.Errorf("Expected floors from .env (10), was %d", cfg.Floors)
	}
	if cfg.Cars != 7 {
		t.Errorf("Expected cars from environment (7), was %d", cfg.Cars)
	}
	if cfg.Tick != time.Millisecond {
		t.Errorf("Expected tick from .env (1ms), was %v", cfg.Tick)
	}
	if cfg.Seed != 99 {
		t.Errorf("Expected seed from environment (99), was %d", cfg.Seed)
	}
}

func TestLoad_MissingEnvFileIsSkipped(t *testing.T) {
	cfg, err := Load("", filepath.Join(t.TempDir(), ".env"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Floors != Default().Floors {
		t.Errorf("Expected default floors, was %d", cfg.Floors)
	}
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	t.Setenv(EnvPassengers, "many")

	if _, err := Load("", ""); err == nil {
		t.Errorf("Expected error for non-numeric %s", EnvPassengers)
	}
}

func TestLoad_RunIDFromEnvironment(t *testing.T) {
	t.Setenv(EnvRunID, "nightly")

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.RunID != "nightly" {
		t.Errorf("Expected run id %q, was %q", "nightly", cfg.RunID)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"one floor", func(c *Config) { c.Floors = 1 }, false},
		{"no cars", func(c *Config) { c.Cars = 0 }, false},
		{"zero tick", func(c *Config) { c.Tick = 0 }, false},
		{"zero ticks per floor", func(c *Config) { c.TicksPerFloor = 0 }, false},
		{"zero door ticks", func(c *Config) { c.DoorTicks = 0 }, false},
		{"zero idle ticks", func(c *Config) { c.IdleTicks = 0 }, false},
		{"spawning disabled", func(c *Config) { c.SpawnEvery = 0 }, true},
		{"negative spawn", func(c *Config) { c.SpawnEvery = -1 }, false},
		{"negative passengers", func(c *Config) { c.Passengers = -3 }, false},
		{"zero max ticks", func(c *Config) { c.MaxTicks = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid config, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
