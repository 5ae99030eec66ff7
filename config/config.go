package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/joho/godotenv"
	"github.com/xyproto/randomstring"
	"gopkg.in/yaml.v3"
)

const runIDLength = 8

// Environment keys, read from the process environment and from the .env file.
const (
	EnvFloors     = "ELEVSIM_FLOORS"
	EnvCars       = "ELEVSIM_CARS"
	EnvSeed       = "ELEVSIM_SEED"
	EnvTick       = "ELEVSIM_TICK"
	EnvPassengers = "ELEVSIM_PASSENGERS"
	EnvRunID      = "ELEVSIM_RUN_ID"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Floors        int           `yaml:"floors"`
	Cars          int           `yaml:"cars"`
	Tick          time.Duration `yaml:"tick"`
	TicksPerFloor int           `yaml:"ticksPerFloor"`
	DoorTicks     int           `yaml:"doorTicks"`
	IdleTicks     int           `yaml:"idleTicks"`
	SpawnEvery    int           `yaml:"spawnEvery"`
	Passengers    int           `yaml:"passengers"`
	MaxTicks      int           `yaml:"maxTicks"`
	Seed          int64         `yaml:"seed"`
	RunID         string        `yaml:"runID"`
}

func Default() Config {
	return Config{
		Floors:        5,
		Cars:          2,
		Tick:          20 * time.Millisecond,
		TicksPerFloor: 10,
		DoorTicks:     25,
		IdleTicks:     10,
		SpawnEvery:    15,
		Passengers:    20,
		MaxTicks:      5000,
		Seed:          1,
	}
}

// Load builds a Config from defaults, the YAML file at `path`, the .env file
// at `envPath` and the process environment, in that order. Empty paths and a
// missing .env file are skipped. A random RunID is generated if none is set.
func Load(path, envPath string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if envPath != "" {
		vals, err := godotenv.Read(envPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("reading %s: %w", envPath, err)
		}
		if err == nil {
			if err := applyEnv(&cfg, func(key string) (string, bool) {
				v, ok := vals[key]
				return v, ok
			}); err != nil {
				return cfg, fmt.Errorf("%s: %w", envPath, err)
			}
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}

	if cfg.RunID == "" {
		cfg.RunID = randomstring.EnglishFrequencyString(runIDLength)
		glog.V(1).Infof("no run id configured, generated %q", cfg.RunID)
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	ints := []struct {
		key string
		dst *int
	}{
		{EnvFloors, &cfg.Floors},
		{EnvCars, &cfg.Cars},
		{EnvPassengers, &cfg.Passengers},
	}
	for _, e := range ints {
		v, ok := lookup(e.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = n
	}

	if v, ok := lookup(EnvSeed); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}
		cfg.Seed = seed
	}
	if v, ok := lookup(EnvTick); ok && v != "" {
		tick, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTick, err)
		}
		cfg.Tick = tick
	}
	if v, ok := lookup(EnvRunID); ok && v != "" {
		cfg.RunID = v
	}
	return nil
}

// Validate checks the ranges the dispatcher and simulation rely on.
func (c Config) Validate() error {
	switch {
	case c.Floors < 2:
		return fmt.Errorf("%w: floors must be at least 2, got %d", ErrInvalidConfig, c.Floors)
	case c.Cars < 1:
		return fmt.Errorf("%w: cars must be at least 1, got %d", ErrInvalidConfig, c.Cars)
	case c.Tick <= 0:
		return fmt.Errorf("%w: tick must be positive, got %v", ErrInvalidConfig, c.Tick)
	case c.TicksPerFloor < 1:
		return fmt.Errorf("%w: ticksPerFloor must be at least 1, got %d", ErrInvalidConfig, c.TicksPerFloor)
	case c.DoorTicks < 1:
		return fmt.Errorf("%w: doorTicks must be at least 1, got %d", ErrInvalidConfig, c.DoorTicks)
	case c.IdleTicks < 1:
		return fmt.Errorf("%w: idleTicks must be at least 1, got %d", ErrInvalidConfig, c.IdleTicks)
	case c.SpawnEvery < 0:
		return fmt.Errorf("%w: spawnEvery must not be negative, got %d", ErrInvalidConfig, c.SpawnEvery)
	case c.Passengers < 0:
		return fmt.Errorf("%w: passengers must not be negative, got %d", ErrInvalidConfig, c.Passengers)
	case c.MaxTicks < 1:
		return fmt.Errorf("%w: maxTicks must be at least 1, got %d", ErrInvalidConfig, c.MaxTicks)
	}
	return nil
}
