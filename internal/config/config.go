// Package config loads the YAML configuration file of the kanban server.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when no --config flag is given.
const DefaultPath = "config.yml"

type Config struct {
	Server      Server      `yaml:"server"`
	Log         Log         `yaml:"log"`
	Storage     Storage     `yaml:"storage"`
	Persistence Persistence `yaml:"persistence"`
	IDs         IDs         `yaml:"ids"`
}

type Server struct {
	Addr            string        `yaml:"addr" validate:"required"`
	StaticDir       string        `yaml:"static_dir"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
	ImportJSONC     bool          `yaml:"import_jsonc"`
}

type Log struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `yaml:"format" validate:"omitempty,oneof=json text"`
}

type Storage struct {
	Backend string      `yaml:"backend" validate:"required,oneof=memory file redis s3 sqlite"`
	Key     string      `yaml:"key" validate:"required"`
	File    FileConfig  `yaml:"file"`
	Redis   RedisConfig `yaml:"redis"`
	S3      S3Config    `yaml:"s3"`
	SQLite  SQLite      `yaml:"sqlite"`
}

type FileConfig struct {
	Dir string `yaml:"dir"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
	Prefix   string `yaml:"prefix"`
}

type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	AccessKey       string `yaml:"access_key"`
	SecretKey       string `yaml:"secret_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
	DisableChecksum bool   `yaml:"disable_checksum"`
}

type SQLite struct {
	Path string `yaml:"path"`
}

type Persistence struct {
	QuietPeriod time.Duration `yaml:"quiet_period" validate:"gt=0"`
	FlushOnExit bool          `yaml:"flush_on_exit"`
}

type IDs struct {
	Strategy string `yaml:"strategy" validate:"oneof=timestamp uuid"`
}

// Default returns the configuration used when no file is present: a local
// file store and the 5 second save debounce.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			StaticDir:       "static",
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: Log{Level: "info", Format: "json"},
		Storage: Storage{
			Backend: "file",
			Key:     "data",
			File:    FileConfig{Dir: ".kban"},
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "kban:"},
			S3:      S3Config{Region: "us-east-1", UsePathStyle: true},
			SQLite:  SQLite{Path: "kban.db"},
		},
		Persistence: Persistence{QuietPeriod: 5 * time.Second},
		IDs:         IDs{Strategy: "timestamp"},
	}
}

// Load reads the config file at path on top of the defaults. A missing file
// at DefaultPath is not an error.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == DefaultPath {
			cfg := Default()
			return &cfg, nil
		}
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses YAML from r on top of the defaults and validates the result.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and the settings each storage backend
// needs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	s := c.Storage
	switch s.Backend {
	case "file":
		if s.File.Dir == "" {
			return errors.New("invalid config: storage.file.dir is required")
		}
	case "redis":
		if s.Redis.Addr == "" {
			return errors.New("invalid config: storage.redis.addr is required")
		}
	case "s3":
		if s.S3.Endpoint == "" || s.S3.Bucket == "" {
			return errors.New("invalid config: storage.s3.endpoint and storage.s3.bucket are required")
		}
	case "sqlite":
		if s.SQLite.Path == "" {
			return errors.New("invalid config: storage.sqlite.path is required")
		}
	}
	return nil
}
