// Package config loads the settings of a provisioning run. A Config is loaded once at start up
// and passed by pointer; nothing mutates it afterwards.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/basejump-ai/basejump-demo/internal/demo/schemaname"
)

type Config struct {
	LogLevel      string              `toml:"log_level" yaml:"log_level"`
	Storage       StorageConfig       `toml:"storage" yaml:"storage"`
	Target        TargetConfig        `toml:"target" yaml:"target"`
	Redis         RedisConfig         `toml:"redis" yaml:"redis"`
	Models        ModelsConfig        `toml:"models" yaml:"models"`
	Engine        EngineConfig        `toml:"engine" yaml:"engine"`
	ObjectStorage ObjectStorageConfig `toml:"object_storage" yaml:"object_storage"`
	Secrets       SecretsConfig       `toml:"secrets" yaml:"secrets"`
	Demo          DemoConfig          `toml:"demo" yaml:"demo"`
	Server        ServerConfig        `toml:"server" yaml:"server"`
}

// StorageConfig points at the metadata store that holds clients, teams, chats and results.
type StorageConfig struct {
	Driver string `toml:"driver" yaml:"driver" validate:"oneof=postgresql sqlite"`
	DSN    string `toml:"dsn" yaml:"dsn" validate:"required"`
}

// TargetConfig describes the client data source that gets connected and indexed.
type TargetConfig struct {
	DatabaseType         string              `toml:"database_type" yaml:"database_type" validate:"omitempty,oneof=postgres mysql sqlite"`
	Host                 string              `toml:"host" yaml:"host"`
	Port                 int                 `toml:"port" yaml:"port" validate:"gte=0,lte=65535"`
	DatabaseName         string              `toml:"database_name" yaml:"database_name"`
	Username             string              `toml:"username" yaml:"username"`
	Password             string              `toml:"password" yaml:"password"`
	Schemas              []schemaname.Schema `toml:"schemas" yaml:"schemas" validate:"dive"`
	AllowedSchemas       []string            `toml:"allowed_schemas" yaml:"allowed_schemas"`
	IncludeDefaultSchema bool                `toml:"include_default_schema" yaml:"include_default_schema"`
	IncludeViews         bool                `toml:"include_views" yaml:"include_views"`
	SSL                  bool                `toml:"ssl" yaml:"ssl"`
	Description          string              `toml:"description" yaml:"description"`
}

type RedisConfig struct {
	Addr     string `toml:"addr" yaml:"addr"`
	Password string `toml:"password" yaml:"password"`
	DB       int    `toml:"db" yaml:"db"`
}

// ModelInfo names a model and where it is served.
type ModelInfo struct {
	Name     string `toml:"name" yaml:"name" json:"name"`
	Endpoint string `toml:"endpoint" yaml:"endpoint" json:"endpoint,omitempty"`
}

type ModelsConfig struct {
	Embedding ModelInfo `toml:"embedding" yaml:"embedding"`
	Small     ModelInfo `toml:"small" yaml:"small"`
	Large     ModelInfo `toml:"large" yaml:"large"`
}

type EngineConfig struct {
	Endpoint string `toml:"endpoint" yaml:"endpoint" validate:"omitempty,url"`
	Timeout  string `toml:"timeout" yaml:"timeout"`
}

// ObjectStorageConfig is the default storage location every new client receives.
type ObjectStorageConfig struct {
	Region          string `toml:"region" yaml:"region" validate:"required"`
	Bucket          string `toml:"bucket" yaml:"bucket" validate:"required"`
	AccessKey       string `toml:"access_key" yaml:"access_key" validate:"required"`
	SecretAccessKey string `toml:"secret_access_key" yaml:"secret_access_key" validate:"required"`
	Endpoint        string `toml:"endpoint" yaml:"endpoint" validate:"omitempty,url"`
	URLExpiry       string `toml:"url_expiry" yaml:"url_expiry"`
}

type SecretsConfig struct {
	MasterKey string `toml:"master_key" yaml:"master_key"`
}

// ServerConfig is the optional status server started next to a run.
type ServerConfig struct {
	Addr           string   `toml:"addr" yaml:"addr" validate:"omitempty,hostname_port"`
	HandleCORS     bool     `toml:"handle_cors" yaml:"handle_cors"`
	AllowedOrigins []string `toml:"allowed_origins" yaml:"allowed_origins" validate:"dive,url"`
}

// DemoConfig names the resources the run command provisions.
type DemoConfig struct {
	ClientName string `toml:"client_name" yaml:"client_name"`
	TeamName   string `toml:"team_name" yaml:"team_name"`
	Username   string `toml:"username" yaml:"username"`
	Email      string `toml:"email" yaml:"email" validate:"omitempty,email"`
	Prompt     string `toml:"prompt" yaml:"prompt"`
}

const (
	DefaultLogLevel      = "info"
	DefaultStorageDriver = "sqlite"
	DefaultStorageDSN    = "basejump-demo.db"
	DefaultEngineTimeout = 2 * time.Minute
	DefaultURLExpiry     = 15 * time.Minute
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("schemaTemplate", schemaname.TemplateValidator)
	return v
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads a TOML or YAML file, chosen by extension, fills defaults and validates it.
func LoadConfig(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}
	var cfg Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		if _, err := toml.Decode(string(content), &cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %v", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %v", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file type: %s", filename)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DefaultStorageDriver
	}
	if c.Storage.DSN == "" && c.Storage.Driver == DefaultStorageDriver {
		c.Storage.DSN = DefaultStorageDSN
	}
	if c.Target.DatabaseType == "" {
		c.Target.DatabaseType = "postgres"
	}
}

// Validate checks everything except the object storage section, which is checked when a
// client is created.
func (c *Config) Validate() error {
	if err := validate.Struct(c.Storage); err != nil {
		return fmt.Errorf("invalid storage config: %w", err)
	}
	if err := validate.Struct(c.Target); err != nil {
		return fmt.Errorf("invalid target config: %w", err)
	}
	if err := validate.Struct(c.Engine); err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}
	if err := validate.Struct(c.Demo); err != nil {
		return fmt.Errorf("invalid demo config: %w", err)
	}
	if err := validate.Struct(c.Server); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	if _, err := c.EngineTimeout(); err != nil {
		return err
	}
	if _, err := c.ObjectStorage.Expiry(); err != nil {
		return err
	}
	return nil
}

// ValidateObjectStorage reports whether the default storage location is fully configured.
func (c *Config) ValidateObjectStorage() error {
	return validate.Struct(c.ObjectStorage)
}

func (c *Config) EngineTimeout() (time.Duration, error) {
	if c.Engine.Timeout == "" {
		return DefaultEngineTimeout, nil
	}
	d, err := time.ParseDuration(c.Engine.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid engine timeout: %v", err)
	}
	return d, nil
}

func (o ObjectStorageConfig) Expiry() (time.Duration, error) {
	if o.URLExpiry == "" {
		return DefaultURLExpiry, nil
	}
	d, err := time.ParseDuration(o.URLExpiry)
	if err != nil {
		return 0, fmt.Errorf("invalid url expiry: %v", err)
	}
	return d, nil
}
