package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the ledger deployer configuration
type Config struct {
	Token    TokenConfig    `yaml:"token"`
	Deployer DeployerConfig `yaml:"deployer"`
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TokenConfig contains the parameters the ledger is created with.
// RawSupply is expressed in whole tokens and scaled by 10^18 at creation.
type TokenConfig struct {
	Name      string `yaml:"name" default:"Mobee Token"`
	Symbol    string `yaml:"symbol" default:"MOB"`
	RawSupply string `yaml:"raw_supply" default:"500000000" validate:"required,number"`
}

// DeployerConfig contains the identity that creates the ledger
type DeployerConfig struct {
	// PrivateKeyEnv names the environment variable holding the hex private key.
	PrivateKeyEnv string `yaml:"private_key_env" default:"DEPLOYER_PRIVATE_KEY"`
	// PrivateKey is used when the environment variable is unset. Local use only.
	PrivateKey string `yaml:"private_key"`
	// Nonce is the creator's account nonce used to derive the ledger address.
	Nonce uint64 `yaml:"nonce"`
	// EnvFile is an optional dotenv file loaded before reading PrivateKeyEnv.
	EnvFile string `yaml:"env_file" default:".env"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host" default:"localhost" validate:"required_if=Enabled true"`
	Port     int    `yaml:"port" default:"5432" validate:"min=1,max=65535"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database" default:"ledger"`
	SSLMode  string `yaml:"ssl_mode" default:"disable" validate:"oneof=disable require verify-full"`
}

// KafkaConfig contains event publisher settings. Publishing is disabled when
// no brokers are configured.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" validate:"dive,hostname_port"`
	Topic   string   `yaml:"topic" default:"ledger_events" validate:"required"`
}

// Enabled reports whether any broker is configured.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" default:"info"`
	Format     string `yaml:"format" default:"json" validate:"oneof=json console"`
	OutputPath string `yaml:"output_path" default:"stdout"`
}

// Load reads configuration from a YAML file, applying defaults and validating the result
func Load(configPath string) (*Config, error) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes configuration from YAML bytes
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to set config defaults: %w", err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Deployer.PrivateKeyEnv) == "" && cfg.Deployer.PrivateKey == "" {
		return fmt.Errorf("deployer.private_key_env or deployer.private_key is required")
	}
	return nil
}

// DeployerKey resolves the deployer's hex private key, preferring the
// environment variable over the inline value.
func (c *DeployerConfig) DeployerKey() (string, error) {
	if c.PrivateKeyEnv != "" {
		if v := strings.TrimSpace(os.Getenv(c.PrivateKeyEnv)); v != "" {
			return v, nil
		}
	}
	if c.PrivateKey != "" {
		return c.PrivateKey, nil
	}
	return "", fmt.Errorf("deployer private key not set: env=%s", c.PrivateKeyEnv)
}
