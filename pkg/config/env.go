// Package config loads runtime settings from the environment and the
// source registry from YAML.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/penwern/geomodel-harvest/pkg/logger"
	"github.com/spf13/viper"
)

const (
	envPrefix = "GMH"
)

// Config holds the runtime configuration of the harvester.
type Config struct {
	OutputDir        string        `mapstructure:"output_dir" validate:"required" comment:"Directory receiving generated records"`
	SourcesFile      string        `mapstructure:"sources_file" comment:"Source registry YAML; empty uses the built-in registry"`
	LogLevel         string        `mapstructure:"log_level" validate:"oneof=debug info warn error" comment:"Log level"`
	ParseMode        string        `mapstructure:"parse_mode" validate:"oneof=strict recover" comment:"Default XML parse mode"`
	ModelBaseURL     string        `mapstructure:"model_base_url" validate:"http_url" comment:"Prefix of model web pages"`
	HTTPTimeout      time.Duration `mapstructure:"http_timeout" validate:"gt=0" comment:"Timeout for upstream requests"`
	AllowInsecureTLS bool          `mapstructure:"allow_insecure_tls" comment:"Allow insecure TLS connections"`
	OutputXSD        string        `mapstructure:"output_xsd" validate:"omitempty,file" comment:"XSD used to validate ISO 19115-3 output"`

	Thesaurus struct {
		DSN       string `mapstructure:"dsn" comment:"PostgreSQL DSN of the USGS thesaurus"`
		File      string `mapstructure:"file" validate:"omitempty,file" comment:"YAML dump of the USGS thesaurus"`
		IAMRegion string `mapstructure:"iam_region" comment:"AWS region for RDS IAM auth; empty uses the DSN password"`
	} `mapstructure:"thesaurus"`

	Summary struct {
		Provider string `mapstructure:"provider" validate:"oneof=lead ollama bedrock" comment:"Abstract generator"`
	} `mapstructure:"summary"`

	Ollama struct {
		URL   string `mapstructure:"url" validate:"omitempty,http_url" comment:"Ollama server"`
		Model string `mapstructure:"model" comment:"Ollama model"`
	} `mapstructure:"ollama"`

	Bedrock struct {
		Region  string `mapstructure:"region" comment:"AWS region"`
		ModelID string `mapstructure:"model_id" comment:"Bedrock model id"`
	} `mapstructure:"bedrock"`

	Geonetwork struct {
		URL      string `mapstructure:"url" validate:"omitempty,http_url" comment:"Geonetwork base URL"`
		Username string `mapstructure:"username" comment:"Geonetwork user"`
		Password string `mapstructure:"password" comment:"Geonetwork password"`
	} `mapstructure:"geonetwork"`

	CKAN struct {
		URL string `mapstructure:"url" validate:"omitempty,http_url" comment:"CKAN catalogue pushed to geonetwork"`
	} `mapstructure:"ckan"`
}

// Init initializes Viper configuration
func Init() {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// Set default values
	setDefaults()
}

// setDefaults sets the default values for the configuration
func setDefaults() {
	viper.SetDefault("output_dir", "output")
	viper.SetDefault("sources_file", "")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("parse_mode", "strict")
	viper.SetDefault("model_base_url", "https://geomodels.auscope.org/model/")
	viper.SetDefault("http_timeout", 60*time.Second)
	viper.SetDefault("allow_insecure_tls", false)
	viper.SetDefault("output_xsd", "")

	viper.SetDefault("thesaurus.dsn", "")
	viper.SetDefault("thesaurus.file", "")
	viper.SetDefault("thesaurus.iam_region", "")

	viper.SetDefault("summary.provider", "lead")
	viper.SetDefault("ollama.url", "http://localhost:11434")
	viper.SetDefault("ollama.model", "deepseek-r1:8b")
	viper.SetDefault("bedrock.region", "us-east-1")
	viper.SetDefault("bedrock.model_id", "anthropic.claude-3-haiku-20240307-v1:0")

	viper.SetDefault("geonetwork.url", "")
	viper.SetDefault("geonetwork.username", "")
	viper.SetDefault("geonetwork.password", "")
	viper.SetDefault("ckan.url", "")
}

// Load loads the configuration from the environment variables and .env file
func Load() (*Config, error) {
	// Load .env if it exists
	if _, err := os.Stat(".env"); err == nil {
		logger.Info("Loading .env file")
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("%w: error loading .env file: %v", ErrConfigNotFound, err)
		}
	}

	// Unmarshal the configuration
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.ParseMode = strings.ToLower(cfg.ParseMode)
	cfg.Summary.Provider = strings.ToLower(cfg.Summary.Provider)

	// Validate the configuration
	if err := validate(&cfg); err != nil {
		return nil, &Error{Err: err}
	}

	return &cfg, nil
}

// validate validates the configuration
func validate(cfg *Config) error {
	validate := validator.New()
	return validate.Struct(cfg)
}
