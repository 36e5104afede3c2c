package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// DefaultConfigPath is the YAML file Load overlays on the environment
const DefaultConfigPath = "config.yaml"

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	LogLevel   string `yaml:"log_level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// EngineConfig represents pricing engine configuration
type EngineConfig struct {
	Precision          string  `yaml:"precision"`           // single, double
	NewtonIterations   int     `yaml:"newton_iterations"`   // Newton-Raphson iteration cap
	NewtonTolerance    float64 `yaml:"newton_tolerance"`    // Newton-Raphson price tolerance
	BisectionTolerance float64 `yaml:"bisection_tolerance"` // bisection price tolerance
	BisectionLower     float64 `yaml:"bisection_lower"`     // lower volatility bracket in percent
	BisectionUpper     float64 `yaml:"bisection_upper"`     // upper volatility bracket in percent
	BisectionSteps     int     `yaml:"bisection_steps"`     // fixed bisection step count, 0 derives it
}

// RatesConfig represents risk-free rate sourcing
type RatesConfig struct {
	DefaultRate     float64 `yaml:"default_rate"`     // percent, used when no rate is supplied
	TreasuryEnabled bool    `yaml:"treasury_enabled"` // look up the T-bill rate
	TreasuryURL     string  `yaml:"treasury_url"`
	TreasuryTimeout int     `yaml:"treasury_timeout_seconds"`
}

type Config struct {
	// Server settings
	Port string `yaml:"port"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
	// Engine settings
	Engine EngineConfig `yaml:"engine"`
	// Risk-free rate settings
	Rates RatesConfig `yaml:"rates"`
}

// Load reads .env, the environment and config.yaml, in increasing priority
func Load() *Config {
	return LoadFrom(DefaultConfigPath)
}

// LoadFrom is Load with an explicit YAML path
func LoadFrom(path string) *Config {
	// .env only fills variables that are not already set
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Logging: LoggingConfig{
			LogLevel:   getEnv("LOG_LEVEL", "info"),
			LogFile:    getEnv("LOG_FILE", "blackscholes.log"),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),
			Compress:   getEnvBool("LOG_COMPRESS", false),
		},

		// Default engine configuration
		Engine: EngineConfig{
			Precision:          getEnv("ENGINE_PRECISION", "double"),
			NewtonIterations:   getEnvInt("ENGINE_NEWTON_ITERATIONS", 10),
			NewtonTolerance:    getEnvFloat("ENGINE_NEWTON_TOLERANCE", 0.01),
			BisectionTolerance: getEnvFloat("ENGINE_BISECTION_TOLERANCE", 0.001),
			BisectionLower:     getEnvFloat("ENGINE_BISECTION_LOWER", 0),
			BisectionUpper:     getEnvFloat("ENGINE_BISECTION_UPPER", 200),
			BisectionSteps:     getEnvInt("ENGINE_BISECTION_STEPS", 0),
		},

		Rates: RatesConfig{
			DefaultRate:     getEnvFloat("DEFAULT_RATE", 4.0),
			TreasuryEnabled: getEnvBool("TREASURY_ENABLED", false),
			TreasuryURL:     getEnv("TREASURY_URL", "https://api.fiscaldata.treasury.gov/services/api/fiscal_service"),
			TreasuryTimeout: getEnvInt("TREASURY_TIMEOUT_SECONDS", 10),
		},
	}

	if yamlCfg, set := loadYAMLConfig(path); yamlCfg != nil {
		cfg.merge(yamlCfg, set)
	}

	return cfg
}

// merge copies every non-zero YAML value over the environment defaults.
// Fields tracked in set are copied whenever they appear, zero included.
func (cfg *Config) merge(y *Config, set *explicitFields) {
	if y.Port != "" {
		cfg.Port = y.Port
	}

	// Logging configuration from YAML
	if y.Logging.LogLevel != "" {
		cfg.Logging.LogLevel = y.Logging.LogLevel
	}
	if y.Logging.LogFile != "" {
		cfg.Logging.LogFile = y.Logging.LogFile
	}
	if y.Logging.MaxSizeMB > 0 {
		cfg.Logging.MaxSizeMB = y.Logging.MaxSizeMB
	}
	if y.Logging.MaxBackups > 0 {
		cfg.Logging.MaxBackups = y.Logging.MaxBackups
	}
	if y.Logging.MaxAgeDays > 0 {
		cfg.Logging.MaxAgeDays = y.Logging.MaxAgeDays
	}
	if y.Logging.Compress {
		cfg.Logging.Compress = true
	}

	// Engine configuration from YAML
	if y.Engine.Precision != "" {
		cfg.Engine.Precision = y.Engine.Precision
	}
	if y.Engine.NewtonIterations > 0 {
		cfg.Engine.NewtonIterations = y.Engine.NewtonIterations
	}
	if y.Engine.NewtonTolerance > 0 {
		cfg.Engine.NewtonTolerance = y.Engine.NewtonTolerance
	}
	if y.Engine.BisectionTolerance > 0 {
		cfg.Engine.BisectionTolerance = y.Engine.BisectionTolerance
	}
	if set.Engine.BisectionLower != nil {
		cfg.Engine.BisectionLower = *set.Engine.BisectionLower
	}
	if y.Engine.BisectionUpper > 0 {
		cfg.Engine.BisectionUpper = y.Engine.BisectionUpper
	}
	if y.Engine.BisectionSteps > 0 {
		cfg.Engine.BisectionSteps = y.Engine.BisectionSteps
	}

	// Rates configuration from YAML
	if set.Rates.DefaultRate != nil {
		cfg.Rates.DefaultRate = *set.Rates.DefaultRate
	}
	if y.Rates.TreasuryEnabled {
		cfg.Rates.TreasuryEnabled = true
	}
	if y.Rates.TreasuryURL != "" {
		cfg.Rates.TreasuryURL = y.Rates.TreasuryURL
	}
	if y.Rates.TreasuryTimeout > 0 {
		cfg.Rates.TreasuryTimeout = y.Rates.TreasuryTimeout
	}
}

// explicitFields tracks YAML fields where zero is a valid setting
type explicitFields struct {
	Engine struct {
		BisectionLower *float64 `yaml:"bisection_lower"`
	} `yaml:"engine"`
	Rates struct {
		DefaultRate *float64 `yaml:"default_rate"`
	} `yaml:"rates"`
}

func loadYAMLConfig(path string) (*Config, *explicitFields) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Could not read config.yaml - silently return nil
		return nil, nil
	}

	var yamlCfg Config
	var set explicitFields
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		// Could not parse config.yaml - silently return nil
		return nil, nil
	}
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, nil
	}

	return &yamlCfg, &set
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
