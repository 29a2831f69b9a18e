package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all prtrunner settings.
type Config struct {
	Workers     int           `mapstructure:"workers"`
	Tasks       int           `mapstructure:"tasks"`
	PreStart    int           `mapstructure:"pre-start"`
	Executes    int           `mapstructure:"executes"`
	MaxPriority int           `mapstructure:"max-priority"`
	ArraySize   int           `mapstructure:"array-size"`
	Rate        float64       `mapstructure:"rate"`
	MetricsAddr string        `mapstructure:"metrics-addr"`
	Linger      time.Duration `mapstructure:"linger"`
	LogLevel    string        `mapstructure:"log-level"`
	LogFormat   string        `mapstructure:"log-format"`
	LogFile     string        `mapstructure:"log-file"`
}

// BindFlags registers every setting on fs and binds it into a fresh viper
// instance that also reads PRT_* environment variables.
func BindFlags(fs *pflag.FlagSet) (*viper.Viper, error) {
	fs.Int("workers", 4, "number of worker goroutines")
	fs.Int("tasks", 20, "number of tasks to schedule")
	fs.Int("pre-start", 3, "how many of the scheduled tasks are queued before the runner starts")
	fs.Int("executes", 2, "number of blocking ExecuteTask calls interleaved with scheduling")
	fs.Int("max-priority", 20, "priorities are drawn from [0, max-priority]")
	fs.Int("array-size", 1000, "upper bound of the array scanned by each task")
	fs.Float64("rate", 0, "task submissions per second after start (0 = unlimited)")
	fs.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :2112")
	fs.Duration("linger", 0, "keep the metrics endpoint up this long after the workload finished")
	fs.String("log-level", "INFO", "DEBUG, INFO, WARN or ERROR")
	fs.String("log-format", "text", "text or json")
	fs.String("log-file", "", "write logs to this file with rotation instead of stderr")

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}
	v.SetEnvPrefix("PRT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v, nil
}

// LoadConfig reads the optional YAML file into v and decodes the result.
func LoadConfig(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate performs basic validation of the configuration
func (c *Config) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("invalid workers %d: must be at least 1", c.Workers)
	}
	if c.Tasks < 0 {
		return fmt.Errorf("invalid tasks %d: must not be negative", c.Tasks)
	}
	if c.PreStart < 0 || c.PreStart > c.Tasks {
		return fmt.Errorf("invalid pre-start %d: must be between 0 and tasks (%d)", c.PreStart, c.Tasks)
	}
	if c.Executes < 0 {
		return fmt.Errorf("invalid executes %d: must not be negative", c.Executes)
	}
	if c.MaxPriority < 0 {
		return fmt.Errorf("invalid max-priority %d: must not be negative", c.MaxPriority)
	}
	if c.Rate < 0 {
		return fmt.Errorf("invalid rate %v: must not be negative", c.Rate)
	}

	upperLevel := strings.ToUpper(strings.TrimSpace(c.LogLevel))
	switch upperLevel {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("invalid log level '%s': must be DEBUG, INFO, WARN or ERROR", c.LogLevel)
	}
	c.LogLevel = upperLevel

	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log format '%s': must be text or json", c.LogFormat)
	}
	return nil
}
