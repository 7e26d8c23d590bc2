package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// EnvConfig holds run defaults taken from the environment or an app.env
// file. Command line flags override every field.
type EnvConfig struct {
	Objective   string
	Partial     bool
	Penalty     float64
	TimeLimit   time.Duration
	IntegerLots bool
	Cache       bool
	Format      string
	Verbose     bool
}

func loadEnvConfig() (*EnvConfig, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &EnvConfig{
		Objective:   v.GetString("ALLOC_OBJECTIVE"),
		Partial:     v.GetBool("ALLOC_ALLOW_PARTIAL"),
		Penalty:     v.GetFloat64("ALLOC_UNMET_PENALTY"),
		TimeLimit:   v.GetDuration("ALLOC_TIME_LIMIT"),
		IntegerLots: v.GetBool("ALLOC_INTEGER_LOTS"),
		Cache:       v.GetBool("ALLOC_CACHE"),
		Format:      v.GetString("ALLOC_FORMAT"),
		Verbose:     v.GetBool("ALLOC_VERBOSE"),
	}

	if cfg.Objective == "" {
		cfg.Objective = "cost"
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}

	if err := validateEnvConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateEnvConfig(cfg *EnvConfig) error {
	switch cfg.Objective {
	case "cost", "value":
	default:
		return fmt.Errorf("ALLOC_OBJECTIVE must be cost or value, got %q", cfg.Objective)
	}
	switch cfg.Format {
	case "text", "json":
	default:
		return fmt.Errorf("ALLOC_FORMAT must be text or json, got %q", cfg.Format)
	}
	if cfg.Penalty < 0 {
		return fmt.Errorf("ALLOC_UNMET_PENALTY must not be negative, got %v", cfg.Penalty)
	}
	if cfg.TimeLimit < 0 {
		return fmt.Errorf("ALLOC_TIME_LIMIT must not be negative, got %v", cfg.TimeLimit)
	}
	return nil
}
