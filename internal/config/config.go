package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/specterhq/specter-scan/internal/models"
)

// Load merges defaults, an optional .specter.yml, environment variables
// (SPECTER_ prefix), and any flags already bound into viper, in that
// order of precedence.
func Load(cfgFile string) (*models.Config, error) {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".specter")
	}

	viper.SetEnvPrefix("SPECTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	defaults := models.DefaultConfig()
	viper.SetDefault("endpoint", defaults.Endpoint)
	viper.SetDefault("threshold", defaults.Threshold)
	viper.SetDefault("ecosystems", "npm,pypi")
	viper.SetDefault("fail_on_review", defaults.FailOnReview)
	viper.SetDefault("comment", defaults.Comment)
	viper.SetDefault("format", defaults.OutputFormat)
	viper.SetDefault("auto_scan", defaults.AutoScan)
	viper.SetDefault("debounce_ms", int(defaults.Debounce/time.Millisecond))
	viper.SetDefault("listen", defaults.ListenAddr)
	viper.SetDefault("timeout_seconds", int(defaults.Timeout/time.Second))
	viper.SetDefault("cache_ttl_minutes", int(defaults.CacheTTL/time.Minute))

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &models.Config{
		Endpoint:     viper.GetString("endpoint"),
		APIKey:       viper.GetString("api_key"),
		Threshold:    viper.GetFloat64("threshold"),
		BatchLimit:   defaults.BatchLimit,
		FailOnReview: viper.GetBool("fail_on_review"),
		Comment:      viper.GetBool("comment"),
		OutputFormat: viper.GetString("format"),
		OutputFile:   viper.GetString("output"),
		AutoScan:     viper.GetBool("auto_scan"),
		Debounce:     time.Duration(viper.GetInt("debounce_ms")) * time.Millisecond,
		ListenAddr:   viper.GetString("listen"),
		NoCache:      viper.GetBool("no_cache"),
		CacheTTL:     time.Duration(viper.GetInt("cache_ttl_minutes")) * time.Minute,
		Timeout:      time.Duration(viper.GetInt("timeout_seconds")) * time.Second,
	}

	ecosystems, err := parseEcosystems(viper.GetString("ecosystems"))
	if err != nil {
		return nil, err
	}
	cfg.Ecosystems = ecosystems

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges the pipeline depends on.
func Validate(cfg *models.Config) error {
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1 (got %g)", cfg.Threshold)
	}
	if cfg.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}
	if cfg.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive (got %s)", cfg.Debounce)
	}
	if len(cfg.Ecosystems) == 0 {
		return fmt.Errorf("at least one ecosystem must be enabled")
	}
	return nil
}

func parseEcosystems(raw string) ([]models.Ecosystem, error) {
	var out []models.Ecosystem
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		eco, ok := models.ParseEcosystem(part)
		if !ok {
			return nil, fmt.Errorf("unknown ecosystem %q (supported: npm, pypi)", part)
		}
		out = append(out, eco)
	}
	return out, nil
}
