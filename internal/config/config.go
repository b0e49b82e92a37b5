package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type AppCfg struct{ Env, Port string }

type UpstreamCfg struct {
	BaseURL      string
	AccessToken  string
	RefreshToken string
	TimeoutSec   int
}

type DBCfg struct{ DSN string }
type RedisCfg struct{ Addr string }

type SecurityCfg struct {
	APIToken string // bearer token guarding /api/v1
}

type CheckoutCfg struct {
	PollInterval time.Duration
	MaxPolls     int
	SessionTTL   time.Duration
}

type WizardCfg struct {
	SessionTTL time.Duration
}

type Cfg struct {
	App      AppCfg
	Upstream UpstreamCfg
	DB       DBCfg
	Redis    RedisCfg
	Sec      SecurityCfg
	Checkout CheckoutCfg
	Wizard   WizardCfg
}

func Load() Cfg {
	// Load .env into process env (if the file exists)
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetDefault("APP_ENV", "sandbox")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("UPSTREAM_TIMEOUT_SEC", 20)
	viper.SetDefault("CHECKOUT_POLL_INTERVAL", "5s")
	viper.SetDefault("CHECKOUT_MAX_POLLS", 120)
	viper.SetDefault("CHECKOUT_SESSION_TTL", "15m")
	viper.SetDefault("WIZARD_SESSION_TTL", "30m")

	cfg := Cfg{
		App: AppCfg{
			Env:  viper.GetString("APP_ENV"),
			Port: viper.GetString("APP_PORT"),
		},
		Upstream: UpstreamCfg{
			BaseURL:      strings.TrimRight(viper.GetString("UPSTREAM_BASE_URL"), "/"),
			AccessToken:  viper.GetString("UPSTREAM_ACCESS_TOKEN"),
			RefreshToken: viper.GetString("UPSTREAM_REFRESH_TOKEN"),
			TimeoutSec:   viper.GetInt("UPSTREAM_TIMEOUT_SEC"),
		},
		DB:    DBCfg{DSN: viper.GetString("DB_DSN")},
		Redis: RedisCfg{Addr: viper.GetString("REDIS_ADDR")},
		Sec: SecurityCfg{
			APIToken: strings.TrimSpace(viper.GetString("API_TOKEN")),
		},
		Checkout: CheckoutCfg{
			PollInterval: viper.GetDuration("CHECKOUT_POLL_INTERVAL"),
			MaxPolls:     viper.GetInt("CHECKOUT_MAX_POLLS"),
			SessionTTL:   viper.GetDuration("CHECKOUT_SESSION_TTL"),
		},
		Wizard: WizardCfg{
			SessionTTL: viper.GetDuration("WIZARD_SESSION_TTL"),
		},
	}

	// Fail fast on required settings
	if cfg.DB.DSN == "" {
		log.Fatal().Msg("DB_DSN is required")
	}
	if cfg.Redis.Addr == "" {
		log.Fatal().Msg("REDIS_ADDR is required")
	}
	if cfg.Upstream.BaseURL == "" {
		log.Fatal().Msg("UPSTREAM_BASE_URL is required")
	}
	if cfg.Sec.APIToken == "" {
		log.Fatal().Msg("API_TOKEN is required")
	}

	return cfg
}
