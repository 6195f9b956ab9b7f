package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is everything the binary reads from the environment, prefixed
// POS_. Every field has a default so a display boots with no env file.
type Config struct {
	Port    string `envconfig:"PORT" default:"8080"`
	GinMode string `envconfig:"GIN_MODE" default:"debug"`

	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN    string `envconfig:"DB_DSN" default:"fanguan-pos.db"`

	MenuPath string `envconfig:"MENU_PATH" default:"assets/menu.json"`

	// SyncMode picks the propagation mechanism: "local" for the
	// on-device store with poll fallback, "redis" for the replicated
	// remote document with live subscription.
	SyncMode     string        `envconfig:"SYNC_MODE" default:"local"`
	RedisAddr    string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisKey     string        `envconfig:"REDIS_KEY" default:"fanguan:pos:document"`
	RedisChannel string        `envconfig:"REDIS_CHANNEL" default:"fanguan:pos:updates"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"3s"`

	JWTSecret        string `envconfig:"JWT_SECRET" default:""`
	OperatorPassword string `envconfig:"OPERATOR_PASSWORD" default:"888888"`
}

// Load reads .env (when present) and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("POS", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
