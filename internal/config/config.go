package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Server struct {
	HTTPAddr        string        `env:"WORKSHOP_HTTP_ADDR" envDefault:":8080"`
	RPCSocket       string        `env:"WORKSHOP_RPC_SOCKET" envDefault:"/tmp/workshop.sock"`
	SessionTTL      time.Duration `env:"WORKSHOP_SESSION_TTL" envDefault:"12h"`
	ShutdownTimeout time.Duration `env:"WORKSHOP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type Database struct {
	Path string `env:"WORKSHOP_DB_PATH" envDefault:"workshop.db"`
}

type Bootstrap struct {
	Username string `env:"WORKSHOP_BOOTSTRAP_USERNAME" envDefault:"manager"`
	Password string `env:"WORKSHOP_BOOTSTRAP_PASSWORD" envDefault:"admin123"`
}

type Logger struct {
	Level  string `env:"LOGGER_LEVEL" envDefault:"info"`
	AsJSON bool   `env:"LOGGER_AS_JSON" envDefault:"false"`
}

type Config struct {
	Server    Server
	Database  Database
	Bootstrap Bootstrap
	Logger    Logger
}

// Load reads the process environment. With APP_ENV=local a .env file is
// loaded first; variables already set in the environment win.
func Load(path ...string) (Config, error) {
	const op = "config.Load"

	if shouldLoadDotenv() {
		if err := godotenv.Load(path...); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("%s: load .env: %w", op, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.Server.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("%s: WORKSHOP_SESSION_TTL must be positive", op)
	}
	return cfg, nil
}

func shouldLoadDotenv() bool {
	return os.Getenv("APP_ENV") == "local"
}
