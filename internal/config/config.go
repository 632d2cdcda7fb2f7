package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverXLSX  = "xlsx"
	DriverMySQL = "mysql"
)

type Config struct {
	Env          string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer   `yaml:"http_server"`
	Storage      `yaml:"storage"`
	FrontendURLs []string `yaml:"frontend_urls" env:"FRONTEND_URL" env-separator:","`
	ErrorLogPath string   `yaml:"error_log_path" env:"ERROR_LOG_PATH" env-default:"errors.log"`

	// Basic auth on POST /api/entries; disabled when login is empty.
	SubmitLogin string `yaml:"submit_login" env:"SUBMIT_LOGIN"`
	SubmitPass  string `yaml:"submit_pass" env:"SUBMIT_PASS"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:3001"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Storage struct {
	Driver       string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"xlsx"`
	WorkbookPath string `yaml:"workbook_path" env:"WORKBOOK_PATH" env-default:"./data/production.xlsx"`

	DBUser     string `yaml:"db_user" env:"DB_USER"`
	DBPassword string `yaml:"db_password" env:"DB_PASSWORD"`
	DBHost     string `yaml:"db_host" env:"DB_HOST" env-default:"localhost"`
	DBPort     int    `yaml:"db_port" env:"DB_PORT" env-default:"3306"`
	DBName     string `yaml:"db_name" env:"DB_NAME"`
}

// Load reads path when it exists and applies environment overrides; without a
// file only the environment and defaults are used.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	case errors.Is(statErr, os.ErrNotExist):
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	default:
		return nil, fmt.Errorf("%s: %w", op, statErr)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Driver {
	case DriverXLSX:
		if c.WorkbookPath == "" {
			return errors.New("storage.workbook_path is required for the xlsx driver")
		}
	case DriverMySQL:
		if c.DBUser == "" || c.DBName == "" {
			return errors.New("storage.db_user and storage.db_name are required for the mysql driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Driver)
	}
	return nil
}

func MustConfig() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/local.yaml"
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return cfg
}
