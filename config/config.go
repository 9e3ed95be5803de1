package config

import (
	errs "errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/oliverisaac/goli"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"notes-backend/db"
)

type Config struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
	DBDriver  string `yaml:"db_driver"`
	DSN       string `yaml:"dsn"`
	LogLevel  string `yaml:"log_level"`
}

// Load reads .env (if present), then the optional YAML file at path, then
// the environment. Later sources win. Every problem found is returned.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errs.Is(err, os.ErrNotExist) {
		logrus.Warn(errors.Wrap(err, "loading .env"))
	}

	ret := Config{}
	var retErr error

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return ret, errors.Wrapf(err, "reading config file %q", path)
		}
		if err := yaml.Unmarshal(raw, &ret); err != nil {
			return ret, errors.Wrapf(err, "parsing config file %q", path)
		}
	}

	if v, ok := os.LookupEnv("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			retErr = errs.Join(retErr, errors.Wrap(err, "parsing PORT"))
		}
		ret.Port = port
	}
	if ret.Port <= 0 || ret.Port > 65535 {
		retErr = errs.Join(retErr, errs.New("You must define a valid PORT"))
	}

	if v, ok := os.LookupEnv("JWT_SECRET"); ok {
		ret.JWTSecret = v
	}
	if ret.JWTSecret == "" {
		retErr = errs.Join(retErr, errs.New("You must define env JWT_SECRET"))
	}

	ret.DBDriver = goli.DefaultEnv("DB_DRIVER", orDefault(ret.DBDriver, db.DriverMySQL))
	if ret.DBDriver != db.DriverMySQL && ret.DBDriver != db.DriverSQLite {
		retErr = errs.Join(retErr, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", db.DriverMySQL, db.DriverSQLite, ret.DBDriver))
	}

	if v, ok := os.LookupEnv("DSN"); ok {
		ret.DSN = v
	}
	if ret.DSN == "" {
		retErr = errs.Join(retErr, errs.New("You must define env DSN"))
	} else if ret.DBDriver == db.DriverMySQL {
		if _, err := db.NormalizeMySQLDSN(ret.DSN); err != nil {
			retErr = errs.Join(retErr, errors.Wrap(err, "DSN"))
		}
	}

	ret.LogLevel = goli.DefaultEnv("LOG_LEVEL", orDefault(ret.LogLevel, "info"))
	if _, err := logrus.ParseLevel(ret.LogLevel); err != nil {
		retErr = errs.Join(retErr, errors.Wrap(err, "parsing LOG_LEVEL"))
	}

	return ret, retErr
}

// Level is the parsed log level, falling back to info.
func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
