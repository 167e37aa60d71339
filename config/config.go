// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validDBDrivers = []string{"mysql", "sqlite"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.domain", "host_domain")
	v.BindEnv("host.cors", "host_cors")
	v.BindEnv("host.ssl.enabled", "host_ssl_enabled")

	v.BindEnv("db.driver", "db_driver")
	v.BindEnv("db.dsn", "db_dsn")
	v.BindEnv("db.pool_recycle", "db_pool_recycle")

	v.BindEnv("security.jwt_secret", "security_jwt_secret")
	v.BindEnv("security.rate_limit", "security_rate_limit")

	v.BindEnv("mail.host", "mail_host")
	v.BindEnv("mail.port", "mail_port")
	v.BindEnv("mail.sender_address", "mail_sender_address")
	v.BindEnv("mail.password", "mail_password")

	v.BindEnv("movies.api_url", "movies_api_url")
	v.BindEnv("movies.api_key", "movies_api_key")

	v.BindEnv("spoilers.wikipedia_url", "spoilers_wikipedia_url")

	v.BindEnv("dispatcher.workers", "dispatcher_workers")
	v.BindEnv("dispatcher.poll_interval", "dispatcher_poll_interval")
	v.BindEnv("dispatcher.max_attempts", "dispatcher_max_attempts")
	v.BindEnv("dispatcher.send_timeout", "dispatcher_send_timeout")

	v.BindEnv("cache.redis.enabled", "cache_redis_enabled")
	v.BindEnv("cache.redis.addr", "cache_redis_addr")

	v.BindEnv("contact.address", "contact_address")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.cors", "http://localhost:5173")
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "database.db")
	// Recycle pooled connections just before MySQL's default idle kill
	v.SetDefault("db.pool_recycle", 599*time.Second)

	v.SetDefault("security.rate_limit", 10)

	v.SetDefault("mail.port", 587)

	v.SetDefault("spoilers.wikipedia_url", "https://en.wikipedia.org/w/api.php")

	v.SetDefault("dispatcher.workers", 1)
	v.SetDefault("dispatcher.poll_interval", 5*time.Second)
	v.SetDefault("dispatcher.max_attempts", 3)
	v.SetDefault("dispatcher.send_timeout", 30*time.Second)

	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.addr", "localhost:6379")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetString("security.jwt_secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if !slices.Contains(validDBDrivers, v.GetString("db.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("db.dsn") == "" {
		return errors.New("database dsn can't be empty")
	}

	if v.GetDuration("db.pool_recycle") <= 0 {
		return errors.New("db.pool_recycle must be bigger than 0")
	}

	if v.GetInt("dispatcher.workers") <= 0 {
		return errors.New("dispatcher.workers must be bigger than 0")
	}

	if v.GetInt("dispatcher.max_attempts") <= 0 {
		return errors.New("dispatcher.max_attempts must be bigger than 0")
	}

	if v.GetDuration("dispatcher.poll_interval") <= 0 {
		return errors.New("dispatcher.poll_interval must be bigger than 0")
	}

	if v.GetString("mail.sender_address") == "" || v.GetString("mail.host") == "" {
		zap.L().Warn("No mail transport configured, scheduled spoilers will fail to deliver")
	}

	if v.GetString("movies.api_url") == "" {
		zap.L().Warn("No movies.api_url configured, autocomplete suggestions won't work")
	}

	if v.GetString("contact.address") == "" {
		zap.L().Warn("No contact.address configured, the contact form is disabled")
	}

	return nil
}
