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

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validDrivers   = []string{"sqlite", "postgres"}
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

	v.BindEnv("db.driver", "db_driver")
	v.BindEnv("db.dsn", "db_dsn")

	v.BindEnv("jwt.secret", "jwt_secret")
	v.BindEnv("jwt.expiry_hours", "jwt_expiry_hours")

	v.BindEnv("mail.host", "mail_host")
	v.BindEnv("mail.port", "mail_port")
	v.BindEnv("mail.username", "mail_username")
	v.BindEnv("mail.password", "mail_password")
	v.BindEnv("mail.from", "mail_from")

	v.BindEnv("upload.max_size", "upload_max_size")

	v.BindEnv("cloudflare.account_id", "cloudflare_account_id")
	v.BindEnv("cloudflare.access_key_id", "cloudflare_access_key_id")
	v.BindEnv("cloudflare.secret_access_key", "cloudflare_secret_access_key")
	v.BindEnv("cloudflare.bucket", "cloudflare_bucket")
	v.BindEnv("cloudflare.public_base_url", "cloudflare_public_base_url")

	v.BindEnv("cloudflare.turnstile.enabled", "cloudflare_turnstile_enabled")
	v.BindEnv("cloudflare.turnstile.secret_token", "cloudflare_turnstile_secret_token")

	v.BindEnv("rate_limit.rps", "rate_limit_rps")
	v.BindEnv("rate_limit.burst", "rate_limit_burst")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "database.db")

	v.SetDefault("jwt.expiry_hours", 24)

	v.SetDefault("upload.max_size", 5)

	v.SetDefault("rate_limit.rps", 5)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("cloudflare.turnstile.enabled", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); ok {
			return errors.New("config.toml file is missing")
		}

		return fmt.Errorf("failed to read config file, %w", err)
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validDrivers, v.GetString("db.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("db.dsn") == "" {
		return errors.New("database dsn can't be empty")
	}

	if v.GetString("jwt.secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if v.GetInt("jwt.expiry_hours") <= 0 {
		return errors.New("jwt.expiry_hours must be bigger than 0")
	}

	if v.GetString("mail.host") == "" {
		return errors.New("mail host can't be empty")
	}

	if v.GetInt("mail.port") <= 0 {
		return errors.New("invalid mail port provided")
	}

	if v.GetString("mail.from") == "" {
		return errors.New("mail sender address can't be empty")
	}

	if v.GetString("cloudflare.account_id") == "" {
		return errors.New("account id can't be empty")
	}
	if v.GetString("cloudflare.access_key_id") == "" {
		return errors.New("account access id can't be empty")
	}
	if v.GetString("cloudflare.secret_access_key") == "" {
		return errors.New("secret access key can't be empty")
	}
	if v.GetString("cloudflare.bucket") == "" {
		return errors.New("bucket can't be empty")
	}
	if v.GetString("cloudflare.public_base_url") == "" {
		return errors.New("public base url can't be empty")
	}

	if v.GetBool("cloudflare.turnstile.enabled") {
		if v.GetString("cloudflare.turnstile.secret_token") == "" {
			return errors.New("turnstile secret token is missing")
		}
	} else {
		fmt.Println("[WARNING]: Cloudflare's turnstile is disabled. Some public endpoints won't be guarded against bots")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if v.GetInt("rate_limit.rps") <= 0 || v.GetInt("rate_limit.burst") <= 0 {
		return errors.New("rate limit values must be bigger than 0")
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}
