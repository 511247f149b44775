// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validStorageTypes = []string{"s3", "local"}
	validDBDrivers    = []string{"sqlite", "postgres"}
)

// Setup prepares everything config-related so that the app can
// start working. args are the command line arguments without the
// program name. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup(args []string) error {
	// A missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("user-api", pflag.ContinueOnError)
	fs.Int("port", 0, "Port to listen on, overrides PORT")
	configPath := fs.String("config", ".", "Directory containing config.toml")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags, %w", err)
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(*configPath)

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "LOG_LEVEL")

	v.BindEnv("host.port", "PORT")
	v.BindEnv("host.cors_origins", "CORS_ORIGINS")

	v.BindEnv("db.driver", "DB_DRIVER")
	v.BindEnv("db.dsn", "DB_DSN")
	v.BindEnv("db.max_open_conns", "DB_MAX_OPEN_CONNS")

	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.upload_dir", "UPLOAD_DIR")
	v.BindEnv("storage.public_dir", "PUBLIC_DIR")

	v.BindEnv("storage.s3.bucket", "S3_BUCKET")
	v.BindEnv("storage.s3.region", "S3_REGION")
	v.BindEnv("storage.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("storage.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3.public_url", "S3_PUBLIC_URL")
	v.BindEnv("storage.s3.prefix", "S3_PREFIX")

	v.BindEnv("upload.max_size", "UPLOAD_MAX_SIZE")

	v.BindEnv("mail.host", "MAIL_HOST")
	v.BindEnv("mail.port", "MAIL_PORT")
	v.BindEnv("mail.secure", "MAIL_SECURE")
	v.BindEnv("mail.user", "MAIL_USER")
	v.BindEnv("mail.pass", "MAIL_PASS")
	v.BindEnv("mail.from_name", "FROM_NAME")
	v.BindEnv("mail.from_email", "FROM_EMAIL")
	v.BindEnv("mail.app_name", "MAIL_APP_NAME")
	v.BindEnv("mail.app_tagline", "MAIL_APP_TAGLINE")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 4000)
	v.SetDefault("host.cors_origins", "*")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "database.db")
	v.SetDefault("db.max_open_conns", 10)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.public_dir", "public")

	v.SetDefault("upload.max_size", 10)

	v.SetDefault("mail.port", 465)
	v.SetDefault("mail.secure", false)
	v.SetDefault("mail.app_name", "Malware Tracker")
	v.SetDefault("mail.app_tagline", "Malware Analysis & Log Tracking")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if p, _ := fs.GetInt("port"); p != 0 {
		v.Set("host.port", p)
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if !slices.Contains(validDBDrivers, v.GetString("db.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("db.dsn") == "" {
		return errors.New("database dsn can't be empty")
	}

	switch v.GetString("storage.type") {
	case "s3":
		if v.GetString("storage.s3.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
		if v.GetString("storage.s3.public_url") == "" {
			return errors.New("s3 public url can't be empty")
		}
	case "local":
		if v.GetString("storage.upload_dir") == "" {
			return errors.New("upload directory can't be empty")
		}
	}

	if !slices.Contains(validStorageTypes, v.GetString("storage.type")) {
		return errors.New("invalid storage type provided")
	}

	if v.GetString("mail.from_email") == "" {
		v.Set("mail.from_email", v.GetString("mail.user"))
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}
