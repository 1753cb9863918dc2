// Package config loads application settings from command-line flags,
// a .env file and environment variables, in that order of precedence
// (environment wins). Values are validated with go-playground/validator.
package config

import (
	"flag"
	"log"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every recognized setting of the application.
type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	LogLevel            string        `env:"LOG_LEVEL" validate:"loglevel"`
	DatabaseDSN         string        `env:"DATABASE_DSN"`
	DBFileName          string        `env:"FILE_STORAGE_PATH"`
	MigrationsDir       string        `env:"MIGRATIONS_DIR"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT"`

	CatalogAPIKey       string        `env:"API_KEY"`
	CatalogBaseURL      string        `env:"CATALOG_BASE_URL" validate:"url"`
	CatalogImageBaseURL string        `env:"CATALOG_IMAGE_BASE_URL" validate:"url"`
	CatalogTimeout      time.Duration `env:"CATALOG_TIMEOUT"`

	AuthCookieName string `env:"AUTH_COOKIE_NAME" validate:"required"`
	// AuthCookieSigningSecretKey is the base64-encoded HMAC key used to
	// sign session cookies.
	AuthCookieSigningSecretKey string `env:"SECRET_KEY"`

	TrustedSubnet string `env:"TRUSTED_SUBNET"`
}

var defaultConfig = Config{
	RunAddr:             ":8080",
	LogLevel:            "info",
	DatabaseDSN:         "",
	DBFileName:          "",
	MigrationsDir:       "cmd/reelrank/migrations",
	DBConnectionTimeout: 10 * time.Second,
	CatalogBaseURL:      "https://api.themoviedb.org/3",
	CatalogImageBaseURL: "https://image.tmdb.org/t/p/w500",
	CatalogTimeout:      10 * time.Second,
	AuthCookieName:      "reelrank_session",
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[fieldLevel.Field().String()]
}

func (c *Config) validate() error {
	validate := validator.New()

	if err := validate.RegisterValidation("loglevel", validateLogLevel); err != nil {
		return err
	}

	return validate.Struct(c)
}

// InitOption configures the behavior of New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing skips command-line flag parsing. Tests use it
// to avoid collisions with the `go test` flag set.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

func applyDefaults(target *Config, defaults Config) {
	*target = defaults
}

// New builds the configuration: defaults, then flags, then .env, then
// environment variables, then validation.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	if !options.disableFlagsParsing {
		flag.StringVar(&values.RunAddr, "a", values.RunAddr, "address and port to run server")
		flag.StringVar(&values.LogLevel, "l", values.LogLevel, "logger level")
		flag.StringVar(&values.DatabaseDSN, "d", values.DatabaseDSN, "a string with the database connection details")
		flag.StringVar(&values.DBFileName, "f", values.DBFileName, "JSON file name with database")
		flag.StringVar(&values.MigrationsDir, "m", values.MigrationsDir, "directory with goose SQL migrations")
		flag.StringVar(&values.CatalogAPIKey, "k", values.CatalogAPIKey, "external movie catalog API key")
		flag.StringVar(&values.TrustedSubnet, "t", values.TrustedSubnet, "CIDR of the subnet trusted to query internal stats")
		flag.Parse()
	}

	var valuesFromEnv Config
	if err := env.Parse(&valuesFromEnv); err != nil {
		return nil, err
	}
	mergeNonEmpty(values, &valuesFromEnv)

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}

func mergeNonEmpty(target, source *Config) {
	if source.RunAddr != "" {
		target.RunAddr = source.RunAddr
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
	}
	if source.DatabaseDSN != "" {
		target.DatabaseDSN = source.DatabaseDSN
	}
	if source.DBFileName != "" {
		target.DBFileName = source.DBFileName
	}
	if source.MigrationsDir != "" {
		target.MigrationsDir = source.MigrationsDir
	}
	if source.DBConnectionTimeout != 0 {
		target.DBConnectionTimeout = source.DBConnectionTimeout
	}
	if source.CatalogAPIKey != "" {
		target.CatalogAPIKey = source.CatalogAPIKey
	}
	if source.CatalogBaseURL != "" {
		target.CatalogBaseURL = source.CatalogBaseURL
	}
	if source.CatalogImageBaseURL != "" {
		target.CatalogImageBaseURL = source.CatalogImageBaseURL
	}
	if source.CatalogTimeout != 0 {
		target.CatalogTimeout = source.CatalogTimeout
	}
	if source.AuthCookieName != "" {
		target.AuthCookieName = source.AuthCookieName
	}
	if source.AuthCookieSigningSecretKey != "" {
		target.AuthCookieSigningSecretKey = source.AuthCookieSigningSecretKey
	}
	if source.TrustedSubnet != "" {
		target.TrustedSubnet = source.TrustedSubnet
	}
}
