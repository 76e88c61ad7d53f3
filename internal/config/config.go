package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Session struct {
		CookieName string `yaml:"cookie_name" env:"SESSION_COOKIE_NAME"`
		Secret     string `yaml:"secret" env:"SESSION_SECRET"`
		MaxAge     string `yaml:"max_age" env:"SESSION_MAX_AGE"`
		Secure     bool   `yaml:"secure" env:"SESSION_SECURE"`
		SameSite   string `yaml:"same_site" env:"SESSION_SAME_SITE"`
	} `yaml:"session"`

	CORS struct {
		// Comma separated list
		AllowedOrigins string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	} `yaml:"cors"`

	Mongo struct {
		URI           string `yaml:"uri" env:"MONGO_URI"`
		Database      string `yaml:"database" env:"MONGO_DATABASE"`
		OTPCollection string `yaml:"otp_collection" env:"MONGO_OTP_COLLECTION"`
	} `yaml:"mongo"`

	SMTP struct {
		Host       string `yaml:"host" env:"SMTP_HOST"`
		Port       int    `yaml:"port" env:"SMTP_PORT"`
		Username   string `yaml:"username" env:"SMTP_USERNAME"`
		Password   string `yaml:"password" env:"SMTP_PASSWORD"`
		FromName   string `yaml:"from_name" env:"SMTP_FROM_NAME"`
		FromEmail  string `yaml:"from_email" env:"SMTP_FROM_EMAIL"`
		UseTLS     bool   `yaml:"use_tls" env:"SMTP_USE_TLS"`
		SchoolName string `yaml:"school_name" env:"SCHOOL_NAME"`
	} `yaml:"smtp"`

	OTP struct {
		TTL        string `yaml:"ttl" env:"OTP_TTL"`
		CodeLength int    `yaml:"code_length" env:"OTP_CODE_LENGTH"`
	} `yaml:"otp"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Seed struct {
		SuperAdminUserID   string `yaml:"super_admin_user_id" env:"SEED_SUPER_ADMIN_USER_ID"`
		SuperAdminPassword string `yaml:"super_admin_password" env:"SEED_SUPER_ADMIN_PASSWORD"`
		SuperAdminEmail    string `yaml:"super_admin_email" env:"SEED_SUPER_ADMIN_EMAIL"`
	} `yaml:"seed"`
}

// LoadConfig loads configuration from a file, an optional .env file next to
// the working directory, and environment variables
func LoadConfig(configPath string) (*Config, error) {
	return load(configPath, ".env")
}

func load(configPath, envPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// godotenv never overrides variables that are already set
	if envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
			}
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "schooladmin"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"

	config.JWT.AccessTokenExpiration = "12h"
	config.JWT.Issuer = "schooladmin"

	config.Session.CookieName = "schooladmin_session"
	config.Session.MaxAge = "12h"
	config.Session.SameSite = "lax"

	config.CORS.AllowedOrigins = "http://localhost:3000"

	config.Mongo.Database = "schooladmin"
	config.Mongo.OTPCollection = "otps"

	config.SMTP.Port = 587
	config.SMTP.FromName = "School Office"
	config.SMTP.SchoolName = "SchoolAdmin"

	config.OTP.TTL = "5m"
	config.OTP.CodeLength = 6

	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return applyEnvOverrides(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	var errs []error

	if config.Database.Host == "" {
		errs = append(errs, errors.New("database host is required"))
	}
	if config.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT secret is required"))
	}
	if len(config.Session.Secret) < 32 {
		errs = append(errs, errors.New("session secret must be at least 32 bytes"))
	}
	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		errs = append(errs, fmt.Errorf("invalid JWT access token expiration format: %w", err))
	}
	if _, err := time.ParseDuration(config.Session.MaxAge); err != nil {
		errs = append(errs, fmt.Errorf("invalid session max age format: %w", err))
	}
	if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
		errs = append(errs, fmt.Errorf("invalid database connection lifetime format: %w", err))
	}
	if ttl, err := time.ParseDuration(config.OTP.TTL); err != nil {
		errs = append(errs, fmt.Errorf("invalid OTP ttl format: %w", err))
	} else if ttl <= 0 {
		errs = append(errs, errors.New("OTP ttl must be positive"))
	}
	if config.OTP.CodeLength < 4 || config.OTP.CodeLength > 10 {
		errs = append(errs, errors.New("OTP code length must be between 4 and 10"))
	}
	switch strings.ToLower(config.Session.SameSite) {
	case "lax", "strict", "none":
	default:
		errs = append(errs, fmt.Errorf("invalid session same_site %q", config.Session.SameSite))
	}

	return errors.Join(errs...)
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     c.Database.Host + ":" + c.Database.Port,
		Path:     "/" + c.Database.DBName,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

// AllowedOrigins splits the CORS origin list
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORS.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// OTPTTL returns the parsed OTP lifetime. validateConfig guarantees it parses.
func (c *Config) OTPTTL() time.Duration {
	d, _ := time.ParseDuration(c.OTP.TTL)
	return d
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt gets an environment variable as an integer or returns a default value
func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
