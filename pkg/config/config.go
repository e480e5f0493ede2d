package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	BlobDriverLocal = "local"
	BlobDriverGCS   = "gcs"
)

type Config struct {
	App    AppConfig
	DB     DBConfig
	JWT    JWTConfig
	Seed   SeedConfig
	Blob   BlobConfig
	Upload UploadConfig
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Blob.Driver {
	case BlobDriverLocal:
		if strings.TrimSpace(c.Blob.LocalDir) == "" {
			return fmt.Errorf("SALON_BLOB_LOCAL_DIR is required for the local blob driver")
		}
	case BlobDriverGCS:
		if strings.TrimSpace(c.Blob.GCSBucket) == "" {
			return fmt.Errorf("SALON_BLOB_GCS_BUCKET is required for the gcs blob driver")
		}
	default:
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("SALON_UPLOAD_MAX_BYTES must be positive")
	}
	return nil
}

type AppConfig struct {
	Env       string `envconfig:"SALON_APP_ENV" default:"dev"`
	Port      string `envconfig:"SALON_APP_PORT" default:"3000"`
	Name      string `envconfig:"SALON_APP_NAME" default:"Salon Inventory"`
	LogLevel  string `envconfig:"SALON_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"SALON_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

type DBConfig struct {
	DSN      string `envconfig:"SALON_DB_DSN"`
	Host     string `envconfig:"SALON_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"SALON_DB_PORT" default:"5432"`
	User     string `envconfig:"SALON_DB_USER" default:"postgres"`
	Password string `envconfig:"SALON_DB_PASSWORD"`
	Name     string `envconfig:"SALON_DB_NAME" default:"salon"`
	SSLMode  string `envconfig:"SALON_DB_SSLMODE" default:"disable"`
	TimeZone string `envconfig:"SALON_DB_TIMEZONE" default:"UTC"`

	MaxOpenConns    int           `envconfig:"SALON_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SALON_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SALON_DB_CONN_MAX_LIFETIME" default:"1h"`
}

// ConnectionString returns DSN when set, otherwise builds one from the discrete fields.
func (d DBConfig) ConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode, d.TimeZone,
	)
}

type JWTConfig struct {
	Secret          string `envconfig:"SALON_JWT_SECRET" default:"change-me-in-production"`
	Issuer          string `envconfig:"SALON_JWT_ISSUER" default:"salon-inventory"`
	ExpirationHours int    `envconfig:"SALON_JWT_EXPIRATION_HOURS" default:"24"`
}

func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(j.ExpirationHours) * time.Hour
}

// SeedConfig drives the explicit admin bootstrap at startup.
type SeedConfig struct {
	AdminEmail    string `envconfig:"SALON_SEED_ADMIN_EMAIL"`
	AdminPassword string `envconfig:"SALON_SEED_ADMIN_PASSWORD"`
	AdminName     string `envconfig:"SALON_SEED_ADMIN_NAME" default:"Admin"`
}

func (s SeedConfig) Enabled() bool {
	return s.AdminEmail != "" && s.AdminPassword != ""
}

type BlobConfig struct {
	Driver             string `envconfig:"SALON_BLOB_DRIVER" default:"local"`
	LocalDir           string `envconfig:"SALON_BLOB_LOCAL_DIR" default:".uploads/invoices"`
	GCSBucket          string `envconfig:"SALON_BLOB_GCS_BUCKET"`
	GCSCredentialsJSON string `envconfig:"SALON_BLOB_GCS_CREDENTIALS_JSON"`
}

type UploadConfig struct {
	MaxBytes int64 `envconfig:"SALON_UPLOAD_MAX_BYTES" default:"10485760"`
}
