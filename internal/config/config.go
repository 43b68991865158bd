package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Drivers soportados para persistencia e imágenes.
const (
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"
	StorageMemory   = "memory"

	ImagesLocal      = "local"
	ImagesCloudinary = "cloudinary"
)

// Config agrupa la configuración necesaria para correr la aplicación.
type Config struct {
	Port        string `env:"PORT" envDefault:"8000"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	MongoURL        string `env:"MONGO_URL"`
	MongoDatabase   string `env:"MONGO_DATABASE" envDefault:"book_management"`
	MongoCollection string `env:"MONGO_COLLECTION" envDefault:"Book"`

	ImageDriver   string `env:"IMAGE_DRIVER" envDefault:"local"`
	CloudinaryURL string `env:"CLOUDINARY_URL"`
	ImageFolder   string `env:"IMAGE_FOLDER" envDefault:"Book-Management"`
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8000"`

	MaxUploadBytes          int64 `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	DeleteImageOnBookDelete bool  `env:"DELETE_IMAGE_ON_BOOK_DELETE" envDefault:"false"`

	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	RateLimitRPS       float64       `env:"RATE_LIMIT_RPS" envDefault:"0"`
	RateLimitBurst     int           `env:"RATE_LIMIT_BURST" envDefault:"20"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// dotEnvFile se puede cambiar en tests.
var dotEnvFile = ".env"

// Load lee variables de entorno (y .env si existe) y valida lo mínimo indispensable.
func Load() (Config, error) {
	// godotenv no pisa variables ya definidas en el entorno.
	_ = godotenv.Load(dotEnvFile)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}

	// Normalizamos por si alguien manda ":8080"
	cfg.Port = strings.TrimPrefix(strings.TrimSpace(cfg.Port), ":")
	if cfg.Port == "" {
		cfg.Port = "8000"
	}
	cfg.PublicBaseURL = strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.ImageDriver = strings.ToLower(strings.TrimSpace(cfg.ImageDriver))

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (cfg Config) validate() error {
	switch cfg.StorageDriver {
	case StoragePostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return fmt.Errorf("missing required env var: DATABASE_URL")
		}
	case StorageMongo:
		if strings.TrimSpace(cfg.MongoURL) == "" {
			return fmt.Errorf("missing required env var: MONGO_URL")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	switch cfg.ImageDriver {
	case ImagesLocal:
		if strings.TrimSpace(cfg.UploadDir) == "" {
			return fmt.Errorf("missing required env var: UPLOAD_DIR")
		}
	case ImagesCloudinary:
		if strings.TrimSpace(cfg.CloudinaryURL) == "" {
			return fmt.Errorf("missing required env var: CLOUDINARY_URL")
		}
	default:
		return fmt.Errorf("unsupported IMAGE_DRIVER %q", cfg.ImageDriver)
	}

	if strings.TrimSpace(cfg.ImageFolder) == "" {
		return fmt.Errorf("IMAGE_FOLDER must not be empty")
	}
	if cfg.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}

	return nil
}

// IsDevelopment indica si corremos en modo desarrollo.
func (cfg Config) IsDevelopment() bool {
	return cfg.Environment == "development"
}
