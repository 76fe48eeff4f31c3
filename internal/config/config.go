package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"warbler/internal/model"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	DatabaseURL   string
	Storage       string
	RunMigrations bool

	ServerPort string

	// SecretKey signs session cookies and bearer tokens.
	SecretKey string

	SessionMaxAge     int
	SecureCookies     bool
	AccessTokenMaxAge int

	RedisURL    string
	FeedWorkers int

	LogLevel  string
	LogFormat string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	DefaultImageURL       string
	DefaultHeaderImageURL string
}

// MediaEnabled reports whether every R2 setting needed for uploads is present.
func (c *Config) MediaEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicURL != ""
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		logrus.Info("No .env file found or error loading it, relying on environment variables")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = "postgres:///warbler?sslmode=disable"
	}

	storage := strings.ToLower(os.Getenv("STORAGE"))
	if storage != StorageMemory {
		storage = StoragePostgres
	}

	secretKey := os.Getenv("SECRET_KEY")
	if secretKey == "" {
		logrus.Warn("SECRET_KEY is not set, using an insecure development key")
		secretKey = "it's a secret"
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	sessionMaxAge, err := strconv.Atoi(os.Getenv("SESSION_MAX_AGE"))
	if err != nil || sessionMaxAge <= 0 {
		sessionMaxAge = 7 * 24 * 3600
	}

	accessTokenMaxAge, err := strconv.Atoi(os.Getenv("ACCESS_TOKEN_MAX_AGE"))
	if err != nil || accessTokenMaxAge <= 0 {
		accessTokenMaxAge = 900
	}

	feedWorkers, err := strconv.Atoi(os.Getenv("FEED_WORKERS"))
	if err != nil || feedWorkers <= 0 {
		feedWorkers = 2
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	defaultImageURL := os.Getenv("DEFAULT_IMAGE_URL")
	if defaultImageURL == "" {
		defaultImageURL = model.DefaultImageURL
	}

	defaultHeaderImageURL := os.Getenv("DEFAULT_HEADER_IMAGE_URL")
	if defaultHeaderImageURL == "" {
		defaultHeaderImageURL = model.DefaultHeaderImageURL
	}

	return &Config{
		DatabaseURL:   databaseURL,
		Storage:       storage,
		RunMigrations: envBool("RUN_MIGRATIONS", true),

		ServerPort: serverPort,

		SecretKey: secretKey,

		SessionMaxAge:     sessionMaxAge,
		SecureCookies:     envBool("SECURE_COOKIES", false),
		AccessTokenMaxAge: accessTokenMaxAge,

		RedisURL:    os.Getenv("REDIS_URL"),
		FeedWorkers: feedWorkers,

		LogLevel:  logLevel,
		LogFormat: os.Getenv("LOG_FORMAT"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),

		DefaultImageURL:       defaultImageURL,
		DefaultHeaderImageURL: defaultHeaderImageURL,
	}, nil
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
