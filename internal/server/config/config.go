// Package config reads the sync server's settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/julianstephens/hemma/internal/constants"
	"github.com/julianstephens/hemma/internal/server/store"
)

type Config struct {
	Port int

	JWTSecretKey      string
	JWTExpirationTime time.Duration
	JWTIssuer         string

	StoreDriver string
	DatabaseURL string
	MongoURI    string
	MongoDB     string

	// RedisURL is optional; downloads go straight to the store without it.
	RedisURL string
	CacheTTL time.Duration

	GinMode string
	Debug   bool
}

// LoadConfig loads envFile when it exists and then reads the environment.
// Variables already set in the process take precedence over the file.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Port:              GetEnvAsInt("PORT", constants.DefaultServerPort),
		JWTSecretKey:      GetEnvAsString("JWT_SECRET_KEY", ""),
		JWTExpirationTime: GetEnvAsDuration("JWT_EXPIRATION_TIME", constants.DefaultJWTLifetime),
		JWTIssuer:         GetEnvAsString("JWT_ISSUER", constants.DefaultJWTIssuer),
		StoreDriver:       GetEnvAsString("STORE_DRIVER", store.DriverSQLite),
		DatabaseURL:       GetEnvAsString("DATABASE_URL", ""),
		MongoURI:          GetEnvAsString("MONGO_URI", ""),
		MongoDB:           GetEnvAsString("MONGO_DB", constants.DefaultMongoDB),
		RedisURL:          GetEnvAsString("REDIS_URL", ""),
		CacheTTL:          GetEnvAsDuration("CACHE_TTL", constants.DefaultCacheTTL),
		GinMode:           GetEnvAsString("GIN_MODE", gin.ReleaseMode),
		Debug:             GetEnvAsBool("DEBUG", false),
	}
	if cfg.StoreDriver == store.DriverSQLite && cfg.DatabaseURL == "" {
		cfg.DatabaseURL = constants.DefaultSQLitePath
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.JWTSecretKey == "" {
		return errors.New("JWT_SECRET_KEY is required")
	}
	if len(c.JWTSecretKey) < 16 {
		return errors.New("JWT_SECRET_KEY must be at least 16 characters")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d is out of range", c.Port)
	}
	if c.JWTExpirationTime <= 0 {
		return errors.New("JWT_EXPIRATION_TIME must be positive")
	}

	switch c.StoreDriver {
	case store.DriverSQLite:
	case store.DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case store.DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo store")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %s, %s or %s, got %q",
			store.DriverSQLite, store.DriverPostgres, store.DriverMongo, c.StoreDriver)
	}

	switch c.GinMode {
	case gin.ReleaseMode, gin.DebugMode, gin.TestMode:
	default:
		return fmt.Errorf("GIN_MODE must be %s, %s or %s", gin.ReleaseMode, gin.DebugMode, gin.TestMode)
	}
	return nil
}

// Addr is the listen address for http.Server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// StoreOptions maps the config onto the store constructor.
func (c Config) StoreOptions() store.Options {
	return store.Options{
		Driver:      c.StoreDriver,
		DatabaseURL: c.DatabaseURL,
		MongoURI:    c.MongoURI,
		MongoDB:     c.MongoDB,
		Timeout:     30 * time.Second,
	}
}
