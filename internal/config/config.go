package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Port           string
	AdminPort      string
	Mode           string
	LogLevel       string
	LogFormat      string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver         string
	URL            string
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MaxOpenConns   int
	MaxConcurrency int64
	RetryAttempts  int
	RetryBackoffMS int
}

type AppConfig struct {
	DataDir string
}

type CacheConfig struct {
	Backend           string
	RedisURL          string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	DatasetTTLSeconds int
	MemorySize        int
	WarmOnStart       bool
	WarmWorkers       int
	WarmIntervalSec   int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Enabled reports whether file pages should be read from object storage.
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != "" && s.Bucket != ""
}

// Load reads .env (when present) and the environment. Every call builds a
// fresh Config so callers and tests can run with different settings.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	ensureDir(v.GetString("APP_DATA_DIR"))

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			AdminPort:      v.GetString("ADMIN_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			LogFormat:      v.GetString("LOG_FORMAT"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver:         v.GetString("DB_DRIVER"),
			URL:            v.GetString("DATABASE_URL"),
			Host:           v.GetString("DB_HOST"),
			Port:           v.GetString("DB_PORT"),
			User:           v.GetString("DB_USER"),
			Password:       v.GetString("DB_PASSWORD"),
			DBName:         v.GetString("DB_NAME"),
			SSLMode:        v.GetString("DB_SSLMODE"),
			MaxOpenConns:   v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxConcurrency: v.GetInt64("DB_MAX_CONCURRENCY"),
			RetryAttempts:  v.GetInt("DB_RETRY_ATTEMPTS"),
			RetryBackoffMS: v.GetInt("DB_RETRY_BACKOFF_MS"),
		},
		App: AppConfig{
			DataDir: v.GetString("APP_DATA_DIR"),
		},
		Cache: CacheConfig{
			Backend:           v.GetString("CACHE_BACKEND"),
			RedisURL:          v.GetString("REDIS_URL"),
			RedisHost:         v.GetString("REDIS_HOST"),
			RedisPort:         v.GetString("REDIS_PORT"),
			RedisPassword:     v.GetString("REDIS_PASSWORD"),
			RedisDB:           v.GetInt("REDIS_DB"),
			DatasetTTLSeconds: v.GetInt("CACHE_DATASET_TTL_SECONDS"),
			MemorySize:        v.GetInt("CACHE_MEMORY_SIZE"),
			WarmOnStart:       v.GetBool("CACHE_WARM_ON_START"),
			WarmWorkers:       v.GetInt("CACHE_WARM_WORKERS"),
			WarmIntervalSec:   v.GetInt("CACHE_WARM_INTERVAL_SECONDS"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ADMIN_PORT", "8081")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "tienda_deportiva")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_CONCURRENCY", 10)
	v.SetDefault("DB_RETRY_ATTEMPTS", 3)
	v.SetDefault("DB_RETRY_BACKOFF_MS", 200)

	v.SetDefault("APP_DATA_DIR", "./data")

	v.SetDefault("CACHE_BACKEND", "memory")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_DATASET_TTL_SECONDS", 600)
	v.SetDefault("CACHE_MEMORY_SIZE", 64)
	v.SetDefault("CACHE_WARM_ON_START", true)
	v.SetDefault("CACHE_WARM_WORKERS", 2)
	v.SetDefault("CACHE_WARM_INTERVAL_SECONDS", 0)

	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", true)
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
