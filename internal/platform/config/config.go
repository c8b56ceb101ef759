package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string

	JWTAccessKey  []byte
	JWTRefreshKey []byte
	JWTAccessExp  time.Duration
	JWTRefreshExp time.Duration

	MongoURI       string
	MongoDBName    string
	MongoOpTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	BootstrapAdminUsername string
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:       getEnv("API_PORT", "8080"),
		JWTAccessKey:  []byte(getEnv("JWT_ACCESS_SECRET", "defaultaccesssecret")),
		JWTRefreshKey: []byte(getEnv("JWT_REFRESH_SECRET", "defaultrefreshsecret")),
		JWTAccessExp:  time.Duration(getEnvAsInt("JWT_ACCESS_EXPIRATION_MINUTES", 60)) * time.Minute,
		JWTRefreshExp: time.Duration(getEnvAsInt("JWT_REFRESH_EXPIRATION_DAYS", 7)) * 24 * time.Hour,

		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:    getEnv("MONGO_DB_NAME", "quizgen"),
		MongoOpTimeout: time.Duration(getEnvAsInt("MONGO_OP_TIMEOUT_SECONDS", 20)) * time.Second,

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		BootstrapAdminUsername: getEnv("BOOTSTRAP_ADMIN_USERNAME", ""),
		BootstrapAdminEmail:    getEnv("BOOTSTRAP_ADMIN_EMAIL", ""),
		BootstrapAdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
