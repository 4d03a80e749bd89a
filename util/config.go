package util

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config carries the runtime settings of the server, sourced from the
// environment with an optional .env file for local development.
type Config struct {
	Port           string
	DBPath         string
	MigrationsPath string
	UploadDir      string
	AllowedOrigin  string
}

// LoadConfig reads .env (if present) and the environment. Missing values fall
// back to local-development defaults.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment defaults")
	}

	return Config{
		Port:           envOrDefault("PORT", "8080"),
		DBPath:         envOrDefault("DB_PATH", "./volunteerhub.db"),
		MigrationsPath: envOrDefault("MIGRATIONS_PATH", "pkg/db/migrations/sqlite"),
		UploadDir:      envOrDefault("UPLOAD_DIR", "./uploads"),
		AllowedOrigin:  envOrDefault("ALLOWED_ORIGIN", "http://localhost:3000"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
