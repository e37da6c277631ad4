package config

import (
	"os"

	"github.com/joho/godotenv"
)

// DatabaseURLEnv names the postgres connection string used by ingest.
const DatabaseURLEnv = "DATABASE_URL"

// LoadDotEnv loads variables from a dotenv file without overriding the
// environment. An empty path loads ./.env when present.
func LoadDotEnv(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		return godotenv.Load()
	}
	return godotenv.Load(path)
}

// Getenv returns the value of key, or fallback when it is unset.
func Getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
