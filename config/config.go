package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config đọc biến môi trường, ưu tiên file .env nếu có
func Config(key string) string {
	godotenv.Load(".env")
	return os.Getenv(key)
}

// ConfigDefault trả về fallback khi biến không được set
func ConfigDefault(key, fallback string) string {
	if v := Config(key); v != "" {
		return v
	}
	return fallback
}
