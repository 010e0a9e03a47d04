package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

func Config(key string) string {
	loadOnce.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("Warning: .env file not found, reading from system environment variables")
		}
	})

	return os.Getenv(key)
}

func ConfigDefault(key, def string) string {
	if v := Config(key); v != "" {
		return v
	}
	return def
}

func ConfigInt(key string, def int) int {
	v, err := strconv.Atoi(Config(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// Location is the timezone every calendar date and time-of-day is read in.
func Location() *time.Location {
	name := ConfigDefault("APP_TIMEZONE", "Africa/Nairobi")
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("⚠️ Unknown APP_TIMEZONE %q, falling back to UTC", name)
		return time.UTC
	}
	return loc
}
