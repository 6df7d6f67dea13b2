package config

import (
	"os"
	"strconv"
	"time"
)

// GetEnvAsString retrieves an environment variable or returns a default value
func GetEnvAsString(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}

// GetEnvAsInt retrieves an environment variable and converts it to an integer
func GetEnvAsInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultVal
}

// GetEnvAsBool retrieves an environment variable and converts it to boolean
func GetEnvAsBool(key string, defaultVal bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if result, err := strconv.ParseBool(value); err == nil {
			return result
		}
	}
	return defaultVal
}

// GetEnvAsDuration accepts a Go duration ("720h") or a plain number of seconds.
func GetEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	if result, err := time.ParseDuration(value); err == nil {
		return result
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}
