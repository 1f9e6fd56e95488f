// Package env holds the one lookup envconfig does not cover: reading a
// platform-injected variable (like PORT) with a configured fallback.
package env

import "os"

// Get returns the environment value for key, or fallback when unset or
// empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
