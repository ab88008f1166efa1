// Package auth derives the obfuscated dashboard links handed to restaurant
// owners. Session handling itself lives outside this service.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

const DefaultHashSecret = "default-secret"

// DashboardLinks are the relative URLs of the two dashboards.
type DashboardLinks struct {
	Restaurants string `json:"restaurants"`
	Tours       string `json:"tours"`
}

// DashboardHash returns the first 16 hex characters of sha256(secret).
func DashboardHash(secret string) string {
	if secret == "" {
		secret = DefaultHashSecret
	}
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])[:16]
}

func Links(secret string) DashboardLinks {
	return DashboardLinks{
		Restaurants: "/restaurants/" + DashboardHash(secret),
		Tours:       "/tours",
	}
}
