// Package config loads the allocator's boot-time configuration from
// environment variables, in the spirit of walletserver/config.Load: a
// best-effort .env load followed by a single pass over named variables into
// an immutable struct.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config is the full set of recognized environment variables (spec §6),
// parsed once at startup into an immutable value.
type Config struct {
	PrivateKeyHex             string
	AllocatorAddress          string
	SigningAddress            string
	BaseURL                   string
	Domain                    string
	Port                      string
	CORSOrigin                string
	GraphQLEndpoint           string
	SkipSigningVerification   bool
	TestAcceptLockIDOne       bool
}

// Load reads and validates the environment. A missing .env file is not an
// error — it mirrors walletserver/config.Load's tolerance for running under
// a real environment instead of a dev .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugf("config: no .env file loaded: %v", err)
	}

	cfg := &Config{
		PrivateKeyHex:           os.Getenv("PRIVATE_KEY"),
		AllocatorAddress:        os.Getenv("ALLOCATOR_ADDRESS"),
		SigningAddress:          os.Getenv("SIGNING_ADDRESS"),
		BaseURL:                 os.Getenv("BASE_URL"),
		Domain:                  os.Getenv("DOMAIN"),
		Port:                    envOrDefault("PORT", "3000"),
		CORSOrigin:              envOrDefault("CORS_ORIGIN", "*"),
		GraphQLEndpoint:         os.Getenv("GRAPHQL_ENDPOINT"),
		SkipSigningVerification: envBool("SKIP_SIGNING_VERIFICATION"),
		TestAcceptLockIDOne:     envBool("TEST_ACCEPT_LOCK_ID_ONE"),
	}

	var missing []string
	for name, v := range map[string]string{
		"PRIVATE_KEY":       cfg.PrivateKeyHex,
		"ALLOCATOR_ADDRESS": cfg.AllocatorAddress,
		"SIGNING_ADDRESS":   cfg.SigningAddress,
		"BASE_URL":          cfg.BaseURL,
		"DOMAIN":            cfg.Domain,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}
