// Package envconfig loads runtime configuration from the environment,
// adapted from the teacher's config/env.go: .env file loading via
// godotenv, ${VAR:-default}/${VAR}/$VAR expansion, and typed parsing of
// the resulting string values.
package envconfig

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var envVarPatterns = struct {
	withDefault *regexp.Regexp // ${VAR:-default}
	braced      *regexp.Regexp // ${VAR}
	simple      *regexp.Regexp // $VAR
}{
	withDefault: regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*):-(.*?)\}`),
	braced:      regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`),
	simple:      regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`),
}

// Expand expands environment variable references in s.
// Supports ${VAR:-default}, ${VAR}, and $VAR, processed in that order so
// the more specific forms take precedence.
func Expand(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}

	s = envVarPatterns.withDefault.ReplaceAllStringFunc(s, func(match string) string {
		parts := envVarPatterns.withDefault.FindStringSubmatch(match)
		if len(parts) != 3 {
			return match
		}
		if val := os.Getenv(parts[1]); val != "" {
			return val
		}
		return parts[2]
	})

	s = envVarPatterns.braced.ReplaceAllStringFunc(s, func(match string) string {
		parts := envVarPatterns.braced.FindStringSubmatch(match)
		if len(parts) != 2 {
			return match
		}
		return os.Getenv(parts[1])
	})

	s = envVarPatterns.simple.ReplaceAllStringFunc(s, func(match string) string {
		parts := envVarPatterns.simple.FindStringSubmatch(match)
		if len(parts) != 2 {
			return match
		}
		return os.Getenv(parts[1])
	})

	return s
}

// Load reads .env.local then .env into the process environment. A file
// never overrides a variable that is already set, so the priority order is:
// whatever was already set, then .env.local, then .env. Missing files are
// not an error.
func Load() error {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// String returns the expanded value of key, or def if unset.
func String(key, def string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return Expand(v)
}

// Bool returns the boolean value of key, or def if unset or unparsable.
func Bool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(Expand(v))
	if err != nil {
		return def
	}
	return b
}

// Int returns the integer value of key, or def if unset or unparsable.
func Int(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(Expand(v))
	if err != nil {
		return def
	}
	return n
}

// Duration returns the time.Duration value of key (Go duration syntax,
// e.g. "30s"), or def if unset or unparsable.
func Duration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(Expand(v))
	if err != nil {
		return def
	}
	return d
}
