// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/acmplay/internal/log"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ACMPLAY_"

// envOr parses key with parse. Unset and empty variables yield def; a value
// that does not parse is logged and also yields def.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def
	}
	logger := log.WithComponent("config")
	v, err := parse(raw)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", raw).Err(err).
			Msg("ignoring unparsable environment override")
		return def
	}
	logger.Debug().Str("key", key).Str("source", "environment").Msg("environment override applied")
	return v
}

// ParseString reads a string override.
func ParseString(key, def string) string {
	return envOr(key, def, func(s string) (string, error) { return s, nil })
}

// ParseStringSlice reads a comma separated list. Blank items are dropped.
func ParseStringSlice(key string, def []string) []string {
	return envOr(key, def, func(s string) ([]string, error) {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	})
}

// ParseInt reads a base-10 integer override.
func ParseInt(key string, def int) int {
	return envOr(key, def, strconv.Atoi)
}

// ParseFloat reads a float64 override.
func ParseFloat(key string, def float64) float64 {
	return envOr(key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

// ParseDuration reads a Go duration such as "5s".
func ParseDuration(key string, def time.Duration) time.Duration {
	return envOr(key, def, time.ParseDuration)
}

// ParseBool accepts true/false, 1/0 and yes/no in any case.
func ParseBool(key string, def bool) bool {
	return envOr(key, def, func(s string) (bool, error) {
		switch strings.ToLower(s) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return false, strconv.ErrSyntax
	})
}
