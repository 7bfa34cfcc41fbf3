// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads the acmplay daemon configuration.
//
// Precedence is defaults, then the YAML file, then ACMPLAY_* environment
// variables. The file is parsed strictly: unknown keys and trailing
// documents are rejected. ConfigHolder keeps the active configuration and
// reloads it when the file changes or on request.
package config
