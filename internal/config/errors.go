// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported config format (only YAML supported)")
	ErrUnknownField      = errors.New("unknown config field")
	ErrMultipleDocuments = errors.New("config file contains multiple documents or trailing content")
	ErrNotFound          = errors.New("config file not found")
)
