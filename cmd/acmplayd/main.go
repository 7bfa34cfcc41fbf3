// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ManuGH/acmplay/internal/config"
	"github.com/ManuGH/acmplay/internal/daemon"
	aclog "github.com/ManuGH/acmplay/internal/log"
	"github.com/ManuGH/acmplay/internal/version"
)

// envConfigPath names the config file when -config is not given.
const envConfigPath = config.EnvPrefix + "CONFIG"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "config" {
		os.Exit(runConfigCLI(os.Args[2:], os.Stdout, os.Stderr))
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Safe defaults until the config is loaded.
	aclog.Configure(aclog.Config{Level: "info", Service: "acmplay", Version: version.Version})
	logger := aclog.WithComponent("daemon")

	ctx, stop := daemon.SignalContext(context.Background())
	defer stop()

	path := strings.TrimSpace(*configPath)
	if path == "" {
		path = strings.TrimSpace(config.ParseString(envConfigPath, ""))
	}

	loader := config.NewLoader(path)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(aclog.FieldEvent, "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str(aclog.FieldEvent, "config.loaded").
		Str("source", source).
		Str(aclog.FieldPath, path).
		Msg("configuration loaded")

	holder := config.NewConfigHolder(cfg, loader)
	app, err := daemon.Build(ctx, cfg, daemon.Options{Version: version.Version, Holder: holder})
	if err != nil {
		logger.Fatal().Err(err).Str(aclog.FieldEvent, "daemon.build_failed").Msg("failed to build daemon")
	}

	if err := app.Run(ctx); err != nil {
		daemonLogger := aclog.WithComponent("daemon")
		daemonLogger.Error().Err(err).Str(aclog.FieldEvent, "daemon.failed").Msg("daemon exited with error")
		os.Exit(1)
	}
}
