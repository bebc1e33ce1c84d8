// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// vuebridge wraps a TypeScript language backend so editors get language
// intelligence inside Vue single-file components. The server speaks LSP on
// stdio; logs go to stderr.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/vuebridge/services/vuels/config"
	"github.com/AleutianAI/vuebridge/services/vuels/server"
)

// Flag values for the serve command.
var (
	configPath  string
	logLevel    string
	debugAddr   string
	backendPath string
	noWatch     bool
)

var rootCmd = &cobra.Command{
	Use:          "vuebridge",
	Short:        "Language server proxy for Vue single-file components",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve LSP on stdio",
	Long: `Serve runs the language server on stdin/stdout until the editor
disconnects. The wrapped TypeScript backend is looked up next to the
vuebridge binary unless --backend points elsewhere.`,
	RunE: runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the server version",
	Run: func(*cobra.Command, []string) {
		fmt.Println("vuebridge " + server.Version)
	},
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	serveCmd.Flags().StringVar(&debugAddr, "debug-addr", "", "Serve debug HTTP endpoints on this address")
	serveCmd.Flags().StringVar(&backendPath, "backend", "", "Backend executable name or path")
	serveCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Disable watching the project for external changes")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if debugAddr != "" {
		cfg.DebugAddr = debugAddr
	}
	if backendPath != "" {
		cfg.BackendExecutable = backendPath
	}
	if noWatch {
		cfg.Watch = false
	}

	// stdout carries the protocol; everything else goes to stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	srv := server.NewServer(cfg)

	if cfg.DebugAddr != "" {
		dbg := server.NewDebugServer(srv, cfg.DebugAddr)
		dbg.Start()
		defer func() {
			if err := dbg.Stop(context.Background()); err != nil {
				slog.Warn("debug endpoint shutdown failed", "error", err)
			}
		}()
	}

	slog.Info("vuebridge starting", "version", server.Version)
	return srv.Run()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
