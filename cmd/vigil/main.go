package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/vigil/internal/app"
	"github.com/ternarybob/vigil/internal/common"
)

var (
	configFile   = flag.String("config", "", "Configuration file path")
	configFileC  = flag.String("c", "", "Configuration file path (shorthand)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func main() {
	flag.Parse()

	common.LoadVersionFromFile()

	if *showVersion || *showVersionV {
		fmt.Printf("Vigil version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Shorthand takes precedence, then auto-discovery
	configPath := *configFile
	if *configFileC != "" {
		configPath = *configFileC
	}
	if configPath == "" {
		if _, err := os.Stat("vigil.toml"); err == nil {
			configPath = "vigil.toml"
		} else if _, err := os.Stat("deployments/local/vigil.toml"); err == nil {
			configPath = "deployments/local/vigil.toml"
		}
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file -> env)
	// 2. Initialize logger
	// 3. Print banner
	// 4. Install crash protection
	config, err := common.LoadFromFile(configPath)
	if err != nil {
		tempLogger := common.GetLogger()
		tempLogger.Fatal().Str("path", configPath).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)

	common.PrintBanner(common.GetVersion())

	common.InstallCrashHandler("")
	defer func() {
		if r := recover(); r != nil {
			crashPath := common.WriteCrashFile(r, common.GetStackTrace())
			logger.Fatal().
				Str("panic", fmt.Sprintf("%v", r)).
				Str("crash_file", crashPath).
				Msg("Unrecovered panic in main")
			os.Exit(2)
		}
	}()

	logger.Info().
		Str("config_file", configPath).
		Str("environment", config.Environment).
		Str("monitor_schedule", config.Monitor.Schedule).
		Str("log_window", config.Monitor.LogWindow).
		Bool("kernel_enabled", config.Monitor.KernelEnabled).
		Bool("updates_enabled", config.Updates.Enabled).
		Msg("Application configuration loaded")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	if err := application.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start application")
		os.Exit(1)
	}

	logger.Info().Msg("Monitor running - Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Interrupt signal received, shutting down")
}
