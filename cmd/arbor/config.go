package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arbor-sh/arbor/pkg/outline/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage arbor configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/arbor/config.yaml (if set)
  2. ~/.config/arbor/config.yaml

Environment variables can override config file settings using the ARBOR_ prefix:
  ARBOR_DEBUG=true
  ARBOR_ENGINE_RETRY_ATTEMPTS=5
  ARBOR_UISTATE_SAVE_INTERVAL=10`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		printError("Failed to load configuration: %v", err)
		cfg = &config.Config{}
		cfg.Backend.CacheEnabled = true
		cfg.Engine.RetryAttempts = config.DefaultRetryAttempts
		cfg.Engine.RetryDelayMS = config.DefaultRetryDelayMS
		cfg.UIState.SaveInterval = config.DefaultSaveInterval
		cfg.Logging.Level = "info"
	}

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Printf("Config file: %s\n\n", configFile)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	cachePath := cfg.Backend.CachePath
	if cachePath == "" {
		cachePath = config.DefaultCachePath()
	}
	statePath := cfg.UIState.Path
	if statePath == "" {
		statePath = config.DefaultUIStatePath()
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("backend.cache_path:     %s\n", cachePath)
	fmt.Printf("backend.cache_enabled:  %t\n", cfg.Backend.CacheEnabled)
	fmt.Printf("engine.retry_attempts:  %d\n", cfg.Engine.RetryAttempts)
	fmt.Printf("engine.retry_delay_ms:  %d\n", cfg.Engine.RetryDelayMS)
	fmt.Printf("uistate.path:           %s\n", statePath)
	fmt.Printf("uistate.save_interval:  %d seconds\n", cfg.UIState.SaveInterval)
	fmt.Printf("uistate.per_window:     %t\n", cfg.UIState.PerWindow)
	fmt.Printf("logging.level:          %s\n", cfg.Logging.Level)
	fmt.Printf("debug:                  %t\n", cfg.Debug)

	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	envVars := []string{
		"ARBOR_DEBUG",
		"ARBOR_BACKEND_CACHE_PATH",
		"ARBOR_BACKEND_CACHE_ENABLED",
		"ARBOR_ENGINE_RETRY_ATTEMPTS",
		"ARBOR_ENGINE_RETRY_DELAY_MS",
		"ARBOR_UISTATE_PATH",
		"ARBOR_UISTATE_SAVE_INTERVAL",
		"ARBOR_LOGGING_LEVEL",
	}

	anyOverrides := false
	for _, name := range envVars {
		if val := os.Getenv(name); val != "" {
			fmt.Printf("%s=%s\n", name, val)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Println("(none)")
	}

	return nil
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(cmd *cobra.Command, args []string) error {
	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}

	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'arbor config edit' to modify it.")
		return nil
	}

	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	fmt.Println(configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}

	return nil
}
