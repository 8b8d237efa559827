package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arbor-sh/arbor/cmd/arbor/tui"
	"github.com/arbor-sh/arbor/pkg/backend"
	"github.com/arbor-sh/arbor/pkg/backend/cache"
	"github.com/arbor-sh/arbor/pkg/outline/config"
	"github.com/arbor-sh/arbor/pkg/outline/engine"
	"github.com/arbor-sh/arbor/pkg/outline/logging"
	"github.com/arbor-sh/arbor/pkg/outline/uistate"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "arbor",
		Short: "Navigate and edit your task outline from the terminal",
		Long: `Arbor is a tree-structured outline client for tasks, notes, templates,
and smart folders. It keeps a local index of the server's flat node
list, applies your edits optimistically, and reconciles on every sync.

Examples:
  arbor                      # Open the interactive outline
  arbor --debug              # Validate the tree after every mutation
  arbor config show          # Show configuration
  arbor version              # Print version information`,
		Args: cobra.NoArgs,
		RunE: runOutline,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/arbor/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "validate the tree after every mutation")
	rootCmd.PersistentFlags().Bool("no-cache", false, "disable the offline node cache")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("no_cache", rootCmd.PersistentFlags().Lookup("no-cache"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "arbor"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "arbor"))
		}
	}

	viper.SetEnvPrefix("ARBOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("engine.retry_attempts", config.DefaultRetryAttempts)
	viper.SetDefault("engine.retry_delay_ms", config.DefaultRetryDelayMS)
	viper.SetDefault("uistate.save_interval", config.DefaultSaveInterval)

	_ = viper.ReadInConfig()
}

// runOutline wires the backend, engine, and window state together and
// hands control to the TUI.
func runOutline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if viper.GetBool("debug") {
		cfg.Debug = true
	}

	logPath := cfg.Logging.Path
	if logPath == "" {
		logPath = logging.DefaultLogPath()
	}
	if err := logging.Init(logging.Config{
		Level:      cfg.Logging.Level,
		Path:       logPath,
		Components: cfg.Logging.Components,
	}); err != nil {
		printError("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	var nodeCache backend.NodeCache
	if cfg.Backend.CacheEnabled && !viper.GetBool("no_cache") {
		cachePath := cfg.Backend.CachePath
		if cachePath == "" {
			cachePath = config.DefaultCachePath()
		}
		store, err := cache.Open(cachePath)
		if err != nil {
			printError("Offline cache unavailable: %v", err)
		} else {
			defer store.Close()
			nodeCache = store
		}
	}

	// TODO: replace the seeded in-process store with the HTTP remote
	// once the sync API settles.
	remote := backend.NewMemory(nil)
	client := backend.NewClient(remote, nodeCache)

	eng := engine.New(client, engine.Options{
		RetryAttempts: cfg.Engine.RetryAttempts,
		RetryDelay:    time.Duration(cfg.Engine.RetryDelayMS) * time.Millisecond,
		Debug:         cfg.Debug,
	})

	statePath := cfg.UIState.Path
	if statePath == "" {
		statePath = config.DefaultUIStatePath()
	}
	saver := uistate.NewSaver(statePath, time.Duration(cfg.UIState.SaveInterval)*time.Second)
	windows, err := saver.Load()
	if err != nil {
		printError("Failed to load window state: %v", err)
		windows = uistate.DefaultState()
	}
	saver.Start()
	defer saver.Stop()

	if !eng.Refresh(context.Background()) {
		printVerbose("Initial sync failed, starting from the cached list")
	}

	model := tui.NewModel(tui.Options{
		Engine:  eng,
		Saver:   saver,
		Windows: windows,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI failed: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
