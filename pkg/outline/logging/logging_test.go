package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arbor-sh/arbor/pkg/outline/logging"
)

// TestInit tests the Init function with various configurations.
// Note: This test cannot run in parallel with other tests that use global state.
func TestInit(t *testing.T) {
	validDir := t.TempDir()
	debugDir := t.TempDir()
	componentsDir := t.TempDir()
	invalidDir := t.TempDir()

	tests := []struct {
		name    string
		cfg     logging.Config
		wantErr bool
	}{
		{
			name: "valid config with defaults",
			cfg: logging.Config{
				Level: "info",
				Path:  filepath.Join(validDir, "test.log"),
			},
			wantErr: false,
		},
		{
			name: "valid config with debug level",
			cfg: logging.Config{
				Level: "debug",
				Path:  filepath.Join(debugDir, "debug.log"),
			},
			wantErr: false,
		},
		{
			name: "valid config with component overrides",
			cfg: logging.Config{
				Level: "info",
				Path:  filepath.Join(componentsDir, "components.log"),
				Components: map[string]string{
					"engine":  "debug",
					"backend": "warn",
				},
			},
			wantErr: false,
		},
		{
			name: "invalid log level",
			cfg: logging.Config{
				Level: "invalid",
				Path:  filepath.Join(invalidDir, "invalid.log"),
			},
			wantErr: true,
		},
		{
			name: "invalid component level",
			cfg: logging.Config{
				Level:      "info",
				Path:       filepath.Join(invalidDir, "component.log"),
				Components: map[string]string{"engine": "loudest"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := logging.Init(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Init() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				_ = logging.Close()
			}
		})
	}
}

func TestGetBeforeInit(t *testing.T) {
	// Loggers created before Init must be safe to use (writes discarded).
	logger := logging.Get("preinit")
	if logger == nil {
		t.Fatal("Get() returned nil before Init")
	}
	logger.Info("discarded")
}

func TestGetReturnsSameLogger(t *testing.T) {
	a := logging.Get("same-component")
	b := logging.Get("same-component")
	if a != b {
		t.Error("Get() returned different loggers for the same component")
	}
}

func TestLoggerWritesToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "write.log")

	if err := logging.Init(logging.Config{Level: "debug", Path: path}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logger := logging.Get("write-test")
	logger.Info("hello from the engine", "nodes", 3)

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "hello from the engine") {
		t.Errorf("log file missing message, got: %s", content)
	}
	if !strings.Contains(content, "write-test") {
		t.Errorf("log file missing component prefix, got: %s", content)
	}
}

func TestComponentLevelOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "levels.log")

	if err := logging.Init(logging.Config{
		Level:      "error",
		Path:       path,
		Components: map[string]string{"chatty": "debug"},
	}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logging.Get("chatty").Debug("override lets this through")
	logging.Get("quiet").Debug("default level drops this")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "override lets this through") {
		t.Error("component override did not lower the level")
	}
	if strings.Contains(content, "default level drops this") {
		t.Error("default level did not suppress the debug message")
	}
}

func TestWith(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "with.log")

	if err := logging.Init(logging.Config{Level: "info", Path: path}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logging.Get("ctx").With("op", "rename").Info("done")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "op=rename") {
		t.Errorf("contextual field missing, got: %s", string(data))
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    logging.Level
		wantErr bool
	}{
		{"debug", logging.LevelDebug, false},
		{"info", logging.LevelInfo, false},
		{"warn", logging.LevelWarn, false},
		{"warning", logging.LevelWarn, false},
		{"error", logging.LevelError, false},
		{"ERROR", logging.LevelError, false},
		{"silent", logging.LevelInfo, true},
		{"", logging.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := logging.ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	if logging.LevelWarn.String() != "warn" {
		t.Errorf("LevelWarn.String() = %q, want %q", logging.LevelWarn.String(), "warn")
	}
}
