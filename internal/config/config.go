// Package config provides configuration management for the recording server.
// Defaults are overridden first by environment variables and then by CLI
// flags, so a flag always wins over the environment.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// Default values
	DefaultHost     = "127.0.0.1"
	DefaultPort     = 8000
	DefaultLogLevel = "info"
	DefaultDataDir  = ".drake-recorder"

	// Environment variable names
	EnvHost     = "DRAKEREC_HOST"
	EnvPort     = "DRAKEREC_PORT"
	EnvLogLevel = "DRAKEREC_LOG_LEVEL"
	EnvDataDir  = "DRAKEREC_DATA_DIR"

	// Database filename
	DBFilename = "recorder.db"

	// ExportExt is the required suffix for the exported project snapshot.
	ExportExt = ".glb"

	// DumpExt is the required suffix for the frame-list dump file.
	DumpExt = ".gob"
)

// Config defines the recording server configuration interface
type Config interface {
	Host() string
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	BaseFile() string
	SettingsScript() string
	ExportPath() string
	DumpPath() string
	Headless() bool
}

// FlagConfig reads configuration from environment variables and CLI flags
type FlagConfig struct {
	host           string
	port           int
	logLevel       string
	dataDir        string
	baseFile       string
	settingsScript string
	exportPath     string
	dumpPath       string
	headless       bool
}

// New parses the given CLI arguments (not including the program name) into
// a FlagConfig. Flag defaults come from the environment where set.
func New(args []string) (*FlagConfig, error) {
	cfg := &FlagConfig{
		host:     DefaultHost,
		port:     DefaultPort,
		logLevel: DefaultLogLevel,
		dataDir:  defaultDataDir(),
	}

	if h := os.Getenv(EnvHost); h != "" {
		cfg.host = h
	}
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		cfg.port = port
	}
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	fs := flag.NewFlagSet("recorder", flag.ContinueOnError)
	fs.StringVar(&cfg.host, "host", cfg.host, "address to host on")
	fs.IntVar(&cfg.port, "port", cfg.port, "port to host on")
	fs.StringVar(&cfg.logLevel, "log-level", cfg.logLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.dataDir, "data-dir", cfg.dataDir, "directory for the session catalog database")
	fs.StringVar(&cfg.baseFile, "base-file", "", "optional base project (*.glb or *.gltf) reloaded before each import")
	fs.StringVar(&cfg.settingsScript, "settings-script", "", "optional *.lua file executed with the scene session in scope; trusted input only")
	fs.StringVar(&cfg.exportPath, "export-path", "", "path to export the project snapshot after the first frame (required, *.glb)")
	fs.StringVar(&cfg.dumpPath, "dump-path", "", "path to dump recorded frames to (required, *.gob)")
	fs.BoolVar(&cfg.headless, "headless", false, "run without the system tray")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *FlagConfig) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.port)
	}
	if c.exportPath == "" {
		return fmt.Errorf("export-path is required")
	}
	if ext := filepath.Ext(c.exportPath); ext != ExportExt {
		return fmt.Errorf("expected export-path to have %q suffix, got %q", ExportExt, ext)
	}
	if c.dumpPath == "" {
		return fmt.Errorf("dump-path is required")
	}
	if ext := filepath.Ext(c.dumpPath); ext != DumpExt {
		return fmt.Errorf("expected dump-path to have %q suffix, got %q", DumpExt, ext)
	}
	if c.settingsScript != "" && !strings.HasSuffix(c.settingsScript, ".lua") {
		return fmt.Errorf("expected settings-script to have \".lua\" suffix, got %q", c.settingsScript)
	}
	return nil
}

// Host returns the HTTP server bind address
func (c *FlagConfig) Host() string {
	return c.host
}

// Port returns the HTTP server port
func (c *FlagConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *FlagConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *FlagConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *FlagConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// BaseFile returns the optional base project path, or "" when unset
func (c *FlagConfig) BaseFile() string {
	return c.baseFile
}

// SettingsScript returns the optional settings script path, or "" when unset
func (c *FlagConfig) SettingsScript() string {
	return c.settingsScript
}

// ExportPath returns the project snapshot export path
func (c *FlagConfig) ExportPath() string {
	return c.exportPath
}

// DumpPath returns the frame-list dump path
func (c *FlagConfig) DumpPath() string {
	return c.dumpPath
}

// Headless reports whether the system tray is disabled
func (c *FlagConfig) Headless() bool {
	return c.headless
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
