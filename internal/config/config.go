package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-pdf-filler/internal/filler"
)

const (
	// Mode constants
	ModeFill   = "fill"
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultServerName  = "mcp-pdf-filler"

	// EnvPrefix is prepended to every environment variable, e.g. PDF_FILLER_MODE
	EnvPrefix = "PDF_FILLER"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the PDF form filler
type Config struct {
	// Server configuration
	Mode string // "fill", "stdio" or "server"
	Host string
	Port int

	// Base directory for MCP tool paths
	BaseDirectory string

	// Fill run configuration
	TemplatePath    string
	RecordsPath     string
	LookupTablePath string
	OutputDir       string
	Password        string
	ReportPath      string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum input file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:          ModeStdio,
		Host:          DefaultHost,
		Port:          DefaultPort,
		BaseDirectory: currentDir,
		OutputDir:     "output",
		Version:       "1.0.0",
		ServerName:    DefaultServerName,
		LogLevel:      DefaultLogLevel,
		MaxFileSize:   DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.BaseDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.BaseDirectory); err == nil {
			cfg.BaseDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

var keys = []string{
	"mode", "host", "port", "dir",
	"template", "records", "lookup", "output", "password", "report",
	"loglevel", "maxfilesize",
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.BaseDirectory)
	viper.SetDefault("template", cfg.TemplatePath)
	viper.SetDefault("records", cfg.RecordsPath)
	viper.SetDefault("lookup", cfg.LookupTablePath)
	viper.SetDefault("output", cfg.OutputDir)
	viper.SetDefault("password", cfg.Password)
	viper.SetDefault("report", cfg.ReportPath)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'fill' for a one-shot fill run, 'stdio' for MCP standard I/O, 'server' for MCP over SSE")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.BaseDirectory, "Base directory MCP tool paths are restricted to")
	pflag.String("template", cfg.TemplatePath, "PDF template with form fields (fill mode)")
	pflag.String("records", cfg.RecordsPath, "JSON file with one record or an array of records (fill mode)")
	pflag.String("lookup", cfg.LookupTablePath, "Lookup table mapping field names to record paths, .json or .yaml (fill mode)")
	pflag.String("output", cfg.OutputDir, "Output directory for filled PDFs (fill mode)")
	pflag.String("password", cfg.Password, "Owner password; encrypts every output with AES-256")
	pflag.String("report", cfg.ReportPath, "Write an .xlsx run report to this path (fill mode)")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum input file size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, key := range keys {
		_ = viper.BindPFlag(key, pflag.Lookup(key))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP PDF Filler - fill PDF form templates from JSON records\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --mode=fill --template=form.pdf --records=people.json --lookup=lookup.json --output=out\n",
			os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/forms                     # MCP over stdio (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081 # MCP over SSE\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		for _, key := range keys {
			fmt.Fprintf(os.Stderr, "  %s_%s\n", EnvPrefix, strings.ToUpper(key))
		}
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.BaseDirectory = viper.GetString("dir")
	cfg.TemplatePath = viper.GetString("template")
	cfg.RecordsPath = viper.GetString("records")
	cfg.LookupTablePath = viper.GetString("lookup")
	cfg.OutputDir = viper.GetString("output")
	cfg.Password = viper.GetString("password")
	cfg.ReportPath = viper.GetString("report")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeFill && c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be one of 'fill', 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.IsFillMode() {
		if err := c.Run().Validate(); err != nil {
			return fmt.Errorf("fill mode: %w", err)
		}
		return nil
	}

	if c.BaseDirectory == "" {
		return errors.New("base directory cannot be empty")
	}

	if _, err := os.Stat(c.BaseDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.BaseDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create base directory %s: %w", c.BaseDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access base directory %s: %w", c.BaseDirectory, err)
	}

	return nil
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// SlogLevel returns the configured level, info when unknown
func (c *Config) SlogLevel() slog.Level {
	if level, ok := logLevels[c.LogLevel]; ok {
		return level
	}
	return slog.LevelInfo
}

// Run builds the fill run configuration
func (c *Config) Run() filler.RunConfig {
	return filler.RunConfig{
		TemplatePath:    c.TemplatePath,
		RecordSetPath:   c.RecordsPath,
		LookupTablePath: c.LookupTablePath,
		OutputDir:       c.OutputDir,
		Password:        c.Password,
		ReportPath:      c.ReportPath,
	}
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration. The password is masked.
func (c *Config) String() string {
	password := ""
	if c.Password != "" {
		password = "***"
	}
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, BaseDirectory: %s, Template: %s, Records: %s, "+
		"Lookup: %s, Output: %s, Password: %s, Report: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.BaseDirectory, c.TemplatePath, c.RecordsPath,
		c.LookupTablePath, c.OutputDir, password, c.ReportPath, c.LogLevel, c.MaxFileSize)
}

// IsFillMode returns true for a one-shot fill run
func (c *Config) IsFillMode() bool {
	return c.Mode == ModeFill
}

// IsServerMode returns true if the MCP server is served over SSE
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the MCP server is served over stdio
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
