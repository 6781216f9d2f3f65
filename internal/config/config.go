package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Config holds the global configuration for a classification run
type Config struct {
	// Input settings
	InputFile   string
	MappingFile string // Path to tag mapping YAML (empty = built-in default)
	ScriptFile  string // Optional Lua filter script

	// Output settings
	OutputDir string

	// Extraction settings
	PreferredLanguage string // Two-letter language code for name:XX preference

	// Database settings (used when loading results into PostgreSQL)
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSchema   string

	// Processing settings
	Workers   int
	BatchSize int

	// Feature flags
	SkipNodes     bool
	SkipWays      bool
	SkipRelations bool
	Verbose       bool

	// Logging and metrics
	LogFile         string        // Path to log file (empty = no file logging)
	MetricsInterval time.Duration // Interval for system metrics logging
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		OutputDir:       "./tagprep_data",
		DBHost:          "localhost",
		DBPort:          5432,
		DBName:          "osm",
		DBUser:          "postgres",
		DBPassword:      "",
		DBSchema:        "public",
		Workers:         runtime.NumCPU(),
		BatchSize:       100000,
		Verbose:         false,
		LogFile:         "",
		MetricsInterval: 30 * time.Second,
	}
}

// ConnectionString returns a PostgreSQL connection string
func (c *Config) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBName, c.DBUser,
	)
	if c.DBPassword != "" {
		connStr += fmt.Sprintf(" password=%s", c.DBPassword)
	}
	return connStr
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.InputFile == "" {
		return fmt.Errorf("input file is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.BatchSize < 1000 {
		return fmt.Errorf("batch size must be at least 1000")
	}
	if c.PreferredLanguage != "" {
		lang := strings.ToLower(c.PreferredLanguage)
		if len(lang) != 2 || lang[0] < 'a' || lang[0] > 'z' || lang[1] < 'a' || lang[1] > 'z' {
			return fmt.Errorf("preferred language must be a two-letter code, got %q", c.PreferredLanguage)
		}
	}
	return nil
}
