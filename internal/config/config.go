package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	ResultsDir string `toml:"results_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
	APIToken   string `toml:"api_token"`
}

// Animation controls how frames are discovered, composited, and encoded.
type Animation struct {
	FrameMarker        string `toml:"frame_marker"`
	OutputName         string `toml:"output_name"`
	FrameDelayMS       int    `toml:"frame_delay_ms"`
	LoopCount          int    `toml:"loop_count"`
	Fit                string `toml:"fit"`
	ClearBetweenFrames bool   `toml:"clear_between_frames"`
	Palette            string `toml:"palette"`
	Dither             bool   `toml:"dither"`
}

// Pipeline contains run-level limits for artifact generation.
type Pipeline struct {
	// RunTimeoutSeconds bounds a single run. Zero disables the timeout.
	RunTimeoutSeconds int `toml:"run_timeout_seconds"`
	// JobRetentionDays prunes finished job records at daemon start. Zero keeps them.
	JobRetentionDays int `toml:"job_retention_days"`
}

// Metadata describes the per-dataset result text file rendered next to the GIF.
type Metadata struct {
	FileName    string `toml:"file_name"`
	MaxLines    int    `toml:"max_lines"`
	StripPrefix int    `toml:"strip_prefix"`
	StripSuffix int    `toml:"strip_suffix"`
}

// Analysis configures the external R script invoked per dataset.
type Analysis struct {
	Enabled        bool   `toml:"enabled"`
	RscriptBinary  string `toml:"rscript_binary"`
	ScriptPath     string `toml:"script_path"`
	Function       string `toml:"function"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Artifact       bool   `toml:"artifact"`
	Analysis       bool   `toml:"analysis"`
	Errors         bool   `toml:"errors"`
}

// MQTT contains configuration for publishing job events to a broker.
type MQTT struct {
	Enabled     bool   `toml:"enabled"`
	BrokerURL   string `toml:"broker_url"`
	ClientID    string `toml:"client_id"`
	TopicPrefix string `toml:"topic_prefix"`
	QoS         int    `toml:"qos"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for framereel.
//
// Configuration sections by subsystem:
//   - Paths: results root, log directory, and API bind address
//   - Animation: frame marker, delay, loop count, fit policy, palette
//   - Pipeline: run timeout
//   - Metadata: result.txt parsing rules
//   - Analysis: external R script invocation
//   - Notifications: ntfy push notification settings
//   - MQTT: job event publishing
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Animation     Animation     `toml:"animation"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Metadata      Metadata      `toml:"metadata"`
	Analysis      Analysis      `toml:"analysis"`
	Notifications Notifications `toml:"notifications"`
	MQTT          MQTT          `toml:"mqtt"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/framereel/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("framereel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// The results directory is created on a best-effort basis: datasets are
// produced by external tooling and the daemon only reads from it.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	if strings.TrimSpace(c.Paths.ResultsDir) != "" {
		_ = os.MkdirAll(c.Paths.ResultsDir, 0o755)
	}
	return nil
}

// LockDir returns the directory holding per-dataset and daemon lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.LogDir, "locks")
}

// JobsDBPath returns the sqlite database path for job history.
func (c *Config) JobsDBPath() string {
	return filepath.Join(c.Paths.LogDir, "jobs.db")
}

// FrameDelay returns the per-frame display delay.
func (c *Config) FrameDelay() time.Duration {
	return time.Duration(c.Animation.FrameDelayMS) * time.Millisecond
}

// RunTimeout returns the per-run timeout, or zero when runs are unbounded.
func (c *Config) RunTimeout() time.Duration {
	if c.Pipeline.RunTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Pipeline.RunTimeoutSeconds) * time.Second
}

// JobRetention returns how long finished job records are kept, or zero to keep them all.
func (c *Config) JobRetention() time.Duration {
	if c.Pipeline.JobRetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.Pipeline.JobRetentionDays) * 24 * time.Hour
}

// PIDPath returns the daemon pid file location.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.LogDir, "framereeld.pid")
}

// AnalysisTimeout returns the R script timeout.
func (c *Config) AnalysisTimeout() time.Duration {
	return time.Duration(c.Analysis.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
