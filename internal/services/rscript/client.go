package rscript

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"framereel/internal/config"
	"framereel/internal/frames"
	"framereel/internal/services"
)

const component = "analysis"

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, dir, binary string, args []string) (stdout, stderr []byte, err error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithWorkDir sets the directory the script runs in.
func WithWorkDir(dir string) Option {
	return func(c *Client) {
		c.workDir = dir
	}
}

// Client wraps Rscript invocations.
type Client struct {
	binary   string
	script   string
	function string
	timeout  time.Duration
	workDir  string
	exec     Executor
}

// New constructs an analysis client.
func New(binary, script, function string, timeout time.Duration, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "rscript binary required", nil)
	}
	if strings.TrimSpace(script) == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "script path required", nil)
	}
	if strings.TrimSpace(function) == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "entry function required", nil)
	}
	client := &Client{
		binary:   binary,
		script:   script,
		function: function,
		timeout:  timeout,
		exec:     commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// NewFromConfig builds a client from the analysis section. The script runs
// from the parent of the results directory so relative result paths inside
// the script resolve the same way they do for the daemon.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "configuration unavailable", nil)
	}
	if !cfg.Analysis.Enabled {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "analysis disabled", nil)
	}
	base := []Option{WithWorkDir(filepath.Dir(cfg.Paths.ResultsDir))}
	return New(cfg.Analysis.RscriptBinary, cfg.Analysis.ScriptPath, cfg.Analysis.Function, cfg.AnalysisTimeout(), append(base, opts...)...)
}

// Expression returns the R expression evaluated for datasetID.
func (c *Client) Expression(datasetID string) string {
	return fmt.Sprintf("source(%s); print(%s(dataset = %s))", quote(c.script), c.function, quote(datasetID))
}

// Analyze runs the script for datasetID and returns its printed lines.
func (c *Client) Analyze(ctx context.Context, datasetID string) ([]string, error) {
	if err := frames.ValidateDatasetID(datasetID); err != nil {
		return nil, services.Wrap(services.ErrValidation, component, "prepare", "invalid dataset id", err)
	}
	if _, err := os.Stat(c.script); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "prepare", "script unavailable", err)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{"--vanilla", "-e", c.Expression(datasetID)}
	stdout, stderr, err := c.exec.Run(runCtx, c.workDir, c.binary, args)
	if err != nil {
		switch {
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			return nil, services.Wrap(services.ErrTimeout, component, "run", fmt.Sprintf("exceeded %s", c.timeout), err)
		case errors.Is(err, exec.ErrNotFound):
			return nil, services.Wrap(services.ErrConfiguration, component, "run", "rscript binary not found", err)
		case ctx.Err() != nil:
			return nil, ctx.Err()
		}
		return nil, services.Wrap(services.ErrExternalTool, component, "run", tail(stderr), err)
	}
	return splitLines(stdout), nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, dir, binary string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// quote renders s as an R double-quoted string literal.
func quote(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + replacer.Replace(s) + `"`
}

func splitLines(out []byte) []string {
	text := strings.TrimRight(strings.ReplaceAll(string(out), "\r\n", "\n"), "\n")
	if text == "" {
		return []string{}
	}
	return strings.Split(text, "\n")
}

// tail keeps the last few stderr lines for error messages.
func tail(stderr []byte) string {
	lines := splitLines(stderr)
	if len(lines) == 0 {
		return "rscript failed"
	}
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.Join(lines, " | ")
}
