package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"framereel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ResultsDir = filepath.Join(base, "results")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Analysis.ScriptPath = filepath.Join(base, "tcp.R")
	cfgVal.Notifications.NtfyTopic = ""
	if err := os.MkdirAll(cfgVal.Paths.ResultsDir, 0o755); err != nil {
		t.Fatalf("mkdir results dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithFit sets the frame fit policy.
func WithFit(fit string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Animation.Fit = fit
	}
}

// WithAPIToken enables bearer authentication on the test config.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// WithAnalysisDisabled turns off the R analysis endpoint.
func WithAnalysisDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Analysis.Enabled = false
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, Rscript is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"Rscript"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			WriteExecutable(b.t, filepath.Join(binDir, name), "#!/bin/sh\nexit 0\n")
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// WithRscriptStub installs an executable that prints body's lines and exits
// with code, and points the analysis config at it.
func WithRscriptStub(body string, code int) ConfigOption {
	return func(b *configBuilder) {
		target := filepath.Join(b.baseDir, "bin", "Rscript-stub")
		script := "#!/bin/sh\ncat <<'__OUT__'\n" + body + "\n__OUT__\nexit " + strconv.Itoa(code) + "\n"
		WriteExecutable(b.t, target, script)
		b.cfg.Analysis.RscriptBinary = target
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ResultsDir)
}

// WriteExecutable writes an executable script, creating parent directories.
func WriteExecutable(t testing.TB, path, script string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write executable %s: %v", path, err)
	}
}
