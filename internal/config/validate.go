package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAnimation(); err != nil {
		return err
	}
	if err := c.validateMetadata(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateMQTT(); err != nil {
		return err
	}
	if c.Pipeline.RunTimeoutSeconds < 0 {
		return errors.New("pipeline.run_timeout_seconds must be >= 0")
	}
	if c.Pipeline.JobRetentionDays < 0 {
		return errors.New("pipeline.job_retention_days must be >= 0")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ResultsDir) == "" {
		return errors.New("paths.results_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateAnimation() error {
	a := c.Animation
	if strings.ContainsAny(a.OutputName, `/\`) || a.OutputName == "." || a.OutputName == ".." {
		return fmt.Errorf("animation.output_name must be a plain file name, got %q", a.OutputName)
	}
	if !strings.EqualFold(filepath.Ext(a.OutputName), ".gif") {
		return fmt.Errorf("animation.output_name must end in .gif, got %q", a.OutputName)
	}
	if strings.Contains(a.OutputName, a.FrameMarker) {
		return fmt.Errorf("animation.output_name %q must not contain frame_marker %q", a.OutputName, a.FrameMarker)
	}
	if a.FrameDelayMS <= 0 {
		return errors.New("animation.frame_delay_ms must be positive")
	}
	if a.FrameDelayMS/10 > maxGIFDelayCentiseconds {
		return fmt.Errorf("animation.frame_delay_ms must be <= %d", maxGIFDelayCentiseconds*10)
	}
	if a.LoopCount < -1 || a.LoopCount > maxGIFLoopCount {
		return fmt.Errorf("animation.loop_count must be between -1 and %d", maxGIFLoopCount)
	}
	switch a.Fit {
	case FitReject, FitCrop, FitPad, FitScale:
	default:
		return fmt.Errorf("animation.fit must be one of reject, crop, pad, scale; got %q", a.Fit)
	}
	switch a.Palette {
	case PalettePlan9, PaletteWebSafe:
	default:
		return fmt.Errorf("animation.palette must be plan9 or websafe; got %q", a.Palette)
	}
	return nil
}

func (c *Config) validateMetadata() error {
	if c.Metadata.StripPrefix < 0 || c.Metadata.StripSuffix < 0 {
		return errors.New("metadata.strip_prefix and metadata.strip_suffix must be >= 0")
	}
	if strings.ContainsAny(c.Metadata.FileName, `/\`) {
		return fmt.Errorf("metadata.file_name must be a plain file name, got %q", c.Metadata.FileName)
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if !c.Analysis.Enabled {
		return nil
	}
	if c.Analysis.TimeoutSeconds > maxAnalysisTimeoutSeconds {
		return fmt.Errorf("analysis.timeout_seconds must be <= %d", maxAnalysisTimeoutSeconds)
	}
	if !isIdentifier(c.Analysis.Function) {
		return fmt.Errorf("analysis.function must be a valid R identifier, got %q", c.Analysis.Function)
	}
	return nil
}

func (c *Config) validateMQTT() error {
	if !c.MQTT.Enabled {
		return nil
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return errors.New("mqtt.qos must be 0, 1, or 2")
	}
	if strings.ContainsAny(c.MQTT.TopicPrefix, "#+") {
		return errors.New("mqtt.topic_prefix must not contain wildcards")
	}
	return nil
}

func isIdentifier(value string) bool {
	if value == "" {
		return false
	}
	for i, r := range value {
		switch {
		case r == '_' || r == '.':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
