package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAnimation()
	c.normalizeMetadata()
	if err := c.normalizeAnalysis(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeMQTT()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ResultsDir) == "" {
		c.Paths.ResultsDir = defaultResultsDir
	}
	if c.Paths.ResultsDir, err = expandPath(c.Paths.ResultsDir); err != nil {
		return fmt.Errorf("paths.results_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("FRAMEREEL_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeAnimation() {
	c.Animation.FrameMarker = strings.TrimSpace(c.Animation.FrameMarker)
	if c.Animation.FrameMarker == "" {
		c.Animation.FrameMarker = defaultFrameMarker
	}
	c.Animation.OutputName = strings.TrimSpace(c.Animation.OutputName)
	if c.Animation.OutputName == "" {
		c.Animation.OutputName = defaultOutputName
	}
	c.Animation.Fit = strings.ToLower(strings.TrimSpace(c.Animation.Fit))
	if c.Animation.Fit == "" {
		c.Animation.Fit = defaultFit
	}
	c.Animation.Palette = strings.ToLower(strings.TrimSpace(c.Animation.Palette))
	if c.Animation.Palette == "" {
		c.Animation.Palette = defaultPalette
	}
}

func (c *Config) normalizeMetadata() {
	c.Metadata.FileName = strings.TrimSpace(c.Metadata.FileName)
	if c.Metadata.FileName == "" {
		c.Metadata.FileName = defaultMetadataFile
	}
	if c.Metadata.MaxLines <= 0 {
		c.Metadata.MaxLines = defaultMetadataMaxLines
	}
}

func (c *Config) normalizeAnalysis() error {
	c.Analysis.RscriptBinary = strings.TrimSpace(c.Analysis.RscriptBinary)
	if c.Analysis.RscriptBinary == "" {
		c.Analysis.RscriptBinary = defaultRscriptBinary
	}
	c.Analysis.Function = strings.TrimSpace(c.Analysis.Function)
	if c.Analysis.Function == "" {
		c.Analysis.Function = defaultAnalysisFunction
	}
	if strings.TrimSpace(c.Analysis.ScriptPath) == "" {
		c.Analysis.ScriptPath = defaultScriptPath
	}
	var err error
	if c.Analysis.ScriptPath, err = expandPath(c.Analysis.ScriptPath); err != nil {
		return fmt.Errorf("analysis.script_path: %w", err)
	}
	if c.Analysis.TimeoutSeconds <= 0 {
		c.Analysis.TimeoutSeconds = defaultAnalysisTimeout
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("FRAMEREEL_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeMQTT() {
	c.MQTT.BrokerURL = strings.TrimSpace(c.MQTT.BrokerURL)
	if c.MQTT.BrokerURL == "" {
		if value, ok := os.LookupEnv("MQTT_URL"); ok && strings.TrimSpace(value) != "" {
			c.MQTT.BrokerURL = strings.TrimSpace(value)
		} else {
			c.MQTT.BrokerURL = defaultMQTTBroker
		}
	}
	c.MQTT.ClientID = strings.TrimSpace(c.MQTT.ClientID)
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = defaultMQTTClientID
	}
	c.MQTT.TopicPrefix = strings.Trim(strings.TrimSpace(c.MQTT.TopicPrefix), "/")
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = defaultMQTTTopicPrefix
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
