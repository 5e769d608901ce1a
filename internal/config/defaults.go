package config

const (
	defaultResultsDir         = "results"
	defaultLogDir             = "~/.local/share/framereel/logs"
	defaultAPIBind            = "127.0.0.1:3000"
	defaultFrameMarker        = "png"
	defaultOutputName         = "result.gif"
	defaultFrameDelayMS       = 200
	defaultFit                = FitReject
	defaultPalette            = PalettePlan9
	defaultRunTimeoutSeconds  = 300
	defaultJobRetentionDays   = 30
	defaultMetadataFile       = "result.txt"
	defaultMetadataMaxLines   = 4
	defaultMetadataPrefix     = 5
	defaultMetadataSuffix     = 1
	defaultRscriptBinary      = "Rscript"
	defaultScriptPath         = "./tcp.R"
	defaultAnalysisFunction   = "main"
	defaultAnalysisTimeout    = 600
	defaultNotifyTimeout      = 10
	defaultMQTTBroker         = "tcp://localhost:1883"
	defaultMQTTClientID       = "framereeld"
	defaultMQTTTopicPrefix    = "framereel"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	maxGIFDelayCentiseconds   = 65535
	maxGIFLoopCount           = 65535
	maxAnalysisTimeoutSeconds = 24 * 60 * 60
)

// Fit policies for frames whose geometry differs from the first frame.
const (
	FitReject = "reject"
	FitCrop   = "crop"
	FitPad    = "pad"
	FitScale  = "scale"
)

// Palettes supported by the GIF encoder.
const (
	PalettePlan9   = "plan9"
	PaletteWebSafe = "websafe"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ResultsDir: defaultResultsDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Animation: Animation{
			FrameMarker:        defaultFrameMarker,
			OutputName:         defaultOutputName,
			FrameDelayMS:       defaultFrameDelayMS,
			Fit:                defaultFit,
			ClearBetweenFrames: true,
			Palette:            defaultPalette,
			Dither:             true,
		},
		Pipeline: Pipeline{
			RunTimeoutSeconds: defaultRunTimeoutSeconds,
			JobRetentionDays:  defaultJobRetentionDays,
		},
		Metadata: Metadata{
			FileName:    defaultMetadataFile,
			MaxLines:    defaultMetadataMaxLines,
			StripPrefix: defaultMetadataPrefix,
			StripSuffix: defaultMetadataSuffix,
		},
		Analysis: Analysis{
			Enabled:        true,
			RscriptBinary:  defaultRscriptBinary,
			ScriptPath:     defaultScriptPath,
			Function:       defaultAnalysisFunction,
			TimeoutSeconds: defaultAnalysisTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Artifact:       true,
			Analysis:       true,
			Errors:         true,
		},
		MQTT: MQTT{
			BrokerURL:   defaultMQTTBroker,
			ClientID:    defaultMQTTClientID,
			TopicPrefix: defaultMQTTTopicPrefix,
			QoS:         1,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
