package config

const (
	defaultDataDir             = "~/.local/share/framewise"
	defaultInferenceBaseURL    = "https://api.visionquery.dev/v1"
	defaultDetectorName        = "frame_detector"
	defaultConfidenceThreshold = 0.9
	defaultInferenceTimeout    = 60
	defaultPrefetchWorkers     = 8
	defaultPrefetchWindow      = 8
	defaultWarmupProportion    = 0.1
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultRenderCodec         = "libx264"
	defaultRenderPixelFormat   = "yuv420p"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Inference: Inference{
			BaseURL:             defaultInferenceBaseURL,
			DetectorName:        defaultDetectorName,
			ConfidenceThreshold: defaultConfidenceThreshold,
			TimeoutSeconds:      defaultInferenceTimeout,
		},
		Prefetch: Prefetch{
			Workers: defaultPrefetchWorkers,
			Window:  defaultPrefetchWindow,
		},
		Warmup: Warmup{
			Proportion: defaultWarmupProportion,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
		},
		Render: Render{
			Codec:       defaultRenderCodec,
			PixelFormat: defaultRenderPixelFormat,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
