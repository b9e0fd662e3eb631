package config

const (
	defaultBinary         = "unsquashfs"
	defaultPollIntervalMS = 100
	defaultPTYColumns     = 80
	defaultPTYLines       = 30
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Tool: Tool{
			Binary:         defaultBinary,
			PollIntervalMS: defaultPollIntervalMS,
			UsePTY:         true,
			PTYColumns:     defaultPTYColumns,
			PTYLines:       defaultPTYLines,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
