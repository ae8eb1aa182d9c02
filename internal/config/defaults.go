package config

// Default timeouts, in seconds.
const (
	DefaultCallbackTimeoutSeconds = 15
	DefaultPaymentTimeoutSeconds  = 15
	DefaultShutdownTimeoutSeconds = 10
)

// DefaultListenAddr is the address `paylink serve` binds to.
const DefaultListenAddr = "127.0.0.1:8402"

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.paylink",
		Catalog: CatalogConfig{
			File: "", // built-in catalog
		},
		Callback: CallbackConfig{
			TimeoutSeconds:   DefaultCallbackTimeoutSeconds,
			RatePerSecond:    5,
			Burst:            5,
			MaxResponseBytes: 1 << 20,
		},
		Payment: PaymentConfig{
			TimeoutSeconds: DefaultPaymentTimeoutSeconds,
			RetryAttempts:  3,
		},
		Server: ServerConfig{
			Listen:                 DefaultListenAddr,
			ShutdownTimeoutSeconds: DefaultShutdownTimeoutSeconds,
		},
		Tracking: TrackingConfig{
			Enabled: true,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.paylink/paylink.log",
		},
	}
}
