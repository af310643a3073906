package config

const (
	EventStreamNop   = "nop"
	EventStreamKafka = "kafka"
)

const (
	defaultBackendURL = "http://localhost:5000"
	defaultModel      = "llama3.1:8b"
	defaultAPITarget  = "http://localhost:8081"

	defaultProxyListen  = ":8080"
	defaultProxyWorkers = 3
	defaultAPIListen    = ":8081"

	defaultEventTopic = "synergy.entries"

	defaultUploadWorkers = 3
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			BackendURL: defaultBackendURL,
			Model:      defaultModel,
			APITarget:  defaultAPITarget,
		},
		Proxy: ProxyConfig{
			Upstream: defaultBackendURL,
			Listen:   defaultProxyListen,
			Workers:  defaultProxyWorkers,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		EventStream: EventStreamConfig{
			Provider: EventStreamNop,
			Topic:    defaultEventTopic,
		},
		Upload: UploadConfig{
			Workers: defaultUploadWorkers,
		},
	}
}
