package config

const (
	defaultDataDir                = "~/.local/share/tagtrack"
	defaultLogDir                 = "~/.local/share/tagtrack/logs"
	defaultAPIBind                = "127.0.0.1:8090"
	defaultReadTimeoutSeconds     = 30
	defaultWriteTimeoutSeconds    = 30
	defaultIdleTimeoutSeconds     = 60
	defaultMaxBodyMB              = 32
	defaultImportSource           = "api"
	defaultPollIntervalSeconds    = 10
	defaultErrorRetrySeconds      = 10
	defaultTriggerBuffer          = 64
	defaultNotifyRequestTimeout   = 10
	defaultCounterKeyPrefix       = "tagtrack:counter:"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	maxImportSourceLength         = 100
	defaultDatabaseFileName       = "tagtrack.db"
	defaultLogFileName            = "tagtrack.log"
	defaultLockFileName           = "tagtrack.lock"
	defaultConfigRelativeLocation = "~/.config/tagtrack/config.toml"
	projectConfigFileName         = "tagtrack.toml"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Server: Server{
			Bind:                defaultAPIBind,
			ReadTimeoutSeconds:  defaultReadTimeoutSeconds,
			WriteTimeoutSeconds: defaultWriteTimeoutSeconds,
			IdleTimeoutSeconds:  defaultIdleTimeoutSeconds,
			MaxBodyMB:           defaultMaxBodyMB,
		},
		Ingest: Ingest{
			DefaultSource: defaultImportSource,
		},
		Workflow: Workflow{
			PollInterval:       defaultPollIntervalSeconds,
			ErrorRetryInterval: defaultErrorRetrySeconds,
			TriggerBuffer:      defaultTriggerBuffer,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Partial:        true,
			Errors:         true,
		},
		Counters: Counters{
			KeyPrefix: defaultCounterKeyPrefix,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
