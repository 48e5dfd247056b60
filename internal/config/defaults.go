package config

const (
	defaultDataDir              = "~/.local/share/scanhub"
	defaultLogDir               = "~/.local/share/scanhub/logs"
	defaultAPIBind              = "127.0.0.1:7482"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultGlossaryLocale       = "ru"
	defaultNotifyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			StageAdvances:  true,
			Completions:    true,
			Errors:         true,
		},
		Glossary: Glossary{
			Locale: defaultGlossaryLocale,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
