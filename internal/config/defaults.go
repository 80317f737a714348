package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:              "~/.config/jobtrail",
			SQLiteFile:        "jobtrail.db",
			SQLiteJournalMode: "wal",
		},
		Remote: RemoteConfig{
			DatabaseURL:           "",
			MaxConns:              5,
			ConnectTimeoutSeconds: 5,
		},
		Auth: AuthConfig{
			Secret: "",
			Issuer: "jobtrail",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
		Sync: SyncConfig{
			IntervalMinutes:    30,
			StaleAfterDays:     30,
			MigrateConcurrency: 4,
		},
	}
}
