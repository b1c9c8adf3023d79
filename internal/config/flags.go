package config

// Overrides carries command line values. Nil fields were not given and leave
// the file or default value alone.
type Overrides struct {
	LogLevel     *string
	LogFile      *string
	Compress     *bool
	Level        *int
	ExportFormat *string
}

// applyOverrides applies CLI overrides to the config.
func applyOverrides(cfg *Config, ov Overrides) {
	if ov.LogLevel != nil {
		cfg.Logging.Level = *ov.LogLevel
	}
	if ov.LogFile != nil {
		cfg.Logging.LogFile = *ov.LogFile
	}
	if ov.Compress != nil {
		cfg.Convert.Compress = *ov.Compress
	}
	if ov.Level != nil {
		cfg.Convert.Level = *ov.Level
	}
	if ov.ExportFormat != nil {
		cfg.Export.Format = *ov.ExportFormat
	}
}
