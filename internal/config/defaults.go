package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Gemini: GeminiConfig{
			Binary:         "gemini",
			TimeoutSeconds: 300,
		},
		Templates: TemplatesConfig{
			Path: "~/.gemini-mcp/templates.yaml",
		},
		History: HistoryConfig{
			Enabled:       true,
			DBPath:        "~/.gemini-mcp/history.db",
			RetentionDays: 90,
		},
	}
}
