package config

// Config represents the complete configuration structure
type Config struct {
	B2      B2Config      `mapstructure:"b2"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Safety  SafetyConfig  `mapstructure:"safety"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// B2Config holds Backblaze B2 credentials and the default bucket
type B2Config struct {
	AccountID      string `mapstructure:"account_id"`
	ApplicationKey string `mapstructure:"application_key"`
	Bucket         string `mapstructure:"bucket"`
}

// FilterConfig contains filter definitions
type FilterConfig struct {
	DefaultExpression string                  `mapstructure:"default"`
	Presets           map[string]PresetFilter `mapstructure:"presets"`
}

// PresetFilter is a named filter expression
type PresetFilter struct {
	Expression  string `mapstructure:"expression"`
	Description string `mapstructure:"description"`
}

// SafetyConfig contains safety-related settings
type SafetyConfig struct {
	DryRun        bool `mapstructure:"dry_run"`
	ConfirmDelete bool `mapstructure:"confirm_delete"`
	ShowDetails   bool `mapstructure:"show_details"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
