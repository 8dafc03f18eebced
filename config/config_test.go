package config

import (
	"testing"
)

func validConfig() *Config {
	return &Config{
		B2: B2Config{
			AccountID:      "account-id",
			ApplicationKey: "application-key",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name      string
		accountID string
		key       string
		wantErr   bool
	}{
		{
			name:      "valid credentials",
			accountID: "account-id",
			key:       "application-key",
			wantErr:   false,
		},
		{
			name:    "missing account ID",
			key:     "application-key",
			wantErr: true,
		},
		{
			name:      "missing application key",
			accountID: "account-id",
			wantErr:   true,
		},
		{
			name:      "placeholder application key",
			accountID: "account-id",
			key:       "your-application-key-here",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.B2.AccountID = tt.accountID
			cfg.B2.ApplicationKey = tt.key

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateLogging(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{"valid debug console", "debug", "console", false},
		{"valid warn json", "warn", "json", false},
		{"invalid level", "verbose", "console", true},
		{"invalid format", "info", "logfmt", true},
		{"empty level", "", "console", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logging.Level = tt.level
			cfg.Logging.Format = tt.format

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
