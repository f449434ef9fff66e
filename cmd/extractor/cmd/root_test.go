package cmd

import (
	"testing"

	"statement-extraction-service/pkg/logger"

	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoggingConfig(t *testing.T) {
	tests := []struct {
		name       string
		settings   map[string]interface{}
		wantLevel  logger.Level
		wantFormat logger.Format
	}{
		{
			name:       "Defaults",
			settings:   nil,
			wantLevel:  logger.InfoLevel,
			wantFormat: logger.TextFormat,
		},
		{
			name:       "Verbose",
			settings:   map[string]interface{}{"verbose": true},
			wantLevel:  logger.DebugLevel,
			wantFormat: logger.TextFormat,
		},
		{
			name:       "Quiet",
			settings:   map[string]interface{}{"quiet": true},
			wantLevel:  logger.ErrorLevel,
			wantFormat: logger.TextFormat,
		},
		{
			name: "Quiet wins over verbose",
			settings: map[string]interface{}{
				"quiet":   true,
				"verbose": true,
			},
			wantLevel:  logger.ErrorLevel,
			wantFormat: logger.TextFormat,
		},
		{
			name: "Format override",
			settings: map[string]interface{}{
				"quiet":      true,
				"log-format": "json",
			},
			wantLevel:  logger.ErrorLevel,
			wantFormat: logger.JSONFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			for key, value := range tt.settings {
				viper.Set(key, value)
			}

			got := loggingConfig()
			if got.Level != tt.wantLevel {
				t.Errorf("level = %s, want %s", got.Level, tt.wantLevel)
			}
			if got.Format != tt.wantFormat {
				t.Errorf("format = %s, want %s", got.Format, tt.wantFormat)
			}
		})
	}
}

func TestPersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "verbose", "quiet", "log-format"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("root flag %q not registered", name)
		}
	}
}

func TestExtractFlags(t *testing.T) {
	for _, name := range []string{"input", "output-dir", "report-format", "bank", "progress", "no-write"} {
		if extractCmd.Flags().Lookup(name) == nil {
			t.Errorf("extract flag %q not registered", name)
		}
	}
}
