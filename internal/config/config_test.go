package config

import (
	"strings"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		wantErr     bool
		errorString string
	}{
		{
			name: "valid config",
			config: Config{
				Port:               "8080",
				SQLiteDBPath:       "./test.db",
				ProjectionInterval: time.Hour,
				CatchUpPolicy:      "single",
				CacheTTL:           5 * time.Minute,
				CacheSize:          100,
			},
			wantErr: false,
		},
		{
			name: "valid backfill policy",
			config: Config{
				Port:               "8080",
				SQLiteDBPath:       "./test.db",
				ProjectionInterval: time.Hour,
				CatchUpPolicy:      "backfill",
				CacheTTL:           5 * time.Minute,
				CacheSize:          100,
			},
			wantErr: false,
		},
		{
			name: "invalid port - non-numeric",
			config: Config{
				Port:               "abc",
				SQLiteDBPath:       "./test.db",
				ProjectionInterval: time.Hour,
				CatchUpPolicy:      "single",
				CacheTTL:           5 * time.Minute,
				CacheSize:          100,
			},
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name: "invalid port - out of range",
			config: Config{
				Port:               "70000",
				SQLiteDBPath:       "./test.db",
				ProjectionInterval: time.Hour,
				CatchUpPolicy:      "single",
				CacheTTL:           5 * time.Minute,
				CacheSize:          100,
			},
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name: "missing database path",
			config: Config{
				Port:               "8080",
				SQLiteDBPath:       "",
				ProjectionInterval: time.Hour,
				CatchUpPolicy:      "single",
				CacheTTL:           5 * time.Minute,
				CacheSize:          100,
			},
			wantErr:     true,
			errorString: "SQLite database path cannot be empty",
		},
		{
			name: "invalid catch-up policy",
			config: Config{
				Port:               "8080",
				SQLiteDBPath:       "./test.db",
				ProjectionInterval: time.Hour,
				CatchUpPolicy:      "eager",
				CacheTTL:           5 * time.Minute,
				CacheSize:          100,
			},
			wantErr:     true,
			errorString: "invalid catch-up policy 'eager': must be 'single' or 'backfill'",
		},
		{
			name: "projection interval too short",
			config: Config{
				Port:               "8080",
				SQLiteDBPath:       "./test.db",
				ProjectionInterval: 500 * time.Millisecond,
				CatchUpPolicy:      "single",
				CacheTTL:           5 * time.Minute,
				CacheSize:          100,
			},
			wantErr:     true,
			errorString: "invalid projection interval 500ms: must be at least 1 second",
		},
		{
			name: "projection interval too long",
			config: Config{
				Port:               "8080",
				SQLiteDBPath:       "./test.db",
				ProjectionInterval: 25 * time.Hour,
				CatchUpPolicy:      "single",
				CacheTTL:           5 * time.Minute,
				CacheSize:          100,
			},
			wantErr:     true,
			errorString: "invalid projection interval 25h0m0s: must be at most 24 hours",
		},
		{
			name: "cache size too small",
			config: Config{
				Port:               "8080",
				SQLiteDBPath:       "./test.db",
				ProjectionInterval: time.Hour,
				CatchUpPolicy:      "single",
				CacheTTL:           5 * time.Minute,
				CacheSize:          0,
			},
			wantErr:     true,
			errorString: "invalid cache size 0: must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Config.Validate() error = nil, wantErr %v", tt.wantErr)
					return
				}
				if tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("Config.Validate() error = %v, want error containing %v", err.Error(), tt.errorString)
				}
			} else {
				if err != nil {
					t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
				}
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.SQLiteDBPath != "./data/fintrack.db" {
		t.Errorf("SQLiteDBPath = %q", cfg.SQLiteDBPath)
	}
	if cfg.ProjectionInterval != time.Hour {
		t.Errorf("ProjectionInterval = %v, want 1h", cfg.ProjectionInterval)
	}
	if cfg.CatchUpPolicy != "single" {
		t.Errorf("CatchUpPolicy = %q, want single", cfg.CatchUpPolicy)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want 5m", cfg.CacheTTL)
	}
	if cfg.CacheSize != 100 {
		t.Errorf("CacheSize = %d, want 100", cfg.CacheSize)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PROJECTION_INTERVAL", "30m")
	t.Setenv("CATCHUP_POLICY", "backfill")
	t.Setenv("CACHE_SIZE", "50")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.ProjectionInterval != 30*time.Minute {
		t.Errorf("ProjectionInterval = %v, want 30m", cfg.ProjectionInterval)
	}
	if cfg.CatchUpPolicy != "backfill" {
		t.Errorf("CatchUpPolicy = %q, want backfill", cfg.CatchUpPolicy)
	}
	if cfg.CacheSize != 50 {
		t.Errorf("CacheSize = %d, want 50", cfg.CacheSize)
	}
}

func TestGetEnvHelpersIgnoreMalformedValues(t *testing.T) {
	t.Setenv("CACHE_SIZE", "lots")
	t.Setenv("CACHE_TTL", "soon")

	cfg := Load()

	if cfg.CacheSize != 100 {
		t.Errorf("CacheSize = %d, want default 100 for malformed value", cfg.CacheSize)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want default 5m for malformed value", cfg.CacheTTL)
	}
}
