package config

import (
	"os"
	"path/filepath"
	"testing"
)

// validSecret meets the 32-character minimum requirement.
const validSecret = "test-secret-key-at-least-32-chars!"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
printer:
  id: "mk3s-garage"
  name: "Garage MK3S"
serial:
  device: "/dev/ttyUSB0"
  baud_rate: 115200
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
api:
  host: "0.0.0.0"
  port: 8080
  auth:
    secret: "` + validSecret + `"
    api_key: "local-key"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Printer.ID != "mk3s-garage" {
		t.Errorf("Printer.ID = %q, want %q", cfg.Printer.ID, "mk3s-garage")
	}
	if cfg.Serial.Device != "/dev/ttyUSB0" {
		t.Errorf("Serial.Device = %q, want %q", cfg.Serial.Device, "/dev/ttyUSB0")
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	// Defaults survive a partial file.
	if cfg.Telemetry.Interval != 2 {
		t.Errorf("Telemetry.Interval = %d, want default 2", cfg.Telemetry.Interval)
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want default 1883", cfg.MQTT.Broker.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PRINTLINK_SERIAL_DEVICE", "/dev/ttyACM9")
	t.Setenv("PRINTLINK_API_PORT", "9090")

	content := `
serial:
  device: "/dev/ttyUSB0"
api:
  auth:
    secret: "` + validSecret + `"
    api_key: "local-key"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Serial.Device != "/dev/ttyACM9" {
		t.Errorf("Serial.Device = %q, want env override", cfg.Serial.Device)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.API.Auth.Secret = validSecret
		cfg.API.Auth.APIKey = "local-key"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{
			name:   "valid defaults with secrets",
			mutate: func(*Config) {},
		},
		{
			name:    "empty printer id",
			mutate:  func(cfg *Config) { cfg.Printer.ID = "" },
			wantErr: true,
		},
		{
			name:    "empty serial device",
			mutate:  func(cfg *Config) { cfg.Serial.Device = "" },
			wantErr: true,
		},
		{
			name:    "zero baud rate",
			mutate:  func(cfg *Config) { cfg.Serial.BaudRate = 0 },
			wantErr: true,
		},
		{
			name:    "invalid API port",
			mutate:  func(cfg *Config) { cfg.API.Port = 70000 },
			wantErr: true,
		},
		{
			name: "invalid QoS only when MQTT enabled",
			mutate: func(cfg *Config) {
				cfg.MQTT.Enabled = true
				cfg.MQTT.QoS = 3
			},
			wantErr: true,
		},
		{
			name:   "invalid QoS ignored when MQTT disabled",
			mutate: func(cfg *Config) { cfg.MQTT.QoS = 3 },
		},
		{
			name:    "short auth secret",
			mutate:  func(cfg *Config) { cfg.API.Auth.Secret = "short" },
			wantErr: true,
		},
		{
			name:    "missing api key",
			mutate:  func(cfg *Config) { cfg.API.Auth.APIKey = "" },
			wantErr: true,
		},
		{
			name:    "zero telemetry interval",
			mutate:  func(cfg *Config) { cfg.Telemetry.Interval = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
