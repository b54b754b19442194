package main

import (
	"bufio"
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("PRINTLINK_CONFIG")
	defer os.Setenv("PRINTLINK_CONFIG", originalEnv)

	os.Setenv("PRINTLINK_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestGetConfigPath(t *testing.T) {
	originalEnv := os.Getenv("PRINTLINK_CONFIG")
	defer os.Setenv("PRINTLINK_CONFIG", originalEnv)

	os.Unsetenv("PRINTLINK_CONFIG")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	os.Setenv("PRINTLINK_CONFIG", "/etc/printlink/config.yaml")
	if got := getConfigPath(); got != "/etc/printlink/config.yaml" {
		t.Errorf("getConfigPath() = %q, want env override", got)
	}
}

func TestSimulatedPort(t *testing.T) {
	port := newSimulatedPort()
	defer port.Close() //nolint:errcheck

	scanner := bufio.NewScanner(port)

	tests := []struct {
		name    string
		command string
		want    []string
	}{
		{"plain command", "G28\n", []string{"ok"}},
		{"temperature query", "M105\n", []string{"ok T:"}},
		{"sd status query", "M27\n", []string{"Not SD printing", "ok"}},
		{"pause", "M601\n", []string{"ok", "// action:paused"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := port.Write([]byte(tt.command)); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			for _, want := range tt.want {
				if !scanner.Scan() {
					t.Fatalf("no reply line for %q", tt.command)
				}
				if got := scanner.Text(); !strings.HasPrefix(got, want) {
					t.Errorf("reply = %q, want prefix %q", got, want)
				}
			}
		})
	}
}
