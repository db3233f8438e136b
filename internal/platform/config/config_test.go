package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestConfigLoad_UsesDefaults(t *testing.T) {
	for _, k := range []string{"YOURLS_APIURL", "YOURLS_NONCE_LIFE", "LOG_LEVEL", "EXPORTER_INTERVAL", "KAFKA_BROKERS", "DB_DSN"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	if cfg.APIURL != "" {
		t.Fatalf("APIURL: got %q, want empty", cfg.APIURL)
	}
	if cfg.NonceLife != 0 {
		t.Fatalf("NonceLife: got %v, want 0", cfg.NonceLife)
	}
	if cfg.LogLevel != slog.LevelWarn {
		t.Fatalf("LogLevel: got %v, want %v", cfg.LogLevel, slog.LevelWarn)
	}
	if cfg.ExporterInterval != 30*time.Second {
		t.Fatalf("ExporterInterval: got %v, want %v", cfg.ExporterInterval, 30*time.Second)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "localhost:9092" {
		t.Fatalf("KafkaBrokers: got %v", cfg.KafkaBrokers)
	}
	if cfg.DBDSN != "" {
		t.Fatalf("DBDSN: got %q, want empty", cfg.DBDSN)
	}
}

func TestConfigLoad_ReadsEnv(t *testing.T) {
	t.Setenv("YOURLS_APIURL", "https://sho.rt")
	t.Setenv("YOURLS_SIGNATURE", "sig")
	t.Setenv("YOURLS_NONCE_LIFE", "true")
	t.Setenv("YOURLS_HTTP_TIMEOUT", "7s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("EXPORTER_INTERVAL", "1m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")

	cfg := Load()

	if cfg.APIURL != "https://sho.rt" {
		t.Fatalf("APIURL: got %q, want %q", cfg.APIURL, "https://sho.rt")
	}
	if cfg.Signature != "sig" {
		t.Fatalf("Signature: got %q, want %q", cfg.Signature, "sig")
	}
	if cfg.NonceLife != 12*time.Hour {
		t.Fatalf("NonceLife: got %v, want %v", cfg.NonceLife, 12*time.Hour)
	}
	if cfg.HTTPTimeout != 7*time.Second {
		t.Fatalf("HTTPTimeout: got %v, want %v", cfg.HTTPTimeout, 7*time.Second)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel: got %v, want %v", cfg.LogLevel, slog.LevelDebug)
	}
	if cfg.ExporterInterval != time.Minute {
		t.Fatalf("ExporterInterval: got %v, want %v", cfg.ExporterInterval, time.Minute)
	}
	if cfg.RedisDB != 3 {
		t.Fatalf("RedisDB: got %d, want 3", cfg.RedisDB)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b:9092" {
		t.Fatalf("KafkaBrokers: got %v", cfg.KafkaBrokers)
	}
}

func TestParseNonceLife(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"true", 12 * time.Hour, false},
		{"TRUE", 12 * time.Hour, false},
		{"false", 0, false},
		{"0", 0, false},
		{"43200", 12 * time.Hour, false},
		{"90m", 90 * time.Minute, false},
		{"-1", 0, true},
		{"-5s", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNonceLife(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err: got %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}
