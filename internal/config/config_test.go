package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func requireErrEq(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	if err.Error() != want {
		t.Fatalf("error=%q want %q", err.Error(), want)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeTempConfig(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source.Kind != "serial" || cfg.Source.Baud != 9600 {
		t.Fatalf("source=%+v want serial/9600", cfg.Source)
	}
	if cfg.Source.ReadSize != 512 || cfg.Source.ReconnectDelay != time.Second {
		t.Fatalf("source defaults not applied: %+v", cfg.Source)
	}
	if cfg.Decode.Timezone != "Local" || cfg.Decode.Location() != time.Local {
		t.Fatalf("timezone=%q", cfg.Decode.Timezone)
	}
	if cfg.Publish.MinInterval != 10*time.Second {
		t.Fatalf("min_interval=%s want 10s", cfg.Publish.MinInterval)
	}
	if cfg.Publish.MQTT.Topic != "nmea/fix" || cfg.Publish.NATS.Subject != "nmea.fix" {
		t.Fatalf("publish defaults not applied: %+v", cfg.Publish)
	}
	if cfg.Web.Listen != ":8080" {
		t.Fatalf("web.listen=%q", cfg.Web.Listen)
	}
}

func TestLoad_TCPRequiresAddr(t *testing.T) {
	path := writeTempConfig(t, "source:\n  kind: tcp\n")
	_, err := Load(path)
	requireErrEq(t, err, "source.addr is required when source.kind is tcp")
}

func TestLoad_FileRequiresPath(t *testing.T) {
	path := writeTempConfig(t, "source:\n  kind: FILE\n")
	_, err := Load(path)
	requireErrEq(t, err, "source.path is required when source.kind is file")
}

func TestLoad_UnknownKindRejected(t *testing.T) {
	path := writeTempConfig(t, "source:\n  kind: can\n")
	_, err := Load(path)
	requireErrEq(t, err, `source.kind must be one of serial, tcp, file (got "can")`)
}

func TestLoad_TimezoneValidated(t *testing.T) {
	path := writeTempConfig(t, "decode:\n  timezone: UTC\n  require_checksum: true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Decode.Location() != time.UTC || !cfg.Decode.RequireChecksum {
		t.Fatalf("decode=%+v", cfg.Decode)
	}

	path = writeTempConfig(t, "decode:\n  timezone: Nowhere/Special\n")
	if _, err := Load(path); err == nil || !strings.HasPrefix(err.Error(), "decode.timezone: ") {
		t.Fatalf("expected timezone error, got %v", err)
	}
}

func TestLoad_PublishValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"MQTT", "publish:\n  mqtt:\n    enable: true\n", "publish.mqtt.broker is required when publish.mqtt.enable is true"},
		{"MQTTQoS", "publish:\n  mqtt:\n    enable: true\n    broker: tcp://x:1883\n    qos: 3\n", "publish.mqtt.qos must be 0, 1 or 2"},
		{"NATS", "publish:\n  nats:\n    enable: true\n", "publish.nats.url is required when publish.nats.enable is true"},
		{"Redis", "publish:\n  redis:\n    enable: true\n", "publish.redis.addr is required when publish.redis.enable is true"},
		{"Postgres", "publish:\n  postgres:\n    enable: true\n", "publish.postgres.dsn is required when publish.postgres.enable is true"},
		{"Influx", "publish:\n  influx:\n    enable: true\n    url: http://x:8086\n", "publish.influx.url and publish.influx.bucket are required when publish.influx.enable is true"},
		{"UDP", "publish:\n  udp:\n    enable: true\n", "publish.udp.dest is required when publish.udp.enable is true"},
		{"Distance", "publish:\n  min_distance_m: -1\n", "publish.min_distance_m must be >= 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeTempConfig(t, tc.body))
			requireErrEq(t, err, tc.want)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("NMEA_SOURCE", "tcp")
	t.Setenv("NMEA_ADDR", "10.0.0.5:10110")
	t.Setenv("NMEA_MQTT_BROKER", "tcp://broker:1883")
	path := writeTempConfig(t, "source:\n  kind: serial\npublish:\n  mqtt:\n    enable: true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source.Kind != "tcp" || cfg.Source.Addr != "10.0.0.5:10110" {
		t.Fatalf("source=%+v", cfg.Source)
	}
	if cfg.Publish.MQTT.Broker != "tcp://broker:1883" {
		t.Fatalf("broker=%q", cfg.Publish.MQTT.Broker)
	}
}

func TestLoad_RejectsUnknownField(t *testing.T) {
	path := writeTempConfig(t, "source:\n  kind: serial\n  speed: 9600\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "field speed not found in type config.SourceConfig") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}
