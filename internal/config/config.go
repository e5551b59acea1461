package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Decode  DecodeConfig  `yaml:"decode"`
	Publish PublishConfig `yaml:"publish"`
	Web     WebConfig     `yaml:"web"`
}

type SourceConfig struct {
	// Kind is one of "serial", "tcp" or "file".
	Kind string `yaml:"kind"`

	// Device may be empty to auto-detect /dev/ttyACM* and /dev/ttyUSB*.
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`

	Addr           string        `yaml:"addr"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`

	Path string `yaml:"path"`
	// ReplayRate is lines per second for file replay; 0 replays as fast as possible.
	ReplayRate float64 `yaml:"replay_rate"`
	Loop       bool    `yaml:"loop"`

	ReadSize int `yaml:"read_size"`
}

type DecodeConfig struct {
	// RequireChecksum drops sentences whose checksum does not verify.
	RequireChecksum bool `yaml:"require_checksum"`
	// Timezone names the zone RMC date/time fields are interpreted in.
	// "Local" (default) matches mktime on the host.
	Timezone string `yaml:"timezone"`
}

type PublishConfig struct {
	MinDistanceM float64       `yaml:"min_distance_m"`
	MinInterval  time.Duration `yaml:"min_interval"`

	MQTT     MQTTConfig     `yaml:"mqtt"`
	NATS     NATSConfig     `yaml:"nats"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Influx   InfluxConfig   `yaml:"influx"`
	UDP      UDPConfig      `yaml:"udp"`
}

type MQTTConfig struct {
	Enable   bool   `yaml:"enable"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
	Retained bool   `yaml:"retained"`
}

type NATSConfig struct {
	Enable  bool   `yaml:"enable"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type RedisConfig struct {
	Enable bool          `yaml:"enable"`
	Addr   string        `yaml:"addr"`
	TTL    time.Duration `yaml:"ttl"`
}

type PostgresConfig struct {
	Enable bool   `yaml:"enable"`
	DSN    string `yaml:"dsn"`
}

type InfluxConfig struct {
	Enable bool   `yaml:"enable"`
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

type UDPConfig struct {
	Enable bool   `yaml:"enable"`
	Dest   string `yaml:"dest"`
}

type WebConfig struct {
	Listen string `yaml:"listen"`
}

// Load reads the YAML config at path, applies NMEA_* environment overrides
// (a .env file in the working directory is honored when present), fills
// defaults and validates the result.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	// Missing .env is fine.
	_ = godotenv.Load()
	applyEnv(&cfg)

	return cfg, cfg.normalize()
}

func applyEnv(cfg *Config) {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&cfg.Source.Kind, "NMEA_SOURCE")
	override(&cfg.Source.Device, "NMEA_DEVICE")
	override(&cfg.Source.Addr, "NMEA_ADDR")
	override(&cfg.Source.Path, "NMEA_PATH")
	override(&cfg.Publish.MQTT.Broker, "NMEA_MQTT_BROKER")
	override(&cfg.Publish.NATS.URL, "NMEA_NATS_URL")
	override(&cfg.Publish.Redis.Addr, "NMEA_REDIS_ADDR")
	override(&cfg.Publish.Postgres.DSN, "NMEA_POSTGRES_DSN")
	override(&cfg.Publish.Influx.Token, "NMEA_INFLUX_TOKEN")
	override(&cfg.Web.Listen, "NMEA_WEB_LISTEN")
}

func (cfg *Config) normalize() error {
	cfg.Source.Kind = strings.ToLower(strings.TrimSpace(cfg.Source.Kind))
	if cfg.Source.Kind == "" {
		cfg.Source.Kind = "serial"
	}
	switch cfg.Source.Kind {
	case "serial":
		if cfg.Source.Baud == 0 {
			cfg.Source.Baud = 9600
		}
	case "tcp":
		if cfg.Source.Addr == "" {
			return fmt.Errorf("source.addr is required when source.kind is tcp")
		}
	case "file":
		if cfg.Source.Path == "" {
			return fmt.Errorf("source.path is required when source.kind is file")
		}
		if cfg.Source.ReplayRate < 0 {
			return fmt.Errorf("source.replay_rate must be >= 0")
		}
	default:
		return fmt.Errorf("source.kind must be one of serial, tcp, file (got %q)", cfg.Source.Kind)
	}
	if cfg.Source.ReconnectDelay <= 0 {
		cfg.Source.ReconnectDelay = 1 * time.Second
	}
	if cfg.Source.DialTimeout <= 0 {
		cfg.Source.DialTimeout = 2 * time.Second
	}
	if cfg.Source.ReadSize <= 0 {
		cfg.Source.ReadSize = 512
	}

	if cfg.Decode.Timezone == "" {
		cfg.Decode.Timezone = "Local"
	}
	if _, err := time.LoadLocation(cfg.Decode.Timezone); err != nil {
		return fmt.Errorf("decode.timezone: %w", err)
	}

	p := &cfg.Publish
	if p.MinDistanceM < 0 {
		return fmt.Errorf("publish.min_distance_m must be >= 0")
	}
	if p.MinInterval <= 0 {
		p.MinInterval = 10 * time.Second
	}
	if p.MQTT.Enable {
		if p.MQTT.Broker == "" {
			return fmt.Errorf("publish.mqtt.broker is required when publish.mqtt.enable is true")
		}
		if p.MQTT.QoS > 2 {
			return fmt.Errorf("publish.mqtt.qos must be 0, 1 or 2")
		}
	}
	if p.MQTT.ClientID == "" {
		p.MQTT.ClientID = "nmea-ng"
	}
	if p.MQTT.Topic == "" {
		p.MQTT.Topic = "nmea/fix"
	}
	if p.NATS.Enable && p.NATS.URL == "" {
		return fmt.Errorf("publish.nats.url is required when publish.nats.enable is true")
	}
	if p.NATS.Subject == "" {
		p.NATS.Subject = "nmea.fix"
	}
	if p.Redis.Enable && p.Redis.Addr == "" {
		return fmt.Errorf("publish.redis.addr is required when publish.redis.enable is true")
	}
	if p.Redis.TTL <= 0 {
		p.Redis.TTL = 24 * time.Hour
	}
	if p.Postgres.Enable && p.Postgres.DSN == "" {
		return fmt.Errorf("publish.postgres.dsn is required when publish.postgres.enable is true")
	}
	if p.Influx.Enable && (p.Influx.URL == "" || p.Influx.Bucket == "") {
		return fmt.Errorf("publish.influx.url and publish.influx.bucket are required when publish.influx.enable is true")
	}
	if p.UDP.Enable && p.UDP.Dest == "" {
		return fmt.Errorf("publish.udp.dest is required when publish.udp.enable is true")
	}

	if cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8080"
	}
	return nil
}

// Location resolves Decode.Timezone. Call after Load.
func (c DecodeConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil || c.Timezone == "" {
		return time.Local
	}
	return loc
}
