package main

import (
	"context"
	"fmt"
	"log"

	"nmea-ng/internal/config"
	"nmea-ng/internal/publish"
)

// buildSinks connects every enabled sink. On failure the sinks built so far
// are closed.
func buildSinks(ctx context.Context, cfg config.PublishConfig) (*publish.Multi, error) {
	multi := publish.NewMulti()
	fail := func(err error) (*publish.Multi, error) {
		_ = multi.Close()
		return nil, err
	}

	if cfg.MQTT.Enable {
		s, err := publish.NewMQTT(publish.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
			QoS:      cfg.MQTT.QoS,
			Retained: cfg.MQTT.Retained,
		})
		if err != nil {
			return fail(err)
		}
		multi.Add(s)
		log.Printf("publish mqtt broker=%s topic=%s", cfg.MQTT.Broker, cfg.MQTT.Topic)
	}
	if cfg.NATS.Enable {
		s, err := publish.NewNATS(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return fail(err)
		}
		multi.Add(s)
		log.Printf("publish nats url=%s subject=%s", cfg.NATS.URL, cfg.NATS.Subject)
	}
	if cfg.Redis.Enable {
		s, err := publish.NewRedis(cfg.Redis.Addr, cfg.Redis.TTL)
		if err != nil {
			return fail(err)
		}
		multi.Add(s)
		log.Printf("publish redis addr=%s ttl=%s", cfg.Redis.Addr, cfg.Redis.TTL)
	}
	if cfg.Postgres.Enable {
		s, err := publish.NewPostgres(cfg.Postgres.DSN)
		if err != nil {
			return fail(err)
		}
		multi.Add(s)
		if err := s.EnsureSchema(ctx); err != nil {
			return fail(err)
		}
		log.Printf("publish postgres enabled")
	}
	if cfg.Influx.Enable {
		multi.Add(publish.NewInflux(cfg.Influx.URL, cfg.Influx.Token, cfg.Influx.Org, cfg.Influx.Bucket))
		log.Printf("publish influx url=%s bucket=%s", cfg.Influx.URL, cfg.Influx.Bucket)
	}
	if cfg.UDP.Enable {
		s, err := publish.NewUDP(cfg.UDP.Dest)
		if err != nil {
			return fail(fmt.Errorf("udp sink: %w", err))
		}
		multi.Add(s)
		log.Printf("publish udp dest=%s", cfg.UDP.Dest)
	}
	return multi, nil
}
