package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"nmea-ng/internal/config"
	"nmea-ng/internal/gps"
	"nmea-ng/internal/metrics"
	"nmea-ng/internal/publish"
	"nmea-ng/internal/source"
	"nmea-ng/internal/web"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "decode" {
		os.Exit(runDecode(os.Args[2:], os.Stdin, os.Stdout, os.Stderr))
	}

	var configPath string
	flag.StringVar(&configPath, "config", "./nmea-ng.yaml", "Path to YAML config")
	flag.Parse()

	logs := web.NewLogBuffer(2000)
	log.SetOutput(io.MultiWriter(os.Stderr, logs))

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()

	sinks, err := buildSinks(ctx, cfg.Publish)
	if err != nil {
		log.Fatalf("publish init failed: %v", err)
	}
	defer sinks.Close()
	sinks.Observe = m.ObservePublish

	var sink publish.Sink
	if sinks.Len() > 0 {
		sink = sinks
	}

	src, err := source.New(cfg.Source)
	if err != nil {
		log.Fatalf("source init failed: %v", err)
	}

	fixes := web.NewFixBroadcaster()
	svc := gps.New(gps.Config{
		RequireChecksum: cfg.Decode.RequireChecksum,
		Location:        cfg.Decode.Location(),
		MinDistanceM:    cfg.Publish.MinDistanceM,
		MinInterval:     cfg.Publish.MinInterval,
	}, src, gps.Options{
		Metrics:    m,
		Sink:       sink,
		OnSnapshot: fixes.Publish,
	})

	log.Printf("nmea-ng starting source=%s sinks=%d checksum_required=%t tz=%s",
		src.Name(), sinks.Len(), cfg.Decode.RequireChecksum, cfg.Decode.Timezone)

	if err := svc.Start(ctx); err != nil {
		log.Fatalf("gps start failed: %v", err)
	}
	defer svc.Close()

	status := web.NewStatus(svc.Snapshot)
	status.SetListen(cfg.Web.Listen)
	go func() {
		log.Printf("web listening addr=%s", cfg.Web.Listen)
		err := web.Serve(ctx, cfg.Web.Listen, web.Handler(status, logs, fixes, m.Handler()))
		if err != nil && ctx.Err() == nil {
			log.Printf("web server stopped: %v", err)
			cancel()
		}
	}()

	select {
	case <-ctx.Done():
	case <-svc.Done():
		log.Printf("source finished")
	}
	log.Printf("nmea-ng stopping")
}
