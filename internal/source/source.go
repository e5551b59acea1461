// Package source delivers raw receiver bytes from a serial port, a TCP
// endpoint or a recorded log file. Chunks are passed on as read; sentence
// framing is left to nmea.Framer.
package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nmea-ng/internal/config"
)

// Source produces raw chunks until ctx is cancelled or the source is exhausted.
// onChunk must not retain the slice.
type Source interface {
	Name() string
	Run(ctx context.Context, onChunk func(chunk []byte) error) error
	Snapshot() Snapshot
}

type Snapshot struct {
	Kind        string `json:"kind"`
	Target      string `json:"target,omitempty"`
	State       string `json:"state"`
	LastError   string `json:"last_error,omitempty"`
	LastSeenUTC string `json:"last_seen_utc,omitempty"`
	Bytes       uint64 `json:"bytes"`
	Chunks      uint64 `json:"chunks"`
}

// New builds the source selected by cfg.Kind.
func New(cfg config.SourceConfig) (Source, error) {
	switch cfg.Kind {
	case "serial", "":
		return NewSerial(SerialConfig{
			Device:         cfg.Device,
			Baud:           cfg.Baud,
			ReadSize:       cfg.ReadSize,
			ReconnectDelay: cfg.ReconnectDelay,
		}), nil
	case "tcp":
		return NewTCP(TCPConfig{
			Addr:           cfg.Addr,
			ReadSize:       cfg.ReadSize,
			ReconnectDelay: cfg.ReconnectDelay,
			DialTimeout:    cfg.DialTimeout,
		})
	case "file":
		return NewFile(FileConfig{
			Path: cfg.Path,
			Rate: cfg.ReplayRate,
			Loop: cfg.Loop,
		})
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}

// stats is the bookkeeping shared by every source.
type stats struct {
	mu       sync.RWMutex
	lastErr  string
	lastSeen time.Time
	bytes    uint64
	chunks   uint64
}

func (s *stats) seen(n int) {
	s.mu.Lock()
	s.lastSeen = time.Now().UTC()
	s.bytes += uint64(n)
	s.chunks++
	s.mu.Unlock()
}

func (s *stats) setErr(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

func (s *stats) fill(out *Snapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out.LastError = s.lastErr
	out.Bytes = s.bytes
	out.Chunks = s.chunks
	if !s.lastSeen.IsZero() {
		out.LastSeenUTC = s.lastSeen.Format(time.RFC3339Nano)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
