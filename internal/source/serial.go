package source

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// SerialConfig describes a USB/UART GNSS receiver.
//
// u-blox style receivers typically appear as /dev/ttyACM* and emit NMEA at
// 9600 baud. Device may be empty to auto-detect.
type SerialConfig struct {
	Device string
	Baud   int

	ReadSize       int
	ReconnectDelay time.Duration
}

type Serial struct {
	cfg   SerialConfig
	state atomic.Value // string
	dev   atomic.Value // string
	stats stats

	// open is swapped in tests.
	open func(path string, baud int) (io.ReadWriteCloser, error)
}

func NewSerial(cfg SerialConfig) *Serial {
	if cfg.Baud == 0 {
		cfg.Baud = 9600
	}
	if cfg.ReadSize <= 0 {
		cfg.ReadSize = 512
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 1 * time.Second
	}
	s := &Serial{cfg: cfg, open: openSerial}
	s.state.Store(stateStopped)
	s.dev.Store(strings.TrimSpace(cfg.Device))
	return s
}

func (s *Serial) Name() string {
	return fmt.Sprintf("serial %s@%d", s.dev.Load().(string), s.cfg.Baud)
}

func (s *Serial) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	out := Snapshot{
		Kind:   "serial",
		Target: s.dev.Load().(string),
		State:  s.state.Load().(string),
	}
	s.stats.fill(&out)
	return out
}

// Run opens the port and streams until ctx is done, reopening after read
// errors. Receivers that are unplugged and replugged come back on their own.
func (s *Serial) Run(ctx context.Context, onChunk func([]byte) error) error {
	if onChunk == nil {
		return fmt.Errorf("serial source onChunk is nil")
	}
	defer s.state.Store(stateStopped)

	buf := make([]byte, s.cfg.ReadSize)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.state.Store(stateConnecting)

		device := strings.TrimSpace(s.cfg.Device)
		if device == "" {
			device = detectDevice(fileExists)
			if device == "" {
				s.stats.setErr("serial auto-detect failed: no /dev/ttyACM* or /dev/ttyUSB* found")
				s.state.Store(stateDisconnected)
				if !sleepCtx(ctx, s.cfg.ReconnectDelay) {
					return ctx.Err()
				}
				continue
			}
		}
		s.dev.Store(device)

		port, err := s.open(device, s.cfg.Baud)
		if err != nil {
			s.stats.setErr(fmt.Sprintf("serial open failed device=%s baud=%d: %v", device, s.cfg.Baud, err))
			s.state.Store(stateDisconnected)
			if !sleepCtx(ctx, s.cfg.ReconnectDelay) {
				return ctx.Err()
			}
			continue
		}
		log.Printf("serial source open device=%s baud=%d", device, s.cfg.Baud)
		s.state.Store(stateConnected)
		s.stats.setErr("")

		err = s.stream(ctx, port, buf, onChunk)
		_ = port.Close()
		s.state.Store(stateDisconnected)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.stats.setErr(fmt.Sprintf("serial read stopped: %v", err))
		if !sleepCtx(ctx, s.cfg.ReconnectDelay) {
			return ctx.Err()
		}
	}
}

func (s *Serial) stream(ctx context.Context, port io.ReadCloser, buf []byte, onChunk func([]byte) error) error {
	stop := context.AfterFunc(ctx, func() { _ = port.Close() })
	defer stop()

	for {
		n, err := port.Read(buf)
		if n > 0 {
			s.stats.seen(n)
			if herr := onChunk(buf[:n]); herr != nil {
				s.stats.setErr("handler: " + herr.Error())
			}
		}
		if err != nil {
			return err
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func detectDevice(exists func(string) bool) string {
	for _, prefix := range []string{"/dev/ttyACM", "/dev/ttyUSB"} {
		for i := 0; i < 10; i++ {
			p := fmt.Sprintf("%s%d", prefix, i)
			if exists(p) {
				return p
			}
		}
	}
	return ""
}
