package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/looplab/fsm"
)

const (
	stateStopped      = "stopped"
	stateConnecting   = "connecting"
	stateConnected    = "connected"
	stateDisconnected = "disconnected"
)

const (
	eventDial = "dial"
	eventUp   = "up"
	eventDown = "down"
	eventStop = "stop"
)

type TCPConfig struct {
	Addr string

	ReadSize       int
	ReconnectDelay time.Duration
	// DialTimeout is used for each connect attempt.
	DialTimeout time.Duration
}

// TCP reads a receiver stream exposed on a TCP port (ser2net, gpsd raw mode,
// marine multiplexers) and reconnects on failure.
type TCP struct {
	cfg   TCPConfig
	state *fsm.FSM
	stats stats
}

func NewTCP(cfg TCPConfig) (*TCP, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("tcp source addr is required")
	}
	if cfg.ReadSize <= 0 {
		cfg.ReadSize = 512
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 1 * time.Second
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	return &TCP{cfg: cfg, state: newConnFSM()}, nil
}

func newConnFSM() *fsm.FSM {
	return fsm.NewFSM(
		stateStopped,
		fsm.Events{
			{Name: eventDial, Src: []string{stateStopped, stateDisconnected}, Dst: stateConnecting},
			{Name: eventUp, Src: []string{stateConnecting}, Dst: stateConnected},
			{Name: eventDown, Src: []string{stateConnecting, stateConnected}, Dst: stateDisconnected},
			{Name: eventStop, Src: []string{stateConnecting, stateConnected, stateDisconnected}, Dst: stateStopped},
		},
		fsm.Callbacks{},
	)
}

func (c *TCP) Name() string { return "tcp " + c.cfg.Addr }

func (c *TCP) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	out := Snapshot{Kind: "tcp", Target: c.cfg.Addr, State: c.state.Current()}
	c.stats.fill(&out)
	return out
}

// Run dials, streams and redials until ctx is done. It only returns ctx's error.
func (c *TCP) Run(ctx context.Context, onChunk func([]byte) error) error {
	if onChunk == nil {
		return fmt.Errorf("tcp source onChunk is nil")
	}
	defer c.event(eventStop)

	dialer := &net.Dialer{Timeout: c.cfg.DialTimeout}
	buf := make([]byte, c.cfg.ReadSize)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.event(eventDial)
		conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Addr)
		if err != nil {
			c.stats.setErr(err.Error())
			c.event(eventDown)
			if !sleepCtx(ctx, c.cfg.ReconnectDelay) {
				return ctx.Err()
			}
			continue
		}
		c.event(eventUp)
		c.stats.setErr("")

		err = c.stream(ctx, conn, buf, onChunk)
		_ = conn.Close()
		c.event(eventDown)
		if err != nil && !errors.Is(err, net.ErrClosed) {
			c.stats.setErr(err.Error())
		}

		if !sleepCtx(ctx, c.cfg.ReconnectDelay) {
			return ctx.Err()
		}
	}
}

func (c *TCP) stream(ctx context.Context, conn net.Conn, buf []byte, onChunk func([]byte) error) error {
	// Unblock Read when ctx ends.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			c.stats.seen(n)
			if herr := onChunk(buf[:n]); herr != nil {
				c.stats.setErr("handler: " + herr.Error())
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("connection closed by peer")
			}
			return err
		}
	}
}

func (c *TCP) event(name string) {
	// NoTransitionError and friends only mean "already there".
	_ = c.state.Event(name)
}
