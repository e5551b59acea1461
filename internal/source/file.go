package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"
)

// FileConfig replays a raw receiver capture (for example `cat /dev/ttyACM0 > gps.log`).
type FileConfig struct {
	Path string
	// Rate is lines per second; 0 replays as fast as the consumer allows.
	Rate float64
	Loop bool
}

type File struct {
	cfg   FileConfig
	state atomic.Value // string
	stats stats
}

func NewFile(cfg FileConfig) (*File, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file source path is required")
	}
	if cfg.Rate < 0 {
		return nil, fmt.Errorf("file source rate must be >= 0")
	}
	f := &File{cfg: cfg}
	f.state.Store(stateStopped)
	return f, nil
}

func (f *File) Name() string { return "file " + f.cfg.Path }

func (f *File) Snapshot() Snapshot {
	if f == nil {
		return Snapshot{}
	}
	out := Snapshot{Kind: "file", Target: f.cfg.Path, State: f.state.Load().(string)}
	f.stats.fill(&out)
	return out
}

// Run replays the file line by line, terminators included, so the consumer
// sees the same bytes a live receiver would send. Without Loop it returns nil
// at end of file.
func (f *File) Run(ctx context.Context, onChunk func([]byte) error) error {
	if onChunk == nil {
		return fmt.Errorf("file source onChunk is nil")
	}
	defer f.state.Store(stateStopped)

	fh, err := os.Open(f.cfg.Path)
	if err != nil {
		f.stats.setErr(err.Error())
		return err
	}
	defer fh.Close()
	f.state.Store(stateConnected)

	var interval time.Duration
	if f.cfg.Rate > 0 {
		interval = time.Duration(float64(time.Second) / f.cfg.Rate)
	}

	r := bufio.NewReader(fh)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line, err := r.ReadBytes('\n')
		if len(line) > 0 {
			f.stats.seen(len(line))
			if herr := onChunk(line); herr != nil {
				f.stats.setErr("handler: " + herr.Error())
			}
			if !sleepCtx(ctx, interval) {
				return ctx.Err()
			}
		}
		if err == nil {
			continue
		}
		if !errors.Is(err, io.EOF) {
			f.stats.setErr(err.Error())
			return err
		}
		if !f.cfg.Loop {
			return nil
		}
		if _, err := fh.Seek(0, io.SeekStart); err != nil {
			f.stats.setErr(err.Error())
			return err
		}
		r.Reset(fh)
	}
}
