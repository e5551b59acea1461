package gps

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"nmea-ng/internal/metrics"
	"nmea-ng/internal/nmea"
	"nmea-ng/internal/publish"
	"nmea-ng/internal/source"
)

// Config controls decoding and publishing. The zero value decodes in
// time.Local, accepts sentences without a valid checksum and publishes every
// position fix.
type Config struct {
	RequireChecksum bool
	Location        *time.Location

	MinDistanceM float64
	MinInterval  time.Duration
}

// Options carries the optional collaborators of a Service.
type Options struct {
	Metrics *metrics.Metrics
	Sink    publish.Sink

	// OnSnapshot is called after every chunk that changed the snapshot.
	OnSnapshot func(Snapshot)

	// Session overrides the generated session id.
	Session string
	Now     func() time.Time
}

type Snapshot struct {
	Session string          `json:"session"`
	Running bool            `json:"running"`
	Source  source.Snapshot `json:"source"`

	Valid  bool     `json:"valid"`
	Fix    nmea.Fix `json:"fix"`
	LatDeg float64  `json:"lat_deg"`
	LonDeg float64  `json:"lon_deg"`

	Counts           map[string]uint64 `json:"counts"`
	ChecksumFailures uint64            `json:"checksum_failures"`
	Unrecognized     uint64            `json:"unrecognized"`
	Dropped          uint64            `json:"dropped"`
	Published        uint64            `json:"published"`

	LastType     string `json:"last_type,omitempty"`
	LastSentence string `json:"last_sentence,omitempty"`
	LastFixUTC   string `json:"last_fix_utc,omitempty"`
	LastError    string `json:"last_error,omitempty"`
}

type Service struct {
	cfg  Config
	src  source.Source
	opts Options

	// decoding state, guarded by hmu
	hmu       sync.Mutex
	framer    *nmea.Framer
	decoder   *nmea.Decoder
	fix       nmea.Fix
	gate      publishGate
	state     Snapshot
	pubCtx    context.Context

	last atomic.Value // Snapshot

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg Config, src source.Source, opts Options) *Service {
	if opts.Session == "" {
		opts.Session = uuid.NewString()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Service{
		cfg:       cfg,
		src:       src,
		opts:      opts,
		framer:    nmea.NewFramer(),
		decoder:   nmea.NewDecoder(cfg.Location),
		fix:       nmea.NewFix(),
		gate:      publishGate{minDistM: cfg.MinDistanceM, minInterval: cfg.MinInterval},
		pubCtx:    context.Background(),
	}
	s.state = Snapshot{
		Session: opts.Session,
		Fix:     s.fix,
		Counts:  map[string]uint64{},
	}
	s.last.Store(s.copyStateLocked())
	return s
}

// Start runs the source in the background until ctx is cancelled, Close is
// called or the source is exhausted.
func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("gps service is nil")
	}
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}
	if s.src == nil {
		return fmt.Errorf("gps service has no source")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	s.hmu.Lock()
	s.pubCtx = childCtx
	s.state.Running = true
	s.last.Store(s.copyStateLocked())
	s.hmu.Unlock()

	log.Printf("gps enabled source=%s session=%s", s.src.Name(), s.opts.Session)

	go func() {
		defer close(s.done)
		err := s.src.Run(childCtx, func(chunk []byte) error {
			s.Handle(chunk)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("gps source stopped source=%s err=%v", s.src.Name(), err)
			s.setError(fmt.Sprintf("source stopped: %v", err))
		} else if childCtx.Err() == nil {
			log.Printf("gps source finished source=%s", s.src.Name())
		}

		s.hmu.Lock()
		s.state.Running = false
		s.last.Store(s.copyStateLocked())
		s.hmu.Unlock()
	}()
	return nil
}

// Done is closed once the background reader exits. It is nil before Start.
func (s *Service) Done() <-chan struct{} {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *Service) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	v := s.last.Load()
	if v == nil {
		return Snapshot{}
	}
	snap := v.(Snapshot)
	if s.src != nil {
		snap.Source = s.src.Snapshot()
	}
	return snap
}

// Fix returns a copy of the running fix record.
func (s *Service) Fix() nmea.Fix {
	return s.Snapshot().Fix
}

// Handle feeds one raw chunk through the pipeline. It is safe for concurrent
// use, but chunks of one stream must be fed sequentially.
func (s *Service) Handle(chunk []byte) {
	if s == nil || len(chunk) == 0 {
		return
	}
	s.opts.Metrics.ObserveBytes(len(chunk))

	s.hmu.Lock()
	now := s.opts.Now()
	before := s.framer.Dropped()
	lines := s.framer.Consume(chunk)
	dropped := s.framer.Dropped() - before
	if dropped > 0 {
		s.state.Dropped += dropped
		s.opts.Metrics.ObserveDropped(dropped)
		s.state.LastError = fmt.Sprintf("dropped %d overlong fragment(s)", dropped)
	}

	var pending []publish.Message
	for _, line := range lines {
		if msg, ok := s.handleLineLocked(line, now); ok {
			pending = append(pending, msg)
		}
	}
	changed := len(lines) > 0 || dropped > 0
	snap := s.copyStateLocked()
	ctx := s.pubCtx
	if changed {
		s.last.Store(snap)
	}
	s.hmu.Unlock()

	if changed && s.opts.OnSnapshot != nil {
		s.opts.OnSnapshot(snap)
	}
	s.publish(ctx, pending)
}

func (s *Service) handleLineLocked(line string, now time.Time) (publish.Message, bool) {
	if !nmea.VerifyChecksum(line) {
		s.state.ChecksumFailures++
		s.opts.Metrics.ObserveChecksumFailure()
		if s.cfg.RequireChecksum {
			s.state.LastError = "checksum mismatch: " + line
			return publish.Message{}, false
		}
	}

	typ := s.decoder.Decode(line, &s.fix)
	s.opts.Metrics.ObserveSentence(typ)
	s.state.Counts[typ.String()]++
	if typ == nmea.TypeErr {
		s.state.Unrecognized++
		return publish.Message{}, false
	}

	s.state.LastType = typ.String()
	s.state.LastSentence = line
	s.state.Fix = s.fix
	s.state.Valid = s.fix.Valid
	s.state.LatDeg = s.fix.LatitudeDeg()
	s.state.LonDeg = s.fix.LongitudeDeg()
	if t := s.fix.Time(); !t.IsZero() {
		s.state.LastFixUTC = t.Format(time.RFC3339)
	}
	s.opts.Metrics.ObserveFix(s.fix)

	if s.opts.Sink == nil || !s.gate.allow(typ, s.fix, now) {
		return publish.Message{}, false
	}
	s.state.Published++
	return publish.NewMessage(s.opts.Session, typ, line, s.fix, now), true
}

func (s *Service) publish(ctx context.Context, msgs []publish.Message) {
	for _, msg := range msgs {
		if err := s.opts.Sink.Publish(ctx, msg); err != nil {
			log.Printf("gps publish failed type=%s err=%v", msg.Type, err)
			s.setError(fmt.Sprintf("publish: %v", err))
		}
	}
}

// ResetFix clears the running fix and the publish gate, e.g. after the
// receiver was swapped.
func (s *Service) ResetFix() {
	if s == nil {
		return
	}
	s.hmu.Lock()
	defer s.hmu.Unlock()
	s.fix.Reset()
	s.framer.Reset()
	s.gate.reset()
	s.state.Fix = s.fix
	s.state.Valid = false
	s.state.LatDeg, s.state.LonDeg = 0, 0
	s.state.LastFixUTC = ""
	s.last.Store(s.copyStateLocked())
}

func (s *Service) setError(msg string) {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	s.state.LastError = msg
	s.last.Store(s.copyStateLocked())
}

func (s *Service) copyStateLocked() Snapshot {
	out := s.state
	out.Counts = make(map[string]uint64, len(s.state.Counts))
	for k, v := range s.state.Counts {
		out.Counts[k] = v
	}
	return out
}
