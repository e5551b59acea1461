package web

import (
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"

	"nmea-ng/internal/gps"
)

// StatusProvider produces the /api/status document.
type StatusProvider interface {
	Snapshot(nowUTC time.Time) StatusSnapshot
}

type Status struct {
	startUnixNano int64
	listen        atomic.Value // string
	gps           func() gps.Snapshot
	build         BuildInfo
}

// NewStatus reports the receiver pipeline through gpsSnap, which may be nil
// before the pipeline exists.
func NewStatus(gpsSnap func() gps.Snapshot) *Status {
	s := &Status{gps: gpsSnap, build: readBuildInfo()}
	atomic.StoreInt64(&s.startUnixNano, time.Now().UTC().UnixNano())
	s.listen.Store("")
	return s
}

func (s *Status) SetListen(addr string) {
	s.listen.Store(addr)
}

type BuildInfo struct {
	GoVersion string `json:"go_version"`
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
}

type StatusSnapshot struct {
	Service   string       `json:"service"`
	NowUTC    string       `json:"now_utc"`
	UptimeSec int64        `json:"uptime_sec"`
	Listen    string       `json:"listen,omitempty"`
	Build     BuildInfo    `json:"build"`
	GPS       gps.Snapshot `json:"gps"`
}

func (s *Status) Snapshot(nowUTC time.Time) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	start := time.Unix(0, atomic.LoadInt64(&s.startUnixNano)).UTC()

	snap := StatusSnapshot{
		Service:   "nmea-ng",
		NowUTC:    nowUTC.UTC().Format(time.RFC3339Nano),
		UptimeSec: int64(nowUTC.Sub(start).Seconds()),
		Listen:    s.listen.Load().(string),
		Build:     s.build,
	}
	if s.gps != nil {
		snap.GPS = s.gps()
	}
	return snap
}

func readBuildInfo() BuildInfo {
	out := BuildInfo{GoVersion: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi == nil {
		return out
	}
	out.Version = bi.Main.Version
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.modified":
			out.Dirty = s.Value == "true"
		}
	}
	return out
}
