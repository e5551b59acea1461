package gps

import (
	"time"

	"github.com/golang/geo/s2"

	"nmea-ng/internal/nmea"
)

const earthRadiusM = 6371008.8

// publishGate decides which decoded fixes are worth sending downstream.
// A fix passes when it moved at least minDistM from the last published one or
// minInterval has elapsed. minDistM <= 0 disables the distance trigger.
type publishGate struct {
	minDistM    float64
	minInterval time.Duration

	have   bool
	last   s2.LatLng
	lastAt time.Time
}

func positionSentence(typ nmea.SentenceType) bool {
	switch typ {
	case nmea.TypeRMC, nmea.TypeGGA, nmea.TypeGLL:
		return true
	}
	return false
}

func (g *publishGate) allow(typ nmea.SentenceType, fix nmea.Fix, now time.Time) bool {
	if !positionSentence(typ) || !fix.Valid {
		return false
	}
	pos := s2.LatLngFromDegrees(fix.LatitudeDeg(), fix.LongitudeDeg())
	if !pos.IsValid() {
		return false
	}
	ok := !g.have ||
		now.Sub(g.lastAt) >= g.minInterval ||
		(g.minDistM > 0 && distanceM(g.last, pos) >= g.minDistM)
	if ok {
		g.have = true
		g.last = pos
		g.lastAt = now
	}
	return ok
}

func (g *publishGate) reset() {
	g.have = false
}

// distanceM is the great-circle distance between a and b in metres.
func distanceM(a, b s2.LatLng) float64 {
	return a.Distance(b).Radians() * earthRadiusM
}
