package nmea

import (
	"strconv"
	"strings"
	"time"
)

type decodeFunc func(d *Decoder, f []string, fix *Fix)

// decoders is the dispatch table: code, result type, minimum token count.
var decoders = []struct {
	code      string
	typ       SentenceType
	minTokens int
	decode    decodeFunc
}{
	{"RMC", TypeRMC, 13, decodeRMC},
	{"GGA", TypeGGA, 16, decodeGGA},
	{"GLL", TypeGLL, 8, decodeGLL},
	{"GSA", TypeGSA, 19, decodeGSA},
	{"GSV", TypeGSV, 8, decodeGSV},
	{"VTG", TypeVTG, 10, decodeVTG},
}

// Decoder decodes sentences. Location is used to interpret the RMC date and
// time; nil means time.Local.
type Decoder struct {
	Location *time.Location
}

// NewDecoder returns a Decoder that builds timestamps in loc.
func NewDecoder(loc *time.Location) *Decoder {
	return &Decoder{Location: loc}
}

var localDecoder = &Decoder{}

// Decode decodes sentence into fix using the host's local time zone for the
// RMC timestamp.
func Decode(sentence string, fix *Fix) SentenceType {
	return localDecoder.Decode(sentence, fix)
}

// Decode dispatches sentence by its type code and writes the fields of that
// type into fix. TypeErr means the talker, code or field count was not
// recognized; fix is untouched in that case.
//
// Numeric fields that are empty or fail to parse leave the previous value.
// The checksum is not checked here, see VerifyChecksum.
func (d *Decoder) Decode(sentence string, fix *Fix) SentenceType {
	if fix == nil {
		return TypeErr
	}
	header := sentence
	if i := strings.IndexByte(sentence, ','); i != -1 {
		header = sentence[:i]
	}
	talker, ok := Talker(header)
	if !ok {
		return TypeErr
	}
	code := header[len(talker)+1:]

	for _, row := range decoders {
		if row.code != code {
			continue
		}
		f := Tokenize(sentence, FieldDelims)
		if len(f) < row.minTokens {
			return TypeErr
		}
		row.decode(d, f, fix)
		return row.typ
	}
	return TypeErr
}

func (d *Decoder) location() *time.Location {
	if d == nil || d.Location == nil {
		return time.Local
	}
	return d.Location
}

// RMC: Recommended Minimum Specific GNSS Data
//
//	1: time (hhmmss.ss)
//	2: status (A=active, V=void)
//	3: latitude (ddmm.mmmm)
//	4: N/S
//	5: longitude (dddmm.mmmm)
//	6: E/W
//	7: speed over ground (knots)
//	8: course over ground (deg)
//	9: date (ddmmyy)
func decodeRMC(d *Decoder, f []string, fix *Fix) {
	fix.Valid = f[2] == "A"
	setPosition(fix, f[3], f[4], f[5], f[6])
	if v, ok := parseFloat(f[7]); ok {
		fix.SpeedKph = KnotsToKph(v)
	}
	setFloat(&fix.HeadingDeg, f[8])
	if ts, ok := parseDateTime(f[9], f[1], d.location()); ok {
		fix.Timestamp = ts
	}
}

// GGA: Global Positioning System Fix Data
//
//	2: latitude, 3: N/S, 4: longitude, 5: E/W
//	6: fix quality
//	7: satellites in use
//	8: HDOP
//	9: altitude (meters)
func decodeGGA(_ *Decoder, f []string, fix *Fix) {
	setPosition(fix, f[2], f[3], f[4], f[5])
	if v, ok := parseUint(f[7]); ok {
		fix.Satellites = v
	}
	setFloat(&fix.HDOP, f[8])
	setFloat(&fix.AltitudeM, f[9])
}

// GLL: Geographic Position
//
//	1: latitude, 2: N/S, 3: longitude, 4: E/W
//	5: time
//	6: status (A=active, V=void)
func decodeGLL(_ *Decoder, f []string, fix *Fix) {
	setPosition(fix, f[1], f[2], f[3], f[4])
	fix.Valid = f[6] == "A"
}

// GSA: DOP and active satellites
//
//	3..14: satellite PRNs
//	15: PDOP, 16: HDOP, 17: VDOP
func decodeGSA(_ *Decoder, f []string, fix *Fix) {
	setFloat(&fix.HDOP, f[16])
	setFloat(&fix.VDOP, f[17])
}

// GSV: Satellites in view
//
//	1: message count, 2: message number, 3: satellites in view
func decodeGSV(_ *Decoder, f []string, fix *Fix) {
	if v, ok := parseUint(f[3]); ok {
		fix.Satellites = v
	}
}

// VTG: Track made good and ground speed
//
//	1: track true, 2: T, 3: track magnetic, 4: M
//	5: speed (knots), 6: N
//	7: speed (km/h), 8: K
func decodeVTG(_ *Decoder, f []string, fix *Fix) {
	if v, ok := parseFloat(f[5]); ok {
		fix.SpeedKph = KnotsToKph(v)
	}
}

func setPosition(fix *Fix, lat, ns, lon, ew string) {
	setFloat(&fix.Latitude, lat)
	switch ns {
	case "N":
		fix.North = true
	case "S":
		fix.North = false
	}
	setFloat(&fix.Longitude, lon)
	switch ew {
	case "E":
		fix.East = true
	case "W":
		fix.East = false
	}
}

func setFloat(dst *float64, s string) {
	if v, ok := parseFloat(s); ok {
		*dst = v
	}
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseUint(s string) (uint, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}

// parseDateTime combines ddmmyy and hhmmss[.ss] into Unix seconds in loc.
// The two-digit year is taken as 20YY.
func parseDateTime(date, clock string, loc *time.Location) (int64, bool) {
	if len(date) < 6 || len(clock) < 6 {
		return 0, false
	}
	var n [6]int
	parts := [6]string{date[0:2], date[2:4], date[4:6], clock[0:2], clock[2:4], clock[4:6]}
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, false
		}
		n[i] = v
	}
	t := time.Date(2000+n[2], time.Month(n[1]), n[0], n[3], n[4], n[5], 0, loc)
	return t.Unix(), true
}
