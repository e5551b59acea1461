package nmea

import "strings"

// SentenceType tags the result of Decode.
type SentenceType int

const (
	TypeRMC SentenceType = iota // position and velocity
	TypeGGA                     // fix quality
	TypeGLL                     // latitude/longitude only
	TypeGSA                     // satellite geometry (DOP)
	TypeGSV                     // satellites in view
	TypeVTG                     // ground speed vector
	TypeErr                     // unrecognized or malformed
)

func (t SentenceType) String() string {
	switch t {
	case TypeRMC:
		return "RMC"
	case TypeGGA:
		return "GGA"
	case TypeGLL:
		return "GLL"
	case TypeGSA:
		return "GSA"
	case TypeGSV:
		return "GSV"
	case TypeVTG:
		return "VTG"
	default:
		return "ERR"
	}
}

// MarshalText lets SentenceType appear by name in JSON.
func (t SentenceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (t *SentenceType) UnmarshalText(b []byte) error {
	*t = ParseSentenceType(string(b))
	return nil
}

// ParseSentenceType maps a three-letter code (case-insensitive) to its type.
func ParseSentenceType(code string) SentenceType {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, row := range decoders {
		if row.code == code {
			return row.typ
		}
	}
	return TypeErr
}

// Talkers lists the accepted talker prefixes.
var Talkers = []string{"$GP", "$GL", "$GN", "$GA"}

// Talker returns the two-letter talker ID of sentence, e.g. "GN".
func Talker(sentence string) (string, bool) {
	for _, p := range Talkers {
		if strings.HasPrefix(sentence, p) {
			return p[1:], true
		}
	}
	return "", false
}
