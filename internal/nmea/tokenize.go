package nmea

import "strings"

// FieldDelims separates NMEA body fields and the checksum suffix.
const FieldDelims = ",*"

// Tokenize splits s on any byte in delims. Empty fields between adjacent
// delimiters are kept so field positions never shift.
func Tokenize(s string, delims string) []string {
	if delims == "" {
		return []string{s}
	}
	out := make([]string, 0, strings.Count(s, ",")+2)
	start := 0
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(delims, s[i]) != -1 {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}
