package nmea

import (
	"strconv"
	"strings"
)

// Checksum returns the XOR of every byte between the first '$' and the first
// '*'. ok is false when either marker is missing or out of order.
func Checksum(sentence string) (sum byte, ok bool) {
	start := strings.IndexByte(sentence, '$')
	end := strings.IndexByte(sentence, '*')
	if start == -1 || end == -1 || end < start {
		return 0, false
	}
	for i := start + 1; i < end; i++ {
		sum ^= sentence[i]
	}
	return sum, true
}

// VerifyChecksum reports whether the hex checksum after '*' matches the payload.
func VerifyChecksum(sentence string) bool {
	got, ok := Checksum(sentence)
	if !ok {
		return false
	}
	ck := sentence[strings.IndexByte(sentence, '*')+1:]
	if len(ck) > 2 {
		ck = ck[:2]
	}
	ck = strings.TrimSpace(ck)
	if ck == "" {
		return false
	}
	want, err := strconv.ParseUint(ck, 16, 8)
	if err != nil {
		return false
	}
	return byte(want) == got
}
