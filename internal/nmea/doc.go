// Package nmea decodes NMEA-0183 text sentences.
//
// The package is deliberately free of I/O:
//   - Framer reassembles sentences from arbitrary read chunks
//   - Checksum/VerifyChecksum validate the XOR checksum
//   - Decode dispatches a sentence by type and writes the fields it carries
//     into a caller-owned Fix
//
// Latitude and longitude are kept in the packed NMEA form (DDMM.MMMM) on Fix;
// use PackedToDecimal or Fix.LatitudeDeg/LongitudeDeg for decimal degrees.
package nmea
