package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"nmea-ng/internal/nmea"
)

type decodedLine struct {
	Sentence   string            `json:"sentence"`
	Type       nmea.SentenceType `json:"type"`
	ChecksumOK bool              `json:"checksum_ok"`
	Fix        nmea.Fix          `json:"fix"`
}

// runDecode implements "nmea-ng decode [file]": it frames and decodes the
// input and prints one JSON object per sentence.
func runDecode(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	tz := fs.String("tz", "Local", "Time zone RMC date/time fields are interpreted in")
	fresh := fs.Bool("fresh", false, "Decode every sentence into a new fix instead of accumulating")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		fmt.Fprintf(stderr, "decode: bad -tz: %v\n", err)
		return 2
	}

	in := stdin
	if fs.NArg() > 0 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(stderr, "decode: %v\n", err)
			return 1
		}
		defer f.Close()
		in = f
	}

	framer := nmea.NewFramer()
	decoder := nmea.NewDecoder(loc)
	fix := nmea.NewFix()
	enc := json.NewEncoder(stdout)

	buf := make([]byte, 4096)
	for {
		n, rerr := in.Read(buf)
		for _, line := range framer.Consume(buf[:n]) {
			if *fresh {
				fix.Reset()
			}
			out := decodedLine{
				Sentence:   line,
				Type:       decoder.Decode(line, &fix),
				ChecksumOK: nmea.VerifyChecksum(line),
				Fix:        fix,
			}
			if err := enc.Encode(out); err != nil {
				fmt.Fprintf(stderr, "decode: write: %v\n", err)
				return 1
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			fmt.Fprintf(stderr, "decode: read: %v\n", rerr)
			return 1
		}
	}
	if d := framer.Dropped(); d > 0 {
		fmt.Fprintf(stderr, "decode: dropped %d overlong fragment(s)\n", d)
	}
	return 0
}
