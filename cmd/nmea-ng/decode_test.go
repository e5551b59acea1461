package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nmea-ng/internal/config"
	"nmea-ng/internal/nmea"
)

const (
	refRMC = "$GPRMC,091724.00,A,5630.7930,N,08459.3424,E,06.404,075.5,260214,,,A*69"
	refGGA = "$GPGGA,091724.00,5630.7930,N,08459.3424,E,1,08,0.9,120.5,M,46.9,M,,*65"
)

func decodeLines(t *testing.T, out *bytes.Buffer) []decodedLine {
	t.Helper()
	var got []decodedLine
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		var d decodedLine
		if err := json.Unmarshal(sc.Bytes(), &d); err != nil {
			t.Fatalf("unmarshal %q: %v", sc.Text(), err)
		}
		got = append(got, d)
	}
	return got
}

func TestRunDecode_Stdin(t *testing.T) {
	in := strings.NewReader(refRMC + "\r\n$GPXXX,1*00\r\n" + refGGA + "\n")
	var out, errOut bytes.Buffer
	if code := runDecode([]string{"-tz", "UTC"}, in, &out, &errOut); code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, errOut.String())
	}

	got := decodeLines(t, &out)
	if len(got) != 3 {
		t.Fatalf("lines=%d want 3", len(got))
	}
	if got[0].Type != nmea.TypeRMC || !got[0].ChecksumOK || got[0].Fix.Timestamp != 1393406244 {
		t.Fatalf("rmc=%+v", got[0])
	}
	if got[1].Type != nmea.TypeErr || got[1].ChecksumOK {
		t.Fatalf("unknown=%+v", got[1])
	}
	if got[2].Type != nmea.TypeGGA || got[2].Fix.Satellites != 8 || !got[2].Fix.Valid {
		t.Fatalf("gga should accumulate onto rmc: %+v", got[2])
	}
}

func TestRunDecode_FreshAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.nmea")
	if err := os.WriteFile(path, []byte(refRMC+"\r\n"+refGGA+"\r\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	var out, errOut bytes.Buffer
	if code := runDecode([]string{"-tz", "UTC", "-fresh", path}, strings.NewReader(""), &out, &errOut); code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, errOut.String())
	}
	got := decodeLines(t, &out)
	if len(got) != 2 {
		t.Fatalf("lines=%d want 2", len(got))
	}
	if got[1].Fix.Valid || got[1].Fix.Timestamp != 0 {
		t.Fatalf("fresh gga should not carry rmc fields: %+v", got[1].Fix)
	}
}

func TestRunDecode_Errors(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := runDecode([]string{"-tz", "Not/AZone"}, strings.NewReader(""), &out, &errOut); code != 2 {
		t.Fatalf("bad tz exit=%d", code)
	}
	if code := runDecode([]string{filepath.Join(t.TempDir(), "missing")}, strings.NewReader(""), &out, &errOut); code != 1 {
		t.Fatalf("missing file exit=%d", code)
	}
	errOut.Reset()
	long := strings.Repeat("A", nmea.MaxLineLength+1)
	if code := runDecode(nil, strings.NewReader(long+"\r\n"), &out, &errOut); code != 0 {
		t.Fatalf("exit=%d", code)
	}
	if !strings.Contains(errOut.String(), "dropped 1") {
		t.Fatalf("stderr=%q", errOut.String())
	}
}

func TestBuildSinks(t *testing.T) {
	multi, err := buildSinks(context.Background(), config.PublishConfig{})
	if err != nil {
		t.Fatalf("buildSinks: %v", err)
	}
	if multi.Len() != 0 {
		t.Fatalf("len=%d want 0", multi.Len())
	}

	multi, err = buildSinks(context.Background(), config.PublishConfig{
		UDP: config.UDPConfig{Enable: true, Dest: "127.0.0.1:4000"},
	})
	if err != nil {
		t.Fatalf("buildSinks: %v", err)
	}
	defer multi.Close()
	if multi.Len() != 1 {
		t.Fatalf("len=%d want 1", multi.Len())
	}

	if _, err := buildSinks(context.Background(), config.PublishConfig{
		UDP: config.UDPConfig{Enable: true, Dest: "not an address"},
	}); err == nil {
		t.Fatalf("expected udp error")
	}
}
