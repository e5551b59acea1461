package nmea

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

var streamLines = []string{
	"$GPGGA,092750.000,5321.6802,N,00630.3372,W,1,8,1.03,61.7,M,55.2,M,,*76",
	"$GPGSA,A,3,10,07,05,02,29,04,08,13,,,,,1.72,1.03,1.38*0A",
	"$GPGSA,A,3,10,07,05,02,29,04,08,13,,,,,1.72,1.03,1.38*0A   ",
}

func TestFramer_EmitsEachLine(t *testing.T) {
	f := NewFramer()
	got := f.ConsumeString(strings.Join(streamLines, "\r\n") + "\r\n")
	if len(got) != 3 {
		t.Fatalf("got %d sentences want 3: %q", len(got), got)
	}
	for i := range got {
		if strings.TrimSpace(got[i]) != strings.TrimSpace(streamLines[i]) {
			t.Fatalf("sentence %d=%q want %q", i, got[i], streamLines[i])
		}
	}
	if f.Buffered() != 0 {
		t.Fatalf("buffered=%d want 0", f.Buffered())
	}
}

func TestFramer_KeepsTrailingFragment(t *testing.T) {
	f := NewFramer()
	got := f.ConsumeString(streamLines[0] + "\r\n$GPGSA,A,3")
	if len(got) != 1 || got[0] != streamLines[0] {
		t.Fatalf("got %q", got)
	}
	if f.Buffered() != len("$GPGSA,A,3") {
		t.Fatalf("buffered=%d", f.Buffered())
	}
	got = f.ConsumeString(",10,07,05,02,29,04,08,13,,,,,1.72,1.03,1.38*0A\r\n")
	if len(got) != 1 || got[0] != streamLines[1] {
		t.Fatalf("got %q", got)
	}
}

func TestFramer_NoTerminatorNoOutput(t *testing.T) {
	f := NewFramer()
	if got := f.ConsumeString(refRMC); len(got) != 0 {
		t.Fatalf("expected no sentences, got %q", got)
	}
	if got := f.ConsumeString(""); len(got) != 0 {
		t.Fatalf("expected no sentences, got %q", got)
	}
}

func TestFramer_LFOnlyAndBlankLines(t *testing.T) {
	f := NewFramer()
	got := f.ConsumeString("\r\n\r\n" + streamLines[0] + "\n\n" + streamLines[1] + "\r")
	want := []string{streamLines[0], streamLines[1]}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
	// The LF completing the CR above arrives late and must not start a line.
	got = f.ConsumeString("\n" + refRMC + "\r\n")
	if !reflect.DeepEqual(got, []string{refRMC}) {
		t.Fatalf("got %q", got)
	}
}

func TestFramer_SplitAnywhereMatchesWhole(t *testing.T) {
	stream := strings.Join(append([]string{refRMC}, streamLines...), "\r\n") + "\r\n"
	whole := decodeAll(t, NewFramer().ConsumeString(stream))

	for cut := 0; cut <= len(stream); cut++ {
		f := NewFramer()
		sentences := f.ConsumeString(stream[:cut])
		sentences = append(sentences, f.ConsumeString(stream[cut:])...)
		got := decodeAll(t, sentences)
		if !reflect.DeepEqual(got, whole) {
			t.Fatalf("cut=%d: got %+v want %+v", cut, got, whole)
		}
	}
}

type decoded struct {
	Type SentenceType
	Fix  Fix
}

func decodeAll(t *testing.T, sentences []string) []decoded {
	t.Helper()
	d := NewDecoder(time.UTC)
	fix := NewFix()
	var out []decoded
	for _, s := range sentences {
		typ := d.Decode(s, &fix)
		out = append(out, decoded{Type: typ, Fix: fix})
	}
	return out
}

func TestFramer_DropsOverlongFragment(t *testing.T) {
	f := NewFramer()
	noise := strings.Repeat("x", MaxLineLength+10)
	if got := f.ConsumeString(noise); len(got) != 0 {
		t.Fatalf("expected nothing, got %q", got)
	}
	if f.Dropped() != 1 {
		t.Fatalf("dropped=%d want 1", f.Dropped())
	}
	// The remainder of the overlong line must not leak into the next sentence.
	got := f.ConsumeString("yyyy\r\n" + refRMC + "\r\n")
	if !reflect.DeepEqual(got, []string{refRMC}) {
		t.Fatalf("got %q want only the RMC", got)
	}
}

func TestFramer_OverlongAcrossChunks(t *testing.T) {
	f := NewFramer()
	part := strings.Repeat("z", 200)
	f.ConsumeString(part)
	if got := f.ConsumeString(part); len(got) != 0 {
		t.Fatalf("got %q", got)
	}
	if f.Buffered() != 0 || f.Dropped() != 1 {
		t.Fatalf("buffered=%d dropped=%d", f.Buffered(), f.Dropped())
	}
	got := f.ConsumeString(part + "\r\n" + streamLines[0] + "\r\n")
	if !reflect.DeepEqual(got, []string{streamLines[0]}) {
		t.Fatalf("got %q", got)
	}
}

func TestFramer_MaxLengthLineIsKept(t *testing.T) {
	f := NewFramer()
	line := "$" + strings.Repeat("a", MaxLineLength-1)
	got := f.ConsumeString(line + "\r\n")
	if len(got) != 1 || got[0] != line {
		t.Fatalf("expected %d-byte line to be emitted", MaxLineLength)
	}
}

func TestFramer_Reset(t *testing.T) {
	f := NewFramer()
	f.ConsumeString("$GPGGA,partial")
	f.Reset()
	if f.Buffered() != 0 {
		t.Fatalf("buffered=%d", f.Buffered())
	}
	got := f.ConsumeString(refRMC + "\r\n")
	if !reflect.DeepEqual(got, []string{refRMC}) {
		t.Fatalf("got %q", got)
	}
}

func TestFramer_ZeroValueUsable(t *testing.T) {
	var f Framer
	got := f.Consume([]byte(refRMC + "\r\n"))
	if !reflect.DeepEqual(got, []string{refRMC}) {
		t.Fatalf("got %q", got)
	}
}
