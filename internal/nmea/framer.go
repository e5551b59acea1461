package nmea

// MaxLineLength bounds the residual fragment kept between reads. NMEA caps a
// sentence at 82 characters; anything longer than this is line noise.
const MaxLineLength = 255

// Framer reassembles complete sentences from arbitrary read chunks.
//
// A sentence ends at CR; the LF that normally follows is skipped even when it
// arrives in the next chunk. A bare LF also ends a sentence. Framer is not safe
// for concurrent use.
type Framer struct {
	residual []byte

	// discarding is set after an overlong fragment until the next terminator.
	discarding bool
	// skipLF is set when the previous chunk ended right after a CR.
	skipLF bool

	dropped uint64
}

// NewFramer returns an empty Framer.
func NewFramer() *Framer {
	return &Framer{residual: make([]byte, 0, MaxLineLength+1)}
}

// ConsumeString is Consume for string chunks.
func (f *Framer) ConsumeString(chunk string) []string {
	return f.Consume([]byte(chunk))
}

// Consume appends chunk to the buffered fragment and returns every sentence
// completed by it, in order. Empty lines are not returned. A fragment longer
// than MaxLineLength is dropped together with the rest of its line.
func (f *Framer) Consume(chunk []byte) []string {
	var out []string
	i := 0
	if f.skipLF && len(chunk) > 0 {
		f.skipLF = false
		if chunk[0] == '\n' {
			i = 1
		}
	}

	for i < len(chunk) {
		end := i
		for end < len(chunk) && chunk[end] != '\r' && chunk[end] != '\n' {
			end++
		}

		if !f.discarding {
			f.residual = append(f.residual, chunk[i:end]...)
			if len(f.residual) > MaxLineLength {
				f.residual = f.residual[:0]
				f.discarding = true
				f.dropped++
			}
		}

		if end == len(chunk) {
			break
		}

		// Terminator found.
		if f.discarding {
			f.discarding = false
		} else if len(f.residual) > 0 {
			out = append(out, string(f.residual))
		}
		f.residual = f.residual[:0]

		next := end + 1
		if chunk[end] == '\r' {
			if next < len(chunk) {
				if chunk[next] == '\n' {
					next++
				}
			} else {
				f.skipLF = true
			}
		}
		i = next
	}
	return out
}

// Buffered returns the length of the fragment waiting for a terminator.
func (f *Framer) Buffered() int {
	return len(f.residual)
}

// Dropped returns how many overlong fragments have been discarded.
func (f *Framer) Dropped() uint64 {
	return f.dropped
}

// Reset forgets any buffered fragment.
func (f *Framer) Reset() {
	f.residual = f.residual[:0]
	f.discarding = false
	f.skipLF = false
}
