//go:build linux

package source

import "testing"

func TestBaudToUnix(t *testing.T) {
	for _, b := range []int{4800, 9600, 19200, 38400, 57600, 115200, 230400} {
		if _, err := baudToUnix(b); err != nil {
			t.Fatalf("baud %d: %v", b, err)
		}
	}
	if _, err := baudToUnix(1234); err == nil {
		t.Fatalf("expected unsupported baud error")
	}
}
