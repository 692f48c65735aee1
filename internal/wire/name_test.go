package wire

import (
	"testing"

	"github.com/mxresolve/mxcore/internal/errors"
)

func mustEncode(t *testing.T, name string) []byte {
	t.Helper()
	b, err := EncodeName(name)
	if err != nil {
		t.Fatalf("EncodeName(%q): %v", name, err)
	}
	return b
}

func TestExpandNamePlain(t *testing.T) {
	msg := mustEncode(t, "example.com")
	wireForm, newOffset, err := ExpandName(msg, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newOffset != len(msg) {
		t.Fatalf("newOffset = %d, want %d", newOffset, len(msg))
	}
	printed, err := PrintName(wireForm)
	if err != nil {
		t.Fatalf("PrintName: %v", err)
	}
	if got := TrimTrailingDot(printed); got != "example.com" {
		t.Fatalf("got %q, want %q", got, "example.com")
	}
}

func TestExpandNameRoundTrip(t *testing.T) {
	cases := []string{"example.com", "example.com.", "mail.example.com", "a.b.c.d.e", "."}
	for _, name := range cases {
		encoded, err := EncodeName(name)
		if err != nil {
			t.Fatalf("EncodeName(%q): %v", name, err)
		}
		wireForm, _, err := ExpandName(encoded, 0)
		if err != nil {
			t.Fatalf("ExpandName(%q): %v", name, err)
		}
		printed, err := PrintName(wireForm)
		if err != nil {
			t.Fatalf("PrintName(%q): %v", name, err)
		}
		want := TrimTrailingDot(name)
		if got := TrimTrailingDot(printed); got != want {
			t.Errorf("round trip %q: got %q, want %q", name, got, want)
		}
	}
}

func TestExpandNameCompressionPointer(t *testing.T) {
	// message: [0] "example.com" (13 bytes), then at offset 13 a pointer back to 0.
	base := mustEncode(t, "example.com")
	msg := append([]byte{}, base...)
	pointerOffset := len(msg)
	msg = append(msg, 0xC0, byte(0))

	wireForm, newOffset, err := ExpandName(msg, pointerOffset)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newOffset != pointerOffset+2 {
		t.Fatalf("newOffset = %d, want %d", newOffset, pointerOffset+2)
	}
	printed, _ := PrintName(wireForm)
	if got := TrimTrailingDot(printed); got != "example.com" {
		t.Fatalf("got %q, want %q", got, "example.com")
	}
}

func TestExpandNameRejectsForwardPointer(t *testing.T) {
	// A pointer at offset 0 whose target is >= start (0) must be rejected,
	// even though the target byte happens to look like a valid label later
	// in the buffer — nothing past the pointer has been parsed yet.
	msg := []byte{0xC0, 0x02, 0x03, 'c', 'o', 'm', 0x00}
	_, _, err := ExpandName(msg, 0)
	if err == nil {
		t.Fatal("expected error for forward-referencing pointer, got nil")
	}
	var wfe *errors.WireFormatError
	if !asWireFormatError(err, &wfe) {
		t.Fatalf("expected *errors.WireFormatError, got %T: %v", err, err)
	}
}

func TestExpandNameRejectsSelfPointer(t *testing.T) {
	// A pointer at offset 3 pointing to itself (3) must be rejected: target
	// must be strictly less than start, and here target == start.
	msg := []byte{0x03, 'c', 'o', 0xC0, 0x03}
	_, _, err := ExpandName(msg, 3)
	if err == nil {
		t.Fatal("expected error for self-referential pointer, got nil")
	}
}

func TestExpandNameRejectsLoop(t *testing.T) {
	// Two pointers pointing at each other would loop forever under a naive
	// "target < pos" rule once pos has advanced past both; the stricter
	// "target < start of this name" rule catches it immediately on the
	// first hop since pos is pinned to this name's own start.
	msg := []byte{0xC0, 0x02, 0xC0, 0x00}
	_, _, err := ExpandName(msg, 0)
	if err == nil {
		t.Fatal("expected error for looping pointers, got nil")
	}
}

func TestExpandNameRejectsLoopAtNonzeroOffset(t *testing.T) {
	// Name starts at offset 100, well past two pointers that bounce between
	// each other (60 -> 80 -> 60 -> ...), both strictly less than 100. A
	// guard that only ever compares against the name's original start offset
	// (100) never rejects either hop and loops forever; the correct rule
	// resets start to each accepted target, so the second hop (80, from a
	// new start of 60) is caught immediately.
	msg := make([]byte, 102)
	msg[60], msg[61] = 0xC0, 80
	msg[80], msg[81] = 0xC0, 60
	msg[100], msg[101] = 0xC0, 60

	_, _, err := ExpandName(msg, 100)
	if err == nil {
		t.Fatal("expected error for a loop discovered after a prior jump, got nil")
	}
}

func TestExpandNameLabelTooLong(t *testing.T) {
	label := make([]byte, 64)
	label[0] = 64
	for i := 1; i < len(label); i++ {
		label[i] = 'a'
	}
	label = append(label, 0)
	_, _, err := ExpandName(label, 0)
	if err == nil {
		t.Fatal("expected error for oversized label, got nil")
	}
}

func TestExpandNameTruncatedLabel(t *testing.T) {
	msg := []byte{5, 'a', 'b', 'c'} // declares 5 bytes, only 3 present
	_, _, err := ExpandName(msg, 0)
	if err == nil {
		t.Fatal("expected error for truncated label, got nil")
	}
}

func TestExpandNameMaxDNAMEOverflow(t *testing.T) {
	// 4 labels of 63 bytes each (64 with length byte) plus root = 257 bytes on the wire, over MAXDNAME.
	var msg []byte
	for i := 0; i < 4; i++ {
		msg = append(msg, 63)
		for j := 0; j < 63; j++ {
			msg = append(msg, 'a')
		}
	}
	msg = append(msg, 0)
	_, _, err := ExpandName(msg, 0)
	if err == nil {
		t.Fatal("expected error for MAXDNAME overflow, got nil")
	}
}

func TestEncodeNameRejectsEmptyLabel(t *testing.T) {
	_, err := EncodeName("foo..bar")
	if err == nil {
		t.Fatal("expected error for empty label, got nil")
	}
}

func asWireFormatError(err error, target **errors.WireFormatError) bool {
	if wfe, ok := err.(*errors.WireFormatError); ok {
		*target = wfe
		return true
	}
	return false
}
