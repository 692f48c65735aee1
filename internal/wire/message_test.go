package wire

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/mxresolve/mxcore/internal/protocol"
)

func appendU16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func buildHeader(id, flags, qd, an, ns, ar uint16) []byte {
	var buf []byte
	buf = appendU16(buf, id)
	buf = appendU16(buf, flags)
	buf = appendU16(buf, qd)
	buf = appendU16(buf, an)
	buf = appendU16(buf, ns)
	buf = appendU16(buf, ar)
	return buf
}

func TestDecodeMessageHeader(t *testing.T) {
	buf := buildHeader(0x1234, 0x8180, 1, 0, 0, 0)
	buf = append(buf, mustEncode(t, "example.com")...)
	buf = appendU16(buf, uint16(protocol.TypeA))
	buf = appendU16(buf, uint16(protocol.ClassIN))

	msg, err := DecodeMessage(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Header.ID != 0x1234 {
		t.Errorf("ID = %#x, want %#x", msg.Header.ID, 0x1234)
	}
	if msg.Header.RCode() != 0 {
		t.Errorf("RCode = %d, want 0", msg.Header.RCode())
	}
	if len(msg.Questions) != 1 || msg.Questions[0].Name != "example.com" {
		t.Fatalf("questions = %+v", msg.Questions)
	}
}

func buildARecord(name string, ttl uint32, ip net.IP) []byte {
	var buf []byte
	b, _ := EncodeName(name)
	buf = append(buf, b...)
	buf = appendU16(buf, uint16(protocol.TypeA))
	buf = appendU16(buf, uint16(protocol.ClassIN))
	buf = appendU32(buf, ttl)
	ip4 := ip.To4()
	buf = appendU16(buf, uint16(len(ip4)))
	buf = append(buf, ip4...)
	return buf
}

func buildMXRecord(name string, ttl uint32, pref uint16, exchange string) []byte {
	var buf []byte
	b, _ := EncodeName(name)
	buf = append(buf, b...)
	buf = appendU16(buf, uint16(protocol.TypeMX))
	buf = appendU16(buf, uint16(protocol.ClassIN))
	buf = appendU32(buf, ttl)

	var rdata []byte
	rdata = appendU16(rdata, pref)
	exchBytes, _ := EncodeName(exchange)
	rdata = append(rdata, exchBytes...)

	buf = appendU16(buf, uint16(len(rdata)))
	buf = append(buf, rdata...)
	return buf
}

func TestDecodeMessageARecord(t *testing.T) {
	buf := buildHeader(1, 0x8180, 0, 1, 0, 0)
	buf = append(buf, buildARecord("mail.example.com", 300, net.ParseIP("192.0.2.10"))...)

	msg, err := DecodeMessage(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msg.Answers) != 1 {
		t.Fatalf("answers = %d, want 1", len(msg.Answers))
	}
	ab, ok := msg.Answers[0].Body.(ABody)
	if !ok {
		t.Fatalf("body type = %T, want ABody", msg.Answers[0].Body)
	}
	if !ab.Addr.Equal(net.ParseIP("192.0.2.10")) {
		t.Errorf("addr = %v, want 192.0.2.10", ab.Addr)
	}
}

func TestDecodeMessageMXRecords(t *testing.T) {
	buf := buildHeader(2, 0x8180, 0, 2, 0, 0)
	buf = append(buf, buildMXRecord("example.com", 3600, 10, "mail1.example.com")...)
	buf = append(buf, buildMXRecord("example.com", 3600, 20, "mail2.example.com")...)

	msg, err := DecodeMessage(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msg.Answers) != 2 {
		t.Fatalf("answers = %d, want 2", len(msg.Answers))
	}
	mx0, ok := msg.Answers[0].Body.(MXBody)
	if !ok {
		t.Fatalf("body type = %T, want MXBody", msg.Answers[0].Body)
	}
	if mx0.Preference != 10 || mx0.Exchange != "mail1.example.com" {
		t.Errorf("mx0 = %+v", mx0)
	}
	mx1 := msg.Answers[1].Body.(MXBody)
	if mx1.Preference != 20 || mx1.Exchange != "mail2.example.com" {
		t.Errorf("mx1 = %+v", mx1)
	}
}

func TestDecodeMessageBadDlen(t *testing.T) {
	buf := buildHeader(3, 0x8180, 0, 1, 0, 0)
	b, _ := EncodeName("example.com")
	buf = append(buf, b...)
	buf = appendU16(buf, uint16(protocol.TypeA))
	buf = appendU16(buf, uint16(protocol.ClassIN))
	buf = appendU32(buf, 300)
	buf = appendU16(buf, 3) // A record declares rdlength 3, but A bodies are always 4 bytes
	buf = append(buf, 1, 2, 3, 4)

	_, err := DecodeMessage(buf)
	if err == nil {
		t.Fatal("expected bad-dlen error, got nil")
	}
}

func TestDecodeMessageTruncatedKeepsPartialAnswers(t *testing.T) {
	buf := buildHeader(4, 0x8180, 0, 2, 0, 0)
	buf = append(buf, buildMXRecord("example.com", 3600, 10, "mail1.example.com")...)
	// Second record truncated mid-header.
	b, _ := EncodeName("example.com")
	buf = append(buf, b...)
	buf = appendU16(buf, uint16(protocol.TypeMX))
	buf = append(buf, 0xFF) // incomplete class field

	msg, err := DecodeMessage(buf)
	if err == nil {
		t.Fatal("expected truncation error, got nil")
	}
	if len(msg.Answers) != 1 {
		t.Fatalf("answers = %d, want 1 partial answer preserved", len(msg.Answers))
	}
}

func TestBuildQueryRoundTrip(t *testing.T) {
	raw, err := BuildQuery(0xABCD, "example.com", protocol.TypeMX)
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}

	msg, err := DecodeMessage(raw)
	if err != nil {
		t.Fatalf("DecodeMessage of our own query: %v", err)
	}
	if msg.Header.ID != 0xABCD {
		t.Errorf("ID = %#x, want %#x", msg.Header.ID, 0xABCD)
	}
	if len(msg.Questions) != 1 {
		t.Fatalf("questions = %d, want 1", len(msg.Questions))
	}
	q := msg.Questions[0]
	if q.Name != "example.com" || q.Type != protocol.TypeMX || q.Class != protocol.ClassIN {
		t.Errorf("question = %+v", q)
	}
}
