package protocol

import "testing"

func TestStatusString(t *testing.T) {
	cases := []struct {
		status Status
		want   string
	}{
		{StatusOK, "OK"},
		{StatusNotFound, "NotFound"},
		{StatusNoName, "NoName"},
		{StatusInvalid, "Invalid"},
		{StatusRetry, "Retry"},
		{Status(99), "99"},
	}
	for _, c := range cases {
		if got := c.status.String(); got != c.want {
			t.Errorf("Status(%d).String() = %q, want %q", c.status, got, c.want)
		}
	}
}

func TestRRTypeName(t *testing.T) {
	cases := []struct {
		rtype RRType
		want  string
	}{
		{TypeA, "A"},
		{TypeMX, "MX"},
		{TypeAAAA, "AAAA"},
		{RRType(999), "999"},
	}
	for _, c := range cases {
		if got := c.rtype.Name(); got != c.want {
			t.Errorf("RRType(%d).Name() = %q, want %q", c.rtype, got, c.want)
		}
	}
}

func TestRCodeName(t *testing.T) {
	cases := []struct {
		rcode uint16
		want  string
	}{
		{0, "NOERROR"},
		{3, "NXDOMAIN"},
		{42, "42"},
	}
	for _, c := range cases {
		if got := RCodeName(c.rcode); got != c.want {
			t.Errorf("RCodeName(%d) = %q, want %q", c.rcode, got, c.want)
		}
	}
}
