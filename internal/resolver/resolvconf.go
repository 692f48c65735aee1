package resolver

import (
	"bufio"
	"net"
	"os"
	"strings"

	"github.com/mxresolve/mxcore/internal/errors"
)

// defaultResolvConfPath is used when NameserverFromResolvConf is given an
// empty path.
var defaultResolvConfPath = "/etc/resolv.conf"

// NameserverFromResolvConf returns the first "nameserver" entry from path,
// formatted as host:port for use with net.Dial("udp", ...). No pack library
// parses resolv.conf, so this is intentionally minimal glue rather than a
// full implementation of every resolv.conf directive (search, options,
// sortlist): this core only needs an address to send a UDP query to.
func NameserverFromResolvConf(path string) (string, error) {
	if path == "" {
		path = defaultResolvConfPath
	}

	f, err := os.Open(path)
	if err != nil {
		return "", &errors.NetworkError{Operation: "read resolv.conf", Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || fields[0] != "nameserver" {
			continue
		}
		ip := net.ParseIP(fields[1])
		if ip == nil {
			continue
		}
		return net.JoinHostPort(ip.String(), "53"), nil
	}
	if err := scanner.Err(); err != nil {
		return "", &errors.NetworkError{Operation: "read resolv.conf", Err: err}
	}

	return "", &errors.ValidationError{
		Field:   "resolv.conf",
		Value:   path,
		Message: "no nameserver entries found",
	}
}
