package wire

import (
	"encoding/binary"

	"github.com/mxresolve/mxcore/internal/protocol"
)

// headerFlagsQuery is the flag word for a standard, recursion-desired query:
// QR=0, OPCODE=0 (QUERY), RD=1, everything else zero.
const headerFlagsQuery = 0x0100

// BuildQuery constructs the raw wire bytes of a single-question query for
// name/qtype/ClassIN, with recursion desired and no additional sections.
// The caller supplies id (typically random per outstanding query) so replies
// can be matched without tracking state in this package.
func BuildQuery(id uint16, name string, qtype protocol.RRType) ([]byte, error) {
	encodedName, err := EncodeName(name)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, protocol.HeaderSize+len(encodedName)+4)

	var header [protocol.HeaderSize]byte
	binary.BigEndian.PutUint16(header[0:2], id)
	binary.BigEndian.PutUint16(header[2:4], headerFlagsQuery)
	binary.BigEndian.PutUint16(header[4:6], 1) // QDCOUNT
	binary.BigEndian.PutUint16(header[6:8], 0)
	binary.BigEndian.PutUint16(header[8:10], 0)
	binary.BigEndian.PutUint16(header[10:12], 0)
	buf = append(buf, header[:]...)

	buf = append(buf, encodedName...)

	var tail [4]byte
	binary.BigEndian.PutUint16(tail[0:2], uint16(qtype))
	binary.BigEndian.PutUint16(tail[2:4], uint16(protocol.ClassIN))
	buf = append(buf, tail[:]...)

	return buf, nil
}
