package base

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/ValentinKolb/dIPC/ipc/common"
	"github.com/ValentinKolb/dIPC/ipc/wire"
)

// maxFrameSize caps the payload allocation for a single inbound frame. The
// header's byte count is otherwise trusted, so a corrupted length must not
// be allowed to allocate gigabytes.
const maxFrameSize = 256 << 20

// writeFrame writes a header and its payload to the connection as a single
// framed unit, combining both into one writev to avoid a partial-header
// syscall boundary.
func writeFrame(conn net.Conn, hdr wire.Header, payload []byte) error {
	b := net.Buffers{hdr.Marshal(), payload}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads one framed message: the fixed-size header, then exactly
// the payload bytes the header announced.
func readFrame(conn net.Conn) (wire.Header, []byte, error) {
	hb := make([]byte, wire.HeaderSize)
	if _, err := io.ReadFull(conn, hb); err != nil {
		return wire.Header{}, nil, err
	}

	hdr, err := wire.UnmarshalHeader(hb)
	if err != nil {
		return wire.Header{}, nil, err
	}
	if hdr.PayloadBytes > maxFrameSize {
		return wire.Header{}, nil, fmt.Errorf("frame of %d bytes exceeds limit", hdr.PayloadBytes)
	}

	payload := make([]byte, hdr.PayloadBytes)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return wire.Header{}, nil, err
	}

	return hdr, payload, nil
}

// readStatus reads a single fixed-width status code during the blocking
// handshake phase.
func readStatus(conn net.Conn) (common.Status, error) {
	v, err := readInt32(conn)
	return common.Status(v), err
}

// readInt32 reads one little-endian int32 from the connection.
func readInt32(conn net.Conn) (int32, error) {
	b := make([]byte, 4)
	if _, err := io.ReadFull(conn, b); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}
