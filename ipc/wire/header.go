package wire

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is the fixed byte size of the message preamble.
	HeaderSize = 16

	// TagControl marks connection-setup messages. Data messages use tags
	// assigned by the dispatch layer, which never reach this value.
	TagControl = ^uint32(0)

	// TagDynamicBase is the lower bound of the tag range the dispatch
	// layer hands out for reply correlation. Tags below it are reserved
	// for well-known, application-defined message kinds, so a generated
	// tag can never shadow one of them in the pending-reply table.
	TagDynamicBase uint32 = 1 << 16

	// PeerIndexUnassigned is sent before the daemon has told us our index
	// into its client table.
	PeerIndexUnassigned int32 = -1
)

// Header precedes every framed message on the wire: the sender's assigned
// peer index, the message tag and the number of payload bytes that follow.
// All fields are little-endian; see the package comment for why the byte
// order is pinned rather than native.
type Header struct {
	PeerIndex    int32
	Tag          uint32
	PayloadBytes uint64
}

// Marshal encodes the header into its fixed 16-byte wire form.
func (h Header) Marshal() []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], uint32(h.PeerIndex))
	binary.LittleEndian.PutUint32(b[4:8], h.Tag)
	binary.LittleEndian.PutUint64(b[8:16], h.PayloadBytes)
	return b
}

// UnmarshalHeader decodes a header from the first HeaderSize bytes of b.
func UnmarshalHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("wire: short header: %d of %d bytes", len(b), HeaderSize)
	}
	return Header{
		PeerIndex:    int32(binary.LittleEndian.Uint32(b[0:4])),
		Tag:          binary.LittleEndian.Uint32(b[4:8]),
		PayloadBytes: binary.LittleEndian.Uint64(b[8:16]),
	}, nil
}
