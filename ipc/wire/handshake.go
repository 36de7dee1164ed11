package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// Buffer description flags advertised in the handshake.
const (
	BufferCompact        byte = 1 // payload buffers carry no type metadata
	BufferSelfDescribing byte = 2 // payload buffers are fully self-describing
)

// Handshake is the connect payload sent after the control header. Field
// order on the wire is fixed: namespace, rank, version, credential, then
// the extension fields (mechanisms, profile, buffer flag, backend) which
// older daemons ignore. All string fields are NUL-terminated except the
// final backend field, whose end is implied by the payload length.
type Handshake struct {
	Namespace  string
	Rank       uint32
	Version    string
	Credential []byte
	Mechanisms string // comma-separated security mechanism list
	Profile    string // serialization profile identifier
	BufferFlag byte
	Backend    string // data-store backend identifier
}

// Marshal encodes the handshake into its wire payload. The returned length
// is whatever the buffer accumulated, so the header's payload count can
// never disagree with the bytes actually written.
func (h *Handshake) Marshal() ([]byte, error) {
	for name, s := range map[string]string{
		"namespace":  h.Namespace,
		"version":    h.Version,
		"mechanisms": h.Mechanisms,
		"profile":    h.Profile,
		"backend":    h.Backend,
	} {
		if strings.IndexByte(s, 0) >= 0 {
			return nil, fmt.Errorf("wire: handshake %s contains NUL byte", name)
		}
	}
	if bytes.IndexByte(h.Credential, 0) >= 0 {
		return nil, fmt.Errorf("wire: handshake credential contains NUL byte")
	}

	var buf bytes.Buffer
	buf.WriteString(h.Namespace)
	buf.WriteByte(0)
	_ = binary.Write(&buf, binary.LittleEndian, h.Rank)
	buf.WriteString(h.Version)
	buf.WriteByte(0)
	buf.Write(h.Credential) // empty credential still gets its terminator
	buf.WriteByte(0)

	// extension fields: v2.0 daemons stop reading before this point, so
	// they must always be appended, never omitted or reordered
	buf.WriteString(h.Mechanisms)
	buf.WriteByte(0)
	buf.WriteString(h.Profile)
	buf.WriteByte(0)
	buf.WriteByte(h.BufferFlag)
	buf.WriteString(h.Backend) // last field, no trailing NUL

	return buf.Bytes(), nil
}

// Unmarshal decodes a full handshake payload, extension fields included.
// It never reads past len(p): the caller already sized p from the header.
func Unmarshal(p []byte) (*Handshake, error) {
	h, off, err := unmarshalBase(p)
	if err != nil {
		return nil, err
	}

	if h.Mechanisms, off, err = readCString(p, off, "mechanisms"); err != nil {
		return nil, err
	}
	if h.Profile, off, err = readCString(p, off, "profile"); err != nil {
		return nil, err
	}
	if off >= len(p) {
		return nil, fmt.Errorf("wire: handshake truncated before buffer flag")
	}
	h.BufferFlag = p[off]
	off++

	// the backend identifier runs to the end of the payload
	h.Backend = string(p[off:])

	return h, nil
}

// UnmarshalLegacy decodes only the fields a v2.0 daemon understands:
// namespace, rank, version and credential. Any trailing extension bytes
// are ignored, which is exactly what an older receiver does.
func UnmarshalLegacy(p []byte) (*Handshake, error) {
	h, _, err := unmarshalBase(p)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// unmarshalBase reads the version-independent prefix of the payload and
// returns the offset of the first extension byte.
func unmarshalBase(p []byte) (*Handshake, int, error) {
	h := &Handshake{}
	var err error
	off := 0

	if h.Namespace, off, err = readCString(p, off, "namespace"); err != nil {
		return nil, 0, err
	}
	if off+4 > len(p) {
		return nil, 0, fmt.Errorf("wire: handshake truncated in rank field")
	}
	h.Rank = binary.LittleEndian.Uint32(p[off : off+4])
	off += 4
	if h.Version, off, err = readCString(p, off, "version"); err != nil {
		return nil, 0, err
	}

	var cred string
	if cred, off, err = readCString(p, off, "credential"); err != nil {
		return nil, 0, err
	}
	if cred != "" {
		h.Credential = []byte(cred)
	}

	return h, off, nil
}

// readCString extracts a NUL-terminated string starting at off and returns
// the new offset just past the terminator.
func readCString(p []byte, off int, field string) (string, int, error) {
	if off > len(p) {
		return "", 0, fmt.Errorf("wire: handshake truncated before %s field", field)
	}
	i := bytes.IndexByte(p[off:], 0)
	if i < 0 {
		return "", 0, fmt.Errorf("wire: handshake %s field not terminated", field)
	}
	return string(p[off : off+i]), off + i + 1, nil
}
