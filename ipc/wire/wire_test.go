package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{PeerIndex: PeerIndexUnassigned, Tag: TagControl, PayloadBytes: 42}

	b := h.Marshal()
	require.Len(t, b, HeaderSize)

	got, err := UnmarshalHeader(b)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestHeaderShortBuffer(t *testing.T) {
	_, err := UnmarshalHeader(make([]byte, HeaderSize-1))
	require.Error(t, err)
}

func TestHandshakeRoundTrip(t *testing.T) {
	cases := map[string]Handshake{
		"full": {
			Namespace:  "myjob",
			Rank:       7,
			Version:    "2.0",
			Credential: []byte("secret-token"),
			Mechanisms: "token,native",
			Profile:    "json",
			BufferFlag: BufferSelfDescribing,
			Backend:    "hash",
		},
		"no credential": {
			Namespace:  "job-0",
			Rank:       0,
			Version:    "2.0",
			Mechanisms: "native",
			Profile:    "binary",
			BufferFlag: BufferCompact,
			Backend:    "shmem",
		},
		"empty backend": {
			Namespace:  "n",
			Rank:       4294967295,
			Version:    "3.1.4",
			Credential: []byte("c"),
			Mechanisms: "native",
			Profile:    "gob",
			BufferFlag: BufferCompact,
		},
	}

	for name, hs := range cases {
		t.Run(name, func(t *testing.T) {
			p, err := hs.Marshal()
			require.NoError(t, err)

			got, err := Unmarshal(p)
			require.NoError(t, err)
			assert.Equal(t, &hs, got)
		})
	}
}

// An old daemon stops reading after the credential field. The extension
// fields are appended behind it, so the prefix must parse on its own.
func TestHandshakeLegacyDecode(t *testing.T) {
	hs := Handshake{
		Namespace:  "myjob",
		Rank:       3,
		Version:    "2.0",
		Credential: []byte("cred"),
		Mechanisms: "token,native",
		Profile:    "json",
		BufferFlag: BufferCompact,
		Backend:    "hash",
	}

	p, err := hs.Marshal()
	require.NoError(t, err)

	got, err := UnmarshalLegacy(p)
	require.NoError(t, err)
	assert.Equal(t, "myjob", got.Namespace)
	assert.Equal(t, uint32(3), got.Rank)
	assert.Equal(t, "2.0", got.Version)
	assert.Equal(t, []byte("cred"), got.Credential)

	// extension fields are invisible to the legacy decoder
	assert.Empty(t, got.Mechanisms)
	assert.Empty(t, got.Profile)
	assert.Zero(t, got.BufferFlag)
	assert.Empty(t, got.Backend)
}

func TestHandshakePayloadLengthMatchesHeader(t *testing.T) {
	hs := Handshake{
		Namespace:  "ns",
		Rank:       1,
		Version:    "2.0",
		Credential: []byte("abc"),
		Mechanisms: "native",
		Profile:    "json",
		BufferFlag: BufferCompact,
		Backend:    "hash",
	}

	p, err := hs.Marshal()
	require.NoError(t, err)

	// namespace(2+1) + rank(4) + version(3+1) + cred(3+1) +
	// mechanisms(6+1) + profile(4+1) + flag(1) + backend(4)
	assert.Equal(t, 32, len(p))

	hdr := Header{PeerIndex: PeerIndexUnassigned, Tag: TagControl, PayloadBytes: uint64(len(p))}
	assert.Equal(t, hdr.PayloadBytes, uint64(len(p)))
}

func TestHandshakeRejectsEmbeddedNUL(t *testing.T) {
	hs := Handshake{Namespace: "bad\x00ns", Version: "2.0"}
	_, err := hs.Marshal()
	require.Error(t, err)

	hs = Handshake{Namespace: "ns", Version: "2.0", Credential: []byte{1, 0, 2}}
	_, err = hs.Marshal()
	require.Error(t, err)
}

func TestHandshakeTruncated(t *testing.T) {
	hs := Handshake{
		Namespace: "ns", Rank: 1, Version: "2.0",
		Mechanisms: "native", Profile: "json",
		BufferFlag: BufferCompact, Backend: "hash",
	}
	p, err := hs.Marshal()
	require.NoError(t, err)

	// every prefix that cuts into a mandatory field must fail cleanly
	// instead of reading past the buffer. Prefixes that only shorten the
	// final backend field still decode, since its end is the payload end.
	for i := 0; i < len(p)-len(hs.Backend); i++ {
		_, err := Unmarshal(p[:i])
		require.Error(t, err, "prefix length %d", i)
	}
}
