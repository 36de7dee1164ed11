package base

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/dIPC/ipc/common"
	"github.com/ValentinKolb/dIPC/ipc/rendezvous"
	"github.com/ValentinKolb/dIPC/ipc/security"
	"github.com/ValentinKolb/dIPC/ipc/transport"
	"github.com/ValentinKolb/dIPC/ipc/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// Test Helpers
// --------------------------------------------------------------------------

// unixTestConnector is a minimal connector for the tests in this package;
// the real media live in the unix and tcp sub-packages.
type unixTestConnector struct{}

func (unixTestConnector) GetName() string { return "unix-test" }

func (unixTestConnector) CheckRendezvous(desc *rendezvous.Descriptor) error {
	return desc.CheckPath()
}

func (unixTestConnector) Connect(desc *rendezvous.Descriptor, _ common.ClientConfig) (net.Conn, error) {
	return net.Dial("unix", desc.SocketPath)
}

func (unixTestConnector) UpgradeConnection(net.Conn, common.ClientConfig) error { return nil }

func newTestTransport(t *testing.T, secName string) transport.IClientTransport {
	t.Helper()
	sec, err := security.New(secName)
	require.NoError(t, err)
	return NewBaseClientTransport(unixTestConnector{}, sec)
}

func testConfig(uri string) common.ClientConfig {
	return common.ClientConfig{
		Role:       common.RoleClient,
		Identity:   common.Identity{Namespace: "proc", Rank: 7},
		Security:   "native",
		Serializer: "json",
		Backend:    "hash",
		Transport:  common.ClientTransportConfig{RendezvousURI: uri},
	}
}

// startDaemon listens on a fresh socket and runs handle once per accepted
// connection. The handler runs off the test goroutine, so it must report
// findings over channels instead of failing the test directly.
func startDaemon(t *testing.T, handle func(conn net.Conn)) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "daemon.sock")
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				handle(conn)
			}()
		}
	}()

	return "testjob:3:" + path
}

func writeInt32(conn net.Conn, v int32) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	_, _ = conn.Write(b)
}

// acceptHandshake consumes the connect message, answers with the given
// verdict and, unless the verdict is an error, assigns the peer index. The
// decoded handshake is returned for inspection, nil when decoding failed.
func acceptHandshake(conn net.Conn, verdict common.Status, index int32) *wire.Handshake {
	hdr, payload, err := readFrame(conn)
	if err != nil || hdr.Tag != wire.TagControl {
		return nil
	}
	hs, err := wire.Unmarshal(payload)
	if err != nil {
		return nil
	}

	writeInt32(conn, int32(verdict))
	if verdict != common.StatusSuccess {
		return hs
	}
	writeInt32(conn, index)
	return hs
}

type reply struct {
	status  common.Status
	payload []byte
}

func waitReply(t *testing.T, ch <-chan reply) reply {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reply")
		return reply{}
	}
}

// --------------------------------------------------------------------------
// Connection Establishment
// --------------------------------------------------------------------------

func TestConnectHandshake(t *testing.T) {
	hsCh := make(chan *wire.Handshake, 1)
	uri := startDaemon(t, func(conn net.Conn) {
		hsCh <- acceptHandshake(conn, common.StatusSuccess, 42)
		// keep the session open until the client closes it
		_, _, _ = readFrame(conn)
	})

	tr := newTestTransport(t, "native")
	require.NoError(t, tr.Connect(testConfig(uri)))
	defer tr.Close()

	assert.Equal(t, int32(42), tr.PeerIndex())

	hs := <-hsCh
	require.NotNil(t, hs)
	assert.Equal(t, "proc", hs.Namespace)
	assert.Equal(t, uint32(7), hs.Rank)
	assert.Equal(t, common.ProtocolVersion, hs.Version)
	assert.Empty(t, hs.Credential) // native mechanism sends no credential
	assert.Equal(t, security.Available(), hs.Mechanisms)
	assert.Equal(t, "json", hs.Profile)
	assert.Equal(t, byte(wire.BufferCompact), hs.BufferFlag)
	assert.Equal(t, "hash", hs.Backend)
}

func TestConnectFromEnv(t *testing.T) {
	uri := startDaemon(t, func(conn net.Conn) {
		acceptHandshake(conn, common.StatusSuccess, 1)
		_, _, _ = readFrame(conn)
	})
	t.Setenv(common.EnvServerURI, uri)

	tr := newTestTransport(t, "native")
	require.NoError(t, tr.Connect(testConfig(""))) // no explicit URI, env wins
	defer tr.Close()

	assert.Equal(t, int32(1), tr.PeerIndex())
}

func TestConnectNoURI(t *testing.T) {
	t.Setenv(common.EnvServerURI, "")

	tr := newTestTransport(t, "native")
	err := tr.Connect(testConfig(""))
	assert.ErrorIs(t, err, common.ErrServerNotAvailable)
}

func TestConnectWrongRole(t *testing.T) {
	tr := newTestTransport(t, "native")
	cfg := testConfig("testjob:0:/tmp/unused.sock")
	cfg.Role = common.RoleDaemon
	assert.ErrorIs(t, tr.Connect(cfg), common.ErrNotSupported)
}

func TestConnectRendezvousNotFound(t *testing.T) {
	tr := newTestTransport(t, "native")
	uri := "testjob:0:" + filepath.Join(t.TempDir(), "gone.sock")
	assert.ErrorIs(t, tr.Connect(testConfig(uri)), common.ErrRendezvousNotFound)
}

func TestConnectRejected(t *testing.T) {
	uri := startDaemon(t, func(conn net.Conn) {
		acceptHandshake(conn, common.StatusPermissionDenied, 0)
	})

	tr := newTestTransport(t, "native")
	err := tr.Connect(testConfig(uri))

	var se *common.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, common.StatusPermissionDenied, se.Code)

	// a rejected attempt leaves the transport reusable
	assert.ErrorIs(t, tr.Close(), common.ErrNotConnected)
}

func TestConnectTwice(t *testing.T) {
	uri := startDaemon(t, func(conn net.Conn) {
		acceptHandshake(conn, common.StatusSuccess, 5)
		_, _, _ = readFrame(conn)
	})

	tr := newTestTransport(t, "native")
	require.NoError(t, tr.Connect(testConfig(uri)))
	defer tr.Close()

	assert.ErrorIs(t, tr.Connect(testConfig(uri)), common.ErrAlreadyConnected)
	assert.Equal(t, int32(5), tr.PeerIndex())
}

// --------------------------------------------------------------------------
// Security Handshake
// --------------------------------------------------------------------------

func TestConnectTokenHandshake(t *testing.T) {
	t.Setenv(common.EnvAuthToken, "sesame")

	tokenCh := make(chan string, 1)
	uri := startDaemon(t, func(conn net.Conn) {
		if acceptHandshake(conn, common.StatusReadyForHandshake, 0) == nil {
			return
		}

		// secondary exchange: length-prefixed token, then our verdict
		n, err := readInt32(conn)
		if err != nil {
			return
		}
		token := make([]byte, n)
		if _, err := io.ReadFull(conn, token); err != nil {
			return
		}
		tokenCh <- string(token)
		writeInt32(conn, int32(common.StatusSuccess))
		writeInt32(conn, 9)
		_, _, _ = readFrame(conn)
	})

	tr := newTestTransport(t, "token")
	require.NoError(t, tr.Connect(testConfig(uri)))
	defer tr.Close()

	assert.Equal(t, "sesame", <-tokenCh)
	assert.Equal(t, int32(9), tr.PeerIndex())
}

func TestConnectTokenRejected(t *testing.T) {
	t.Setenv(common.EnvAuthToken, "sesame")

	uri := startDaemon(t, func(conn net.Conn) {
		if acceptHandshake(conn, common.StatusReadyForHandshake, 0) == nil {
			return
		}
		n, err := readInt32(conn)
		if err != nil {
			return
		}
		token := make([]byte, n)
		if _, err := io.ReadFull(conn, token); err != nil {
			return
		}
		writeInt32(conn, int32(common.StatusPermissionDenied))
	})

	tr := newTestTransport(t, "token")
	err := tr.Connect(testConfig(uri))

	var se *common.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, common.StatusPermissionDenied, se.Code)
}

// --------------------------------------------------------------------------
// Data Plane
// --------------------------------------------------------------------------

func TestSendRecvRoundTrip(t *testing.T) {
	uri := startDaemon(t, func(conn net.Conn) {
		if acceptHandshake(conn, common.StatusSuccess, 3) == nil {
			return
		}
		for {
			hdr, payload, err := readFrame(conn)
			if err != nil {
				return
			}
			// echo back under the same tag
			if err := writeFrame(conn, wire.Header{
				PeerIndex:    hdr.PeerIndex,
				Tag:          hdr.Tag,
				PayloadBytes: uint64(len(payload)),
			}, payload); err != nil {
				return
			}
		}
	})

	tr := newTestTransport(t, "native")
	require.NoError(t, tr.Connect(testConfig(uri)))
	defer tr.Close()

	replies := make(chan reply, 2)
	cb := func(status common.Status, payload []byte) {
		replies <- reply{status: status, payload: payload}
	}

	require.NoError(t, tr.SendRecv([]byte("first"), cb))
	require.NoError(t, tr.SendRecv([]byte("second"), cb))

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		r := waitReply(t, replies)
		assert.Equal(t, common.StatusSuccess, r.status)
		got[string(r.payload)] = true
	}
	assert.True(t, got["first"])
	assert.True(t, got["second"])
}

func TestSendOrdering(t *testing.T) {
	frames := make(chan string, 4)
	uri := startDaemon(t, func(conn net.Conn) {
		if acceptHandshake(conn, common.StatusSuccess, 3) == nil {
			return
		}
		for {
			_, payload, err := readFrame(conn)
			if err != nil {
				return
			}
			frames <- string(payload)
		}
	})

	tr := newTestTransport(t, "native")
	require.NoError(t, tr.Connect(testConfig(uri)))
	defer tr.Close()

	// both submitted from one goroutine, so the wire order must hold
	require.NoError(t, tr.Send([]byte("one"), 100))
	require.NoError(t, tr.Send([]byte("two"), 101))

	assert.Equal(t, "one", <-frames)
	assert.Equal(t, "two", <-frames)
}

func TestRecvHandler(t *testing.T) {
	const notifyTag = 77

	uri := startDaemon(t, func(conn net.Conn) {
		if acceptHandshake(conn, common.StatusSuccess, 3) == nil {
			return
		}
		// daemon-initiated message on a tag the client never sent
		_ = writeFrame(conn, wire.Header{
			PeerIndex:    3,
			Tag:          notifyTag,
			PayloadBytes: uint64(len("wakeup")),
		}, []byte("wakeup"))
		_, _, _ = readFrame(conn)
	})

	tr := newTestTransport(t, "native")
	require.NoError(t, tr.Connect(testConfig(uri)))
	defer tr.Close()

	notifies := make(chan reply, 1)
	tr.RegisterRecvHandler(notifyTag, func(tag uint32, payload []byte) {
		notifies <- reply{status: common.Status(tag), payload: payload}
	})

	r := waitReply(t, notifies)
	assert.Equal(t, common.Status(notifyTag), r.status)
	assert.Equal(t, "wakeup", string(r.payload))
}

func TestRecvHandlerBeforeConnect(t *testing.T) {
	const notifyTag = 1

	uri := startDaemon(t, func(conn net.Conn) {
		if acceptHandshake(conn, common.StatusSuccess, 3) == nil {
			return
		}
		_ = writeFrame(conn, wire.Header{
			PeerIndex:    3,
			Tag:          notifyTag,
			PayloadBytes: uint64(len("early")),
		}, []byte("early"))
		_, _, _ = readFrame(conn)
	})

	tr := newTestTransport(t, "native")

	// registration precedes the connection and must survive it
	notifies := make(chan reply, 1)
	tr.RegisterRecvHandler(notifyTag, func(tag uint32, payload []byte) {
		notifies <- reply{payload: payload}
	})

	require.NoError(t, tr.Connect(testConfig(uri)))
	defer tr.Close()

	r := waitReply(t, notifies)
	assert.Equal(t, "early", string(r.payload))
}

// A daemon-initiated message on a well-known low tag must reach its
// registered handler even while a request is waiting for its reply, so
// the request tags the transport generates may never collide with the
// well-known range.
func TestEventDuringPendingSendRecv(t *testing.T) {
	const eventTag = 2

	reqTags := make(chan uint32, 1)
	uri := startDaemon(t, func(conn net.Conn) {
		if acceptHandshake(conn, common.StatusSuccess, 3) == nil {
			return
		}
		// hold the request, slip an event in first, then answer the
		// request under its own tag
		hdr, payload, err := readFrame(conn)
		if err != nil {
			return
		}
		reqTags <- hdr.Tag
		_ = writeFrame(conn, wire.Header{
			PeerIndex:    3,
			Tag:          eventTag,
			PayloadBytes: uint64(len("event")),
		}, []byte("event"))
		_ = writeFrame(conn, wire.Header{
			PeerIndex:    3,
			Tag:          hdr.Tag,
			PayloadBytes: uint64(len(payload)),
		}, payload)
		_, _, _ = readFrame(conn)
	})

	tr := newTestTransport(t, "native")
	require.NoError(t, tr.Connect(testConfig(uri)))
	defer tr.Close()

	events := make(chan reply, 1)
	tr.RegisterRecvHandler(eventTag, func(tag uint32, payload []byte) {
		events <- reply{status: common.Status(tag), payload: payload}
	})

	replies := make(chan reply, 1)
	require.NoError(t, tr.SendRecv([]byte("request"), func(status common.Status, payload []byte) {
		replies <- reply{status: status, payload: payload}
	}))

	// the generated tag stays out of the well-known range
	assert.GreaterOrEqual(t, <-reqTags, wire.TagDynamicBase)

	ev := waitReply(t, events)
	assert.Equal(t, common.Status(eventTag), ev.status)
	assert.Equal(t, "event", string(ev.payload))

	r := waitReply(t, replies)
	assert.Equal(t, common.StatusSuccess, r.status)
	assert.Equal(t, "request", string(r.payload))
}

func TestDynamicTagsAvoidReservedRanges(t *testing.T) {
	p := newPeer(common.Identity{Namespace: "proc", Rank: 7}, nil)

	// fresh peers start above the well-known tag range
	assert.GreaterOrEqual(t, p.nextDynamicTag(), wire.TagDynamicBase)

	// the control tag is skipped
	p.nextTag.Store(wire.TagControl - 1)
	assert.Equal(t, wire.TagDynamicBase+1, p.nextDynamicTag())

	// a full wraparound lands back in the dynamic range, never on a
	// well-known tag
	p.nextTag.Store(wire.TagControl)
	assert.Equal(t, wire.TagDynamicBase+1, p.nextDynamicTag())
}

func TestSendBeforeConnect(t *testing.T) {
	tr := newTestTransport(t, "native")
	assert.ErrorIs(t, tr.Send([]byte("x"), 1), common.ErrNotConnected)
	assert.ErrorIs(t, tr.SendRecv([]byte("x"), func(common.Status, []byte) {}), common.ErrNotConnected)
	assert.ErrorIs(t, tr.Close(), common.ErrNotConnected)
}

// --------------------------------------------------------------------------
// Teardown
// --------------------------------------------------------------------------

func TestClosePendingFailsOnce(t *testing.T) {
	received := make(chan struct{}, 1)
	uri := startDaemon(t, func(conn net.Conn) {
		if acceptHandshake(conn, common.StatusSuccess, 3) == nil {
			return
		}
		// swallow the request without ever answering it
		if _, _, err := readFrame(conn); err == nil {
			received <- struct{}{}
		}
		_, _, _ = readFrame(conn)
	})

	tr := newTestTransport(t, "native")
	require.NoError(t, tr.Connect(testConfig(uri)))

	var calls atomic.Int32
	replies := make(chan reply, 2)
	require.NoError(t, tr.SendRecv([]byte("hello?"), func(status common.Status, payload []byte) {
		calls.Add(1)
		replies <- reply{status: status, payload: payload}
	}))

	// wait until the request is on the wire, then tear the session down
	select {
	case <-received:
	case <-time.After(3 * time.Second):
		t.Fatal("daemon never saw the request")
	}
	require.NoError(t, tr.Close())

	r := waitReply(t, replies)
	assert.Equal(t, common.StatusUnreachable, r.status)
	assert.Nil(t, r.payload)
	assert.Equal(t, int32(1), calls.Load())

	// the session is gone for good
	assert.ErrorIs(t, tr.Send([]byte("x"), 1), common.ErrNotConnected)
}

func TestConnectionDropFailsPending(t *testing.T) {
	received := make(chan struct{}, 1)
	uri := startDaemon(t, func(conn net.Conn) {
		if acceptHandshake(conn, common.StatusSuccess, 3) == nil {
			return
		}
		if _, _, err := readFrame(conn); err == nil {
			received <- struct{}{}
		}
		// returning closes the connection under the client
	})

	tr := newTestTransport(t, "native")
	require.NoError(t, tr.Connect(testConfig(uri)))

	replies := make(chan reply, 1)
	require.NoError(t, tr.SendRecv([]byte("doomed"), func(status common.Status, payload []byte) {
		replies <- reply{status: status, payload: payload}
	}))

	select {
	case <-received:
	case <-time.After(3 * time.Second):
		t.Fatal("daemon never saw the request")
	}

	r := waitReply(t, replies)
	assert.Equal(t, common.StatusUnreachable, r.status)
}
