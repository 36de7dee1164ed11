package rendezvous

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ValentinKolb/dIPC/ipc/common"
	"github.com/lni/dragonboat/v4/logger"
	"golang.org/x/sys/unix"
)

var Logger = logger.GetLogger("ipc/rendezvous")

// Descriptor is the parsed form of a rendezvous URI. It is consumed once
// per connection attempt; only the namespace and rank outlive establishment
// (they become the daemon peer's identity).
type Descriptor struct {
	// Namespace the daemon was launched under
	Namespace string
	// Rank of the daemon within its namespace
	Rank uint32
	// SocketPath is the address the daemon listens on. For the default
	// unix medium this is a filesystem path; other media interpret it
	// their own way.
	SocketPath string
}

// String returns the descriptor in its URI form.
func (d *Descriptor) String() string {
	return fmt.Sprintf("%s:%d:%s", d.Namespace, d.Rank, d.SocketPath)
}

// Parse splits a rendezvous URI of the form <namespace>:<rank>:<path> into
// a Descriptor. The URI must contain exactly three non-empty fields.
//
// The rank field is parsed permissively: non-numeric text yields rank 0
// rather than an error. Daemons in the wild publish ranks this module has
// no business second-guessing, so the lenient legacy behavior is kept.
func Parse(uri string) (*Descriptor, error) {
	fields := strings.Split(uri, ":")
	if len(fields) != 3 {
		return nil, fmt.Errorf("%w: expected 3 fields, got %d", common.ErrMalformedURI, len(fields))
	}
	for _, f := range fields {
		if f == "" {
			return nil, fmt.Errorf("%w: empty field in %q", common.ErrMalformedURI, uri)
		}
	}

	rank, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		Logger.Warningf("non-numeric rank %q in rendezvous URI, using 0", fields[1])
		rank = 0
	}

	return &Descriptor{
		Namespace:  fields[0],
		Rank:       uint32(rank),
		SocketPath: fields[2],
	}, nil
}

// CheckPath verifies that the rendezvous path exists and is readable by
// this process. It performs no other side effects: the connection itself
// is opened by the transport.
func (d *Descriptor) CheckPath() error {
	// access(2) instead of open(2): the rendezvous point is usually a
	// socket file, which cannot be opened like a regular file.
	if err := unix.Access(d.SocketPath, unix.R_OK); err != nil {
		return fmt.Errorf("%w: %s", common.ErrRendezvousNotFound, d.SocketPath)
	}
	return nil
}

// Resolve parses the URI and verifies its rendezvous path (see CheckPath).
func Resolve(uri string) (*Descriptor, error) {
	desc, err := Parse(uri)
	if err != nil {
		return nil, err
	}
	if err := desc.CheckPath(); err != nil {
		return nil, err
	}
	return desc, nil
}

// URIFromEnv returns the rendezvous URI published by the launching daemon
// under common.EnvServerURI. A missing variable means no daemon is
// available to this process.
func URIFromEnv() (string, error) {
	uri, ok := os.LookupEnv(common.EnvServerURI)
	if !ok || uri == "" {
		return "", common.ErrServerNotAvailable
	}
	return uri, nil
}

// FromEnv resolves the environment-published URI in one step.
func FromEnv() (*Descriptor, error) {
	uri, err := URIFromEnv()
	if err != nil {
		return nil, err
	}
	return Resolve(uri)
}
