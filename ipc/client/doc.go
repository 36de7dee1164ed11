// Package client implements the high-level daemon session. It layers
// synchronous, typed operations on top of the asynchronous transport and
// the pluggable message serialization.
//
// The package focuses on:
//   - Synchronous request/reply calls over the transport's callback model
//   - Message serialization and reply validation
//   - Conversion between daemon status codes and Go errors
//
// Key Components:
//
//   - NewClient: Factory function that connects the given transport and
//     returns a ready session.
//
//   - Ping / Info / Notify: The typed daemon operations. Call is the escape
//     hatch for daemon-specific message types.
//
//   - OnEvent: Registers a handler for daemon-initiated event messages.
//
// Usage Example:
//
//	cfg := common.ClientConfig{
//		Role:       common.RoleClient,
//		Identity:   common.Identity{Namespace: "myjob", Rank: 0},
//		Security:   "native",
//		Serializer: "binary",
//	}
//
//	sec, _ := security.New(cfg.Security)
//	c, err := client.NewClient(cfg, unix.NewUnixClientTransport(sec), serializer.NewBinarySerializer())
//	if err != nil {
//		// no daemon reachable
//	}
//	defer c.Close()
//
//	_ = c.Ping([]byte("hello"))
//
// Thread Safety:
//
//	All methods are safe for concurrent use from multiple goroutines.
package client
