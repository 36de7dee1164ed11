package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message is the envelope exchanged above the transport once a connection
// is established. The transport itself only ever sees the serialized bytes;
// which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Sender  string `json:"sender,omitempty"`  // identity string of the sending process
	Payload []byte `json:"payload,omitempty"` // opaque application payload

	// Response only fields
	Ok  bool   `json:"ok,omitempty"`  // Used for: Ping, Info responses
	Err string `json:"err,omitempty"` // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Unused, can be used for additional adapters
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewPingRequest creates a new Ping request
func NewPingRequest(sender Identity, payload []byte) *Message {
	return &Message{
		MsgType: MsgTPing,
		Sender:  sender.String(),
		Payload: payload,
	}
}

// NewPingResponse creates a new Ping response echoing the request payload
func NewPingResponse(payload []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTPing,
		Payload: payload,
		Ok:      err == nil,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewNotify creates a new fire-and-forget notification
func NewNotify(sender Identity, payload []byte) *Message {
	return &Message{
		MsgType: MsgTNotify,
		Sender:  sender.String(),
		Payload: payload,
	}
}

// NewInfoRequest creates a new Info request
func NewInfoRequest(sender Identity) *Message {
	return &Message{
		MsgType: MsgTInfo,
		Sender:  sender.String(),
	}
}

// NewInfoResponse creates a new Info response
func NewInfoResponse(payload []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTInfo,
		Payload: payload,
		Ok:      err == nil,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewCustomRequest creates a new Custom request
func NewCustomRequest(meta []byte) *Message {
	return &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message exchanged with the daemon.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTPing:
		return "ping"
	case MsgTNotify:
		return "notify"
	case MsgTInfo:
		return "info"
	case MsgTCustom:
		return "custom"
	case MsgTError:
		return "error"
	case MsgTSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "ping":
		*t = MsgTPing
	case "notify":
		*t = MsgTNotify
	case "info":
		*t = MsgTInfo
	case "custom":
		*t = MsgTCustom
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// Daemon operations

	MsgTPing   // Round-trip liveness check
	MsgTNotify // Fire-and-forget notification
	MsgTInfo   // Query daemon information

	// Custom operations

	MsgTCustom // Custom operation type
)
