package serializer

import (
	"reflect"
	"testing"

	"github.com/ValentinKolb/dIPC/ipc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() ISerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Ping request
		{
			MsgType: common.MsgTPing,
			Sender:  "myjob:3",
			Payload: []byte("ping-payload"),
		},

		// Ping response
		{
			MsgType: common.MsgTPing,
			Payload: []byte("ping-payload"),
			Ok:      true,
		},

		// Error response
		{
			MsgType: common.MsgTError,
			Err:     "test error message",
		},

		// Message with all fields filled
		{
			MsgType: common.MsgTInfo,
			Sender:  "myjob:0",
			Payload: []byte("info-data"),
			Ok:      true,
			Err:     "",
			Meta:    []byte("test-meta-data"),
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestDeserializeGarbage tests that deserializing truncated input fails
// instead of panicking
func TestDeserializeGarbage(t *testing.T) {
	serializer := NewBinarySerializer()

	for _, data := range [][]byte{
		nil,
		{},
		{byte(common.MsgTPing)},
		{byte(common.MsgTPing), hasSender},
		{byte(common.MsgTPing), hasPayload, 0xFF, 0xFF, 0xFF, 0xFF},
	} {
		var msg common.Message
		if err := serializer.Deserialize(data, &msg); err == nil {
			t.Errorf("expected error for input %v", data)
		}
	}
}
