package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coder/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrUnknownCodec = errors.New("ws: unknown codec")
	ErrNoPayload    = errors.New("ws: message has no payload")
)

// Codec frames envelopes on the wire. Decode keeps the payload raw so the
// receiver can unmarshal it once the message type is known.
type Codec interface {
	Name() string
	FrameType() websocket.MessageType
	Encode(msg Message) ([]byte, error)
	Decode(data []byte) (Message, error)
	Unmarshal(raw []byte, v any) error
}

var (
	JSON    Codec = jsonCodec{}
	Msgpack Codec = msgpackCodec{}
)

// CodecByName resolves the ?enc= query value. Empty means JSON.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSON, nil
	case "msgpack":
		return Msgpack, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}

type outEnvelope struct {
	Type    uint8  `json:"type" msgpack:"type"`
	Tick    uint64 `json:"tick" msgpack:"tick"`
	Payload any    `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

type jsonCodec struct{}

type jsonEnvelope struct {
	Type    uint8           `json:"type"`
	Tick    uint64          `json:"tick"`
	Payload json.RawMessage `json:"payload"`
}

func (jsonCodec) Name() string                     { return "json" }
func (jsonCodec) FrameType() websocket.MessageType { return websocket.MessageText }

func (jsonCodec) Encode(msg Message) ([]byte, error) {
	data, err := json.Marshal(outEnvelope{Type: msg.Type, Tick: msg.Tick, Payload: msg.Payload})
	if err != nil {
		return nil, fmt.Errorf("json encode type 0x%02x: %w", msg.Type, err)
	}
	return data, nil
}

func (c jsonCodec) Decode(data []byte) (Message, error) {
	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("json decode: %w", err)
	}
	return Message{Type: env.Type, Tick: env.Tick, raw: env.Payload, codec: c}, nil
}

func (jsonCodec) Unmarshal(raw []byte, v any) error {
	return json.Unmarshal(raw, v)
}

type msgpackCodec struct{}

type msgpackEnvelope struct {
	Type    uint8              `msgpack:"type"`
	Tick    uint64             `msgpack:"tick"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

func (msgpackCodec) Name() string                     { return "msgpack" }
func (msgpackCodec) FrameType() websocket.MessageType { return websocket.MessageBinary }

func (msgpackCodec) Encode(msg Message) ([]byte, error) {
	data, err := msgpack.Marshal(outEnvelope{Type: msg.Type, Tick: msg.Tick, Payload: msg.Payload})
	if err != nil {
		return nil, fmt.Errorf("msgpack encode type 0x%02x: %w", msg.Type, err)
	}
	return data, nil
}

func (c msgpackCodec) Decode(data []byte) (Message, error) {
	var env msgpackEnvelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("msgpack decode: %w", err)
	}
	return Message{Type: env.Type, Tick: env.Tick, raw: env.Payload, codec: c}, nil
}

func (msgpackCodec) Unmarshal(raw []byte, v any) error {
	return msgpack.Unmarshal(raw, v)
}
