package ws

// Client -> Server message types
const (
	MsgPointer uint8 = 0x01
	MsgResize  uint8 = 0x02
	MsgReset   uint8 = 0x03
	MsgPing    uint8 = 0x04
	MsgRestart uint8 = 0x05
)

// Server -> Client message types
const (
	MsgFrame        uint8 = 0x81
	MsgSessionStart uint8 = 0x82
	MsgGameOver     uint8 = 0x83
	MsgOutcome      uint8 = 0x84
	MsgPong         uint8 = 0x86
)

// Message is the {type, tick, payload} envelope. Outbound messages carry
// a Go value in Payload; decoded messages keep the payload raw until
// Decode is called with the right target type.
type Message struct {
	Type    uint8
	Tick    uint64
	Payload any

	raw   []byte
	codec Codec
}

func NewMessage(typ uint8, tick uint64, payload any) Message {
	return Message{Type: typ, Tick: tick, Payload: payload}
}

// Decode unmarshals the raw payload with the codec it arrived on.
func (m Message) Decode(v any) error {
	if m.codec == nil || len(m.raw) == 0 {
		return ErrNoPayload
	}
	return m.codec.Unmarshal(m.raw, v)
}

// PointerPayload is one pointer event. T is the client timestamp in ms.
type PointerPayload struct {
	Phase string  `json:"phase" msgpack:"phase"`
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	T     float64 `json:"t" msgpack:"t"`
}

type ResizePayload struct {
	Width  float64 `json:"width" msgpack:"width"`
	Height float64 `json:"height" msgpack:"height"`
}

type PingPayload struct {
	ClientTime uint64 `json:"clientTime" msgpack:"clientTime"`
}

type PongPayload struct {
	ClientTime uint64 `json:"clientTime" msgpack:"clientTime"`
	ServerTime uint64 `json:"serverTime" msgpack:"serverTime"`
}

type SessionStartPayload struct {
	SessionID string  `json:"sessionId" msgpack:"sessionId"`
	Name      string  `json:"name" msgpack:"name"`
	Codec     string  `json:"codec" msgpack:"codec"`
	MaxBalls  int     `json:"maxBalls" msgpack:"maxBalls"`
	TickRate  int     `json:"tickRate" msgpack:"tickRate"`
	Width     float64 `json:"width" msgpack:"width"`
	Height    float64 `json:"height" msgpack:"height"`
}
