package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/weftworks/loom/core"
)

// PayloadCodec handles payload encoding and decoding.
type PayloadCodec interface {
	// Marshal encodes a message payload to bytes.
	Marshal(msg core.Message) ([]byte, error)

	// Unmarshal decodes bytes into a message. msg must be a pointer
	// produced by a registry factory.
	Unmarshal(data []byte, msg core.Message) error

	// Name identifies the payload encoding.
	Name() string
}

// JSONCodec implements PayloadCodec using encoding/json.
type JSONCodec struct{}

// NewJSONCodec creates a new JSON payload codec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Marshal encodes a message payload to JSON.
func (c *JSONCodec) Marshal(msg core.Message) ([]byte, error) {
	return json.Marshal(msg)
}

// Unmarshal decodes JSON into a message.
func (c *JSONCodec) Unmarshal(data []byte, msg core.Message) error {
	return json.Unmarshal(data, msg)
}

// Name returns "json".
func (c *JSONCodec) Name() string {
	return "json"
}

// Codec combines a registry with a payload codec to move whole messages
// across a byte boundary.
type Codec struct {
	registry *Registry
	payload  PayloadCodec
}

// New creates a codec. A nil payload codec defaults to JSON.
func New(registry *Registry, payload PayloadCodec) *Codec {
	if payload == nil {
		payload = NewJSONCodec()
	}
	return &Codec{
		registry: registry,
		payload:  payload,
	}
}

// Registry returns the codec's type registry.
func (c *Codec) Registry() *Registry {
	return c.registry
}

// Encode encodes a message into a complete frame.
func (c *Codec) Encode(msg core.Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("message is nil")
	}
	kind := msg.Kind()
	if !c.registry.Known(kind) {
		return nil, fmt.Errorf("cannot encode unregistered kind: %q", kind)
	}

	payload, err := c.payload.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %q payload: %w", kind, err)
	}

	f := &Frame{Kind: kind, Payload: payload}
	if _, ok := msg.(core.Prioritized); ok {
		f.Flags |= FrameFlagPriority
	}
	return f.Encode()
}

// Decode decodes a complete frame into a message.
func (c *Codec) Decode(data []byte) (core.Message, error) {
	f, err := DecodeFrame(data)
	if err != nil {
		return nil, err
	}
	return c.decodeFrame(f)
}

// WriteMessage encodes msg and writes it as one frame to w.
func (c *Codec) WriteMessage(w io.Writer, msg core.Message) error {
	buf, err := c.Encode(msg)
	if err != nil {
		return err
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// ReadMessage reads one frame from r and decodes it.
func (c *Codec) ReadMessage(r io.Reader) (core.Message, error) {
	f, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return c.decodeFrame(f)
}

func (c *Codec) decodeFrame(f *Frame) (core.Message, error) {
	msg, err := c.registry.New(f.Kind)
	if err != nil {
		return nil, err
	}
	if err := c.payload.Unmarshal(f.Payload, msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %q payload: %w", f.Kind, err)
	}
	return msg, nil
}
