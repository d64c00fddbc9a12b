// Package codec provides tests for frame encoding/decoding
package codec

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/weftworks/loom/core"
)

type ping struct {
	Seq int `json:"seq"`
}

func (*ping) Kind() string { return "demo.ping" }

type alert struct {
	Text string `json:"text"`
}

func (*alert) Kind() string  { return "demo.alert" }
func (*alert) Priority() int { return 1 }

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	r.MustRegister("demo.ping", func() core.Message { return &ping{} })
	r.MustRegister("demo.alert", func() core.Message { return &alert{} })
	return r
}

func TestFrame(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		f := &Frame{
			Flags:   FrameFlagCompressed,
			Kind:    "demo.ping",
			Payload: []byte(`{"seq":7}`),
		}
		buf, err := f.Encode()
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if len(buf) != f.Size() {
			t.Errorf("Expected %d bytes, got %d", f.Size(), len(buf))
		}

		decoded, err := DecodeFrame(buf)
		if err != nil {
			t.Fatalf("DecodeFrame failed: %v", err)
		}
		if decoded.Flags != f.Flags {
			t.Errorf("Expected flags %v, got %v", f.Flags, decoded.Flags)
		}
		if decoded.Kind != f.Kind {
			t.Errorf("Expected kind %s, got %s", f.Kind, decoded.Kind)
		}
		if !bytes.Equal(decoded.Payload, f.Payload) {
			t.Errorf("Payload mismatch: %s", decoded.Payload)
		}
	})

	t.Run("EmptyKind", func(t *testing.T) {
		f := &Frame{Payload: []byte("x")}
		if _, err := f.Encode(); err == nil {
			t.Error("Expected error for empty kind")
		}
	})

	t.Run("KindTooLong", func(t *testing.T) {
		f := &Frame{Kind: strings.Repeat("k", MaxKindSize+1)}
		if _, err := f.Encode(); err == nil {
			t.Error("Expected error for oversized kind")
		}
	})

	t.Run("BadMagic", func(t *testing.T) {
		f := &Frame{Kind: "demo.ping"}
		buf, err := f.Encode()
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		buf[0] = 0xFF
		if _, err := DecodeFrame(buf); err == nil {
			t.Error("Expected error for bad magic")
		}
	})

	t.Run("TruncatedBody", func(t *testing.T) {
		f := &Frame{Kind: "demo.ping", Payload: []byte("payload")}
		buf, err := f.Encode()
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if _, err := DecodeFrame(buf[:len(buf)-3]); err == nil {
			t.Error("Expected error for truncated body")
		}
	})
}

func TestRegistry(t *testing.T) {
	r := testRegistry(t)

	t.Run("New", func(t *testing.T) {
		msg, err := r.New("demo.ping")
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if _, ok := msg.(*ping); !ok {
			t.Errorf("Expected *ping, got %T", msg)
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		if _, err := r.New("demo.missing"); err == nil {
			t.Error("Expected error for unknown kind")
		}
	})

	t.Run("Duplicate", func(t *testing.T) {
		err := r.Register("demo.ping", func() core.Message { return &ping{} })
		if err == nil {
			t.Error("Expected error for duplicate registration")
		}
	})

	t.Run("Kinds", func(t *testing.T) {
		kinds := r.Kinds()
		if len(kinds) != 2 || kinds[0] != "demo.alert" || kinds[1] != "demo.ping" {
			t.Errorf("Unexpected kinds: %v", kinds)
		}
	})
}

func TestCodec(t *testing.T) {
	c := New(testRegistry(t), nil)

	t.Run("RoundTrip", func(t *testing.T) {
		buf, err := c.Encode(&ping{Seq: 42})
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		msg, err := c.Decode(buf)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		p, ok := msg.(*ping)
		if !ok {
			t.Fatalf("Expected *ping, got %T", msg)
		}
		if p.Seq != 42 {
			t.Errorf("Expected seq 42, got %d", p.Seq)
		}
	})

	t.Run("PriorityFlag", func(t *testing.T) {
		buf, err := c.Encode(&alert{Text: "fire"})
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		f, err := DecodeFrame(buf)
		if err != nil {
			t.Fatalf("DecodeFrame failed: %v", err)
		}
		if f.Flags&FrameFlagPriority == 0 {
			t.Error("Expected priority flag for prioritized message")
		}
	})

	t.Run("UnregisteredKind", func(t *testing.T) {
		other := New(NewRegistry(), nil)
		if _, err := other.Encode(&ping{}); err == nil {
			t.Error("Expected error for unregistered kind")
		}
	})

	t.Run("Stream", func(t *testing.T) {
		var buf bytes.Buffer
		msgs := []core.Message{&ping{Seq: 1}, &alert{Text: "hi"}, &ping{Seq: 2}}
		for _, m := range msgs {
			if err := c.WriteMessage(&buf, m); err != nil {
				t.Fatalf("WriteMessage failed: %v", err)
			}
		}

		var got []core.Message
		for {
			m, err := c.ReadMessage(&buf)
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("ReadMessage failed: %v", err)
			}
			got = append(got, m)
		}
		if len(got) != 3 {
			t.Fatalf("Expected 3 messages, got %d", len(got))
		}
		if got[1].(*alert).Text != "hi" {
			t.Errorf("Unexpected middle message: %+v", got[1])
		}
		if got[2].(*ping).Seq != 2 {
			t.Errorf("Unexpected last message: %+v", got[2])
		}
	})
}
