// Package codec provides the wire boundary for actor messages.
//
// In-process delivery passes messages by value and never touches this
// package; the frame format exists so message types registered here can
// cross a byte boundary (files, sockets, test harnesses) without the
// runtime assuming anything about transport.
package codec

import (
	"encoding/binary"
	"fmt"
	"io"
)

// FrameFlag carries per-frame options.
type FrameFlag uint16

const (
	FrameFlagNone       FrameFlag = 0
	FrameFlagCompressed FrameFlag = 1 << 0
	FrameFlagPriority   FrameFlag = 1 << 1
)

// Constants for frame serialization
const (
	// FrameMagic identifies a frame; "LOOM" big-endian.
	FrameMagic uint32 = 0x4C4F4F4D

	// FrameVersion is the current frame format version.
	FrameVersion uint16 = 1

	// FrameHeaderSize is the fixed size of the frame header in bytes.
	FrameHeaderSize = 24

	// MaxKindSize is the maximum allowed kind string length.
	MaxKindSize = 255

	// MaxPayloadSize is the maximum allowed payload size.
	MaxPayloadSize = 16 * 1024 * 1024 // 16MB
)

// Frame is one encoded message: a tagged variant identified by its kind
// string plus an opaque payload.
type Frame struct {
	Flags   FrameFlag
	Kind    string
	Payload []byte
}

// Size returns the total encoded size of the frame in bytes.
func (f *Frame) Size() int {
	return FrameHeaderSize + len(f.Kind) + len(f.Payload)
}

// Encode encodes the frame to binary format.
//
// Header layout, big-endian:
//
//	magic(4) version(2) flags(2) kindLen(4) payloadLen(4) reserved(8)
func (f *Frame) Encode() ([]byte, error) {
	if len(f.Kind) == 0 {
		return nil, fmt.Errorf("frame kind is empty")
	}
	if len(f.Kind) > MaxKindSize {
		return nil, fmt.Errorf("frame kind too long: %d bytes (max %d)", len(f.Kind), MaxKindSize)
	}
	if len(f.Payload) > MaxPayloadSize {
		return nil, fmt.Errorf("frame payload too large: %d bytes (max %d)", len(f.Payload), MaxPayloadSize)
	}

	buf := make([]byte, f.Size())
	binary.BigEndian.PutUint32(buf[0:4], FrameMagic)
	binary.BigEndian.PutUint16(buf[4:6], FrameVersion)
	binary.BigEndian.PutUint16(buf[6:8], uint16(f.Flags))
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(f.Kind)))
	binary.BigEndian.PutUint32(buf[12:16], uint32(len(f.Payload)))
	// buf[16:24] reserved, zero

	copy(buf[FrameHeaderSize:], f.Kind)
	copy(buf[FrameHeaderSize+len(f.Kind):], f.Payload)
	return buf, nil
}

// DecodeFrame decodes binary data into a frame. The payload is copied,
// so the input buffer may be reused.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, fmt.Errorf("data too short for frame header: %d bytes", len(data))
	}

	if magic := binary.BigEndian.Uint32(data[0:4]); magic != FrameMagic {
		return nil, fmt.Errorf("bad frame magic: 0x%08X", magic)
	}
	if version := binary.BigEndian.Uint16(data[4:6]); version != FrameVersion {
		return nil, fmt.Errorf("unsupported frame version: %d", version)
	}

	flags := FrameFlag(binary.BigEndian.Uint16(data[6:8]))
	kindLen := binary.BigEndian.Uint32(data[8:12])
	payloadLen := binary.BigEndian.Uint32(data[12:16])

	if kindLen == 0 || kindLen > MaxKindSize {
		return nil, fmt.Errorf("bad frame kind length: %d", kindLen)
	}
	if payloadLen > MaxPayloadSize {
		return nil, fmt.Errorf("frame payload too large: %d bytes (max %d)", payloadLen, MaxPayloadSize)
	}

	total := FrameHeaderSize + int(kindLen) + int(payloadLen)
	if len(data) < total {
		return nil, fmt.Errorf("data too short for frame body: %d bytes (need %d)", len(data), total)
	}

	kindEnd := FrameHeaderSize + int(kindLen)
	f := &Frame{
		Flags: flags,
		Kind:  string(data[FrameHeaderSize:kindEnd]),
	}
	if payloadLen > 0 {
		f.Payload = make([]byte, payloadLen)
		copy(f.Payload, data[kindEnd:total])
	}
	return f, nil
}

// WriteFrame writes one encoded frame to w.
func WriteFrame(w io.Writer, f *Frame) error {
	buf, err := f.Encode()
	if err != nil {
		return err
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// ReadFrame reads one frame from r. It returns io.EOF only when no
// bytes were read, so callers can loop until a clean end of stream.
func ReadFrame(r io.Reader) (*Frame, error) {
	header := make([]byte, FrameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read frame header: %w", err)
	}

	if magic := binary.BigEndian.Uint32(header[0:4]); magic != FrameMagic {
		return nil, fmt.Errorf("bad frame magic: 0x%08X", magic)
	}
	kindLen := binary.BigEndian.Uint32(header[8:12])
	payloadLen := binary.BigEndian.Uint32(header[12:16])
	if kindLen == 0 || kindLen > MaxKindSize {
		return nil, fmt.Errorf("bad frame kind length: %d", kindLen)
	}
	if payloadLen > MaxPayloadSize {
		return nil, fmt.Errorf("frame payload too large: %d bytes (max %d)", payloadLen, MaxPayloadSize)
	}

	body := make([]byte, int(kindLen)+int(payloadLen))
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("failed to read frame body: %w", err)
	}

	full := make([]byte, 0, FrameHeaderSize+len(body))
	full = append(full, header...)
	full = append(full, body...)
	return DecodeFrame(full)
}
