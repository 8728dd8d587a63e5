package mcmonitor

import (
	"errors"
	"fmt"

	"github.com/albertgustavsson/mcmonitor/packets"
)

type frameState uint8

const (
	awaitingLength frameState = iota
	awaitingBody
	frameComplete
	frameFailed
)

func (s frameState) String() string {
	switch s {
	case awaitingLength:
		return "awaiting length"
	case awaitingBody:
		return "awaiting body"
	case frameComplete:
		return "complete"
	case frameFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// frameAssembler reassembles one length-prefixed packet from stream chunks
// of any size. The zero value is ready to use.
type frameAssembler struct {
	state    frameState
	buf      []byte
	expected int
	pooled   bool
	err      error
}

// step appends chunk and reports whether the frame is complete. chunk is
// copied, so callers may reuse it.
func (f *frameAssembler) step(chunk []byte) (bool, error) {
	switch f.state {
	case frameFailed:
		return false, f.err
	case frameComplete:
		return false, f.fail(&ProtocolError{Reason: fmt.Sprintf("%d bytes after complete frame", len(chunk))})
	case awaitingLength:
		f.buf = append(f.buf, chunk...)
		length, rest, err := packets.DecodeVarInt(f.buf)
		if errors.Is(err, packets.ErrInsufficientData) {
			return false, nil
		}
		if err != nil {
			return false, f.fail(&DecodeError{Field: "packet length", Err: err})
		}
		if length < 1 || length > packets.MaxPacketSize {
			return false, f.fail(&ProtocolError{Reason: fmt.Sprintf("invalid packet length %d", length)})
		}
		if len(rest) > int(length) {
			return false, f.fail(overrun(len(rest), int(length)))
		}
		f.expected = int(length)
		body := packets.BufferPool.Get(f.expected)
		f.buf = body[:copy(body, rest)]
		f.pooled = true
		f.state = awaitingBody
	case awaitingBody:
		if len(f.buf)+len(chunk) > f.expected {
			return false, f.fail(overrun(len(f.buf)+len(chunk), f.expected))
		}
		f.buf = append(f.buf, chunk...)
	}

	if len(f.buf) < f.expected {
		return false, nil
	}
	f.state = frameComplete
	return true, nil
}

func overrun(received, expected int) error {
	return &ProtocolError{Reason: fmt.Sprintf("received %d bytes for a %d byte packet", received, expected)}
}

func (f *frameAssembler) fail(err error) error {
	f.state = frameFailed
	f.err = err
	return err
}

// body is the complete packet body, id included. Valid until release.
func (f *frameAssembler) body() []byte {
	if f.state != frameComplete {
		return nil
	}
	return f.buf
}

func (f *frameAssembler) release() {
	if f.pooled {
		packets.BufferPool.Put(f.buf[:cap(f.buf)])
		f.pooled = false
	}
	f.buf = nil
}

// parseStatusResponse decodes a complete status response body.
func parseStatusResponse(body []byte) (*packets.ServerStatus, error) {
	id, rest, err := packets.DecodeVarInt(body)
	if err != nil {
		return nil, &DecodeError{Field: "packet id", Err: err}
	}
	if id != 0x00 {
		return nil, &ProtocolError{
			Reason: fmt.Sprintf("expected packet id 0, received %d", id),
			Err:    packets.ErrUnexpectedPacket{ID: id},
		}
	}
	length, rest, err := packets.DecodeVarInt(rest)
	if err != nil {
		return nil, &DecodeError{Field: "string length", Err: err}
	}
	if int(length) != len(rest) {
		return nil, &ProtocolError{Reason: fmt.Sprintf("string length mismatch: expected %d, found %d", length, len(rest))}
	}
	status, err := packets.ParseServerStatus(rest)
	if err != nil {
		return nil, &DecodeError{Field: "status json", Err: err}
	}
	return status, nil
}
