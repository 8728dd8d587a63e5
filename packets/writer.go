package packets

import (
	"bytes"
	"io"
)

type PacketWriter interface {
	WritePacket(packet Packet, flush bool) error
	Flush() error
}

type flusher interface {
	Flush() error
}

type packetWriter struct {
	err     error
	out     io.Writer
	flusher flusher
	buf     bytes.Buffer
}

func NewPacketWriter(out io.Writer) PacketWriter {
	w := &packetWriter{out: out}
	if flusher, ok := out.(flusher); ok {
		w.flusher = flusher
	}
	return w
}

func (w *packetWriter) WritePacket(packet Packet, flush bool) error {
	if w.err != nil {
		return w.err
	}

	w.buf.Reset()
	if raw, is_raw := packet.(RawPacket); is_raw {
		w.buf.Write(raw.Payload)
	} else {
		w.err = WriteVarInt(&w.buf, packet.PacketID())
		if w.err != nil {
			return w.err
		}
		w.err = packet.Serialize(&w.buf)
		if w.err != nil {
			return w.err
		}
	}

	// length prefix and body leave in a single write
	var header [MaxVarIntLen]byte
	n := PutVarInt(header[:], VarInt(w.buf.Len()))
	frame := BufferPool.Get(n + w.buf.Len())
	copy(frame, header[:n])
	copy(frame[n:], w.buf.Bytes())
	_, w.err = w.out.Write(frame)
	BufferPool.Put(frame)
	if w.err != nil {
		return w.err
	}
	if flush {
		return w.Flush()
	}
	return nil
}

func (w *packetWriter) Flush() error {
	if w.err != nil {
		return w.err
	}
	if w.flusher != nil {
		w.err = w.flusher.Flush()
	}
	return w.err
}
