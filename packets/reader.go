package packets

import (
	"bytes"
	"fmt"
	"io"
)

type PacketReader interface {
	ReadPacket() (RawPacket, error)
	Payload() (io.Reader, error)
}

type byter interface {
	io.Reader
	io.ByteReader
}

type packetReader struct {
	input  io.Reader
	byter  byter
	slicer bytes.Reader
	last   []byte
	err    error
}

func NewPacketReader(input io.Reader) PacketReader {
	r := &packetReader{input: input}
	if br, ok := input.(byter); ok {
		r.byter = br
	} else {
		r.byter = &dummyByteReader{Reader: input}
	}
	return r
}

func (r *packetReader) ReadPacket() (RawPacket, error) {
	if r.err != nil {
		return RawPacket{}, r.err
	}
	r.slicer.Reset(nil)
	if r.last != nil {
		BufferPool.Put(r.last)
		r.last = nil
	}

	var packet_length VarInt
	packet_length, r.err = ReadVarInt(r.byter)
	if r.err != nil {
		return RawPacket{}, r.err
	}
	if packet_length < 1 || packet_length > MaxPacketSize {
		r.err = fmt.Errorf("Invalid packet length %d (max %d)", packet_length, MaxPacketSize)
		return RawPacket{}, r.err
	}

	var raw = RawPacket{
		Payload: BufferPool.Get(int(packet_length)),
	}
	r.last = raw.Payload
	_, r.err = io.ReadFull(r.input, raw.Payload)
	if r.err != nil {
		if r.err == io.EOF {
			r.err = io.ErrUnexpectedEOF
		}
		return RawPacket{}, r.err
	}
	r.slicer.Reset(raw.Payload)

	raw.ID, r.err = ReadVarInt(&r.slicer)
	if r.err != nil {
		return RawPacket{}, r.err
	}
	if raw.ID > MaxPacketID || raw.ID < 0 {
		r.err = fmt.Errorf("Invalid packet_id %d", raw.ID)
		return RawPacket{}, r.err
	}

	return raw, nil
}

// this io.Reader is valid between calls to ReadPacket
func (r *packetReader) Payload() (io.Reader, error) {
	return &r.slicer, r.err
}

type ErrUnexpectedPacket struct {
	ID VarInt
}

func (e ErrUnexpectedPacket) Error() string {
	return fmt.Sprintf("Unexpected Packet 0x%02X", e.ID)
}

// ParsePackets reads one packet and parses it into whichever of packets has
// a matching id. Anything else comes back as a RawPacket with
// ErrUnexpectedPacket.
func ParsePackets(reader PacketReader, packets ...Packet) (Packet, error) {
	raw, err := reader.ReadPacket()
	if err != nil {
		return nil, err
	}
	for _, packet := range packets {
		if raw.PacketID() != packet.PacketID() {
			continue
		}
		payload, err := reader.Payload()
		if err != nil {
			return nil, err
		}
		return packet, packet.Parse(payload)
	}
	return raw, ErrUnexpectedPacket{ID: raw.PacketID()}
}
