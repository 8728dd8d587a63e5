package packets

import (
	"io"

	bufpool "github.com/libp2p/go-buffer-pool"
)

// BufferPool backs packet payloads and network read buffers.
var BufferPool bufpool.BufferPool

// RawPacket is a packet nobody asked to parse. Payload is the whole body,
// packet id included, and is only valid until the next ReadPacket.
type RawPacket struct {
	ID      VarInt
	Payload []byte
}

func (packet RawPacket) PacketID() VarInt {
	return packet.ID
}

func (packet RawPacket) Direction() Direction {
	panic("RawPacket is just a dummy container type - valid directions are unknown!")
}

func (packet RawPacket) Parse(reader io.Reader) (err error) {
	panic("RawPacket is just a dummy container type - can't parse real data stream!")
}

func (packet RawPacket) Serialize(writer io.Writer) (err error) {
	panic("RawPacket is just a dummy container type - can't serialize!")
}
