package packets

import (
	"fmt"
	"io"
)

// StatusProtocolVersion is sent in status handshakes; servers answer a
// status query regardless of the version, -1 marks it as irrelevant.
const StatusProtocolVersion VarInt = -1

// ProtocolVersion is what the responder reports when asked for its version.
const ProtocolVersion = 753

const MaxPacketSize = 128 * 1024
const MaxPacketID = 256

var GameVersion = ServerStatusVersion{"1.16.3", ProtocolVersion}

type VarInt int32

type Packet interface {
	PacketID() VarInt
	Direction() Direction
	Parse(reader io.Reader) error
	Serialize(writer io.Writer) error
}

func ToString(packet Packet, direction Direction) string {
	var s string
	if raw, is_raw := packet.(RawPacket); is_raw {
		if len(raw.Payload) < 48 {
			s = fmt.Sprintf("%X", raw.Payload)
		} else {
			s = fmt.Sprintf("RAW TOO_LARGE %d", len(raw.Payload))
		}
	} else {
		s = fmt.Sprintf("%#v", packet)
		if len(s) > 256 {
			s = fmt.Sprintf("%T", packet)
		}
	}
	return fmt.Sprintf("%s_%02X %s", direction, packet.PacketID(), s)
}
