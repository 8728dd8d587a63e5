package packets

import (
	"errors"
	"unicode/utf8"
)

var ErrNotAByte = errors.New("value is not a byte")
var ErrNotAnUnsignedShort = errors.New("value is not an unsigned short")

// PacketBuilder assembles the body of an outgoing packet. The packet id is
// always the first field; Bytes prefixes the body with its VarInt length.
type PacketBuilder struct {
	body []byte
}

func NewPacketBuilder(id VarInt) *PacketBuilder {
	b := &PacketBuilder{body: make([]byte, 0, 64)}
	b.WriteVarInt(id)
	return b
}

func (b *PacketBuilder) WriteUnsignedByte(value int) error {
	if value&^0xFF != 0 {
		return ErrNotAByte
	}
	b.body = append(b.body, byte(value))
	return nil
}

func (b *PacketBuilder) WriteVarInt(value VarInt) {
	var buf [MaxVarIntLen]byte
	n := PutVarInt(buf[:], value)
	b.body = append(b.body, buf[:n]...)
}

// WriteString writes the character count followed by one byte per
// character. Only characters up to U+00FF fit; anything else is rejected
// with ErrNotAByte before a single byte is appended.
func (b *PacketBuilder) WriteString(value string) error {
	for _, r := range value {
		if r > 0xFF {
			return ErrNotAByte
		}
	}
	b.WriteVarInt(VarInt(utf8.RuneCountInString(value)))
	for _, r := range value {
		b.body = append(b.body, byte(r))
	}
	return nil
}

func (b *PacketBuilder) WriteUShort(value int) error {
	if value < 0 || value > 0xFFFF {
		return ErrNotAnUnsignedShort
	}
	b.body = append(b.body, byte(value>>8), byte(value))
	return nil
}

func (b *PacketBuilder) Len() int {
	return len(b.body)
}

// Bytes returns the wire-ready packet: VarInt body length, then the body.
func (b *PacketBuilder) Bytes() []byte {
	out := make([]byte, 0, VarIntSize(VarInt(len(b.body)))+len(b.body))
	out = append(out, EncodeVarInt(VarInt(len(b.body)))...)
	return append(out, b.body...)
}

// NewHandshake builds the handshake that opens every connection.
func NewHandshake(host string, port int, protocol VarInt, next ConnState) (*PacketBuilder, error) {
	b := NewPacketBuilder(0x00)
	b.WriteVarInt(protocol)
	if err := b.WriteString(host); err != nil {
		return nil, err
	}
	if err := b.WriteUShort(port); err != nil {
		return nil, err
	}
	b.WriteVarInt(VarInt(next))
	return b, nil
}

// NewStatusRequest builds the empty status request, always 01 00 on the wire.
func NewStatusRequest() *PacketBuilder {
	return NewPacketBuilder(0x00)
}
