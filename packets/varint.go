package packets

import (
	"errors"
	"io"
)

// MaxVarIntLen is the longest encoding of a 32-bit VarInt.
const MaxVarIntLen = 5

var ErrVarIntTooLarge = errors.New("VarInt is too big")
var ErrInsufficientData = errors.New("not enough data for VarInt")

// PutVarInt encodes value into buf, which must hold at least MaxVarIntLen
// bytes, and returns the number of bytes written. The value is treated as
// unsigned, so negative numbers always take five bytes.
func PutVarInt(buf []byte, value VarInt) int {
	v := uint32(value)
	n := 0
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf[n] = b
		n++
		if v == 0 {
			return n
		}
	}
}

func EncodeVarInt(value VarInt) []byte {
	var buf [MaxVarIntLen]byte
	n := PutVarInt(buf[:], value)
	return append([]byte(nil), buf[:n]...)
}

func VarIntSize(value VarInt) int {
	v := uint32(value)
	size := 1
	for v >>= 7; v != 0; v >>= 7 {
		size++
	}
	return size
}

// DecodeVarInt reads one VarInt from the start of data and returns it with
// the bytes that follow it. On error the returned remainder is data itself.
func DecodeVarInt(data []byte) (VarInt, []byte, error) {
	var result uint32
	for i := 0; ; i++ {
		if i >= MaxVarIntLen {
			return 0, data, ErrVarIntTooLarge
		}
		if i >= len(data) {
			return 0, data, ErrInsufficientData
		}
		b := data[i]
		result |= uint32(b&0x7F) << (7 * uint(i))
		if b&0x80 == 0 {
			return VarInt(result), data[i+1:], nil
		}
	}
}

func ReadVarInt(reader io.Reader) (VarInt, error) {
	br, ok := reader.(io.ByteReader)
	if !ok {
		br = &dummyByteReader{reader, [1]byte{}}
	}
	var result uint32
	for i := 0; i < MaxVarIntLen; i++ {
		b, err := br.ReadByte()
		if err != nil {
			if err == io.EOF && i > 0 {
				err = io.ErrUnexpectedEOF
			}
			return 0, err
		}
		result |= uint32(b&0x7F) << (7 * uint(i))
		if b&0x80 == 0 {
			return VarInt(result), nil
		}
	}
	return 0, ErrVarIntTooLarge
}

func WriteVarInt(writer io.Writer, c VarInt) error {
	var buf [MaxVarIntLen]byte
	n := PutVarInt(buf[:], c)
	_, err := writer.Write(buf[:n])
	return err
}

// dummyByteReader - used in ReadVarInt

type dummyByteReader struct {
	io.Reader
	buf [1]byte
}

func (b *dummyByteReader) ReadByte() (byte, error) {
	_, err := io.ReadFull(b.Reader, b.buf[:])
	return b.buf[0], err
}
