package packets

import (
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
	"strconv"
)

func ReadUnsignedShort(reader io.Reader) (c uint16, err error) {
	err = binary.Read(reader, binary.BigEndian, &c)
	return
}

func ReadLong(reader io.Reader) (c int64, err error) {
	err = binary.Read(reader, binary.BigEndian, &c)
	return
}

func WriteUnsignedShort(writer io.Writer, c uint16) error {
	return binary.Write(writer, binary.BigEndian, &c)
}

func WriteLong(writer io.Writer, c int64) error {
	return binary.Write(writer, binary.BigEndian, &c)
}

func ReadMinecraftString(reader io.Reader, maxLength int) (string, error) {
	length, err := ReadVarInt(reader)
	if err != nil {
		return "", err
	}
	if int(length) > maxLength {
		return "", fmt.Errorf("string longer than maxLength: %d > %d", length, maxLength)
	}
	if length < 0 {
		return "", fmt.Errorf("string length smaller than 0: %d", length)
	}

	d := make([]byte, length)
	if _, err := io.ReadFull(reader, d); err != nil {
		return "", err
	}
	return string(d), nil
}

// WriteMinecraftString writes a length-prefixed UTF-8 string. Outgoing
// client packets go through PacketBuilder.WriteString instead, which only
// accepts single-byte characters.
func WriteMinecraftString(writer io.Writer, s string) (err error) {
	err = WriteVarInt(writer, VarInt(len(s)))
	if err != nil {
		return err
	}
	_, err = io.WriteString(writer, s)
	return
}

// ReadMinecraftStruct fills the exported fields of *data in declaration
// order. Strings need a max_length tag; fields tagged mcignore are skipped.
func ReadMinecraftStruct(reader io.Reader, data interface{}) (err error) {
	elem := reflect.ValueOf(data).Elem()
	elemType := elem.Type()
	for i := 0; i < elem.NumField(); i++ {
		field := elem.Field(i)
		fieldType := elemType.Field(i)

		if fieldType.Tag.Get("mcignore") != "" {
			continue
		}

		switch field.Interface().(type) {
		case bool:
			var buf [1]byte
			if _, err = io.ReadFull(reader, buf[:]); err != nil {
				return
			}
			field.SetBool(buf[0] == 1)
		case uint8:
			var buf [1]byte
			if _, err = io.ReadFull(reader, buf[:]); err != nil {
				return
			}
			field.SetUint(uint64(buf[0]))
		case uint16:
			var v uint16
			if v, err = ReadUnsignedShort(reader); err != nil {
				return
			}
			field.SetUint(uint64(v))
		case int64:
			var v int64
			if v, err = ReadLong(reader); err != nil {
				return
			}
			field.SetInt(v)
		case VarInt:
			var v VarInt
			if v, err = ReadVarInt(reader); err != nil {
				return
			}
			field.SetInt(int64(v))
		case string:
			var maxlen int
			if maxlen, err = strconv.Atoi(fieldType.Tag.Get("max_length")); err != nil {
				panic("Invalid max_length tag in " + fieldType.Name + ": " + err.Error())
			}
			var str string
			if str, err = ReadMinecraftString(reader, maxlen); err != nil {
				return
			}
			field.SetString(str)
		default:
			panic(fmt.Sprintf("Invalid field %d in minecraft struct %s", i, elemType.Name()))
		}
	}
	return
}

func WriteMinecraftStruct(writer io.Writer, data interface{}) (err error) {
	elem := reflect.ValueOf(data).Elem()
	elemType := elem.Type()
	for i := 0; i < elem.NumField(); i++ {
		fieldType := elemType.Field(i)
		if fieldType.Tag.Get("mcignore") != "" {
			continue
		}

		switch field := elem.Field(i).Interface().(type) {
		case bool:
			var buf [1]byte
			if field {
				buf[0] = 1
			}
			_, err = writer.Write(buf[:])
		case uint8:
			_, err = writer.Write([]byte{field})
		case uint16:
			err = WriteUnsignedShort(writer, field)
		case int64:
			err = WriteLong(writer, field)
		case VarInt:
			err = WriteVarInt(writer, field)
		case string:
			err = WriteMinecraftString(writer, field)
		default:
			panic("Invalid field in minecraft struct - " + fieldType.Name)
		}
		if err != nil {
			return
		}
	}
	return
}
