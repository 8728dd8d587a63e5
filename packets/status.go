package packets

import (
	"encoding/json"
	"io"
	"strings"
)

// ServerStatus is the JSON document of a status response. Only the common
// fields are typed; Raw keeps the full document as received.
type ServerStatus struct {
	Version     ServerStatusVersion `json:"version"`
	Players     ServerStatusPlayers `json:"players"`
	Description json.RawMessage     `json:"description,omitempty"`
	Favicon     string              `json:"favicon,omitempty"`

	Raw json.RawMessage `json:"-"`
}

type ServerStatusVersion struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

type ServerStatusPlayers struct {
	Online int                  `json:"online"`
	Max    int                  `json:"max"`
	Sample []ServerStatusSample `json:"sample,omitempty"`
}

type ServerStatusSample struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

func ParseServerStatus(data []byte) (*ServerStatus, error) {
	status := new(ServerStatus)
	if err := json.Unmarshal(data, status); err != nil {
		return nil, err
	}
	status.Raw = append(json.RawMessage(nil), data...)
	return status, nil
}

func (status ServerStatus) Serialize() (string, error) {
	bytes, err := json.Marshal(status)
	return string(bytes), err
}

// TextDescription wraps a plain MOTD as a description value.
func TextDescription(text string) json.RawMessage {
	data, _ := json.Marshal(text)
	return data
}

// DescriptionText flattens the description, which servers send either as a
// plain string or as a chat component with nested "extra" parts.
func (status ServerStatus) DescriptionText() string {
	if len(status.Description) == 0 {
		return ""
	}
	var v interface{}
	if err := json.Unmarshal(status.Description, &v); err != nil {
		return ""
	}
	var sb strings.Builder
	flattenChat(&sb, v)
	return sb.String()
}

func flattenChat(sb *strings.Builder, v interface{}) {
	switch c := v.(type) {
	case string:
		sb.WriteString(c)
	case []interface{}:
		for _, part := range c {
			flattenChat(sb, part)
		}
	case map[string]interface{}:
		if text, ok := c["text"].(string); ok {
			sb.WriteString(text)
		}
		if extra, ok := c["extra"]; ok {
			flattenChat(sb, extra)
		}
	}
}

// C->S StatusRequestPacket

type StatusRequestPacketSB struct {
}

func (packet *StatusRequestPacketSB) PacketID() VarInt {
	return 0x00
}

func (packet *StatusRequestPacketSB) Parse(reader io.Reader) (err error) {
	return nil
}

func (packet *StatusRequestPacketSB) Serialize(writer io.Writer) error {
	return nil
}

func (packet *StatusRequestPacketSB) Direction() Direction {
	return ServerBound
}

// S->C StatusResponsePacket

type StatusResponsePacketCB struct {
	Data string `max_length:"131068"`
}

func (packet *StatusResponsePacketCB) PacketID() VarInt {
	return 0x00
}

func (packet *StatusResponsePacketCB) Parse(reader io.Reader) (err error) {
	return ReadMinecraftStruct(reader, packet)
}

func (packet *StatusResponsePacketCB) Serialize(writer io.Writer) error {
	return WriteMinecraftStruct(writer, packet)
}

func (packet *StatusResponsePacketCB) Direction() Direction {
	return ClientBound
}

// Two-way StatusPingPacket

type StatusPingPacketCB struct {
	Time int64
}

func (packet *StatusPingPacketCB) PacketID() VarInt {
	return 0x01
}

func (packet *StatusPingPacketCB) Parse(reader io.Reader) (err error) {
	return ReadMinecraftStruct(reader, packet)
}

func (packet *StatusPingPacketCB) Serialize(writer io.Writer) error {
	return WriteMinecraftStruct(writer, packet)
}

func (packet *StatusPingPacketCB) Direction() Direction {
	return ClientBound
}

type StatusPingPacketSB struct {
	Time int64
}

func (packet *StatusPingPacketSB) PacketID() VarInt {
	return 0x01
}

func (packet *StatusPingPacketSB) Parse(reader io.Reader) (err error) {
	return ReadMinecraftStruct(reader, packet)
}

func (packet *StatusPingPacketSB) Serialize(writer io.Writer) error {
	return WriteMinecraftStruct(writer, packet)
}

func (packet *StatusPingPacketSB) Direction() Direction {
	return ServerBound
}
