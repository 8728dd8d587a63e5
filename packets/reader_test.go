package packets

import (
	"bufio"
	"bytes"
	"io"
	"testing"
)

func TestPacketWriterReader(t *testing.T) {
	var buf bytes.Buffer
	w := NewPacketWriter(&buf)
	if err := w.WritePacket(&StatusResponsePacketCB{Data: `{"players":{"online":1,"max":2}}`}, false); err != nil {
		t.Fatal(err)
	}
	if err := w.WritePacket(&StatusPingPacketCB{Time: 1234567890123}, true); err != nil {
		t.Fatal(err)
	}

	r := NewPacketReader(bufio.NewReader(&buf))
	var response StatusResponsePacketCB
	if _, err := ParsePackets(r, &response); err != nil {
		t.Fatal(err)
	}
	if response.Data != `{"players":{"online":1,"max":2}}` {
		t.Errorf("got %q", response.Data)
	}

	var ping StatusPingPacketCB
	if _, err := ParsePackets(r, &ping); err != nil {
		t.Fatal(err)
	}
	if ping.Time != 1234567890123 {
		t.Errorf("got %d expected 1234567890123", ping.Time)
	}

	if _, err := r.ReadPacket(); err != io.EOF {
		t.Errorf("got %v expected io.EOF", err)
	}
}

func TestParsePacketsUnexpected(t *testing.T) {
	r := NewPacketReader(bytes.NewReader([]byte{0x02, 0x05, 0xAA}))
	p, err := ParsePackets(r, &StatusRequestPacketSB{})
	if _, ok := err.(ErrUnexpectedPacket); !ok {
		t.Fatalf("got %v expected ErrUnexpectedPacket", err)
	}
	raw := p.(RawPacket)
	if raw.ID != 5 || !bytes.Equal(raw.Payload, []byte{0x05, 0xAA}) {
		t.Errorf("got %s", ToString(raw, ClientBound))
	}
}

func TestReadPacketInvalidLength(t *testing.T) {
	for name, input := range map[string][]byte{
		"zero":      {0x00},
		"too big":   EncodeVarInt(MaxPacketSize + 1),
		"truncated": {0x05, 0x00, 0x01},
	} {
		r := NewPacketReader(bytes.NewReader(input))
		if _, err := r.ReadPacket(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestServerStatus(t *testing.T) {
	status, err := ParseServerStatus([]byte(`{"version":{"name":"1.20.1","protocol":763},` +
		`"players":{"online":3,"max":20,"sample":[{"name":"Notch","id":"069a79f4-44e9-4726-a5be-fca90e38aaf5"}]},` +
		`"description":{"text":"Hello ","extra":[{"text":"world"},"!"]},"enforcesSecureChat":true}`))
	if err != nil {
		t.Fatal(err)
	}
	if status.Players.Online != 3 || status.Players.Max != 20 {
		t.Errorf("players: %+v", status.Players)
	}
	if status.Version.Protocol != 763 {
		t.Errorf("version: %+v", status.Version)
	}
	if len(status.Players.Sample) != 1 || status.Players.Sample[0].Name != "Notch" {
		t.Errorf("sample: %+v", status.Players.Sample)
	}
	if v := status.DescriptionText(); v != "Hello world!" {
		t.Errorf("description: got %q", v)
	}
	if !bytes.Contains(status.Raw, []byte("enforcesSecureChat")) {
		t.Errorf("raw document lost unknown fields: %s", status.Raw)
	}

	plain := ServerStatus{Description: TextDescription("A Minecraft Server")}
	if v := plain.DescriptionText(); v != "A Minecraft Server" {
		t.Errorf("plain description: got %q", v)
	}

	if _, err := ParseServerStatus([]byte(`{"players":`)); err == nil {
		t.Error("expected error for truncated JSON")
	}
}
