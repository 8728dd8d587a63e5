package bot

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsoleMessenger(t *testing.T) {
	var out bytes.Buffer
	console := &ConsoleMessenger{ChannelID: "console", In: strings.NewReader("!ping\nhello\n"), Out: &out}
	if _, ok := console.ChannelName("other"); ok {
		t.Error("unknown channel resolved")
	}

	b := New(DefaultConfig(), "", console)
	var received []string
	err := console.Run(func(msg Message) {
		received = append(received, msg.Content)
		b.HandleMessage(msg)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(received) != 2 || received[1] != "hello" {
		t.Errorf("got %q", received)
	}
	if out.String() != "[console] pong\n" {
		t.Errorf("got %q", out.String())
	}
}
