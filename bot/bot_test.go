package bot

import (
	"io/ioutil"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/albertgustavsson/mcmonitor"
	"github.com/albertgustavsson/mcmonitor/packets"
)

type fakeMessenger struct {
	l        sync.Mutex
	channels map[string]string
	sent     []string
	notify   chan string
}

func newFakeMessenger(channels ...string) *fakeMessenger {
	m := &fakeMessenger{channels: make(map[string]string), notify: make(chan string, 100)}
	for _, id := range channels {
		m.channels[id] = "#" + id
	}
	return m
}

func (m *fakeMessenger) Send(channelID, text string) error {
	m.l.Lock()
	m.sent = append(m.sent, channelID+": "+text)
	m.l.Unlock()
	select {
	case m.notify <- text:
	default:
	}
	return nil
}

func (m *fakeMessenger) ChannelName(channelID string) (string, bool) {
	name, ok := m.channels[channelID]
	return name, ok
}

func (m *fakeMessenger) take() []string {
	m.l.Lock()
	defer m.l.Unlock()
	sent := m.sent
	m.sent = nil
	for len(m.notify) > 0 {
		<-m.notify
	}
	return sent
}

// startMinecraft runs a status responder on loopback and counts queries.
func startMinecraft(t *testing.T, online, max int) (port int, queries *int64, stop func()) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	queries = new(int64)
	go mcmonitor.NewResponder(func(handshake *packets.HandshakePacket) packets.ServerStatus {
		atomic.AddInt64(queries, 1)
		return packets.ServerStatus{
			Version: packets.GameVersion,
			Players: packets.ServerStatusPlayers{Online: online, Max: max},
		}
	}).Serve(listener)
	return listener.Addr().(*net.TCPAddr).Port, queries, func() { listener.Close() }
}

func newTestBot(channels ...string) (*Bot, *fakeMessenger) {
	m := newFakeMessenger(channels...)
	config := DefaultConfig()
	config.QueryRateHz = 1000
	config.QueryBurst = 1000
	b := New(config, "", m)
	b.QueryTimeout = time.Second
	return b, m
}

func message(channelID, content string) Message {
	return Message{ChannelID: channelID, ChannelName: "#" + channelID, Author: "tester", Content: content}
}

func expectSent(t *testing.T, m *fakeMessenger, expected ...string) {
	t.Helper()
	sent := m.take()
	if len(sent) != len(expected) {
		t.Fatalf("sent %q expected %q", sent, expected)
	}
	for i := range sent {
		if sent[i] != expected[i] {
			t.Errorf("message %d: got %q expected %q", i, sent[i], expected[i])
		}
	}
}

func TestPingAndPrefix(t *testing.T) {
	b, m := newTestBot("c1")
	b.HandleMessage(message("c1", "ping"))
	b.HandleMessage(message("c1", "!unknown"))
	b.HandleMessage(message("c1", "!"))
	expectSent(t, m)

	b.HandleMessage(message("c1", "!ping"))
	b.HandleMessage(message("c1", "!PING extra"))
	expectSent(t, m, "c1: pong", "c1: pong")
}

func TestMcsCommand(t *testing.T) {
	b, m := newTestBot("c1")
	b.HandleMessage(message("c1", "!mcs example.org"))
	b.HandleMessage(message("c1", "!mcs example.org 70000"))
	b.HandleMessage(message("c1", "!mcs example.org port"))
	b.HandleMessage(message("c1", "!mcs żółw.pl 25565"))
	expectSent(t, m,
		"c1: Usage: `!mcs <hostname> <port>`",
		`c1: Invalid port "70000"`,
		`c1: Invalid port "port"`,
		`c1: Invalid hostname "żółw.pl"`,
	)
	if _, ok := b.settings("c1"); ok {
		t.Fatal("invalid mcs stored settings")
	}

	b.HandleMessage(message("c1", "!mcs example.org 25566"))
	expectSent(t, m, "c1: Minecraft server set to example.org:25566")
	s, ok := b.settings("c1")
	if !ok || s.Host != "example.org" || s.Port != 25566 {
		t.Errorf("settings %+v", s)
	}
}

func TestMcCommand(t *testing.T) {
	port, queries, stop := startMinecraft(t, 3, 20)
	defer stop()
	b, m := newTestBot("c1")

	b.HandleMessage(message("c1", "!mc"))
	expectSent(t, m, "c1: Server not set up. Run `!mcs` to set up")

	b.HandleMessage(message("c1", "!mcs 127.0.0.1 "+strconv.Itoa(port)))
	m.take()
	b.HandleMessage(message("c1", "!mc"))
	expectSent(t, m,
		"c1: Checking minecraft server (127.0.0.1:"+strconv.Itoa(port)+")",
		"c1: Server (127.0.0.1) is online. 3/20 players",
	)

	// served from the status store
	b.HandleMessage(message("c1", "!mc"))
	m.take()
	if n := atomic.LoadInt64(queries); n != 1 {
		t.Errorf("%d queries expected 1", n)
	}
}

func TestMcCommandFailures(t *testing.T) {
	b, m := newTestBot("c1")

	port, _, stop := startMinecraft(t, 0, 0)
	stop()
	b.HandleMessage(message("c1", "!mcs 127.0.0.1 "+strconv.Itoa(port)))
	m.take()
	b.HandleMessage(message("c1", "!mc"))
	sent := m.take()
	if len(sent) != 2 || !strings.HasPrefix(sent[1], "c1: Server (127.0.0.1) is unreachable") {
		t.Errorf("refused: got %q", sent)
	}

	// accepts but never answers
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()
	b.QueryTimeout = 100 * time.Millisecond
	b.HandleMessage(message("c1", "!mcs 127.0.0.1 "+strconv.Itoa(listener.Addr().(*net.TCPAddr).Port)))
	m.take()
	b.HandleMessage(message("c1", "!mc"))
	sent = m.take()
	if len(sent) != 2 || sent[1] != "c1: Server (127.0.0.1) did not respond in time" {
		t.Errorf("timeout: got %q", sent)
	}
}

func TestRateLimit(t *testing.T) {
	port, queries, stop := startMinecraft(t, 1, 2)
	defer stop()
	m := newFakeMessenger("c1")
	config := DefaultConfig()
	config.QueryRateHz = 0.001
	config.QueryBurst = 1
	config.StatusCacheTTL = 0
	b := New(config, "", m)

	b.HandleMessage(message("c1", "!mcs 127.0.0.1 "+strconv.Itoa(port)))
	b.HandleMessage(message("c1", "!mc"))
	b.HandleMessage(message("c1", "!mc"))
	sent := m.take()
	if sent[len(sent)-1] != "c1: "+ErrTooManyRequests.Error() {
		t.Errorf("got %q", sent)
	}
	if n := atomic.LoadInt64(queries); n != 1 {
		t.Errorf("%d queries expected 1", n)
	}
}

func TestMctCommand(t *testing.T) {
	port, _, stop := startMinecraft(t, 5, 10)
	defer stop()
	b, m := newTestBot("c1")
	b.IntervalUnit = 20 * time.Millisecond
	b.Store = NewMemoryStatusStore(0)

	b.HandleMessage(message("c1", "!mct 1"))
	expectSent(t, m, "c1: Server not set up")

	b.HandleMessage(message("c1", "!mcs 127.0.0.1 "+strconv.Itoa(port)))
	b.HandleMessage(message("c1", "!mct"))
	b.HandleMessage(message("c1", "!mct -3"))
	m.take()

	b.HandleMessage(message("c1", "!mct 1"))
	if text := <-m.notify; text != "I will check the server status every 1 minutes" {
		t.Fatalf("got %q", text)
	}
	select {
	case text := <-m.notify:
		if text != "Server (127.0.0.1) is online. 5/10 players" {
			t.Errorf("periodic check: got %q", text)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no periodic check")
	}
	if b.Tasks.Len() != 1 || b.Tasks.Get("c1") == nil {
		t.Errorf("tasks %d", b.Tasks.Len())
	}

	b.HandleMessage(message("c1", "!mct 0"))
	if b.Tasks.Len() != 0 {
		t.Errorf("task still scheduled")
	}
	m.take()
	time.Sleep(60 * time.Millisecond)
	if sent := m.take(); len(sent) != 0 {
		t.Errorf("cancelled task still sending %q", sent)
	}
	s, _ := b.settings("c1")
	if s.UpdateInterval != 0 {
		t.Errorf("interval %d expected 0", s.UpdateInterval)
	}
}

func TestFailureMessage(t *testing.T) {
	var table = map[string]error{
		"Failed to check server status":           &mcmonitor.ProtocolError{Reason: "x"},
		"Server (h) is unreachable (ECONNCLOSED)": &mcmonitor.TransportError{Op: "read", Err: mcmonitor.ErrClosedBeforeResponse},
		"Server (h) is unreachable: boom":         &mcmonitor.TransportError{Op: "read", Err: errString("boom")},
		"Server (h) did not respond in time":      &mcmonitor.TransportError{Op: "dial", Err: timeoutErr{}},
	}
	for expected, err := range table {
		if v := failureMessage("h", err); v != expected {
			t.Errorf("%v: got %q expected %q", err, v, expected)
		}
	}
}

type errString string

func (e errString) Error() string { return string(e) }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestStartAndShutdown(t *testing.T) {
	port, _, stop := startMinecraft(t, 1, 1)
	defer stop()
	dir, err := ioutil.TempDir("", "mcmonitor")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	filename := filepath.Join(dir, "config.yml")

	m := newFakeMessenger("known")
	config := DefaultConfig()
	config.Channels["known"] = &ChannelSettings{Host: "127.0.0.1", Port: port, UpdateInterval: 1}
	config.Channels["gone"] = &ChannelSettings{Host: "127.0.0.1", Port: port, UpdateInterval: 1}
	config.Channels["idle"] = &ChannelSettings{Host: "127.0.0.1", Port: port}
	m.channels["idle"] = "#idle"
	b := New(config, filename, m)
	b.IntervalUnit = 10 * time.Millisecond
	b.Start()

	if _, ok := b.Config.Channels["gone"]; ok {
		t.Error("unknown channel kept in config")
	}
	if b.Tasks.Len() != 1 || b.Tasks.Get("known") == nil {
		t.Errorf("tasks: got %d expected 1", b.Tasks.Len())
	}
	select {
	case <-m.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled check never ran")
	}

	if err := b.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if b.Tasks.Len() != 0 {
		t.Error("tasks left after Shutdown")
	}
	saved, err := LoadConfig(filename)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved.Channels) != 2 || saved.Channels["known"].UpdateInterval != 1 {
		t.Errorf("saved config: got %+v", saved.Channels)
	}
}
