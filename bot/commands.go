package bot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/albertgustavsson/mcmonitor"
	"github.com/albertgustavsson/mcmonitor/packets"
)

const historyLines = 5
const timeOfDay = "15:04:05.000"

type command func(b *Bot, msg Message, args []string) error

var commands = map[string]command{
	"ping": pingCommand,
	"help": helpCommand,
	"mcs":  mcsCommand,
	"mc":   mcCommand,
	"mct":  mctCommand,
	"last": lastCommand,
}

// HandleMessage runs the command in msg, if any. Status checks happen
// synchronously; platforms delivering messages from one goroutine should
// call it in a new goroutine per message.
func (b *Bot) HandleMessage(msg Message) {
	prefix := b.Config.Prefix
	if !strings.HasPrefix(msg.Content, prefix) {
		return
	}
	args := strings.Fields(msg.Content[len(prefix):])
	if len(args) == 0 {
		return
	}
	name := strings.ToLower(args[0])
	cmd, ok := commands[name]
	if !ok {
		return
	}

	log := b.Log().WithFields(logrus.Fields{
		"channel": msg.ChannelName,
		"author":  msg.Author,
		"command": name,
	})
	log.Info("Received command")
	if err := cmd(b, msg, args); err != nil {
		log.WithError(err).Error("Command failed")
	}
}

func (b *Bot) reply(msg Message, format string, args ...interface{}) error {
	return b.send(msg.ChannelID, fmt.Sprintf(format, args...))
}

func pingCommand(b *Bot, msg Message, args []string) error {
	return b.reply(msg, "pong")
}

func helpCommand(b *Bot, msg Message, args []string) error {
	p := b.Config.Prefix
	return b.reply(msg, "Commands: `%sping`, `%smcs <hostname> <port>`, `%smc`, `%smct <minutes>`, `%slast`", p, p, p, p, p)
}

func mcsCommand(b *Bot, msg Message, args []string) error {
	if len(args) != 3 {
		return b.reply(msg, "Usage: `%smcs <hostname> <port>`", b.Config.Prefix)
	}
	host := args[1]
	port, err := strconv.Atoi(args[2])
	if err != nil || port < 0 || port > 0xFFFF {
		return b.reply(msg, "Invalid port %q", args[2])
	}
	if _, err := packets.NewHandshake(host, port, packets.StatusProtocolVersion, packets.STATUS); err != nil {
		return b.reply(msg, "Invalid hostname %q", host)
	}

	b.update(msg.ChannelID, func(s *ChannelSettings) {
		s.Host = host
		s.Port = port
	})
	return b.reply(msg, "Minecraft server set to %s", net.JoinHostPort(host, args[2]))
}

func mcCommand(b *Bot, msg Message, args []string) error {
	settings, ok := b.settings(msg.ChannelID)
	if !ok {
		return b.reply(msg, "Server not set up. Run `%smcs` to set up", b.Config.Prefix)
	}
	if err := b.reply(msg, "Checking minecraft server (%s:%d)", settings.Host, settings.Port); err != nil {
		return err
	}
	return b.send(msg.ChannelID, b.checkStatus(context.Background(), msg.ChannelID, settings))
}

func mctCommand(b *Bot, msg Message, args []string) error {
	if _, ok := b.settings(msg.ChannelID); !ok {
		return b.reply(msg, "Server not set up")
	}
	if len(args) != 2 {
		return b.reply(msg, "Usage: `%smct <minutes>`", b.Config.Prefix)
	}
	minutes, err := strconv.Atoi(args[1])
	if err != nil || minutes < 0 {
		return b.reply(msg, "Usage: `%smct <minutes>`", b.Config.Prefix)
	}

	b.update(msg.ChannelID, func(s *ChannelSettings) {
		s.UpdateInterval = minutes
	})
	if minutes == 0 {
		b.Tasks.Cancel(msg.ChannelID)
		return b.reply(msg, "I will no longer check the server status periodically")
	}
	b.schedule(msg.ChannelID, minutes)
	return b.reply(msg, "I will check the server status every %d minutes", minutes)
}

func lastCommand(b *Bot, msg Message, args []string) error {
	if b.History == nil {
		return b.reply(msg, "Check history is not enabled")
	}
	checks, err := b.History.Last(msg.ChannelID, historyLines)
	if err != nil {
		b.reply(msg, "Failed to read check history")
		return err
	}
	if len(checks) == 0 {
		return b.reply(msg, "No checks recorded yet")
	}
	lines := make([]string, 0, len(checks))
	for _, c := range checks {
		if c.Failed() {
			lines = append(lines, fmt.Sprintf("%s %s: failed (%s)", c.Ts.Local().Format(timeOfDay), c.Address, c.Error))
		} else {
			lines = append(lines, fmt.Sprintf("%s %s: %d/%d players", c.Ts.Local().Format(timeOfDay), c.Address, c.Online, c.Max))
		}
	}
	return b.reply(msg, "%s", strings.Join(lines, "\n"))
}

func statusMessage(host string, status *packets.ServerStatus) string {
	return fmt.Sprintf("Server (%s) is online. %d/%d players", host, status.Players.Online, status.Players.Max)
}

func failureMessage(host string, err error) string {
	var transportErr *mcmonitor.TransportError
	if !errors.As(err, &transportErr) {
		return "Failed to check server status"
	}
	if transportErr.Timeout() {
		return fmt.Sprintf("Server (%s) did not respond in time", host)
	}
	if code := transportErr.Code(); code != "" {
		return fmt.Sprintf("Server (%s) is unreachable (%s)", host, code)
	}
	return fmt.Sprintf("Server (%s) is unreachable: %s", host, transportErr.Err)
}
