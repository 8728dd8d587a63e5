package bot

import (
	"bufio"
	"fmt"
	"io"
	"sync"
)

// Message is one chat message as delivered by the platform.
type Message struct {
	ChannelID   string
	ChannelName string
	Author      string
	Content     string
}

// Messenger is the part of the chat platform the bot needs.
type Messenger interface {
	Send(channelID, text string) error
	// ChannelName resolves a channel id, ok is false for unknown channels.
	ChannelName(channelID string) (name string, ok bool)
}

// ConsoleMessenger treats a terminal as a single chat channel: lines read
// from In are messages, replies are written to Out.
type ConsoleMessenger struct {
	ChannelID string
	In        io.Reader
	Out       io.Writer
	l         sync.Mutex
}

func (c *ConsoleMessenger) Send(channelID, text string) error {
	c.l.Lock()
	defer c.l.Unlock()
	_, err := fmt.Fprintf(c.Out, "[%s] %s\n", channelID, text)
	return err
}

func (c *ConsoleMessenger) ChannelName(channelID string) (string, bool) {
	if channelID != c.ChannelID {
		return "", false
	}
	return "console", true
}

// Run passes every input line to handle until In is exhausted.
func (c *ConsoleMessenger) Run(handle func(Message)) error {
	scanner := bufio.NewScanner(c.In)
	for scanner.Scan() {
		handle(Message{
			ChannelID:   c.ChannelID,
			ChannelName: "console",
			Author:      "console",
			Content:     scanner.Text(),
		})
	}
	return scanner.Err()
}
