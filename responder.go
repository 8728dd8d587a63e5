package mcmonitor

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/albertgustavsson/mcmonitor/packets"
)

// PingHandler builds the status document for one incoming handshake.
type PingHandler func(handshake *packets.HandshakePacket) packets.ServerStatus

// Responder answers status queries like a Minecraft server would. Login
// attempts are refused by closing the connection.
type Responder struct {
	PingHandler PingHandler
	IdleTimeout time.Duration
}

func NewResponder(handler PingHandler) *Responder {
	return &Responder{PingHandler: handler, IdleTimeout: 10 * time.Second}
}

// Serve accepts connections until the listener is closed.
func (r *Responder) Serve(listener net.Listener) error {
	if r.PingHandler == nil {
		panic("Responder.PingHandler is not set!")
	}
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			logrus.WithError(err).Error("Error while accepting connection")
			time.Sleep(10 * time.Millisecond)
			continue
		}

		go func() {
			if err := r.ServeConn(conn); err != nil {
				logrus.WithError(err).WithField("remote", conn.RemoteAddr().String()).Warn("Status connection error")
			}
		}()
	}
}

// ServeConn handles a single connection and closes it.
func (r *Responder) ServeConn(conn net.Conn) error {
	defer conn.Close()
	if r.IdleTimeout > 0 {
		conn.SetDeadline(time.Now().Add(r.IdleTimeout))
	}
	reader := packets.NewPacketReader(conn)
	writer := packets.NewPacketWriter(conn)

	var handshake packets.HandshakePacket
	if _, err := packets.ParsePackets(reader, &handshake); err != nil {
		return err
	}
	if packets.ConnState(handshake.NextState) != packets.STATUS {
		return fmt.Errorf("Invalid handshake.NextState! %d", handshake.NextState)
	}

	var request packets.StatusRequestPacketSB
	if _, err := packets.ParsePackets(reader, &request); err != nil {
		return err
	}

	status := r.PingHandler(&handshake)
	json, err := status.Serialize()
	if err != nil {
		return err
	}
	err = writer.WritePacket(&packets.StatusResponsePacketCB{Data: json}, true)
	if err != nil {
		return err
	}

	// clients that only want the status hang up here
	var ping packets.StatusPingPacketSB
	_, err = packets.ParsePackets(reader, &ping)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	return writer.WritePacket(&packets.StatusPingPacketCB{Time: ping.Time}, true)
}
