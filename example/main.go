package main

import (
	"flag"
	"net"
	"net/http"
	_ "net/http/pprof"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/albertgustavsson/mcmonitor"
	"github.com/albertgustavsson/mcmonitor/packets"
)

var (
	bindAddr  = flag.String("bind", "0.0.0.0:25565", "status server address")
	pprofAddr = flag.String("pprof", "", "pprof http address, e.g. localhost:6060")
	motd      = flag.String("motd", "mcmonitor", "message of the day")
	online    = flag.Int("online", 0, "reported online players")
	max       = flag.Int("max", 20, "reported player limit")
	debug     = flag.Bool("debug", false, "debug logging")
)

var pings int64

func main() {
	flag.Parse()
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if *pprofAddr != "" {
		go func() {
			logrus.WithError(http.ListenAndServe(*pprofAddr, nil)).Error("pprof server stopped")
		}()
	}

	listener, err := net.Listen("tcp", *bindAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Error listening")
	}
	logrus.WithField("address", listener.Addr().String()).Info("Answering status queries")
	if err := mcmonitor.NewResponder(PingHandler).Serve(listener); err != nil {
		logrus.WithError(err).Fatal("Serve failed")
	}
}

func PingHandler(handshake *packets.HandshakePacket) packets.ServerStatus {
	n := atomic.AddInt64(&pings, 1)
	logrus.WithFields(logrus.Fields{
		"host":     handshake.Host,
		"port":     handshake.Port,
		"protocol": handshake.Protocol,
		"count":    n,
	}).Debug("Status query")
	return packets.ServerStatus{
		Version:     packets.GameVersion,
		Players:     packets.ServerStatusPlayers{Online: *online, Max: *max},
		Description: packets.TextDescription(*motd),
	}
}
