package mcmonitor

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/albertgustavsson/mcmonitor/packets"
)

const DefaultPort = 25565
const DefaultTimeout = 5 * time.Second

const readChunkSize = 4096

// Server queries the status of one Minecraft server. It keeps no state
// between queries, so GetStatus may be called from several goroutines.
type Server struct {
	Host string
	Port int

	// Timeout bounds a whole query, connect included. Zero disables it and
	// leaves the caller's context in charge.
	Timeout time.Duration

	// Dial opens the stream connection; nil means a plain net.Dialer.
	Dial func(ctx context.Context, network, address string) (net.Conn, error)
}

func NewServer(host string, port int) (*Server, error) {
	if port < 0 || port > 0xFFFF {
		return nil, fmt.Errorf("invalid port %d", port)
	}
	return &Server{Host: host, Port: port, Timeout: DefaultTimeout}, nil
}

func (s *Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

func (s *Server) String() string {
	return "Server{" + s.Addr() + "}"
}

func (s *Server) Log() logrus.FieldLogger {
	return logrus.WithFields(logrus.Fields{
		"address": s.Addr(),
	})
}

// GetStatus performs one status query: handshake, status request, and the
// single status response that follows.
func (s *Server) GetStatus(ctx context.Context) (*packets.ServerStatus, error) {
	addr := s.Addr()
	log := s.Log().WithField("query", uuid.New().String())

	handshake, err := packets.NewHandshake(s.Host, s.Port, packets.StatusProtocolVersion, packets.STATUS)
	if err != nil {
		return nil, fmt.Errorf("handshake for %s: %w", addr, err)
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	t0 := time.Now()
	conn, err := s.dial(ctx, addr)
	if err != nil {
		log.WithError(err).Debug("Connect failed")
		return nil, &TransportError{Op: "dial", Addr: addr, Err: err}
	}
	c := &onceCloser{Conn: conn}
	defer c.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			// wakes up a blocked Read or Write
			conn.SetDeadline(time.Now())
		case <-stop:
		}
	}()

	transportErr := func(op string, err error) error {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		log.WithError(err).WithField("op", op).Debug("Status query failed")
		return &TransportError{Op: op, Addr: addr, Err: err}
	}

	if _, err = conn.Write(handshake.Bytes()); err != nil {
		return nil, transportErr("write", err)
	}
	if _, err = conn.Write(packets.NewStatusRequest().Bytes()); err != nil {
		return nil, transportErr("write", err)
	}

	var frame frameAssembler
	defer frame.release()
	chunk := packets.BufferPool.Get(readChunkSize)
	defer packets.BufferPool.Put(chunk)
	for {
		n, rerr := conn.Read(chunk)
		if n > 0 {
			done, ferr := frame.step(chunk[:n])
			if ferr != nil {
				log.WithError(ferr).Debug("Invalid status response")
				return nil, ferr
			}
			if done {
				break
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				rerr = fmt.Errorf("%w (%s)", ErrClosedBeforeResponse, frame.state)
			}
			return nil, transportErr("read", rerr)
		}
	}
	c.Close()

	status, err := parseStatusResponse(frame.body())
	if err != nil {
		log.WithError(err).Debug("Invalid status response")
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"online":  status.Players.Online,
		"max":     status.Players.Max,
		"elapsed": time.Since(t0),
	}).Debug("Status received")
	return status, nil
}

func (s *Server) dial(ctx context.Context, addr string) (net.Conn, error) {
	if s.Dial != nil {
		return s.Dial(ctx, "tcp", addr)
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}

type onceCloser struct {
	net.Conn
	once sync.Once
	err  error
}

func (c *onceCloser) Close() error {
	c.once.Do(func() {
		c.err = c.Conn.Close()
	})
	return c.err
}
