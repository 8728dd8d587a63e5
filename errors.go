package mcmonitor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

var ErrClosedBeforeResponse = errors.New("connection closed before response complete")

// TransportError is a failure of the connection itself: dial, read or write.
type TransportError struct {
	Op   string
	Addr string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// Code names the failure the way socket errors are usually reported, e.g.
// ECONNREFUSED. It returns an empty string when nothing specific is known.
func (e *TransportError) Code() string {
	if e.Timeout() {
		return "ETIMEDOUT"
	}
	var dnsErr *net.DNSError
	if errors.As(e.Err, &dnsErr) {
		return "ENOTFOUND"
	}
	if errors.Is(e.Err, ErrClosedBeforeResponse) {
		return "ECONNCLOSED"
	}
	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED:
			return "ECONNREFUSED"
		case syscall.ECONNRESET:
			return "ECONNRESET"
		case syscall.EHOSTUNREACH:
			return "EHOSTUNREACH"
		case syscall.ENETUNREACH:
			return "ENETUNREACH"
		}
	}
	return ""
}

// ProtocolError means the server answered with something that is not a
// status response.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return "protocol error: " + e.Reason + ": " + e.Err.Error()
	}
	return "protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// DecodeError wraps a malformed VarInt or status document.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
