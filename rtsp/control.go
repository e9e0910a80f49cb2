package rtsp

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/openwfd/wfd/evloop"
	"github.com/openwfd/wfd/ring"
	"github.com/openwfd/wfd/wfderr"
)

// RecvFunc receives raw bytes read off a Control's socket, or a
// zero-length call the first time the socket is observed readable or
// writable (connection established).
type RecvFunc func(c *Control, buf []byte)

const (
	recvChunk     = 4096
	recvMaxRounds = 128
)

type ctrlState int

const (
	ctrlClosed ctrlState = iota
	ctrlConnecting
	ctrlConnected
)

// Control owns one non-blocking stream socket, a ring of pending
// outbound bytes, and a user-supplied receive callback. It is driven
// by an evloop.Loop rather than polling on its own; its dispatch method
// is the Handler registered with that loop for this Control's fd.
//
// Control is not safe for concurrent use.
type Control struct {
	data interface{}
	loop *evloop.Loop

	fd    int
	state ctrlState
	cb    RecvFunc

	outRing ring.Buffer
}

// NewControl returns a Control that registers its socket with loop once
// opened.
func NewControl(loop *evloop.Loop) *Control {
	return &Control{loop: loop, fd: -1}
}

// SetData attaches an opaque value to the control for later retrieval.
func (c *Control) SetData(data interface{}) { c.data = data }

// GetData returns the value last passed to SetData.
func (c *Control) GetData() interface{} { return c.data }

// IsOpen reports whether a socket is currently owned by c.
func (c *Control) IsOpen() bool { return c.fd >= 0 }

// IsConnected reports whether the socket has completed connecting.
func (c *Control) IsConnected() bool { return c.IsOpen() && c.state == ctrlConnected }

// Close shuts down the socket, flushes pending output, and clears the
// callback. Close is a no-op if already closed.
func (c *Control) Close() {
	if !c.IsOpen() {
		return
	}
	_ = c.loop.Remove(c.fd)
	_ = unix.Close(c.fd)
	c.fd = -1
	c.state = ctrlClosed
	c.cb = nil
	c.outRing.Flush()
}

// OpenFD adopts an already-open stream socket fd, setting it
// non-blocking and registering it with the loop for read+write
// readiness until connected.
func (c *Control) OpenFD(fd int, cb RecvFunc) error {
	if c.IsOpen() {
		return wfderr.New(wfderr.AlreadyOpen, "rtsp: control already open")
	}
	if fd < 0 {
		return wfderr.New(wfderr.InvalidArgument, "rtsp: invalid fd")
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		return wfderr.Wrap(wfderr.IO, err, "rtsp: set non-blocking failed")
	}

	c.fd = fd
	c.state = ctrlConnecting
	c.cb = cb

	if err := c.loop.Add(fd, evloop.Hup|evloop.Err|evloop.In|evloop.Out, c.dispatch); err != nil {
		c.fd = -1
		c.state = ctrlClosed
		c.cb = nil
		return err
	}
	return nil
}

// OpenTCP creates a non-blocking IPv6 stream socket, optionally binds
// src, and connects to dst.
func (c *Control) OpenTCP(src, dst *net.TCPAddr, cb RecvFunc) error {
	if c.IsOpen() {
		return wfderr.New(wfderr.AlreadyOpen, "rtsp: control already open")
	}

	fd, err := unix.Socket(unix.AF_INET6, unix.SOCK_STREAM|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return wfderr.Wrap(wfderr.IO, err, "rtsp: socket() failed")
	}

	if src != nil {
		if err := unix.Bind(fd, tcpSockaddr(src)); err != nil {
			_ = unix.Close(fd)
			return wfderr.Wrap(wfderr.IO, err, "rtsp: bind() failed")
		}
	}

	err = unix.Connect(fd, tcpSockaddr(dst))
	if err != nil && err != unix.EINPROGRESS {
		_ = unix.Close(fd)
		return wfderr.Wrap(wfderr.IO, err, "rtsp: connect() failed")
	}

	if err := c.OpenFD(fd, cb); err != nil {
		_ = unix.Close(fd)
		return err
	}
	return nil
}

func tcpSockaddr(a *net.TCPAddr) unix.Sockaddr {
	var ip [16]byte
	copy(ip[:], a.IP.To16())
	return &unix.SockaddrInet6{Port: a.Port, Addr: ip}
}

// connectDone fires the connect notification exactly once, the first
// time the socket is observed ready. The callback may close or
// re-open the control; if it did, connectDone reports broken-pipe so
// the caller that triggered it stops servicing this readiness event.
func (c *Control) connectDone() error {
	if c.state == ctrlConnected {
		return nil
	}
	c.state = ctrlConnected
	if c.cb != nil {
		c.cb(c, nil)
	}
	if c.state != ctrlConnected {
		return wfderr.New(wfderr.BrokenPipe, "rtsp: control closed during connect notification")
	}
	return nil
}

// recvAll reads in up to 128 rounds of up to 4 KiB, invoking cb with
// each chunk. It stops early if the callback closes the control.
func (c *Control) recvAll() error {
	buf := make([]byte, recvChunk)

	for round := 0; round < recvMaxRounds; round++ {
		n, err := unix.Read(c.fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				break
			}
			return wfderr.Wrap(wfderr.IO, err, "rtsp: read failed")
		}
		if n == 0 {
			break
		}
		if c.cb != nil {
			c.cb(c, buf[:n])
		}
		if c.state != ctrlConnected {
			break
		}
	}

	if c.state != ctrlConnected {
		return wfderr.New(wfderr.BrokenPipe, "rtsp: control closed while receiving")
	}
	return nil
}

// sendAll gather-writes the pending out-ring, re-arming or disarming
// the writable subscription depending on whether it drained.
func (c *Control) sendAll() error {
	slices := c.outRing.Peek()
	if len(slices) > 0 {
		n, err := unix.Writev(c.fd, slices)
		if err != nil && err != unix.EAGAIN && err != unix.EINTR {
			return wfderr.Wrap(wfderr.IO, err, "rtsp: writev failed")
		}
		if n > 0 {
			c.outRing.Pull(n)
		}
	}

	if len(c.outRing.Peek()) == 0 {
		if err := c.loop.Modify(c.fd, evloop.Hup|evloop.Err|evloop.In); err != nil {
			return err
		}
	}
	return nil
}

// dispatch is the evloop.Handler registered for this Control's fd.
func (c *Control) dispatch(events evloop.Events) evloop.Result {
	if events&evloop.In != 0 {
		if err := c.connectDone(); err != nil {
			c.Close()
			return evloop.Handled
		}
		if err := c.recvAll(); err != nil {
			c.Close()
			return evloop.Handled
		}
	}

	if events&evloop.Out != 0 {
		if err := c.connectDone(); err != nil {
			c.Close()
			return evloop.Handled
		}
		if err := c.sendAll(); err != nil {
			c.Close()
			return evloop.Handled
		}
	}

	if events&(evloop.Hup|evloop.Err) != 0 {
		c.Close()
	}

	return evloop.Handled
}

// Send appends buf to the out-ring and, if it was previously empty,
// re-arms the writable subscription so dispatch will drain it.
func (c *Control) Send(buf []byte) error {
	if !c.IsOpen() {
		return wfderr.New(wfderr.NotOpen, "rtsp: control not open")
	}

	empty := len(c.outRing.Peek()) == 0

	if err := c.outRing.Push(buf); err != nil {
		return wfderr.Wrap(wfderr.NoMemory, err, "rtsp: control out-ring push failed")
	}

	if empty {
		if err := c.loop.Modify(c.fd, evloop.Hup|evloop.Err|evloop.In|evloop.Out); err != nil {
			return err
		}
	}
	return nil
}

// Sendf formats into a buffer and sends it.
func (c *Control) Sendf(format string, args ...interface{}) error {
	return c.Send([]byte(fmt.Sprintf(format, args...)))
}
