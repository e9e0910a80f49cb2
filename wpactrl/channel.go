package wpactrl

import (
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/openwfd/wfd/evloop"
	"github.com/openwfd/wfd/wfderr"
)

// Channel is a supplicant control channel: two UNIX datagram sockets
// (request and event) plus a liveness timer, all driven by a shared
// evloop.Loop. It is the Go counterpart of struct owfd_wpa_ctrl.
//
// Channel is not safe for concurrent use.
type Channel struct {
	data  interface{}
	loop  *evloop.Loop
	hooks *Hooks

	reqTimeout time.Duration
	pingPeriod time.Duration

	reqFD   int
	reqName string
	evFD    int
	evName  string
	timerFD int

	child *os.Process

	observers []*Observer
}

// New allocates an unopened Channel. Open (via Dial, or directly for
// an already-running supplicant) must be called before Request or
// RegisterObserver are useful.
func New(loop *evloop.Loop, opts ...Option) *Channel {
	cfg := resolveConfig(opts)
	return &Channel{
		loop:       loop,
		hooks:      cfg.Hooks,
		reqTimeout: cfg.RequestTimeout,
		pingPeriod: cfg.PingPeriod,
		reqFD:      -1,
		evFD:       -1,
		timerFD:    -1,
	}
}

// SetData attaches an opaque value to the channel for later retrieval.
func (c *Channel) SetData(data interface{}) { c.data = data }

// GetData returns the value last passed to SetData.
func (c *Channel) GetData() interface{} { return c.data }

// IsOpen reports whether the channel holds live sockets.
func (c *Channel) IsOpen() bool { return c.evFD >= 0 }

// Open connects both the request and event sockets to ctrlPath,
// issues ATTACH on the event socket, and arms the liveness timer.
// Mirrors owfd_wpa_ctrl_open.
func (c *Channel) Open(ctrlPath string) error {
	if c.IsOpen() {
		return wfderr.New(wfderr.AlreadyOpen, "wpactrl: channel already open")
	}

	reqFD, reqName, err := openSocket(ctrlPath)
	if err != nil {
		return err
	}
	evFD, evName, err := openSocket(ctrlPath)
	if err != nil {
		closeSocket(reqFD, reqName)
		return err
	}

	reply, err := wpaRequest(evFD, "ATTACH", c.reqTimeout)
	if err != nil || reply != "OK\n" {
		if err == nil {
			err = wfderr.New(wfderr.IO, "wpactrl: ATTACH rejected")
		}
		closeSocket(evFD, evName)
		closeSocket(reqFD, reqName)
		return err
	}

	timerFD, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_CLOEXEC|unix.TFD_NONBLOCK)
	if err != nil {
		closeSocket(evFD, evName)
		closeSocket(reqFD, reqName)
		return wfderr.Wrap(wfderr.IO, err, "wpactrl: timerfd_create failed")
	}

	c.reqFD, c.reqName = reqFD, reqName
	c.evFD, c.evName = evFD, evName
	c.timerFD = timerFD

	if err := c.loop.Add(c.reqFD, evloop.Hup|evloop.Err|evloop.In, c.dispatchReq); err != nil {
		c.teardownSockets()
		return err
	}
	if err := c.loop.Add(c.evFD, evloop.Hup|evloop.Err|evloop.In, c.dispatchEv); err != nil {
		_ = c.loop.Remove(c.reqFD)
		c.teardownSockets()
		return err
	}
	if err := c.armTimer(); err != nil {
		_ = c.loop.Remove(c.reqFD)
		_ = c.loop.Remove(c.evFD)
		c.teardownSockets()
		return err
	}
	if err := c.loop.Add(c.timerFD, evloop.Hup|evloop.Err|evloop.In, c.dispatchTimer); err != nil {
		_ = c.loop.Remove(c.reqFD)
		_ = c.loop.Remove(c.evFD)
		c.teardownSockets()
		return err
	}

	return nil
}

func (c *Channel) armTimer() error {
	spec := unix.ItimerSpec{
		Interval: unix.NsecToTimespec(c.pingPeriod.Nanoseconds()),
		Value:    unix.NsecToTimespec(c.pingPeriod.Nanoseconds()),
	}
	if err := unix.TimerfdSettime(c.timerFD, 0, &spec, nil); err != nil {
		return wfderr.Wrap(wfderr.IO, err, "wpactrl: timerfd_settime failed")
	}
	return nil
}

func (c *Channel) disarmTimer() {
	if c.timerFD < 0 {
		return
	}
	var zero unix.ItimerSpec
	_ = unix.TimerfdSettime(c.timerFD, 0, &zero, nil)
}

func (c *Channel) teardownSockets() {
	closeSocket(c.evFD, c.evName)
	c.evFD, c.evName = -1, ""
	closeSocket(c.reqFD, c.reqName)
	c.reqFD, c.reqName = -1, ""
	if c.timerFD >= 0 {
		_ = unix.Close(c.timerFD)
		c.timerFD = -1
	}
}

// Close detaches from the event socket, tears down both sockets and
// the liveness timer, and unregisters from the loop. Close is a no-op
// if already closed.
func (c *Channel) Close() {
	if !c.IsOpen() {
		return
	}

	_, _ = wpaRequest(c.evFD, "DETACH", 0)

	_ = c.loop.Remove(c.evFD)
	_ = c.loop.Remove(c.reqFD)
	_ = c.loop.Remove(c.timerFD)
	c.disarmTimer()
	c.teardownSockets()
}

// Request sends cmd on the request socket and returns the raw reply,
// budgeted by the channel's configured request timeout.
func (c *Channel) Request(cmd string) (string, error) {
	if !c.IsOpen() {
		return "", wfderr.New(wfderr.NotOpen, "wpactrl: channel not open")
	}
	reply, err := wpaRequest(c.reqFD, cmd, c.reqTimeout)
	c.hooks.requestDone(cmd, reply, err)
	return reply, err
}

// RequestOK sends cmd and checks that the reply is exactly "OK\n".
func (c *Channel) RequestOK(cmd string) error {
	reply, err := c.Request(cmd)
	if err != nil {
		return err
	}
	if reply != "OK\n" {
		return wfderr.New(wfderr.IO, "wpactrl: request not acknowledged: "+cmd)
	}
	return nil
}

// dispatchReq drains (and discards) any spurious data on the request
// socket; wpa_supplicant never sends unsolicited data there, but a
// well-behaved channel still keeps the socket buffer from backing up.
func (c *Channel) dispatchReq(events evloop.Events) evloop.Result {
	if events&evloop.In != 0 {
		buf := make([]byte, reqReplyMax)
		for {
			_, _, err := unix.Recvfrom(c.reqFD, buf, unix.MSG_DONTWAIT)
			if err != nil {
				break
			}
		}
	}
	if events&(evloop.Hup|evloop.Err) != 0 {
		c.hooks.error("request socket", wfderr.New(wfderr.BrokenPipe, "wpactrl: request socket closed"))
		c.Close()
	}
	return evloop.Handled
}

// dispatchEv reads every pending event datagram and dispatches
// '<'-prefixed lines to observers, matching read_ev/dispatch_ev.
func (c *Channel) dispatchEv(events evloop.Events) evloop.Result {
	if events&evloop.In != 0 {
		buf := make([]byte, reqReplyMax+1)
		for {
			n, _, err := unix.Recvfrom(c.evFD, buf[:reqReplyMax], unix.MSG_DONTWAIT)
			if err != nil || n <= 0 {
				break
			}
			if buf[0] == '<' {
				line := string(buf[:n])
				c.hooks.eventReceived(line)
				c.dispatchEvent(line)
			}
			if !c.IsOpen() {
				return evloop.Handled
			}
		}
	}
	if events&(evloop.Hup|evloop.Err) != 0 {
		c.hooks.error("event socket", wfderr.New(wfderr.BrokenPipe, "wpactrl: event socket closed"))
		c.Close()
	}
	return evloop.Handled
}

// dispatchTimer sends a PING on timer expiry and requires a PONG
// reply within the same request timeout budget, matching read_tfd.
func (c *Channel) dispatchTimer(events evloop.Events) evloop.Result {
	if events&(evloop.Hup|evloop.Err) != 0 {
		_ = c.loop.Remove(c.timerFD)
		return evloop.Handled
	}

	if events&evloop.In == 0 {
		return evloop.Handled
	}

	var exp [8]byte
	if _, err := unix.Read(c.timerFD, exp[:]); err != nil {
		return evloop.Handled
	}

	reply, err := wpaRequest(c.reqFD, "PING", c.reqTimeout)
	if err != nil || reply != "PONG\n" {
		if err == nil {
			err = wfderr.New(wfderr.Timeout, "wpactrl: PING not acknowledged")
		}
		c.hooks.error("liveness check", err)
		c.Close()
	}
	return evloop.Handled
}
