package wpactrl

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/openwfd/wfd/wfderr"
)

// reqReplyMax mirrors REQ_REPLY_MAX: wpa_supplicant control replies
// never exceed this on a single datagram.
const reqReplyMax = 512

// maxRequestTimeout mirrors wpa_request's "use a maximum of 1000ms"
// clamp: a caller-specified budget is never allowed to stall a
// request-reply round trip past one second.
const maxRequestTimeout = time.Second

// timedSend sends cmd on fd, retrying until deadline on EAGAIN/EINTR,
// exactly like wpa_ctrl.c's timed_send but driven by a time.Time
// deadline instead of a mutable microsecond budget.
func timedSend(fd int, cmd []byte, deadline time.Time) error {
	for {
		timeoutMS := 0
		if remaining := time.Until(deadline); remaining > 0 {
			timeoutMS = int(remaining / time.Millisecond)
		}

		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLHUP | unix.POLLERR | unix.POLLOUT}}
		n, err := unix.Poll(fds, timeoutMS)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				if time.Until(deadline) > 0 {
					continue
				}
				return wfderr.New(wfderr.Timeout, "wpactrl: send timed out")
			}
			return wfderr.Wrap(wfderr.IO, err, "wpactrl: poll failed")
		}
		if n == 0 {
			return wfderr.New(wfderr.Timeout, "wpactrl: send timed out")
		}
		if fds[0].Revents&(unix.POLLHUP|unix.POLLERR) != 0 {
			return wfderr.New(wfderr.BrokenPipe, "wpactrl: request socket closed")
		}

		err = unix.Send(fd, cmd, unix.MSG_NOSIGNAL)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				if time.Until(deadline) > 0 {
					continue
				}
				return wfderr.New(wfderr.Timeout, "wpactrl: send timed out")
			}
			return wfderr.Wrap(wfderr.IO, err, "wpactrl: send failed")
		}
		return nil
	}
}

// timedRecv receives a reply on fd, ignoring any '<'-prefixed event
// datagram (those are dispatched separately on the event socket, but a
// defensive skip mirrors timed_recv's comment that the request socket
// should never see one).
func timedRecv(fd int, deadline time.Time) (string, error) {
	buf := make([]byte, reqReplyMax)
	for {
		timeoutMS := 0
		if remaining := time.Until(deadline); remaining > 0 {
			timeoutMS = int(remaining / time.Millisecond)
		}

		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLHUP | unix.POLLERR | unix.POLLIN}}
		n, err := unix.Poll(fds, timeoutMS)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				if time.Until(deadline) > 0 {
					continue
				}
				return "", wfderr.New(wfderr.Timeout, "wpactrl: recv timed out")
			}
			return "", wfderr.Wrap(wfderr.IO, err, "wpactrl: poll failed")
		}
		if n == 0 {
			return "", wfderr.New(wfderr.Timeout, "wpactrl: recv timed out")
		}
		if fds[0].Revents&(unix.POLLHUP|unix.POLLERR) != 0 {
			return "", wfderr.New(wfderr.BrokenPipe, "wpactrl: request socket closed")
		}

		l, _, err := unix.Recvfrom(fd, buf, unix.MSG_DONTWAIT)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				if time.Until(deadline) > 0 {
					continue
				}
				return "", wfderr.New(wfderr.Timeout, "wpactrl: recv timed out")
			}
			return "", wfderr.Wrap(wfderr.IO, err, "wpactrl: recv failed")
		}
		if l > 0 && buf[0] != '<' {
			return string(buf[:l]), nil
		}
		if time.Until(deadline) <= 0 {
			return "", wfderr.New(wfderr.Timeout, "wpactrl: recv timed out")
		}
	}
}

// wpaRequest performs one send/recv round trip on fd, budgeted by
// timeout. A negative or over-long timeout is clamped to
// maxRequestTimeout, matching wpa_request; a timeout of exactly zero
// is left alone, giving a non-blocking, fire-and-forget attempt (used
// by Close's best-effort DETACH).
func wpaRequest(fd int, cmd string, timeout time.Duration) (string, error) {
	if fd < 0 {
		return "", wfderr.New(wfderr.NotOpen, "wpactrl: socket not open")
	}
	if timeout < 0 || timeout > maxRequestTimeout {
		timeout = maxRequestTimeout
	}
	deadline := time.Now().Add(timeout)

	if err := timedSend(fd, []byte(cmd), deadline); err != nil {
		return "", err
	}
	return timedRecv(fd, deadline)
}
