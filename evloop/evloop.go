// Package evloop is a minimal single-threaded, readiness-driven event
// loop. SCC and RF components register their file descriptors here
// instead of each owning a private polling instance, so exactly one
// thread blocks in the kernel at a time.
package evloop

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/openwfd/wfd/wfderr"
)

// Events is a bitmask of readiness conditions, using the same bit
// values as golang.org/x/sys/unix's EPOLL* constants so callers can
// compose them directly.
type Events = uint32

const (
	In  Events = unix.EPOLLIN
	Out Events = unix.EPOLLOUT
	Hup Events = unix.EPOLLHUP
	Err Events = unix.EPOLLERR
)

// Result is the outcome of a Handler invocation, consumed by Run to
// decide whether the loop keeps going.
type Result int

const (
	Handled Result = iota
	NotHandled
	Quit
	Error
)

// Handler is invoked with the readiness mask observed for the fd it
// was registered against.
type Handler func(events Events) Result

const maxReadyEvents = 64

// Loop is a thin wrapper around a single epoll instance. It is not
// safe for concurrent use; it is meant to be driven from one thread.
type Loop struct {
	epfd     int
	handlers map[int]Handler
}

// New creates an empty Loop backed by a fresh epoll instance.
func New() (*Loop, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, wfderr.Wrap(wfderr.IO, err, "evloop: epoll_create1 failed")
	}
	return &Loop{epfd: fd, handlers: make(map[int]Handler)}, nil
}

// Close releases the loop's epoll instance. Registered fds are not
// closed; ownership of those stays with the caller.
func (l *Loop) Close() error {
	return unix.Close(l.epfd)
}

// Add registers fd for the given readiness events, invoking h whenever
// Wait/Run observes activity on it.
func (l *Loop) Add(fd int, events Events, h Handler) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return wfderr.Wrap(wfderr.IO, err, "evloop: epoll_ctl add failed")
	}
	l.handlers[fd] = h
	return nil
}

// Modify changes the readiness events a registered fd waits for.
func (l *Loop) Modify(fd int, events Events) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return wfderr.Wrap(wfderr.IO, err, "evloop: epoll_ctl mod failed")
	}
	return nil
}

// Remove unregisters fd. It is not an error to remove an fd that was
// already closed out from under the loop (epoll drops it implicitly).
func (l *Loop) Remove(fd int) error {
	delete(l.handlers, fd)
	err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	if err != nil && !errors.Is(err, unix.ENOENT) && !errors.Is(err, unix.EBADF) {
		return wfderr.Wrap(wfderr.IO, err, "evloop: epoll_ctl del failed")
	}
	return nil
}

// Wait blocks for up to timeoutMS milliseconds (negative means
// indefinitely) and returns the fds that became ready, up to 64 at a
// time. EAGAIN/EINTR yield a nil, nil result rather than an error.
func (l *Loop) Wait(timeoutMS int) ([]unix.EpollEvent, error) {
	var raw [maxReadyEvents]unix.EpollEvent

	n, err := unix.EpollWait(l.epfd, raw[:], timeoutMS)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
			return nil, nil
		}
		return nil, wfderr.Wrap(wfderr.IO, err, "evloop: epoll_wait failed")
	}
	return raw[:n], nil
}

// Run drives the loop: it waits for readiness, dispatches each ready
// fd to its Handler, and keeps going until a Handler returns Quit or
// Error, or until maxIterations rounds of Wait have completed, in which
// case it returns Handled. A maxIterations of 0 or less runs forever.
func (l *Loop) Run(timeoutMS, maxIterations int) (Result, error) {
	for i := 0; maxIterations <= 0 || i < maxIterations; i++ {
		ready, err := l.Wait(timeoutMS)
		if err != nil {
			return Error, err
		}

		for _, ev := range ready {
			h, ok := l.handlers[int(ev.Fd)]
			if !ok {
				continue
			}
			switch h(ev.Events) {
			case Quit:
				return Quit, nil
			case Error:
				return Error, wfderr.New(wfderr.IO, "evloop: handler reported error")
			}
		}
	}
	return Handled, nil
}
