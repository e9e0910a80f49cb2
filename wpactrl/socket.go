package wpactrl

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/openwfd/wfd/wfderr"
)

// unixPathMax mirrors sizeof(((struct sockaddr_un*)0)->sun_path) on
// Linux; sockaddr_un.Path is a [108]byte array in golang.org/x/sys/unix.
const unixPathMax = 108

// tempSocketCounter makes the temporary bind path unique across
// repeated Dial calls within one process, alongside the random UUID
// suffix that replaces the original's racy mktemp().
var tempSocketCounter uint64

// tempSocketPath builds a candidate bind path for our end of a
// datagram control socket. The original uses mktemp() against a
// "-XXXXXX" template, which is inherently racy; we use a
// google/uuid-derived suffix instead, keeping bind_socket's
// retry-on-EADDRINUSE as the actual race guard.
func tempSocketPath() string {
	n := atomic.AddUint64(&tempSocketCounter, 1)
	return fmt.Sprintf("/tmp/openwfd-wpa-ctrl-%d-%d-%s", os.Getpid(), n, uuid.NewString()[:8])
}

// bindSocket binds fd to a freshly generated temporary path, retrying
// once with a new path on EADDRINUSE (mirrors bind_socket's single
// retry after unlinking the stale path).
func bindSocket(fd int) (string, error) {
	name := tempSocketPath()
	err := unix.Bind(fd, &unix.SockaddrUnix{Name: name})
	if err == nil {
		return name, nil
	}
	if err != unix.EADDRINUSE {
		return "", wfderr.Wrap(wfderr.IO, err, "wpactrl: bind failed")
	}

	_ = unix.Unlink(name)
	name = tempSocketPath()
	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: name}); err != nil {
		return "", wfderr.Wrap(wfderr.IO, err, "wpactrl: bind retry failed")
	}
	return name, nil
}

// connectSocket connects fd to ctrlPath, translating the "@abstract:"
// convention into the Linux abstract-namespace form (a leading NUL
// byte instead of an on-disk path).
func connectSocket(fd int, ctrlPath string) error {
	addr := &unix.SockaddrUnix{Name: ctrlPath}
	if strings.HasPrefix(ctrlPath, "@abstract:") {
		rest := strings.TrimPrefix(ctrlPath, "@abstract:")
		if len(rest) > unixPathMax-2 {
			return wfderr.New(wfderr.InvalidArgument, "wpactrl: abstract socket name too long")
		}
		addr = &unix.SockaddrUnix{Name: "\x00" + rest}
	} else if len(ctrlPath) > unixPathMax-1 {
		return wfderr.New(wfderr.InvalidArgument, "wpactrl: socket path too long")
	}

	if err := unix.Connect(fd, addr); err != nil {
		return wfderr.Wrap(wfderr.IO, err, "wpactrl: connect failed")
	}
	return nil
}

// openSocket creates a non-blocking, close-on-exec UNIX datagram
// socket, binds it to a temporary path and connects it to ctrlPath.
// The returned name must be unlinked by the caller once the socket is
// closed.
func openSocket(ctrlPath string) (fd int, name string, err error) {
	fd, err = unix.Socket(unix.AF_UNIX, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return -1, "", wfderr.Wrap(wfderr.IO, err, "wpactrl: socket failed")
	}

	name, err = bindSocket(fd)
	if err != nil {
		_ = unix.Close(fd)
		return -1, "", err
	}

	if err := connectSocket(fd, ctrlPath); err != nil {
		_ = unix.Unlink(name)
		_ = unix.Close(fd)
		return -1, "", err
	}

	return fd, name, nil
}

// closeSocket closes fd and removes its bound temporary path.
func closeSocket(fd int, name string) {
	if fd >= 0 {
		_ = unix.Close(fd)
	}
	if name != "" {
		_ = unix.Unlink(name)
	}
}
