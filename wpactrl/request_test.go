package wpactrl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// dgramPair returns two connected UNIX datagram sockets so wpaRequest
// can be exercised without a real supplicant. They are left blocking:
// wpaRequest itself only ever reads with MSG_DONTWAIT after a poll, so
// a blocking fd lets a test's peer goroutine use a plain Read/Recvfrom
// without racing wpaRequest's non-blocking send.
func dgramPair(t *testing.T) (int, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestWpaRequestRoundTrip(t *testing.T) {
	client, server := dgramPair(t)

	go func() {
		buf := make([]byte, 64)
		n, _ := unix.Read(server, buf)
		if string(buf[:n]) == "PING" {
			_ = unix.Send(server, []byte("PONG\n"), 0)
		}
	}()

	reply, err := wpaRequest(client, "PING", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "PONG\n", reply)
}

func TestWpaRequestSkipsEventDatagrams(t *testing.T) {
	client, server := dgramPair(t)

	go func() {
		_ = unix.Send(server, []byte("<3>CTRL-EVENT-SCAN-STARTED"), 0)
		time.Sleep(5 * time.Millisecond)
		_ = unix.Send(server, []byte("OK\n"), 0)
	}()

	reply, err := wpaRequest(client, "ATTACH", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "OK\n", reply)
}

func TestWpaRequestTimesOutWithoutReply(t *testing.T) {
	client, _ := dgramPair(t)

	_, err := wpaRequest(client, "PING", 20*time.Millisecond)
	assert.Error(t, err)
}

func TestWpaRequestRejectsClosedSocket(t *testing.T) {
	_, err := wpaRequest(-1, "PING", time.Second)
	assert.Error(t, err)
}
