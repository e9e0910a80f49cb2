package wpactrl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/openwfd/wfd/evloop"
	"github.com/openwfd/wfd/sep"
)

// fakeSupplicant is a datagram socket bound at ctrlPath; each serveOnce
// call receives one request and answers it with a canned reply, and
// close unbinds it.
type fakeSupplicant struct {
	fd   int
	path string
}

func newFakeSupplicant(t *testing.T, ctrlPath string) *fakeSupplicant {
	t.Helper()
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)
	require.NoError(t, unix.Bind(fd, &unix.SockaddrUnix{Name: ctrlPath}))
	return &fakeSupplicant{fd: fd, path: ctrlPath}
}

func (f *fakeSupplicant) close() {
	_ = unix.Close(f.fd)
	_ = os.Remove(f.path)
}

func (f *fakeSupplicant) serveOnce(reply string) (from unix.Sockaddr, cmd string, err error) {
	buf := make([]byte, 512)
	n, from, err := unix.Recvfrom(f.fd, buf, 0)
	if err != nil {
		return nil, "", err
	}
	cmd = string(buf[:n])
	if reply != "" {
		_ = unix.Sendto(f.fd, []byte(reply), 0, from)
	}
	return from, cmd, nil
}

func TestChannelOpenAttachesAndClose(t *testing.T) {
	dir := t.TempDir()
	ctrlPath := filepath.Join(dir, "wlan0")
	fake := newFakeSupplicant(t, ctrlPath)
	defer fake.close()

	attached := make(chan struct{})
	go func() {
		// ATTACH on the event socket. Open() only returns once this
		// reply is sent, so attached is closed well before the test
		// goes on to call Close().
		_, cmd, err := fake.serveOnce("OK\n")
		if err == nil && cmd == "ATTACH" {
			close(attached)
		}
		// DETACH on close. Close's own fire-and-forget send lands
		// here regardless of whether anyone is still waiting on it;
		// fake.close() unblocks this Recvfrom if the test ends first.
		_, _, _ = fake.serveOnce("OK\n")
	}()

	loop, err := evloop.New()
	require.NoError(t, err)
	defer loop.Close()

	c := New(loop, WithRequestTimeout(time.Second))
	require.NoError(t, c.Open(ctrlPath))
	assert.True(t, c.IsOpen())

	select {
	case <-attached:
	case <-time.After(time.Second):
		t.Fatal("fake supplicant never completed ATTACH")
	}

	c.Close()
	assert.False(t, c.IsOpen())
}

func TestChannelRequestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctrlPath := filepath.Join(dir, "wlan0")
	fake := newFakeSupplicant(t, ctrlPath)
	defer fake.close()

	go func() {
		_, _, _ = fake.serveOnce("OK\n") // ATTACH
		_, cmd, _ := fake.serveOnce("1\n")
		if !strings.HasPrefix(cmd, "GET") {
			return
		}
		_, _, _ = fake.serveOnce("OK\n") // DETACH
	}()

	loop, err := evloop.New()
	require.NoError(t, err)
	defer loop.Close()

	c := New(loop, WithRequestTimeout(time.Second))
	require.NoError(t, c.Open(ctrlPath))
	defer c.Close()

	reply, err := c.Request("GET wifi_display")
	require.NoError(t, err)
	assert.Equal(t, "1\n", reply)
}

func TestChannelEventDispatchViaLoop(t *testing.T) {
	dir := t.TempDir()
	ctrlPath := filepath.Join(dir, "wlan0")
	fake := newFakeSupplicant(t, ctrlPath)
	defer fake.close()

	attached := make(chan unix.Sockaddr, 1)
	go func() {
		from, cmd, err := fake.serveOnce("OK\n")
		if err != nil || cmd != "ATTACH" {
			return
		}
		attached <- from
	}()

	loop, err := evloop.New()
	require.NoError(t, err)
	defer loop.Close()

	c := New(loop, WithRequestTimeout(time.Second))
	require.NoError(t, c.Open(ctrlPath))
	defer c.Close()

	var receivedLine string
	var receivedEvent sep.Event
	c.RegisterObserver(func(_ *Channel, ev sep.Event, line string) {
		receivedLine = line
		receivedEvent = ev
	})

	evSockAddr := <-attached
	raw := "<3>P2P-DEVICE-FOUND 02:0f:08:00:00:01 name=test"
	require.NoError(t, unix.Sendto(fake.fd, []byte(raw), 0, evSockAddr))

	_, err = loop.Run(100, 1)
	require.NoError(t, err)
	assert.Equal(t, raw, receivedLine)
	assert.Equal(t, sep.P2PDeviceFound, receivedEvent.Tag)
	assert.Equal(t, "02:0f:08:00:00:01", receivedEvent.MAC)
}
