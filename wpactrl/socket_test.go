package wpactrl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestOpenSocketConnectsToListener(t *testing.T) {
	dir := t.TempDir()
	ctrlPath := filepath.Join(dir, "wlan0")

	srv, err := unix.Socket(unix.AF_UNIX, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)
	defer unix.Close(srv)
	require.NoError(t, unix.Bind(srv, &unix.SockaddrUnix{Name: ctrlPath}))
	defer os.Remove(ctrlPath)

	fd, name, err := openSocket(ctrlPath)
	require.NoError(t, err)
	defer closeSocket(fd, name)

	assert.NotEmpty(t, name)
	_, err = os.Stat(name)
	assert.NoError(t, err, "bound temp socket path should exist on disk")

	require.NoError(t, unix.Send(fd, []byte("hello"), 0))
	buf := make([]byte, 16)
	n, _, err := unix.Recvfrom(srv, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
}

func TestOpenSocketFailsWithoutListener(t *testing.T) {
	dir := t.TempDir()
	_, _, err := openSocket(filepath.Join(dir, "does-not-exist"))
	assert.Error(t, err)
}

func TestConnectSocketRejectsOversizedAbstractName(t *testing.T) {
	long := make([]byte, unixPathMax)
	for i := range long {
		long[i] = 'a'
	}
	err := connectSocket(-1, "@abstract:"+string(long))
	assert.Error(t, err)
}

func TestCloseSocketRemovesBoundPath(t *testing.T) {
	dir := t.TempDir()
	ctrlPath := filepath.Join(dir, "wlan0")

	srv, err := unix.Socket(unix.AF_UNIX, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)
	defer unix.Close(srv)
	require.NoError(t, unix.Bind(srv, &unix.SockaddrUnix{Name: ctrlPath}))
	defer os.Remove(ctrlPath)

	fd, name, err := openSocket(ctrlPath)
	require.NoError(t, err)

	closeSocket(fd, name)
	_, err = os.Stat(name)
	assert.True(t, os.IsNotExist(err))
}
