package wpactrl

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/openwfd/wfd/evloop"
	"github.com/openwfd/wfd/wfderr"
)

// pollSlice bounds how long a single fsnotify wait waits before
// re-checking the child's liveness, matching wait_for_wpa's 100ms
// polling rounds.
const pollSlice = 100 * time.Millisecond

// Dial forks and execs a supplicant process per args, waits for its
// control socket to appear, connects a Channel to it, and returns the
// opened Channel. If Dial fails after forking, the child is killed
// before returning. Mirrors fork_wpa + wait_for_wpa +
// owfd_wpa_ctrl_open from p2pd_interface.c.
func Dial(ctx context.Context, loop *evloop.Loop, args SupplicantArgs, opts ...Option) (*Channel, error) {
	cfg := resolveConfig(opts)

	binary, err := args.binary()
	if err != nil {
		return nil, wfderr.Wrap(wfderr.NotFound, err, "wpactrl: wpa_supplicant not found")
	}

	cmd := exec.CommandContext(ctx, binary,
		"-D"+args.driver(),
		"-qq",
		"-C", args.CtrlDir,
		"-i", args.Iface,
	)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		err = wfderr.Wrap(wfderr.ChildDied, err, "wpactrl: failed to start wpa_supplicant")
		cfg.Hooks.startupDone(&args, err)
		return nil, err
	}

	ctrlPath := filepath.Join(args.CtrlDir, args.Iface)

	deadline := time.Now().Add(cfg.StartupTimeout)
	if err := waitForSocket(cmd.Process, ctrlPath, deadline); err != nil {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
		cfg.Hooks.startupDone(&args, err)
		return nil, err
	}

	c := New(loop, opts...)
	if err := c.Open(ctrlPath); err != nil {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
		cfg.Hooks.startupDone(&args, err)
		return nil, err
	}
	c.child = cmd.Process

	cfg.Hooks.startupDone(&args, nil)
	return c, nil
}

// waitForSocket blocks until ctrlPath exists. It does not try to
// connect to the socket; Dial's Channel.Open does that afterwards. A
// watch on the
// containing directory is armed before the existence check so a
// create event between the check and the watch can never be missed
// (the race wait_for_wpa's own comment calls out).
func waitForSocket(proc *os.Process, ctrlPath string, deadline time.Time) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return wfderr.Wrap(wfderr.IO, err, "wpactrl: fsnotify.NewWatcher failed")
	}
	defer watcher.Close()

	dir := filepath.Dir(ctrlPath)
	if err := watcher.Add(dir); err != nil {
		return wfderr.Wrap(wfderr.IO, err, fmt.Sprintf("wpactrl: watch %s failed", dir))
	}

	for {
		if !isAlive(proc) {
			return wfderr.New(wfderr.ChildDied, "wpactrl: wpa_supplicant died during startup")
		}
		if _, err := os.Stat(ctrlPath); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return wfderr.New(wfderr.Timeout, "wpactrl: timed out waiting for wpa_supplicant startup")
		}

		wait := time.Until(deadline)
		if wait > pollSlice {
			wait = pollSlice
		}

		select {
		case <-watcher.Events:
		case <-watcher.Errors:
		case <-time.After(wait):
		}
	}
}

// isAlive is the non-blocking liveness probe is_child_alive performs:
// a WNOHANG waitpid, which both checks and reaps in one call so a
// child that has already exited is detected immediately rather than
// only once its PID could otherwise be recycled. Signal(0) would only
// prove the PID slot still exists, which stays true for an unreaped
// zombie and would misreport a supplicant that died during startup as
// alive until StartupTimeout elapsed.
func isAlive(proc *os.Process) bool {
	var status syscall.WaitStatus
	pid, err := syscall.Wait4(proc.Pid, &status, syscall.WNOHANG, nil)
	if err != nil {
		// ECHILD means something else already reaped this pid; treat
		// it as dead rather than spin until the deadline.
		return false
	}
	return pid == 0
}

// Terminate asks the supervised supplicant to shut down via a
// synchronous TERMINATE request, falling back to SIGTERM if it
// doesn't acknowledge. Mirrors kill_wpa. It is a no-op if Dial was not
// used to create c (c.child is nil).
func (c *Channel) Terminate() {
	if c.child == nil {
		return
	}

	if c.IsOpen() {
		if err := c.RequestOK("TERMINATE"); err == nil {
			_, _ = c.child.Wait()
			return
		}
		if !isAlive(c.child) {
			return
		}
	}

	_ = c.child.Signal(syscall.SIGTERM)
	_, _ = c.child.Wait()
}
