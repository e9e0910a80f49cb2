package wpactrl

import "log"

// Hooks defines trace callbacks a caller can observe a Channel's
// lifecycle through, matching the teacher's SessionTrace/ServerHooks
// shape (v2/snmp/trace.go, v2/snmp/serverhooks.go).
type Hooks struct {
	// StartupDone is called once Dial's supplicant-startup wait
	// completes, successfully or not.
	StartupDone func(args *SupplicantArgs, err error)
	// RequestDone is called after a Request round-trip completes.
	RequestDone func(cmd string, reply string, err error)
	// EventReceived is called for every unsolicited '<'-prefixed line
	// delivered on the event socket, before observers are dispatched.
	EventReceived func(line string)
	// Error is called after an error condition is detected that isn't
	// otherwise reported through a *Done hook.
	Error func(context string, err error)
}

// DefaultHooks logs errors via the standard logger and no-ops
// everything else.
var DefaultHooks = &Hooks{
	Error: func(context string, err error) {
		log.Printf("wpactrl: %s: %v", context, err)
	},
}

// NoOpHooks does nothing for every callback.
var NoOpHooks = &Hooks{
	StartupDone:   func(*SupplicantArgs, error) {},
	RequestDone:   func(string, string, error) {},
	EventReceived: func(string) {},
	Error:         func(string, error) {},
}

func (h *Hooks) startupDone(args *SupplicantArgs, err error) {
	if h != nil && h.StartupDone != nil {
		h.StartupDone(args, err)
	}
}

func (h *Hooks) requestDone(cmd, reply string, err error) {
	if h != nil && h.RequestDone != nil {
		h.RequestDone(cmd, reply, err)
	}
}

func (h *Hooks) eventReceived(line string) {
	if h != nil && h.EventReceived != nil {
		h.EventReceived(line)
	}
}

func (h *Hooks) error(context string, err error) {
	if h != nil && h.Error != nil {
		h.Error(context, err)
	}
}
