package wpactrl

import "github.com/openwfd/wfd/sep"

// EventFunc receives one unsolicited event from a Channel's event
// socket, already tagged and field-extracted by sep.Parse. ev.Raw
// holds the payload text for callers that want it verbatim; the full
// line as it arrived on the wire is passed separately as line.
type EventFunc func(c *Channel, ev sep.Event, line string)

// Observer is the token returned by Channel.RegisterObserver, used to
// unregister the callback later.
type Observer struct {
	fn EventFunc
}

// RegisterObserver registers fn to be called for every future event.
// The returned token identifies this registration for
// UnregisterObserver.
func (c *Channel) RegisterObserver(fn EventFunc) *Observer {
	obs := &Observer{fn: fn}
	c.observers = append(c.observers, obs)
	return obs
}

// UnregisterObserver unregisters obs. It is safe to call from inside
// an observer callback, including the callback currently being
// dispatched.
func (c *Channel) UnregisterObserver(obs *Observer) {
	for i, o := range c.observers {
		if o == obs {
			c.observers = append(c.observers[:i], c.observers[i+1:]...)
			return
		}
	}
}

// dispatchEvent parses line with sep.Parse and invokes every currently
// registered observer with the result, over a snapshot of the
// observer slice taken before the first call. An observer that
// unregisters itself (or registers a new observer) mid-dispatch
// neither corrupts iteration nor is skipped nor is invoked for an
// event added after dispatch began. A line whose payload sep.Parse
// rejects is still delivered, with the Tag and Priority Parse identified
// and its payload fields left empty, so an observer watching for raw
// text isn't starved by a parse failure.
func (c *Channel) dispatchEvent(line string) {
	ev, _ := sep.Parse(line)

	snapshot := make([]*Observer, len(c.observers))
	copy(snapshot, c.observers)

	for _, obs := range snapshot {
		obs.fn(c, ev, line)
	}
}
