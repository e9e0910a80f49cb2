package wpactrl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openwfd/wfd/sep"
)

func TestDispatchEventInvokesAllObservers(t *testing.T) {
	c := &Channel{}
	var a, b []string
	c.RegisterObserver(func(_ *Channel, _ sep.Event, line string) { a = append(a, line) })
	c.RegisterObserver(func(_ *Channel, _ sep.Event, line string) { b = append(b, line) })

	c.dispatchEvent("<3>one")
	c.dispatchEvent("<3>two")

	assert.Equal(t, []string{"<3>one", "<3>two"}, a)
	assert.Equal(t, []string{"<3>one", "<3>two"}, b)
}

func TestDispatchEventParsesTaggedPayload(t *testing.T) {
	c := &Channel{}
	var got sep.Event
	c.RegisterObserver(func(_ *Channel, ev sep.Event, _ string) { got = ev })

	c.dispatchEvent("<3>P2P-DEVICE-FOUND 02:0f:08:00:00:01 name=test")

	assert.Equal(t, sep.P2PDeviceFound, got.Tag)
	assert.Equal(t, sep.Warning, got.Priority)
	assert.Equal(t, "02:0f:08:00:00:01", got.MAC)
}

func TestDispatchEventUnrecognizedLineYieldsUnknownTag(t *testing.T) {
	c := &Channel{}
	var got sep.Event
	c.RegisterObserver(func(_ *Channel, ev sep.Event, _ string) { got = ev })

	c.dispatchEvent("<3>CTRL-EVENT-SCAN-STARTED")

	assert.Equal(t, sep.Unknown, got.Tag)
}

func TestUnregisterObserverStopsFutureDelivery(t *testing.T) {
	c := &Channel{}
	var seen []string
	obs := c.RegisterObserver(func(_ *Channel, _ sep.Event, line string) { seen = append(seen, line) })

	c.dispatchEvent("<3>first")
	c.UnregisterObserver(obs)
	c.dispatchEvent("<3>second")

	assert.Equal(t, []string{"<3>first"}, seen)
}

func TestObserverCanUnregisterItselfMidDispatch(t *testing.T) {
	c := &Channel{}
	var calls int
	var self *Observer
	self = c.RegisterObserver(func(ch *Channel, _ sep.Event, _ string) {
		calls++
		ch.UnregisterObserver(self)
	})
	c.RegisterObserver(func(_ *Channel, _ sep.Event, _ string) { calls++ })

	assert.NotPanics(t, func() { c.dispatchEvent("<3>event") })
	assert.Equal(t, 2, calls)

	calls = 0
	c.dispatchEvent("<3>event-again")
	assert.Equal(t, 1, calls, "self-unregistered observer must not run a second time")
}

func TestObserverRegisteredDuringDispatchIsNotCalledThisRound(t *testing.T) {
	c := &Channel{}
	var laterCalled bool
	c.RegisterObserver(func(ch *Channel, _ sep.Event, _ string) {
		ch.RegisterObserver(func(*Channel, sep.Event, string) { laterCalled = true })
	})

	c.dispatchEvent("<3>event")
	assert.False(t, laterCalled, "observer added mid-dispatch must not see the in-flight event")

	c.dispatchEvent("<3>next")
	assert.True(t, laterCalled)
}
