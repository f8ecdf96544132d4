package transport

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDispatcher_SubscribeAndDispatch(t *testing.T) {
	d := newTestDispatcher()

	var got []string
	d.Subscribe("entity:created", func(p json.RawMessage) { got = append(got, "first:"+string(p)) })
	d.Subscribe("entity:created", func(p json.RawMessage) { got = append(got, "second:"+string(p)) })
	d.Subscribe("entity:deleted", func(p json.RawMessage) { got = append(got, "other") })

	d.Dispatch("entity:created", json.RawMessage(`1`))

	assert.Equal(t, []string{"first:1", "second:1"}, got)
}

func TestDispatcher_UnsubscribeRemovesEmptySet(t *testing.T) {
	d := newTestDispatcher()

	unsubA := d.Subscribe("ping", func(json.RawMessage) {})
	unsubB := d.Subscribe("ping", func(json.RawMessage) {})
	assert.Equal(t, 2, d.HandlerCount("ping"))

	unsubA()
	unsubA() // повторный вызов ничего не делает
	assert.Equal(t, 1, d.HandlerCount("ping"))
	assert.Equal(t, 1, d.EventCount())

	unsubB()
	assert.Equal(t, 0, d.HandlerCount("ping"))
	assert.Equal(t, 0, d.EventCount(), "empty handler set must be removed")
}

func TestDispatcher_UnsubscribeDoesNotAffectOthers(t *testing.T) {
	d := newTestDispatcher()

	calls := 0
	unsub := d.Subscribe("x", func(json.RawMessage) { t.Fatal("unsubscribed handler called") })
	d.Subscribe("x", func(json.RawMessage) { calls++ })

	unsub()
	d.Dispatch("x", nil)

	assert.Equal(t, 1, calls)
}

func TestDispatcher_EmitStatus(t *testing.T) {
	d := newTestDispatcher()

	var seen []Status
	unsub := d.OnStatusChange(func(s Status) { seen = append(seen, s) })

	d.EmitStatus(StatusConnecting)
	d.EmitStatus(StatusConnected)
	unsub()
	d.EmitStatus(StatusDisconnected)

	assert.Equal(t, []Status{StatusConnecting, StatusConnected}, seen)
}

func TestDispatcher_HandlerPanicIsContained(t *testing.T) {
	d := newTestDispatcher()

	called := false
	d.Subscribe("x", func(json.RawMessage) { panic("boom") })
	d.Subscribe("x", func(json.RawMessage) { called = true })

	assert.NotPanics(t, func() { d.Dispatch("x", nil) })
	assert.True(t, called)
}
