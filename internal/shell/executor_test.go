package shell

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/PixPMusic/nkonfig/internal/editor"
	"github.com/PixPMusic/nkonfig/internal/midi"
	"github.com/PixPMusic/nkonfig/internal/protocol"
	"github.com/PixPMusic/nkonfig/internal/scene"
)

// newTestExecutor wires an executor to a device that acknowledges uploads
// and scene writes and stays silent otherwise.
func newTestExecutor(t *testing.T) (*Executor, *[][]byte) {
	t.Helper()
	log := zaptest.NewLogger(t)
	s := protocol.NewSession(protocol.WithLogger(log))

	var sent [][]byte
	var link *midi.Link
	send := func(msg []byte) error {
		sent = append(sent, msg)
		if len(msg) < 10 {
			return nil
		}
		prefix := msg[:7]
		switch {
		case bytes.Equal(msg[7:10], []byte{0x7F, 0x7F, 0x02}):
			link.Deliver(append(append([]byte(nil), prefix...), 0x5F, 0x23, 0x00, 0xF7))
		case msg[7] == 0x1F && msg[8] == 0x11:
			link.Deliver(append(append([]byte(nil), prefix...), 0x5F, 0x22, 0x00, 0xF7))
		}
		return nil
	}
	link = midi.NewLink(s, send, midi.WithLogger(log))
	return NewExecutor(editor.New(s, link, log, 50*time.Millisecond)), &sent
}

func run(t *testing.T, e *Executor, line string) string {
	t.Helper()
	out, err := e.Execute(context.Background(), line)
	require.NoError(t, err, line)
	return out
}

func TestHelpListsCommands(t *testing.T) {
	e, _ := newTestExecutor(t)
	out := run(t, e, "help")
	for _, name := range e.Commands() {
		assert.Contains(t, out, name)
	}
	assert.Equal(t, out, run(t, e, "?"))
}

func TestUnknownCommand(t *testing.T) {
	e, _ := newTestExecutor(t)
	_, err := e.Execute(context.Background(), "frobnicate")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	out, err := e.Execute(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestEditCommands(t *testing.T) {
	e, sent := newTestExecutor(t)

	assert.Equal(t, "selected nanoKONTROL2", run(t, e, "variant nk2"))
	assert.Equal(t, "1/knob/cmd = 16", run(t, e, "get 1/knob/cmd"))
	assert.Equal(t, "4/button-a/behaviour = 0", run(t, e, "get 4 solo behaviour"))

	assert.Equal(t, "2/slider/cmd = 100", run(t, e, "set 2/slider/cmd 100"))
	assert.Equal(t, "2/slider/cmd = 100", run(t, e, "get 2/slider/cmd"))
	assert.Equal(t, "transport/play/max = 64", run(t, e, "set t play on 0x40"))

	run(t, e, "channel global 9")
	run(t, e, "channel 3 16")
	run(t, e, "led 0")
	run(t, e, "ctrlmode 2")

	show := run(t, e, "show")
	assert.Contains(t, show, "global_channel: 9")
	assert.Contains(t, show, "led_mode: 0")
	assert.Contains(t, show, "control_mode: 2")

	assert.Equal(t, "scene uploaded", run(t, e, "u"))
	last := (*sent)[len(*sent)-1]
	ev := protocol.Device{Variant: scene.VariantNanoKontrol2}.Classify(last)
	require.Equal(t, protocol.KindSceneDump, ev.Kind)

	_, err := e.Execute(context.Background(), "write 2")
	assert.ErrorIs(t, err, editor.ErrRejected)
}

func TestEditErrors(t *testing.T) {
	e, _ := newTestExecutor(t)
	ctx := context.Background()

	_, err := e.Execute(ctx, "get 1/knob/cmd")
	assert.Error(t, err, "no variant yet")

	run(t, e, "variant nanokontrol")
	_, err = e.Execute(ctx, "set 1/knob/cmd 300")
	assert.Error(t, err)
	_, err = e.Execute(ctx, "set 1/knob/assign 3")
	assert.ErrorIs(t, err, editor.ErrOutOfRange)
	_, err = e.Execute(ctx, "set 1/knob")
	assert.ErrorIs(t, err, ErrUsage)
	_, err = e.Execute(ctx, "led 1")
	assert.ErrorIs(t, err, editor.ErrOutOfRange)
	_, err = e.Execute(ctx, "write 0")
	assert.ErrorIs(t, err, ErrUsage)
	_, err = e.Execute(ctx, "write 5")
	assert.ErrorIs(t, err, protocol.ErrInvalidScene)
	_, err = e.Execute(ctx, "native maybe")
	assert.ErrorIs(t, err, ErrUsage)
	_, err = e.Execute(ctx, "variant microkontrol")
	assert.ErrorIs(t, err, editor.ErrUnknownName)
}

func TestNameAndDescribe(t *testing.T) {
	e, _ := newTestExecutor(t)
	run(t, e, "variant nk1")
	run(t, e, "name My Live Set")

	show := run(t, e, "show")
	assert.Contains(t, show, "My Live Set")

	desc := run(t, e, "describe")
	assert.Contains(t, desc, "variant: nanoKONTROL")
	assert.Contains(t, desc, "transport_base: 216")

	desc = run(t, e, "describe nk2")
	assert.Contains(t, desc, "transport_base: 251")
}

func TestStatusAndPortDetect(t *testing.T) {
	e, sent := newTestExecutor(t)
	out := run(t, e, "status")
	assert.True(t, strings.HasPrefix(out, "state: idle"))

	_, err := e.Execute(context.Background(), "port-detect")
	assert.ErrorIs(t, err, protocol.ErrNoVariant)

	run(t, e, "variant 2")
	assert.Equal(t, "sent", run(t, e, "port-detect"))
	require.Len(t, *sent, 1)
	assert.Contains(t, run(t, e, "status"), "variant: nanoKONTROL2")
}

func TestDeviceTimeout(t *testing.T) {
	e, _ := newTestExecutor(t)
	_, err := e.Execute(context.Background(), "detect")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
