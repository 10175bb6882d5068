package midi

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/PixPMusic/nkonfig/internal/protocol"
	"github.com/PixPMusic/nkonfig/internal/scene"
	"github.com/PixPMusic/nkonfig/internal/trace"
)

// fakeDevice answers requests the way a nanoKONTROL2 on channel 0 does.
type fakeDevice struct {
	mu    sync.Mutex
	sent  [][]byte
	scene *scene.Scene
	link  *Link
	mute  bool
}

func (d *fakeDevice) send(msg []byte) error {
	d.mu.Lock()
	d.sent = append(d.sent, append([]byte(nil), msg...))
	mute := d.mute
	d.mu.Unlock()
	if mute {
		return nil
	}

	dev := protocol.Device{Variant: scene.VariantNanoKontrol2}
	switch {
	case bytes.HasPrefix(msg, []byte{0xF0, 0x42, 0x50, 0x00}):
		d.link.Deliver([]byte{0xF0, 0x42, 0x50, 0x01, 0x00, msg[4], 0x13, 0x01, 0x00, 0x00, 0x03, 0x00, 0x01, 0x00, 0xF7})
	case len(msg) < 10:
	case bytes.Equal(msg[7:10], []byte{0x1F, 0x10, 0x00}):
		dump, err := dev.SceneUpload(d.scene)
		if err != nil {
			return err
		}
		d.link.Deliver(dump)
	case bytes.Equal(msg[7:10], []byte{0x7F, 0x7F, 0x02}):
		d.link.Deliver([]byte{0xF0, 0x42, 0x40, 0x00, 0x01, 0x13, 0x00, 0x5F, 0x23, 0x00, 0xF7})
	}
	return nil
}

func (d *fakeDevice) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

type memRecorder struct {
	mu   sync.Mutex
	dirs []trace.Direction
}

func (r *memRecorder) Record(dir trace.Direction, _ string, _ []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirs = append(r.dirs, dir)
	return nil
}

func newTestLink(t *testing.T, opts ...protocol.Option) (*Link, *fakeDevice, *protocol.Session) {
	t.Helper()
	s := protocol.NewSession(append([]protocol.Option{
		protocol.WithLogger(zaptest.NewLogger(t)),
		protocol.WithEchoID(0x33),
	}, opts...)...)
	dev := &fakeDevice{scene: scene.New(scene.VariantNanoKontrol2)}
	link := NewLink(s, dev.send, WithLogger(zaptest.NewLogger(t)))
	dev.link = link
	return link, dev, s
}

func TestAwaitDetectAndDump(t *testing.T) {
	link, dev, s := newTestLink(t)
	require.True(t, dev.scene.SetGlobalChannel(5))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ev, err := link.Await(ctx, Kinds(protocol.KindDeviceSearchReply), s.RequestSearch)
	require.NoError(t, err)
	assert.Equal(t, scene.VariantNanoKontrol2, ev.Variant)
	assert.Equal(t, protocol.StateVariantKnown, s.State())

	ev, err = link.Await(ctx, Kinds(protocol.KindSceneDump), s.RequestDump)
	require.NoError(t, err)
	assert.Equal(t, protocol.KindSceneDump, ev.Kind)

	got, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, uint8(5), got.GlobalChannel())

	ev, err = link.Await(ctx, Kinds(protocol.KindLoadAck, protocol.KindLoadNak), s.RequestUpload)
	require.NoError(t, err)
	assert.Equal(t, protocol.KindLoadAck, ev.Kind)
}

func TestAwaitTimeout(t *testing.T) {
	link, dev, s := newTestLink(t, protocol.WithVariant(scene.VariantNanoKontrol2))
	dev.mute = true

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := link.Await(ctx, Kinds(protocol.KindSceneDump), s.RequestDump)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, dev.count())
}

func TestAwaitRequestError(t *testing.T) {
	link, dev, s := newTestLink(t)

	_, err := link.Await(context.Background(), Kinds(protocol.KindSceneDump), s.RequestDump)
	assert.ErrorIs(t, err, protocol.ErrNoVariant)
	assert.Equal(t, 0, dev.count())
}

func TestFlushSendError(t *testing.T) {
	s := protocol.NewSession(protocol.WithVariant(scene.VariantNanoKontrol))
	boom := errors.New("boom")
	link := NewLink(s, func([]byte) error { return boom })

	sent, err := link.Flush()
	require.NoError(t, err)
	assert.False(t, sent)

	require.NoError(t, s.RequestDump())
	sent, err = link.Flush()
	assert.True(t, sent)
	assert.ErrorIs(t, err, boom)
}

func TestPump(t *testing.T) {
	link, dev, s := newTestLink(t, protocol.WithVariant(scene.VariantNanoKontrol2))
	dev.mute = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- link.Pump(ctx, time.Millisecond) }()

	require.NoError(t, s.RequestQueryMode())
	require.Eventually(t, func() bool { return dev.count() == 1 }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestForward(t *testing.T) {
	link, dev, s := newTestLink(t, protocol.WithVariant(scene.VariantNanoKontrol2))
	dev.mute = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- link.Forward(ctx) }()

	require.NoError(t, s.RequestInquiry())
	require.Eventually(t, func() bool { return dev.count() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, s.RequestPortDetect())
	require.Eventually(t, func() bool { return dev.count() == 2 }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRecorderSeesBothDirections(t *testing.T) {
	link, _, s := newTestLink(t)
	rec := &memRecorder{}
	link.rec = rec

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := link.Await(ctx, Kinds(protocol.KindDeviceSearchReply), s.RequestSearch)
	require.NoError(t, err)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []trace.Direction{trace.DirectionOut, trace.DirectionIn}, rec.dirs)
}

func TestDeliverCopiesInput(t *testing.T) {
	link, _, _ := newTestLink(t, protocol.WithVariant(scene.VariantNanoKontrol2))
	buf := []byte{0xB0, 0x10, 0x40}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := link.Await(ctx, Kinds(protocol.KindChannelVoice), func() error {
		link.Deliver(buf)
		buf[2] = 0x00
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, byte(0x40), ev.Raw[2])
}
