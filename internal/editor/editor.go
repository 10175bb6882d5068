// Package editor runs request and reply exchanges with the device on top of a
// session and its link.
package editor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/PixPMusic/nkonfig/internal/midi"
	"github.com/PixPMusic/nkonfig/internal/protocol"
	"github.com/PixPMusic/nkonfig/internal/scene"
)

var (
	ErrRejected   = errors.New("device rejected the request")
	ErrOutOfRange = errors.New("value out of range")
)

// Editor performs device operations, each waiting up to a reply timeout.
type Editor struct {
	session *protocol.Session
	link    *midi.Link
	log     *zap.Logger
	timeout time.Duration
}

// New creates an editor. Every device exchange waits at most timeout.
func New(s *protocol.Session, l *midi.Link, log *zap.Logger, timeout time.Duration) *Editor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Editor{session: s, link: l, log: log, timeout: timeout}
}

// Session returns the session the editor works on.
func (e *Editor) Session() *protocol.Session {
	return e.session
}

func (e *Editor) exchange(ctx context.Context, request func() error, kinds ...protocol.Kind) (protocol.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.link.Await(ctx, midi.Kinds(kinds...), request)
}

// Detect searches for the device and adopts the variant it reports.
func (e *Editor) Detect(ctx context.Context) (protocol.Event, error) {
	ev, err := e.exchange(ctx, e.session.RequestSearch, protocol.KindDeviceSearchReply)
	if err != nil {
		return ev, fmt.Errorf("failed to detect device: %w", err)
	}
	if !ev.Variant.Known() {
		return ev, fmt.Errorf("device family %d: %w", ev.Family, protocol.ErrUnsupported)
	}
	return ev, nil
}

// Inquiry asks for the device identity with the universal inquiry.
func (e *Editor) Inquiry(ctx context.Context) (protocol.Event, error) {
	ev, err := e.exchange(ctx, e.session.RequestInquiry, protocol.KindDeviceInquiryReply)
	if err != nil {
		return ev, fmt.Errorf("failed to query device identity: %w", err)
	}
	return ev, nil
}

// Connect selects the variant by hand when v is known and searches
// otherwise.
func (e *Editor) Connect(ctx context.Context, v scene.Variant) error {
	if v.Known() {
		return e.session.SelectVariant(v)
	}
	_, err := e.Detect(ctx)
	return err
}

// Dump loads the device's current scene into the session.
func (e *Editor) Dump(ctx context.Context) error {
	if _, err := e.exchange(ctx, e.session.RequestDump, protocol.KindSceneDump); err != nil {
		return fmt.Errorf("failed to dump scene: %w", err)
	}
	return nil
}

// Upload sends the working scene and waits for the device to accept it.
func (e *Editor) Upload(ctx context.Context) error {
	return e.upload(ctx, e.session.RequestUpload)
}

// Discard restores the last dumped scene on the device.
func (e *Editor) Discard(ctx context.Context) error {
	return e.upload(ctx, e.session.Discard)
}

func (e *Editor) upload(ctx context.Context, request func() error) error {
	ev, err := e.exchange(ctx, request, protocol.KindLoadAck, protocol.KindLoadNak)
	if err != nil {
		return fmt.Errorf("failed to upload scene: %w", err)
	}
	if ev.Kind == protocol.KindLoadNak {
		return fmt.Errorf("scene upload: %w", ErrRejected)
	}
	return nil
}

// Write stores the current scene in slot index.
func (e *Editor) Write(ctx context.Context, index int) error {
	ev, err := e.exchange(ctx, func() error { return e.session.RequestWrite(index) },
		protocol.KindWriteOK, protocol.KindWriteError)
	if err != nil {
		return fmt.Errorf("failed to write scene: %w", err)
	}
	if ev.Kind == protocol.KindWriteError {
		return fmt.Errorf("scene write: %w", ErrRejected)
	}
	return nil
}

// SceneChange switches to slot index and dumps the scene found there.
func (e *Editor) SceneChange(ctx context.Context, index int) error {
	if err := e.send(func() error { return e.session.RequestSceneChange(index) }); err != nil {
		return err
	}
	return e.Dump(ctx)
}

// NativeMode switches native mode and reports the mode the device confirms.
func (e *Editor) NativeMode(ctx context.Context, enable bool) (bool, error) {
	ev, err := e.exchange(ctx, func() error { return e.session.RequestNativeMode(enable) },
		protocol.KindNativeModeOn, protocol.KindNativeModeOff)
	if err != nil {
		return false, fmt.Errorf("failed to switch native mode: %w", err)
	}
	return ev.Kind == protocol.KindNativeModeOn, nil
}

// QueryMode reports whether the device is in native mode.
func (e *Editor) QueryMode(ctx context.Context) (bool, error) {
	ev, err := e.exchange(ctx, e.session.RequestQueryMode, protocol.KindNormalMode, protocol.KindNativeMode)
	if err != nil {
		return false, fmt.Errorf("failed to query mode: %w", err)
	}
	return ev.Kind == protocol.KindNativeMode, nil
}

// PortDetect sends a port detect request. The device does not answer it.
func (e *Editor) PortDetect() error {
	return e.send(e.session.RequestPortDetect)
}

func (e *Editor) send(request func() error) error {
	if err := request(); err != nil {
		return err
	}
	if _, err := e.link.Flush(); err != nil {
		return err
	}
	return nil
}

// Get reads one parameter of the working scene.
func (e *Editor) Get(a Address) (uint8, error) {
	var v uint8
	err := e.session.View(func(s *scene.Scene) {
		v = s.Parameter(a.Base, a.Control, a.Param)
	})
	return v, err
}

// Set changes one parameter of the working scene. The change is queued for
// upload; it is not sent here.
func (e *Editor) Set(a Address, value uint8) error {
	changed, err := e.session.SetParameter(a.Base, a.Control, a.Param, value)
	if err != nil {
		return err
	}
	if !changed {
		slot, _ := e.session.Variant().Resolve(a.Control, a.Param)
		return fmt.Errorf("%s: %w: %d not in 0-%d", a, ErrOutOfRange, value, slot.Max)
	}
	e.log.Debug("parameter set", zap.Stringer("address", a), zap.Uint8("value", value))
	return nil
}

// Snapshot returns the working scene as plain data.
func (e *Editor) Snapshot() (SceneView, error) {
	var out SceneView
	err := e.session.View(func(s *scene.Scene) { out = View(s) })
	return out, err
}
