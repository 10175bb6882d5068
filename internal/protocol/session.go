package protocol

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/PixPMusic/nkonfig/internal/scene"
)

// State is the detection state of a Session.
type State int

const (
	StateIdle State = iota
	StateVariantUnknown
	StateVariantKnown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateVariantUnknown:
		return "variant unknown"
	case StateVariantKnown:
		return "variant known"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Session is the editor side of one device connection. It owns the working
// scene, the last confirmed scene and the outbox. All methods are safe for
// concurrent use.
type Session struct {
	mu       sync.Mutex
	log      *zap.Logger
	dev      Device
	state    State
	scene    *scene.Scene
	backup   *scene.Scene
	firmware Version
	outbox   *Outbox
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithChannel sets the device channel used until a reply reports another one.
func WithChannel(ch uint8) Option {
	return func(s *Session) { s.dev.Channel = ch & 0x0F }
}

// WithEchoID sets the tag sent with device search and port detect requests.
func WithEchoID(id uint8) Option {
	return func(s *Session) { s.dev.EchoID = id & 0x7F }
}

// WithVariant starts the session with a known variant, skipping detection.
func WithVariant(v scene.Variant) Option {
	return func(s *Session) {
		if v.Known() {
			s.resetTo(v)
		}
	}
}

// NewSession creates an idle session on channel 0.
func NewSession(opts ...Option) *Session {
	s := &Session{
		log:    zap.NewNop(),
		outbox: NewOutbox(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the detection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Device returns the current device address.
func (s *Session) Device() Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev
}

// Variant returns the selected variant, or VariantNone.
func (s *Session) Variant() scene.Variant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev.Variant
}

// Firmware returns the version from the last inquiry or search reply.
func (s *Session) Firmware() Version {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firmware
}

// SetChannel overrides the device channel.
func (s *Session) SetChannel(ch uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dev.Channel = ch & 0x0F
}

// Outbox returns the slot holding the next message to send.
func (s *Session) Outbox() *Outbox {
	return s.outbox
}

// SelectVariant picks the variant by hand and resets both scenes to its
// defaults.
func (s *Session) SelectVariant(v scene.Variant) error {
	if !v.Known() {
		return ErrNoVariant
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetTo(v)
	s.log.Info("variant selected", zap.Stringer("variant", v))
	return nil
}

func (s *Session) resetTo(v scene.Variant) {
	s.dev.Variant = v
	s.state = StateVariantKnown
	s.scene = scene.New(v)
	s.backup = scene.New(v)
}

// View calls fn with the working scene. fn must not keep the pointer.
func (s *Session) View(fn func(*scene.Scene)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateVariantKnown {
		return ErrNoVariant
	}
	fn(s.scene)
	return nil
}

// Snapshot returns a copy of the working scene.
func (s *Session) Snapshot() (*scene.Scene, error) {
	var out *scene.Scene
	err := s.View(func(sc *scene.Scene) { out = sc.Clone() })
	return out, err
}

// Update applies fn to the working scene and queues an upload when fn
// reports a change.
func (s *Session) Update(fn func(*scene.Scene) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateVariantKnown {
		return false, ErrNoVariant
	}
	if !fn(s.scene) {
		return false, nil
	}
	return true, s.queueUpload()
}

// SetParameter changes one control parameter and queues an upload.
func (s *Session) SetParameter(base int, c scene.Control, p scene.Parameter, value uint8) (bool, error) {
	return s.Update(func(sc *scene.Scene) bool {
		return sc.SetParameter(base, c, p, value)
	})
}

// Discard drops local edits by restoring the last confirmed scene and
// uploading it.
func (s *Session) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateVariantKnown {
		return ErrNoVariant
	}
	s.scene = s.backup.Clone()
	return s.queueUpload()
}

func (s *Session) queueUpload() error {
	msg, err := s.dev.SceneUpload(s.scene)
	if err != nil {
		return fmt.Errorf("failed to build scene upload: %w", err)
	}
	s.put("scene upload", msg)
	return nil
}

func (s *Session) put(what string, msg []byte) {
	if s.outbox.Put(msg) {
		s.log.Debug("replaced unsent message", zap.String("request", what))
	}
	s.log.Debug("queued", zap.String("request", what), zap.Int("len", len(msg)))
}

func (s *Session) request(what string, build func(Device) ([]byte, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, err := build(s.dev)
	if err != nil {
		return fmt.Errorf("failed to build %s: %w", what, err)
	}
	s.put(what, msg)
	return nil
}

// RequestInquiry queues a universal device inquiry.
func (s *Session) RequestInquiry() error {
	return s.request("inquiry", func(Device) ([]byte, error) { return Inquiry(), nil })
}

// RequestSearch queues a device search. An idle session starts waiting for
// the reply that names the variant.
func (s *Session) RequestSearch() error {
	s.mu.Lock()
	if s.state == StateIdle {
		s.state = StateVariantUnknown
	}
	s.mu.Unlock()
	return s.request("device search", func(d Device) ([]byte, error) { return d.DeviceSearch(), nil })
}

// RequestDump queues a current scene dump request.
func (s *Session) RequestDump() error {
	return s.request("dump request", Device.DumpRequest)
}

// RequestWrite queues a request to store the device scene in slot index.
func (s *Session) RequestWrite(index int) error {
	return s.request("write request", func(d Device) ([]byte, error) { return d.WriteRequest(index) })
}

// RequestSceneChange queues a switch to slot index.
func (s *Session) RequestSceneChange(index int) error {
	return s.request("scene change", func(d Device) ([]byte, error) { return d.SceneChange(index) })
}

// RequestQueryMode queues a mode query.
func (s *Session) RequestQueryMode() error {
	return s.request("mode query", Device.QueryMode)
}

// RequestNativeMode queues a native mode switch.
func (s *Session) RequestNativeMode(enable bool) error {
	return s.request("native mode", func(d Device) ([]byte, error) { return d.NativeMode(enable) })
}

// RequestPortDetect queues a port detect request.
func (s *Session) RequestPortDetect() error {
	return s.request("port detect", Device.PortDetect)
}

// RequestUpload queues the working scene for upload.
func (s *Session) RequestUpload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateVariantKnown {
		return ErrNoVariant
	}
	return s.queueUpload()
}

// HandleMessage classifies an incoming message and applies it to the
// session. The returned error reports a reply that could not be applied;
// the session is unchanged in that case.
func (s *Session) HandleMessage(raw []byte) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := s.dev.Classify(raw)
	switch ev.Kind {
	case KindDeviceInquiryReply:
		s.dev.Channel = ev.Channel
		s.firmware = ev.Version
		s.log.Info("device inquiry reply",
			zap.Uint8("channel", ev.Channel),
			zap.Uint16("family", ev.Family),
			zap.Stringer("version", ev.Version))

	case KindDeviceSearchReply:
		if s.state == StateIdle {
			s.log.Debug("unsolicited device search reply", zap.Uint16("family", ev.Family))
			return ev, nil
		}
		if !ev.Variant.Known() {
			s.log.Warn("unsupported device family", zap.Uint16("family", ev.Family))
			return ev, nil
		}
		s.dev.Channel = ev.Channel
		s.firmware = ev.Version
		s.resetTo(ev.Variant)
		s.log.Info("device found",
			zap.Stringer("variant", ev.Variant),
			zap.Uint8("channel", ev.Channel),
			zap.Stringer("version", ev.Version))

	case KindSceneDump:
		if s.state != StateVariantKnown {
			return ev, fmt.Errorf("scene dump ignored: %w", ErrNoVariant)
		}
		if err := s.scene.LoadFromWire(ev.Payload); err != nil {
			return ev, fmt.Errorf("failed to load scene dump: %w", err)
		}
		s.backup = s.scene.Clone()
		s.log.Info("scene dump loaded", zap.Stringer("variant", ev.Variant))

	case KindUnrecognized:
		s.log.Debug("unrecognized message", zap.Binary("raw", raw))

	default:
		s.log.Debug("device reply", zap.Stringer("kind", ev.Kind))
	}
	return ev, nil
}
