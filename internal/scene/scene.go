package scene

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/PixPMusic/nkonfig/internal/sysex"
)

// ErrLengthMismatch is matched by the error returned when a scene dump does
// not have the wire length expected for the variant.
var ErrLengthMismatch = errors.New("scene dump length mismatch")

// ErrNotSevenBit is returned for a dump payload carrying bytes with bit 7 set.
var ErrNotSevenBit = errors.New("scene dump is not 7-bit clean")

// LengthError describes a rejected scene dump.
type LengthError struct {
	Variant Variant
	Got     int
	Want    int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("scene dump for %s is %d bytes, want %d", e.Variant, e.Got, e.Want)
}

func (e *LengthError) Is(target error) bool {
	return target == ErrLengthMismatch
}

// Scene is the in-memory copy of a device register file.
type Scene struct {
	variant Variant
	data    []byte
}

// New returns a scene for v holding factory defaults.
func New(v Variant) *Scene {
	s := &Scene{variant: v}
	s.Reset()
	return s
}

// Variant returns the hardware generation the scene is laid out for.
func (s *Scene) Variant() Variant {
	return s.variant
}

// Reset restores factory defaults.
func (s *Scene) Reset() {
	l := s.variant.layout()
	if l == nil {
		s.data = nil
		return
	}
	if len(s.data) != l.dataLength {
		s.data = make([]byte, l.dataLength)
	} else {
		clear(s.data)
	}

	s.data[l.globalChannel] = 0
	for g, base := range l.groups {
		s.data[base] = FollowGlobal
		for i, c := range l.groupControls {
			s.defaultControl(base, c, uint8(0x10*i+g))
		}
	}
	s.data[l.transport] = FollowGlobal
	for i, c := range l.transportControls {
		s.defaultControl(l.transport, c, l.transportCC[i])
	}

	if l.sceneName >= 0 {
		s.SetName("Scene 1")
	}
	if l.controlMode >= 0 {
		s.data[l.controlMode] = 0
	}
	if l.ledMode >= 0 {
		s.data[l.ledMode] = 1
	}
}

func (s *Scene) defaultControl(base int, c Control, cc uint8) {
	s.SetParameter(base, c, ParamAssign, 1)
	s.SetParameter(base, c, ParamBehaviour, 0)
	s.SetParameter(base, c, ParamCmd, cc)
	s.SetParameter(base, c, ParamMin, 0)
	s.SetParameter(base, c, ParamMax, 127)
	s.SetParameter(base, c, ParamAttack, 0)
	s.SetParameter(base, c, ParamRelease, 0)
}

// address validates a control parameter and returns its register index.
func (s *Scene) address(base int, c Control, p Parameter) (int, uint8, bool) {
	if c.IsTransport() {
		if base != s.variant.TransportBase() {
			return 0, 0, false
		}
	} else if !s.variant.isGroupBase(base) {
		return 0, 0, false
	}
	slot, ok := s.variant.Resolve(c, p)
	if !ok {
		return 0, 0, false
	}
	addr := base + slot.Offset
	if addr < 0 || addr >= len(s.data) {
		return 0, 0, false
	}
	return addr, slot.Max, true
}

// Parameter returns a control parameter, or 0 when the variant does not
// support it.
func (s *Scene) Parameter(base int, c Control, p Parameter) uint8 {
	addr, _, ok := s.address(base, c, p)
	if !ok {
		return 0
	}
	return s.data[addr]
}

// SetParameter writes a control parameter. It returns false, leaving the
// scene unchanged, when the parameter is unsupported or value exceeds its
// maximum.
func (s *Scene) SetParameter(base int, c Control, p Parameter, value uint8) bool {
	addr, limit, ok := s.address(base, c, p)
	if !ok || value > limit {
		return false
	}
	s.data[addr] = value
	return true
}

func (s *Scene) isBlockBase(base int) bool {
	return s.variant.isGroupBase(base) || (s.variant.Known() && base == s.variant.TransportBase())
}

// GroupChannel returns the MIDI channel of a group: 0-15, or FollowGlobal.
func (s *Scene) GroupChannel(base int) uint8 {
	if !s.isBlockBase(base) {
		return 0
	}
	return s.data[base]
}

// SetGroupChannel sets the MIDI channel of a group.
func (s *Scene) SetGroupChannel(base int, channel uint8) bool {
	if !s.isBlockBase(base) || channel > FollowGlobal {
		return false
	}
	s.data[base] = channel
	return true
}

// GlobalChannel returns the scene's global MIDI channel (0-15).
func (s *Scene) GlobalChannel() uint8 {
	l := s.variant.layout()
	if l == nil {
		return 0
	}
	return s.data[l.globalChannel]
}

// SetGlobalChannel sets the scene's global MIDI channel.
func (s *Scene) SetGlobalChannel(channel uint8) bool {
	l := s.variant.layout()
	if l == nil || channel > 15 {
		return false
	}
	s.data[l.globalChannel] = channel
	return true
}

// ControlMode returns the DAW control mode: 0 CC, 1 Cubase, 2 Digital
// Performer, 3 Live, 4 Pro Tools, 5 SONAR.
func (s *Scene) ControlMode() uint8 {
	return s.optional(func(l *layout) int { return l.controlMode })
}

// SetControlMode sets the DAW control mode (0-5).
func (s *Scene) SetControlMode(mode uint8) bool {
	return s.setOptional(func(l *layout) int { return l.controlMode }, mode, 5)
}

// LEDMode returns 0 for internal and 1 for external LED control.
func (s *Scene) LEDMode() uint8 {
	return s.optional(func(l *layout) int { return l.ledMode })
}

// SetLEDMode sets the LED mode (0-1).
func (s *Scene) SetLEDMode(mode uint8) bool {
	return s.setOptional(func(l *layout) int { return l.ledMode }, mode, 1)
}

func (s *Scene) optional(field func(*layout) int) uint8 {
	l := s.variant.layout()
	if l == nil || field(l) < 0 {
		return 0
	}
	return s.data[field(l)]
}

func (s *Scene) setOptional(field func(*layout) int, value, limit uint8) bool {
	l := s.variant.layout()
	if l == nil || field(l) < 0 || value > limit {
		return false
	}
	s.data[field(l)] = value
	return true
}

// Name returns the 12 character scene name, or "" when the variant has none.
func (s *Scene) Name() string {
	l := s.variant.layout()
	if l == nil || l.sceneName < 0 {
		return ""
	}
	return string(s.data[l.sceneName : l.sceneName+sceneNameLength])
}

// SetName stores name padded with spaces or truncated to 12 characters.
// Characters outside printable ASCII are stored as '?'.
func (s *Scene) SetName(name string) bool {
	l := s.variant.layout()
	if l == nil || l.sceneName < 0 {
		return false
	}
	buf := bytes.Repeat([]byte{' '}, sceneNameLength)
	i := 0
	for _, r := range name {
		if i == sceneNameLength {
			break
		}
		if r < 0x20 || r > 0x7E {
			r = '?'
		}
		buf[i] = byte(r)
		i++
	}
	copy(s.data[l.sceneName:], buf)
	return true
}

// CustomDAW returns a copy of the custom DAW assignment block, if any.
func (s *Scene) CustomDAW() []byte {
	l := s.variant.layout()
	if l == nil || l.customDAW < 0 {
		return nil
	}
	return bytes.Clone(s.data[l.customDAW : l.customDAW+l.customDAWLen])
}

// Bytes returns a copy of the register file.
func (s *Scene) Bytes() []byte {
	return bytes.Clone(s.data)
}

// Clone returns an independent copy of s.
func (s *Scene) Clone() *Scene {
	return &Scene{variant: s.variant, data: bytes.Clone(s.data)}
}

// Equal reports whether both scenes have the same variant and contents.
func (s *Scene) Equal(o *Scene) bool {
	return o != nil && s.variant == o.variant && bytes.Equal(s.data, o.data)
}

// ToWire packs the register file for a scene upload.
func (s *Scene) ToWire() []byte {
	return sysex.Encode(s.data)
}

// LoadFromWire replaces the register file with a packed scene dump. The scene
// is left untouched when the payload does not fit the variant.
func (s *Scene) LoadFromWire(payload []byte) error {
	if want := s.variant.WireLength(); len(payload) != want {
		return &LengthError{Variant: s.variant, Got: len(payload), Want: want}
	}
	if !sysex.Valid(payload) {
		return ErrNotSevenBit
	}
	copy(s.data, sysex.Decode(payload))
	return nil
}
