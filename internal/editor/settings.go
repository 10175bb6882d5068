package editor

import (
	"fmt"

	"github.com/PixPMusic/nkonfig/internal/scene"
)

func (e *Editor) update(what string, fn func(*scene.Scene) bool) error {
	ok, err := e.session.Update(fn)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", what, ErrOutOfRange)
	}
	return nil
}

// SetGlobalChannel sets the scene's global MIDI channel (0-15).
func (e *Editor) SetGlobalChannel(ch uint8) error {
	return e.update("global channel", func(s *scene.Scene) bool { return s.SetGlobalChannel(ch) })
}

// SetGroupChannel sets the channel of a group or the transport group.
// scene.FollowGlobal selects the global channel.
func (e *Editor) SetGroupChannel(block string, ch uint8) error {
	base, _, err := ParseBlock(e.session.Variant(), block)
	if err != nil {
		return err
	}
	return e.update("group channel", func(s *scene.Scene) bool { return s.SetGroupChannel(base, ch) })
}

// SetControlMode sets the DAW control mode on models that have one.
func (e *Editor) SetControlMode(mode uint8) error {
	return e.update("control mode", func(s *scene.Scene) bool { return s.SetControlMode(mode) })
}

// SetLEDMode sets the LED mode on models that have one.
func (e *Editor) SetLEDMode(mode uint8) error {
	return e.update("LED mode", func(s *scene.Scene) bool { return s.SetLEDMode(mode) })
}

// SetName sets the scene name on models that have one.
func (e *Editor) SetName(name string) error {
	return e.update("scene name", func(s *scene.Scene) bool { return s.SetName(name) })
}
