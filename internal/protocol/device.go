// Package protocol builds Korg command list requests and classifies the
// messages a nanoKONTROL sends back.
package protocol

import (
	"errors"
	"fmt"

	"github.com/PixPMusic/nkonfig/internal/scene"
	"github.com/PixPMusic/nkonfig/internal/sysex"
)

const korgID = 0x42

var (
	ErrNoVariant       = errors.New("no device variant selected")
	ErrInvalidScene    = errors.New("scene index out of range")
	ErrUnsupported     = errors.New("not supported by this device")
	ErrVariantMismatch = errors.New("scene belongs to a different device variant")
)

// MaxSceneIndex is the highest scene slot addressed by write and scene change
// requests.
const MaxSceneIndex = 3

// Command list bodies.
var (
	cmdDumpRequest   = []byte{0x1F, 0x10, 0x00}
	cmdQueryMode     = []byte{0x1F, 0x12, 0x00}
	cmdNativeModeIn  = []byte{0x00, 0x00, 0x01}
	cmdNativeModeOut = []byte{0x00, 0x00, 0x00}
)

const (
	cmdWrite       = 0x11
	cmdSceneChange = 0x14
	cmdPortDetect  = 0x1E
)

// Device addresses one device on the bus. The zero value addresses channel 1
// with no variant selected.
type Device struct {
	Channel uint8
	Variant scene.Variant
	EchoID  uint8
}

// Inquiry returns the universal device inquiry request.
func Inquiry() []byte {
	return []byte{sysex.Start, 0x7E, 0x7F, 0x06, 0x01, sysex.End}
}

// DeviceSearch returns the Korg search request tagged with the echo id.
func (d Device) DeviceSearch() []byte {
	return []byte{sysex.Start, korgID, 0x50, 0x00, d.EchoID & 0x7F, sysex.End}
}

func (d Device) commandList(cmd ...byte) ([]byte, error) {
	if !d.Variant.Known() {
		return nil, ErrNoVariant
	}
	id := d.Variant.SysexID()
	msg := make([]byte, 0, 8+len(cmd))
	msg = append(msg, sysex.Start, korgID, 0x40|d.Channel&0x0F)
	msg = append(msg, id[:]...)
	msg = append(msg, cmd...)
	return append(msg, sysex.End), nil
}

// DumpRequest asks the device for its current scene.
func (d Device) DumpRequest() ([]byte, error) {
	return d.commandList(cmdDumpRequest...)
}

// WriteRequest asks the device to store the current scene in a scene slot.
func (d Device) WriteRequest(index int) ([]byte, error) {
	if index < 0 || index > MaxSceneIndex {
		return nil, fmt.Errorf("%w: %d", ErrInvalidScene, index)
	}
	return d.commandList(0x1F, cmdWrite, byte(index))
}

// SceneChange selects a scene slot on devices that have them.
func (d Device) SceneChange(index int) ([]byte, error) {
	if index < 0 || index > MaxSceneIndex {
		return nil, fmt.Errorf("%w: %d", ErrInvalidScene, index)
	}
	if d.Variant.Known() && !d.Variant.HasSceneSlots() {
		return nil, fmt.Errorf("scene change on %s: %w", d.Variant, ErrUnsupported)
	}
	return d.commandList(0x1F, cmdSceneChange, byte(index))
}

// QueryMode asks whether the device is in native mode.
func (d Device) QueryMode() ([]byte, error) {
	return d.commandList(cmdQueryMode...)
}

// NativeMode switches native mode on or off.
func (d Device) NativeMode(enable bool) ([]byte, error) {
	if enable {
		return d.commandList(cmdNativeModeIn...)
	}
	return d.commandList(cmdNativeModeOut...)
}

// PortDetect returns a port detection request tagged with the echo id.
func (d Device) PortDetect() ([]byte, error) {
	return d.commandList(cmdPortDetect, 0x00, d.EchoID&0x7F)
}

// SceneUpload sends s to the device's current scene buffer.
func (d Device) SceneUpload(s *scene.Scene) ([]byte, error) {
	if s.Variant() != d.Variant {
		return nil, fmt.Errorf("%w: have %s, device is %s", ErrVariantMismatch, s.Variant(), d.Variant)
	}
	return d.commandList(append(dumpHeader(d.Variant), s.ToWire()...)...)
}

// dumpHeader is the command prefix of a current scene data dump. The 14-bit
// count covers the packed payload plus the trailing function byte.
func dumpHeader(v scene.Variant) []byte {
	lo, hi := sysex.PutWord14(uint16(v.WireLength() + 1))
	return []byte{0x7F, 0x7F, 0x02, hi, lo, 0x40}
}
