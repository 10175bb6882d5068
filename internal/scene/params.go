package scene

import (
	"strings"
)

// Control names one physical control within a group or the transport section.
type Control int

const (
	ControlSlider Control = iota
	ControlKnob
	ControlButtonA
	ControlButtonB
	ControlButtonC

	ControlRewind
	ControlPlay
	ControlFastForward
	ControlCycle
	ControlStop
	ControlRecord
	ControlTrackPrev
	ControlTrackNext
	ControlMarkerSet
	ControlMarkerPrev
	ControlMarkerNext
)

// nanoKONTROL2 names for the strip buttons.
const (
	ControlSolo = ControlButtonA
	ControlMute = ControlButtonB
	ControlRec  = ControlButtonC
)

var controlNames = map[Control]string{
	ControlSlider:      "slider",
	ControlKnob:        "knob",
	ControlButtonA:     "button-a",
	ControlButtonB:     "button-b",
	ControlButtonC:     "button-c",
	ControlRewind:      "rewind",
	ControlPlay:        "play",
	ControlFastForward: "fast-forward",
	ControlCycle:       "cycle",
	ControlStop:        "stop",
	ControlRecord:      "record",
	ControlTrackPrev:   "track-prev",
	ControlTrackNext:   "track-next",
	ControlMarkerSet:   "marker-set",
	ControlMarkerPrev:  "marker-prev",
	ControlMarkerNext:  "marker-next",
}

func (c Control) String() string {
	if n, ok := controlNames[c]; ok {
		return n
	}
	return "control(?)"
}

// IsTransport reports whether c lives in the transport group.
func (c Control) IsTransport() bool {
	return c >= ControlRewind && c <= ControlMarkerNext
}

// ParseControl accepts control names and their common aliases.
func ParseControl(s string) (Control, bool) {
	s = normalizeName(s)
	switch s {
	case "solo", "a":
		return ControlButtonA, true
	case "mute", "b":
		return ControlButtonB, true
	case "rec", "c":
		return ControlButtonC, true
	case "rew":
		return ControlRewind, true
	case "ff":
		return ControlFastForward, true
	case "loop":
		return ControlCycle, true
	}
	for c, n := range controlNames {
		if n == s {
			return c, true
		}
	}
	return 0, false
}

// Parameter names one setting of a control.
type Parameter int

const (
	ParamAssign Parameter = iota
	ParamBehaviour
	ParamCmd
	ParamMin
	ParamMax
	ParamAttack
	ParamRelease
)

// Button names for the value range parameters.
const (
	ParamOff = ParamMin
	ParamOn  = ParamMax
)

var paramNames = map[Parameter]string{
	ParamAssign:    "assign",
	ParamBehaviour: "behaviour",
	ParamCmd:       "cmd",
	ParamMin:       "min",
	ParamMax:       "max",
	ParamAttack:    "attack",
	ParamRelease:   "release",
}

// Parameters lists every parameter in register order.
var Parameters = []Parameter{ParamAssign, ParamBehaviour, ParamCmd, ParamMin, ParamMax, ParamAttack, ParamRelease}

func (p Parameter) String() string {
	if n, ok := paramNames[p]; ok {
		return n
	}
	return "param(?)"
}

// ParseParameter accepts parameter names and their common aliases.
func ParseParameter(s string) (Parameter, bool) {
	s = normalizeName(s)
	switch s {
	case "behavior", "mode":
		return ParamBehaviour, true
	case "cc", "note", "cc/note":
		return ParamCmd, true
	case "off":
		return ParamOff, true
	case "on":
		return ParamOn, true
	case "decay":
		return ParamRelease, true
	}
	for p, n := range paramNames {
		if n == s {
			return p, true
		}
	}
	return 0, false
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "-", "_", "-").Replace(s)
}

// Slot is a resolved parameter address relative to a group base.
type Slot struct {
	Offset int
	Max    uint8
}

type controlKind int

const (
	kindContinuous controlKind = iota
	kindButton
	kindTransportButton
)

// Resolve maps a control parameter to its offset from the group (or
// transport) base and its largest accepted value. It reports false when the
// variant has no such control or the control has no such parameter.
func (v Variant) Resolve(c Control, p Parameter) (Slot, bool) {
	off, kind, ok := v.controlOffset(c)
	if !ok {
		return Slot{}, false
	}
	poff, limit, ok := v.paramOffset(kind, p)
	if !ok {
		return Slot{}, false
	}
	return Slot{Offset: off + poff, Max: limit}, true
}

func (v Variant) controlOffset(c Control) (int, controlKind, bool) {
	switch v {
	case VariantNanoKontrol:
		switch c {
		case ControlSlider:
			return 1, kindContinuous, true
		case ControlKnob:
			return 6, kindContinuous, true
		case ControlButtonA:
			return 11, kindButton, true
		case ControlButtonB:
			return 18, kindButton, true
		case ControlRewind:
			return 1, kindTransportButton, true
		case ControlPlay:
			return 6, kindTransportButton, true
		case ControlFastForward:
			return 11, kindTransportButton, true
		case ControlCycle:
			return 16, kindTransportButton, true
		case ControlStop:
			return 21, kindTransportButton, true
		case ControlRecord:
			return 26, kindTransportButton, true
		}
	case VariantNanoKontrol2:
		switch c {
		case ControlSlider:
			return 1, kindContinuous, true
		case ControlKnob:
			return 7, kindContinuous, true
		case ControlButtonA:
			return 13, kindButton, true
		case ControlButtonB:
			return 19, kindButton, true
		case ControlButtonC:
			return 25, kindButton, true
		case ControlTrackPrev:
			return 1, kindTransportButton, true
		case ControlTrackNext:
			return 7, kindTransportButton, true
		case ControlCycle:
			return 13, kindTransportButton, true
		case ControlMarkerSet:
			return 19, kindTransportButton, true
		case ControlMarkerPrev:
			return 25, kindTransportButton, true
		case ControlMarkerNext:
			return 31, kindTransportButton, true
		case ControlRewind:
			return 37, kindTransportButton, true
		case ControlFastForward:
			return 43, kindTransportButton, true
		case ControlStop:
			return 49, kindTransportButton, true
		case ControlPlay:
			return 55, kindTransportButton, true
		case ControlRecord:
			return 61, kindTransportButton, true
		}
	}
	return 0, 0, false
}

func (v Variant) paramOffset(kind controlKind, p Parameter) (int, uint8, bool) {
	switch p {
	case ParamAssign:
		if kind == kindContinuous {
			return 0, 1, true
		}
		return 0, 2, true
	case ParamBehaviour:
		if kind == kindContinuous {
			return 0, 0, false
		}
		return 1, 1, true
	case ParamCmd:
		return 2, 127, true
	case ParamMin:
		return 3, 127, true
	case ParamMax:
		return 4, 127, true
	case ParamAttack, ParamRelease:
		if v != VariantNanoKontrol || kind != kindButton {
			return 0, 0, false
		}
		if p == ParamAttack {
			return 5, 127, true
		}
		return 6, 127, true
	}
	return 0, 0, false
}
