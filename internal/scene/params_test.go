package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariantTable(t *testing.T) {
	assert.Equal(t, 293, VariantNanoKontrol.WireLength())
	assert.Equal(t, 388, VariantNanoKontrol2.WireLength())
	assert.True(t, VariantNanoKontrol.HasSceneSlots())
	assert.False(t, VariantNanoKontrol2.HasSceneSlots())
	assert.Equal(t, [4]byte{0x00, 0x01, 0x13, 0x00}, VariantNanoKontrol2.SysexID())

	v, ok := VariantForFamily(132)
	assert.True(t, ok)
	assert.Equal(t, VariantNanoKontrol, v)
	v, ok = VariantForFamily(147)
	assert.True(t, ok)
	assert.Equal(t, VariantNanoKontrol2, v)
	_, ok = VariantForFamily(99)
	assert.False(t, ok)

	_, ok = VariantNanoKontrol.GroupBase(8)
	assert.False(t, ok)
	assert.Equal(t, -1, VariantNone.TransportBase())
}

func TestResolve(t *testing.T) {
	tests := []struct {
		v    Variant
		c    Control
		p    Parameter
		slot Slot
		ok   bool
	}{
		{VariantNanoKontrol2, ControlSlider, ParamCmd, Slot{Offset: 3, Max: 127}, true},
		{VariantNanoKontrol2, ControlSlider, ParamAssign, Slot{Offset: 1, Max: 1}, true},
		{VariantNanoKontrol2, ControlSolo, ParamAssign, Slot{Offset: 13, Max: 2}, true},
		{VariantNanoKontrol2, ControlMute, ParamOn, Slot{Offset: 23, Max: 127}, true},
		{VariantNanoKontrol2, ControlRecord, ParamBehaviour, Slot{Offset: 62, Max: 1}, true},
		{VariantNanoKontrol2, ControlKnob, ParamBehaviour, Slot{}, false},
		{VariantNanoKontrol2, ControlSolo, ParamAttack, Slot{}, false},
		{VariantNanoKontrol, ControlButtonB, ParamRelease, Slot{Offset: 24, Max: 127}, true},
		{VariantNanoKontrol, ControlButtonC, ParamCmd, Slot{}, false},
		{VariantNanoKontrol, ControlTrackPrev, ParamCmd, Slot{}, false},
		{VariantNanoKontrol, ControlRecord, ParamAttack, Slot{}, false},
		{VariantNone, ControlSlider, ParamCmd, Slot{}, false},
	}
	for _, tt := range tests {
		slot, ok := tt.v.Resolve(tt.c, tt.p)
		assert.Equal(t, tt.ok, ok, "%s %s %s", tt.v, tt.c, tt.p)
		assert.Equal(t, tt.slot, slot, "%s %s %s", tt.v, tt.c, tt.p)
	}
}

func TestParseNames(t *testing.T) {
	c, ok := ParseControl("Solo")
	assert.True(t, ok)
	assert.Equal(t, ControlButtonA, c)
	c, ok = ParseControl("fast_forward")
	assert.True(t, ok)
	assert.Equal(t, ControlFastForward, c)
	c, ok = ParseControl("rec")
	assert.True(t, ok)
	assert.Equal(t, ControlButtonC, c)
	_, ok = ParseControl("fader")
	assert.False(t, ok)

	p, ok := ParseParameter("cc")
	assert.True(t, ok)
	assert.Equal(t, ParamCmd, p)
	p, ok = ParseParameter("on")
	assert.True(t, ok)
	assert.Equal(t, ParamMax, p)
	_, ok = ParseParameter("gain")
	assert.False(t, ok)

	v, ok := ParseVariant("nanoKONTROL2")
	assert.True(t, ok)
	assert.Equal(t, VariantNanoKontrol2, v)
	_, ok = ParseVariant("")
	assert.False(t, ok)
}

func TestDescribe(t *testing.T) {
	info := VariantNanoKontrol2.Describe()
	assert.Equal(t, "nanoKONTROL2", info.Variant)
	assert.Len(t, info.GroupBases, 8)
	assert.Len(t, info.GroupControls, 5)
	assert.Len(t, info.TransportControls, 11)
	assert.Equal(t, "slider", info.GroupControls[0].Name)
	assert.Len(t, info.GroupControls[0].Params, 4)
	assert.Len(t, info.GroupControls[2].Params, 5)
}
