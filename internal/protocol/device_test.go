package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PixPMusic/nkonfig/internal/scene"
)

func TestInquiry(t *testing.T) {
	assert.Equal(t, []byte{0xF0, 0x7E, 0x7F, 0x06, 0x01, 0xF7}, Inquiry())
}

func TestDeviceSearch(t *testing.T) {
	d := Device{EchoID: 0x25}
	assert.Equal(t, []byte{0xF0, 0x42, 0x50, 0x00, 0x25, 0xF7}, d.DeviceSearch())
}

func TestCommandList(t *testing.T) {
	nk1 := Device{Channel: 3, Variant: scene.VariantNanoKontrol, EchoID: 0x11}
	nk2 := Device{Channel: 0, Variant: scene.VariantNanoKontrol2, EchoID: 0x11}

	tests := []struct {
		name  string
		build func() ([]byte, error)
		want  []byte
	}{
		{"dump request", nk2.DumpRequest,
			[]byte{0xF0, 0x42, 0x40, 0x00, 0x01, 0x13, 0x00, 0x1F, 0x10, 0x00, 0xF7}},
		{"write request", func() ([]byte, error) { return nk1.WriteRequest(2) },
			[]byte{0xF0, 0x42, 0x43, 0x00, 0x01, 0x04, 0x00, 0x1F, 0x11, 0x02, 0xF7}},
		{"scene change", func() ([]byte, error) { return nk1.SceneChange(1) },
			[]byte{0xF0, 0x42, 0x43, 0x00, 0x01, 0x04, 0x00, 0x1F, 0x14, 0x01, 0xF7}},
		{"query mode", nk2.QueryMode,
			[]byte{0xF0, 0x42, 0x40, 0x00, 0x01, 0x13, 0x00, 0x1F, 0x12, 0x00, 0xF7}},
		{"native mode in", func() ([]byte, error) { return nk2.NativeMode(true) },
			[]byte{0xF0, 0x42, 0x40, 0x00, 0x01, 0x13, 0x00, 0x00, 0x00, 0x01, 0xF7}},
		{"native mode out", func() ([]byte, error) { return nk2.NativeMode(false) },
			[]byte{0xF0, 0x42, 0x40, 0x00, 0x01, 0x13, 0x00, 0x00, 0x00, 0x00, 0xF7}},
		{"port detect", nk2.PortDetect,
			[]byte{0xF0, 0x42, 0x40, 0x00, 0x01, 0x13, 0x00, 0x1E, 0x00, 0x11, 0xF7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.build()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSceneChangeSingleTerminator(t *testing.T) {
	d := Device{Variant: scene.VariantNanoKontrol}
	msg, err := d.SceneChange(3)
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(msg, []byte{0xF7}))
}

func TestBuilderErrors(t *testing.T) {
	nk1 := Device{Variant: scene.VariantNanoKontrol}
	nk2 := Device{Variant: scene.VariantNanoKontrol2}
	none := Device{}

	_, err := nk1.WriteRequest(4)
	assert.ErrorIs(t, err, ErrInvalidScene)
	_, err = nk1.WriteRequest(-1)
	assert.ErrorIs(t, err, ErrInvalidScene)
	_, err = nk1.SceneChange(9)
	assert.ErrorIs(t, err, ErrInvalidScene)
	_, err = nk2.SceneChange(0)
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = none.DumpRequest()
	assert.ErrorIs(t, err, ErrNoVariant)
	_, err = nk2.SceneUpload(scene.New(scene.VariantNanoKontrol))
	assert.ErrorIs(t, err, ErrVariantMismatch)
}

func TestSceneUpload(t *testing.T) {
	tests := []struct {
		variant scene.Variant
		prefix  []byte
	}{
		{scene.VariantNanoKontrol,
			[]byte{0xF0, 0x42, 0x40, 0x00, 0x01, 0x04, 0x00, 0x7F, 0x7F, 0x02, 0x02, 0x26, 0x40}},
		{scene.VariantNanoKontrol2,
			[]byte{0xF0, 0x42, 0x40, 0x00, 0x01, 0x13, 0x00, 0x7F, 0x7F, 0x02, 0x03, 0x05, 0x40}},
	}
	for _, tt := range tests {
		t.Run(tt.variant.String(), func(t *testing.T) {
			s := scene.New(tt.variant)
			msg, err := Device{Variant: tt.variant}.SceneUpload(s)
			require.NoError(t, err)
			require.Len(t, msg, len(tt.prefix)+tt.variant.WireLength()+1)
			assert.Equal(t, tt.prefix, msg[:len(tt.prefix)])
			assert.Equal(t, s.ToWire(), msg[len(tt.prefix):len(msg)-1])
			assert.Equal(t, byte(0xF7), msg[len(msg)-1])
		})
	}
}
