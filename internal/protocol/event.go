package protocol

import (
	"bytes"
	"fmt"

	"gitlab.com/gomidi/midi/v2"

	"github.com/PixPMusic/nkonfig/internal/scene"
	"github.com/PixPMusic/nkonfig/internal/sysex"
)

// Kind tells what an incoming message is.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindDeviceInquiryReply
	KindDeviceSearchReply
	KindChannelVoice
	KindSceneDump
	KindLoadAck
	KindLoadNak
	KindWriteOK
	KindWriteError
	KindNativeModeOn
	KindNativeModeOff
	KindNormalMode
	KindNativeMode
)

var kindNames = [...]string{
	KindUnrecognized:       "unrecognized",
	KindDeviceInquiryReply: "device inquiry reply",
	KindDeviceSearchReply:  "device search reply",
	KindChannelVoice:       "channel voice",
	KindSceneDump:          "scene dump",
	KindLoadAck:            "load ack",
	KindLoadNak:            "load nak",
	KindWriteOK:            "write ok",
	KindWriteError:         "write error",
	KindNativeModeOn:       "native mode on",
	KindNativeModeOff:      "native mode off",
	KindNormalMode:         "normal mode",
	KindNativeMode:         "native mode",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Version is a firmware version as reported by the device.
type Version struct {
	Major uint16
	Minor uint16
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%02d", v.Major, v.Minor)
}

// Event is a classified incoming message. Only the fields relevant to Kind
// are set.
type Event struct {
	Kind    Kind
	Channel uint8

	// Inquiry and search replies.
	Family  uint16
	Member  uint16
	Version Version
	Variant scene.Variant

	// Scene dumps carry the packed payload.
	Payload []byte

	// Channel voice messages.
	Message midi.Message

	Raw []byte
}

var subCodes = []struct {
	code [3]byte
	kind Kind
}{
	{[3]byte{0x5F, 0x23, 0x00}, KindLoadAck},
	{[3]byte{0x5F, 0x24, 0x00}, KindLoadNak},
	{[3]byte{0x5F, 0x21, 0x00}, KindWriteOK},
	{[3]byte{0x5F, 0x22, 0x00}, KindWriteError},
	{[3]byte{0x40, 0x00, 0x02}, KindNativeModeOff},
	{[3]byte{0x40, 0x00, 0x03}, KindNativeModeOn},
	{[3]byte{0x5F, 0x42, 0x00}, KindNormalMode},
	{[3]byte{0x5F, 0x42, 0x01}, KindNativeMode},
}

const (
	inquiryReplyLen = 14
	searchReplyLen  = 14
)

// Classify identifies raw as one of the replies the device sends. A single
// trailing F7 is optional. Messages for another channel, another model or
// another echo id come back as KindUnrecognized.
func (d Device) Classify(raw []byte) Event {
	ev := Event{Kind: KindUnrecognized, Raw: raw}
	if len(raw) == 0 {
		return ev
	}
	if raw[0] != sysex.Start {
		return classifyVoice(ev)
	}

	body := raw
	if body[len(body)-1] == sysex.End {
		body = body[:len(body)-1]
	}
	switch {
	case len(body) == inquiryReplyLen && bytes.HasPrefix(body[3:], []byte{0x06, 0x02, korgID}) && body[1] == 0x7E:
		ev.Kind = KindDeviceInquiryReply
		ev.Channel = body[2] & 0x0F
		ev.Family, ev.Member, ev.Version = identity(body[6:14])
		ev.Variant, _ = scene.VariantForFamily(ev.Family)
	case len(body) >= searchReplyLen && bytes.HasPrefix(body, []byte{sysex.Start, korgID, 0x50, 0x01}):
		if body[5] != d.EchoID&0x7F {
			return ev
		}
		ev.Kind = KindDeviceSearchReply
		ev.Channel = body[4] & 0x0F
		ev.Family, ev.Member, ev.Version = identity(body[6:14])
		ev.Variant, _ = scene.VariantForFamily(ev.Family)
	case len(body) > 7 && body[1] == korgID && body[2]&0xF0 == 0x40:
		return d.classifyCommand(ev, body)
	}
	return ev
}

// identity decodes family, member, minor and major from four 7-bit words.
func identity(b []byte) (family, member uint16, v Version) {
	family = sysex.Word14(b[0], b[1])
	member = sysex.Word14(b[2], b[3])
	v.Minor = sysex.Word14(b[4], b[5])
	v.Major = sysex.Word14(b[6], b[7])
	return family, member, v
}

func (d Device) classifyCommand(ev Event, body []byte) Event {
	ch := body[2] & 0x0F
	if ch != d.Channel&0x0F {
		return ev
	}
	v := variantForID(body[3:7])
	if !v.Known() || (d.Variant.Known() && v != d.Variant) {
		return ev
	}
	cmd := body[7:]

	if hdr := dumpHeader(v); bytes.HasPrefix(cmd, hdr) {
		ev.Kind = KindSceneDump
		ev.Channel = ch
		ev.Variant = v
		ev.Payload = append([]byte(nil), cmd[len(hdr):]...)
		return ev
	}
	if len(cmd) < 3 {
		return ev
	}
	code := [3]byte(cmd[:3])
	for _, sc := range subCodes {
		if sc.code == code {
			ev.Kind = sc.kind
			ev.Channel = ch
			ev.Variant = v
			break
		}
	}
	return ev
}

func variantForID(id []byte) scene.Variant {
	for _, v := range scene.Variants {
		sid := v.SysexID()
		if bytes.Equal(id, sid[:]) {
			return v
		}
	}
	return scene.VariantNone
}

// classifyVoice accepts note on, note off, control change and pitch bend.
// Other channel messages are not sent by the device.
func classifyVoice(ev Event) Event {
	raw := ev.Raw
	if len(raw) != 3 || raw[1] > 0x7F || raw[2] > 0x7F {
		return ev
	}
	msg := midi.Message(append([]byte(nil), raw...))

	var (
		channel, data1, data2 uint8
		relative              int16
		absolute              uint16
	)
	switch {
	case msg.GetNoteOn(&channel, &data1, &data2):
	case msg.GetNoteOff(&channel, &data1, &data2):
	case msg.GetControlChange(&channel, &data1, &data2):
	case msg.GetPitchBend(&channel, &relative, &absolute):
	default:
		return ev
	}
	ev.Kind = KindChannelVoice
	ev.Channel = channel
	ev.Message = msg
	return ev
}
