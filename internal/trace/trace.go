// Package trace captures the raw MIDI traffic of a session to a file of CBOR
// records and reads it back.
package trace

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Direction tells whether a message was sent or received.
type Direction uint8

const (
	DirectionIn  Direction = 0
	DirectionOut Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// ParseDirection accepts "in" and "out" in any case.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "in", "IN", "In":
		return DirectionIn, true
	case "out", "OUT", "Out":
		return DirectionOut, true
	}
	return 0, false
}

// Record is one captured message. CBOR encoding uses integer keys.
type Record struct {
	Timestamp time.Time `cbor:"1,keyasint"`

	// Session is the instance id of the editor that captured the record.
	Session   string    `cbor:"2,keyasint,omitempty"`
	Direction Direction `cbor:"3,keyasint"`

	// Kind is the classified message kind for incoming messages.
	Kind string `cbor:"4,keyasint,omitempty"`
	Data []byte `cbor:"5,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("trace: cbor encode mode: %v", err))
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("trace: cbor decode mode: %v", err))
	}
}

func encodeRecord(r Record) ([]byte, error) {
	return encMode.Marshal(r)
}

func decodeRecord(data []byte) (Record, error) {
	var r Record
	if err := decMode.Unmarshal(data, &r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// NewEncoder returns a stream encoder writing records to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a stream decoder reading records from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}
