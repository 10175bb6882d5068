// Package midi connects a protocol session to MIDI ports.
package midi

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register rtmidi driver
)

// DefaultPortHint matches the port names of both device generations.
const DefaultPortHint = "nanokontrol"

var ErrPortNotFound = errors.New("MIDI port not found")

// Manager handles MIDI port discovery.
type Manager struct {
	mu sync.RWMutex
}

// NewManager creates a new MIDI manager
func NewManager() *Manager {
	return &Manager{}
}

// Close cleans up the MIDI driver
func (m *Manager) Close() {
	midi.CloseDriver()
}

// ListInPorts returns the names of available MIDI input ports
func (m *Manager) ListInPorts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ins := midi.GetInPorts()
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names
}

// ListOutPorts returns the names of available MIDI output ports
func (m *Manager) ListOutPorts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	outs := midi.GetOutPorts()
	names := make([]string, 0, len(outs))
	for _, out := range outs {
		names = append(names, out.String())
	}
	return names
}

// GetInPort returns an input port by exact name, or the first one whose name
// contains hint when name is empty.
func (m *Manager) GetInPort(name, hint string) (drivers.In, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ins := midi.GetInPorts()
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	i, err := pickPort(names, name, hint)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	return ins[i], nil
}

// GetOutPort works like GetInPort for output ports.
func (m *Manager) GetOutPort(name, hint string) (drivers.Out, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	outs := midi.GetOutPorts()
	names := make([]string, len(outs))
	for i, out := range outs {
		names[i] = out.String()
	}
	i, err := pickPort(names, name, hint)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	return outs[i], nil
}

// OpenSender opens out and returns a Sender writing raw messages to it.
func (m *Manager) OpenSender(out drivers.Out) (Sender, error) {
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("failed to create sender: %w", err)
	}
	return func(msg []byte) error {
		return send(midi.Message(msg))
	}, nil
}

func pickPort(names []string, name, hint string) (int, error) {
	if name != "" {
		for i, n := range names {
			if n == name {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%w: %q", ErrPortNotFound, name)
	}
	if hint == "" {
		hint = DefaultPortHint
	}
	lower := strings.ToLower(hint)
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), lower) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: no port contains %q", ErrPortNotFound, hint)
}
