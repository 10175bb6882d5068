package editor

import (
	"fmt"

	"github.com/PixPMusic/nkonfig/internal/scene"
)

// SceneView is a scene as plain data, for YAML and JSON output.
type SceneView struct {
	Variant       string      `yaml:"variant" json:"variant"`
	Name          string      `yaml:"name,omitempty" json:"name,omitempty"`
	GlobalChannel uint8       `yaml:"global_channel" json:"global_channel"`
	ControlMode   *uint8      `yaml:"control_mode,omitempty" json:"control_mode,omitempty"`
	LEDMode       *uint8      `yaml:"led_mode,omitempty" json:"led_mode,omitempty"`
	CustomDAW     string      `yaml:"custom_daw,omitempty" json:"custom_daw,omitempty"`
	Groups        []BlockView `yaml:"groups" json:"groups"`
	Transport     BlockView   `yaml:"transport" json:"transport"`
}

// BlockView holds one group. Channel 16 means the global channel is used.
type BlockView struct {
	Group    int                         `yaml:"group,omitempty" json:"group,omitempty"`
	Channel  uint8                       `yaml:"channel" json:"channel"`
	Controls map[string]map[string]uint8 `yaml:"controls" json:"controls"`
}

// View converts s.
func View(s *scene.Scene) SceneView {
	v := s.Variant()
	out := SceneView{
		Variant:       v.String(),
		GlobalChannel: s.GlobalChannel(),
	}
	if v.HasSceneName() {
		out.Name = s.Name()
	}
	if v.HasControlMode() {
		m := s.ControlMode()
		out.ControlMode = &m
	}
	if v.HasLEDMode() {
		m := s.LEDMode()
		out.LEDMode = &m
	}
	if daw := s.CustomDAW(); daw != nil {
		out.CustomDAW = fmt.Sprintf("% X", daw)
	}
	for i := 0; i < v.NumGroups(); i++ {
		base, _ := v.GroupBase(i)
		b := blockView(s, base, v.GroupControls())
		b.Group = i + 1
		out.Groups = append(out.Groups, b)
	}
	out.Transport = blockView(s, v.TransportBase(), v.TransportControls())
	return out
}

func blockView(s *scene.Scene, base int, controls []scene.Control) BlockView {
	b := BlockView{
		Channel:  s.GroupChannel(base),
		Controls: make(map[string]map[string]uint8, len(controls)),
	}
	for _, c := range controls {
		params := make(map[string]uint8)
		for _, p := range scene.Parameters {
			if _, ok := s.Variant().Resolve(c, p); ok {
				params[p.String()] = s.Parameter(base, c, p)
			}
		}
		b.Controls[c.String()] = params
	}
	return b
}
