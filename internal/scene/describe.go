package scene

// LayoutInfo is a plain description of a variant's parameter map.
type LayoutInfo struct {
	Variant           string        `yaml:"variant" json:"variant"`
	Family            uint16        `yaml:"family" json:"family"`
	DataLength        int           `yaml:"data_length" json:"data_length"`
	WireLength        int           `yaml:"wire_length" json:"wire_length"`
	SceneSlots        bool          `yaml:"scene_slots" json:"scene_slots"`
	GroupBases        []int         `yaml:"group_bases" json:"group_bases"`
	TransportBase     int           `yaml:"transport_base" json:"transport_base"`
	GroupControls     []ControlInfo `yaml:"group_controls" json:"group_controls"`
	TransportControls []ControlInfo `yaml:"transport_controls" json:"transport_controls"`
}

// ControlInfo lists the parameters of one control.
type ControlInfo struct {
	Name   string      `yaml:"name" json:"name"`
	Params []ParamInfo `yaml:"params" json:"params"`
}

// ParamInfo is one parameter with its offset from the group base.
type ParamInfo struct {
	Name   string `yaml:"name" json:"name"`
	Offset int    `yaml:"offset" json:"offset"`
	Max    uint8  `yaml:"max" json:"max"`
}

// Describe lists every control and parameter the variant supports.
func (v Variant) Describe() LayoutInfo {
	info := LayoutInfo{
		Variant:       v.String(),
		Family:        v.Family(),
		DataLength:    v.DataLength(),
		WireLength:    v.WireLength(),
		SceneSlots:    v.HasSceneSlots(),
		TransportBase: v.TransportBase(),
	}
	for i := 0; i < v.NumGroups(); i++ {
		base, _ := v.GroupBase(i)
		info.GroupBases = append(info.GroupBases, base)
	}
	for _, c := range v.GroupControls() {
		info.GroupControls = append(info.GroupControls, v.describeControl(c))
	}
	for _, c := range v.TransportControls() {
		info.TransportControls = append(info.TransportControls, v.describeControl(c))
	}
	return info
}

func (v Variant) describeControl(c Control) ControlInfo {
	ci := ControlInfo{Name: c.String()}
	for _, p := range Parameters {
		if slot, ok := v.Resolve(c, p); ok {
			ci.Params = append(ci.Params, ParamInfo{Name: p.String(), Offset: slot.Offset, Max: slot.Max})
		}
	}
	return ci
}
