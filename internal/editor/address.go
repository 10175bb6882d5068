package editor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PixPMusic/nkonfig/internal/scene"
)

var ErrUnknownName = errors.New("unknown name")

// Address selects one parameter of one control.
type Address struct {
	Base    int
	Group   int // 1-based, 0 for the transport group
	Control scene.Control
	Param   scene.Parameter
}

func (a Address) String() string {
	g := "transport"
	if a.Group > 0 {
		g = strconv.Itoa(a.Group)
	}
	return fmt.Sprintf("%s/%s/%s", g, a.Control, a.Param)
}

// ParseBlock resolves a group number (1-based) or "transport" to its
// register base.
func ParseBlock(v scene.Variant, s string) (base, group int, err error) {
	switch strings.ToLower(s) {
	case "t", "transport":
		if b := v.TransportBase(); b >= 0 {
			return b, 0, nil
		}
		return 0, 0, fmt.Errorf("%w: no transport group on %s", ErrUnknownName, v)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: group %q", ErrUnknownName, s)
	}
	b, ok := v.GroupBase(n - 1)
	if !ok {
		return 0, 0, fmt.Errorf("group must be 1-%d, got %d", v.NumGroups(), n)
	}
	return b, n, nil
}

// ParseAddress parses "group control param" or the slash separated form
// "group/control/param".
func ParseAddress(v scene.Variant, parts ...string) (Address, error) {
	if len(parts) == 1 {
		parts = strings.Split(parts[0], "/")
	}
	if len(parts) != 3 {
		return Address{}, fmt.Errorf("address needs group, control and parameter, got %q", strings.Join(parts, " "))
	}

	base, group, err := ParseBlock(v, parts[0])
	if err != nil {
		return Address{}, err
	}
	c, ok := scene.ParseControl(parts[1])
	if !ok {
		return Address{}, fmt.Errorf("%w: control %q", ErrUnknownName, parts[1])
	}
	p, ok := scene.ParseParameter(parts[2])
	if !ok {
		return Address{}, fmt.Errorf("%w: parameter %q", ErrUnknownName, parts[2])
	}
	if c.IsTransport() != (group == 0) {
		return Address{}, fmt.Errorf("%s is not part of group %s on %s", c, parts[0], v)
	}
	if _, ok := v.Resolve(c, p); !ok {
		return Address{}, fmt.Errorf("%s has no %s on %s", c, p, v)
	}
	return Address{Base: base, Group: group, Control: c, Param: p}, nil
}
