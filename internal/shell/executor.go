package shell

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/PixPMusic/nkonfig/internal/editor"
	"github.com/PixPMusic/nkonfig/internal/scene"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

// Executor dispatches command lines to handlers
type Executor struct {
	editor   *editor.Editor
	handlers map[string]Handler
	aliases  map[string]string
}

// NewExecutor creates an executor with all editor commands registered
func NewExecutor(ed *editor.Editor) *Executor {
	e := &Executor{
		editor: ed,
		aliases: map[string]string{
			"?": "help",
			"d": "dump",
			"s": "show",
			"u": "upload",
			"w": "write",
		},
	}
	e.handlers = map[string]Handler{
		"help":        command{"help                        - show this help", e.cmdHelp},
		"status":      command{"status                      - show connection state", e.cmdStatus},
		"detect":      command{"detect                      - search for the device", e.cmdDetect},
		"inquiry":     command{"inquiry                     - show device identity", e.cmdInquiry},
		"variant":     command{"variant <nanokontrol|nanokontrol2> - select the model by hand", e.cmdVariant},
		"dump":        command{"dump                        - load the current scene from the device", e.cmdDump},
		"show":        command{"show                        - print the working scene", e.cmdShow},
		"describe":    command{"describe                    - print the parameter map", e.cmdDescribe},
		"get":         command{"get <group/control/param>   - read a parameter", e.cmdGet},
		"set":         command{"set <group/control/param> <value> - change a parameter", e.cmdSet},
		"channel":     command{"channel <global|group|transport> <0-15|16> - set a MIDI channel", e.cmdChannel},
		"name":        command{"name <text>                 - set the scene name", e.cmdName},
		"led":         command{"led <0|1>                   - LED mode, 0 internal, 1 external", e.cmdLED},
		"ctrlmode":    command{"ctrlmode <0-5>              - DAW control mode", e.cmdControlMode},
		"upload":      command{"upload                      - send the working scene", e.cmdUpload},
		"discard":     command{"discard                     - restore the last dumped scene", e.cmdDiscard},
		"write":       command{"write <1-4>                 - store the scene on the device", e.cmdWrite},
		"scene":       command{"scene <1-4>                 - switch scene and dump it", e.cmdScene},
		"native":      command{"native [on|off]             - query or switch native mode", e.cmdNative},
		"port-detect": command{"port-detect                 - send a port detect request", e.cmdPortDetect},
	}
	return e
}

// Commands returns the registered command names in order.
func (e *Executor) Commands() []string {
	names := make([]string, 0, len(e.handlers))
	for n := range e.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Execute runs one command line.
func (e *Executor) Execute(ctx context.Context, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	name := strings.ToLower(fields[0])
	if full, ok := e.aliases[name]; ok {
		name = full
	}

	handler, ok := e.handlers[name]
	if !ok {
		return "", fmt.Errorf("%w: %s (type 'help' for commands)", ErrUnknownCommand, name)
	}
	return handler.Execute(ctx, fields[1:])
}

func usage(h string) error {
	return fmt.Errorf("%w: %s", ErrUsage, strings.Join(strings.Fields(h), " "))
}

func (e *Executor) cmdHelp(context.Context, []string) (string, error) {
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, n := range e.Commands() {
		fmt.Fprintf(&b, "  %s\n", e.handlers[n].Usage())
	}
	b.WriteString("  quit                        - leave the shell\n")
	b.WriteString("Groups are numbered from 1; use 't' or 'transport' for the transport group.")
	return b.String(), nil
}

func (e *Executor) cmdStatus(context.Context, []string) (string, error) {
	s := e.editor.Session()
	dev := s.Device()
	return fmt.Sprintf("state: %s\nvariant: %s\nchannel: %d\nfirmware: %s\ndropped: %d",
		s.State(), dev.Variant, dev.Channel+1, s.Firmware(), s.Outbox().Dropped()), nil
}

func (e *Executor) cmdDetect(ctx context.Context, _ []string) (string, error) {
	ev, err := e.editor.Detect(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("found %s on channel %d, firmware %s", ev.Variant, ev.Channel+1, ev.Version), nil
}

func (e *Executor) cmdInquiry(ctx context.Context, _ []string) (string, error) {
	ev, err := e.editor.Inquiry(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("family %d member %d on channel %d, firmware %s",
		ev.Family, ev.Member, ev.Channel+1, ev.Version), nil
}

func (e *Executor) cmdVariant(_ context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", usage(e.handlers["variant"].Usage())
	}
	v, ok := scene.ParseVariant(args[0])
	if !ok {
		return "", fmt.Errorf("%w: variant %q", editor.ErrUnknownName, args[0])
	}
	if err := e.editor.Session().SelectVariant(v); err != nil {
		return "", err
	}
	return fmt.Sprintf("selected %s", v), nil
}

func (e *Executor) cmdDump(ctx context.Context, _ []string) (string, error) {
	if err := e.editor.Dump(ctx); err != nil {
		return "", err
	}
	return "scene loaded", nil
}

func (e *Executor) cmdShow(context.Context, []string) (string, error) {
	view, err := e.editor.Snapshot()
	if err != nil {
		return "", err
	}
	return marshalYAML(view)
}

func (e *Executor) cmdDescribe(_ context.Context, args []string) (string, error) {
	v := e.editor.Session().Variant()
	if len(args) == 1 {
		var ok bool
		if v, ok = scene.ParseVariant(args[0]); !ok {
			return "", fmt.Errorf("%w: variant %q", editor.ErrUnknownName, args[0])
		}
	}
	if !v.Known() {
		return "", usage("describe <nanokontrol|nanokontrol2>")
	}
	return marshalYAML(v.Describe())
}

func (e *Executor) cmdGet(_ context.Context, args []string) (string, error) {
	if len(args) != 1 && len(args) != 3 {
		return "", usage(e.handlers["get"].Usage())
	}
	addr, err := editor.ParseAddress(e.editor.Session().Variant(), args...)
	if err != nil {
		return "", err
	}
	v, err := e.editor.Get(addr)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s = %d", addr, v), nil
}

func (e *Executor) cmdSet(_ context.Context, args []string) (string, error) {
	if len(args) != 2 && len(args) != 4 {
		return "", usage(e.handlers["set"].Usage())
	}
	value, err := parseByte(args[len(args)-1])
	if err != nil {
		return "", err
	}
	addr, err := editor.ParseAddress(e.editor.Session().Variant(), args[:len(args)-1]...)
	if err != nil {
		return "", err
	}
	if err := e.editor.Set(addr, value); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s = %d", addr, value), nil
}

func (e *Executor) cmdChannel(_ context.Context, args []string) (string, error) {
	if len(args) != 2 {
		return "", usage(e.handlers["channel"].Usage())
	}
	ch, err := parseByte(args[1])
	if err != nil {
		return "", err
	}
	if args[0] == "global" || args[0] == "g" {
		err = e.editor.SetGlobalChannel(ch)
	} else {
		err = e.editor.SetGroupChannel(args[0], ch)
	}
	if err != nil {
		return "", err
	}
	return "ok", nil
}

func (e *Executor) cmdName(_ context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", usage(e.handlers["name"].Usage())
	}
	if err := e.editor.SetName(strings.Join(args, " ")); err != nil {
		return "", err
	}
	return "ok", nil
}

func (e *Executor) cmdLED(_ context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", usage(e.handlers["led"].Usage())
	}
	mode, err := parseByte(args[0])
	if err != nil {
		return "", err
	}
	if err := e.editor.SetLEDMode(mode); err != nil {
		return "", err
	}
	return "ok", nil
}

func (e *Executor) cmdControlMode(_ context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", usage(e.handlers["ctrlmode"].Usage())
	}
	mode, err := parseByte(args[0])
	if err != nil {
		return "", err
	}
	if err := e.editor.SetControlMode(mode); err != nil {
		return "", err
	}
	return "ok", nil
}

func (e *Executor) cmdUpload(ctx context.Context, _ []string) (string, error) {
	if err := e.editor.Upload(ctx); err != nil {
		return "", err
	}
	return "scene uploaded", nil
}

func (e *Executor) cmdDiscard(ctx context.Context, _ []string) (string, error) {
	if err := e.editor.Discard(ctx); err != nil {
		return "", err
	}
	return "local changes discarded", nil
}

func (e *Executor) cmdWrite(ctx context.Context, args []string) (string, error) {
	index, err := sceneArg(args, e.handlers["write"].Usage())
	if err != nil {
		return "", err
	}
	if err := e.editor.Write(ctx, index); err != nil {
		return "", err
	}
	return fmt.Sprintf("scene %d written", index+1), nil
}

func (e *Executor) cmdScene(ctx context.Context, args []string) (string, error) {
	index, err := sceneArg(args, e.handlers["scene"].Usage())
	if err != nil {
		return "", err
	}
	if err := e.editor.SceneChange(ctx, index); err != nil {
		return "", err
	}
	return fmt.Sprintf("scene %d loaded", index+1), nil
}

func (e *Executor) cmdNative(ctx context.Context, args []string) (string, error) {
	var (
		native bool
		err    error
	)
	switch {
	case len(args) == 0:
		native, err = e.editor.QueryMode(ctx)
	case len(args) == 1 && args[0] == "on":
		native, err = e.editor.NativeMode(ctx, true)
	case len(args) == 1 && args[0] == "off":
		native, err = e.editor.NativeMode(ctx, false)
	default:
		return "", usage(e.handlers["native"].Usage())
	}
	if err != nil {
		return "", err
	}
	if native {
		return "native mode", nil
	}
	return "normal mode", nil
}

func (e *Executor) cmdPortDetect(context.Context, []string) (string, error) {
	if err := e.editor.PortDetect(); err != nil {
		return "", err
	}
	return "sent", nil
}

func sceneArg(args []string, help string) (int, error) {
	if len(args) != 1 {
		return 0, usage(help)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, usage(help)
	}
	return n - 1, nil
}

func parseByte(s string) (uint8, error) {
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return uint8(n), nil
}

func marshalYAML(v any) (string, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to render YAML: %w", err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}
