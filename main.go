package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"

	"github.com/PixPMusic/nkonfig/internal/config"
	"github.com/PixPMusic/nkonfig/internal/editor"
	"github.com/PixPMusic/nkonfig/internal/mcpserver"
	"github.com/PixPMusic/nkonfig/internal/midi"
	"github.com/PixPMusic/nkonfig/internal/protocol"
	"github.com/PixPMusic/nkonfig/internal/scene"
	"github.com/PixPMusic/nkonfig/internal/shell"
	"github.com/PixPMusic/nkonfig/internal/trace"
)

const version = "0.1.0"

const usageText = `usage: nkonfig <command> [args]

Commands:
  ports                         list MIDI ports
  detect                        search for the device
  dump                          print the device's current scene
  get <group/control/param>     read a parameter from the device
  set <group/control/param> <v> change a parameter on the device
  write <1-4>                   store the current scene in a slot
  scene <1-4>                   switch scene (nanoKONTROL only)
  native [on|off]               query or switch native mode
  describe <variant>            print the parameter map
  shell                         interactive editor
  mcp                           serve MCP tools on stdio
  trace <file> [in|out] [kind=<kind>] [session=<id>]
                                print a recorded trace`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usageText)
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if cfg.IsNew() {
		if err := cfg.Save(); err != nil {
			log.Printf("Failed to save config: %v", err)
		}
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger, os.Args[1], os.Args[2:]); err != nil {
		logger.Sync()
		fmt.Fprintf(os.Stderr, "nkonfig: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	lvl, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.DisableStacktrace = true
	return zc.Build()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, cmd string, args []string) error {
	switch cmd {
	case "help", "-h", "--help":
		fmt.Println(usageText)
		return nil
	case "ports":
		return listPorts(os.Stdout)
	case "trace":
		return printTrace(os.Stdout, args)
	case "describe":
		return describe(args)
	}

	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	switch cmd {
	case "detect":
		return a.once(ctx, false, "detect")
	case "dump":
		return a.once(ctx, true, "show")
	case "get":
		return a.once(ctx, true, "get "+strings.Join(args, " "))
	case "set":
		return a.once(ctx, true, "set "+strings.Join(args, " "), "upload")
	case "write":
		return a.once(ctx, false, "write "+strings.Join(args, " "))
	case "scene":
		return a.once(ctx, false, "scene "+strings.Join(args, " "), "show")
	case "native":
		return a.once(ctx, false, "native "+strings.Join(args, " "))
	case "shell":
		return a.runShell(ctx)
	case "mcp":
		return a.runMCP(ctx)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// app is an open connection to the device.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	manager  *midi.Manager
	session  *protocol.Session
	link     *midi.Link
	editor   *editor.Editor
	exec     *shell.Executor
	recorder *trace.Recorder
	stop     func()
}

func openApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, log: logger, manager: midi.NewManager()}

	in, err := a.manager.GetInPort(cfg.InPort, cfg.PortHint)
	if err != nil {
		a.Close()
		return nil, err
	}
	out, err := a.manager.GetOutPort(cfg.OutPort, cfg.PortHint)
	if err != nil {
		a.Close()
		return nil, err
	}
	send, err := a.manager.OpenSender(out)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.session = protocol.NewSession(
		protocol.WithLogger(logger.Named("session")),
		protocol.WithChannel(uint8(cfg.Channel)),
		protocol.WithEchoID(cfg.SessionEchoID()),
	)

	opts := []midi.LinkOption{midi.WithLogger(logger.Named("link"))}
	if cfg.TracePath != "" {
		a.recorder, err = trace.NewRecorder(cfg.TracePath, cfg.InstanceID)
		if err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, midi.WithRecorder(a.recorder))
	}
	a.link = midi.NewLink(a.session, send, opts...)

	if a.stop, err = a.link.Listen(in); err != nil {
		a.Close()
		return nil, err
	}
	logger.Debug("ports open", zap.String("in", in.String()), zap.String("out", out.String()))

	a.editor = editor.New(a.session, a.link, logger.Named("editor"), cfg.ReplyTimeout())
	a.exec = shell.NewExecutor(a.editor)
	return a, nil
}

// Close stops listening and releases the ports and trace file.
func (a *app) Close() {
	if a.stop != nil {
		a.stop()
	}
	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			a.log.Warn("failed to close trace", zap.Error(err))
		}
	}
	a.manager.Close()
}

func (a *app) connect(ctx context.Context) error {
	return a.editor.Connect(ctx, a.cfg.SceneVariant())
}

// once connects, optionally loads the device scene and runs command lines
// through the shell executor.
func (a *app) once(ctx context.Context, dump bool, lines ...string) error {
	if lines[0] != "detect" {
		if err := a.connect(ctx); err != nil {
			return err
		}
	}
	if dump {
		if err := a.editor.Dump(ctx); err != nil {
			return err
		}
	}
	for _, line := range lines {
		out, err := a.exec.Execute(ctx, line)
		if err != nil {
			return err
		}
		fmt.Println(out)
	}
	return nil
}

func (a *app) runShell(ctx context.Context) error {
	if err := a.connect(ctx); err != nil {
		a.log.Warn("device not detected; use 'detect' or 'variant'", zap.Error(err))
	}

	sh, err := shell.New(a.exec)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.pump(ctx)

	sh.Run(ctx)
	return nil
}

func (a *app) runMCP(ctx context.Context) error {
	if err := a.connect(ctx); err != nil {
		a.log.Warn("device not detected", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.pump(ctx)

	return mcpserver.New(a.editor, a.log.Named("mcp"), version).ServeStdio()
}

func (a *app) pump(ctx context.Context) {
	if err := a.link.Pump(ctx, a.cfg.PollInterval()); err != nil && !errors.Is(err, context.Canceled) {
		a.log.Warn("pump stopped", zap.Error(err))
	}
}

func listPorts(w io.Writer) error {
	m := midi.NewManager()
	defer m.Close()

	fmt.Fprintln(w, "Inputs:")
	for _, name := range m.ListInPorts() {
		fmt.Fprintf(w, "  %s\n", name)
	}
	fmt.Fprintln(w, "Outputs:")
	for _, name := range m.ListOutPorts() {
		fmt.Fprintf(w, "  %s\n", name)
	}
	return nil
}

func describe(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: nkonfig describe <nanokontrol|nanokontrol2>")
	}
	v, ok := scene.ParseVariant(args[0])
	if !ok {
		return fmt.Errorf("unknown variant %q", args[0])
	}
	ed := editor.New(protocol.NewSession(protocol.WithVariant(v)), nil, nil, 0)
	out, err := shell.NewExecutor(ed).Execute(context.Background(), "describe")
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func printTrace(w io.Writer, args []string) error {
	if len(args) < 1 {
		return errors.New(traceUsage)
	}
	filter, err := parseTraceFilter(args[1:])
	if err != nil {
		return err
	}

	r, err := trace.NewFilteredReader(args[0], filter)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer r.Close()

	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read trace: %w", err)
		}
		fmt.Fprintf(w, "%s %-3s %-22s % X\n",
			rec.Timestamp.Format("15:04:05.000000"), rec.Direction, rec.Kind, rec.Data)
	}
}

const traceUsage = "usage: nkonfig trace <file> [in|out] [kind=<kind>] [session=<id>]"

func parseTraceFilter(args []string) (trace.Filter, error) {
	var filter trace.Filter
	for _, arg := range args {
		if key, value, ok := strings.Cut(arg, "="); ok {
			switch key {
			case "kind":
				filter.Kind = value
			case "session":
				filter.Session = value
			default:
				return filter, fmt.Errorf("unknown trace filter %q", key)
			}
			continue
		}
		dir, ok := trace.ParseDirection(arg)
		if !ok || filter.Direction != nil {
			return filter, fmt.Errorf("unknown direction %q", arg)
		}
		filter.Direction = &dir
	}
	return filter, nil
}
