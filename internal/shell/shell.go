// Package shell provides the interactive scene editor.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Shell reads command lines and hands them to an Executor.
type Shell struct {
	exec *Executor
	rl   *readline.Instance
}

// New creates a new interactive shell.
func New(exec *Executor) (*Shell, error) {
	items := make([]readline.PrefixCompleterInterface, 0, len(exec.handlers)+1)
	for _, name := range exec.Commands() {
		items = append(items, readline.PcItem(name))
	}
	items = append(items, readline.PcItem("quit"))

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "nkonfig> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    readline.NewPrefixCompleter(items...),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{exec: exec, rl: rl}, nil
}

// Stdout returns a writer that coordinates with the prompt. Log output
// should go here.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run reads commands until quit, EOF or ctx is done.
func (s *Shell) Run(ctx context.Context) {
	defer s.rl.Close()

	out := s.rl.Stdout()
	fmt.Fprintln(out, "Type 'help' for commands.")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(out, "Exiting...")
			return
		}

		input := strings.TrimSpace(line)
		switch strings.ToLower(input) {
		case "":
			continue
		case "quit", "exit", "q":
			fmt.Fprintln(out, "Exiting...")
			return
		}

		result, err := s.exec.Execute(ctx, input)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		if result != "" {
			fmt.Fprintln(out, result)
		}
	}
}
