package shell

import "context"

// Handler runs one shell command.
type Handler interface {
	// Execute runs the command and returns its output
	Execute(ctx context.Context, args []string) (string, error)

	// Usage returns the one line help text
	Usage() string
}

type command struct {
	usage string
	run   func(ctx context.Context, args []string) (string, error)
}

func (c command) Execute(ctx context.Context, args []string) (string, error) {
	return c.run(ctx, args)
}

func (c command) Usage() string {
	return c.usage
}
