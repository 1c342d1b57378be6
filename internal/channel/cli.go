package channel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"receptionist/internal/business"
	"receptionist/internal/domain"
)

// CLI is an interactive terminal session against the conversation handler,
// useful for trying the receptionist without any webhook plumbing.
type CLI struct {
	handler domain.Handler
	profile *business.Profile
	logger  *slog.Logger
	in      io.Reader
	out     io.Writer
}

type CLISessionConfig struct {
	Handler domain.Handler
	Profile *business.Profile
	Logger  *slog.Logger
	In      io.Reader
	Out     io.Writer
}

func NewCLI(cfg CLISessionConfig) *CLI {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	return &CLI{
		handler: cfg.Handler,
		profile: cfg.Profile,
		logger:  cfg.Logger,
		in:      cfg.In,
		out:     cfg.Out,
	}
}

func (c *CLI) Name() string { return "cli" }

var _ domain.Channel = (*CLI)(nil)

// Start runs the REPL until /quit or EOF.
func (c *CLI) Start(ctx context.Context) error {
	fmt.Fprintf(c.out, "%s receptionist. Type a message and press Enter. Type /quit to exit.\n", c.profile.Name)
	fmt.Fprint(c.out, "You> ")

	scanner := bufio.NewScanner(c.in)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Fprint(c.out, "You> ")
			continue
		}
		if line == "/quit" || line == "/exit" || line == "/q" {
			return nil
		}

		reply, err := c.handler.Handle(ctx, domain.IncomingMessage{
			Channel:    domain.ChannelCLI,
			ChatID:     "direct",
			Text:       line,
			ReceivedAt: time.Now(),
		})
		if err != nil {
			c.logger.Error("cli handling failed", "error", err)
			fmt.Fprintln(c.out, c.profile.FallbackReply)
		} else {
			fmt.Fprintln(c.out, reply.Text)
		}
		fmt.Fprint(c.out, "You> ")
	}
}
